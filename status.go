////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package pal

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

// Status is the outcome of a primitive. Every non-nil error returned by
// WriteExact, AllocateSpace and DisposeHandle carries exactly one of these.
type Status int32

const (
	Success Status = iota
	WriteFailed
	WriteFailedAfterRetries
	UnlinkFailed
	CloseFailed
	InvalidHandle
	// AllocateFailed is returned when native preallocation fails with an
	// error that is neither "unsupported" nor resolved by retrying EINTR.
	AllocateFailed

	noStatus Status = -1
)

var statusNames = map[Status]string{
	Success:                 "success",
	WriteFailed:             "write failed",
	WriteFailedAfterRetries: "write failed after retries",
	UnlinkFailed:            "unlink failed",
	CloseFailed:             "close failed",
	InvalidHandle:           "invalid handle",
	AllocateFailed:          "allocate failed",
}

// String returns a human readable status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// Error is the failure reported by a primitive: the Status plus the OS error
// number that caused it. Errno is zero for InvalidHandle.
type Error struct {
	Op      string
	Path    string
	Status  Status
	Errno   syscall.Errno
	Retries int
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Status.String()
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Retries > 0 {
		msg += fmt.Sprintf(" (%d retries)", e.Retries)
	}
	if e.Errno != 0 {
		msg += ": " + e.Errno.Error()
	}
	return msg
}

// Unwrap exposes the OS error so errors.Is(err, syscall.EINVAL) works.
func (e *Error) Unwrap() error {
	if e.Errno == 0 {
		return nil
	}
	return e.Errno
}

// StatusOf returns the Status carried by err. A nil error is Success. Errors
// that did not come from a primitive report noStatus, which prints as
// "status(-1)".
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return noStatus
}

// ErrnoOf returns the detailed OS error number carried by err, or zero if
// there is none.
func ErrnoOf(err error) syscall.Errno {
	var e *Error
	if errors.As(err, &e) {
		return e.Errno
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

// errnoOf extracts the errno from an OS layer error. Anything that is not an
// errno is reported as EIO.
func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}

func newError(op, path string, status Status, errno syscall.Errno,
	retries int) error {
	return errors.WithStack(&Error{
		Op:      op,
		Path:    path,
		Status:  status,
		Errno:   errno,
		Retries: retries,
	})
}
