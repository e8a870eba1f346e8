////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package pal provides durable file I/O primitives for a storage engine: a
// positioned write that always writes the full buffer, space preallocation
// with a sparse fallback, and descriptor teardown with optional deletion.
//
// All operations block the caller, including retry backoff, and none of them
// coordinate concurrent use of the same descriptor.
package pal

import (
	"os"
	"sync"
	"time"

	"gitlab.com/elixxir/pal/portable"
)

// Descriptor is an open OS file descriptor.
type Descriptor = portable.Descriptor

// InvalidDescriptor is the sentinel for a descriptor that was never opened.
const InvalidDescriptor = portable.InvalidDescriptor

// RetryPolicy bounds the retries absorbed by a single call.
type RetryPolicy struct {
	// WriteRetries is the EINVAL retry budget of WriteExact on mounts that
	// reject directory sync. The budget is decremented before each retry and
	// must stay above zero, so 3 allows two retries.
	WriteRetries int
	// BackoffUnit is multiplied by the remaining budget to get the sleep
	// before a write retry.
	BackoffUnit time.Duration
	// AllocateAttempts bounds the native preallocation attempts of
	// AllocateSpace under repeated EINTR.
	AllocateAttempts int
}

// DefaultRetryPolicy returns the policy used by New.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		WriteRetries:     3,
		BackoffUnit:      100 * time.Millisecond,
		AllocateAttempts: 1024,
	}
}

// backoff returns the sleep before a retry when remaining attempts are left.
func (rp RetryPolicy) backoff(remaining int) time.Duration {
	return rp.BackoffUnit * time.Duration(remaining)
}

// Pal runs the primitives against one OS layer. It holds no per-call state;
// once configured it is safe for concurrent use.
type Pal struct {
	sys      portable.Syscalls
	policy   RetryPolicy
	sleep    func(time.Duration)
	pageSize int64
}

// New returns a Pal using sys and the default retry policy.
func New(sys portable.Syscalls) *Pal {
	return NewWithPolicy(sys, DefaultRetryPolicy())
}

// NewWithPolicy returns a Pal using sys and a custom retry policy.
func NewWithPolicy(sys portable.Syscalls, policy RetryPolicy) *Pal {
	return &Pal{
		sys:      sys,
		policy:   policy,
		sleep:    time.Sleep,
		pageSize: int64(os.Getpagesize()),
	}
}

// SetSleeper sets the function used to wait between write retries.
func (p *Pal) SetSleeper(sleep func(time.Duration)) {
	p.sleep = sleep
}

// SetPageSize sets the page size that header files are allocated in.
func (p *Pal) SetPageSize(pageSize int64) {
	p.pageSize = pageSize
}

// Syscalls returns the OS layer p runs against.
func (p *Pal) Syscalls() portable.Syscalls {
	return p.sys
}

var (
	std     *Pal
	stdOnce sync.Once
)

// Default returns the Pal used by the package level functions, backed by
// portable.UsePosix. It panics on platforms without POSIX descriptors.
func Default() *Pal {
	stdOnce.Do(func() {
		std = New(portable.UsePosix())
	})
	return std
}

// WriteExact calls Default().WriteExact.
func WriteExact(fd Descriptor, buf []byte, offset int64) error {
	return Default().WriteExact(fd, buf, offset)
}

// AllocateSpace calls Default().AllocateSpace.
func AllocateSpace(fd Descriptor, size int64) error {
	return Default().AllocateSpace(fd, size)
}

// DisposeHandle calls Default().DisposeHandle.
func DisposeHandle(path string, fd Descriptor, deleteOnClose bool) error {
	return Default().DisposeHandle(path, fd, deleteOnClose)
}

// WriteHeader calls Default().WriteHeader.
func WriteHeader(path string, data []byte) error {
	return Default().WriteHeader(path, data)
}

// ReadHeader calls Default().ReadHeader.
func ReadHeader(path string) ([]byte, error) {
	return Default().ReadHeader(path)
}

// DeleteHeader calls Default().DeleteHeader.
func DeleteHeader(path string) error {
	return Default().DeleteHeader(path)
}
