////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package portable contains the OS primitives used by pal, behind an interface
// so they can be replaced on platforms without raw file descriptors, such as
// wasm, and in tests.
//
// Note to those implementing Syscalls: all errors must be syscall.Errno values
// (or wrap one) so callers can classify them. In particular
//  EINVAL      invalid argument (retried by pal on some network mounts)
//  EOPNOTSUPP  preallocation not supported
//  EINTR       interrupted, safe to retry
//  EBADF       descriptor is not open
//  ENOENT      path does not exist
package portable

import (
	"os"
)

// Descriptor is an open OS file descriptor. It is only ever produced by
// Syscalls.Open or by an explicit FromFile conversion.
type Descriptor int

// InvalidDescriptor is the sentinel value for a descriptor that was never
// opened.
const InvalidDescriptor Descriptor = -1

// FromFile returns the descriptor backing f. The caller keeps ownership of f;
// closing the returned descriptor behind the os.File's back is the caller's
// responsibility.
func FromFile(f *os.File) Descriptor {
	return Descriptor(f.Fd())
}

// Preallocator reserves file space natively. Implementations are selected per
// platform at build time.
type Preallocator interface {
	// Preallocate reserves size bytes for fd starting at offset 0. It returns
	// EOPNOTSUPP (or EINVAL) when the platform or filesystem cannot do it.
	Preallocate(fd Descriptor, size int64) error
}

// MountProbe classifies the filesystem backing a descriptor.
type MountProbe interface {
	// SyncDirAllowed returns false for filesystems known to reject fsync on
	// directories, which in practice are network mounts (CIFS, SMB, NFS).
	SyncDirAllowed(fd Descriptor) bool
}

// Syscalls is the subset of OS file operations used by pal.
type Syscalls interface {
	Preallocator
	MountProbe

	// Open opens path with os.O_* flags and returns a raw descriptor.
	Open(path string, flag int, perm FileMode) (Descriptor, error)

	// Pwrite writes b at offset off. It may write fewer than len(b) bytes
	// without returning an error.
	Pwrite(fd Descriptor, b []byte, off int64) (n int, err error)

	// Pread reads into b from offset off. It returns 0 and a nil error at end
	// of file.
	Pread(fd Descriptor, b []byte, off int64) (n int, err error)

	// Fsync commits the contents of fd to stable storage.
	Fsync(fd Descriptor) error

	// Unlink removes path from the filesystem namespace.
	Unlink(path string) error

	// Close releases fd.
	Close(fd Descriptor) error

	// SyncDir flushes the directory entry changes of dir.
	SyncDir(dir string) error
}

// A FileMode represents the permission bits used when Open creates a file.
type FileMode uint32
