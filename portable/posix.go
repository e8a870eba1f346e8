////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// This file is only compiled for unix platforms.
//go:build unix

package portable

import (
	"golang.org/x/sys/unix"
)

// posix is a Syscalls implementation that issues the system calls directly on
// raw descriptors.
type posix struct {
	Preallocator
	MountProbe
}

// UsePosix returns a Syscalls implementation backed by the operating system.
// Preallocation and mount classification are chosen for the build platform.
func UsePosix() Syscalls {
	return &posix{
		Preallocator: nativePreallocator(),
		MountProbe:   nativeMountProbe(),
	}
}

// Open opens path with the given os.O_* flags. The descriptor is opened
// close-on-exec.
func (p *posix) Open(path string, flag int, perm FileMode) (Descriptor, error) {
	for {
		fd, err := unix.Open(path, flag|unix.O_CLOEXEC, uint32(perm))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return InvalidDescriptor, err
		}
		return Descriptor(fd), nil
	}
}

// Pwrite issues a single pwrite(2).
func (p *posix) Pwrite(fd Descriptor, b []byte, off int64) (int, error) {
	return unix.Pwrite(int(fd), b, off)
}

// Pread issues a single pread(2).
func (p *posix) Pread(fd Descriptor, b []byte, off int64) (int, error) {
	return unix.Pread(int(fd), b, off)
}

// Fsync commits fd to stable storage.
func (p *posix) Fsync(fd Descriptor) error {
	return unix.Fsync(int(fd))
}

// Unlink removes path.
func (p *posix) Unlink(path string) error {
	return unix.Unlink(path)
}

// Close closes fd. It is not retried on EINTR; on Linux the descriptor is
// released regardless.
func (p *posix) Close(fd Descriptor) error {
	return unix.Close(int(fd))
}

// SyncDir opens dir read only and fsyncs it.
func (p *posix) SyncDir(dir string) error {
	fd, err := p.Open(dir, unix.O_RDONLY, 0)
	if err != nil {
		return err
	}
	err = unix.Fsync(int(fd))
	if closeErr := unix.Close(int(fd)); err == nil {
		err = closeErr
	}
	return err
}
