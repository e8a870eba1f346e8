////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package pal

import (
	"syscall"

	"github.com/dustin/go-humanize"
	jww "github.com/spf13/jwalterweatherman"
)

const opAllocate = "preallocate"

// AllocateSpace makes fd at least size bytes long, preferring native
// preallocation. When that is unsupported, or the filesystem rejects the
// size with EFBIG (FAT32 and ntfs-3g cap extents at 4 GiB), a single zero byte
// is written at size-1 with WriteExact and its result is returned as is.
// EINTR is retried up to the policy's AllocateAttempts.
//
// The fallback overwrites the byte at size-1 if the file is already longer.
// A size of zero or less is a no-op.
func (p *Pal) AllocateSpace(fd Descriptor, size int64) error {
	if size <= 0 {
		return nil
	}

	var last error
	for attempt := 0; attempt < p.policy.AllocateAttempts; attempt++ {
		err := p.sys.Preallocate(fd, size)
		if err == nil {
			return nil
		}

		errno := errnoOf(err)
		switch {
		case preallocateUnsupported(errno):
			jww.DEBUG.Printf("preallocating %s on fd %d: %s, extending "+
				"by writing the last byte", humanize.IBytes(uint64(size)), fd,
				errno)
			return p.WriteExact(fd, []byte{0}, size-1)
		case errno == syscall.EINTR:
			last = newError(opAllocate, "", AllocateFailed, errno, attempt+1)
		default:
			return newError(opAllocate, "", AllocateFailed, errno, attempt)
		}
	}
	return last
}

// preallocateUnsupported reports whether errno means native preallocation
// cannot be used for this file at all.
func preallocateUnsupported(errno syscall.Errno) bool {
	return errno == syscall.EINVAL ||
		errno == syscall.EFBIG ||
		errno == syscall.EOPNOTSUPP ||
		errno == syscall.ENOTSUP ||
		errno == syscall.ENOSYS
}
