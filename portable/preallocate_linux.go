////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build linux

package portable

import (
	"golang.org/x/sys/unix"
)

// fallocator preallocates with fallocate(2). Mode 0 also extends the file
// size, matching posix_fallocate.
type fallocator struct{}

func (fallocator) Preallocate(fd Descriptor, size int64) error {
	return unix.Fallocate(int(fd), 0, 0, size)
}

func nativePreallocator() Preallocator {
	return fallocator{}
}
