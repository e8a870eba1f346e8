////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package portable

import (
	"syscall"
)

// unsupportedPreallocator is used wherever no native preallocation exists.
// pal falls back to extending the file by writing its last byte.
type unsupportedPreallocator struct{}

// Preallocate always reports EOPNOTSUPP.
func (unsupportedPreallocator) Preallocate(Descriptor, int64) error {
	return syscall.EOPNOTSUPP
}
