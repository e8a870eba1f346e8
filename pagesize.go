////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package pal

// RoundUpToPage returns size rounded up to the next multiple of pageSize.
// Sizes that are already a multiple are returned unchanged. pageSize must be
// positive.
func RoundUpToPage(size, pageSize int64) int64 {
	if size%pageSize == 0 {
		return size
	}
	return (size/pageSize + 1) * pageSize
}
