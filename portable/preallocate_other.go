////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// This file is compiled for every unix except Linux. Darwin's F_PREALLOCATE
// does not extend the file size, so the sparse fallback is used there too.
//go:build unix && !linux

package portable

func nativePreallocator() Preallocator {
	return unsupportedPreallocator{}
}
