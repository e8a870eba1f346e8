////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// This file is compiled for platforms without POSIX descriptors, including
// WebAssembly and Windows.
//go:build !unix

package portable

// UsePosix is not available without POSIX descriptors. Use UseKeyValue
// instead with a key-value store (e.g., localStorage, IndexedDB).
func UsePosix() Syscalls {
	panic("UsePosix is not available on this platform; use UseKeyValue with a key-value store instead")
}
