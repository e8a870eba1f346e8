////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build darwin

package portable

import (
	"golang.org/x/sys/unix"
)

// localFlagProbe treats every mount without MNT_LOCAL as a network mount.
type localFlagProbe struct{}

func (localFlagProbe) SyncDirAllowed(fd Descriptor) bool {
	var st unix.Statfs_t
	if err := unix.Fstatfs(int(fd), &st); err != nil {
		return true
	}
	return st.Flags&unix.MNT_LOCAL != 0
}

func nativeMountProbe() MountProbe {
	return localFlagProbe{}
}
