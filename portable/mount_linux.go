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

// Filesystem magic numbers from statfs(2) for mounts that refuse fsync on a
// directory.
const (
	nfsSuperMagic = 0x6969
	smbSuperMagic = 0x517B
	cifsMagic     = 0xFF534D42
	smb2Magic     = 0xFE534D42
)

// statfsProbe classifies mounts by their statfs type.
type statfsProbe struct{}

// SyncDirAllowed returns false on NFS, SMB and CIFS mounts. If fstatfs fails
// the mount is assumed to be local.
func (statfsProbe) SyncDirAllowed(fd Descriptor) bool {
	var st unix.Statfs_t
	if err := unix.Fstatfs(int(fd), &st); err != nil {
		return true
	}
	switch uint32(st.Type) {
	case nfsSuperMagic, smbSuperMagic, cifsMagic, smb2Magic:
		return false
	}
	return true
}

func nativeMountProbe() MountProbe {
	return statfsProbe{}
}
