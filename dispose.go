////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package pal

import (
	jww "github.com/spf13/jwalterweatherman"
)

const opDispose = "dispose"

// DisposeHandle optionally unlinks path and then always closes fd.
//
// An unlink failure takes precedence: the returned error is UnlinkFailed with
// the unlink errno even if close failed as well. The close errno is then only
// logged. Otherwise a close failure is returned as CloseFailed. InvalidDescriptor
// is rejected with InvalidHandle before any system call is made.
func (p *Pal) DisposeHandle(path string, fd Descriptor,
	deleteOnClose bool) error {
	if fd == InvalidDescriptor {
		return newError(opDispose, path, InvalidHandle, 0, 0)
	}

	var unlinkErr error
	if deleteOnClose {
		if err := p.sys.Unlink(path); err != nil {
			unlinkErr = newError(opDispose, path, UnlinkFailed,
				errnoOf(err), 0)
		}
	}

	// Close even if unlink failed, or the descriptor leaks.
	if err := p.sys.Close(fd); err != nil {
		if unlinkErr != nil {
			// TODO: surface both errnos once callers can take a joined error.
			jww.WARN.Printf("closing fd %d of %s failed after unlink "+
				"failed, close error dropped: %s", fd, path, errnoOf(err))
			return unlinkErr
		}
		return newError(opDispose, path, CloseFailed, errnoOf(err), 0)
	}
	return unlinkErr
}
