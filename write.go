////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package pal

import (
	"syscall"

	jww "github.com/spf13/jwalterweatherman"
)

const opWrite = "pwrite"

// WriteExact writes all of buf to fd at offset. Short writes are continued at
// offset plus the bytes written so far. EINVAL on a mount that rejects
// directory sync (CIFS and NFS can return it shortly after file creation) is
// retried with a decreasing backoff until the policy budget runs out.
//
// On failure the error carries WriteFailed, or WriteFailedAfterRetries if any
// of the budget was used, and the errno of the last attempt.
func (p *Pal) WriteExact(fd Descriptor, buf []byte, offset int64) error {
	retries := p.policy.WriteRetries
	written := 0
	for written < len(buf) {
		pos := offset + int64(written)
		n, err := p.sys.Pwrite(fd, buf[written:], pos)
		if err != nil {
			errno := errnoOf(err)
			if errno == syscall.EINVAL && !p.sys.SyncDirAllowed(fd) {
				retries--
				if retries > 0 {
					delay := p.policy.backoff(retries)
					jww.WARN.Printf("pwrite of %d bytes at %d on fd %d "+
						"returned EINVAL on a network mount, retrying "+
						"in %s (%d left)", len(buf)-written, pos, fd, delay,
						retries)
					p.sleep(delay)
					continue
				}
			}

			used := p.policy.WriteRetries - retries
			if used != 0 {
				return newError(opWrite, "", WriteFailedAfterRetries, errno,
					used)
			}
			return newError(opWrite, "", WriteFailed, errno, 0)
		}
		written += n
	}
	return nil
}
