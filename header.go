////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package pal

// header.go stores small files, such as a database header, durably on top of
// the primitives. Our general strategy is to use two copies, writing over the
// "oldest" and reading the "newest". Every write preallocates the copy, writes
// it in full with WriteExact, fsyncs it and then flushes the directory when
// the mount allows it.

// The "oldest" and "newest" are determined using a modular monotonic counter
// (ModMonCntr), which "always increases" in a modular monotonic sense. In other
// words: 0 < 1 < 2 < 0 and so on forever.

// Copy layout:
//  [ModMonCntr:1][size:4, little endian][contents:size][blake2b-256:32]
// A copy may be longer than this; it is allocated in whole pages.

// NOTE: We assume calls for the same path are synchronized by the caller.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/crypto/blake2b"
)

const (
	errModMonCntrInvalidVal = "ModMonCntr Invalid Values: %d, %d"
	errNewestFile           = "Invalid read finding newest header copy: %s"
	errShortRead            = "Short header read %s: %s"
	errInvalidSizeContents  = "Invalid contents size: %d"
	errChecksum             = "Invalid Checksum %s: Actual(%X) != Expected(%X)"
	errCannotRead           = "Did not read the same data that was written to %s!"
	modMonCntrSize          = 1
	sizeFieldSize           = 4
	headerPrefixSize        = modMonCntrSize + sizeFieldSize
	headerFileMode          = 0600
)

// headerCopy is one of the two copies as read from storage. err is set when
// the counter could be read but the contents could not be validated.
type headerCopy struct {
	path     string
	cntr     byte
	contents []byte
	err      error
}

// getPaths returns "path.1" and "path.2"
func getPaths(path string) (string, string) {
	f1 := fmt.Sprintf("%s.1", path)
	f2 := fmt.Sprintf("%s.2", path)
	return f1, f2
}

// compareModMonCntr returns 1 if t1 is newer, 2 if t2 is newer, and 0 if
// there is an error. newer is defined as the second of 3 cases:
// (0 < 1), (1 < 2), (2 < 0). Anything else is an error
func compareModMonCntr(t1, t2 byte) byte {
	// NOTE: Yes, the following could be cleverer -- don't "improve" it.
	// t1 cases, 1 > 0, 2 > 1 and 0 > 2
	if (t1 == 1 && t2 == 0) ||
		(t1 == 2 && t2 == 1) ||
		(t1 == 0 && t2 == 2) {
		return 1
	}

	// t2 cases, 0 < 1, 1 < 2, and 2 < 0
	if (t1 == 0 && t2 == 1) ||
		(t1 == 1 && t2 == 2) ||
		(t1 == 2 && t2 == 0) {
		return 2
	}

	// everything else is an error
	return 0
}

// encodeHeader builds a full copy: counter, size, data and checksum.
func encodeHeader(modMonCntr byte, data []byte) []byte {
	contents := make([]byte, headerPrefixSize+len(data)+blake2b.Size256)
	contents[0] = modMonCntr
	binary.LittleEndian.PutUint32(
		contents[modMonCntrSize:headerPrefixSize], uint32(len(data)))

	contentEnd := headerPrefixSize + len(data)
	copy(contents[headerPrefixSize:contentEnd], data)

	checksum := blake2b.Sum256(data)
	copy(contents[contentEnd:], checksum[:])
	return contents
}

// readFullAt fills b from fd starting at off, continuing short reads.
func (p *Pal) readFullAt(fd Descriptor, b []byte, off int64) error {
	read := 0
	for read < len(b) {
		n, err := p.sys.Pread(fd, b[read:], off+int64(read))
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
		read += n
	}
	return nil
}

// readContents reads the size, contents and checksum of a copy and validates
// the checksum.
func (p *Pal) readContents(fd Descriptor, path string) ([]byte, error) {
	sizeBytes := make([]byte, sizeFieldSize)
	if err := p.readFullAt(fd, sizeBytes, modMonCntrSize); err != nil {
		return nil, errors.Errorf(errShortRead, path, err)
	}
	size := int64(binary.LittleEndian.Uint32(sizeBytes))
	if size <= 0 {
		return nil, errors.Errorf(errInvalidSizeContents, size)
	}

	body := make([]byte, size+blake2b.Size256)
	if err := p.readFullAt(fd, body, headerPrefixSize); err != nil {
		return nil, errors.Errorf(errShortRead, path, err)
	}
	contents, checksumInFile := body[:size], body[size:]

	actualChecksum := blake2b.Sum256(contents)
	if !bytes.Equal(checksumInFile, actualChecksum[:]) {
		return nil, errors.Errorf(errChecksum, path, actualChecksum,
			checksumInFile)
	}
	return contents, nil
}

// readCopy opens path and reads its counter and contents. An error is only
// returned if the copy cannot be opened or its counter cannot be read.
func (p *Pal) readCopy(path string) (*headerCopy, error) {
	fd, err := p.sys.Open(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.WithStack(
			&os.PathError{Op: "open", Path: path, Err: err})
	}
	defer func() {
		if err := p.DisposeHandle(path, fd, false); err != nil {
			jww.WARN.Printf("%+v", err)
		}
	}()

	cntr := make([]byte, modMonCntrSize)
	if err = p.readFullAt(fd, cntr, 0); err != nil {
		return nil, errors.Wrapf(err, "error reading counter of %s", path)
	}

	c := &headerCopy{path: path, cntr: cntr[0]}
	c.contents, c.err = p.readContents(fd, path)
	return c, nil
}

// getFileOrder returns the newest and oldest copies using the modular monotic
// counter inside them. If either fails to read, the successful copy is
// returned. If both fail to read, or return invalid results, return an error.
func (p *Pal) getFileOrder(path1, path2 string) (*headerCopy, *headerCopy,
	error) {
	c1, err1 := p.readCopy(path1)
	c2, err2 := p.readCopy(path2)

	// If both files don't exist, return that
	if errors.Is(err1, os.ErrNotExist) && errors.Is(err2, os.ErrNotExist) {
		return nil, nil, err1
	}

	// Otherwise return composite error
	if err1 != nil && err2 != nil {
		return nil, nil, errors.Errorf(errNewestFile+", %s", err1, err2)
	}

	// Return copy 2 or copy 1 if one of them did not error out
	if err1 != nil {
		return c2, nil, nil
	}
	if err2 != nil {
		return c1, nil, nil
	}

	// Otherwise compare the modulo monotonic counter and return the result
	switch compareModMonCntr(c1.cntr, c2.cntr) {
	case 1:
		return c1, c2, nil
	case 2:
		return c2, c1, nil
	}

	return nil, nil, errors.Errorf(errModMonCntrInvalidVal, c1.cntr, c2.cntr)
}

// writeCopy preallocates, writes and fsyncs one copy, then flushes its
// directory if the mount allows it.
func (p *Pal) writeCopy(path string, contents []byte) error {
	fd, err := p.sys.Open(path, os.O_RDWR|os.O_CREATE, headerFileMode)
	if err != nil {
		return errors.WithStack(
			&os.PathError{Op: "open", Path: path, Err: err})
	}
	syncDir := p.sys.SyncDirAllowed(fd)

	err = p.AllocateSpace(fd, RoundUpToPage(int64(len(contents)), p.pageSize))
	if err == nil {
		err = p.WriteExact(fd, contents, 0)
	}
	if err == nil {
		if syncErr := p.sys.Fsync(fd); syncErr != nil {
			err = errors.WithStack(
				&os.PathError{Op: "fsync", Path: path, Err: syncErr})
		}
	}
	if closeErr := p.DisposeHandle(path, fd, false); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.WithMessagef(err, "writing header copy %s", path)
	}

	if !syncDir {
		jww.DEBUG.Printf("Not syncing directory of %s on a network mount",
			path)
		return nil
	}
	return p.syncDir(path)
}

func (p *Pal) syncDir(path string) error {
	dir := filepath.Dir(path)
	if err := p.sys.SyncDir(dir); err != nil {
		return errors.WithStack(
			&os.PathError{Op: "fsync", Path: dir, Err: err})
	}
	return nil
}

// WriteHeader durably stores data under path. The oldest of the two copies is
// overwritten and then read back to verify it.
func (p *Pal) WriteHeader(path string, data []byte) error {
	if len(data) == 0 {
		return errors.Errorf(errInvalidSizeContents, 0)
	}

	// First, check if either copy can be read. Then write to the other one
	path1, path2 := getPaths(path)
	newest, oldest, _ := p.getFileOrder(path1, path2)

	modMonCntr := byte(2) // (2+1)%3 defaults to 0 when we can't read it
	pathThatWasRead := ""
	for _, c := range []*headerCopy{newest, oldest} {
		if c != nil && c.err == nil {
			modMonCntr = c.cntr
			pathThatWasRead = c.path
			break
		}
	}

	pathToWrite := path1
	if pathThatWasRead == path1 {
		pathToWrite = path2
	}
	modMonCntr = (modMonCntr + 1) % 3

	jww.DEBUG.Printf("Writing %d header bytes to %s with counter %d",
		len(data), pathToWrite, modMonCntr)
	if err := p.writeCopy(pathToWrite,
		encodeHeader(modMonCntr, data)); err != nil {
		return err
	}

	// Check that what we wrote is equal to what we have
	written, err := p.readCopy(pathToWrite)
	if err != nil {
		return err
	}
	if written.err != nil {
		return written.err
	}
	if written.cntr != modMonCntr || !bytes.Equal(data, written.contents) {
		err = errors.Errorf(errCannotRead, pathToWrite)
		jww.ERROR.Printf("%+v", err)
		return err
	}

	return nil
}

// ReadHeader returns the contents of the newest copy for which it can read all
// elements and validate the checksum. If neither copy exists the error
// satisfies errors.Is(err, os.ErrNotExist).
func (p *Pal) ReadHeader(path string) ([]byte, error) {
	newest, oldest, err := p.getFileOrder(getPaths(path))
	if err != nil {
		return nil, err
	}

	for _, c := range []*headerCopy{newest, oldest} {
		if c == nil {
			continue
		}
		if c.err == nil {
			return c.contents, nil
		}
		jww.WARN.Printf("Skipping unreadable header copy %s: %s", c.path,
			c.err)
		err = c.err
	}

	return nil, err
}

// DeleteHeader removes both copies of path, skipping copies that do not
// exist, and flushes the directory.
func (p *Pal) DeleteHeader(path string) error {
	path1, path2 := getPaths(path)

	deleted := false
	syncDir := true
	for _, copyPath := range []string{path1, path2} {
		fd, err := p.sys.Open(copyPath, os.O_RDONLY, 0)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return errors.WithStack(
				&os.PathError{Op: "open", Path: copyPath, Err: err})
		}
		syncDir = syncDir && p.sys.SyncDirAllowed(fd)

		if err = p.DisposeHandle(copyPath, fd, true); err != nil {
			return err
		}
		deleted = true
	}

	if !deleted || !syncDir {
		return nil
	}
	return p.syncDir(path)
}
