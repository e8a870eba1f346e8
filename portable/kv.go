////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package portable

import (
	"os"
	"strings"
	"sync"
	"syscall"
)

// GenericKeyValue is a simple key-value storage interface that can be used
// to back the Syscalls interface. This allows pal to work with any key-value
// store including browser localStorage, IndexedDB, etc.
type GenericKeyValue interface {
	// Get retrieves the value for the given key.
	// Returns an error if the key does not exist.
	Get(key string) ([]byte, error)

	// Set stores the value for the given key.
	Set(key string, value []byte) error

	// Delete removes the key and its value.
	Delete(key string) error

	// Keys returns all keys in the store.
	Keys() ([]string, error)
}

// kv is a Syscalls implementation that keeps a descriptor table over a
// GenericKeyValue. Each file is one key holding the whole file contents.
type kv struct {
	unsupportedPreallocator

	storage GenericKeyValue
	open    map[Descriptor]string
	next    Descriptor
	mux     sync.Mutex
}

// UseKeyValue returns a Syscalls implementation that uses the provided
// GenericKeyValue interface as its backing store. Preallocation is never
// supported and directory sync is always allowed.
func UseKeyValue(storage GenericKeyValue) Syscalls {
	return &kv{
		storage: storage,
		open:    make(map[Descriptor]string),
		// Skip stdin, stdout and stderr so descriptors look familiar.
		next: 3,
	}
}

// SyncDirAllowed is always true; there are no network mounts.
func (k *kv) SyncDirAllowed(Descriptor) bool {
	return true
}

// Open returns a new descriptor for name. os.O_CREATE creates a missing key
// and os.O_TRUNC empties an existing one.
func (k *kv) Open(name string, flag int, _ FileMode) (Descriptor, error) {
	k.mux.Lock()
	defer k.mux.Unlock()

	_, err := k.get(name)
	switch {
	case err == syscall.ENOENT && flag&os.O_CREATE != 0:
		err = k.storage.Set(name, []byte{})
	case err == nil && flag&os.O_TRUNC != 0:
		err = k.storage.Set(name, []byte{})
	}
	if err != nil {
		return InvalidDescriptor, err
	}

	fd := k.next
	k.next++
	k.open[fd] = name
	return fd, nil
}

// Pwrite writes b at off, growing the value with zeros when off is past the
// current end.
func (k *kv) Pwrite(fd Descriptor, b []byte, off int64) (int, error) {
	k.mux.Lock()
	defer k.mux.Unlock()

	name, ok := k.open[fd]
	if !ok {
		return -1, syscall.EBADF
	}
	if off < 0 {
		return -1, syscall.EINVAL
	}
	value, err := k.get(name)
	if err != nil {
		return -1, err
	}

	end := off + int64(len(b))
	if end > int64(len(value)) {
		grown := make([]byte, end)
		copy(grown, value)
		value = grown
	}
	copy(value[off:end], b)

	if err = k.storage.Set(name, value); err != nil {
		return -1, err
	}
	return len(b), nil
}

// Pread reads into b from off. It returns 0 at or past the end of the value.
func (k *kv) Pread(fd Descriptor, b []byte, off int64) (int, error) {
	k.mux.Lock()
	defer k.mux.Unlock()

	name, ok := k.open[fd]
	if !ok {
		return -1, syscall.EBADF
	}
	if off < 0 {
		return -1, syscall.EINVAL
	}
	value, err := k.get(name)
	if err != nil {
		return -1, err
	}
	if off >= int64(len(value)) {
		return 0, nil
	}
	return copy(b, value[off:]), nil
}

// Fsync only validates fd; every write is already in the store.
func (k *kv) Fsync(fd Descriptor) error {
	k.mux.Lock()
	defer k.mux.Unlock()

	if _, ok := k.open[fd]; !ok {
		return syscall.EBADF
	}
	return nil
}

// Unlink deletes the key. Descriptors still open on it fail with ENOENT on
// their next access.
func (k *kv) Unlink(name string) error {
	k.mux.Lock()
	defer k.mux.Unlock()

	if _, err := k.get(name); err != nil {
		return err
	}
	return k.storage.Delete(name)
}

// Close releases fd.
func (k *kv) Close(fd Descriptor) error {
	k.mux.Lock()
	defer k.mux.Unlock()

	if _, ok := k.open[fd]; !ok {
		return syscall.EBADF
	}
	delete(k.open, fd)
	return nil
}

// SyncDir is a no-op; key-value stores have no directories.
func (k *kv) SyncDir(string) error {
	return nil
}

// get converts the store's not-found errors to ENOENT.
func (k *kv) get(name string) ([]byte, error) {
	value, err := k.storage.Get(name)
	if err != nil {
		if os.IsNotExist(err) ||
			strings.Contains(err.Error(), "not exist") ||
			strings.Contains(err.Error(), "not found") {
			return nil, syscall.ENOENT
		}
		return nil, err
	}
	return value, nil
}
