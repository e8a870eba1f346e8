////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package pal

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/elixxir/pal/portable"
)

// memoryKV is a simple in-memory implementation of portable.GenericKeyValue
// for testing
type memoryKV struct {
	data map[string][]byte
	mux  sync.RWMutex
}

func newMemoryKV() *memoryKV {
	return &memoryKV{
		data: make(map[string][]byte),
	}
}

func (m *memoryKV) Get(key string) ([]byte, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	val, ok := m.data[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	// Return a copy to avoid mutation
	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (m *memoryKV) Set(key string, value []byte) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	// Store a copy to avoid mutation
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

func (m *memoryKV) Delete(key string) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	delete(m.data, key)
	return nil
}

func (m *memoryKV) Keys() ([]string, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// pwriteCall is one recorded Pwrite.
type pwriteCall struct {
	fd  Descriptor
	n   int
	off int64
}

// scriptedSyscalls wraps a portable.Syscalls and lets a test replace single
// calls. Every call is recorded by name.
type scriptedSyscalls struct {
	portable.Syscalls

	pwrite       func(fd Descriptor, b []byte, off int64) (int, error)
	preallocate  func(fd Descriptor, size int64) error
	unlink       func(path string) error
	close        func(fd Descriptor) error
	networkMount bool

	calls   []string
	pwrites []pwriteCall
}

func (s *scriptedSyscalls) Open(path string, flag int,
	perm portable.FileMode) (Descriptor, error) {
	s.calls = append(s.calls, "open")
	return s.Syscalls.Open(path, flag, perm)
}

func (s *scriptedSyscalls) Pwrite(fd Descriptor, b []byte,
	off int64) (int, error) {
	s.calls = append(s.calls, "pwrite")
	s.pwrites = append(s.pwrites, pwriteCall{fd: fd, n: len(b), off: off})
	if s.pwrite != nil {
		return s.pwrite(fd, b, off)
	}
	return s.Syscalls.Pwrite(fd, b, off)
}

func (s *scriptedSyscalls) Preallocate(fd Descriptor, size int64) error {
	s.calls = append(s.calls, "preallocate")
	if s.preallocate != nil {
		return s.preallocate(fd, size)
	}
	return s.Syscalls.Preallocate(fd, size)
}

func (s *scriptedSyscalls) Unlink(path string) error {
	s.calls = append(s.calls, "unlink")
	if s.unlink != nil {
		return s.unlink(path)
	}
	return s.Syscalls.Unlink(path)
}

func (s *scriptedSyscalls) Close(fd Descriptor) error {
	s.calls = append(s.calls, "close")
	if s.close != nil {
		return s.close(fd)
	}
	return s.Syscalls.Close(fd)
}

func (s *scriptedSyscalls) Fsync(fd Descriptor) error {
	s.calls = append(s.calls, "fsync")
	return s.Syscalls.Fsync(fd)
}

func (s *scriptedSyscalls) SyncDir(dir string) error {
	s.calls = append(s.calls, "syncdir")
	return s.Syscalls.SyncDir(dir)
}

func (s *scriptedSyscalls) SyncDirAllowed(Descriptor) bool {
	return !s.networkMount
}

// count returns how many times the named call was made.
func (s *scriptedSyscalls) count(name string) int {
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

// reset forgets the recorded calls.
func (s *scriptedSyscalls) reset() {
	s.calls = nil
	s.pwrites = nil
}

// sleepRecorder replaces time.Sleep and records the requested delays.
type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.delays = append(r.delays, d)
}

// testPal bundles a Pal over an in-memory store with its fakes.
type testPal struct {
	*Pal
	sys   *scriptedSyscalls
	kv    *memoryKV
	sleep *sleepRecorder
}

func newTestPal(t *testing.T) *testPal {
	t.Helper()
	kv := newMemoryKV()
	sys := &scriptedSyscalls{Syscalls: portable.UseKeyValue(kv)}
	rec := &sleepRecorder{}

	p := New(sys)
	p.SetSleeper(rec.sleep)
	return &testPal{Pal: p, sys: sys, kv: kv, sleep: rec}
}

// create opens path for writing and clears the recorded calls.
func (tp *testPal) create(t *testing.T, path string) Descriptor {
	t.Helper()
	fd, err := tp.sys.Open(path, os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	tp.sys.reset()
	return fd
}

// contents returns the stored bytes for path.
func (tp *testPal) contents(t *testing.T, path string) []byte {
	t.Helper()
	data, err := tp.kv.Get(path)
	require.NoError(t, err)
	return data
}
