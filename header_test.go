////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package pal

import (
	"errors"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestModMonCntr tests all of the expected states for the Modulo Monotonic
// Counter functions.
func TestModMonCntr(t *testing.T) {
	var m1, m2 byte
	m1 = 0
	m2 = 1
	eStr := "Bad Comparison: %d > %d but returns %d"

	for i := 0; i < 10; i++ {
		g2 := compareModMonCntr(m1, m2)
		if g2 != 2 {
			t.Errorf(eStr, m2, m1, g2)
		}
		g1 := compareModMonCntr(m2, m1)
		if g1 != 1 {
			t.Errorf(eStr, m2, m1, g2)
		}

		g0 := compareModMonCntr(m1, m1)
		if g0 != 0 {
			t.Errorf("Should be invalid! %d == %d but got %d",
				m1, m1, g0)
		}
		m1 = (m1 + 1) % 3
		m2 = (m2 + 1) % 3
	}

	// Invalid comparison
	if compareModMonCntr(3, 2) != 0 {
		t.Errorf("Should be invalid!")
	}
}

func newHeaderTestPal(t *testing.T) *testPal {
	tp := newTestPal(t)
	tp.SetPageSize(64)
	return tp
}

// Tests that written headers are read back and that writes alternate between
// the two copies.
func TestWriteHeader_Smoke(t *testing.T) {
	tp := newHeaderTestPal(t)

	require.NoError(t, tp.WriteHeader("hdr", []byte("one")))
	data, err := tp.ReadHeader("hdr")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
	assert.Equal(t, byte(0), tp.contents(t, "hdr.1")[0])

	require.NoError(t, tp.WriteHeader("hdr", []byte("two")))
	data, err = tp.ReadHeader("hdr")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
	assert.Equal(t, byte(1), tp.contents(t, "hdr.2")[0])

	require.NoError(t, tp.WriteHeader("hdr", []byte("three")))
	data, err = tp.ReadHeader("hdr")
	require.NoError(t, err)
	assert.Equal(t, []byte("three"), data)
	assert.Equal(t, byte(2), tp.contents(t, "hdr.1")[0])

	keys, err := tp.kv.Keys()
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"hdr.1", "hdr.2"}, keys)
}

// Tests that a copy is preallocated in whole pages, written, synced and
// closed, and that the directory is flushed.
func TestWriteHeader_Calls(t *testing.T) {
	tp := newHeaderTestPal(t)

	require.NoError(t, tp.WriteHeader("hdr", []byte("contents")))
	// 2 failed opens, then the write, then the read back
	assert.Equal(t, []string{"open", "open",
		"open", "preallocate", "pwrite", "pwrite", "fsync", "close", "syncdir",
		"open", "close"}, tp.sys.calls)
	assert.Len(t, tp.contents(t, "hdr.1"), 64)
}

// Tests that the directory is not flushed on a network mount.
func TestWriteHeader_NetworkMount(t *testing.T) {
	tp := newHeaderTestPal(t)
	tp.sys.networkMount = true

	require.NoError(t, tp.WriteHeader("hdr", []byte("contents")))
	assert.Zero(t, tp.sys.count("syncdir"))

	data, err := tp.ReadHeader("hdr")
	require.NoError(t, err)
	assert.Equal(t, []byte("contents"), data)
}

// Tests that a corrupted newest copy falls back to the older one, and that the
// next write replaces the corrupted copy.
func TestReadHeader_CorruptNewest(t *testing.T) {
	tp := newHeaderTestPal(t)
	require.NoError(t, tp.WriteHeader("hdr", []byte("one")))
	require.NoError(t, tp.WriteHeader("hdr", []byte("two")))

	newest := tp.contents(t, "hdr.2")
	newest[headerPrefixSize] ^= 0xFF
	require.NoError(t, tp.kv.Set("hdr.2", newest))

	data, err := tp.ReadHeader("hdr")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	require.NoError(t, tp.WriteHeader("hdr", []byte("three")))
	data, err = tp.ReadHeader("hdr")
	require.NoError(t, err)
	assert.Equal(t, []byte("three"), data)
	assert.Equal(t, []byte("one"), tp.contents(t, "hdr.1")[5:8])
}

// Tests that both copies being corrupt is an error.
func TestReadHeader_BothCorrupt(t *testing.T) {
	tp := newHeaderTestPal(t)
	require.NoError(t, tp.WriteHeader("hdr", []byte("one")))
	require.NoError(t, tp.WriteHeader("hdr", []byte("two")))

	for _, path := range []string{"hdr.1", "hdr.2"} {
		contents := tp.contents(t, path)
		contents[len(contents)-1] ^= 0xFF
		contents[headerPrefixSize] ^= 0xFF
		require.NoError(t, tp.kv.Set(path, contents))
	}

	_, err := tp.ReadHeader("hdr")
	assert.Error(t, err)
}

// Tests that a missing header reports os.ErrNotExist.
func TestReadHeader_Missing(t *testing.T) {
	tp := newHeaderTestPal(t)

	_, err := tp.ReadHeader("hdr")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "%+v", err)
}

// Tests that an empty header is refused.
func TestWriteHeader_Empty(t *testing.T) {
	tp := newHeaderTestPal(t)

	assert.Error(t, tp.WriteHeader("hdr", nil))
	assert.Empty(t, tp.sys.calls)
}

// Tests that both copies are removed and that deleting again is a no-op.
func TestDeleteHeader(t *testing.T) {
	tp := newHeaderTestPal(t)
	require.NoError(t, tp.WriteHeader("hdr", []byte("one")))
	require.NoError(t, tp.WriteHeader("hdr", []byte("two")))
	tp.sys.reset()

	require.NoError(t, tp.DeleteHeader("hdr"))
	assert.Equal(t, 2, tp.sys.count("unlink"))
	assert.Equal(t, 1, tp.sys.count("syncdir"))

	keys, err := tp.kv.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = tp.ReadHeader("hdr")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	tp.sys.reset()
	require.NoError(t, tp.DeleteHeader("hdr"))
	assert.Zero(t, tp.sys.count("unlink"))
	assert.Zero(t, tp.sys.count("syncdir"))
}
