// Copyright 2019 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package dbtest holds the behaviour every ethdb.KeyValueStore backend must
// share.
package dbtest

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-blocktree/ethdb"
)

// TestDatabaseSuite runs a suite of tests against a KeyValueStore database
// implementation.
func TestDatabaseSuite(t *testing.T, New func() ethdb.KeyValueStore) {
	t.Run("Iterator", func(t *testing.T) {
		tests := []struct {
			content map[string]string
			prefix  string
			start   string
			order   []string
		}{
			// Empty databases should be iterable
			{map[string]string{}, "", "", nil},
			{map[string]string{}, "non-existent-prefix", "", nil},

			// Single-item databases should be iterable
			{map[string]string{"key": "val"}, "", "", []string{"key"}},
			{map[string]string{"key": "val"}, "k", "", []string{"key"}},
			{map[string]string{"key": "val"}, "l", "", nil},

			// Multi-item databases should be fully iterable
			{
				map[string]string{"k1": "v1", "k5": "v5", "k2": "v2", "k4": "v4", "k3": "v3"},
				"", "",
				[]string{"k1", "k2", "k3", "k4", "k5"},
			},
			{
				map[string]string{"k1": "v1", "k5": "v5", "k2": "v2", "k4": "v4", "k3": "v3"},
				"k", "",
				[]string{"k1", "k2", "k3", "k4", "k5"},
			},
			{
				map[string]string{"k1": "v1", "k5": "v5", "k2": "v2", "k4": "v4", "k3": "v3"},
				"l", "",
				nil,
			},
			// Multi-item databases should be prefix-iterable
			{
				map[string]string{
					"ka1": "va1", "ka5": "va5", "ka2": "va2", "ka4": "va4", "ka3": "va3",
					"kb1": "vb1", "kb5": "vb5", "kb2": "vb2", "kb4": "vb4", "kb3": "vb3",
				},
				"ka", "",
				[]string{"ka1", "ka2", "ka3", "ka4", "ka5"},
			},
			// Multi-item databases should be prefix-iterable with start position
			{
				map[string]string{
					"ka1": "va1", "ka5": "va5", "ka2": "va2", "ka4": "va4", "ka3": "va3",
					"kb1": "vb1", "kb5": "vb5", "kb2": "vb2", "kb4": "vb4", "kb3": "vb3",
				},
				"ka", "3",
				[]string{"ka3", "ka4", "ka5"},
			},
			{
				map[string]string{
					"ka1": "va1", "ka5": "va5", "ka2": "va2", "ka4": "va4", "ka3": "va3",
					"kb1": "vb1", "kb5": "vb5", "kb2": "vb2", "kb4": "vb4", "kb3": "vb3",
				},
				"ka", "8",
				nil,
			},
		}
		for i, tt := range tests {
			// Create the key-value data store
			db := New()
			for key, val := range tt.content {
				require.NoError(t, db.Put([]byte(key), []byte(val)), "test %d", i)
			}
			// Iterate over the database with the given configs and verify the results
			it, idx := db.NewIterator([]byte(tt.prefix), []byte(tt.start)), 0
			for it.Next() {
				require.Less(t, idx, len(tt.order), "test %d: prefix=%q more items than expected", i, tt.prefix)
				require.Equal(t, tt.order[idx], string(it.Key()), "test %d: item %d", i, idx)
				require.Equal(t, tt.content[tt.order[idx]], string(it.Value()), "test %d: item %d", i, idx)
				idx++
			}
			require.NoError(t, it.Error(), "test %d", i)
			require.Equal(t, len(tt.order), idx, "test %d: iteration terminated prematurely", i)
			it.Release()
			db.Close()
		}
	})

	t.Run("IteratorWith", func(t *testing.T) {
		db := New()
		defer db.Close()

		keys := []string{"1", "2", "3", "4", "6", "10", "11", "12", "20", "21", "22"}
		sort.Strings(keys) // 1, 10, 11, etc

		for _, k := range keys {
			require.NoError(t, db.Put([]byte(k), nil))
		}

		{
			it := db.NewIterator(nil, nil)
			got, want := iterateKeys(it), keys
			require.NoError(t, it.Error())
			require.Equal(t, want, got)
		}

		{
			it := db.NewIterator([]byte("1"), nil)
			got, want := iterateKeys(it), []string{"1", "10", "11", "12"}
			require.NoError(t, it.Error())
			require.Equal(t, want, got)
		}

		{
			it := db.NewIterator([]byte("5"), nil)
			got, want := iterateKeys(it), []string{}
			require.NoError(t, it.Error())
			require.Equal(t, want, got)
		}

		{
			it := db.NewIterator(nil, []byte("2"))
			got, want := iterateKeys(it), []string{"2", "20", "21", "22", "3", "4", "6"}
			require.NoError(t, it.Error())
			require.Equal(t, want, got)
		}

		{
			it := db.NewIterator(nil, []byte("5"))
			got, want := iterateKeys(it), []string{"6"}
			require.NoError(t, it.Error())
			require.Equal(t, want, got)
		}
	})

	t.Run("KeyValueOperations", func(t *testing.T) {
		db := New()
		defer db.Close()

		key := []byte("foo")

		got, err := db.Has(key)
		require.NoError(t, err)
		require.False(t, got, "key should not exist")

		value := []byte("hello world")
		require.NoError(t, db.Put(key, value))

		got, err = db.Has(key)
		require.NoError(t, err)
		require.True(t, got, "key should exist")

		stored, err := db.Get(key)
		require.NoError(t, err)
		require.Equal(t, value, stored)

		require.NoError(t, db.Delete(key))

		got, err = db.Has(key)
		require.NoError(t, err)
		require.False(t, got, "key should not exist")

		_, err = db.Get(key)
		require.Error(t, err, "expected an error on a missing key")
	})

	t.Run("Batch", func(t *testing.T) {
		db := New()
		defer db.Close()

		b := db.NewBatch()
		for _, k := range []string{"1", "2", "3", "4"} {
			require.NoError(t, b.Put([]byte(k), nil))
		}

		has, err := db.Has([]byte("1"))
		require.NoError(t, err)
		require.False(t, has, "key should not exist before the batch is written")

		require.NoError(t, b.Write())
		require.Equal(t, 4, b.ValueSize())

		{
			it := db.NewIterator(nil, nil)
			require.Equal(t, []string{"1", "2", "3", "4"}, iterateKeys(it))
		}

		b.Reset()
		require.Zero(t, b.ValueSize())

		// Mix writes and deletes in batch
		b.Put([]byte("5"), nil)
		b.Delete([]byte("1"))
		b.Put([]byte("6"), nil)
		b.Delete([]byte("3"))
		b.Put([]byte("3"), nil)
		require.NoError(t, b.Write())

		{
			it := db.NewIterator(nil, nil)
			require.Equal(t, []string{"2", "3", "4", "5", "6"}, iterateKeys(it))
		}
	})

	t.Run("BatchReplay", func(t *testing.T) {
		db := New()
		defer db.Close()

		want := []string{"1", "2", "3", "4"}
		b := db.NewBatch()
		for _, k := range want {
			require.NoError(t, b.Put([]byte(k), []byte(k)))
		}
		require.NoError(t, b.Write())
		for _, k := range want {
			v, err := db.Get([]byte(k))
			require.NoError(t, err)
			require.True(t, bytes.Equal([]byte(k), v))
		}
	})

	t.Run("Compact", func(t *testing.T) {
		db := New()
		defer db.Close()

		for _, k := range []string{"a", "b", "c"} {
			require.NoError(t, db.Put([]byte(k), []byte(k)))
		}
		require.NoError(t, db.Delete([]byte("b")))
		require.NoError(t, db.Compact(nil, nil))

		it := db.NewIterator(nil, nil)
		require.Equal(t, []string{"a", "c"}, iterateKeys(it))
	})

	t.Run("Logger", func(t *testing.T) {
		db := New()
		defer db.Close()
		require.NotNil(t, db.Logger())
		require.NotNil(t, db.NewBatch().Logger())
	})
}

func iterateKeys(it ethdb.Iterator) []string {
	keys := []string{}
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	sort.Strings(keys)
	it.Release()
	return keys
}
