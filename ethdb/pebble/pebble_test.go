package pebble

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/ethdb/dbtest"
	"github.com/dominant-strategies/go-blocktree/log"
)

func TestPebbleDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() ethdb.KeyValueStore {
			db, err := New(t.TempDir(), 16, 16, "test", false, log.New(log.WithNullLogger()))
			require.NoError(t, err)
			return db
		})
	})
}

func TestPebbleStat(t *testing.T) {
	db, err := New(t.TempDir(), 16, 16, "test", false, log.New(log.WithNullLogger()))
	require.NoError(t, err)
	defer db.Close()

	stats, err := db.Stat("metrics")
	require.NoError(t, err)
	require.NotEmpty(t, stats)
	_, err = db.Stat("leveldb.stats")
	require.Error(t, err)
}

func TestPebbleClosed(t *testing.T) {
	db, err := New(t.TempDir(), 16, 16, "test", false, log.New(log.WithNullLogger()))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err = db.Get([]byte("key"))
	require.Error(t, err)
	require.Error(t, db.Put([]byte("key"), nil))
}

func TestUpperBound(t *testing.T) {
	require.Nil(t, upperBound(nil))
	require.Equal(t, []byte("kb"), upperBound([]byte("ka")))
	require.Equal(t, []byte{0x02}, upperBound([]byte{0x01, 0xff}))
	require.Nil(t, upperBound([]byte{0xff, 0xff}))
}
