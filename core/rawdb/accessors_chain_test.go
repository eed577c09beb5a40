package rawdb

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/internal/testutil"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

func newTestDatabase() ethdb.Database {
	return NewMemoryDatabase(log.New(log.WithNullLogger()))
}

// Tests header storage and retrieval operations.
func TestHeaderStorage(t *testing.T) {
	db := newTestDatabase()
	cfg := params.DogecoinRegtestChainConfig

	header := testutil.NextHeader(testutil.Genesis(cfg), cfg.TargetSpacing, cfg.PowLimitBits)
	header.Version = testutil.Version(5, params.DogecoinChainID, true)
	merged := types.NewHeader(header)
	merged.AuxPow = testutil.NewAuxPowBuilder(merged.Hash()).Build()
	hash := merged.Hash()

	require.Nil(t, ReadHeader(db, hash, 1, cfg))
	require.False(t, HasHeader(db, hash, 1))

	WriteHeader(db, merged, 1)
	entry := ReadHeader(db, hash, 1, cfg)
	require.NotNil(t, entry)
	require.Equal(t, hash, entry.Hash())
	require.NotNil(t, entry.AuxPow)
	require.Equal(t, merged.AuxPow.ParentHeader, entry.AuxPow.ParentHeader)
	require.True(t, HasHeader(db, hash, 1))
	require.Nil(t, ReadHeader(db, hash, 2, cfg))

	number := ReadHeaderNumber(db, hash)
	require.NotNil(t, number)
	require.Equal(t, uint32(1), *number)

	DeleteHeader(db, hash, 1)
	require.Nil(t, ReadHeader(db, hash, 1, cfg))
	require.Nil(t, ReadHeaderNumber(db, hash))
}

// Tests block payload storage and retrieval operations.
func TestBlockStorage(t *testing.T) {
	db := newTestDatabase()
	cfg := params.DogecoinMainnetChainConfig

	block := testutil.MustDecodeBlock(testutil.DogecoinBlock3107Hex, cfg)
	require.Nil(t, ReadBlock(db, block.Hash(), cfg))
	require.False(t, HasBlock(db, block.Hash()))

	WriteBlock(db, block)
	require.True(t, HasBlock(db, block.Hash()))
	require.Equal(t, block.Bytes(), ReadBlockData(db, block.Hash()))

	stored := ReadBlock(db, block.Hash(), cfg)
	require.NotNil(t, stored)
	require.Equal(t, block.Hash(), stored.Hash())
	require.Len(t, stored.Transactions(), len(block.Transactions()))

	// Payloads are compressed on disk.
	raw, err := db.Get(blockKey(block.Hash()))
	require.NoError(t, err)
	require.NotEqual(t, block.Bytes(), raw)

	// The tree singleton shares no prefix with payloads.
	WriteBlockTree(db, []byte{0x01})
	require.Equal(t, []chainhash.Hash{block.Hash()}, ReadAllBlockHashes(db))

	DeleteBlock(db, block.Hash())
	require.Nil(t, ReadBlockData(db, block.Hash()))
	require.Empty(t, ReadAllBlockHashes(db))
}

// Tests that corrupted payloads read as missing.
func TestCorruptedBlock(t *testing.T) {
	db := newTestDatabase()
	hash := chainhash.Hash{1}
	require.NoError(t, db.Put(blockKey(hash), []byte{0xff, 0xff, 0xff}))
	require.Nil(t, ReadBlockData(db, hash))
	require.Nil(t, ReadBlock(db, hash, params.BitcoinMainnetChainConfig))
}

// Tests canonical number to hash mapping and the head pointer.
func TestCanonicalMappingStorage(t *testing.T) {
	db := newTestDatabase()
	hash, number := chainhash.Hash{0: 0xff}, uint32(314)

	require.Equal(t, chainhash.Hash{}, ReadCanonicalHash(db, number))
	WriteCanonicalHash(db, hash, number)
	require.Equal(t, hash, ReadCanonicalHash(db, number))
	DeleteCanonicalHash(db, number)
	require.Equal(t, chainhash.Hash{}, ReadCanonicalHash(db, number))

	require.Equal(t, chainhash.Hash{}, ReadHeadHeaderHash(db))
	WriteHeadHeaderHash(db, hash)
	require.Equal(t, hash, ReadHeadHeaderHash(db))
}

func TestReadAllCanonicalHashes(t *testing.T) {
	db := newTestDatabase()
	for i := uint32(0); i < 10; i++ {
		WriteCanonicalHash(db, chainhash.Hash{byte(i + 1)}, i)
		// Headers share the prefix and must be skipped.
		WriteHeader(db, types.NewHeader(testutil.Genesis(params.BitcoinRegtestChainConfig)), i)
	}

	numbers, hashes := ReadAllCanonicalHashes(db, 2, 6, 10)
	require.Equal(t, []uint32{2, 3, 4, 5}, numbers)
	require.Equal(t, chainhash.Hash{3}, hashes[0])

	numbers, _ = ReadAllCanonicalHashes(db, 0, 10, 3)
	require.Equal(t, []uint32{0, 1, 2}, numbers)

	numbers, _ = ReadAllCanonicalHashes(db, 0, 10, 0)
	require.Empty(t, numbers)
}

func TestReindexHeaderNumbers(t *testing.T) {
	db := newTestDatabase()
	for i := uint32(0); i < reindexChunk+10; i++ {
		WriteCanonicalHash(db, chainhash.Hash{byte(i), byte(i >> 8)}, i)
	}
	require.Equal(t, uint32(reindexChunk+10), ReindexHeaderNumbers(db, 0))

	n := uint32(reindexChunk + 5)
	number := ReadHeaderNumber(db, chainhash.Hash{byte(n), byte(n >> 8)})
	require.NotNil(t, number)
	require.Equal(t, uint32(reindexChunk+5), *number)

	require.Equal(t, uint32(10), ReindexHeaderNumbers(db, reindexChunk))
}

func TestMetadataStorage(t *testing.T) {
	db := newTestDatabase()

	require.Nil(t, ReadDatabaseVersion(db))
	WriteDatabaseVersion(db, DatabaseVersion)
	version := ReadDatabaseVersion(db)
	require.NotNil(t, version)
	require.Equal(t, uint64(DatabaseVersion), *version)

	_, err := decodeVersion([]byte{0x08})
	require.Error(t, err)
	_, err = decodeVersion([]byte{0x10, 0x01})
	require.Error(t, err)

	require.Empty(t, ReadNetwork(db))
	WriteNetwork(db, "dogecoin")
	require.Equal(t, "dogecoin", ReadNetwork(db))

	require.Nil(t, ReadBlockTree(db))
	WriteBlockTree(db, []byte{1, 2, 3})
	require.Equal(t, []byte{1, 2, 3}, ReadBlockTree(db))
	DeleteBlockTree(db)
	require.Nil(t, ReadBlockTree(db))
}
