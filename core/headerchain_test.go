package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-blocktree/consensus"
	"github.com/dominant-strategies/go-blocktree/core/rawdb"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/internal/testutil"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

func newTestHeaderChain(t *testing.T, db ethdb.Database, cfg *params.ChainConfig) *HeaderChain {
	hc, err := NewHeaderChain(db, cfg, types.NewHeader(testutil.Genesis(cfg)), 0, log.New(log.WithNullLogger()))
	require.NoError(t, err)
	return hc
}

func appendChain(t *testing.T, hc *HeaderChain, n int) []*types.Header {
	cfg := hc.Config()
	var headers []*types.Header
	for _, h := range testutil.HeaderChain(hc.CurrentHeader().Pure(), n, cfg.TargetSpacing, cfg.PowLimitBits) {
		header := types.NewHeader(h)
		require.NoError(t, hc.Append(header))
		headers = append(headers, header)
	}
	return headers
}

func TestHeaderChainAppend(t *testing.T) {
	cfg := params.BitcoinRegtestChainConfig
	hc := newTestHeaderChain(t, rawdb.NewMemoryDatabase(log.New(log.WithNullLogger())), cfg)

	require.Equal(t, uint32(0), hc.Height())
	require.Equal(t, cfg.GenesisHash(), hc.InitialHash())
	require.Equal(t, cfg.GenesisHash(), hc.CurrentHeader().Hash())

	headers := appendChain(t, hc, 5)
	require.Equal(t, uint32(5), hc.Height())
	require.Equal(t, headers[4].Hash(), hc.CurrentHeader().Hash())
	require.Equal(t, headers[2].BlockHeader, *hc.GetHeaderByHeight(3))
	require.Equal(t, headers[0].BlockHeader, *hc.GetHeaderByHash(headers[0].Hash()))
	require.Nil(t, hc.GetHeaderByHeight(6))

	number := hc.GetBlockNumber(headers[3].Hash())
	require.NotNil(t, number)
	require.Equal(t, uint32(4), *number)
	require.True(t, hc.HasHeader(headers[3].Hash(), 4))

	// A sibling of the head does not extend it.
	sibling := testutil.NextHeader(headers[3].Pure(), cfg.TargetSpacing+1, cfg.PowLimitBits)
	require.ErrorIs(t, hc.Append(types.NewHeader(sibling)), ErrNotStableSuccessor)
	require.Equal(t, uint32(5), hc.Height())
}

func TestHeaderChainReopen(t *testing.T) {
	cfg := params.DogecoinRegtestChainConfig
	db := rawdb.NewMemoryDatabase(log.New(log.WithNullLogger()))
	hc := newTestHeaderChain(t, db, cfg)
	headers := appendChain(t, hc, 3)

	reopened := newTestHeaderChain(t, db, cfg)
	require.Equal(t, uint32(3), reopened.Height())
	require.Equal(t, headers[2].Hash(), reopened.CurrentHeader().Hash())
	require.Equal(t, cfg.GenesisHash(), reopened.InitialHash())

	// A lost hash->number index is rebuilt from the canonical mappings.
	rawdb.DeleteHeaderNumber(db, headers[2].Hash())
	reopened = newTestHeaderChain(t, db, cfg)
	require.Equal(t, uint32(3), reopened.Height())

	_, err := NewHeaderChain(db, params.BitcoinRegtestChainConfig, types.NewHeader(testutil.Genesis(cfg)), 0, log.New(log.WithNullLogger()))
	require.Error(t, err)
}

func TestHeaderChainFromCheckpoint(t *testing.T) {
	cfg := params.DogecoinMainnetChainConfig
	checkpoint := types.NewHeader(testutil.MustDecodeHeader(testutil.DogecoinHeader3106Hex))
	hc, err := NewHeaderChain(rawdb.NewMemoryDatabase(log.New(log.WithNullLogger())), cfg, checkpoint, 3106, log.New(log.WithNullLogger()))
	require.NoError(t, err)
	require.Equal(t, uint32(3106), hc.Height())
	require.Equal(t, uint32(3106), hc.InitialHeight())
	require.Nil(t, hc.GetHeaderByHeight(3105))

	// The stable chain serves as the header store of the validators.
	block := testutil.MustDecodeBlock(testutil.DogecoinBlock3107Hex, cfg)
	v := NewBlockValidator(consensus.NewHeaderValidator(cfg, hc, log.New(log.WithNullLogger())), nil)
	require.NoError(t, v.ValidateBlock(block, now))
	require.NoError(t, hc.Append(block.Header()))
	require.Equal(t, uint32(3107), hc.Height())
}
