package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-blocktree/internal/testutil"
	"github.com/dominant-strategies/go-blocktree/params"
)

func TestMemoryHeaderStore(t *testing.T) {
	cfg := params.BitcoinRegtestChainConfig
	genesis := testutil.Genesis(cfg)
	store := NewMemoryHeaderStore(genesis, 100)

	require.Equal(t, uint32(100), store.Height())
	require.Equal(t, genesis.BlockHash(), store.InitialHash())
	require.Nil(t, store.GetHeaderByHeight(99))

	main := testutil.HeaderChain(genesis, 5, cfg.TargetSpacing, cfg.PowLimitBits)
	require.NoError(t, store.AddHeaders(main))
	require.Equal(t, uint32(105), store.Height())
	require.Equal(t, main[4], store.Tip())
	require.Equal(t, main[2], store.GetHeaderByHeight(103))
	require.Nil(t, store.GetHeaderByHeight(106))

	height, ok := store.GetHeight(main[0].BlockHash())
	require.True(t, ok)
	require.Equal(t, uint32(101), height)

	orphan := testutil.NextHeader(testutil.Genesis(params.BitcoinMainnetChainConfig), 600, 0x1d00ffff)
	require.ErrorIs(t, store.Add(orphan), ErrPrevHeaderNotFound)
	require.Nil(t, store.GetHeaderByHash(orphan.BlockHash()))
}

func TestMemoryHeaderStoreSwitchesBranch(t *testing.T) {
	cfg := params.BitcoinRegtestChainConfig
	genesis := testutil.Genesis(cfg)
	store := NewMemoryHeaderStore(genesis, 0)

	main := testutil.HeaderChain(genesis, 4, cfg.TargetSpacing, cfg.PowLimitBits)
	require.NoError(t, store.AddHeaders(main))

	// A fork from height 2, one second apart from the main chain.
	fork := testutil.HeaderChain(main[1], 3, cfg.TargetSpacing+1, cfg.PowLimitBits)
	require.NoError(t, store.Add(fork[0]))
	require.Equal(t, uint32(3), store.Height())
	require.Equal(t, fork[0], store.GetHeaderByHeight(3))
	require.Equal(t, main[1], store.GetHeaderByHeight(2))

	require.NoError(t, store.AddHeaders(fork[1:]))
	require.Equal(t, uint32(5), store.Height())
	require.Equal(t, fork[2], store.GetHeaderByHeight(5))

	// Extending the old branch moves the tip back.
	require.NoError(t, store.Add(testutil.NextHeader(main[3], cfg.TargetSpacing, cfg.PowLimitBits)))
	require.Equal(t, uint32(5), store.Height())
	require.Equal(t, main[3], store.GetHeaderByHeight(4))
	require.NotNil(t, store.GetHeaderByHash(fork[2].BlockHash()))
}
