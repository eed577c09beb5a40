package params

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenesisHashes(t *testing.T) {
	tests := []struct {
		cfg  *ChainConfig
		hash string
	}{
		{BitcoinMainnetChainConfig, "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"},
		{BitcoinTestnet4ChainConfig, "00000000da84f2bafbbc53dee25a72ae507ff4914b867c565be350b0da8bf043"},
		{DogecoinMainnetChainConfig, "1a91e3dace36e2be3bf030a65679fe821aa1d6ef92e7c9902eb318182c355691"},
		{DogecoinTestnetChainConfig, "bb0a78264637406b6360aad926284d544d7049f45189db5664f3c4d07350559e"},
		{DogecoinRegtestChainConfig, "3d2160a3b5dc4a9d62e7e66a295f70313ac808440ef7400d6c0772171ce973a5"},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Name, func(t *testing.T) {
			require.Equal(t, tt.hash, tt.cfg.GenesisHash().String())
		})
	}
}

func TestDogecoinHeightRules(t *testing.T) {
	cfg := DogecoinTestnetChainConfig

	require.True(t, cfg.AllowMinDifficultyBlocks(144999))
	require.False(t, cfg.AllowMinDifficultyBlocks(145000))
	require.False(t, cfg.AllowMinDifficultyBlocks(157499))
	require.True(t, cfg.AllowMinDifficultyBlocks(157500))

	require.Equal(t, uint32(240), cfg.DifficultyAdjustmentInterval(144999))
	require.Equal(t, uint32(1), cfg.DifficultyAdjustmentInterval(145000))

	require.True(t, cfg.AllowLegacyBlocks(158099))
	require.False(t, cfg.AllowLegacyBlocks(158100))

	require.False(t, cfg.AllowDigishieldMinDifficulty(157499))
	require.True(t, cfg.AllowDigishieldMinDifficulty(157500))
	require.False(t, DogecoinMainnetChainConfig.AllowDigishieldMinDifficulty(400000))

	// Regtest allows minimum difficulty blocks but never under Digishield.
	regtest := DogecoinRegtestChainConfig
	require.True(t, regtest.AllowMinDifficultyBlocks(400000))
	require.False(t, regtest.AllowDigishieldMinDifficulty(157500))
	require.False(t, regtest.AllowDigishieldMinDifficulty(400000))
	require.Equal(t, uint32(1), regtest.DifficultyAdjustmentInterval(10))
}

func TestBitcoinRules(t *testing.T) {
	require.Equal(t, uint32(2016), BitcoinMainnetChainConfig.DifficultyAdjustmentInterval(0))
	require.Equal(t, uint32(0x1d00ffff), BitcoinTestnet4ChainConfig.PowLimitBits)
	require.Equal(t, uint32(0x207fffff), BitcoinRegtestChainConfig.PowLimitBits)
	require.Equal(t, uint32(0x1e0377ae), BitcoinSignetChainConfig.PowLimitBits)
	require.True(t, BitcoinRegtestChainConfig.NoRetargeting)
	require.False(t, BitcoinMainnetChainConfig.AllowMinDifficultyBlocks(1))
	require.True(t, BitcoinTestnetChainConfig.AllowMinDifficultyBlocks(1))
	require.True(t, BitcoinMainnetChainConfig.AllowLegacyBlocks(800000))
}

func TestBlockDifficulty(t *testing.T) {
	cfg := BitcoinMainnetChainConfig
	require.Equal(t, uint64(1), cfg.BlockDifficulty(0x1d00ffff).Uint64())
	// 0xffff<<16 / 0x0404cb, truncated.
	require.Equal(t, uint64(16307), cfg.BlockDifficulty(0x1b0404cb).Uint64())
	require.True(t, cfg.BlockDifficulty(0).IsZero())
}

func TestChainConfigByName(t *testing.T) {
	cfg, err := ChainConfigByName(DogecoinMainnetName)
	require.NoError(t, err)
	require.Same(t, DogecoinMainnetChainConfig, cfg)

	_, err = ChainConfigByName("litecoin")
	require.Error(t, err)
	require.Len(t, NetworkNames(), 8)
}
