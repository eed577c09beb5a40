package consensus

import (
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-blocktree/internal/testutil"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

var now = testutil.MockCurrentTime

func newValidator(cfg *params.ChainConfig, store HeaderStore) *HeaderValidator {
	return NewHeaderValidator(cfg, store, log.New(log.WithNullLogger()))
}

// regtestChain returns a store holding the network's genesis followed by n
// headers spaced by the target spacing at the pow limit.
func regtestChain(t *testing.T, cfg *params.ChainConfig, n int) (*MemoryHeaderStore, *wire.BlockHeader) {
	genesis := testutil.Genesis(cfg)
	store := NewMemoryHeaderStore(genesis, 0)
	headers := testutil.HeaderChain(genesis, n, cfg.TargetSpacing, cfg.PowLimitBits)
	require.NoError(t, store.AddHeaders(headers))
	return store, store.Tip()
}

func TestValidateDogecoinMainnetHeaders(t *testing.T) {
	cfg := params.DogecoinMainnetChainConfig

	store := NewMemoryHeaderStore(testutil.Genesis(cfg), 0)
	block1 := testutil.MustDecodeHeader(testutil.DogecoinBlock1Hex)
	assert.NoError(t, newValidator(cfg, store).ValidateHeader(block1, now))

	store = NewMemoryHeaderStore(testutil.MustDecodeHeader(testutil.DogecoinHeader3106Hex), 3106)
	block3107 := testutil.MustDecodeHeader(testutil.DogecoinBlock3107Hex)
	assert.NoError(t, newValidator(cfg, store).ValidateHeader(block3107, now))
}

func TestValidateHeaderMissingParent(t *testing.T) {
	cfg := params.DogecoinMainnetChainConfig
	store := NewMemoryHeaderStore(testutil.MustDecodeHeader(testutil.DogecoinHeader3106Hex), 3106)

	// Block 1 does not extend block 3106.
	block1 := testutil.MustDecodeHeader(testutil.DogecoinBlock1Hex)
	err := newValidator(cfg, store).ValidateHeader(block1, now)
	require.ErrorIs(t, err, ErrPrevHeaderNotFound)
	require.False(t, IsTerminal(err))
}

func TestValidateHeaderInvalidPow(t *testing.T) {
	for _, cfg := range []*params.ChainConfig{params.BitcoinRegtestChainConfig, params.DogecoinRegtestChainConfig} {
		t.Run(cfg.Name, func(t *testing.T) {
			store, tip := regtestChain(t, cfg, 3)
			header := testutil.NextHeader(tip, cfg.TargetSpacing, cfg.PowLimitBits)
			header.Version = 4
			testutil.Mine(header, cfg.Pow, false)

			err := newValidator(cfg, store).ValidateHeader(header, now)
			require.ErrorIs(t, err, ErrInvalidPoWForHeaderTarget)
			require.True(t, IsTerminal(err))

			testutil.Mine(header, cfg.Pow, true)
			require.NoError(t, newValidator(cfg, store).ValidateHeader(header, now))
		})
	}
}

func TestValidateHeaderTargetAboveMax(t *testing.T) {
	cfg := params.BitcoinMainnetChainConfig
	store := NewMemoryHeaderStore(testutil.Genesis(cfg), 0)

	header := testutil.NextHeader(testutil.Genesis(cfg), cfg.TargetSpacing, params.BitcoinRegtestChainConfig.PowLimitBits)
	testutil.Mine(header, cfg.Pow, true)
	require.ErrorIs(t, newValidator(cfg, store).ValidateHeader(header, now), ErrTargetDifficultyAboveMax)
}

func TestValidateHeaderWrongComputedTarget(t *testing.T) {
	cfg := params.BitcoinRegtestChainConfig

	// The walk back finds the mainnet genesis target, so the next regtest
	// header must carry it instead of the pow limit.
	genesis := testutil.Genesis(params.BitcoinMainnetChainConfig)
	store := NewMemoryHeaderStore(genesis, 0)
	require.NoError(t, store.AddHeaders(testutil.HeaderChain(genesis, 2, cfg.TargetSpacing, cfg.PowLimitBits)))

	header := testutil.NextHeader(store.Tip(), cfg.TargetSpacing, cfg.PowLimitBits)
	testutil.Mine(header, cfg.Pow, true)
	require.ErrorIs(t, newValidator(cfg, store).ValidateHeader(header, now), ErrInvalidPoWForComputedTarget)

	// Past twice the target spacing the pow limit is allowed.
	header.Timestamp = store.Tip().Timestamp.Add(time.Duration(2*cfg.TargetSpacing+1) * time.Second)
	testutil.Mine(header, cfg.Pow, true)
	require.NoError(t, newValidator(cfg, store).ValidateHeader(header, now))
}

func TestCheckTimestamp(t *testing.T) {
	cfg := params.BitcoinRegtestChainConfig
	store, tip := regtestChain(t, cfg, 12)

	header := testutil.NextHeader(tip, cfg.TargetSpacing, cfg.PowLimitBits)
	require.NoError(t, checkTimestamp(store, header, now))

	t.Run("two hours ahead", func(t *testing.T) {
		h := *header
		h.Timestamp = now.Add(2 * time.Hour)
		require.NoError(t, checkTimestamp(store, &h, now))

		h.Timestamp = now.Add(2*time.Hour + time.Second)
		err := checkTimestamp(store, &h, now)
		require.ErrorIs(t, err, ErrHeaderIsTooFarInFuture)

		var future *FutureHeaderError
		require.True(t, errors.As(err, &future))
		require.Equal(t, uint64(now.Unix()+7201), future.BlockTime)
		require.Equal(t, uint64(now.Unix()+7200), future.MaxAllowedTime)
	})

	t.Run("median time past", func(t *testing.T) {
		// The last 11 ancestors are heights 2 to 12, with the median at 7.
		median := store.GetHeaderByHeight(7).Timestamp
		h := *header
		h.Timestamp = median
		require.ErrorIs(t, checkTimestamp(store, &h, now), ErrHeaderIsOld)

		h.Timestamp = median.Add(time.Second)
		require.NoError(t, checkTimestamp(store, &h, now))
	})

	t.Run("short chain", func(t *testing.T) {
		genesis := testutil.Genesis(cfg)
		store := NewMemoryHeaderStore(genesis, 0)
		h := testutil.NextHeader(genesis, 0, cfg.PowLimitBits)
		require.ErrorIs(t, checkTimestamp(store, h, now), ErrHeaderIsOld)
		h.Timestamp = h.Timestamp.Add(time.Second)
		require.NoError(t, checkTimestamp(store, h, now))
	})
}

func TestValidateHeaderFutureTimestamp(t *testing.T) {
	cfg := params.BitcoinTestnetChainConfig
	genesis := testutil.Genesis(cfg)
	store := NewMemoryHeaderStore(genesis, 0)

	header := testutil.NextHeader(genesis, cfg.TargetSpacing, cfg.PowLimitBits)
	header.Timestamp = now.Add(3 * time.Hour)
	err := newValidator(cfg, store).ValidateHeader(header, now)
	require.ErrorIs(t, err, ErrHeaderIsTooFarInFuture)

	// Testnet4 does not check timestamps, the header fails on its proof of
	// work instead.
	testnet4 := params.BitcoinTestnet4ChainConfig
	store = NewMemoryHeaderStore(testutil.Genesis(testnet4), 0)
	header.PrevBlock = testnet4.GenesisHash()
	err = newValidator(testnet4, store).ValidateHeader(header, now)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrHeaderIsTooFarInFuture)
}

func TestDogecoinVersionRules(t *testing.T) {
	cfg := params.DogecoinRegtestChainConfig
	v := newValidator(cfg, nil)

	require.NoError(t, v.checkVersion(1, 19))
	require.ErrorIs(t, v.checkVersion(1, 20), ErrLegacyBlockNotAllowed)
	require.ErrorIs(t, v.checkVersion(testutil.Version(5, params.DogecoinChainID, true), 19), ErrAuxPowBlockNotAllowed)
	require.NoError(t, v.checkVersion(testutil.Version(5, params.DogecoinChainID, true), 20))

	require.NoError(t, v.checkVersion(testutil.Version(2, params.DogecoinChainID, false), 1250))
	require.ErrorIs(t, v.checkVersion(testutil.Version(2, params.DogecoinChainID, false), 1251), ErrVersionObsolete)
	require.NoError(t, v.checkVersion(testutil.Version(3, params.DogecoinChainID, false), 1350))
	require.ErrorIs(t, v.checkVersion(testutil.Version(3, params.DogecoinChainID, false), 1351), ErrVersionObsolete)
	require.NoError(t, v.checkVersion(testutil.Version(4, params.DogecoinChainID, false), 1351))
}

func TestDogecoinVersionCheckedBeforeTimestamps(t *testing.T) {
	cfg := params.DogecoinRegtestChainConfig
	store, tip := regtestChain(t, cfg, 25)

	// A legacy header after merged mining activation that is also too far in
	// the future or too old fails on its version.
	header := testutil.NextHeader(tip, cfg.TargetSpacing, cfg.PowLimitBits)
	header.Version = 1
	header.Timestamp = now.Add(3 * time.Hour)
	testutil.Mine(header, cfg.Pow, true)
	require.ErrorIs(t, newValidator(cfg, store).ValidateHeader(header, now), ErrLegacyBlockNotAllowed)

	header.Timestamp = store.GetHeaderByHeight(20).Timestamp
	testutil.Mine(header, cfg.Pow, true)
	require.ErrorIs(t, newValidator(cfg, store).ValidateHeader(header, now), ErrLegacyBlockNotAllowed)

	header.Version = testutil.Version(5, params.DogecoinChainID, false)
	testutil.Mine(header, cfg.Pow, true)
	require.ErrorIs(t, newValidator(cfg, store).ValidateHeader(header, now), ErrHeaderIsOld)
}
