package types

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/davecgh/go-spew/spew"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-blocktree/params"
)

// Dogecoin mainnet block 1.
const dogecoinBlock1Hex = "010000009156352c1818b32e90c9e792efd6a11a82fe7956a630f03bbee236cedae3911a1c525f1049e519256961f407e96e22aef391581de98686524ef500769f777e5fafeda352f0ff0f1e001083540101000000010000000000000000000000000000000000000000000000000000000000000000ffffffff0e04afeda3520102062f503253482fffffffff01004023ef3806000023210338bf57d51a50184cf5ef0dc42ecd519fb19e24574c057620262cc1df94da2ae5ac00000000"

func TestDecodeDogecoinBlock(t *testing.T) {
	block, err := DecodeBlockHex(dogecoinBlock1Hex, params.DogecoinMainnetChainConfig)
	require.NoError(t, err)

	require.Equal(t, "82bc68038f6034c0596b6e313729793a887fded6e92a31fbdf70863f89d9bea2", block.Hash().String())
	require.Equal(t, params.DogecoinMainnetChainConfig.GenesisHash(), block.PrevHash())
	require.Nil(t, block.Header().AuxPow)
	require.True(t, block.Header().IsLegacy())
	require.Len(t, block.Transactions(), 1)

	raw, _ := hex.DecodeString(dogecoinBlock1Hex)
	require.Equal(t, raw, block.Bytes())
}

func TestScryptPowHash(t *testing.T) {
	block, err := DecodeBlockHex(dogecoinBlock1Hex, params.DogecoinMainnetChainConfig)
	require.NoError(t, err)

	hash := PowHash(block.Header().Pure(), params.PowScrypt)
	require.Equal(t, "0000064605033107c224334408415b667b7a46b09d6442466dbfd8cfde76cd7d", hash.String())
	require.True(t, MeetsTarget(hash, block.Header().Target()))
	require.Equal(t, block.Hash(), PowHash(block.Header().Pure(), params.PowSHA256d))
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	_, err := DecodeBlockHex(dogecoinBlock1Hex+"00", params.DogecoinMainnetChainConfig)
	require.Error(t, err)

	_, err = DecodeBlockHex(dogecoinBlock1Hex[:200], params.DogecoinMainnetChainConfig)
	require.Error(t, err)
}

func TestDecodeHeader(t *testing.T) {
	raw, _ := hex.DecodeString(dogecoinBlock1Hex)
	header, err := DecodeHeader(raw[:HeaderSize], params.DogecoinMainnetChainConfig)
	require.NoError(t, err)
	require.Equal(t, uint32(0x1e0ffff0), header.Bits)
	require.Equal(t, int32(1), header.Version)
}

func TestVersionBits(t *testing.T) {
	v := int32(0x00620104)
	require.Equal(t, int32(0x62), ChainID(v))
	require.Equal(t, int32(4), BaseVersion(v))
	require.True(t, HasAuxPowBit(v))
	require.False(t, IsLegacyVersion(v))

	require.True(t, IsLegacyVersion(1))
	require.True(t, IsLegacyVersion(2))
	require.False(t, IsLegacyVersion(3))
	require.False(t, IsLegacyVersion(2|0x62<<16))
}

func TestDecodeBlockNeverPanics(t *testing.T) {
	f := fuzz.New().NilChance(0)
	raw, _ := hex.DecodeString(dogecoinBlock1Hex)
	for i := 0; i < 500; i++ {
		var data []byte
		f.Fuzz(&data)
		require.NotPanics(t, func() {
			DecodeBlock(data, params.DogecoinMainnetChainConfig)
			DecodeBlock(data, params.BitcoinMainnetChainConfig)
		})

		// Corrupt a valid encoding in place.
		mutated := bytes.Clone(raw)
		var pos uint16
		var val byte
		f.Fuzz(&pos)
		f.Fuzz(&val)
		mutated[int(pos)%len(mutated)] = val
		require.NotPanics(t, func() {
			DecodeBlock(mutated, params.DogecoinMainnetChainConfig)
		}, "byte %d set to %#x:\n%s", int(pos)%len(mutated), val, spew.Sdump(mutated))
	}
}
