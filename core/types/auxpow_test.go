package types

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

const testChainID int32 = 0x62

// buildAuxPow commits auxHash in a fresh parent coinbase; script lets callers
// rearrange the coinbase commitment.
func buildAuxPow(auxHash chainhash.Hash, height uint, nonce uint32, script func(root []byte) []byte) *AuxPow {
	index := int32(ExpectedIndex(nonce, testChainID, height))
	branch := make([]chainhash.Hash, height)
	for i := range branch {
		for j := range branch[i] {
			branch[i][j] = byte(i)
		}
	}
	root := CheckMerkleBranch(auxHash, branch, index)
	rootBytes := reversed(root[:])

	if script == nil {
		script = func(root []byte) []byte {
			return commitment(MergedMiningHeader, root, 1<<height, nonce)
		}
	}
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  script(rootBytes),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(wire.NewTxOut(1, nil))

	return &AuxPow{
		CoinbaseTx:  coinbase,
		ChainBranch: branch,
		ChainIndex:  index,
		ParentHeader: wire.BlockHeader{
			Version:    1 | 42<<VersionChainStart,
			MerkleRoot: coinbase.TxHash(),
			Bits:       0x207fffff,
		},
	}
}

func commitment(prefix, root []byte, size, nonce uint32) []byte {
	var buf bytes.Buffer
	buf.Write(prefix)
	buf.Write(root)
	binary.Write(&buf, binary.LittleEndian, size)
	binary.Write(&buf, binary.LittleEndian, nonce)
	return buf.Bytes()
}

func TestExpectedIndex(t *testing.T) {
	require.Equal(t, uint32(7), ExpectedIndex(7, testChainID, 3))
	require.Equal(t, uint32(0), ExpectedIndex(0, 0, 0))
	require.Equal(t, uint32(287729784), ExpectedIndex(123456, testChainID, 30))
}

func TestCheckMerkleBranch(t *testing.T) {
	leaf := chainhash.DoubleHashH([]byte("leaf"))
	sibling := chainhash.DoubleHashH([]byte("sibling"))

	require.Equal(t, chainhash.Hash{}, CheckMerkleBranch(leaf, nil, -1))
	require.Equal(t, leaf, CheckMerkleBranch(leaf, nil, 0))

	left := chainhash.DoubleHashH(append(leaf[:], sibling[:]...))
	require.Equal(t, left, CheckMerkleBranch(leaf, []chainhash.Hash{sibling}, 0))
	right := chainhash.DoubleHashH(append(sibling[:], leaf[:]...))
	require.Equal(t, right, CheckMerkleBranch(leaf, []chainhash.Hash{sibling}, 1))
}

func TestAuxPowCheck(t *testing.T) {
	auxHash := chainhash.DoubleHashH([]byte("dogecoin block"))

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, buildAuxPow(auxHash, 3, 7, nil).Check(auxHash, testChainID, true))
	})

	t.Run("other block hash", func(t *testing.T) {
		other := chainhash.DoubleHashH([]byte("another block"))
		require.ErrorIs(t, buildAuxPow(auxHash, 3, 7, nil).Check(other, testChainID, true), ErrAuxPowMissingRoot)
	})

	t.Run("not a generate", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, nil)
		a.CoinbaseIndex = 1
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowNotGenerate)
	})

	t.Run("parent chain id", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, nil)
		a.ParentHeader.Version = 1 | testChainID<<VersionChainStart
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowParentChainID)
		require.NoError(t, a.Check(auxHash, testChainID, false))
	})

	t.Run("parent with auxpow", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, nil)
		a.ParentHeader.Version |= VersionAuxPow
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowParentHasAuxPow)
	})

	t.Run("branch too long", func(t *testing.T) {
		a := buildAuxPow(auxHash, MaxChainMerkleBranch+1, 7, nil)
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowBranchTooLong)
	})

	t.Run("coinbase not in parent", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, nil)
		a.ParentHeader.MerkleRoot[0] ^= 1
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowMerkleRoot)
	})

	t.Run("tampered commitment", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, func(root []byte) []byte {
			root[0] ^= 1
			return commitment(MergedMiningHeader, root, 8, 7)
		})
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowMissingRoot)
	})

	t.Run("two headers", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, func(root []byte) []byte {
			return append(commitment(MergedMiningHeader, root, 8, 7), MergedMiningHeader...)
		})
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowMultipleHeaders)
	})

	t.Run("header not before root", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, func(root []byte) []byte {
			return commitment(append(bytes.Clone(MergedMiningHeader), 0x00), root, 8, 7)
		})
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowHeaderNotBefore)
	})

	t.Run("no header within 20 bytes", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, func(root []byte) []byte {
			return commitment(make([]byte, 20), root, 8, 7)
		})
		require.NoError(t, a.Check(auxHash, testChainID, true))
	})

	t.Run("no header after 20 bytes", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, func(root []byte) []byte {
			return commitment(make([]byte, 21), root, 8, 7)
		})
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowRootTooLate)
	})

	t.Run("missing size and nonce", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, func(root []byte) []byte {
			return append(bytes.Clone(MergedMiningHeader), root...)
		})
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowMissingSizeNonce)
	})

	t.Run("wrong size", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, func(root []byte) []byte {
			return commitment(MergedMiningHeader, root, 4, 7)
		})
		require.ErrorIs(t, a.Check(auxHash, testChainID, true), ErrAuxPowBranchSizeMismatch)
	})

	t.Run("wrong index", func(t *testing.T) {
		a := buildAuxPow(auxHash, 3, 7, nil)
		a.ChainIndex = (a.ChainIndex + 1) % 8
		require.Error(t, a.Check(auxHash, testChainID, true))
	})
}

func TestAuxPowEncoding(t *testing.T) {
	auxHash := chainhash.DoubleHashH([]byte("dogecoin block"))
	a := buildAuxPow(auxHash, 3, 7, nil)
	a.CoinbaseBranch = []chainhash.Hash{chainhash.DoubleHashH([]byte("tx"))}

	header := &Header{
		BlockHeader: wire.BlockHeader{Version: 4 | VersionAuxPow | testChainID<<VersionChainStart, Bits: 0x207fffff},
		AuxPow:      a,
	}
	var buf bytes.Buffer
	require.NoError(t, header.Serialize(&buf))

	decoded := new(Header)
	require.NoError(t, decoded.Deserialize(bytes.NewReader(buf.Bytes()), true))
	require.Equal(t, header.Hash(), decoded.Hash())
	require.Equal(t, a.ChainBranch, decoded.AuxPow.ChainBranch)
	require.Equal(t, a.CoinbaseBranch, decoded.AuxPow.CoinbaseBranch)
	require.Equal(t, a.ParentHeader.BlockHash(), decoded.AuxPow.ParentHeader.BlockHash())
	require.Equal(t, a.CoinbaseTx.TxHash(), decoded.AuxPow.CoinbaseTx.TxHash())

	// Without merged mining decoding the proof is left unread.
	plain := new(Header)
	require.NoError(t, plain.Deserialize(bytes.NewReader(buf.Bytes()), false))
	require.Nil(t, plain.AuxPow)
}
