// Package testutil builds headers, merged mining proofs and blocks for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/params"
)

// MockCurrentTime is far enough in the future for every fixture header.
var MockCurrentTime = time.Unix(2_634_590_600, 0)

// Mine searches the nonce space until the header's proof of work hash meets
// its own target (valid) or misses it (!valid).
func Mine(h *wire.BlockHeader, algo params.PowAlgo, valid bool) {
	target := blockchain.CompactToBig(h.Bits)
	for {
		if types.MeetsTarget(types.PowHash(h, algo), target) == valid {
			return
		}
		h.Nonce++
	}
}

// NextHeader returns a child of prev spaced by the network's target spacing.
func NextHeader(prev *wire.BlockHeader, spacing int64, bits uint32) *wire.BlockHeader {
	return &wire.BlockHeader{
		Version:    prev.Version,
		PrevBlock:  prev.BlockHash(),
		MerkleRoot: prev.MerkleRoot,
		Timestamp:  prev.Timestamp.Add(time.Duration(spacing) * time.Second),
		Bits:       bits,
		Nonce:      prev.Nonce,
	}
}

// HeaderChain returns n headers following start, each one spacing seconds
// after its parent and carrying bits.
func HeaderChain(start *wire.BlockHeader, n int, spacing int64, bits uint32) []*wire.BlockHeader {
	headers := make([]*wire.BlockHeader, 0, n)
	prev := start
	for i := 0; i < n; i++ {
		next := NextHeader(prev, spacing, bits)
		headers = append(headers, next)
		prev = next
	}
	return headers
}

// Version assembles a header version from its parts.
func Version(base, chainID int32, auxpow bool) int32 {
	v := base | chainID<<types.VersionChainStart
	if auxpow {
		v |= types.VersionAuxPow
	}
	return v
}

// CoinbaseTx returns a coinbase transaction with the given input script.
func CoinbaseTx(script []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  script,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(50*1e8, []byte{0x51}))
	return tx
}

// SpendTx returns a transaction spending output 0 of prev.
func SpendTx(prev chainhash.Hash, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev, 0), []byte{0x51}, nil))
	tx.AddTxOut(wire.NewTxOut(value, []byte{0x51}))
	return tx
}

// AuxPowBuilder assembles merged mining proofs for a child block hash.
type AuxPowBuilder struct {
	auxHash       chainhash.Hash
	chainID       int32
	parentChainID int32
	merkleHeight  uint
	nonce         uint32
	bits          uint32
	validPow      bool
	tamper        bool
}

// NewAuxPowBuilder starts a proof for auxHash with a three level chain merkle
// tree, nonce 7 and the Dogecoin chain id.
func NewAuxPowBuilder(auxHash chainhash.Hash) *AuxPowBuilder {
	return &AuxPowBuilder{
		auxHash:       auxHash,
		chainID:       params.DogecoinChainID,
		parentChainID: 42,
		merkleHeight:  3,
		nonce:         7,
		bits:          0x207fffff,
		validPow:      true,
	}
}

func (b *AuxPowBuilder) WithChainID(id int32) *AuxPowBuilder       { b.chainID = id; return b }
func (b *AuxPowBuilder) WithParentChainID(id int32) *AuxPowBuilder { b.parentChainID = id; return b }
func (b *AuxPowBuilder) WithMerkleHeight(h uint) *AuxPowBuilder    { b.merkleHeight = h; return b }
func (b *AuxPowBuilder) WithNonce(n uint32) *AuxPowBuilder         { b.nonce = n; return b }
func (b *AuxPowBuilder) WithBits(bits uint32) *AuxPowBuilder       { b.bits = bits; return b }
func (b *AuxPowBuilder) WithValidPow(valid bool) *AuxPowBuilder    { b.validPow = valid; return b }

// WithTamperedCommitment flips one byte of the chain merkle root committed in
// the parent coinbase.
func (b *AuxPowBuilder) WithTamperedCommitment() *AuxPowBuilder { b.tamper = true; return b }

// Build assembles the proof and mines its parent header.
func (b *AuxPowBuilder) Build() *types.AuxPow {
	index := int32(types.ExpectedIndex(b.nonce, b.chainID, b.merkleHeight))
	branch := make([]chainhash.Hash, b.merkleHeight)
	for i := range branch {
		for j := range branch[i] {
			branch[i][j] = byte(i)
		}
	}
	root := types.CheckMerkleBranch(b.auxHash, branch, index)
	rootBytes := make([]byte, len(root))
	for i := range root {
		rootBytes[len(root)-1-i] = root[i]
	}
	if b.tamper {
		rootBytes[0] ^= 0x01
	}

	var script bytes.Buffer
	script.Write(types.MergedMiningHeader)
	script.Write(rootBytes)
	binary.Write(&script, binary.LittleEndian, uint32(1)<<b.merkleHeight)
	binary.Write(&script, binary.LittleEndian, b.nonce)
	coinbase := CoinbaseTx(script.Bytes())

	parent := wire.BlockHeader{
		Version:    Version(1, b.parentChainID, false),
		MerkleRoot: coinbase.TxHash(),
		Timestamp:  time.Unix(1_700_000_000, 0),
		Bits:       b.bits,
	}
	Mine(&parent, params.PowScrypt, b.validPow)

	return &types.AuxPow{
		CoinbaseTx:    coinbase,
		ParentHash:    parent.BlockHash(),
		CoinbaseIndex: 0,
		ChainBranch:   branch,
		ChainIndex:    index,
		ParentHeader:  parent,
	}
}

// BuildBlock wraps txs in a block whose header commits to their merkle root.
func BuildBlock(header *wire.BlockHeader, txs []*wire.MsgTx) *types.Block {
	h := *header
	block := types.NewBlock(types.NewHeader(&h), txs)
	if len(txs) > 0 {
		store := blockchain.BuildMerkleTreeStore(block.Txs(), false)
		h.MerkleRoot = *store[len(store)-1]
		block = types.NewBlock(types.NewHeader(&h), txs)
	}
	return block
}

var extraNonce atomic.Uint64

// ChildBlock returns a block extending prev one target spacing later. Its
// coinbase carries a fresh extra nonce, so siblings built from the same parent
// have distinct hashes.
func ChildBlock(prev *wire.BlockHeader, bits uint32) *types.Block {
	script := binary.LittleEndian.AppendUint64([]byte{0x04}, extraNonce.Add(1))
	return BuildBlock(NextHeader(prev, 600, bits), []*wire.MsgTx{CoinbaseTx(script)})
}

// GenesisBlock returns a block for the network's genesis header. The header
// is kept as is, so its merkle root does not match the synthetic coinbase.
func GenesisBlock(cfg *params.ChainConfig) *types.Block {
	return types.NewBlock(types.NewHeader(Genesis(cfg)), []*wire.MsgTx{CoinbaseTx([]byte{0x00, 0x00})})
}

// BlockChain returns n blocks following start, each one a ChildBlock of the
// previous.
func BlockChain(start *types.Block, n int, bits uint32) []*types.Block {
	blocks := make([]*types.Block, 0, n)
	prev := start
	for i := 0; i < n; i++ {
		next := ChildBlock(prev.Header().Pure(), bits)
		blocks = append(blocks, next)
		prev = next
	}
	return blocks
}

// MinedBlock returns a ChildBlock of prev at the network's pow limit whose
// header meets its target.
func MinedBlock(prev *wire.BlockHeader, cfg *params.ChainConfig) *types.Block {
	block := ChildBlock(prev, cfg.PowLimitBits)
	header := block.Header().Pure()
	Mine(header, cfg.Pow, true)
	return types.NewBlock(types.NewHeader(header), block.Transactions())
}
