// Copyright 2014 The go-ethereum Authors
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

package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/dominant-strategies/go-blocktree/params"
)

// maxBlockTxs bounds the transaction count read from the wire. A transaction
// takes at least 60 bytes, so no block under 256MB can hold more.
const maxBlockTxs = 256 * 1024 * 1024 / 60

// Block is a header together with its ordered transactions.
type Block struct {
	header       *Header
	transactions []*wire.MsgTx

	// witness selects segwit aware transaction encoding.
	witness bool
}

// NewBlock creates a block. The header is copied.
func NewBlock(header *Header, txs []*wire.MsgTx) *Block {
	h := *header
	return &Block{header: &h, transactions: txs}
}

// NewBlockWithWitness is NewBlock for networks encoding segwit transactions.
func NewBlockWithWitness(header *Header, txs []*wire.MsgTx) *Block {
	b := NewBlock(header, txs)
	b.witness = true
	return b
}

func (b *Block) Header() *Header              { return b.header }
func (b *Block) Transactions() []*wire.MsgTx { return b.transactions }
func (b *Block) Hash() chainhash.Hash        { return b.header.Hash() }
func (b *Block) PrevHash() chainhash.Hash    { return b.header.PrevBlock }

// Txs wraps the transactions for merkle computations.
func (b *Block) Txs() []*btcutil.Tx {
	txs := make([]*btcutil.Tx, len(b.transactions))
	for i, tx := range b.transactions {
		txs[i] = btcutil.NewTx(tx)
	}
	return txs
}

// Serialize writes the block in the consensus encoding it was created with.
func (b *Block) Serialize(w io.Writer) error {
	if err := b.header.Serialize(w); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, 0, uint64(len(b.transactions))); err != nil {
		return err
	}
	for _, tx := range b.transactions {
		var err error
		if b.witness {
			err = tx.Serialize(w)
		} else {
			err = tx.SerializeNoWitness(w)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the consensus encoding of the block.
func (b *Block) Bytes() []byte {
	var buf bytes.Buffer
	if err := b.Serialize(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DecodeBlock parses a block in the consensus encoding of cfg's network.
// Dogecoin family blocks carry merged mining proofs and no witness data.
func DecodeBlock(data []byte, cfg *params.ChainConfig) (*Block, error) {
	r := bytes.NewReader(data)
	block, err := readBlock(r, cfg)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after block", r.Len())
	}
	return block, nil
}

// DecodeBlockHex is DecodeBlock over a hex string.
func DecodeBlockHex(s string, cfg *params.ChainConfig) (*Block, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return DecodeBlock(data, cfg)
}

func readBlock(r io.Reader, cfg *params.ChainConfig) (*Block, error) {
	auxpow := cfg.AuxPowEnabled()
	header := new(Header)
	if err := header.Deserialize(r, auxpow); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	n, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, fmt.Errorf("tx count: %w", err)
	}
	if n > maxBlockTxs {
		return nil, fmt.Errorf("too many transactions to fit into a block [count %d, max %d]", n, maxBlockTxs)
	}
	block := &Block{header: header, witness: !auxpow}
	block.transactions = make([]*wire.MsgTx, 0, min(n, 4096))
	for i := uint64(0); i < n; i++ {
		tx := new(wire.MsgTx)
		if block.witness {
			err = tx.Deserialize(r)
		} else {
			err = tx.DeserializeNoWitness(r)
		}
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
		block.transactions = append(block.transactions, tx)
	}
	return block, nil
}

// DecodeHeader parses a header in the consensus encoding of cfg's network.
func DecodeHeader(data []byte, cfg *params.ChainConfig) (*Header, error) {
	r := bytes.NewReader(data)
	header := new(Header)
	if err := header.Deserialize(r, cfg.AuxPowEnabled()); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after header", r.Len())
	}
	return header, nil
}
