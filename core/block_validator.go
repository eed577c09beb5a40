// Copyright 2015 The go-ethereum Authors
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

package core

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/dominant-strategies/go-blocktree/consensus"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

// BlockValidator is responsible for validating block headers and the
// structure of block bodies.
//
// BlockValidator implements Validator.
type BlockValidator struct {
	config  *params.ChainConfig        // Chain configuration options
	headers *consensus.HeaderValidator // Header rules over the chain being extended
	logger  *log.Logger
}

// NewBlockValidator returns a new block validator which is safe for re-use
func NewBlockValidator(headers *consensus.HeaderValidator, logger *log.Logger) *BlockValidator {
	if logger == nil {
		logger = log.Global
	}
	return &BlockValidator{
		config:  headers.Config(),
		headers: headers,
		logger:  logger,
	}
}

// ValidateBlock validates the header of the block against the chain it
// extends and then its body. Header failures are wrapped in
// ErrInvalidBlockHeader so that both errors match with errors.Is.
func (v *BlockValidator) ValidateBlock(block *types.Block, now time.Time) error {
	var err error
	if v.config.AuxPowEnabled() {
		err = v.headers.ValidateAuxPowHeader(block.Header(), now)
	} else {
		err = v.headers.ValidateHeader(block.Header().Pure(), now)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBlockHeader, err)
	}
	return v.ValidateBlockBody(block)
}

// ValidateBlockBody checks the coinbase placement and the transaction merkle
// tree of the block.
func (v *BlockValidator) ValidateBlockBody(block *types.Block) error {
	txs := block.Transactions()
	if len(txs) == 0 {
		return ErrNoTransactions
	}
	if !blockchain.IsCoinBaseTx(txs[0]) {
		return fmt.Errorf("%w: first transaction is not a coinbase", ErrInvalidCoinbase)
	}
	for i, tx := range txs[1:] {
		if blockchain.IsCoinBaseTx(tx) {
			return fmt.Errorf("%w: transaction %d is a coinbase", ErrInvalidCoinbase, i+1)
		}
	}

	store := blockchain.BuildMerkleTreeStore(block.Txs(), false)
	if hasDuplicateSiblings(store, len(txs)) {
		v.logger.WithField("hash", block.Hash()).Debug("Block merkle tree repeats a subtree")
		return ErrDuplicateTransactions
	}
	root := store[len(store)-1]
	if *root != block.Header().MerkleRoot {
		return &MerkleRootError{Header: block.Header().MerkleRoot, Computed: *root}
	}
	return nil
}

// hasDuplicateSiblings scans every level of a merkle tree store for a pair of
// equal siblings. The store lays out levels one after the other, each half
// the size of the one below, with nil entries past the level's last node.
func hasDuplicateSiblings(store []*chainhash.Hash, leaves int) bool {
	width := (len(store) + 1) / 2
	for offset, n := 0, leaves; width > 1; offset, width, n = offset+width, width/2, (n+1)/2 {
		for i := 0; i+1 < n; i += 2 {
			if *store[offset+i] == *store[offset+i+1] {
				return true
			}
		}
	}
	return false
}
