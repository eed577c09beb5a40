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

package core

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	// ErrNoTransactions is returned if a block carries no transactions, not
	// even a coinbase.
	ErrNoTransactions = errors.New("block has no transactions")

	// ErrInvalidCoinbase is returned if the first transaction of a block is not
	// a coinbase or if any later transaction is one.
	ErrInvalidCoinbase = errors.New("invalid coinbase")

	// ErrDuplicateTransactions is returned if two sibling nodes of the
	// transaction merkle tree are equal. Such a tree has the same root as the
	// block without the repeated transactions (CVE-2012-2459).
	ErrDuplicateTransactions = errors.New("duplicate transactions")

	// ErrInvalidMerkleRoot is returned if the merkle root of the transactions
	// differs from the one committed in the header.
	ErrInvalidMerkleRoot = errors.New("invalid merkle root")

	// ErrInvalidBlockHeader wraps the header validation failure of a block.
	ErrInvalidBlockHeader = errors.New("invalid block header")

	// ErrNoStableHead is returned when the stable header chain has no head
	// recorded in its database.
	ErrNoStableHead = errors.New("stable head not found")

	// ErrNotStableSuccessor is returned when a header appended to the stable
	// chain does not extend its head.
	ErrNotStableSuccessor = errors.New("header does not extend the stable head")
)

// MerkleRootError reports the roots of a block whose transactions do not
// commit to its header.
type MerkleRootError struct {
	Header   chainhash.Hash
	Computed chainhash.Hash
}

func (e *MerkleRootError) Error() string {
	return fmt.Sprintf("%v: header %v, computed %v", ErrInvalidMerkleRoot, e.Header, e.Computed)
}

func (e *MerkleRootError) Unwrap() error { return ErrInvalidMerkleRoot }
