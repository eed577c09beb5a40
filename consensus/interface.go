// Copyright 2017 The go-ethereum Authors
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

// Package consensus implements header and merged mining validation for
// Bitcoin family networks.
package consensus

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// HeaderStore defines a small collection of methods needed to access the
// chain a header extends during validation.
type HeaderStore interface {
	// GetHeaderByHash retrieves a header by hash, or nil if unknown.
	GetHeaderByHash(hash chainhash.Hash) *wire.BlockHeader

	// GetHeaderByHeight retrieves the header at height on the chain the next
	// header extends, or nil if unknown.
	GetHeaderByHeight(height uint32) *wire.BlockHeader

	// Height returns the height of the tip the next header extends.
	Height() uint32

	// InitialHash returns the hash of the oldest header in the store.
	// Ancestor walks stop there.
	InitialHash() chainhash.Hash
}
