// Copyright 2018 The go-ethereum Authors
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

// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// The fields below define the low level database schema prefixing.
var (
	// databaseVersionKey tracks the current database version.
	databaseVersionKey = []byte("DatabaseVersion")

	// networkKey tracks the name of the network the database was created for.
	networkKey = []byte("Network")

	// headHeaderKey tracks the latest stable header's hash.
	headHeaderKey = []byte("LastHeader")

	// blockTreeKey holds the encoded tree of unstable blocks.
	blockTreeKey = []byte("BlockTree")

	// Data item prefixes (use single byte to avoid mixing data types).
	headerPrefix       = []byte("h") // headerPrefix + num (uint32 big endian) + hash -> header
	headerHashSuffix   = []byte("n") // headerPrefix + num (uint32 big endian) + headerHashSuffix -> hash
	headerNumberPrefix = []byte("H") // headerNumberPrefix + hash -> num (uint32 big endian)
	blockPrefix        = []byte("b") // blockPrefix + hash -> snappy compressed block
)

// encodeBlockNumber encodes a block number as big endian uint32
func encodeBlockNumber(number uint32) []byte {
	enc := make([]byte, 4)
	binary.BigEndian.PutUint32(enc, number)
	return enc
}

// headerKeyPrefix = headerPrefix + num (uint32 big endian)
func headerKeyPrefix(number uint32) []byte {
	return append(append([]byte{}, headerPrefix...), encodeBlockNumber(number)...)
}

// headerKey = headerPrefix + num (uint32 big endian) + hash
func headerKey(number uint32, hash chainhash.Hash) []byte {
	return append(headerKeyPrefix(number), hash[:]...)
}

// headerHashKey = headerPrefix + num (uint32 big endian) + headerHashSuffix
func headerHashKey(number uint32) []byte {
	return append(headerKeyPrefix(number), headerHashSuffix...)
}

// headerNumberKey = headerNumberPrefix + hash
func headerNumberKey(hash chainhash.Hash) []byte {
	return append(append([]byte{}, headerNumberPrefix...), hash[:]...)
}

// blockKey = blockPrefix + hash
func blockKey(hash chainhash.Hash) []byte {
	return append(append([]byte{}, blockPrefix...), hash[:]...)
}
