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

package rawdb

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/golang/snappy"

	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

// ReadCanonicalHash retrieves the hash assigned to a canonical block number.
func ReadCanonicalHash(db ethdb.KeyValueReader, number uint32) chainhash.Hash {
	data, _ := db.Get(headerHashKey(number))
	var hash chainhash.Hash
	if len(data) == chainhash.HashSize {
		copy(hash[:], data)
	}
	return hash
}

// WriteCanonicalHash stores the hash assigned to a canonical block number.
func WriteCanonicalHash(db ethdb.KeyValueWriter, hash chainhash.Hash, number uint32) {
	if err := db.Put(headerHashKey(number), hash[:]); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store number to hash mapping")
	}
}

// DeleteCanonicalHash removes the number to hash canonical mapping.
func DeleteCanonicalHash(db ethdb.KeyValueWriter, number uint32) {
	if err := db.Delete(headerHashKey(number)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete number to hash mapping")
	}
}

// ReadAllCanonicalHashes retrieves all canonical number and hash mappings at the
// certain chain range. If the accumulated entries reaches the given threshold,
// abort the iteration and return the semi-finish result.
func ReadAllCanonicalHashes(db ethdb.Iteratee, from uint32, to uint32, limit int) ([]uint32, []chainhash.Hash) {
	// Short circuit if the limit is 0.
	if limit == 0 {
		return nil, nil
	}
	var (
		numbers []uint32
		hashes  []chainhash.Hash
	)
	// Construct the key prefix of start point.
	start, end := headerHashKey(from), headerHashKey(to)
	it := db.NewIterator(nil, start)
	defer it.Release()

	for it.Next() {
		if bytes.Compare(it.Key(), end) >= 0 {
			break
		}
		if key := it.Key(); len(key) == len(headerPrefix)+4+1 && bytes.Equal(key[len(key)-1:], headerHashSuffix) {
			var hash chainhash.Hash
			copy(hash[:], it.Value())
			numbers = append(numbers, binary.BigEndian.Uint32(key[len(headerPrefix):len(headerPrefix)+4]))
			hashes = append(hashes, hash)
			// If the accumulated entries reaches the limit threshold, return.
			if len(numbers) >= limit {
				break
			}
		}
	}
	return numbers, hashes
}

// ReadHeaderNumber returns the header number assigned to a hash.
func ReadHeaderNumber(db ethdb.KeyValueReader, hash chainhash.Hash) *uint32 {
	data, _ := db.Get(headerNumberKey(hash))
	if len(data) != 4 {
		return nil
	}
	number := binary.BigEndian.Uint32(data)
	return &number
}

// WriteHeaderNumber stores the hash->number mapping.
func WriteHeaderNumber(db ethdb.KeyValueWriter, hash chainhash.Hash, number uint32) {
	if err := db.Put(headerNumberKey(hash), encodeBlockNumber(number)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store hash to number mapping")
	}
}

// DeleteHeaderNumber removes hash->number mapping.
func DeleteHeaderNumber(db ethdb.KeyValueWriter, hash chainhash.Hash) {
	if err := db.Delete(headerNumberKey(hash)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete hash to number mapping")
	}
}

// ReadHeadHeaderHash retrieves the hash of the current stable head header.
func ReadHeadHeaderHash(db ethdb.KeyValueReader) chainhash.Hash {
	data, _ := db.Get(headHeaderKey)
	var hash chainhash.Hash
	if len(data) == chainhash.HashSize {
		copy(hash[:], data)
	}
	return hash
}

// WriteHeadHeaderHash stores the hash of the current stable head header.
func WriteHeadHeaderHash(db ethdb.KeyValueWriter, hash chainhash.Hash) {
	if err := db.Put(headHeaderKey, hash[:]); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store last header's hash")
	}
}

// ReadHeaderData retrieves a block header in its raw consensus encoding.
func ReadHeaderData(db ethdb.KeyValueReader, hash chainhash.Hash, number uint32) []byte {
	data, _ := db.Get(headerKey(number, hash))
	return data
}

// HasHeader verifies the existence of a block header corresponding to the hash.
func HasHeader(db ethdb.KeyValueReader, hash chainhash.Hash, number uint32) bool {
	has, err := db.Has(headerKey(number, hash))
	return err == nil && has
}

// ReadHeader retrieves the block header corresponding to the hash.
func ReadHeader(db ethdb.KeyValueReader, hash chainhash.Hash, number uint32, cfg *params.ChainConfig) *types.Header {
	data := ReadHeaderData(db, hash, number)
	if len(data) == 0 {
		return nil
	}
	header, err := types.DecodeHeader(data, cfg)
	if err != nil {
		db.Logger().WithFields(log.Fields{
			"hash": hash,
			"err":  err,
		}).Error("Invalid block header encoding")
		return nil
	}
	return header
}

// WriteHeader stores a block header into the database and also stores the hash-
// to-number mapping.
func WriteHeader(db ethdb.KeyValueWriter, header *types.Header, number uint32) {
	hash := header.Hash()

	// Write the hash -> number mapping
	WriteHeaderNumber(db, hash, number)

	var buf bytes.Buffer
	if err := header.Serialize(&buf); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to encode header")
	}
	if err := db.Put(headerKey(number, hash), buf.Bytes()); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store header")
	}
}

// DeleteHeader removes all block header data associated with a hash.
func DeleteHeader(db ethdb.KeyValueWriter, hash chainhash.Hash, number uint32) {
	if err := db.Delete(headerKey(number, hash)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete header")
	}
	DeleteHeaderNumber(db, hash)
}

// ReadBlockData retrieves the consensus encoding of a block, decompressed.
func ReadBlockData(db ethdb.KeyValueReader, hash chainhash.Hash) []byte {
	data, _ := db.Get(blockKey(hash))
	if len(data) == 0 {
		return nil
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		db.Logger().WithFields(log.Fields{
			"hash": hash,
			"err":  err,
		}).Error("Corrupted block payload")
		return nil
	}
	return raw
}

// HasBlock verifies the existence of a block payload corresponding to the hash.
func HasBlock(db ethdb.KeyValueReader, hash chainhash.Hash) bool {
	has, err := db.Has(blockKey(hash))
	return err == nil && has
}

// ReadBlock retrieves the block corresponding to the hash.
func ReadBlock(db ethdb.KeyValueReader, hash chainhash.Hash, cfg *params.ChainConfig) *types.Block {
	data := ReadBlockData(db, hash)
	if data == nil {
		return nil
	}
	block, err := types.DecodeBlock(data, cfg)
	if err != nil {
		db.Logger().WithFields(log.Fields{
			"hash": hash,
			"err":  err,
		}).Error("Invalid block encoding")
		return nil
	}
	return block
}

// WriteBlockData stores the consensus encoding of a block, compressed with
// snappy.
func WriteBlockData(db ethdb.KeyValueWriter, hash chainhash.Hash, data []byte) {
	if err := db.Put(blockKey(hash), snappy.Encode(nil, data)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store block")
	}
}

// WriteBlock stores a block payload into the database.
func WriteBlock(db ethdb.KeyValueWriter, block *types.Block) {
	WriteBlockData(db, block.Hash(), block.Bytes())
}

// DeleteBlock removes a block payload.
func DeleteBlock(db ethdb.KeyValueWriter, hash chainhash.Hash) {
	if err := db.Delete(blockKey(hash)); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete block")
	}
}

// ReadAllBlockHashes retrieves the hashes of every stored block payload.
func ReadAllBlockHashes(db ethdb.Iteratee) []chainhash.Hash {
	it := db.NewIterator(blockPrefix, nil)
	defer it.Release()

	var hashes []chainhash.Hash
	for it.Next() {
		if key := it.Key(); len(key) == len(blockPrefix)+chainhash.HashSize {
			var hash chainhash.Hash
			copy(hash[:], key[len(blockPrefix):])
			hashes = append(hashes, hash)
		}
	}
	return hashes
}

// ReadBlockTree retrieves the encoded tree of unstable blocks.
func ReadBlockTree(db ethdb.KeyValueReader) []byte {
	data, _ := db.Get(blockTreeKey)
	return data
}

// WriteBlockTree stores the encoded tree of unstable blocks.
func WriteBlockTree(db ethdb.KeyValueWriter, data []byte) {
	if err := db.Put(blockTreeKey, data); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to store block tree")
	}
}

// DeleteBlockTree removes the encoded tree of unstable blocks.
func DeleteBlockTree(db ethdb.KeyValueWriter) {
	if err := db.Delete(blockTreeKey); err != nil {
		db.Logger().WithField("err", err).Fatal("Failed to delete block tree")
	}
}
