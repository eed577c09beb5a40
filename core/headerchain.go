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
	"math"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	lru "github.com/hashicorp/golang-lru"

	"github.com/dominant-strategies/go-blocktree/core/rawdb"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

const (
	headerCacheLimit = 512
	numberCacheLimit = 2048
)

// HeaderChain is the durable chain of stable headers. It starts at an initial
// header, the network genesis or a later checkpoint, and only grows at its head.
//
// HeaderChain implements consensus.HeaderStore.
type HeaderChain struct {
	config *params.ChainConfig

	headerDb ethdb.Database

	initialHash   chainhash.Hash
	initialHeight uint32

	currentHeader *types.Header // Current stable head
	currentHeight uint32

	headerCache *lru.Cache // Cache for the most recent block headers
	numberCache *lru.Cache // Cache for the most recent block numbers

	headermu sync.RWMutex
	logger   *log.Logger
}

// NewHeaderChain opens the stable chain held in db. An empty database is
// initialised with the given initial header at height; otherwise the stored
// chain is loaded and must belong to the configured network.
func NewHeaderChain(db ethdb.Database, config *params.ChainConfig, initial *types.Header, height uint32, logger *log.Logger) (*HeaderChain, error) {
	if logger == nil {
		logger = log.Global
	}
	headerCache, _ := lru.New(headerCacheLimit)
	numberCache, _ := lru.New(numberCacheLimit)

	hc := &HeaderChain{
		config:      config,
		headerDb:    db,
		headerCache: headerCache,
		numberCache: numberCache,
		logger:      logger,
	}

	if network := rawdb.ReadNetwork(db); network != "" && network != config.Name {
		return nil, fmt.Errorf("database holds network %s, not %s", network, config.Name)
	}
	if rawdb.ReadHeadHeaderHash(db) == (chainhash.Hash{}) {
		hc.writeInitial(initial, height)
	}
	if err := hc.loadLastState(); err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{
		"network": config.Name,
		"initial": hc.initialHash,
		"height":  hc.currentHeight,
		"head":    hc.currentHeader.Hash(),
	}).Info("Loaded stable chain")
	return hc, nil
}

// writeInitial stores the first header of a fresh database.
func (hc *HeaderChain) writeInitial(initial *types.Header, height uint32) {
	batch := hc.headerDb.NewBatch()
	rawdb.WriteDatabaseVersion(batch, rawdb.DatabaseVersion)
	rawdb.WriteNetwork(batch, hc.config.Name)
	rawdb.WriteHeader(batch, initial, height)
	rawdb.WriteCanonicalHash(batch, initial.Hash(), height)
	rawdb.WriteHeadHeaderHash(batch, initial.Hash())
	if err := batch.Write(); err != nil {
		hc.logger.WithField("err", err).Fatal("Failed to write initial header")
	}
}

// loadLastState loads the last known chain state from the database.
func (hc *HeaderChain) loadLastState() error {
	numbers, hashes := rawdb.ReadAllCanonicalHashes(hc.headerDb, 0, math.MaxUint32, 1)
	if len(numbers) == 0 {
		return ErrNoStableHead
	}
	hc.initialHeight, hc.initialHash = numbers[0], hashes[0]

	head := rawdb.ReadHeadHeaderHash(hc.headerDb)
	number := rawdb.ReadHeaderNumber(hc.headerDb, head)
	if number == nil {
		// The hash->number index is derived data, rebuild it.
		hc.logger.WithField("head", head).Warn("Stable head is not indexed, reindexing")
		rawdb.ReindexHeaderNumbers(hc.headerDb, hc.initialHeight)
		if number = rawdb.ReadHeaderNumber(hc.headerDb, head); number == nil {
			return fmt.Errorf("%w: %v", ErrNoStableHead, head)
		}
	}
	header := rawdb.ReadHeader(hc.headerDb, head, *number, hc.config)
	if header == nil {
		return fmt.Errorf("%w: %v", ErrNoStableHead, head)
	}
	hc.currentHeader, hc.currentHeight = header, *number
	return nil
}

// Append stores header as the new stable head. It must extend the current one.
func (hc *HeaderChain) Append(header *types.Header) error {
	hc.headermu.Lock()
	defer hc.headermu.Unlock()

	if header.PrevBlock != hc.currentHeader.Hash() {
		return fmt.Errorf("%w: %v builds on %v", ErrNotStableSuccessor, header.Hash(), header.PrevBlock)
	}
	hash, number := header.Hash(), hc.currentHeight+1

	batch := hc.headerDb.NewBatch()
	rawdb.WriteHeader(batch, header, number)
	rawdb.WriteCanonicalHash(batch, hash, number)
	rawdb.WriteHeadHeaderHash(batch, hash)
	if err := batch.Write(); err != nil {
		return err
	}
	hc.headerCache.Add(hash, header)
	hc.numberCache.Add(hash, number)
	hc.currentHeader, hc.currentHeight = header, number
	return nil
}

// CurrentHeader retrieves the current stable head.
func (hc *HeaderChain) CurrentHeader() *types.Header {
	hc.headermu.RLock()
	defer hc.headermu.RUnlock()
	return hc.currentHeader
}

// Height returns the height of the stable head.
func (hc *HeaderChain) Height() uint32 {
	hc.headermu.RLock()
	defer hc.headermu.RUnlock()
	return hc.currentHeight
}

// InitialHash returns the hash of the first stored header.
func (hc *HeaderChain) InitialHash() chainhash.Hash { return hc.initialHash }

// InitialHeight returns the height of the first stored header.
func (hc *HeaderChain) InitialHeight() uint32 { return hc.initialHeight }

// Config retrieves the header chain's chain configuration.
func (hc *HeaderChain) Config() *params.ChainConfig { return hc.config }

// Database returns the database the stable chain is stored in.
func (hc *HeaderChain) Database() ethdb.Database { return hc.headerDb }

// GetBlockNumber retrieves the block number belonging to the given hash
// from the cache or database
func (hc *HeaderChain) GetBlockNumber(hash chainhash.Hash) *uint32 {
	if cached, ok := hc.numberCache.Get(hash); ok {
		number := cached.(uint32)
		return &number
	}
	number := rawdb.ReadHeaderNumber(hc.headerDb, hash)
	if number != nil {
		hc.numberCache.Add(hash, *number)
	}
	return number
}

// GetHeader retrieves a block header from the database by hash and number,
// caching it if found.
func (hc *HeaderChain) GetHeader(hash chainhash.Hash, number uint32) *types.Header {
	// Short circuit if the header's already in the cache, retrieve otherwise
	if header, ok := hc.headerCache.Get(hash); ok {
		return header.(*types.Header)
	}
	header := rawdb.ReadHeader(hc.headerDb, hash, number, hc.config)
	if header == nil {
		return nil
	}
	// Cache the found header for next time and return
	hc.headerCache.Add(hash, header)
	return header
}

// GetStableHeader retrieves a stable header by hash.
func (hc *HeaderChain) GetStableHeader(hash chainhash.Hash) *types.Header {
	number := hc.GetBlockNumber(hash)
	if number == nil {
		return nil
	}
	return hc.GetHeader(hash, *number)
}

// GetStableHeaderByNumber retrieves the stable header at number.
func (hc *HeaderChain) GetStableHeaderByNumber(number uint32) *types.Header {
	hash := rawdb.ReadCanonicalHash(hc.headerDb, number)
	if hash == (chainhash.Hash{}) {
		return nil
	}
	return hc.GetHeader(hash, number)
}

// GetHeaderByHash returns the stable header with the given hash.
func (hc *HeaderChain) GetHeaderByHash(hash chainhash.Hash) *wire.BlockHeader {
	if header := hc.GetStableHeader(hash); header != nil {
		return header.Pure()
	}
	return nil
}

// GetHeaderByHeight returns the stable header at height.
func (hc *HeaderChain) GetHeaderByHeight(height uint32) *wire.BlockHeader {
	if header := hc.GetStableHeaderByNumber(height); header != nil {
		return header.Pure()
	}
	return nil
}

// HasHeader checks if a block header is present in the database or not.
func (hc *HeaderChain) HasHeader(hash chainhash.Hash, number uint32) bool {
	if hc.numberCache.Contains(hash) || hc.headerCache.Contains(hash) {
		return true
	}
	return rawdb.HasHeader(hc.headerDb, hash, number)
}
