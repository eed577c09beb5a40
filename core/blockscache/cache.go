// Package blockscache stores the payloads of unstable blocks, keyed by block
// hash. A block tree only keeps hashes and difficulties and fetches blocks
// from its cache on demand.
package blockscache

//go:generate mockgen -package mocks -destination mocks/blockscache.go . BlocksCache

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/params"
)

// BlocksCache is a keyed store of blocks shared by every node of a block
// tree. Implementations are safe for concurrent use.
type BlocksCache interface {
	// Insert stores block under hash and reports whether the hash was absent.
	Insert(hash chainhash.Hash, block *types.Block) bool

	// Remove deletes the block under hash and reports whether it was present.
	Remove(hash chainhash.Hash) bool

	// Get returns the block under hash, or nil.
	Get(hash chainhash.Hash) *types.Block

	IsEmpty() bool
	Len() uint64

	// Config returns the network whose blocks the cache holds.
	Config() *params.ChainConfig
}
