package blockscache

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/params"
)

// MemoryCache keeps decoded blocks in memory, in insertion order.
type MemoryCache struct {
	config *params.ChainConfig
	blocks *orderedmap.OrderedMap[chainhash.Hash, *types.Block]
	lock   sync.RWMutex
}

// NewMemoryCache returns an empty in-memory cache for the network.
func NewMemoryCache(config *params.ChainConfig) *MemoryCache {
	return &MemoryCache{
		config: config,
		blocks: orderedmap.New[chainhash.Hash, *types.Block](),
	}
}

func (c *MemoryCache) Insert(hash chainhash.Hash, block *types.Block) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	_, present := c.blocks.Set(hash, block)
	return !present
}

func (c *MemoryCache) Remove(hash chainhash.Hash) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	_, present := c.blocks.Delete(hash)
	return present
}

func (c *MemoryCache) Get(hash chainhash.Hash) *types.Block {
	c.lock.RLock()
	defer c.lock.RUnlock()

	block, _ := c.blocks.Get(hash)
	return block
}

func (c *MemoryCache) IsEmpty() bool { return c.Len() == 0 }

func (c *MemoryCache) Len() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return uint64(c.blocks.Len())
}

func (c *MemoryCache) Config() *params.ChainConfig { return c.config }

// Hashes returns the cached hashes, oldest insertion first.
func (c *MemoryCache) Hashes() []chainhash.Hash {
	c.lock.RLock()
	defer c.lock.RUnlock()

	hashes := make([]chainhash.Hash, 0, c.blocks.Len())
	for pair := c.blocks.Oldest(); pair != nil; pair = pair.Next() {
		hashes = append(hashes, pair.Key)
	}
	return hashes
}
