package blockscache

import (
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dominant-strategies/go-blocktree/core/rawdb"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

const (
	blockCacheLimit = 256
	// Default size of the encoded payload cache in MB.
	defaultPayloadCacheMB = 32
)

// DatabaseCache keeps block payloads in a key-value database, so the unstable
// blocks survive restarts. Hot blocks stay decoded in an LRU and their
// encodings in a fastcache in front of the database.
type DatabaseCache struct {
	config *params.ChainConfig
	db     ethdb.Database

	blockCache   *lru.Cache[chainhash.Hash, *types.Block]
	payloadCache *fastcache.Cache

	count  uint64
	lock   sync.RWMutex
	logger *log.Logger
}

// NewDatabaseCache opens a cache over db. Payloads already stored in db, from
// an earlier run, are counted as cached. A payloadCacheMB of zero selects the
// default size.
func NewDatabaseCache(db ethdb.Database, config *params.ChainConfig, payloadCacheMB int, logger *log.Logger) *DatabaseCache {
	if logger == nil {
		logger = log.Global
	}
	if payloadCacheMB <= 0 {
		payloadCacheMB = defaultPayloadCacheMB
	}
	blockCache, _ := lru.New[chainhash.Hash, *types.Block](blockCacheLimit)
	c := &DatabaseCache{
		config:       config,
		db:           db,
		blockCache:   blockCache,
		payloadCache: fastcache.New(payloadCacheMB * 1024 * 1024),
		count:        uint64(len(rawdb.ReadAllBlockHashes(db))),
		logger:       logger,
	}
	if c.count > 0 {
		logger.WithField("blocks", c.count).Info("Loaded stored unstable blocks")
	}
	return c
}

func (c *DatabaseCache) Insert(hash chainhash.Hash, block *types.Block) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if rawdb.HasBlock(c.db, hash) {
		return false
	}
	data := block.Bytes()
	rawdb.WriteBlockData(c.db, hash, data)
	c.payloadCache.SetBig(hash[:], data)
	c.blockCache.Add(hash, block)
	c.count++
	return true
}

func (c *DatabaseCache) Remove(hash chainhash.Hash) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.blockCache.Remove(hash)
	c.payloadCache.Del(hash[:])
	if !rawdb.HasBlock(c.db, hash) {
		return false
	}
	rawdb.DeleteBlock(c.db, hash)
	c.count--
	return true
}

func (c *DatabaseCache) Get(hash chainhash.Hash) *types.Block {
	if block, ok := c.blockCache.Get(hash); ok {
		return block
	}
	c.lock.RLock()
	defer c.lock.RUnlock()

	data := c.payloadCache.GetBig(nil, hash[:])
	if len(data) == 0 {
		if data = rawdb.ReadBlockData(c.db, hash); data == nil {
			return nil
		}
		c.payloadCache.SetBig(hash[:], data)
	}
	block, err := types.DecodeBlock(data, c.config)
	if err != nil {
		c.logger.WithFields(log.Fields{
			"hash": hash,
			"err":  err,
		}).Error("Invalid cached block encoding")
		return nil
	}
	c.blockCache.Add(hash, block)
	return block
}

func (c *DatabaseCache) IsEmpty() bool { return c.Len() == 0 }

func (c *DatabaseCache) Len() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.count
}

func (c *DatabaseCache) Config() *params.ChainConfig { return c.config }

// Hashes returns the hashes of every stored block, in key order.
func (c *DatabaseCache) Hashes() []chainhash.Hash {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return rawdb.ReadAllBlockHashes(c.db)
}

// Reset drops the in-memory caches. Stored payloads are untouched.
func (c *DatabaseCache) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.blockCache.Purge()
	c.payloadCache.Reset()
}
