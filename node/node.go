// Package node wires the storage, the stable header chain and the unstable
// blocks of one network together.
package node

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-blocktree/common/timedcache"
	"github.com/dominant-strategies/go-blocktree/consensus"
	"github.com/dominant-strategies/go-blocktree/core"
	"github.com/dominant-strategies/go-blocktree/core/blockscache"
	"github.com/dominant-strategies/go-blocktree/core/rawdb"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/core/unstable"
	"github.com/dominant-strategies/go-blocktree/ethdb"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

var (
	// ErrNotInitialized is returned when blocks are processed before the node
	// knows its first stable block.
	ErrNotInitialized = errors.New("node has no stable block")

	// ErrAlreadyInitialized is returned by Init on a node that already has a
	// stable chain.
	ErrAlreadyInitialized = errors.New("node already initialized")

	// ErrNodeStopped is returned by operations on a closed node.
	ErrNodeStopped = errors.New("node not started")

	// ErrOrphanBlock is returned for a block whose parent is not known yet.
	// The block is kept and processed again once its parent arrives.
	ErrOrphanBlock = errors.New("orphan block")

	// ErrKnownBlock is returned for a block already in the stable chain.
	ErrKnownBlock = errors.New("block already stable")

	// ErrStaleBlock is returned for a block forking off the stable chain
	// below its head.
	ErrStaleBlock = errors.New("block extends a stale stable header")
)

// Node keeps the blocks of one network: the stable headers in a HeaderChain
// and the unstable blocks in a tree whose payloads live in the database.
type Node struct {
	config      *Config
	chainConfig *params.ChainConfig

	db     ethdb.Database
	cache  *blockscache.DatabaseCache
	hc     *core.HeaderChain
	blocks *unstable.Blocks

	orphans *timedcache.TimedCache[chainhash.Hash, *types.Block]

	lock   sync.Mutex
	closed bool
	logger *log.Logger
}

// New opens the database in conf.DataDir. If the database already holds a
// stable chain, its unstable blocks are restored as well; otherwise the node
// waits for Init.
func New(conf *Config, chainConfig *params.ChainConfig, logger *log.Logger) (*Node, error) {
	if logger == nil {
		logger = log.Global
	}
	if conf.DataDir == "" {
		return nil, errors.New("missing data directory")
	}
	if err := os.MkdirAll(conf.DataDir, 0700); err != nil {
		return nil, errors.Wrap(err, "create data directory")
	}
	db, err := rawdb.Open(rawdb.OpenOptions{
		Type:      conf.DBEngine,
		Directory: conf.ResolvePath(datadirChainData),
		Namespace: "blocktree/db/chaindata/",
		Cache:     conf.DatabaseCache,
		Handles:   conf.DatabaseHandles,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	orphans, err := timedcache.New[chainhash.Hash, *types.Block](max(conf.OrphanPoolSize, 1), conf.OrphanTTL)
	if err != nil {
		db.Close()
		return nil, err
	}
	n := &Node{
		config:      conf,
		chainConfig: chainConfig,
		db:          db,
		cache:       blockscache.NewDatabaseCache(db, chainConfig, conf.PayloadCache, logger),
		orphans:     orphans,
		logger:      logger,
	}
	if err := n.load(); err != nil {
		db.Close()
		return nil, err
	}
	return n, nil
}

// load restores a previously initialized node.
func (n *Node) load() error {
	if rawdb.ReadHeadHeaderHash(n.db) == (chainhash.Hash{}) {
		return nil
	}
	hc, err := core.NewHeaderChain(n.db, n.chainConfig, nil, 0, n.logger)
	if err != nil {
		return err
	}
	encoded := rawdb.ReadBlockTree(n.db)
	if len(encoded) == 0 {
		return errors.Errorf("stable chain at height %d has no unstable blocks", hc.Height())
	}
	blocks, err := unstable.Load(n.cache, encoded, hc.Height(), n.config.StabilityThreshold, n.logger)
	if err != nil {
		return errors.Wrap(err, "restore unstable blocks")
	}
	if anchor := blocks.Anchor().Hash(); anchor != hc.CurrentHeader().Hash() {
		return errors.Errorf("unstable blocks start at %v, stable head is %v", anchor, hc.CurrentHeader().Hash())
	}
	n.hc, n.blocks = hc, blocks
	return nil
}

// Initialized reports whether the node has a stable chain.
func (n *Node) Initialized() bool {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.hc != nil
}

// Init starts the chain at anchor, a block at height taken as stable without
// validation.
func (n *Node) Init(anchor *types.Block, height uint32) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.closed {
		return ErrNodeStopped
	}
	if n.hc != nil {
		return ErrAlreadyInitialized
	}
	hc, err := core.NewHeaderChain(n.db, n.chainConfig, anchor.Header(), height, n.logger)
	if err != nil {
		return err
	}
	n.hc = hc
	n.blocks = unstable.New(n.cache, anchor, height, n.config.StabilityThreshold, n.logger)
	n.persistTree()
	return nil
}

// ProcessResult describes what processing one block changed.
type ProcessResult struct {
	// Adopted holds the orphans accepted along with the block.
	Adopted []*types.Block
	// Stabilized holds the blocks moved to the stable chain, oldest first.
	Stabilized []*types.Block
}

// ProcessBlock validates block against the stable and unstable chains, adds
// it to the unstable blocks and moves every block that became stable to the
// stable chain.
//
// A block whose parent is unknown is kept as an orphan and ErrOrphanBlock is
// returned. Orphans waiting for an accepted block are processed with it.
func (n *Node) ProcessBlock(block *types.Block, now time.Time) (*ProcessResult, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.closed {
		return nil, ErrNodeStopped
	}
	if n.hc == nil {
		return nil, ErrNotInitialized
	}
	if err := n.checkStable(block); err != nil {
		return nil, err
	}
	if err := n.blocks.ValidateAndPush(block, n.hc, now); err != nil {
		if !consensus.IsTerminal(err) {
			n.orphans.Add(block.Hash(), block)
			return nil, fmt.Errorf("%w: %w", ErrOrphanBlock, err)
		}
		return nil, err
	}
	result := &ProcessResult{Adopted: n.adoptOrphans(block.Hash(), now)}

	for {
		anchor := n.blocks.PopStable()
		if anchor == nil {
			break
		}
		if err := n.hc.Append(anchor.Header()); err != nil {
			// The tree and the stable chain no longer agree.
			n.logger.WithField("err", err).Fatal("Failed to store stable header")
		}
		result.Stabilized = append(result.Stabilized, anchor)
	}
	n.persistTree()
	return result, nil
}

// checkStable rejects blocks that are stable already and blocks whose parent
// is a stable header other than the anchor. The unstable blocks cannot tell
// these apart from orphans.
func (n *Node) checkStable(block *types.Block) error {
	hash := block.Hash()
	if number := n.hc.GetBlockNumber(hash); number != nil && n.hc.HasHeader(hash, *number) {
		return ErrKnownBlock
	}
	if parent := n.hc.GetBlockNumber(block.PrevHash()); parent != nil && *parent < n.hc.Height() {
		return ErrStaleBlock
	}
	return nil
}

// adoptOrphans pushes the orphans descending from parent, breadth first, and
// returns the ones accepted.
func (n *Node) adoptOrphans(parent chainhash.Hash, now time.Time) []*types.Block {
	var adopted []*types.Block
	queue := []chainhash.Hash{parent}
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		for _, key := range n.orphans.Keys() {
			orphan, ok := n.orphans.Peek(key)
			if !ok || orphan.PrevHash() != hash {
				continue
			}
			n.orphans.Remove(key)
			if err := n.blocks.ValidateAndPush(orphan, n.hc, now); err != nil {
				n.logger.WithFields(log.Fields{
					"hash": key,
					"err":  err,
				}).Debug("Dropped orphan block")
				continue
			}
			adopted = append(adopted, orphan)
			queue = append(queue, key)
		}
	}
	return adopted
}

// Orphans returns the number of blocks waiting for their parent.
func (n *Node) Orphans() int { return n.orphans.Len() }

func (n *Node) persistTree() {
	rawdb.WriteBlockTree(n.db, n.blocks.Encode())
}

// Blocks returns the unstable blocks, or nil before Init.
func (n *Node) Blocks() *unstable.Blocks {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.blocks
}

// HeaderChain returns the stable chain, or nil before Init.
func (n *Node) HeaderChain() *core.HeaderChain {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.hc
}

// ChainConfig returns the network the node follows.
func (n *Node) ChainConfig() *params.ChainConfig { return n.chainConfig }

// Database returns the node's database.
func (n *Node) Database() ethdb.Database { return n.db }

// Close stores the unstable blocks and closes the database.
func (n *Node) Close() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.closed {
		return ErrNodeStopped
	}
	n.closed = true
	if n.blocks != nil {
		n.persistTree()
	}
	return n.db.Close()
}
