// Package unstable holds the blocks above the last stable block and decides
// when the oldest of them become stable.
package unstable

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/dominant-strategies/go-blocktree/consensus"
	"github.com/dominant-strategies/go-blocktree/core"
	"github.com/dominant-strategies/go-blocktree/core/blockscache"
	"github.com/dominant-strategies/go-blocktree/core/blocktree"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

// Blocks is the tree of unstable blocks rooted at the anchor, the most recent
// stable block. It is safe for concurrent use.
type Blocks struct {
	config *params.ChainConfig
	tree   *blocktree.BlockTree

	anchorHeight       uint32
	stabilityThreshold uint64

	lock   sync.RWMutex
	logger *log.Logger
}

// New creates the unstable blocks above anchor, the stable block at
// anchorHeight. A child of the anchor becomes stable once stabilityThreshold
// blocks, weighted by difficulty on retargeting networks, confirm it against
// every competing fork.
func New(cache blockscache.BlocksCache, anchor *types.Block, anchorHeight uint32, stabilityThreshold uint64, logger *log.Logger) *Blocks {
	return newBlocks(cache.Config(), blocktree.New(cache, anchor), anchorHeight, stabilityThreshold, logger)
}

// Load restores unstable blocks from a tree produced by Encode. The cache
// must hold the tree's blocks.
func Load(cache blockscache.BlocksCache, encoded []byte, anchorHeight uint32, stabilityThreshold uint64, logger *log.Logger) (*Blocks, error) {
	tree, err := blocktree.Decode(encoded, cache)
	if err != nil {
		return nil, err
	}
	return newBlocks(cache.Config(), tree, anchorHeight, stabilityThreshold, logger), nil
}

func newBlocks(config *params.ChainConfig, tree *blocktree.BlockTree, anchorHeight uint32, stabilityThreshold uint64, logger *log.Logger) *Blocks {
	if logger == nil {
		logger = log.Global
	}
	b := &Blocks{
		config:             config,
		tree:               tree,
		anchorHeight:       anchorHeight,
		stabilityThreshold: stabilityThreshold,
		logger:             logger,
	}
	b.reportTree()
	return b
}

// Push adds a block to the tree. The block must extend a block already in
// the tree; pushing a known block does nothing.
func (b *Blocks) Push(block *types.Block) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.tree.Extend(block); err != nil {
		countBlock("rejected")
		return err
	}
	countBlock("pushed")
	b.reportTree()
	return nil
}

// ValidateAndPush validates block against the chain it extends, made of the
// stable headers and the unstable blocks up to its parent, and pushes it.
func (b *Blocks) ValidateAndPush(block *types.Block, stable consensus.HeaderStore, now time.Time) error {
	ctx, err := b.ValidationContext(stable, block.PrevHash())
	if err != nil {
		countBlock("rejected")
		return err
	}
	validator := core.NewBlockValidator(consensus.NewHeaderValidator(b.config, ctx, b.logger), b.logger)
	if err := validator.ValidateBlock(block, now); err != nil {
		countBlock("rejected")
		b.logger.WithFields(log.Fields{
			"hash":   block.Hash(),
			"height": ctx.Height() + 1,
			"err":    err,
		}).Debug("Rejected unstable block")
		return err
	}
	return b.Push(block)
}

// normalizedStabilityThreshold is the stability threshold in the unit of
// stabilityDepth.
func (b *Blocks) normalizedStabilityThreshold() blocktree.DifficultyBasedDepth {
	if b.config.DifficultyBasedStability() {
		return blocktree.NewDifficultyBasedDepth(b.tree.Root().Difficulty()).Mul(b.stabilityThreshold)
	}
	return blocktree.DepthFromBlocks(blocktree.Depth(b.stabilityThreshold))
}

func (b *Blocks) stabilityDepth(tree *blocktree.BlockTree) blocktree.DifficultyBasedDepth {
	if b.config.DifficultyBasedStability() {
		return tree.DifficultyBasedDepth()
	}
	return blocktree.DepthFromBlocks(tree.Depth())
}

// peek returns the index of the anchor's stable child, or -1.
func (b *Blocks) peek() int {
	children := b.tree.Children()
	if len(children) == 0 || b.tree.Depth() <= blocktree.Depth(b.stabilityThreshold) {
		return -1
	}
	type candidate struct {
		idx   int
		depth blocktree.DifficultyBasedDepth
	}
	candidates := make([]candidate, len(children))
	for i, child := range children {
		candidates[i] = candidate{i, b.stabilityDepth(child)}
	}
	slices.SortStableFunc(candidates, func(x, y candidate) int { return x.depth.Cmp(y.depth) })

	threshold := b.normalizedStabilityThreshold()
	deepest := candidates[len(candidates)-1]
	if deepest.depth.Cmp(threshold) < 0 {
		return -1
	}
	if len(candidates) > 1 {
		second := candidates[len(candidates)-2]
		if deepest.depth.SaturatingSub(second.depth).Cmp(threshold) < 0 {
			return -1
		}
	}
	return deepest.idx
}

// PeekStable returns the child of the anchor that is stable, or nil.
func (b *Blocks) PeekStable() *types.Block {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if idx := b.peek(); idx >= 0 {
		return b.tree.Child(idx).Root().Block()
	}
	return nil
}

// PopStable makes the stable child of the anchor the new anchor and returns
// it, or returns nil when no child is stable. The old anchor and every fork
// competing with the new anchor are released from the cache.
func (b *Blocks) PopStable() *types.Block {
	b.lock.Lock()
	defer b.lock.Unlock()

	idx := b.peek()
	if idx < 0 {
		return nil
	}
	old := b.tree
	b.tree = old.RemoveChild(idx)
	released := old.BlocksCount()
	old.IntoRootAndRemoveFromCache()
	b.anchorHeight++

	anchor := b.tree.Root().Block()
	b.logger.WithFields(log.Fields{
		"hash":     anchor.Hash(),
		"height":   b.anchorHeight,
		"released": released,
	}).Info("Block became stable")
	countBlock("stabilized")
	b.reportTree()
	return anchor
}

// MainChain returns the longest chain from the anchor. When several chains
// are longest, it returns their common prefix.
func (b *Blocks) MainChain() *blocktree.BlockChain {
	b.lock.RLock()
	defer b.lock.RUnlock()

	chains := b.tree.Blockchains()
	longest := 0
	for _, chain := range chains {
		longest = max(longest, chain.Len())
	}
	var candidates []*blocktree.BlockChain
	for _, chain := range chains {
		if chain.Len() == longest {
			candidates = append(candidates, chain)
		}
	}
	return blocktree.CommonPrefix(candidates)
}

// Anchor returns the most recent stable block.
func (b *Blocks) Anchor() *types.Block {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.tree.Root().Block()
}

func (b *Blocks) AnchorHeight() uint32 {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.anchorHeight
}

func (b *Blocks) StabilityThreshold() uint64 { return b.stabilityThreshold }

func (b *Blocks) Config() *params.ChainConfig { return b.config }

// Len returns the number of blocks in the tree, anchor included.
func (b *Blocks) Len() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.tree.BlocksCount()
}

// Contains reports whether the tree holds the block.
func (b *Blocks) Contains(hash chainhash.Hash) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.tree.Contains(hash)
}

// Encode serializes the tree, see blocktree.BlockTree.Encode.
func (b *Blocks) Encode() []byte {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.tree.Encode()
}

// Tip describes the last block of one chain of the tree.
type Tip struct {
	Hash   chainhash.Hash
	Height uint32
	// Work is the accumulated difficulty from the anchor to the tip.
	Work blocktree.DifficultyBasedDepth
}

// Tips lists the tip of every chain of the tree.
func (b *Blocks) Tips() []Tip {
	b.lock.RLock()
	defer b.lock.RUnlock()

	chains := b.tree.Blockchains()
	tips := make([]Tip, 0, len(chains))
	for _, chain := range chains {
		var work blocktree.DifficultyBasedDepth
		for _, block := range chain.Blocks() {
			work = work.Add(blocktree.NewDifficultyBasedDepth(block.Difficulty()))
		}
		tips = append(tips, Tip{
			Hash:   chain.Tip().Hash(),
			Height: b.anchorHeight + uint32(chain.Len()) - 1,
			Work:   work,
		})
	}
	return tips
}

func (b *Blocks) String() string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return fmt.Sprintf("{Anchor: %v, AnchorHeight: %d, Blocks: %d, Tips: %d}",
		b.tree.Root().Hash(), b.anchorHeight, b.tree.BlocksCount(), b.tree.TipCount())
}
