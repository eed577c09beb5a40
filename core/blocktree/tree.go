// Package blocktree maintains the forest of unstable blocks above the last
// stable block. Tree nodes hold hashes and difficulties; the blocks themselves
// live in a blockscache.BlocksCache shared by every node.
package blocktree

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"

	"github.com/dominant-strategies/go-blocktree/core/blockscache"
	"github.com/dominant-strategies/go-blocktree/core/types"
)

// sharedCache lets every node of a tree see a replaced cache.
type sharedCache struct {
	blockscache.BlocksCache
}

// CachedBlock is a block stored in a tree's cache.
type CachedBlock struct {
	cache      *sharedCache
	difficulty uint256.Int
	hash       chainhash.Hash
}

func newCachedBlock(cache *sharedCache, block *types.Block) *CachedBlock {
	b := &CachedBlock{cache: cache, hash: block.Hash()}
	b.difficulty.Set(cache.Config().BlockDifficulty(block.Header().Bits))
	cache.Insert(b.hash, block)
	return b
}

func (b *CachedBlock) Hash() chainhash.Hash { return b.hash }

// Difficulty returns a copy of the block's difficulty.
func (b *CachedBlock) Difficulty() *uint256.Int {
	return new(uint256.Int).Set(&b.difficulty)
}

// Block fetches the block from the cache. A missing entry means the tree and
// its cache diverged, and panics.
func (b *CachedBlock) Block() *types.Block {
	block := b.cache.Get(b.hash)
	if block == nil {
		panic(fmt.Sprintf("block %v missing from the blocks cache", b.hash))
	}
	return block
}

// Header fetches the block's header from the cache.
func (b *CachedBlock) Header() *types.Header {
	return b.Block().Header()
}

func (b *CachedBlock) String() string { return b.hash.String() }

// BlockTree is a tree of connected blocks. Every child's parent hash is the
// hash of its parent node, and a hash appears at most once.
type BlockTree struct {
	root     *CachedBlock
	children []*BlockTree
}

// New creates a tree holding only root, inserting it into cache.
func New(cache blockscache.BlocksCache, root *types.Block) *BlockTree {
	return newWithSharedCache(&sharedCache{cache}, root)
}

func newWithSharedCache(cache *sharedCache, root *types.Block) *BlockTree {
	return &BlockTree{root: newCachedBlock(cache, root)}
}

// Cache returns the blocks cache shared by the tree.
func (t *BlockTree) Cache() blockscache.BlocksCache {
	return t.root.cache.BlocksCache
}

// ReplaceCache swaps the cache of every node of the tree. The new cache must
// already hold the tree's blocks.
func (t *BlockTree) ReplaceCache(cache blockscache.BlocksCache) {
	t.root.cache.BlocksCache = cache
}

func (t *BlockTree) Root() *CachedBlock { return t.root }

// Children returns the subtrees below the root. The slice must not be
// modified.
func (t *BlockTree) Children() []*BlockTree { return t.children }

// Child returns the subtree at idx.
func (t *BlockTree) Child(idx int) *BlockTree { return t.children[idx] }

// RemoveChild detaches the subtree at idx, moving the last child into its
// place. The subtree's blocks stay cached.
func (t *BlockTree) RemoveChild(idx int) *BlockTree {
	child := t.children[idx]
	last := len(t.children) - 1
	t.children[idx] = t.children[last]
	t.children[last] = nil
	t.children = t.children[:last]
	return child
}

// RemoveFromCache evicts every block of the tree from the cache. A block
// missing from the cache panics.
func (t *BlockTree) RemoveFromCache() {
	stack := []*BlockTree{t}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !node.root.cache.Remove(node.root.hash) {
			panic(fmt.Sprintf("block %v missing from the blocks cache", node.root.hash))
		}
		stack = append(stack, node.children...)
	}
}

// IntoRootAndRemoveFromCache returns the root block and evicts the whole tree
// from the cache. The tree must not be used afterwards.
func (t *BlockTree) IntoRootAndRemoveFromCache() *types.Block {
	block := t.root.Block()
	t.RemoveFromCache()
	return block
}

// BlockWithDepth is a block hash with the length of the longest chain it
// starts.
type BlockWithDepth struct {
	Hash  chainhash.Hash
	Depth uint32
}

// BlocksWithDepthsByHeights groups the tree's blocks by height above the
// root. Within a height, blocks are listed in depth-first order.
func (t *BlockTree) BlocksWithDepthsByHeights() [][]BlockWithDepth {
	byHeight := [][]BlockWithDepth{{}}
	t.blocksWithDepthsByHeights(&byHeight, 0)
	return byHeight
}

func (t *BlockTree) blocksWithDepthsByHeights(byHeight *[][]BlockWithDepth, height int) uint32 {
	var depth uint32
	for _, child := range t.children {
		depth = max(depth, child.blocksWithDepthsByHeights(byHeight, height+1))
	}
	depth++
	for height >= len(*byHeight) {
		*byHeight = append(*byHeight, nil)
	}
	(*byHeight)[height] = append((*byHeight)[height], BlockWithDepth{Hash: t.root.hash, Depth: depth})
	return depth
}

// TipCount returns the number of leaves.
func (t *BlockTree) TipCount() int {
	if len(t.children) == 0 {
		return 1
	}
	count := 0
	for _, child := range t.children {
		count += child.TipCount()
	}
	return count
}

// TipDepths returns, for every leaf, the number of blocks from the root to it.
func (t *BlockTree) TipDepths() []int {
	if len(t.children) == 0 {
		return []int{1}
	}
	var depths []int
	for _, child := range t.children {
		for _, d := range child.TipDepths() {
			depths = append(depths, d+1)
		}
	}
	return depths
}

// Extend adds block to the tree below its parent. Adding a block already in
// the tree is a no-op. A block whose parent is not in the tree is rejected
// with a *NotExtendError and leaves the tree and cache untouched.
func (t *BlockTree) Extend(block *types.Block) error {
	hash := block.Hash()
	if t.Contains(hash) {
		return nil
	}
	parent := t.Find(block.PrevHash())
	if parent == nil {
		return &NotExtendError{Hash: hash}
	}
	parent.children = append(parent.children, newWithSharedCache(t.root.cache, block))
	return nil
}

// Blockchains returns every chain from the root to a leaf.
func (t *BlockTree) Blockchains() []*BlockChain {
	if len(t.children) == 0 {
		return []*BlockChain{NewBlockChain(t.root)}
	}
	var chains []*BlockChain
	for _, child := range t.children {
		for _, chain := range child.Blockchains() {
			chains = append(chains, NewBlockChainWithSuccessors(t.root, chain.Blocks()))
		}
	}
	return chains
}

// ChainWithTip returns the chain from the root to tip along with the blocks
// directly extending tip. ok is false when tip is not in the tree.
func (t *BlockTree) ChainWithTip(tip chainhash.Hash) (chain *BlockChain, successors []*CachedBlock, ok bool) {
	// The search collects the chain tip first.
	reversed, successors, ok := t.chainWithTipReverse(tip)
	if !ok {
		return nil, nil, false
	}
	first := reversed[len(reversed)-1]
	rest := reversed[:len(reversed)-1]
	for i, j := 0, len(rest)-1; i < j; i, j = i+1, j-1 {
		rest[i], rest[j] = rest[j], rest[i]
	}
	return NewBlockChainWithSuccessors(first, rest), successors, true
}

func (t *BlockTree) chainWithTipReverse(tip chainhash.Hash) ([]*CachedBlock, []*CachedBlock, bool) {
	if t.root.hash == tip {
		return []*CachedBlock{t.root}, t.childBlocks(), true
	}
	for _, child := range t.children {
		if chain, successors, ok := child.chainWithTipReverse(tip); ok {
			return append(chain, t.root), successors, true
		}
	}
	return nil, nil, false
}

func (t *BlockTree) childBlocks() []*CachedBlock {
	blocks := make([]*CachedBlock, len(t.children))
	for i, child := range t.children {
		blocks[i] = child.root
	}
	return blocks
}

// DifficultyBasedDepth returns the largest sum of block difficulties from the
// root to a leaf, both included.
func (t *BlockTree) DifficultyBasedDepth() DifficultyBasedDepth {
	var res DifficultyBasedDepth
	for _, child := range t.children {
		res = maxDepth(res, child.DifficultyBasedDepth())
	}
	return res.Add(NewDifficultyBasedDepth(&t.root.difficulty))
}

// Depth returns the number of blocks of the longest chain from the root.
func (t *BlockTree) Depth() Depth {
	var res Depth
	for _, child := range t.children {
		res = max(res, child.Depth())
	}
	return res + 1
}

// Find returns the subtree rooted at hash, or nil.
func (t *BlockTree) Find(hash chainhash.Hash) *BlockTree {
	if t.root.hash == hash {
		return t
	}
	for _, child := range t.children {
		if found := child.Find(hash); found != nil {
			return found
		}
	}
	return nil
}

// Contains reports whether the tree holds a block with the given hash.
func (t *BlockTree) Contains(hash chainhash.Hash) bool {
	return t.Find(hash) != nil
}

// Hashes returns the hashes of every block, root first, in depth-first order.
func (t *BlockTree) Hashes() []chainhash.Hash {
	blocks := t.Blocks()
	hashes := make([]chainhash.Hash, len(blocks))
	for i, block := range blocks {
		hashes[i] = block.hash
	}
	return hashes
}

// BlocksCount returns the number of blocks in the tree.
func (t *BlockTree) BlocksCount() int {
	count := 1
	for _, child := range t.children {
		count += child.BlocksCount()
	}
	return count
}

// Blocks returns every block of the tree in depth-first order.
func (t *BlockTree) Blocks() []*CachedBlock {
	var blocks []*CachedBlock
	t.fillBlocks(&blocks)
	return blocks
}

func (t *BlockTree) fillBlocks(blocks *[]*CachedBlock) {
	*blocks = append(*blocks, t.root)
	for _, child := range t.children {
		child.fillBlocks(blocks)
	}
}
