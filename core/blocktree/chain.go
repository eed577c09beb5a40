package blocktree

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockChain is a non-empty sequence of blocks, each one the parent of the
// next.
type BlockChain struct {
	first      *CachedBlock
	successors []*CachedBlock
}

// NewBlockChain returns a chain holding only first.
func NewBlockChain(first *CachedBlock) *BlockChain {
	return &BlockChain{first: first}
}

// NewBlockChainWithSuccessors returns the chain first, successors...
func NewBlockChainWithSuccessors(first *CachedBlock, successors []*CachedBlock) *BlockChain {
	return &BlockChain{first: first, successors: successors}
}

// Push appends block to the end of the chain.
func (c *BlockChain) Push(block *CachedBlock) {
	c.successors = append(c.successors, block)
}

// Len returns the number of blocks in the chain.
func (c *BlockChain) Len() int {
	return 1 + len(c.successors)
}

func (c *BlockChain) First() *CachedBlock { return c.first }

// Tip returns the last block of the chain.
func (c *BlockChain) Tip() *CachedBlock {
	if len(c.successors) == 0 {
		return c.first
	}
	return c.successors[len(c.successors)-1]
}

// Blocks returns the blocks of the chain in order. The slice is owned by the
// caller.
func (c *BlockChain) Blocks() []*CachedBlock {
	blocks := make([]*CachedBlock, 0, c.Len())
	blocks = append(blocks, c.first)
	return append(blocks, c.successors...)
}

// Hashes returns the block hashes of the chain in order.
func (c *BlockChain) Hashes() []chainhash.Hash {
	hashes := make([]chainhash.Hash, 0, c.Len())
	hashes = append(hashes, c.first.Hash())
	for _, block := range c.successors {
		hashes = append(hashes, block.Hash())
	}
	return hashes
}

// CommonPrefix returns the longest chain that starts every given chain, or
// nil when chains is empty or the chains start at different blocks.
func CommonPrefix(chains []*BlockChain) *BlockChain {
	if len(chains) == 0 {
		return nil
	}
	first := chains[0].first
	for _, chain := range chains[1:] {
		if chain.first.Hash() != first.Hash() {
			return nil
		}
	}
	prefix := NewBlockChain(first)
	for i := 0; ; i++ {
		if i >= len(chains[0].successors) {
			return prefix
		}
		next := chains[0].successors[i]
		for _, chain := range chains[1:] {
			if i >= len(chain.successors) || chain.successors[i].Hash() != next.Hash() {
				return prefix
			}
		}
		prefix.Push(next)
	}
}
