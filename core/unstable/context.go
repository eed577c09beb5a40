package unstable

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/dominant-strategies/go-blocktree/consensus"
)

// ValidationContext is the chain a new block extends: the stable headers up
// to the anchor followed by the unstable blocks from the anchor to the block's
// parent.
//
// ValidationContext implements consensus.HeaderStore.
type ValidationContext struct {
	stable       consensus.HeaderStore
	anchorHeight uint32
	chain        []*wire.BlockHeader // anchor first
	heights      map[chainhash.Hash]uint32
}

// ValidationContext builds the context for a block whose parent is prev. The
// stable store must end at the anchor.
func (b *Blocks) ValidationContext(stable consensus.HeaderStore, prev chainhash.Hash) (*ValidationContext, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if stable.Height() != b.anchorHeight {
		return nil, fmt.Errorf("stable chain at height %d, anchor at height %d", stable.Height(), b.anchorHeight)
	}
	chain, _, ok := b.tree.ChainWithTip(prev)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not an unstable block", consensus.ErrPrevHeaderNotFound, prev)
	}
	blocks := chain.Blocks()
	ctx := &ValidationContext{
		stable:       stable,
		anchorHeight: b.anchorHeight,
		chain:        make([]*wire.BlockHeader, len(blocks)),
		heights:      make(map[chainhash.Hash]uint32, len(blocks)),
	}
	for i, block := range blocks {
		ctx.chain[i] = block.Header().Pure()
		ctx.heights[block.Hash()] = b.anchorHeight + uint32(i)
	}
	return ctx, nil
}

func (c *ValidationContext) GetHeaderByHash(hash chainhash.Hash) *wire.BlockHeader {
	if height, ok := c.heights[hash]; ok {
		return c.chain[height-c.anchorHeight]
	}
	return c.stable.GetHeaderByHash(hash)
}

func (c *ValidationContext) GetHeaderByHeight(height uint32) *wire.BlockHeader {
	if height < c.anchorHeight {
		return c.stable.GetHeaderByHeight(height)
	}
	if i := height - c.anchorHeight; i < uint32(len(c.chain)) {
		return c.chain[i]
	}
	return nil
}

// Height returns the height of the new block's parent.
func (c *ValidationContext) Height() uint32 {
	return c.anchorHeight + uint32(len(c.chain)) - 1
}

func (c *ValidationContext) InitialHash() chainhash.Hash {
	return c.stable.InitialHash()
}
