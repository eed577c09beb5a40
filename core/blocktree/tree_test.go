package blocktree

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dominant-strategies/go-blocktree/core/blockscache"
	"github.com/dominant-strategies/go-blocktree/core/blockscache/mocks"
	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/internal/testutil"
	"github.com/dominant-strategies/go-blocktree/params"
)

var regtest = params.BitcoinRegtestChainConfig

func newTestTree() (*BlockTree, *types.Block) {
	genesis := testutil.GenesisBlock(regtest)
	return New(blockscache.NewMemoryCache(regtest), genesis), genesis
}

func child(parent *types.Block) *types.Block {
	return testutil.ChildBlock(parent.Header().Pure(), regtest.PowLimitBits)
}

// randomTree grows a tree by attaching n blocks below uniformly chosen nodes.
func randomTree(t *testing.T, seed int64, n int) *BlockTree {
	tree, _ := newTestTree()
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		blocks := tree.Blocks()
		parent := blocks[rng.Intn(len(blocks))].Block()
		require.NoError(t, tree.Extend(child(parent)))
	}
	return tree
}

// checkTree asserts parent linkage, hash uniqueness and that the cache holds
// exactly the tree's blocks.
func checkTree(t *testing.T, tree *BlockTree) {
	t.Helper()
	seen := make(map[chainhash.Hash]struct{})
	stack := []*BlockTree{tree}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		_, dup := seen[node.Root().Hash()]
		require.False(t, dup, "duplicate block %v", node.Root().Hash())
		seen[node.Root().Hash()] = struct{}{}
		for _, c := range node.Children() {
			require.Equal(t, node.Root().Hash(), c.Root().Header().PrevBlock)
			stack = append(stack, c)
		}
	}
	require.Equal(t, uint64(len(seen)), tree.Cache().Len())
	require.Equal(t, len(seen), tree.BlocksCount())
}

func TestTreeSingleBlock(t *testing.T) {
	tree, genesis := newTestTree()

	chains := tree.Blockchains()
	require.Len(t, chains, 1)
	require.Equal(t, []chainhash.Hash{genesis.Hash()}, chains[0].Hashes())

	chain, successors, ok := tree.ChainWithTip(genesis.Hash())
	require.True(t, ok)
	require.Equal(t, 1, chain.Len())
	require.Equal(t, genesis.Hash(), chain.Tip().Hash())
	require.Empty(t, successors)

	require.Equal(t, Depth(1), tree.Depth())
	require.Equal(t, 1, tree.TipCount())
	require.Equal(t, []int{1}, tree.TipDepths())
	checkTree(t, tree)
}

func TestTreeMultipleForks(t *testing.T) {
	tree, genesis := newTestTree()

	var forks []*types.Block
	for i := 1; i < 5; i++ {
		block := child(genesis)
		forks = append(forks, block)
		require.NoError(t, tree.Extend(block))
		require.Len(t, tree.Blockchains(), i)
		require.Equal(t, i, tree.TipCount())
	}

	for i, chain := range tree.Blockchains() {
		require.Equal(t, []chainhash.Hash{genesis.Hash(), forks[i].Hash()}, chain.Hashes())
	}

	_, successors, ok := tree.ChainWithTip(genesis.Hash())
	require.True(t, ok)
	require.Len(t, successors, 4)
	require.Equal(t, Depth(2), tree.Depth())
	checkTree(t, tree)
}

func TestTreeLongestChain(t *testing.T) {
	tree, genesis := newTestTree()

	// A chain of 10 blocks and a fork of 3 blocks from the fourth one.
	main := testutil.BlockChain(genesis, 10, regtest.PowLimitBits)
	fork := testutil.BlockChain(main[3], 3, regtest.PowLimitBits)
	for _, block := range append(main, fork...) {
		require.NoError(t, tree.Extend(block))
	}

	require.Equal(t, Depth(11), tree.Depth())
	require.Equal(t, 2, tree.TipCount())
	require.ElementsMatch(t, []int{11, 8}, tree.TipDepths())

	chain, successors, ok := tree.ChainWithTip(fork[2].Hash())
	require.True(t, ok)
	require.Empty(t, successors)
	want := []chainhash.Hash{genesis.Hash()}
	for _, block := range main[:4] {
		want = append(want, block.Hash())
	}
	for _, block := range fork {
		want = append(want, block.Hash())
	}
	require.Equal(t, want, chain.Hashes())

	chain, successors, ok = tree.ChainWithTip(main[3].Hash())
	require.True(t, ok)
	require.Equal(t, 5, chain.Len())
	require.Len(t, successors, 2)

	_, _, ok = tree.ChainWithTip(chainhash.Hash{0x01})
	require.False(t, ok)

	prefix := CommonPrefix(tree.Blockchains())
	require.Equal(t, 5, prefix.Len())
	require.Equal(t, main[3].Hash(), prefix.Tip().Hash())
	checkTree(t, tree)
}

func TestTreeExtendRejectsDetachedBlock(t *testing.T) {
	tree, genesis := newTestTree()
	blocks := testutil.BlockChain(genesis, 2, regtest.PowLimitBits)

	err := tree.Extend(blocks[1])
	require.ErrorIs(t, err, ErrBlockDoesNotExtendTree)
	var notExtend *NotExtendError
	require.True(t, errors.As(err, &notExtend))
	require.Equal(t, blocks[1].Hash(), notExtend.Hash)
	require.Equal(t, uint64(1), tree.Cache().Len())

	require.NoError(t, tree.Extend(blocks[0]))
	require.NoError(t, tree.Extend(blocks[1]))
	// Extending with a known block changes nothing.
	require.NoError(t, tree.Extend(blocks[1]))
	require.Equal(t, 3, tree.BlocksCount())
	checkTree(t, tree)
}

func TestTreeCacheContract(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockBlocksCache(ctrl)
	genesis := testutil.GenesisBlock(regtest)
	block := child(genesis)

	cache.EXPECT().Config().Return(regtest).AnyTimes()
	gomock.InOrder(
		cache.EXPECT().Insert(genesis.Hash(), genesis).Return(true),
		cache.EXPECT().Insert(block.Hash(), block).Return(true),
		cache.EXPECT().Get(genesis.Hash()).Return(genesis),
		cache.EXPECT().Remove(genesis.Hash()).Return(true),
		cache.EXPECT().Remove(block.Hash()).Return(true),
	)

	tree := New(cache, genesis)
	// A detached block must not reach the cache.
	require.Error(t, tree.Extend(child(block)))
	require.NoError(t, tree.Extend(block))
	require.Equal(t, genesis, tree.IntoRootAndRemoveFromCache())
}

func TestTreeRemoveFromCachePanicsOnMissingBlock(t *testing.T) {
	tree, genesis := newTestTree()
	block := child(genesis)
	require.NoError(t, tree.Extend(block))

	tree.Cache().Remove(block.Hash())
	require.Panics(t, func() { tree.RemoveFromCache() })
	require.Panics(t, func() { tree.Child(0).Root().Block() })
}

func TestTreeRemoveChild(t *testing.T) {
	tree, genesis := newTestTree()
	var forks []*types.Block
	for i := 0; i < 4; i++ {
		forks = append(forks, child(genesis))
		require.NoError(t, tree.Extend(forks[i]))
	}

	removed := tree.RemoveChild(1)
	require.Equal(t, forks[1].Hash(), removed.Root().Hash())
	// The last child takes the removed one's place.
	require.Equal(t, forks[3].Hash(), tree.Child(1).Root().Hash())
	require.Len(t, tree.Children(), 3)

	// Detached subtrees keep their blocks cached until released.
	require.Equal(t, uint64(5), tree.Cache().Len())
	removed.RemoveFromCache()
	require.Equal(t, uint64(4), tree.Cache().Len())
	checkTree(t, tree)
}

func TestBlocksWithDepthsByHeights(t *testing.T) {
	tree, genesis := newTestTree()
	main := testutil.BlockChain(genesis, 3, regtest.PowLimitBits)
	fork := child(main[0])
	for _, block := range append(main, fork) {
		require.NoError(t, tree.Extend(block))
	}

	require.Equal(t, [][]BlockWithDepth{
		{{genesis.Hash(), 4}},
		{{main[0].Hash(), 3}},
		{{main[1].Hash(), 2}, {fork.Hash(), 1}},
		{{main[2].Hash(), 1}},
	}, tree.BlocksWithDepthsByHeights())
}

func TestDifficultyBasedDepth(t *testing.T) {
	tree, genesis := newTestTree()
	require.Equal(t, "1", tree.DifficultyBasedDepth().String())

	// Two blocks at difficulty 1 against one block at difficulty 256.
	light := testutil.BlockChain(genesis, 2, regtest.PowLimitBits)
	heavy := testutil.ChildBlock(genesis.Header().Pure(), 0x1f7fffff)
	for _, block := range light {
		require.NoError(t, tree.Extend(block))
	}
	require.Equal(t, "3", tree.DifficultyBasedDepth().String())
	require.NoError(t, tree.Extend(heavy))

	require.Equal(t, Depth(3), tree.Depth())
	require.Equal(t, "257", tree.DifficultyBasedDepth().String())
	require.Equal(t, uint256.NewInt(256), tree.Find(heavy.Hash()).Root().Difficulty())
}

func TestDepthGrowsMonotonically(t *testing.T) {
	tree, _ := newTestTree()
	rng := rand.New(rand.NewSource(7))
	depth, work := tree.Depth(), tree.DifficultyBasedDepth()
	for i := 0; i < 200; i++ {
		blocks := tree.Blocks()
		parent := blocks[rng.Intn(len(blocks))].Header().Pure()
		bits := []uint32{regtest.PowLimitBits, 0x1f7fffff}[rng.Intn(2)]
		require.NoError(t, tree.Extend(testutil.ChildBlock(parent, bits)))

		require.GreaterOrEqual(t, tree.Depth(), depth)
		require.GreaterOrEqual(t, tree.DifficultyBasedDepth().Cmp(work), 0)
		depth, work = tree.Depth(), tree.DifficultyBasedDepth()
	}
	checkTree(t, tree)
	require.Equal(t, 201, len(tree.Hashes()))
	require.Equal(t, tree.TipCount(), len(tree.Blockchains()))
}

func TestDepthArithmetic(t *testing.T) {
	require.Equal(t, Depth(0), Depth(3).SaturatingSub(5))
	require.Equal(t, Depth(2), Depth(5).SaturatingSub(3))

	a := NewDifficultyBasedDepth(uint256.NewInt(10))
	b := DepthFromBlocks(4)
	require.Equal(t, "14", a.Add(b).String())
	require.Equal(t, "6", a.SaturatingSub(b).String())
	require.True(t, b.SaturatingSub(a).IsZero())
	require.Equal(t, "40", a.Mul(4).String())
	require.Equal(t, 1, a.Cmp(b))

	full := NewDifficultyBasedDepth(new(uint256.Int).SetAllOne())
	require.Panics(t, func() { full.Add(DepthFromBlocks(1)) })

	// Depths beyond 128 bits are representable.
	wide := NewDifficultyBasedDepth(new(uint256.Int).Lsh(uint256.NewInt(1), 200))
	require.Equal(t, 1, wide.Add(a).Cmp(wide))
}
