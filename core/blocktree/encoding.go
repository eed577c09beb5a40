package blocktree

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	mapset "github.com/deckarep/golang-set"
	"github.com/holiman/uint256"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dominant-strategies/go-blocktree/core/blockscache"
)

// encodingVersion is bumped whenever the node layout changes.
const encodingVersion = 1

// Field numbers of the encoded tree and of each node.
const (
	treeVersionField protowire.Number = 1
	treeNodeField    protowire.Number = 2

	nodeHashField       protowire.Number = 1
	nodeDifficultyField protowire.Number = 2
	nodeChildrenField   protowire.Number = 3
)

type encodedNode struct {
	hash       chainhash.Hash
	difficulty uint256.Int
	children   uint64
}

// Encode serializes the shape of the tree, its hashes and difficulties. The
// blocks themselves are not included; they are expected to stay in a durable
// cache. Nodes are written in depth-first order without recursion, so trees
// of any depth can be encoded.
func (t *BlockTree) Encode() []byte {
	b := protowire.AppendTag(nil, treeVersionField, protowire.VarintType)
	b = protowire.AppendVarint(b, encodingVersion)

	stack := []*BlockTree{t}
	var node []byte
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node = node[:0]
		node = protowire.AppendTag(node, nodeHashField, protowire.BytesType)
		node = protowire.AppendBytes(node, n.root.hash[:])
		node = protowire.AppendTag(node, nodeDifficultyField, protowire.BytesType)
		node = protowire.AppendBytes(node, n.root.difficulty.Bytes())
		node = protowire.AppendTag(node, nodeChildrenField, protowire.VarintType)
		node = protowire.AppendVarint(node, uint64(len(n.children)))

		b = protowire.AppendTag(b, treeNodeField, protowire.BytesType)
		b = protowire.AppendBytes(b, node)

		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return b
}

// Decode rebuilds a tree produced by Encode on top of cache, which must
// already hold its blocks.
func Decode(data []byte, cache blockscache.BlocksCache) (*BlockTree, error) {
	nodes, err := decodeNodes(data)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no root", ErrInvalidEncoding)
	}

	shared := &sharedCache{cache}
	seen := mapset.NewThreadUnsafeSet()
	build := func(n *encodedNode) (*BlockTree, error) {
		if !seen.Add(n.hash) {
			return nil, fmt.Errorf("%w: duplicate block %v", ErrInvalidEncoding, n.hash)
		}
		return &BlockTree{root: &CachedBlock{cache: shared, difficulty: n.difficulty, hash: n.hash}}, nil
	}

	type pending struct {
		tree      *BlockTree
		remaining uint64
	}
	root, err := build(&nodes[0])
	if err != nil {
		return nil, err
	}
	stack := []pending{{root, nodes[0].children}}
	for i := 1; i < len(nodes); i++ {
		for len(stack) > 0 && stack[len(stack)-1].remaining == 0 {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return nil, fmt.Errorf("%w: %d trailing nodes", ErrInvalidEncoding, len(nodes)-i)
		}
		child, err := build(&nodes[i])
		if err != nil {
			return nil, err
		}
		parent := &stack[len(stack)-1]
		parent.tree.children = append(parent.tree.children, child)
		parent.remaining--
		stack = append(stack, pending{child, nodes[i].children})
	}
	for _, p := range stack {
		if p.remaining != 0 {
			return nil, fmt.Errorf("%w: block %v is missing %d children", ErrInvalidEncoding, p.tree.root.hash, p.remaining)
		}
	}
	return root, nil
}

func decodeNodes(b []byte) ([]encodedNode, error) {
	var (
		nodes   []encodedNode
		version uint64
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == treeVersionField && typ == protowire.VarintType:
			version, n = protowire.ConsumeVarint(b)
		case num == treeNodeField && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				node, err := decodeNode(raw)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, node)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, protowire.ParseError(n))
		}
		b = b[n:]
	}
	if version != encodingVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEncoding, version)
	}
	return nodes, nil
}

func decodeNode(b []byte) (encodedNode, error) {
	var (
		node    encodedNode
		hasHash bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return node, fmt.Errorf("%w: %v", ErrInvalidEncoding, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == nodeHashField && typ == protowire.BytesType:
			var v []byte
			if v, n = protowire.ConsumeBytes(b); n >= 0 {
				if len(v) != chainhash.HashSize {
					return node, fmt.Errorf("%w: hash of %d bytes", ErrInvalidEncoding, len(v))
				}
				copy(node.hash[:], v)
				hasHash = true
			}
		case num == nodeDifficultyField && typ == protowire.BytesType:
			var v []byte
			if v, n = protowire.ConsumeBytes(b); n >= 0 {
				if len(v) > 32 {
					return node, fmt.Errorf("%w: difficulty of %d bytes", ErrInvalidEncoding, len(v))
				}
				node.difficulty.SetBytes(v)
			}
		case num == nodeChildrenField && typ == protowire.VarintType:
			node.children, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return node, fmt.Errorf("%w: %v", ErrInvalidEncoding, protowire.ParseError(n))
		}
		b = b[n:]
	}
	if !hasHash {
		return node, fmt.Errorf("%w: node without hash", ErrInvalidEncoding)
	}
	return node, nil
}
