package blocktree

import (
	"github.com/holiman/uint256"
)

// Depth is the length of a chain in blocks.
type Depth uint64

// SaturatingSub returns d - other, or zero when other is larger.
func (d Depth) SaturatingSub(other Depth) Depth {
	if other > d {
		return 0
	}
	return d - other
}

// DifficultyBasedDepth is the accumulated difficulty of a chain. The zero
// value is an empty chain.
type DifficultyBasedDepth struct {
	v uint256.Int
}

// NewDifficultyBasedDepth returns the depth of a chain with accumulated
// difficulty d.
func NewDifficultyBasedDepth(d *uint256.Int) DifficultyBasedDepth {
	var depth DifficultyBasedDepth
	depth.v.Set(d)
	return depth
}

// DepthFromBlocks returns the difficulty based depth of n blocks of
// difficulty one.
func DepthFromBlocks(n Depth) DifficultyBasedDepth {
	var depth DifficultyBasedDepth
	depth.v.SetUint64(uint64(n))
	return depth
}

// Add returns d + other. Overflowing 256 bits panics.
func (d DifficultyBasedDepth) Add(other DifficultyBasedDepth) DifficultyBasedDepth {
	var sum DifficultyBasedDepth
	if _, overflow := sum.v.AddOverflow(&d.v, &other.v); overflow {
		panic("difficulty based depth overflows 256 bits")
	}
	return sum
}

// SaturatingSub returns d - other, or zero when other is larger.
func (d DifficultyBasedDepth) SaturatingSub(other DifficultyBasedDepth) DifficultyBasedDepth {
	var diff DifficultyBasedDepth
	if d.v.Lt(&other.v) {
		return diff
	}
	diff.v.Sub(&d.v, &other.v)
	return diff
}

// Mul returns d scaled by n. Overflowing 256 bits panics.
func (d DifficultyBasedDepth) Mul(n uint64) DifficultyBasedDepth {
	var product DifficultyBasedDepth
	if _, overflow := product.v.MulOverflow(&d.v, uint256.NewInt(n)); overflow {
		panic("difficulty based depth overflows 256 bits")
	}
	return product
}

// Cmp compares d and other and returns -1, 0 or +1.
func (d DifficultyBasedDepth) Cmp(other DifficultyBasedDepth) int {
	return d.v.Cmp(&other.v)
}

func (d DifficultyBasedDepth) IsZero() bool { return d.v.IsZero() }

// Uint256 returns a copy of the accumulated difficulty.
func (d DifficultyBasedDepth) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&d.v)
}

func (d DifficultyBasedDepth) String() string { return d.v.Dec() }

func maxDepth(a, b DifficultyBasedDepth) DifficultyBasedDepth {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}
