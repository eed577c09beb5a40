package blocktree

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	// ErrBlockDoesNotExtendTree is returned when a block's parent is not in
	// the tree.
	ErrBlockDoesNotExtendTree = errors.New("block does not extend the tree")

	// ErrInvalidEncoding is returned when decoding a malformed tree.
	ErrInvalidEncoding = errors.New("invalid block tree encoding")
)

// NotExtendError carries the hash of a block whose parent is not in the tree.
type NotExtendError struct {
	Hash chainhash.Hash
}

func (e *NotExtendError) Error() string {
	return fmt.Sprintf("block %v does not extend the tree", e.Hash)
}

func (e *NotExtendError) Unwrap() error { return ErrBlockDoesNotExtendTree }
