// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package consensus

import (
	"errors"
	"fmt"
)

var (
	// ErrPrevHeaderNotFound is returned when the parent of a header is not in
	// the header store. The header may become valid once its ancestors are.
	ErrPrevHeaderNotFound = errors.New("previous header not found")

	// ErrHeaderIsOld is returned when a header's timestamp is not after the
	// median time of its last 11 ancestors.
	ErrHeaderIsOld = errors.New("header timestamp is not after median time past")

	// ErrHeaderIsTooFarInFuture is returned when a header's timestamp is more
	// than two hours ahead of the current time. See FutureHeaderError.
	ErrHeaderIsTooFarInFuture = errors.New("header timestamp is too far in the future")

	// ErrInvalidPoWForHeaderTarget is returned when the header's hash does not
	// meet the target in its own bits.
	ErrInvalidPoWForHeaderTarget = errors.New("invalid proof of work for header target")

	// ErrInvalidPoWForComputedTarget is returned when the header's bits differ
	// from the retargeting result, or its hash does not meet that target.
	ErrInvalidPoWForComputedTarget = errors.New("invalid proof of work for computed target")

	// ErrTargetDifficultyAboveMax is returned when the header's target is
	// easier than the network's pow limit.
	ErrTargetDifficultyAboveMax = errors.New("target is above the network maximum")

	// ErrVersionObsolete is returned for header versions retired by BIP66 or BIP65.
	ErrVersionObsolete = errors.New("header version is obsolete")

	// ErrLegacyBlockNotAllowed is returned for legacy headers after merged
	// mining activation.
	ErrLegacyBlockNotAllowed = errors.New("legacy blocks are not allowed")

	// ErrAuxPowBlockNotAllowed is returned for merged mined headers before
	// merged mining activation.
	ErrAuxPowBlockNotAllowed = errors.New("auxpow blocks are not allowed")
)

// Merged mining errors.
var (
	ErrInvalidChainID           = errors.New("invalid auxpow chain id")
	ErrInconsistentAuxPowBitSet = errors.New("auxpow version bit does not match auxpow data")
	ErrInvalidParentPoW         = errors.New("invalid proof of work in auxpow parent block")
	ErrInvalidAuxPoW            = errors.New("invalid auxpow")
)

// FutureHeaderError carries the times of a header rejected for being too far
// in the future. It matches ErrHeaderIsTooFarInFuture with errors.Is.
type FutureHeaderError struct {
	BlockTime      uint64
	MaxAllowedTime uint64
}

func (e *FutureHeaderError) Error() string {
	return fmt.Sprintf("%v: block time %d, max allowed %d", ErrHeaderIsTooFarInFuture, e.BlockTime, e.MaxAllowedTime)
}

func (e *FutureHeaderError) Unwrap() error { return ErrHeaderIsTooFarInFuture }
