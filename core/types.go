// Copyright 2015 The go-ethereum Authors
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

package core

import (
	"time"

	"github.com/dominant-strategies/go-blocktree/core/types"
)

// Validator is an interface which defines the standard for block validation.
// Header rules are delegated to the consensus package.
type Validator interface {
	// ValidateBlock validates the header and then the body of a block that
	// extends the validator's header store.
	ValidateBlock(block *types.Block, now time.Time) error

	// ValidateBlockBody validates the block's transactions against its header
	// without looking at any other block.
	ValidateBlockBody(block *types.Block) error
}
