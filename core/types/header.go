// Copyright 2014 The go-ethereum Authors
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

// Package types contains the block, header and merged mining data types of
// Bitcoin family chains.
package types

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/crypto/scrypt"

	"github.com/dominant-strategies/go-blocktree/params"
)

// HeaderSize is the size of a serialized header without merged mining data.
const HeaderSize = 80

const (
	// VersionAuxPow is the version bit announcing a merged mining proof.
	VersionAuxPow int32 = 1 << 8
	// VersionChainStart is the first version bit holding the chain id.
	VersionChainStart = 16
)

// ChainID returns the merged mining chain id embedded in a header version.
func ChainID(version int32) int32 {
	return version >> VersionChainStart
}

// BaseVersion returns a header version with the chain id and flags removed.
func BaseVersion(version int32) int32 {
	return version & 0xff
}

// HasAuxPowBit reports whether the version announces a merged mining proof.
func HasAuxPowBit(version int32) bool {
	return version&VersionAuxPow != 0
}

// IsLegacyVersion reports whether a version predates merged mining.
func IsLegacyVersion(version int32) bool {
	return version == 1 || (version == 2 && ChainID(version) == 0)
}

// Header is a block header optionally followed by a merged mining proof.
type Header struct {
	wire.BlockHeader
	AuxPow *AuxPow
}

// NewHeader wraps a plain header.
func NewHeader(h *wire.BlockHeader) *Header {
	return &Header{BlockHeader: *h}
}

// Hash returns the identity hash of the header, the double SHA-256 of its
// 80 byte serialization.
func (h *Header) Hash() chainhash.Hash {
	return h.BlockHeader.BlockHash()
}

// Pure returns the header without its merged mining proof.
func (h *Header) Pure() *wire.BlockHeader {
	pure := h.BlockHeader
	return &pure
}

// ChainID returns the merged mining chain id of the header.
func (h *Header) ChainID() int32 { return ChainID(h.Version) }

// IsLegacy reports whether the header predates merged mining.
func (h *Header) IsLegacy() bool { return IsLegacyVersion(h.Version) }

// Target returns the target encoded by the header bits.
func (h *Header) Target() *big.Int { return blockchain.CompactToBig(h.Bits) }

// Serialize writes the header in consensus format followed by its merged
// mining proof, if any.
func (h *Header) Serialize(w io.Writer) error {
	if err := h.BlockHeader.Serialize(w); err != nil {
		return err
	}
	if h.AuxPow != nil {
		return h.AuxPow.Serialize(w)
	}
	return nil
}

// Deserialize reads a header. The merged mining proof is read only when
// auxpow is set and the version bit announces it.
func (h *Header) Deserialize(r io.Reader, auxpow bool) error {
	if err := h.BlockHeader.Deserialize(r); err != nil {
		return err
	}
	h.AuxPow = nil
	if auxpow && HasAuxPowBit(h.Version) {
		h.AuxPow = new(AuxPow)
		if err := h.AuxPow.Deserialize(r); err != nil {
			return fmt.Errorf("auxpow: %w", err)
		}
	}
	return nil
}

// PowHash returns the hash the header's proof of work is checked against.
func PowHash(h *wire.BlockHeader, algo params.PowAlgo) chainhash.Hash {
	if algo == params.PowScrypt {
		return ScryptHash(h)
	}
	return h.BlockHash()
}

// ScryptHash returns the scrypt(N=1024, r=1, p=1) hash of the 80 byte header
// used by Litecoin and Dogecoin proof of work.
func ScryptHash(h *wire.BlockHeader) chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := h.Serialize(&buf); err != nil {
		panic(err)
	}
	data := buf.Bytes()
	sum, err := scrypt.Key(data, data, 1024, 1, 1, chainhash.HashSize)
	if err != nil {
		panic(err)
	}
	var hash chainhash.Hash
	copy(hash[:], sum)
	return hash
}

// MeetsTarget reports whether a hash, read as a little endian number, is at
// most target.
func MeetsTarget(hash chainhash.Hash, target *big.Int) bool {
	return blockchain.HashToBig(&hash).Cmp(target) <= 0
}
