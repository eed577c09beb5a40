// Copyright 2016 The go-ethereum Authors
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

package params

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
)

// Family selects the retargeting algorithm and wire encoding of a network.
type Family uint8

const (
	BitcoinFamily Family = iota
	DogecoinFamily
)

func (f Family) String() string {
	switch f {
	case BitcoinFamily:
		return "bitcoin"
	case DogecoinFamily:
		return "dogecoin"
	default:
		return "unknown"
	}
}

// PowAlgo is the hash function a header's proof of work is checked with.
type PowAlgo uint8

const (
	PowSHA256d PowAlgo = iota
	PowScrypt
)

// Different network names
const (
	BitcoinMainnetName  = "bitcoin"
	BitcoinTestnetName  = "testnet"
	BitcoinTestnet4Name = "testnet4"
	BitcoinRegtestName  = "regtest"
	BitcoinSignetName   = "signet"
	DogecoinMainnetName = "dogecoin"
	DogecoinTestnetName = "dogecoin-testnet"
	DogecoinRegtestName = "dogecoin-regtest"
)

// neverActive marks a height based rule that does not apply on a network.
const neverActive = math.MaxUint32

// DogecoinChainID is the merged mining chain id of every Dogecoin network.
const DogecoinChainID int32 = 0x0062

// ChainConfig holds the consensus parameters one network validates headers
// with. A single header validation algorithm per Family consumes it.
type ChainConfig struct {
	Name   string
	Family Family
	Pow    PowAlgo

	PowLimit     *big.Int
	PowLimitBits uint32

	// Seconds between blocks and per retarget window before Digishield.
	TargetSpacing  int64
	TargetTimespan int64

	// ReduceMinDifficulty allows a block at the pow limit when it arrives more
	// than twice the target spacing after its parent.
	ReduceMinDifficulty bool
	NoRetargeting       bool
	// EnforceBlockStormFix scales the retarget from the window's first block
	// instead of the last one (BIP94).
	EnforceBlockStormFix bool
	SkipTimestampChecks  bool

	// Dogecoin only. Heights are the height of the validated block, except
	// DigishieldMinDiffHeight which is the first parent height at which
	// minimum difficulty blocks are also allowed under Digishield.
	DigishieldHeight          uint32
	DigishieldTimespan        int64
	DigishieldMinDiffHeight   uint32
	MinDifficultyPausedFrom   uint32
	MinDifficultyResumeHeight uint32
	AuxPowHeight              uint32
	AuxPowChainID             int32
	StrictChainID             bool
	BIP34Height               uint32
	BIP65Height               uint32
	BIP66Height               uint32

	Genesis wire.BlockHeader
}

var (
	BitcoinMainnetChainConfig  = bitcoinConfig(BitcoinMainnetName, &chaincfg.MainNetParams)
	BitcoinTestnetChainConfig  = bitcoinConfig(BitcoinTestnetName, &chaincfg.TestNet3Params)
	BitcoinRegtestChainConfig  = bitcoinConfig(BitcoinRegtestName, &chaincfg.RegressionNetParams)
	BitcoinSignetChainConfig   = bitcoinConfig(BitcoinSignetName, &chaincfg.SigNetParams)
	BitcoinTestnet4ChainConfig = func() *ChainConfig {
		cfg := bitcoinConfig(BitcoinTestnet4Name, &chaincfg.TestNet3Params)
		cfg.EnforceBlockStormFix = true
		cfg.SkipTimestampChecks = true
		cfg.Genesis = wire.BlockHeader{
			Version:    1,
			MerkleRoot: mustHash("7aa0a7ae1e223414cb807e40cd57e667b718e42aaf9306db9102fe28912b7b4e"),
			Timestamp:  time.Unix(1714777860, 0),
			Bits:       0x1d00ffff,
			Nonce:      393743547,
		}
		return cfg
	}()

	DogecoinMainnetChainConfig = &ChainConfig{
		Name:                      DogecoinMainnetName,
		Family:                    DogecoinFamily,
		Pow:                       PowScrypt,
		PowLimit:                  blockchain.CompactToBig(0x1e0fffff),
		PowLimitBits:              0x1e0fffff,
		TargetSpacing:             60,
		TargetTimespan:            4 * 60 * 60,
		DigishieldHeight:          145000,
		DigishieldTimespan:        60,
		DigishieldMinDiffHeight:   neverActive,
		MinDifficultyPausedFrom:   neverActive,
		MinDifficultyResumeHeight: neverActive,
		AuxPowHeight:              371337,
		AuxPowChainID:             DogecoinChainID,
		StrictChainID:             true,
		BIP34Height:               1034383,
		BIP65Height:               3464751,
		BIP66Height:               1034383,
		Genesis:                   dogecoinGenesis(1386325540, 0x1e0ffff0, 99943),
	}

	DogecoinTestnetChainConfig = &ChainConfig{
		Name:                      DogecoinTestnetName,
		Family:                    DogecoinFamily,
		Pow:                       PowScrypt,
		PowLimit:                  blockchain.CompactToBig(0x1e0fffff),
		PowLimitBits:              0x1e0fffff,
		TargetSpacing:             60,
		TargetTimespan:            4 * 60 * 60,
		ReduceMinDifficulty:       true,
		DigishieldHeight:          145000,
		DigishieldTimespan:        60,
		DigishieldMinDiffHeight:   157500,
		MinDifficultyPausedFrom:   145000,
		MinDifficultyResumeHeight: 157500,
		AuxPowHeight:              158100,
		AuxPowChainID:             DogecoinChainID,
		StrictChainID:             false,
		BIP34Height:               708658,
		BIP65Height:               1854705,
		BIP66Height:               708658,
		Genesis:                   dogecoinGenesis(1391503289, 0x1e0ffff0, 997879),
	}

	DogecoinRegtestChainConfig = &ChainConfig{
		Name:                      DogecoinRegtestName,
		Family:                    DogecoinFamily,
		Pow:                       PowScrypt,
		PowLimit:                  blockchain.CompactToBig(0x207fffff),
		PowLimitBits:              0x207fffff,
		TargetSpacing:             1,
		TargetTimespan:            4 * 60 * 60,
		ReduceMinDifficulty:       true,
		NoRetargeting:             true,
		DigishieldHeight:          10,
		DigishieldTimespan:        1,
		DigishieldMinDiffHeight:   neverActive,
		MinDifficultyPausedFrom:   neverActive,
		MinDifficultyResumeHeight: neverActive,
		AuxPowHeight:              20,
		AuxPowChainID:             DogecoinChainID,
		StrictChainID:             true,
		BIP34Height:               100000000,
		BIP65Height:               1351,
		BIP66Height:               1251,
		Genesis:                   dogecoinGenesis(1296688602, 0x207fffff, 2),
	}

	chainConfigs = map[string]*ChainConfig{
		BitcoinMainnetName:  BitcoinMainnetChainConfig,
		BitcoinTestnetName:  BitcoinTestnetChainConfig,
		BitcoinTestnet4Name: BitcoinTestnet4ChainConfig,
		BitcoinRegtestName:  BitcoinRegtestChainConfig,
		BitcoinSignetName:   BitcoinSignetChainConfig,
		DogecoinMainnetName: DogecoinMainnetChainConfig,
		DogecoinTestnetName: DogecoinTestnetChainConfig,
		DogecoinRegtestName: DogecoinRegtestChainConfig,
	}
)

func bitcoinConfig(name string, p *chaincfg.Params) *ChainConfig {
	return &ChainConfig{
		Name:                name,
		Family:              BitcoinFamily,
		Pow:                 PowSHA256d,
		PowLimit:            p.PowLimit,
		PowLimitBits:        p.PowLimitBits,
		TargetSpacing:       int64(p.TargetTimePerBlock / time.Second),
		TargetTimespan:      int64(p.TargetTimespan / time.Second),
		ReduceMinDifficulty: p.ReduceMinDifficulty,
		NoRetargeting:       p.PoWNoRetargeting,
		AuxPowHeight:        neverActive,
		BIP34Height:         neverActive,
		BIP65Height:         neverActive,
		BIP66Height:         neverActive,
		Genesis:             p.GenesisBlock.Header,
	}
}

func dogecoinGenesis(timestamp int64, bits, nonce uint32) wire.BlockHeader {
	return wire.BlockHeader{
		Version:    1,
		MerkleRoot: mustHash("5b2a3f53f605d62c53e62932dac6925e3d74afa5a4b459745c36d42d0ed26a69"),
		Timestamp:  time.Unix(timestamp, 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

func mustHash(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return *h
}

// ChainConfigByName returns the configuration of a known network.
func ChainConfigByName(name string) (*ChainConfig, error) {
	cfg, ok := chainConfigs[name]
	if !ok {
		return nil, fmt.Errorf("unknown network %q, expected one of %v", name, NetworkNames())
	}
	return cfg, nil
}

// NetworkNames lists the known networks in lexical order.
func NetworkNames() []string {
	names := make([]string, 0, len(chainConfigs))
	for name := range chainConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenesisHash returns the identity hash of the network's genesis header.
func (c *ChainConfig) GenesisHash() chainhash.Hash {
	return c.Genesis.BlockHash()
}

// AuxPowEnabled reports whether blocks on this network may carry merged
// mining proofs on the wire.
func (c *ChainConfig) AuxPowEnabled() bool {
	return c.Family == DogecoinFamily
}

// IsDigishield reports whether the Digishield retarget parameters apply at height.
func (c *ChainConfig) IsDigishield(height uint32) bool {
	return c.DigishieldTimespan > 0 && height >= c.DigishieldHeight
}

// TargetTimespanAt returns the retarget window duration in seconds at height.
func (c *ChainConfig) TargetTimespanAt(height uint32) int64 {
	if c.IsDigishield(height) {
		return c.DigishieldTimespan
	}
	return c.TargetTimespan
}

// DifficultyAdjustmentInterval returns the number of blocks per retarget
// window under the parameters active at height.
func (c *ChainConfig) DifficultyAdjustmentInterval(height uint32) uint32 {
	return uint32(c.TargetTimespanAt(height) / c.TargetSpacing)
}

// AllowMinDifficultyBlocks reports whether the minimum difficulty rule is
// active for a block at height.
func (c *ChainConfig) AllowMinDifficultyBlocks(height uint32) bool {
	if !c.ReduceMinDifficulty {
		return false
	}
	return height < c.MinDifficultyPausedFrom || height >= c.MinDifficultyResumeHeight
}

// AllowDigishieldMinDifficulty reports whether a block extending a parent at
// prevHeight may use the pow limit under Digishield.
func (c *ChainConfig) AllowDigishieldMinDifficulty(prevHeight uint32) bool {
	return c.AllowMinDifficultyBlocks(prevHeight+1) && prevHeight >= c.DigishieldMinDiffHeight
}

// AllowLegacyBlocks reports whether blocks without merged mining support are
// accepted at height.
func (c *ChainConfig) AllowLegacyBlocks(height uint32) bool {
	return height < c.AuxPowHeight
}

// DifficultyBasedStability reports whether the stability of unstable blocks
// is measured in accumulated difficulty. Networks without retargeting count
// blocks instead.
func (c *ChainConfig) DifficultyBasedStability() bool {
	return !c.NoRetargeting
}

// BlockDifficulty returns the difficulty of bits relative to the network's
// easiest target. A zero or negative target has zero difficulty.
func (c *ChainConfig) BlockDifficulty(bits uint32) *uint256.Int {
	target := blockchain.CompactToBig(bits)
	if target.Sign() <= 0 {
		return new(uint256.Int)
	}
	maxTarget := blockchain.CompactToBig(c.PowLimitBits)
	d, overflow := uint256.FromBig(new(big.Int).Quo(maxTarget, target))
	if overflow {
		panic("block difficulty overflows 256 bits")
	}
	return d
}

// String implements the fmt.Stringer interface.
func (c *ChainConfig) String() string {
	return fmt.Sprintf("{Name: %v, Family: %v, PowLimitBits: %#x, Genesis: %v}",
		c.Name,
		c.Family,
		c.PowLimitBits,
		c.GenesisHash(),
	)
}
