package consensus

import (
	"math/big"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/wire"

	"github.com/dominant-strategies/go-blocktree/params"
)

// NextWorkRequired returns the compact target a header extending prev at
// timestamp must carry. prev is the tip of the validator's store.
func (v *HeaderValidator) NextWorkRequired(prev *wire.BlockHeader, timestamp time.Time) uint32 {
	return v.nextWorkRequired(v.store, prev, timestamp)
}

func (v *HeaderValidator) nextWorkRequired(chain HeaderStore, prev *wire.BlockHeader, timestamp time.Time) uint32 {
	prevHeight := chain.Height()
	switch v.config.Family {
	case params.DogecoinFamily:
		return v.dogecoinNextWork(chain, prev, prevHeight, timestamp.Unix())
	default:
		return v.bitcoinNextWork(chain, prev, prevHeight, timestamp.Unix())
	}
}

// bitcoinNextWork retargets every 2016 blocks over a two week window. Test
// networks fall back to the pow limit after twice the target spacing.
func (v *HeaderValidator) bitcoinNextWork(chain HeaderStore, prev *wire.BlockHeader, prevHeight uint32, timestamp int64) uint32 {
	cfg := v.config
	height := prevHeight + 1
	interval := uint32(cfg.TargetTimespan / cfg.TargetSpacing)

	if height%interval != 0 {
		if !cfg.ReduceMinDifficulty {
			return prev.Bits
		}
		if timestamp > prev.Timestamp.Unix()+2*cfg.TargetSpacing {
			return cfg.PowLimitBits
		}
		return v.lastNonMinDifficulty(chain, prev, prevHeight, interval)
	}
	if cfg.NoRetargeting {
		return prev.Bits
	}

	var anchorHeight uint32
	if height >= interval {
		anchorHeight = height - interval
	}
	anchor := chain.GetHeaderByHeight(anchorHeight)
	if anchor == nil {
		v.logger.WithField("height", anchorHeight).Warn("Retarget anchor missing, keeping previous target")
		return prev.Bits
	}

	base := prev.Bits
	if cfg.EnforceBlockStormFix {
		base = anchor.Bits
	}
	timespan := prev.Timestamp.Unix() - anchor.Timestamp.Unix()
	if timespan < 0 {
		timespan = 0
	}
	timespan = clamp(timespan, cfg.TargetTimespan/4, cfg.TargetTimespan*4)
	return v.retarget(base, timespan, cfg.TargetTimespan)
}

// dogecoinNextWork follows Dogecoin Core: a retarget every block once
// Digishield is active, a signed timespan and a time warp safe anchor.
func (v *HeaderValidator) dogecoinNextWork(chain HeaderStore, prev *wire.BlockHeader, prevHeight uint32, timestamp int64) uint32 {
	cfg := v.config
	height := prevHeight + 1
	late := timestamp > prev.Timestamp.Unix()+2*cfg.TargetSpacing

	if cfg.AllowDigishieldMinDifficulty(prevHeight) && late {
		return cfg.PowLimitBits
	}

	interval := uint32(cfg.TargetTimespan / cfg.TargetSpacing)
	if cfg.IsDigishield(prevHeight) {
		interval = 1
	}
	if height%interval != 0 {
		if cfg.AllowMinDifficultyBlocks(height) {
			if late {
				return cfg.PowLimitBits
			}
			return v.lastNonMinDifficulty(chain, prev, prevHeight, cfg.DifficultyAdjustmentInterval(height))
		}
		return prev.Bits
	}
	if cfg.NoRetargeting {
		return prev.Bits
	}

	var anchorHeight uint32
	if height > interval {
		anchorHeight = height - interval - 1
	}
	anchor := chain.GetHeaderByHeight(anchorHeight)
	if anchor == nil {
		v.logger.WithField("height", anchorHeight).Warn("Retarget anchor missing, keeping previous target")
		return prev.Bits
	}

	target := cfg.TargetTimespanAt(height)
	actual := prev.Timestamp.Unix() - anchor.Timestamp.Unix()
	var modulated int64
	switch {
	case cfg.IsDigishield(height):
		modulated = clamp(target+(actual-target)/8, target-target/4, target+target/2)
	case height > 10000:
		modulated = clamp(actual, target/4, target*4)
	case height > 5000:
		modulated = clamp(actual, target/8, target*4)
	default:
		modulated = clamp(actual, target/16, target*4)
	}
	return v.retarget(prev.Bits, modulated, target)
}

// lastNonMinDifficulty walks back from prev to the last header that was not
// mined at the pow limit, or to the last retarget boundary.
func (v *HeaderValidator) lastNonMinDifficulty(chain HeaderStore, prev *wire.BlockHeader, prevHeight, interval uint32) uint32 {
	limit := v.config.PowLimitBits
	initial := chain.InitialHash()

	header, height := prev, prevHeight
	for {
		if header.Bits != limit || height%interval == 0 {
			return header.Bits
		}
		if header.BlockHash() == initial {
			return limit
		}
		parent := chain.GetHeaderByHash(header.PrevBlock)
		if parent == nil {
			return limit
		}
		header, height = parent, height-1
	}
}

// retarget scales the target in bits by timespan/targetTimespan, capped at
// the network's pow limit.
func (v *HeaderValidator) retarget(bits uint32, timespan, targetTimespan int64) uint32 {
	next := blockchain.CompactToBig(bits)
	next.Mul(next, big.NewInt(timespan))
	next.Quo(next, big.NewInt(targetTimespan))
	if next.Cmp(v.config.PowLimit) > 0 {
		next.Set(v.config.PowLimit)
	}
	return blockchain.BigToCompact(next)
}

func clamp(x, lo, hi int64) int64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
