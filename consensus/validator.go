package consensus

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/wire"

	"github.com/dominant-strategies/go-blocktree/core/types"
	"github.com/dominant-strategies/go-blocktree/log"
	"github.com/dominant-strategies/go-blocktree/params"
)

const (
	// maxFutureBlockTime is how far ahead of the current time a header's
	// timestamp may be.
	maxFutureBlockTime = 2 * time.Hour

	// medianTimeBlocks is the number of ancestors whose median timestamp a
	// header must exceed.
	medianTimeBlocks = 11
)

// HeaderValidator checks headers against the consensus rules of one network,
// using a HeaderStore for the chain they extend.
type HeaderValidator struct {
	config *params.ChainConfig
	store  HeaderStore
	logger *log.Logger
}

// NewHeaderValidator creates a validator for config over store. A nil logger
// selects the global one.
func NewHeaderValidator(config *params.ChainConfig, store HeaderStore, logger *log.Logger) *HeaderValidator {
	if logger == nil {
		logger = log.Global
	}
	return &HeaderValidator{config: config, store: store, logger: logger}
}

// Config returns the network parameters the validator checks against.
func (v *HeaderValidator) Config() *params.ChainConfig { return v.config }

// Store returns the header store the validator reads ancestors from.
func (v *HeaderValidator) Store() HeaderStore { return v.store }

// ValidateHeader checks whether a header conforms to the consensus rules of
// the network, given that it extends the tip of the store.
func (v *HeaderValidator) ValidateHeader(header *wire.BlockHeader, now time.Time) error {
	return v.validateHeader(v.store, header, now)
}

// ValidateAuxPowHeader checks a header that may carry a merged mining proof.
// Headers without a proof go through ValidateHeader; proofs replace the
// header's own proof of work by the parent block's.
func (v *HeaderValidator) ValidateAuxPowHeader(header *types.Header, now time.Time) error {
	return v.validateAuxPowHeader(v.store, header, now)
}

func (v *HeaderValidator) validateHeader(chain HeaderStore, header *wire.BlockHeader, now time.Time) error {
	prev, err := v.contextualCheck(chain, header, now)
	if err != nil {
		return err
	}
	target := blockchain.CompactToBig(header.Bits)
	hash := types.PowHash(header, v.config.Pow)
	if !types.MeetsTarget(hash, target) {
		return ErrInvalidPoWForHeaderTarget
	}

	bits := v.nextWorkRequired(chain, prev, header.Timestamp)
	if bits != header.Bits || !types.MeetsTarget(hash, blockchain.CompactToBig(bits)) {
		v.logger.WithFields(log.Fields{
			"hash":     header.BlockHash(),
			"bits":     fmt.Sprintf("%#08x", header.Bits),
			"expected": fmt.Sprintf("%#08x", bits),
		}).Debug("Header bits differ from computed target")
		return ErrInvalidPoWForComputedTarget
	}
	return nil
}

func (v *HeaderValidator) validateAuxPowHeader(chain HeaderStore, header *types.Header, now time.Time) error {
	if !header.IsLegacy() && v.config.StrictChainID && header.ChainID() != v.config.AuxPowChainID {
		return ErrInvalidChainID
	}
	if header.AuxPow == nil {
		if types.HasAuxPowBit(header.Version) {
			return ErrInconsistentAuxPowBitSet
		}
		return v.validateHeader(chain, &header.BlockHeader, now)
	}
	if !types.HasAuxPowBit(header.Version) {
		return ErrInconsistentAuxPowBitSet
	}

	prev, err := v.contextualCheck(chain, &header.BlockHeader, now)
	if err != nil {
		return err
	}
	if bits := v.nextWorkRequired(chain, prev, header.Timestamp); bits != header.Bits {
		return ErrInvalidPoWForComputedTarget
	}
	if !types.MeetsTarget(types.ScryptHash(&header.AuxPow.ParentHeader), header.Target()) {
		return ErrInvalidParentPoW
	}
	if err := header.AuxPow.Check(header.Hash(), v.config.AuxPowChainID, v.config.StrictChainID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAuxPoW, err)
	}
	return nil
}

// contextualCheck runs the checks that depend on the header's ancestors but
// not on its proof of work, and returns its parent.
func (v *HeaderValidator) contextualCheck(chain HeaderStore, header *wire.BlockHeader, now time.Time) (*wire.BlockHeader, error) {
	prev := chain.GetHeaderByHash(header.PrevBlock)
	if prev == nil {
		return nil, ErrPrevHeaderNotFound
	}
	if v.config.Family == params.DogecoinFamily {
		if err := v.checkVersion(header.Version, chain.Height()+1); err != nil {
			return nil, err
		}
	}
	if !v.config.SkipTimestampChecks {
		if err := checkTimestamp(chain, header, now); err != nil {
			return nil, err
		}
	}
	if blockchain.CompactToBig(header.Bits).Cmp(v.config.PowLimit) > 0 {
		return nil, ErrTargetDifficultyAboveMax
	}
	return prev, nil
}

// checkVersion enforces merged mining activation and the version bumps of
// BIP66 and BIP65 for a header at height.
func (v *HeaderValidator) checkVersion(version int32, height uint32) error {
	legacyAllowed := v.config.AllowLegacyBlocks(height)
	if !legacyAllowed && types.IsLegacyVersion(version) {
		return ErrLegacyBlockNotAllowed
	}
	if legacyAllowed && types.HasAuxPowBit(version) {
		return ErrAuxPowBlockNotAllowed
	}
	base := types.BaseVersion(version)
	if (base < 3 && height >= v.config.BIP66Height) || (base < 4 && height >= v.config.BIP65Height) {
		return ErrVersionObsolete
	}
	return nil
}

// checkTimestamp rejects headers too far in the future and headers not after
// the median time of their last 11 ancestors.
func checkTimestamp(chain HeaderStore, header *wire.BlockHeader, now time.Time) error {
	blockTime := header.Timestamp.Unix()
	maxAllowed := now.Add(maxFutureBlockTime).Unix()
	if blockTime > maxAllowed {
		return &FutureHeaderError{BlockTime: uint64(blockTime), MaxAllowedTime: uint64(maxAllowed)}
	}
	if median, ok := medianTimePast(chain, header); ok && blockTime <= median {
		return ErrHeaderIsOld
	}
	return nil
}

// medianTimePast returns the median timestamp of up to 11 ancestors of
// header, stopping at the store's initial header.
func medianTimePast(chain HeaderStore, header *wire.BlockHeader) (int64, bool) {
	initial := chain.InitialHash()
	times := make([]int64, 0, medianTimeBlocks)
	current := header
	for i := 0; i < medianTimeBlocks; i++ {
		prev := chain.GetHeaderByHash(current.PrevBlock)
		if prev == nil {
			break
		}
		times = append(times, prev.Timestamp.Unix())
		if current.PrevBlock == initial {
			break
		}
		current = prev
	}
	if len(times) == 0 {
		return 0, false
	}
	slices.Sort(times)
	return times[len(times)/2], true
}

// IsTerminal reports whether err rejects a header for good, as opposed to a
// header whose ancestors are not known yet.
func IsTerminal(err error) bool {
	return err != nil && !errors.Is(err, ErrPrevHeaderNotFound)
}
