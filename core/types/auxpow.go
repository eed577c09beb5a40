package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MergedMiningHeader marks the chain merkle root in a parent coinbase.
var MergedMiningHeader = []byte{0xfa, 0xbe, 'm', 'm'}

const (
	// MaxChainMerkleBranch bounds the height of the chain merkle tree.
	MaxChainMerkleBranch = 30
	// maxDecodedBranch bounds merkle branches read from the wire.
	maxDecodedBranch = 256
	// maxRootOffset is how far into the coinbase script a root without
	// marker may start.
	maxRootOffset = 20
)

var (
	ErrAuxPowNotGenerate        = errors.New("auxpow is not a generate")
	ErrAuxPowParentHasAuxPow    = errors.New("auxpow parent block has auxpow version")
	ErrAuxPowParentChainID      = errors.New("auxpow parent has our chain id")
	ErrAuxPowBranchTooLong      = errors.New("auxpow chain merkle branch too long")
	ErrAuxPowMerkleRoot         = errors.New("auxpow merkle root incorrect")
	ErrAuxPowNoCoinbaseInput    = errors.New("auxpow coinbase has no input")
	ErrAuxPowMissingRoot        = errors.New("auxpow missing chain merkle root in parent coinbase")
	ErrAuxPowMultipleHeaders    = errors.New("multiple merged mining headers in coinbase")
	ErrAuxPowHeaderNotBefore    = errors.New("merged mining header is not just before chain merkle root")
	ErrAuxPowRootTooLate        = errors.New("auxpow chain merkle root must start in the first 20 bytes of the parent coinbase")
	ErrAuxPowMissingSizeNonce   = errors.New("auxpow missing chain merkle tree size and nonce in parent coinbase")
	ErrAuxPowBranchSizeMismatch = errors.New("auxpow merkle branch size does not match parent coinbase")
	ErrAuxPowWrongIndex         = errors.New("auxpow wrong index")
)

// AuxPow is a merged mining proof: a parent chain block whose coinbase
// commits to the hash of the block carrying the proof.
type AuxPow struct {
	CoinbaseTx     *wire.MsgTx
	ParentHash     chainhash.Hash
	CoinbaseBranch []chainhash.Hash
	CoinbaseIndex  int32
	ChainBranch    []chainhash.Hash
	ChainIndex     int32
	ParentHeader   wire.BlockHeader
}

// Check verifies that the proof commits to auxHash for the given chain id.
// It does not check the parent block's proof of work.
func (a *AuxPow) Check(auxHash chainhash.Hash, chainID int32, strictChainID bool) error {
	if a.CoinbaseIndex != 0 {
		return ErrAuxPowNotGenerate
	}
	if HasAuxPowBit(a.ParentHeader.Version) {
		return ErrAuxPowParentHasAuxPow
	}
	if strictChainID && ChainID(a.ParentHeader.Version) == chainID {
		return ErrAuxPowParentChainID
	}
	if len(a.ChainBranch) > MaxChainMerkleBranch {
		return ErrAuxPowBranchTooLong
	}

	root := CheckMerkleBranch(auxHash, a.ChainBranch, a.ChainIndex)
	rootBytes := reversed(root[:])

	if CheckMerkleBranch(a.CoinbaseTx.TxHash(), a.CoinbaseBranch, a.CoinbaseIndex) != a.ParentHeader.MerkleRoot {
		return ErrAuxPowMerkleRoot
	}
	if len(a.CoinbaseTx.TxIn) == 0 {
		return ErrAuxPowNoCoinbaseInput
	}
	script := a.CoinbaseTx.TxIn[0].SignatureScript

	head := bytes.Index(script, MergedMiningHeader)
	pc := bytes.Index(script, rootBytes)
	if pc < 0 {
		return ErrAuxPowMissingRoot
	}
	if head >= 0 {
		if bytes.Contains(script[head+1:], MergedMiningHeader) {
			return ErrAuxPowMultipleHeaders
		}
		if head+len(MergedMiningHeader) != pc {
			return ErrAuxPowHeaderNotBefore
		}
	} else if pc > maxRootOffset {
		return ErrAuxPowRootTooLate
	}

	pc += len(rootBytes)
	if len(script)-pc < 8 {
		return ErrAuxPowMissingSizeNonce
	}
	height := uint(len(a.ChainBranch))
	if binary.LittleEndian.Uint32(script[pc:]) != 1<<height {
		return ErrAuxPowBranchSizeMismatch
	}
	nonce := binary.LittleEndian.Uint32(script[pc+4:])
	if a.ChainIndex != int32(ExpectedIndex(nonce, chainID, height)) {
		return ErrAuxPowWrongIndex
	}
	return nil
}

// ExpectedIndex returns the slot of a chain in the merged mining merkle tree
// of the given height.
func ExpectedIndex(nonce uint32, chainID int32, height uint) uint32 {
	rand := nonce
	rand = rand*1103515245 + 12345
	rand += uint32(chainID)
	rand = rand*1103515245 + 12345
	return rand % (1 << height)
}

// CheckMerkleBranch folds a merkle branch onto hash, taking the side of each
// step from the bits of index. An index of -1 yields the zero hash.
func CheckMerkleBranch(hash chainhash.Hash, branch []chainhash.Hash, index int32) chainhash.Hash {
	if index == -1 {
		return chainhash.Hash{}
	}
	var buf [chainhash.HashSize * 2]byte
	for i := range branch {
		if index&1 != 0 {
			copy(buf[:chainhash.HashSize], branch[i][:])
			copy(buf[chainhash.HashSize:], hash[:])
		} else {
			copy(buf[:chainhash.HashSize], hash[:])
			copy(buf[chainhash.HashSize:], branch[i][:])
		}
		hash = chainhash.DoubleHashH(buf[:])
		index >>= 1
	}
	return hash
}

// Serialize writes the proof in the format of a Dogecoin CAuxPow.
func (a *AuxPow) Serialize(w io.Writer) error {
	if err := a.CoinbaseTx.SerializeNoWitness(w); err != nil {
		return err
	}
	if _, err := w.Write(a.ParentHash[:]); err != nil {
		return err
	}
	if err := writeBranch(w, a.CoinbaseBranch); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, a.CoinbaseIndex); err != nil {
		return err
	}
	if err := writeBranch(w, a.ChainBranch); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, a.ChainIndex); err != nil {
		return err
	}
	return a.ParentHeader.Serialize(w)
}

// Deserialize reads a proof written by Serialize.
func (a *AuxPow) Deserialize(r io.Reader) error {
	a.CoinbaseTx = new(wire.MsgTx)
	if err := a.CoinbaseTx.DeserializeNoWitness(r); err != nil {
		return fmt.Errorf("coinbase: %w", err)
	}
	if _, err := io.ReadFull(r, a.ParentHash[:]); err != nil {
		return err
	}
	var err error
	if a.CoinbaseBranch, err = readBranch(r); err != nil {
		return fmt.Errorf("coinbase branch: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &a.CoinbaseIndex); err != nil {
		return err
	}
	if a.ChainBranch, err = readBranch(r); err != nil {
		return fmt.Errorf("chain branch: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &a.ChainIndex); err != nil {
		return err
	}
	return a.ParentHeader.Deserialize(r)
}

func writeBranch(w io.Writer, branch []chainhash.Hash) error {
	if err := wire.WriteVarInt(w, 0, uint64(len(branch))); err != nil {
		return err
	}
	for i := range branch {
		if _, err := w.Write(branch[i][:]); err != nil {
			return err
		}
	}
	return nil
}

func readBranch(r io.Reader) ([]chainhash.Hash, error) {
	n, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, err
	}
	if n > maxDecodedBranch {
		return nil, fmt.Errorf("branch of %d hashes exceeds %d", n, maxDecodedBranch)
	}
	branch := make([]chainhash.Hash, n)
	for i := range branch {
		if _, err := io.ReadFull(r, branch[i][:]); err != nil {
			return nil, err
		}
	}
	return branch, nil
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
