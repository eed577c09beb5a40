package consensus

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

type storedHeader struct {
	header *wire.BlockHeader
	height uint32
}

// MemoryHeaderStore is a HeaderStore holding every header in memory. The
// most recently added header is the tip; adding a header whose parent is not
// the tip switches the height index to the new branch.
type MemoryHeaderStore struct {
	headers map[chainhash.Hash]storedHeader
	chain   []chainhash.Hash // hashes of the tip's chain, indexed from base
	base    uint32
	initial chainhash.Hash

	lock sync.RWMutex
}

// NewMemoryHeaderStore creates a store whose oldest header is initial at
// the given height.
func NewMemoryHeaderStore(initial *wire.BlockHeader, height uint32) *MemoryHeaderStore {
	hash := initial.BlockHash()
	return &MemoryHeaderStore{
		headers: map[chainhash.Hash]storedHeader{hash: {header: initial, height: height}},
		chain:   []chainhash.Hash{hash},
		base:    height,
		initial: hash,
	}
}

// Add stores header on top of its parent and makes it the tip.
func (s *MemoryHeaderStore) Add(header *wire.BlockHeader) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	parent, ok := s.headers[header.PrevBlock]
	if !ok {
		return ErrPrevHeaderNotFound
	}
	hash := header.BlockHash()
	height := parent.height + 1
	s.headers[hash] = storedHeader{header: header, height: height}

	if s.chain[len(s.chain)-1] == header.PrevBlock {
		s.chain = append(s.chain, hash)
		return nil
	}
	// Reindex the branch ending at the new tip.
	chain := make([]chainhash.Hash, height-s.base+1)
	for cur := hash; ; {
		stored := s.headers[cur]
		chain[stored.height-s.base] = cur
		if cur == s.initial {
			break
		}
		cur = stored.header.PrevBlock
	}
	s.chain = chain
	return nil
}

// AddHeaders adds headers in order, stopping at the first failure.
func (s *MemoryHeaderStore) AddHeaders(headers []*wire.BlockHeader) error {
	for _, header := range headers {
		if err := s.Add(header); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryHeaderStore) GetHeaderByHash(hash chainhash.Hash) *wire.BlockHeader {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if stored, ok := s.headers[hash]; ok {
		return stored.header
	}
	return nil
}

func (s *MemoryHeaderStore) GetHeaderByHeight(height uint32) *wire.BlockHeader {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if height < s.base || height-s.base >= uint32(len(s.chain)) {
		return nil
	}
	return s.headers[s.chain[height-s.base]].header
}

// GetHeight returns the height of a stored header.
func (s *MemoryHeaderStore) GetHeight(hash chainhash.Hash) (uint32, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	stored, ok := s.headers[hash]
	return stored.height, ok
}

func (s *MemoryHeaderStore) Height() uint32 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.base + uint32(len(s.chain)) - 1
}

// Tip returns the most recently added header.
func (s *MemoryHeaderStore) Tip() *wire.BlockHeader {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.headers[s.chain[len(s.chain)-1]].header
}

func (s *MemoryHeaderStore) InitialHash() chainhash.Hash {
	return s.initial
}
