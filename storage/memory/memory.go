package memory

import (
	"fmt"
	"sync"

	"github.com/geanlabs/zkheaders/headerchain"
	"github.com/geanlabs/zkheaders/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu      sync.RWMutex
	proofs  map[[32]byte]*headerchain.Proof
	head    [32]byte
	hasHead bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		proofs: make(map[[32]byte]*headerchain.Proof),
	}
}

func (m *Store) GetProof(id [32]byte) (*headerchain.Proof, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.proofs[id]
	return p, ok
}

// PutProof stores proof under its content address and returns it.
func (m *Store) PutProof(proof *headerchain.Proof) [32]byte {
	id := proof.ID()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proofs[id] = proof
	return id
}

func (m *Store) GetAllProofs() map[[32]byte]*headerchain.Proof {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[[32]byte]*headerchain.Proof, len(m.proofs))
	for k, v := range m.proofs {
		cp[k] = v
	}
	return cp
}

func (m *Store) Head() (*headerchain.Proof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasHead {
		return nil, storage.ErrNoHead
	}
	return m.proofs[m.head], nil
}

// SetHead moves the head to a stored proof.
func (m *Store) SetHead(id [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.proofs[id]; !ok {
		return fmt.Errorf("set head: unknown proof %x", id[:4])
	}
	m.head = id
	m.hasHead = true
	return nil
}

var _ storage.Store = (*Store)(nil)
