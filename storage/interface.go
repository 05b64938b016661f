package storage

import (
	"errors"

	"github.com/geanlabs/zkheaders/headerchain"
)

var ErrNoHead = errors.New("store has no head")

// Store is a storage interface for header proofs and the current chain head.
type Store interface {
	GetProof(id [32]byte) (*headerchain.Proof, bool)
	PutProof(proof *headerchain.Proof) [32]byte
	GetAllProofs() map[[32]byte]*headerchain.Proof
	Head() (*headerchain.Proof, error)
	SetHead(id [32]byte) error
}
