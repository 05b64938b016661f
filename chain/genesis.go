package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/geanlabs/zkheaders/headerchain"
	"github.com/geanlabs/zkheaders/storage"
	"github.com/geanlabs/zkheaders/types"
)

var (
	ErrAlreadyInitialized = errors.New("chain already has a head")
	ErrProofRejected      = errors.New("proof does not verify")
)

// Chain keeps the proof of the latest accepted header. Every stored proof is
// verified before it becomes the head.
type Chain struct {
	program *headerchain.Program
	store   storage.Store
	logger  *slog.Logger

	// serializes head updates
	mu sync.Mutex
}

// Config holds chain configuration.
type Config struct {
	Program *headerchain.Program
	Store   storage.Store
	Logger  *slog.Logger
}

func New(cfg Config) *Chain {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		program: cfg.Program,
		store:   cfg.Store,
		logger:  logger,
	}
}

// Init proves the genesis header and makes it the head.
func (c *Chain) Init() (*headerchain.Proof, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.store.Head(); err == nil {
		return nil, ErrAlreadyInitialized
	}
	proof, err := c.program.Base(types.Genesis(c.program.Params()))
	if err != nil {
		return nil, fmt.Errorf("prove genesis: %w", err)
	}
	if err := c.accept(proof); err != nil {
		return nil, err
	}
	c.logger.Info("initialized chain", "genesis", types.Short(proof.PublicInput.Hash()))
	return proof, nil
}

// Extend proves h as the successor of the current head and advances the head.
func (c *Chain) Extend(ctx context.Context, h types.Header) (*headerchain.Proof, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	head, err := c.store.Head()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proof, err := c.program.Step(h, head)
	if err != nil {
		return nil, fmt.Errorf("extend to header %d: %w", h.NumUint64(), err)
	}
	if err := c.accept(proof); err != nil {
		return nil, err
	}
	c.logger.Info("extended chain",
		"num", h.NumUint64(),
		"hash", types.Short(h.Hash()),
		"epoch_boundary", types.IsEpochBoundary(c.program.Params(), h.NumUint64()),
	)
	return proof, nil
}

// Head returns the proof of the latest accepted header.
func (c *Chain) Head() (*headerchain.Proof, error) {
	return c.store.Head()
}

func (c *Chain) accept(proof *headerchain.Proof) error {
	if !headerchain.Verify(proof, c.program.VerifyingKey()) {
		return fmt.Errorf("%w: %s", ErrProofRejected, proof)
	}
	return c.store.SetHead(c.store.PutProof(proof))
}
