package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/headerchain"
	"github.com/geanlabs/zkheaders/storage"
	"github.com/geanlabs/zkheaders/storage/memory"
	"github.com/geanlabs/zkheaders/types"
)

var (
	programOnce sync.Once
	program     *headerchain.Program
	programErr  error
)

func newTestChain(t *testing.T) (*Chain, *memory.Store) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping proving in short mode")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	programOnce.Do(func() {
		program, programErr = headerchain.Compile(headerchain.Config{Params: config.Default(), Logger: logger})
	})
	if programErr != nil {
		t.Fatalf("Compile: %v", programErr)
	}
	store := memory.New()
	return New(Config{Program: program, Store: store, Logger: logger}), store
}

func TestChain_InitAndExtend(t *testing.T) {
	c, store := newTestChain(t)
	p := program.Params()
	ctx := context.Background()

	if _, err := c.Head(); !errors.Is(err, storage.ErrNoHead) {
		t.Fatalf("Head before Init: err = %v, want %v", err, storage.ErrNoHead)
	}
	genesis, err := c.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := c.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init: err = %v, want %v", err, ErrAlreadyInitialized)
	}

	parent := genesis.PublicInput
	rotations := [][]types.Field{nil, {types.NewField(5), types.NewField(9)}, nil}
	for i, rotate := range rotations {
		h, err := NextHeader(p, parent, types.NewField(uint64(100+i)), rotate)
		if err != nil {
			t.Fatalf("NextHeader %d: %v", i+1, err)
		}
		proof, err := c.Extend(ctx, h)
		if err != nil {
			t.Fatalf("Extend %d: %v", i+1, err)
		}
		head, err := c.Head()
		if err != nil {
			t.Fatalf("Head: %v", err)
		}
		if head.ID() != proof.ID() {
			t.Errorf("head after header %d = %v, want %v", i+1, head, proof)
		}
		parent = h
	}
	if n := len(store.GetAllProofs()); n != 4 {
		t.Errorf("stored proofs = %d, want 4", n)
	}
}

func TestChain_ExtendRejects(t *testing.T) {
	c, _ := newTestChain(t)
	p := program.Params()
	ctx := context.Background()

	h1, _ := NextHeader(p, types.Genesis(p), types.Field{}, nil)
	if _, err := c.Extend(ctx, h1); !errors.Is(err, storage.ErrNoHead) {
		t.Errorf("Extend before Init: err = %v, want %v", err, storage.ErrNoHead)
	}
	genesis, err := c.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	unsigned := h1.Copy()
	unsigned.Sigs[0], unsigned.Sigs[1] = types.Field{}, types.Field{}
	if _, err := c.Extend(ctx, unsigned); !errors.Is(err, headerchain.ErrUnsatisfied) {
		t.Errorf("Extend(unsigned): err = %v, want %v", err, headerchain.ErrUnsatisfied)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.Extend(cancelled, h1); !errors.Is(err, context.Canceled) {
		t.Errorf("Extend(cancelled): err = %v, want %v", err, context.Canceled)
	}

	head, _ := c.Head()
	if head.ID() != genesis.ID() {
		t.Errorf("head moved after rejected extensions: %v", head)
	}
}

func TestChain_ProveCandidates(t *testing.T) {
	c, store := newTestChain(t)
	p := program.Params()
	ctx := context.Background()

	genesis, err := c.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	var forks []types.Header
	for i := range 3 {
		h, err := NextHeader(p, genesis.PublicInput, types.NewField(uint64(i)), nil)
		if err != nil {
			t.Fatalf("NextHeader: %v", err)
		}
		forks = append(forks, h)
	}

	proofs, err := c.ProveCandidates(ctx, genesis, forks)
	if err != nil {
		t.Fatalf("ProveCandidates: %v", err)
	}
	for i, pr := range proofs {
		if !pr.PublicInput.Equal(forks[i]) {
			t.Errorf("proof %d is for %v, want %v", i, pr.PublicInput, forks[i])
		}
		if !headerchain.Verify(pr, program.VerifyingKey()) {
			t.Errorf("proof %d does not verify", i)
		}
		if _, ok := store.GetProof(pr.ID()); !ok {
			t.Errorf("proof %d not stored", i)
		}
	}
	head, _ := c.Head()
	if head.ID() != genesis.ID() {
		t.Errorf("ProveCandidates moved the head to %v", head)
	}

	bad := forks[0].Copy()
	bad.Sigs[0] = types.Field{}
	bad.Sigs[1] = types.Field{}
	if _, err := c.ProveCandidates(ctx, genesis, []types.Header{forks[1], bad}); !errors.Is(err, headerchain.ErrUnsatisfied) {
		t.Errorf("ProveCandidates with a bad fork: err = %v, want %v", err, headerchain.ErrUnsatisfied)
	}
}
