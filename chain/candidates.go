package chain

import (
	"context"
	"fmt"
	"runtime"

	"github.com/geanlabs/zkheaders/headerchain"
	"github.com/geanlabs/zkheaders/types"
	"golang.org/x/sync/errgroup"
)

// ProveCandidates proves each candidate as a successor of parent
// concurrently. Competing forks share nothing but the immutable program, so
// the head is left untouched; the proofs are stored and returned in candidate
// order. The first failure cancels the remaining work.
func (c *Chain) ProveCandidates(ctx context.Context, parent *headerchain.Proof, candidates []types.Header) ([]*headerchain.Proof, error) {
	proofs := make([]*headerchain.Proof, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, h := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			proof, err := c.program.Step(h, parent)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			c.store.PutProof(proof)
			proofs[i] = proof
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("proved candidates", "parent", parent.PublicInput.NumUint64(), "count", len(candidates))
	return proofs, nil
}
