package headerchain

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
)

// testParams returns the default params with m validator slots and the given
// epoch size.
func testParams(m, epochSize int) config.Params {
	p := config.Default()
	p.MaxValidators = m
	p.EpochSize = epochSize
	return p
}

// makeHeader builds an unsigned header, failing the test on shape errors.
func makeHeader(t *testing.T, p config.Params, num uint64, prev, data, extra types.Field, vals []types.Field) types.Header {
	t.Helper()
	h, err := types.NewHeader(p, types.NewField(num), prev, data, extra, vals, nil)
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	return h
}

// successor builds a valid next header for parent: linked, numbered, carrying
// (or, at an epoch boundary, re-encoding) the parent's set when vals is nil,
// and signed by every validator of the parent.
func successor(t *testing.T, p config.Params, parent types.Header, vals []types.Field) types.Header {
	t.Helper()
	num := parent.NumUint64() + 1
	if vals == nil {
		vals = parent.Vals
	}
	var extra types.Field
	if types.IsEpochBoundary(p, num) {
		var err error
		if extra, err = types.EncodeRotation(p, vals); err != nil {
			t.Fatalf("EncodeRotation: %v", err)
		}
	}
	h := makeHeader(t, p, num, parent.Hash(), types.NewField(num), extra, vals)
	return h.Sign(p, parent.Vals)
}

// withValidTokens clears all but the first n tokens of h.
func withValidTokens(h types.Header, n int) types.Header {
	out := h.Copy()
	for i := n; i < len(out.Sigs); i++ {
		out.Sigs[i] = types.Field{}
	}
	return out
}

// transitionCircuit holds only the transition checks of the step rule, so
// they can be exercised over arbitrary predecessors without a proof.
type transitionCircuit struct {
	Header HeaderVar `gnark:",public"`
	Prev   HeaderVar

	params config.Params
}

func (c *transitionCircuit) Define(api frontend.API) error {
	return checkTransition(api, c.params, c.Header, c.Prev)
}

func newTransitionCircuit(p config.Params) *transitionCircuit {
	return &transitionCircuit{Header: newHeaderVar(p), Prev: newHeaderVar(p), params: p}
}

func solveBase(p config.Params, h types.Header) error {
	return test.IsSolved(NewBaseCircuit(p), baseAssignment(p, h, types.NewField(7)), ecc.BN254.ScalarField())
}

func solveStep(p config.Params, h, prev types.Header) error {
	assignment := newTransitionCircuit(p)
	assignment.Header = assignHeader(h)
	assignment.Prev = assignHeader(prev)
	return test.IsSolved(newTransitionCircuit(p), assignment, ecc.BN254.ScalarField())
}
