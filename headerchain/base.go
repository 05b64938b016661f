package headerchain

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/multicommit"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
)

// BaseCircuit accepts exactly the genesis header of its params.
type BaseCircuit struct {
	Header HeaderVar         `gnark:",public"`
	Keys   frontend.Variable `gnark:",public"`

	params config.Params
}

// NewBaseCircuit returns a base circuit shaped for p.
func NewBaseCircuit(p config.Params) *BaseCircuit {
	return &BaseCircuit{Header: newHeaderVar(p), params: p}
}

// Define asserts field-by-field equality with types.Genesis. Keys is carried
// through unchecked; the step rule binds it.
func (c *BaseCircuit) Define(api frontend.API) error {
	want := types.Genesis(c.params).Fields()
	got := c.Header.fields()
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d public inputs, want %d", ErrHeaderShape, len(got), len(want))
	}
	for i := range got {
		api.AssertIsEqual(got[i], toBig(want[i]))
	}

	// base proofs carry the same single commitment as step proofs, over an
	// internal wire, so one key layout serves both rules
	multicommit.WithCommitment(api, func(frontend.API, frontend.Variable) error {
		return nil
	}, api.Mul(c.Header.Num, c.Keys))
	return nil
}

func baseAssignment(p config.Params, h types.Header, keys types.Field) *BaseCircuit {
	c := NewBaseCircuit(p)
	c.Header = assignHeader(h)
	c.Keys = toBig(keys)
	return c
}
