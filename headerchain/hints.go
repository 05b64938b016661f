package headerchain

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
)

func init() {
	solver.RegisterHint(ceilTwoThirdsHint, divModHint)
}

// ceilTwoThirdsHint computes ceil(2x/3). The step rule constrains the result,
// it never relies on it.
func ceilTwoThirdsHint(_ *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("ceilTwoThirds: got %d inputs, %d outputs, want 1 and 1", len(inputs), len(outputs))
	}
	x2 := new(big.Int).Lsh(inputs[0], 1)
	q, r := new(big.Int).QuoRem(x2, big.NewInt(3), new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	outputs[0].Set(q)
	return nil
}

// divModHint returns a / b and a mod b.
func divModHint(_ *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) != 2 || len(outputs) != 2 {
		return fmt.Errorf("divMod: got %d inputs, %d outputs, want 2 and 2", len(inputs), len(outputs))
	}
	if inputs[1].Sign() == 0 {
		return fmt.Errorf("divMod: division by zero")
	}
	outputs[0].QuoRem(inputs[0], inputs[1], outputs[1])
	return nil
}
