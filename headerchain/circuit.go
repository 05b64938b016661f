// Package headerchain implements the two proof rules of a succinct header
// chain: base, which accepts only the genesis header, and step, which extends
// a proved header by one block after checking linkage, numbering, a 2/3
// quorum of the predecessor's validators and epoch rotation.
package headerchain

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
)

// HeaderVar is a header inside a circuit, laid out like types.Header.Fields.
type HeaderVar struct {
	Num   frontend.Variable
	Prev  frontend.Variable
	Data  frontend.Variable
	Extra frontend.Variable
	Vals  []frontend.Variable
	Sigs  []frontend.Variable
}

func newHeaderVar(p config.Params) HeaderVar {
	return HeaderVar{
		Vals: make([]frontend.Variable, p.MaxValidators),
		Sigs: make([]frontend.Variable, p.MaxValidators),
	}
}

// assignHeader converts h into witness values.
func assignHeader(h types.Header) HeaderVar {
	hv := HeaderVar{
		Num:   toBig(h.Num),
		Prev:  toBig(h.Prev),
		Data:  toBig(h.Data),
		Extra: toBig(h.Extra),
		Vals:  make([]frontend.Variable, len(h.Vals)),
		Sigs:  make([]frontend.Variable, len(h.Sigs)),
	}
	for i := range h.Vals {
		hv.Vals[i] = toBig(h.Vals[i])
	}
	for i := range h.Sigs {
		hv.Sigs[i] = toBig(h.Sigs[i])
	}
	return hv
}

func (hv HeaderVar) fields() []frontend.Variable {
	out := make([]frontend.Variable, 0, 4+len(hv.Vals)+len(hv.Sigs))
	out = append(out, hv.Num, hv.Prev, hv.Data, hv.Extra)
	out = append(out, hv.Vals...)
	out = append(out, hv.Sigs...)
	return out
}

func toBig(x types.Field) *big.Int {
	return x.BigInt(new(big.Int))
}

func checkShape(p config.Params, h types.Header) error {
	if len(h.Vals) != p.MaxValidators || len(h.Sigs) != p.MaxValidators {
		return fmt.Errorf("%w: %d vals, %d sigs, want %d",
			ErrHeaderShape, len(h.Vals), len(h.Sigs), p.MaxValidators)
	}
	return nil
}
