package headerchain

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/geanlabs/zkheaders/config"
)

// hashHeader is types.Header.Hash evaluated in-circuit.
func hashHeader(api frontend.API, h HeaderVar) (frontend.Variable, error) {
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, fmt.Errorf("new mimc: %w", err)
	}
	hasher.Write(h.Num, h.Prev, h.Data, h.Extra)
	return hasher.Sum(), nil
}

// lowBits truncates x to its low width bits.
func lowBits(api frontend.API, x frontend.Variable, width int) frontend.Variable {
	b := api.ToBinary(x, config.FieldBits)
	return api.FromBinary(b[:width]...)
}

// sigVar is a decoded attestation token.
type sigVar struct {
	tag frontend.Variable
	id  frontend.Variable
}

// decodeSig mirrors types.SigFromField: tag in the low TagBits, id in the
// following IDBits, anything above ignored.
func decodeSig(api frontend.API, p config.Params, x frontend.Variable) sigVar {
	b := api.ToBinary(x, config.FieldBits)
	return sigVar{
		tag: api.FromBinary(b[:p.TagBits]...),
		id:  api.FromBinary(b[p.TagBits:p.SigBits()]...),
	}
}

func isEqual(api frontend.API, a, b frontend.Variable) frontend.Variable {
	return api.IsZero(api.Sub(a, b))
}

func isNonZero(api frontend.API, a frontend.Variable) frontend.Variable {
	return api.Sub(1, api.IsZero(a))
}

// quorumThreshold returns ceil(2*eligible/3). The value comes from a hint and
// is pinned by 3t - 2e in {0, 1, 2} with t range-checked, which admits
// exactly the integer ceiling.
func quorumThreshold(api frontend.API, p config.Params, eligible frontend.Variable) (frontend.Variable, error) {
	out, err := api.Compiler().NewHint(ceilTwoThirdsHint, 1, eligible)
	if err != nil {
		return nil, fmt.Errorf("threshold hint: %w", err)
	}
	t := out[0]
	api.ToBinary(t, bits.Len(uint(2*p.MaxValidators)))

	d := api.Sub(api.Mul(t, 3), api.Mul(eligible, 2))
	api.AssertIsEqual(api.Mul(d, api.Sub(d, 1), api.Sub(d, 2)), 0)
	return t, nil
}

// atEpochBoundary returns 1 when num is a multiple of the epoch size, 0
// otherwise. The quotient and remainder are hinted, then bound by
// num = q*E + r with r < E and q < 2^64.
func atEpochBoundary(api frontend.API, p config.Params, num frontend.Variable) (frontend.Variable, error) {
	out, err := api.Compiler().NewHint(divModHint, 2, num, p.EpochSize)
	if err != nil {
		return nil, fmt.Errorf("epoch hint: %w", err)
	}
	q, r := out[0], out[1]
	api.ToBinary(q, 64)
	if p.EpochSize == 1 {
		api.AssertIsEqual(r, 0)
	} else {
		api.AssertIsLessOrEqual(r, p.EpochSize-1)
	}
	api.AssertIsEqual(num, api.Add(api.Mul(q, p.EpochSize), r))
	return api.IsZero(r), nil
}

// rotationMismatches counts the slots whose IDBits-wide chunk of Extra differs
// from the low IDBits of the header's own validator in that slot.
func rotationMismatches(api frontend.API, p config.Params, h HeaderVar) frontend.Variable {
	extra := api.ToBinary(h.Extra, config.FieldBits)
	var n frontend.Variable = 0
	for i := 0; i < p.MaxValidators; i++ {
		chunk := api.FromBinary(extra[i*p.IDBits : (i+1)*p.IDBits]...)
		n = api.Add(n, api.Sub(1, isEqual(api, chunk, lowBits(api, h.Vals[i], p.IDBits))))
	}
	return n
}
