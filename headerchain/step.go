package headerchain

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bn254"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
)

// StepCircuit extends a proved header by one block. Header is the new block
// and Keys the digest of both rule keys. Prev is bound in-circuit to PrevProof:
// the proof must verify under PrevKey with public input (Prev, Keys), and
// PrevKey must hash to BaseKey or StepKey, the preimage of Keys.
type StepCircuit struct {
	Header HeaderVar         `gnark:",public"`
	Keys   frontend.Variable `gnark:",public"`

	Prev      HeaderVar
	PrevProof proofVar
	PrevKey   keyVar
	BaseKey   frontend.Variable
	StepKey   frontend.Variable

	params config.Params
}

// NewStepCircuit returns a step circuit shaped for p.
func NewStepCircuit(p config.Params) *StepCircuit {
	return &StepCircuit{
		Header:    newHeaderVar(p),
		Prev:      newHeaderVar(p),
		PrevProof: placeholderProof(),
		PrevKey:   placeholderKey(p),
		params:    p,
	}
}

// Define verifies the predecessor proof, then checks the transition from
// Prev to Header.
func (c *StepCircuit) Define(api frontend.API) error {
	if err := assertPredecessor(api, c.Keys, c.Prev, c.PrevProof, c.PrevKey, c.BaseKey, c.StepKey); err != nil {
		return fmt.Errorf("predecessor: %w", err)
	}
	return checkTransition(api, c.params, c.Header, c.Prev)
}

// checkTransition encodes linkage, numbering, quorum and rotation.
//
// Slot i is eligible when prev has a validator there; its token in
// h.Sigs[i] is valid when it decodes to that validator's id (nonzero) and
// carries the low TagBits of h's hash. At least ceil(2/3) of the eligible
// slots must be valid. At an epoch boundary Extra must encode h.Vals; the
// check is computed unconditionally and selected, there is no branching.
func checkTransition(api frontend.API, p config.Params, h, prev HeaderVar) error {
	prevHash, err := hashHeader(api, prev)
	if err != nil {
		return err
	}
	api.AssertIsEqual(h.Prev, prevHash)
	api.AssertIsEqual(h.Num, api.Add(prev.Num, 1))

	hash, err := hashHeader(api, h)
	if err != nil {
		return err
	}
	tag := lowBits(api, hash, p.TagBits)

	var eligible, valid frontend.Variable = 0, 0
	for i := 0; i < p.MaxValidators; i++ {
		signer := prev.Vals[i]
		eligible = api.Add(eligible, isNonZero(api, signer))

		sig := decodeSig(api, p, h.Sigs[i])
		ok := api.And(isEqual(api, sig.id, signer), isNonZero(api, sig.id))
		ok = api.And(ok, isEqual(api, sig.tag, tag))
		valid = api.Add(valid, ok)
	}

	threshold, err := quorumThreshold(api, p, eligible)
	if err != nil {
		return err
	}
	api.AssertIsLessOrEqual(threshold, valid)

	atEpoch, err := atEpochBoundary(api, p, h.Num)
	if err != nil {
		return err
	}
	api.AssertIsEqual(api.Select(atEpoch, rotationMismatches(api, p, h), 0), 0)
	return nil
}

// stepAssignment builds the full step witness for h over the proved prev.
func stepAssignment(vk *VerifyingKey, h types.Header, prev *Proof) (*StepCircuit, error) {
	key, ok := vk.key(prev.Rule)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRule, prev.Rule)
	}
	proof, err := stdgroth16.ValueOfProof[sw_bn254.G1Affine, sw_bn254.G2Affine](prev.raw)
	if err != nil {
		return nil, fmt.Errorf("assign predecessor proof: %w", err)
	}

	c := NewStepCircuit(vk.params)
	c.Header = assignHeader(h)
	c.Keys = toBig(vk.digest)
	c.Prev = assignHeader(prev.PublicInput)
	c.PrevProof = proof
	c.PrevKey = key.witness
	c.BaseKey = toBig(vk.base.digest)
	c.StepKey = toBig(vk.step.digest)
	return c, nil
}
