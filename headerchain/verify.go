package headerchain

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
)

// VerifyingKey checks proofs of both rules of one compiled Program. Every
// proof carries the digest of both keys as its last public input, which ties
// a step proof's verified predecessors to the same pair of keys.
type VerifyingKey struct {
	params config.Params
	base   assignedKey
	step   assignedKey
	digest types.Field
}

func newVerifyingKey(p config.Params, base, step groth16.VerifyingKey) (*VerifyingKey, error) {
	b, err := assignKey(base)
	if err != nil {
		return nil, err
	}
	s, err := assignKey(step)
	if err != nil {
		return nil, err
	}
	return &VerifyingKey{
		params: p,
		base:   b,
		step:   s,
		digest: keysDigest(b.digest, s.digest),
	}, nil
}

func (vk *VerifyingKey) key(rule Rule) (assignedKey, bool) {
	switch rule {
	case RuleBase:
		return vk.base, true
	case RuleStep:
		return vk.step, true
	default:
		return assignedKey{}, false
	}
}

// Digest is the key digest every proof of this program is bound to.
func (vk *VerifyingKey) Digest() types.Field { return vk.digest }

// VerifyEmbedded reports whether proof would be accepted as a predecessor by
// the step rule. Step uses it to reject bad predecessors before proving.
func (vk *VerifyingKey) VerifyEmbedded(proof *Proof) bool {
	return Verify(proof, vk)
}

// Verify reports whether proof is a valid proof of its public input under vk.
// It never fails loudly: malformed or foreign proofs are simply rejected.
func Verify(proof *Proof, vk *VerifyingKey) bool {
	if proof == nil || vk == nil || proof.raw == nil {
		return false
	}
	if checkShape(vk.params, proof.PublicInput) != nil {
		return false
	}
	key, ok := vk.key(proof.Rule)
	if !ok {
		return false
	}

	// both rules share the public layout (header, keys digest)
	public := baseAssignment(vk.params, proof.PublicInput, vk.digest)
	w, err := frontend.NewWitness(public, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}
	return groth16.Verify(proof.raw, key.native, w, verifierOptions()) == nil
}
