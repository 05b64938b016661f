package headerchain

import (
	"fmt"
	"reflect"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bn254"
	"github.com/consensys/gnark/std/commitments/pedersen"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/math/emulated"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
)

// Predecessor proofs are BN254 Groth16 proofs verified inside a BN254
// circuit, so the verifier works over emulated base and scalar fields.
type (
	proofVar = stdgroth16.Proof[sw_bn254.G1Affine, sw_bn254.G2Affine]
	keyVar   = stdgroth16.VerifyingKey[sw_bn254.G1Affine, sw_bn254.G2Affine, sw_bn254.GTEl]
)

// Both rules expose the header followed by the key digest, and carry exactly
// one commitment that binds no public input. The step rule can then check a
// proof of either rule with a single key layout.
func publicInputs(p config.Params) int { return p.PublicInputSize() + 1 }

func placeholderProof() proofVar {
	return proofVar{Commitments: make([]pedersen.Commitment[sw_bn254.G1Affine], 1)}
}

func placeholderKey(p config.Params) keyVar {
	return keyVar{
		G1:                           struct{ K []sw_bn254.G1Affine }{K: make([]sw_bn254.G1Affine, 1+publicInputs(p)+1)},
		CommitmentKeys:               make([]pedersen.VerifyingKey[sw_bn254.G2Affine], 1),
		PublicAndCommitmentCommitted: [][]int{{}},
	}
}

// checkLayout reports whether a compiled rule matches placeholderKey.
func checkLayout(p config.Params, rule Rule, ccs constraint.ConstraintSystem) error {
	commitments, ok := ccs.GetCommitments().(constraint.Groth16Commitments)
	if !ok {
		return fmt.Errorf("%s: unexpected commitment type %T", rule, ccs.GetCommitments())
	}
	nbPublic := ccs.GetNbPublicVariables()
	if nbPublic != 1+publicInputs(p) {
		return fmt.Errorf("%s: %d public variables, want %d", rule, nbPublic, 1+publicInputs(p))
	}
	if len(commitments) != 1 {
		return fmt.Errorf("%s: %d commitments, want 1", rule, len(commitments))
	}
	committed := commitments.GetPublicAndCommitmentCommitted(commitments.CommitmentIndexes(), nbPublic)
	if len(committed[0]) != 0 {
		return fmt.Errorf("%s: commitment binds public inputs %v", rule, committed[0])
	}
	return nil
}

// proverOptions and verifierOptions make the commitment challenge computable
// by the in-circuit verifier.
func proverOptions() backend.ProverOption {
	return stdgroth16.GetNativeProverOptions(ecc.BN254.ScalarField(), ecc.BN254.ScalarField())
}

func verifierOptions() backend.VerifierOption {
	return stdgroth16.GetNativeVerifierOptions(ecc.BN254.ScalarField(), ecc.BN254.ScalarField())
}

// keyLimbs lists every limb of a key in a fixed traversal order. It is used
// on circuit variables and on assigned values alike.
func keyLimbs(key *keyVar) []frontend.Variable {
	return collectVariables(reflect.ValueOf(key).Elem(), nil)
}

func collectVariables(v reflect.Value, out []frontend.Variable) []frontend.Variable {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return out
		}
		return collectVariables(v.Elem(), out)
	case reflect.Interface:
		if v.IsNil() {
			return out
		}
		return append(out, v.Interface())
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).IsExported() {
				out = collectVariables(v.Field(i), out)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			out = collectVariables(v.Index(i), out)
		}
	}
	return out
}

// assignedKey is a native verifying key together with its witness form and
// digest.
type assignedKey struct {
	native  groth16.VerifyingKey
	witness keyVar
	digest  types.Field
}

func assignKey(vk groth16.VerifyingKey) (assignedKey, error) {
	w, err := stdgroth16.ValueOfVerifyingKey[sw_bn254.G1Affine, sw_bn254.G2Affine, sw_bn254.GTEl](vk)
	if err != nil {
		return assignedKey{}, fmt.Errorf("assign key: %w", err)
	}
	limbs := keyLimbs(&w)
	xs := make([]types.Field, len(limbs))
	for i, l := range limbs {
		if _, err := xs[i].SetInterface(l); err != nil {
			return assignedKey{}, fmt.Errorf("key limb %d: %w", i, err)
		}
	}
	return assignedKey{native: vk, witness: w, digest: types.HashFields(xs...)}, nil
}

// keysDigest commits to the pair of rule keys. It is the last public input of
// every proof.
func keysDigest(base, step types.Field) types.Field {
	return types.HashFields(base, step)
}

// assertPredecessor constrains prev to be the public input of a proof that
// verifies under the base or the step key committed to by keys.
func assertPredecessor(api frontend.API, keys frontend.Variable, prev HeaderVar, proof proofVar, key keyVar, baseKey, stepKey frontend.Variable) error {
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return fmt.Errorf("new mimc: %w", err)
	}
	hasher.Write(baseKey, stepKey)
	api.AssertIsEqual(keys, hasher.Sum())

	hasher.Reset()
	hasher.Write(keyLimbs(&key)...)
	digest := hasher.Sum()
	api.AssertIsEqual(api.Mul(api.Sub(digest, baseKey), api.Sub(digest, stepKey)), 0)

	scalars, err := emulated.NewField[sw_bn254.ScalarField](api)
	if err != nil {
		return fmt.Errorf("scalar field: %w", err)
	}
	inputs := append(prev.fields(), keys)
	var public stdgroth16.Witness[sw_bn254.ScalarField]
	for _, x := range inputs {
		public.Public = append(public.Public, *scalars.FromBits(api.ToBinary(x, config.FieldBits)...))
	}

	verifier, err := stdgroth16.NewVerifier[sw_bn254.ScalarField, sw_bn254.G1Affine, sw_bn254.G2Affine, sw_bn254.GTEl](api)
	if err != nil {
		return fmt.Errorf("new verifier: %w", err)
	}
	return verifier.AssertProof(key, proof, public,
		stdgroth16.WithCompleteArithmetic(),
		stdgroth16.WithSubgroupCheck(),
	)
}
