// Package types defines the header chain's data model: field elements, the
// bit codec, attestation tokens, headers and the validator-set policy.
package types

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Field is an element of the BN254 scalar field, the native unit of the
// header-chain circuits.
type Field = fr.Element

// NewField returns v as a field element.
func NewField(v uint64) Field {
	var x Field
	x.SetUint64(v)
	return x
}

// FieldFromBig reduces v modulo the field order.
func FieldFromBig(v *big.Int) Field {
	var x Field
	x.SetBigInt(v)
	return x
}

// HashFields is the collision-resistant hash used for header linkage. It is
// MiMC over the canonical big-endian encoding of each element, the same
// permutation the circuits evaluate through std/hash/mimc.
func HashFields(xs ...Field) Field {
	h := mimc.NewMiMC()
	for i := range xs {
		b := xs[i].Bytes()
		h.Write(b[:])
	}
	var out Field
	out.SetBytes(h.Sum(nil))
	return out
}

// Short returns the first 4 bytes of x's canonical encoding in hex.
func Short(x Field) string {
	b := x.Bytes()
	return fmt.Sprintf("%x", b[:4])
}
