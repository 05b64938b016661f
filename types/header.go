package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geanlabs/zkheaders/config"
)

var (
	ErrTooManyValidators = errors.New("more validators than header slots")
	ErrHeaderShape       = errors.New("field vector does not match header shape")
)

// Header is one block of the chain. Vals and Sigs always hold exactly
// MaxValidators entries; a zero entry is an empty slot. Sigs[i] is the token
// attributed to the predecessor's Vals[i].
type Header struct {
	Num   Field
	Prev  Field // hash of the predecessor, zero for genesis
	Data  Field
	Extra Field // rotation payload, zero outside epoch boundaries
	Vals  []Field
	Sigs  []Field
}

// NewHeader builds a header, padding vals and sigs with zeros up to
// MaxValidators.
func NewHeader(p config.Params, num, prev, data, extra Field, vals, sigs []Field) (Header, error) {
	padVals, err := pad(p, vals)
	if err != nil {
		return Header{}, fmt.Errorf("vals: %w", err)
	}
	padSigs, err := pad(p, sigs)
	if err != nil {
		return Header{}, fmt.Errorf("sigs: %w", err)
	}
	return Header{
		Num:   num,
		Prev:  prev,
		Data:  data,
		Extra: extra,
		Vals:  padVals,
		Sigs:  padSigs,
	}, nil
}

func pad(p config.Params, xs []Field) ([]Field, error) {
	if len(xs) > p.MaxValidators {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyValidators, len(xs), p.MaxValidators)
	}
	out := make([]Field, p.MaxValidators)
	copy(out, xs)
	return out, nil
}

// Genesis returns the unique accepted starting header: number, predecessor,
// payload and rotation payload all zero, the first MaxValidators identities of
// the universe as the active set, and no attestations.
func Genesis(p config.Params) Header {
	h, err := NewHeader(p, Field{}, Field{}, Field{}, Field{}, Universe(p)[:p.MaxValidators], nil)
	if err != nil {
		panic(fmt.Sprintf("genesis for unvalidated params: %v", err))
	}
	return h
}

// Hash commits to the consensus payload only. Vals and Sigs are left out so
// that linkage does not depend on the attestation material of the same slot.
func (h Header) Hash() Field {
	return HashFields(h.Num, h.Prev, h.Data, h.Extra)
}

// Fields flattens h to its public-input form:
// [num, prev, data, extra, vals..., sigs...].
func (h Header) Fields() []Field {
	out := make([]Field, 0, 4+len(h.Vals)+len(h.Sigs))
	out = append(out, h.Num, h.Prev, h.Data, h.Extra)
	out = append(out, h.Vals...)
	out = append(out, h.Sigs...)
	return out
}

// HeaderFromFields is the inverse of Fields. A short vector is padded.
func HeaderFromFields(p config.Params, v []Field) (Header, error) {
	if len(v) < 4 || len(v) > p.PublicInputSize() {
		return Header{}, fmt.Errorf("%w: %d elements, want 4..%d", ErrHeaderShape, len(v), p.PublicInputSize())
	}
	rest := v[4:]
	vals := rest[:min(len(rest), p.MaxValidators)]
	sigs := rest[len(vals):]
	return NewHeader(p, v[0], v[1], v[2], v[3], vals, sigs)
}

// Sign returns a copy of h carrying the tokens signers would produce for it.
// signers is the predecessor's active set; empty slots yield tokens with a
// zero id, which never count towards quorum.
func (h Header) Sign(p config.Params, signers []Field) Header {
	out := h.Copy()
	hash := h.Hash()
	for i := range out.Sigs {
		var val Field
		if i < len(signers) {
			val = signers[i]
		}
		out.Sigs[i] = NewSig(p, hash, val).Field()
	}
	return out
}

// NumUint64 returns the block number as an integer.
func (h Header) NumUint64() uint64 {
	return h.Num.Uint64()
}

func (h Header) Copy() Header {
	cp := h
	cp.Vals = append([]Field(nil), h.Vals...)
	cp.Sigs = append([]Field(nil), h.Sigs...)
	return cp
}

func (h Header) Equal(o Header) bool {
	a, b := h.Fields(), o.Fields()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}

func (h Header) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Header{num=%s prev=%s data=%s extra=%s vals=[",
		h.Num.String(), Short(h.Prev), h.Data.String(), h.Extra.String())
	for i := range h.Vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(h.Vals[i].String())
	}
	sb.WriteString("]}")
	return sb.String()
}
