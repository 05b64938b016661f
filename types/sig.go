package types

import (
	"fmt"

	"github.com/geanlabs/zkheaders/config"
)

// Sig is a compact attestation token: the low TagBits of the attested header's
// hash and the low IDBits of the attesting validator's identity, packed into a
// single field element with the tag in the low bits.
//
// A Sig is not a secret-key signature. Anyone who knows a header hash and a
// validator id can derive it; the validator identities are the trust anchor.
type Sig struct {
	Tag []bool
	ID  []bool
}

// NewSig derives the token validatorID would produce for headerHash.
func NewSig(p config.Params, headerHash, validatorID Field) Sig {
	return Sig{
		Tag: Unpack(headerHash, p.TagBits),
		ID:  Unpack(validatorID, p.IDBits),
	}
}

// SigFromField splits a packed token. Bits above TagBits+IDBits are ignored.
func SigFromField(p config.Params, x Field) Sig {
	bits := Unpack(x, p.SigBits())
	return Sig{
		Tag: bits[:p.TagBits],
		ID:  bits[p.TagBits:],
	}
}

// Field packs the token, tag first.
func (s Sig) Field() Field {
	bits := make([]bool, 0, len(s.Tag)+len(s.ID))
	bits = append(bits, s.Tag...)
	bits = append(bits, s.ID...)
	return mustPack(bits)
}

func (s Sig) TagField() Field { return mustPack(s.Tag) }

func (s Sig) IDField() Field { return mustPack(s.ID) }

func (s Sig) String() string {
	tag, id := s.TagField(), s.IDField()
	return fmt.Sprintf("%q : %q", tag.String(), id.String())
}
