package headerchain

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	ssz "github.com/ferranbt/fastssz"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
	"github.com/golang/snappy"
)

// maxProofBytes bounds the serialized Groth16 proof in an envelope.
const maxProofBytes = 4096

// envelopeFixedSize is the rule plus two offsets.
const envelopeFixedSize = 8 + 4 + 4

// Proof is an immutable claim that PublicInput was accepted by Rule, given
// (for step proofs) an already verified predecessor proof.
type Proof struct {
	Rule        Rule
	PublicInput types.Header

	raw groth16.Proof
}

// ID is the proof's content address: the SSZ root of its rule and public
// input. Two proofs of the same header by the same rule share an ID.
//
// Hashing fails only for a public input with more slots than the SSZ list
// limit, which no valid Params produces and which Base, Step and
// UnmarshalProof all reject. Such a proof has the zero ID.
func (p *Proof) ID() [32]byte {
	root, err := p.HashTreeRoot()
	if err != nil {
		return [32]byte{}
	}
	return root
}

// HashTreeRoot ssz hashes the Proof's rule and public input.
func (p *Proof) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the Proof's rule and public input with a hasher.
func (p *Proof) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutUint64(uint64(p.Rule))
	if err := p.PublicInput.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// GetTree ssz hashes the Proof object.
func (p *Proof) GetTree() (*ssz.Node, error) {
	return ssz.ProofTree(p)
}

func (p *Proof) String() string {
	id := p.ID()
	return fmt.Sprintf("Proof{%s num=%s id=%x}", p.Rule, p.PublicInput.Num.String(), id[:4])
}

// MarshalBinary encodes the proof as a snappy-compressed SSZ envelope
// {rule, public input, groth16 proof}.
func (p *Proof) MarshalBinary() ([]byte, error) {
	if p.raw == nil {
		return nil, fmt.Errorf("marshal proof: no proof data")
	}
	var raw bytes.Buffer
	if _, err := p.raw.WriteTo(&raw); err != nil {
		return nil, fmt.Errorf("marshal proof: %w", err)
	}
	env := &envelope{Rule: uint64(p.Rule), PublicInput: &p.PublicInput, Proof: raw.Bytes()}
	enc, err := env.MarshalSSZTo(make([]byte, 0, env.SizeSSZ()))
	if err != nil {
		return nil, fmt.Errorf("marshal proof: %w", err)
	}
	return snappy.Encode(nil, enc), nil
}

// UnmarshalProof decodes a proof produced by MarshalBinary. The envelope must
// hold a header shaped for params; whether the proof verifies is a separate
// question for Verify.
func UnmarshalProof(params config.Params, data []byte) (*Proof, error) {
	dec, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("decompress proof: %w", err)
	}
	var env envelope
	if err := env.UnmarshalSSZ(dec); err != nil {
		return nil, fmt.Errorf("decode proof envelope: %w", err)
	}
	rule := Rule(env.Rule)
	if env.Rule > uint64(RuleStep) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRule, env.Rule)
	}
	if err := checkShape(params, *env.PublicInput); err != nil {
		return nil, err
	}

	raw := groth16.NewProof(ecc.BN254)
	if _, err := raw.ReadFrom(bytes.NewReader(env.Proof)); err != nil {
		return nil, fmt.Errorf("decode groth16 proof: %w", err)
	}
	return &Proof{Rule: rule, PublicInput: *env.PublicInput, raw: raw}, nil
}

// envelope is the wire form of a Proof.
type envelope struct {
	Rule        uint64
	PublicInput *types.Header
	Proof       []byte `ssz-max:"4096"`
}

// SizeSSZ returns the ssz encoded size in bytes for the envelope object.
func (e *envelope) SizeSSZ() int {
	return envelopeFixedSize + e.PublicInput.SizeSSZ() + len(e.Proof)
}

// MarshalSSZTo ssz marshals the envelope object to a target array.
func (e *envelope) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	if size := len(e.Proof); size > maxProofBytes {
		return nil, ssz.ErrBytesLengthFn("envelope.Proof", size, maxProofBytes)
	}

	// Field (0) 'Rule'
	dst = ssz.MarshalUint64(dst, e.Rule)

	// Offset (1) 'PublicInput'
	offset := envelopeFixedSize
	dst = ssz.WriteOffset(dst, offset)
	offset += e.PublicInput.SizeSSZ()

	// Offset (2) 'Proof'
	dst = ssz.WriteOffset(dst, offset)

	// Field (1) 'PublicInput'
	if dst, err = e.PublicInput.MarshalSSZTo(dst); err != nil {
		return nil, err
	}

	// Field (2) 'Proof'
	dst = append(dst, e.Proof...)
	return dst, nil
}

// UnmarshalSSZ ssz unmarshals the envelope object.
func (e *envelope) UnmarshalSSZ(buf []byte) error {
	size := uint64(len(buf))
	if size < envelopeFixedSize {
		return ssz.ErrSize
	}

	e.Rule = ssz.UnmarshallUint64(buf[0:8])

	o1 := ssz.ReadOffset(buf[8:12])
	o2 := ssz.ReadOffset(buf[12:16])
	if o1 != envelopeFixedSize || o2 < o1 || o2 > size {
		return ssz.ErrOffset
	}

	e.PublicInput = new(types.Header)
	if err := e.PublicInput.UnmarshalSSZ(buf[o1:o2]); err != nil {
		return err
	}

	proof := buf[o2:]
	if len(proof) > maxProofBytes {
		return ssz.ErrBytesLengthFn("envelope.Proof", len(proof), maxProofBytes)
	}
	e.Proof = append([]byte(nil), proof...)
	return nil
}
