package types

import (
	"fmt"

	ssz "github.com/ferranbt/fastssz"
	"github.com/geanlabs/zkheaders/config"
)

// maxSlots bounds the Vals and Sigs lists; no valid Params can address more
// validators than the field has bits.
const maxSlots = config.Capacity

// headerFixedSize is four 32-byte elements plus two list offsets.
const headerFixedSize = 4*32 + 2*4

// SSZ layout of a header:
//
//	Num, Prev, Data, Extra  Bytes32 (big-endian field elements)
//	Vals, Sigs              List[Bytes32, maxSlots]

// SizeSSZ returns the ssz encoded size in bytes for the Header object.
func (h *Header) SizeSSZ() int {
	return headerFixedSize + 32*len(h.Vals) + 32*len(h.Sigs)
}

// MarshalSSZ ssz marshals the Header object.
func (h *Header) MarshalSSZ() ([]byte, error) {
	return h.MarshalSSZTo(make([]byte, 0, h.SizeSSZ()))
}

// MarshalSSZTo ssz marshals the Header object to a target array.
func (h *Header) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	if size := len(h.Vals); size > maxSlots {
		return nil, ssz.ErrListTooBigFn("Header.Vals", size, maxSlots)
	}
	if size := len(h.Sigs); size > maxSlots {
		return nil, ssz.ErrListTooBigFn("Header.Sigs", size, maxSlots)
	}

	dst = appendField(dst, h.Num)
	dst = appendField(dst, h.Prev)
	dst = appendField(dst, h.Data)
	dst = appendField(dst, h.Extra)

	offset := headerFixedSize
	dst = ssz.WriteOffset(dst, offset)
	offset += 32 * len(h.Vals)
	dst = ssz.WriteOffset(dst, offset)

	for _, v := range h.Vals {
		dst = appendField(dst, v)
	}
	for _, s := range h.Sigs {
		dst = appendField(dst, s)
	}
	return dst, nil
}

// UnmarshalSSZ ssz unmarshals the Header object. Every element must be a
// canonical field encoding.
func (h *Header) UnmarshalSSZ(buf []byte) error {
	size := uint64(len(buf))
	if size < headerFixedSize {
		return ssz.ErrSize
	}

	var err error
	for i, dst := range []*Field{&h.Num, &h.Prev, &h.Data, &h.Extra} {
		if err = readField(dst, buf[i*32:(i+1)*32]); err != nil {
			return err
		}
	}

	o4 := ssz.ReadOffset(buf[128:132])
	o5 := ssz.ReadOffset(buf[132:136])
	if o4 != headerFixedSize || o5 < o4 || o5 > size {
		return ssz.ErrOffset
	}

	if h.Vals, err = readFieldList(buf[o4:o5]); err != nil {
		return fmt.Errorf("Header.Vals: %w", err)
	}
	if h.Sigs, err = readFieldList(buf[o5:]); err != nil {
		return fmt.Errorf("Header.Sigs: %w", err)
	}
	return nil
}

// HashTreeRoot ssz hashes the Header object.
func (h *Header) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the Header object with a hasher.
func (h *Header) HashTreeRootWith(hh ssz.HashWalker) (err error) {
	indx := hh.Index()

	for _, x := range []Field{h.Num, h.Prev, h.Data, h.Extra} {
		b := x.Bytes()
		hh.PutBytes(b[:])
	}

	for _, list := range [][]Field{h.Vals, h.Sigs} {
		subIndx := hh.Index()
		num := uint64(len(list))
		if num > maxSlots {
			err = ssz.ErrIncorrectListSize
			return
		}
		for _, x := range list {
			b := x.Bytes()
			hh.Append(b[:])
		}
		hh.MerkleizeWithMixin(subIndx, num, maxSlots)
	}

	hh.Merkleize(indx)
	return
}

// GetTree ssz hashes the Header object.
func (h *Header) GetTree() (*ssz.Node, error) {
	return ssz.ProofTree(h)
}

// DecodeHeader parses an SSZ header and checks it against p's shape.
func DecodeHeader(p config.Params, buf []byte) (Header, error) {
	var h Header
	if err := h.UnmarshalSSZ(buf); err != nil {
		return Header{}, err
	}
	if len(h.Vals) != p.MaxValidators || len(h.Sigs) != p.MaxValidators {
		return Header{}, fmt.Errorf("%w: %d vals, %d sigs, want %d",
			ErrHeaderShape, len(h.Vals), len(h.Sigs), p.MaxValidators)
	}
	return h, nil
}

func appendField(dst []byte, x Field) []byte {
	b := x.Bytes()
	return append(dst, b[:]...)
}

func readField(dst *Field, b []byte) error {
	if err := dst.SetBytesCanonical(b); err != nil {
		return fmt.Errorf("non-canonical field element: %w", err)
	}
	return nil
}

func readFieldList(buf []byte) ([]Field, error) {
	if len(buf)%32 != 0 {
		return nil, ssz.ErrSize
	}
	n := len(buf) / 32
	if n > maxSlots {
		return nil, ssz.ErrListTooBigFn("Header", n, maxSlots)
	}
	out := make([]Field, n)
	for i := range out {
		if err := readField(&out[i], buf[i*32:(i+1)*32]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
