// Package config holds the compile-time policy shared by the header model and
// the header-chain circuits.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"gopkg.in/yaml.v3"
)

// Field geometry of the BN254 scalar field.
const (
	FieldBits = fr.Bits       // bits needed to represent any element
	Capacity  = FieldBits - 1 // bits that can be packed without wrapping
)

var ErrInvalidParams = errors.New("invalid params")

// Params is the policy a header chain is built and proved under. A program
// compiled with one Params value only accepts headers shaped by it.
type Params struct {
	MaxValidators int `yaml:"max_validators"` // M: validator slots per header
	EpochSize     int `yaml:"epoch_size"`     // blocks per epoch
	TagBits       int `yaml:"tag_bits"`       // H: header-hash prefix width in a token
	IDBits        int `yaml:"id_bits"`        // V: validator id width in a token
}

// Default returns the parameters of the reference chain: two validators,
// rotation every second block, 8+5 bit attestation tokens.
func Default() Params {
	return Params{
		MaxValidators: 2,
		EpochSize:     2,
		TagBits:       8,
		IDBits:        5,
	}
}

// SigBits is the width of one packed attestation token.
func (p Params) SigBits() int { return p.TagBits + p.IDBits }

// UniverseSize is the number of addressable validator identities.
func (p Params) UniverseSize() int {
	if p.SigBits() <= 0 {
		return 0
	}
	return Capacity / p.SigBits()
}

// PublicInputSize is the length of a header's field vector.
func (p Params) PublicInputSize() int { return 4 + 2*p.MaxValidators }

// Validate checks that every encoding derived from p fits in a field element.
func (p Params) Validate() error {
	switch {
	case p.MaxValidators < 1:
		return fmt.Errorf("%w: max_validators %d < 1", ErrInvalidParams, p.MaxValidators)
	case p.EpochSize < 1:
		return fmt.Errorf("%w: epoch_size %d < 1", ErrInvalidParams, p.EpochSize)
	case p.TagBits < 1 || p.IDBits < 1:
		return fmt.Errorf("%w: tag_bits %d, id_bits %d", ErrInvalidParams, p.TagBits, p.IDBits)
	case p.SigBits() > Capacity:
		return fmt.Errorf("%w: token needs %d bits, field holds %d", ErrInvalidParams, p.SigBits(), Capacity)
	case p.MaxValidators*p.IDBits > Capacity:
		return fmt.Errorf("%w: rotation payload needs %d bits, field holds %d",
			ErrInvalidParams, p.MaxValidators*p.IDBits, Capacity)
	case p.MaxValidators > p.UniverseSize():
		return fmt.Errorf("%w: max_validators %d exceeds universe %d",
			ErrInvalidParams, p.MaxValidators, p.UniverseSize())
	case p.IDBits < 63 && uint64(p.UniverseSize()) >= uint64(1)<<p.IDBits:
		return fmt.Errorf("%w: universe %d not addressable with %d id bits",
			ErrInvalidParams, p.UniverseSize(), p.IDBits)
	}
	return nil
}

// LoadParams reads a params YAML file. Keys left out keep their defaults.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read params: %w", err)
	}
	return ParseParams(data)
}

// ParseParams decodes and validates params YAML.
func ParseParams(data []byte) (Params, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parse params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
