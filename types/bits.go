package types

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/geanlabs/zkheaders/config"
)

var ErrBitWidth = errors.New("bit sequence exceeds field capacity")

// Pack interprets bits as a little-endian binary number: bits[i] carries
// weight 2^i. This is the order the circuits' ToBinary/FromBinary use.
func Pack(bits []bool) (Field, error) {
	if len(bits) > config.Capacity {
		return Field{}, fmt.Errorf("%w: %d > %d", ErrBitWidth, len(bits), config.Capacity)
	}
	v := new(big.Int)
	for i, b := range bits {
		if b {
			v.SetBit(v, i, 1)
		}
	}
	return FieldFromBig(v), nil
}

// Unpack returns the low width bits of x, zero-extended when x is shorter.
func Unpack(x Field, width int) []bool {
	if width <= 0 {
		return nil
	}
	v := x.BigInt(new(big.Int))
	bits := make([]bool, width)
	for i := range bits {
		bits[i] = v.Bit(i) == 1
	}
	return bits
}

// LowBits truncates x to its low width bits.
func LowBits(x Field, width int) Field {
	return mustPack(Unpack(x, min(width, config.Capacity)))
}

// mustPack is Pack for widths already bounded by validated Params.
func mustPack(bits []bool) Field {
	x, err := Pack(bits)
	if err != nil {
		panic(fmt.Sprintf("types: %v", err))
	}
	return x
}
