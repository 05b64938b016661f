package types

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/geanlabs/zkheaders/config"
)

var ErrValidatorCount = errors.New("invalid validator count")

// Universe returns every addressable validator identity, 1..UniverseSize.
// Zero is reserved for empty slots.
func Universe(p config.Params) []Field {
	out := make([]Field, p.UniverseSize())
	for i := range out {
		out[i] = NewField(uint64(i + 1))
	}
	return out
}

// RandomValidators draws n distinct identities from the universe, returned in
// universe order.
func RandomValidators(p config.Params, rng *rand.Rand, n int) ([]Field, error) {
	u := p.UniverseSize()
	if n < 0 || n > u || n > p.MaxValidators {
		return nil, fmt.Errorf("%w: %d (universe %d, slots %d)", ErrValidatorCount, n, u, p.MaxValidators)
	}
	picked := rng.Perm(u)[:n]
	sort.Ints(picked)

	universe := Universe(p)
	out := make([]Field, n)
	for i, idx := range picked {
		out[i] = universe[idx]
	}
	return out, nil
}

// EncodeRotation packs the low IDBits of each of the MaxValidators (padded)
// vals into one field element: slot i occupies bits [i*IDBits, (i+1)*IDBits).
func EncodeRotation(p config.Params, vals []Field) (Field, error) {
	padded, err := pad(p, vals)
	if err != nil {
		return Field{}, err
	}
	bits := make([]bool, 0, p.MaxValidators*p.IDBits)
	for i := range padded {
		bits = append(bits, Unpack(padded[i], p.IDBits)...)
	}
	return Pack(bits)
}

// DecodeRotation splits extra into its MaxValidators chunks.
func DecodeRotation(p config.Params, extra Field) []Field {
	bits := Unpack(extra, p.MaxValidators*p.IDBits)
	out := make([]Field, p.MaxValidators)
	for i := range out {
		out[i] = mustPack(bits[i*p.IDBits : (i+1)*p.IDBits])
	}
	return out
}

// IsEpochBoundary reports whether the active set may rotate at num.
func IsEpochBoundary(p config.Params, num uint64) bool {
	return num%uint64(p.EpochSize) == 0
}
