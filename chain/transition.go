// Package chain drives a proved header chain: it builds successor headers the
// way validators would and extends the chain head one proof at a time.
package chain

import (
	"errors"
	"fmt"

	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/types"
)

var ErrRotationOffEpoch = errors.New("validator rotation outside an epoch boundary")

// NextHeader builds the successor of parent carrying data. At an epoch
// boundary the header installs rotate, or keeps the parent's set when rotate
// is nil, and encodes it into extra. The result is signed by every validator
// of the parent's set.
func NextHeader(p config.Params, parent types.Header, data types.Field, rotate []types.Field) (types.Header, error) {
	num := parent.NumUint64() + 1
	vals := parent.Vals

	var extra types.Field
	if types.IsEpochBoundary(p, num) {
		if rotate != nil {
			vals = rotate
		}
		var err error
		if extra, err = types.EncodeRotation(p, vals); err != nil {
			return types.Header{}, fmt.Errorf("header %d: %w", num, err)
		}
	} else if rotate != nil {
		return types.Header{}, fmt.Errorf("header %d: %w", num, ErrRotationOffEpoch)
	}

	h, err := types.NewHeader(p, types.NewField(num), parent.Hash(), data, extra, vals, nil)
	if err != nil {
		return types.Header{}, fmt.Errorf("header %d: %w", num, err)
	}
	return h.Sign(p, parent.Vals), nil
}
