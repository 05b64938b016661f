package headerchain

import (
	"testing"

	"github.com/geanlabs/zkheaders/types"
)

func TestStep_AcceptsSuccessor(t *testing.T) {
	p := testParams(2, 2)
	g := types.Genesis(p)
	h1 := successor(t, p, g, nil)
	if err := solveStep(p, h1, g); err != nil {
		t.Fatalf("h1 rejected: %v", err)
	}
}

func TestStep_Linkage(t *testing.T) {
	p := testParams(2, 100)
	g := types.Genesis(p)
	h1 := successor(t, p, g, nil)

	bad := makeHeader(t, p, 1, types.HashFields(types.NewField(42)), h1.Data, h1.Extra, h1.Vals)
	bad = bad.Sign(p, g.Vals)
	if err := solveStep(p, bad, g); err == nil {
		t.Error("step accepted a header not linked to its predecessor")
	}

	// a header linked to the right hash but proved against another predecessor
	other := makeHeader(t, p, 0, types.Field{}, types.NewField(9), types.Field{}, g.Vals)
	if err := solveStep(p, h1, other); err == nil {
		t.Error("step accepted a header against the wrong predecessor")
	}
}

func TestStep_Numbering(t *testing.T) {
	p := testParams(2, 100)
	prev := makeHeader(t, p, 5, types.HashFields(types.NewField(1)), types.NewField(5), types.Field{},
		types.Universe(p)[:2])

	tests := []struct {
		num  uint64
		want bool
	}{
		{4, false},
		{5, false},
		{6, true},
		{7, false},
	}
	for _, tt := range tests {
		h := makeHeader(t, p, tt.num, prev.Hash(), types.NewField(tt.num), types.Field{}, prev.Vals)
		h = h.Sign(p, prev.Vals)
		err := solveStep(p, h, prev)
		if got := err == nil; got != tt.want {
			t.Errorf("num=%d after 5: accepted = %v, want %v (%v)", tt.num, got, tt.want, err)
		}
	}
}

func TestStep_QuorumBoundary(t *testing.T) {
	const m = 7
	p := testParams(m, 100)
	universe := types.Universe(p)

	for e := 1; e <= m; e++ {
		prev := makeHeader(t, p, 10, types.HashFields(types.NewField(uint64(e))), types.Field{}, types.Field{},
			universe[:e])
		signed := successor(t, p, prev, nil)
		threshold := (2*e + 2) / 3

		if err := solveStep(p, withValidTokens(signed, threshold), prev); err != nil {
			t.Errorf("e=%d: %d valid tokens rejected: %v", e, threshold, err)
		}
		if err := solveStep(p, withValidTokens(signed, threshold-1), prev); err == nil {
			t.Errorf("e=%d: %d valid tokens accepted, threshold %d", e, threshold-1, threshold)
		}
	}
}

func TestStep_EmptyValidatorSet(t *testing.T) {
	p := testParams(3, 100)
	prev := makeHeader(t, p, 3, types.HashFields(types.NewField(3)), types.Field{}, types.Field{}, nil)
	h := successor(t, p, prev, nil)
	if err := solveStep(p, h, prev); err != nil {
		t.Errorf("no eligible validators means a zero threshold: %v", err)
	}
}

func TestStep_InvalidTokensDoNotCount(t *testing.T) {
	p := testParams(3, 100)
	g := types.Genesis(p)
	h1 := successor(t, p, g, nil) // e = 3, threshold 2
	hash := h1.Hash()

	var otherHash types.Field
	otherHash.SetUint64(hash.Uint64() ^ 1) // differs in the lowest tag bit

	tests := []struct {
		name string
		sig  types.Field
	}{
		{"wrong tag", types.NewSig(p, otherHash, g.Vals[1]).Field()},
		{"wrong validator", types.NewSig(p, hash, g.Vals[2]).Field()},
		{"zero id", types.NewSig(p, hash, types.Field{}).Field()},
		{"outsider", types.NewSig(p, hash, types.NewField(15)).Field()},
		{"empty", types.Field{}},
	}
	for _, tt := range tests {
		h := withValidTokens(h1, 1)
		h.Sigs[1] = tt.sig
		if err := solveStep(p, h, g); err == nil {
			t.Errorf("%s: token counted towards quorum", tt.name)
		}
	}

	// high bits above the token width are ignored
	h := withValidTokens(h1, 2)
	var high types.Field
	high.SetUint64(1 << 40)
	h.Sigs[1].Add(&h.Sigs[1], &high)
	if err := solveStep(p, h, g); err != nil {
		t.Errorf("token with high bits set rejected: %v", err)
	}
}

func TestStep_EpochRotation(t *testing.T) {
	p := testParams(2, 2)
	g := types.Genesis(p)
	h1 := successor(t, p, g, nil)
	rotated := []types.Field{types.NewField(5), types.NewField(9)}

	h2 := successor(t, p, h1, rotated)
	if err := solveStep(p, h2, h1); err != nil {
		t.Fatalf("rotated h2 rejected: %v", err)
	}

	flip := func(extra types.Field, bit int) types.Field {
		bits := types.Unpack(extra, p.MaxValidators*p.IDBits)
		bits[bit] = !bits[bit]
		x, err := types.Pack(bits)
		if err != nil {
			t.Fatal(err)
		}
		return x
	}
	oldSet, _ := types.EncodeRotation(p, h1.Vals)

	tests := []struct {
		name  string
		extra types.Field
	}{
		{"chunk 0 differs", flip(h2.Extra, 0)},
		{"chunk 1 differs", flip(h2.Extra, p.IDBits+4)},
		{"no payload", types.Field{}},
		{"payload of the old set", oldSet},
	}
	for _, tt := range tests {
		bad := makeHeader(t, p, 2, h1.Hash(), h2.Data, tt.extra, rotated).Sign(p, h1.Vals)
		if err := solveStep(p, bad, h1); err == nil {
			t.Errorf("%s: boundary header accepted", tt.name)
		}
	}
}

func TestStep_NonBoundary(t *testing.T) {
	p := testParams(2, 2)
	g := types.Genesis(p)
	h1 := successor(t, p, g, nil)
	h2 := successor(t, p, h1, []types.Field{types.NewField(5), types.NewField(9)})

	for _, extra := range []types.Field{{}, types.NewField(0x3ff), types.HashFields(types.NewField(7))} {
		h3 := makeHeader(t, p, 3, h2.Hash(), types.NewField(3), extra, h2.Vals).Sign(p, h2.Vals)
		if err := solveStep(p, h3, h2); err != nil {
			t.Errorf("extra=%s: non-boundary header rejected: %v", extra.String(), err)
		}
	}

	// outside a boundary the rotation check is skipped, whatever vals hold
	swapped := makeHeader(t, p, 3, h2.Hash(), types.NewField(3), types.Field{},
		[]types.Field{types.NewField(1), types.NewField(2)}).Sign(p, h2.Vals)
	if err := solveStep(p, swapped, h2); err != nil {
		t.Errorf("non-boundary header with a changed set rejected: %v", err)
	}

	// h4 is still checked against the set h3 carries
	h4 := successor(t, p, swapped, []types.Field{types.NewField(5), types.NewField(9)})
	if err := solveStep(p, h4, swapped); err != nil {
		t.Errorf("h4 signed by h3's set rejected: %v", err)
	}
	if err := solveStep(p, h4.Sign(p, h2.Vals), swapped); err == nil {
		t.Error("h4 signed by the outgoing set of h2 accepted")
	}
}

func TestStep_EpochSizeOne(t *testing.T) {
	p := testParams(2, 1)
	g := types.Genesis(p)
	h1 := successor(t, p, g, []types.Field{types.NewField(3), types.NewField(4)})
	if err := solveStep(p, h1, g); err != nil {
		t.Fatalf("every header is a boundary with epoch size 1: %v", err)
	}
	h1.Extra = types.Field{}
	if err := solveStep(p, h1.Sign(p, g.Vals), g); err == nil {
		t.Error("missing rotation payload accepted")
	}
}
