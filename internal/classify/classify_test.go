package classify

import (
	"testing"

	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

func TestDequantize(t *testing.T) {
	q := QuantParams{Scale: 1.0 / 128.0, ZeroPoint: -2}

	cases := []struct {
		raw  int8
		want float64
	}{
		{-2, 0},
		{126, 1.0},
		{-128, -0.984375},
		{120, 0.953125},
	}
	for _, c := range cases {
		if got := Dequantize(c.raw, q); got != c.want {
			t.Errorf("Dequantize(%d) = %v, want %v", c.raw, got, c.want)
		}
	}
}

// Dequantize is pure: identical inputs must yield bit-identical outputs.
func TestDequantizeDeterministic(t *testing.T) {
	q := QuantParams{Scale: 0.00390625, ZeroPoint: -128}
	for raw := -128; raw <= 127; raw++ {
		a := Dequantize(int8(raw), q)
		b := Dequantize(int8(raw), q)
		if a != b {
			t.Fatalf("Dequantize(%d) not deterministic: %v vs %v", raw, a, b)
		}
	}
}

func TestPolicyThresholdBoundary(t *testing.T) {
	p := NewPolicy(0)
	if p.ClosedThreshold != 0.55 {
		t.Fatalf("default threshold = %v, want 0.55", p.ClosedThreshold)
	}

	// Exactly at the threshold the door counts as closed.
	if got := p.Decide(0.55); got != types.DoorClosed {
		t.Errorf("Decide(0.55) = %v, want DOOR_CLOSED", got)
	}
	if got := p.Decide(0.5499999); got != types.DoorOpen {
		t.Errorf("Decide(just below) = %v, want DOOR_OPEN", got)
	}
}

func TestPolicyReferenceScenarios(t *testing.T) {
	// Descriptor chosen so the raw closed outputs land on the documented
	// reference scores: 120 -> ~0.95 and 80 -> ~0.31.
	p := NewPolicy(0.55)
	q := QuantParams{Scale: 0.0161, ZeroPoint: 61}

	scenarios := []struct {
		rawClosed   int8
		rawOpen     int8
		approxScore float64
		want        types.DoorState
	}{
		{120, 115, 0.95, types.DoorClosed},
		{80, 127, 0.31, types.DoorOpen},
	}
	for _, s := range scenarios {
		closed := Dequantize(s.rawClosed, q)
		if diff := closed - s.approxScore; diff > 0.01 || diff < -0.01 {
			t.Fatalf("closed score for raw %d = %v, want ~%v", s.rawClosed, closed, s.approxScore)
		}
		if got := p.Decide(closed); got != s.want {
			t.Errorf("Decide(raw Closed=%d, Open=%d) = %v, want %v", s.rawClosed, s.rawOpen, got, s.want)
		}
	}
}
