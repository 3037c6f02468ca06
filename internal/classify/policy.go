package classify

import "github.com/kris2475/Image-Classification-using-TinyML/pkg/types"

// DefaultClosedThreshold is the reference deployment's threshold on the
// closed-class score.
const DefaultClosedThreshold = 0.55

// Policy maps one cycle's de-quantized score pair to a door state.
//
// The rule thresholds the CLOSED-class score, not the open-class one:
// under the deployed sensor's fixed gain/exposure the closed score stays
// stable across lighting while the open score drifts into the noise floor.
// When the door opens, the closed score drops; that drop is the signal.
//
// Do not rewrite this as `open >= threshold`. The two outputs are
// independent logistic activations, not a softmax pair, so they do not sum
// to one and the substitution changes behavior. It was tried on hardware
// and misclassified under bright light.
type Policy struct {
	ClosedThreshold float64
}

// NewPolicy returns a Policy with the given threshold, or the reference
// threshold when t is zero.
func NewPolicy(t float64) Policy {
	if t == 0 {
		t = DefaultClosedThreshold
	}
	return Policy{ClosedThreshold: t}
}

// Decide returns DOOR_OPEN when the closed-class score has dropped below
// the threshold, DOOR_CLOSED otherwise. A score exactly at the threshold
// is DOOR_CLOSED.
func (p Policy) Decide(closedScore float64) types.DoorState {
	if closedScore < p.ClosedThreshold {
		return types.DoorOpen
	}
	return types.DoorClosed
}
