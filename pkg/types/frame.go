package types

import "time"

// RawFrame represents one captured RGB565 frame with metadata.
// The pixel buffer is owned by the frame source that produced it; callers
// hand it back via the source's Release once conversion is done and must
// not touch Pix afterwards.
type RawFrame struct {
	Pix       []byte    // Packed RGB565 pixels, little-endian, row-major
	Width     int       // Frame width in pixels
	Height    int       // Frame height in pixels
	Timestamp time.Time // Capture timestamp (source time)
	FrameNum  uint64    // Sequential frame number assigned by the source
}

// PixelCount returns the number of pixels in the frame.
func (f *RawFrame) PixelCount() int {
	return f.Width * f.Height
}

// DoorState is the binary outcome of one decision cycle.
type DoorState int

const (
	DoorClosed DoorState = iota
	DoorOpen
)

// String returns the human-readable state name.
func (s DoorState) String() string {
	switch s {
	case DoorOpen:
		return "DOOR_OPEN"
	case DoorClosed:
		return "DOOR_CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DecisionResult carries one completed cycle's outcome to notification sinks.
type DecisionResult struct {
	State       DoorState `json:"-"`
	StateName   string    `json:"state"`
	ClosedScore float64   `json:"closed_score"` // De-quantized closed-class score
	OpenScore   float64   `json:"open_score"`   // De-quantized open-class score
	RawClosed   int8      `json:"raw_closed"`   // Quantized closed-class output
	RawOpen     int8      `json:"raw_open"`     // Quantized open-class output
	FrameNum    uint64    `json:"frame_num"`
	CapturedAt  time.Time `json:"captured_at"`
	DecidedAt   time.Time `json:"decided_at"`
}
