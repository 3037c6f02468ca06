// Package camera provides RGB565 frame sources for the decision pipeline.
//
// A Source hands out one frame per Acquire and takes it back via Release;
// the pixel buffer belongs to the source and must not be read after
// release. All sources deliver a fixed geometry configured at open time.
package camera

import (
	"errors"
	"fmt"

	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

// ErrNoFrame reports that no frame was available within the source's
// acquisition window. It is a transient per-cycle condition, not a fault.
var ErrNoFrame = errors.New("no frame available")

// Source delivers raw RGB565 frames.
//
// Acquire blocks until a frame is available or fails; it never blocks
// indefinitely. Release returns the frame's buffer to the source for
// reuse; the frame must not be touched afterwards.
type Source interface {
	Acquire() (*types.RawFrame, error)
	Release(*types.RawFrame)
	Close() error
}

// Tuning holds the fixed sensor calibration the deployed model was
// trained under. These are not free runtime parameters: changing them
// invalidates the decision thresholds.
type Tuning struct {
	Gain     int
	Exposure int
}

// checkGeometry rejects frames whose payload does not match the source's
// configured geometry.
func checkGeometry(width, height, payload int) error {
	if want := width * height * 2; payload != want {
		return fmt.Errorf("frame payload is %d bytes, want %d for %dx%d RGB565", payload, want, width, height)
	}
	return nil
}
