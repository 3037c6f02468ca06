package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

// ReplaySource plays back raw RGB565 frame dumps from a directory, in
// filename order, looping forever. Used for bench work against captured
// frames when no sensor is attached.
type ReplaySource struct {
	paths  []string
	next   int
	width  int
	height int
	seq    uint64
}

// OpenReplay scans dir for .rgb565 dumps.
func OpenReplay(dir string, width, height int) (*ReplaySource, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.rgb565"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no .rgb565 frame dumps in %s", dir)
	}
	sort.Strings(matches)

	logger.Info("Camera", "Replaying %d frames from %s", len(matches), dir)
	return &ReplaySource{paths: matches, width: width, height: height}, nil
}

// Acquire loads the next dump into a pooled buffer.
func (r *ReplaySource) Acquire() (*types.RawFrame, error) {
	path := r.paths[r.next]
	r.next = (r.next + 1) % len(r.paths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := checkGeometry(r.width, r.height, len(data)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	frame := getFrame(r.width, r.height)
	copy(frame.Pix, data)
	frame.Timestamp = time.Now()
	r.seq++
	frame.FrameNum = r.seq
	return frame, nil
}

// Release returns the frame buffer to the pool.
func (r *ReplaySource) Release(f *types.RawFrame) { putFrame(f) }

// Close is a no-op for replay.
func (r *ReplaySource) Close() error { return nil }

var _ Source = (*ReplaySource)(nil)
