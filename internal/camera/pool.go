package camera

import (
	"sync"

	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

// Reusable frame pool so steady-state cycles allocate no frame buffers.
// Sources take a frame per Acquire and put it back when the caller
// Releases it. If a caller never releases, behavior degrades gracefully
// to plain allocation.

var framePool sync.Pool // stores *types.RawFrame

// getFrame returns a RawFrame whose Pix slice has capacity for a
// width×height RGB565 payload. Pix length is set exactly.
func getFrame(width, height int) *types.RawFrame {
	need := width * height * 2
	var f *types.RawFrame
	if v := framePool.Get(); v != nil {
		f = v.(*types.RawFrame)
	}
	if f == nil || cap(f.Pix) < need {
		f = &types.RawFrame{Pix: make([]byte, need)}
	} else {
		f.Pix = f.Pix[:need]
	}
	f.Width = width
	f.Height = height
	f.FrameNum = 0
	return f
}

// putFrame returns the frame to the pool. The caller must not access it
// after this call.
func putFrame(f *types.RawFrame) {
	if f == nil || f.Pix == nil {
		return
	}
	framePool.Put(f)
}
