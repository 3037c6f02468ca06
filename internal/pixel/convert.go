// Package pixel converts packed RGB565 frames into the signed 8-bit
// interleaved tensor layout the quantized classifier expects.
package pixel

import (
	"encoding/binary"
	"fmt"

	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

// Channels is the number of color channels in the model input tensor.
const Channels = 3

// TensorLen returns the input tensor length for a given frame geometry.
func TensorLen(width, height int) int {
	return width * height * Channels
}

// Convert unpacks frame into dst as signed int8 values interleaved
// R, G, B per pixel in row-major order, overwriting dst in place.
//
// Each little-endian 16-bit pixel holds 5/6/5 red/green/blue fields.
// Fields are expanded to 8-bit range by left shift (lossy, low bits stay
// zero), then shifted from [0,255] onto [-128,127] by subtracting 128.
func Convert(frame *types.RawFrame, dst []int8) error {
	if frame == nil || frame.Pix == nil {
		return fmt.Errorf("no frame")
	}
	n := frame.PixelCount()
	if len(frame.Pix) != n*2 {
		return fmt.Errorf("frame buffer is %d bytes, want %d for %dx%d RGB565",
			len(frame.Pix), n*2, frame.Width, frame.Height)
	}
	if len(dst) != n*Channels {
		return fmt.Errorf("tensor buffer is %d elements, want %d", len(dst), n*Channels)
	}

	for i := 0; i < n; i++ {
		v := binary.LittleEndian.Uint16(frame.Pix[i*2:])
		r := uint8(v>>11) << 3 // 5-bit field to high bits of a byte
		g := uint8(v>>5&0x3F) << 2
		b := uint8(v&0x1F) << 3
		dst[i*3+0] = int8(int(r) - 128)
		dst[i*3+1] = int8(int(g) - 128)
		dst[i*3+2] = int8(int(b) - 128)
	}
	return nil
}

// Pack encodes one 8-bit RGB triple into a packed RGB565 word, truncating
// each channel to its field width. Used by the replay tooling and tests.
func Pack(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}
