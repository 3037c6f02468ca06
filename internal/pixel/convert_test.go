package pixel

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

func frameFromWords(t *testing.T, w, h int, words []uint16) *types.RawFrame {
	t.Helper()
	if len(words) != w*h {
		t.Fatalf("test frame needs %d words, got %d", w*h, len(words))
	}
	pix := make([]byte, len(words)*2)
	for i, v := range words {
		binary.LittleEndian.PutUint16(pix[i*2:], v)
	}
	return &types.RawFrame{Pix: pix, Width: w, Height: h, Timestamp: time.Now()}
}

func TestConvertKnownPixels(t *testing.T) {
	// Black, white, pure red, pure green, pure blue, mid gray.
	words := []uint16{
		0x0000,
		0xFFFF,
		0xF800,
		0x07E0,
		0x001F,
		Pack(128, 128, 128),
	}
	frame := frameFromWords(t, 6, 1, words)
	dst := make([]int8, TensorLen(6, 1))
	if err := Convert(frame, dst); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	want := []int8{
		-128, -128, -128, // black
		120, 124, 120, // white: bit-shift expansion tops out below 255
		120, -128, -128, // red
		-128, 124, -128, // green
		-128, -128, 120, // blue
		0, 0, 0, // mid gray
	}
	for i, w := range want {
		if dst[i] != w {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], w)
		}
	}
}

// Every channel value must land in the signed 8-bit domain, and mapping it
// back to unsigned then re-truncating to the source field width must
// reproduce the original 5- or 6-bit field exactly.
func TestConvertRoundTripFields(t *testing.T) {
	const w, h = 64, 16 // 1024 pixels, enough to sweep all field values
	words := make([]uint16, w*h)
	for i := range words {
		r5 := uint16(i) % 32
		g6 := uint16(i * 7 % 64)
		b5 := uint16(i * 13 % 32)
		words[i] = r5<<11 | g6<<5 | b5
	}
	frame := frameFromWords(t, w, h, words)
	dst := make([]int8, TensorLen(w, h))
	if err := Convert(frame, dst); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	for i, v := range words {
		r := int(dst[i*3+0]) + 128
		g := int(dst[i*3+1]) + 128
		b := int(dst[i*3+2]) + 128
		for _, c := range []int{r, g, b} {
			if c < 0 || c > 255 {
				t.Fatalf("pixel %d: channel %d out of byte range", i, c)
			}
		}
		if uint16(r>>3) != v>>11 {
			t.Errorf("pixel %d: red field %d, want %d", i, r>>3, v>>11)
		}
		if uint16(g>>2) != v>>5&0x3F {
			t.Errorf("pixel %d: green field %d, want %d", i, g>>2, v>>5&0x3F)
		}
		if uint16(b>>3) != v&0x1F {
			t.Errorf("pixel %d: blue field %d, want %d", i, b>>3, v&0x1F)
		}
	}
}

func TestConvertInterleavedOrder(t *testing.T) {
	// Two pixels with distinct fields; the output must be R0 G0 B0 R1 G1 B1.
	words := []uint16{Pack(8, 16, 24), Pack(248, 240, 232)}
	frame := frameFromWords(t, 2, 1, words)
	dst := make([]int8, TensorLen(2, 1))
	if err := Convert(frame, dst); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := []int8{8 - 128, 16 - 128, 24 - 128, 248 - 128, 240 - 128, 232 - 128}
	for i, w := range want {
		if dst[i] != w {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], w)
		}
	}
}

func TestConvertRejectsBadInput(t *testing.T) {
	dst := make([]int8, TensorLen(2, 2))

	if err := Convert(nil, dst); err == nil {
		t.Error("nil frame accepted")
	}
	if err := Convert(&types.RawFrame{Width: 2, Height: 2}, dst); err == nil {
		t.Error("frame without buffer accepted")
	}

	short := &types.RawFrame{Pix: make([]byte, 6), Width: 2, Height: 2}
	if err := Convert(short, dst); err == nil {
		t.Error("truncated frame buffer accepted")
	}

	ok := &types.RawFrame{Pix: make([]byte, 8), Width: 2, Height: 2}
	if err := Convert(ok, dst[:3]); err == nil {
		t.Error("undersized tensor buffer accepted")
	}
	if err := Convert(ok, dst); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}
