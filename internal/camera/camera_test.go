package camera

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

func writeDump(t *testing.T, dir, name string, words []uint16) {
	t.Helper()
	buf := make([]byte, len(words)*2)
	for i, v := range words {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReplaySourceCyclesFrames(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "001.rgb565", []uint16{0x0000, 0xFFFF, 0xF800, 0x07E0})
	writeDump(t, dir, "002.rgb565", []uint16{0x001F, 0x001F, 0x001F, 0x001F})

	src, err := OpenReplay(dir, 2, 2)
	if err != nil {
		t.Fatalf("OpenReplay: %v", err)
	}
	defer src.Close()

	first, err := src.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if first.FrameNum != 1 || first.Width != 2 || first.Height != 2 {
		t.Fatalf("first frame = %+v", first)
	}
	if binary.LittleEndian.Uint16(first.Pix[2:]) != 0xFFFF {
		t.Errorf("first frame pixel 1 = %04x", binary.LittleEndian.Uint16(first.Pix[2:]))
	}
	src.Release(first)

	second, err := src.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if binary.LittleEndian.Uint16(second.Pix) != 0x001F {
		t.Errorf("second frame pixel 0 = %04x", binary.LittleEndian.Uint16(second.Pix))
	}
	src.Release(second)

	// Playback loops back to the first dump.
	third, err := src.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if binary.LittleEndian.Uint16(third.Pix[2:]) != 0xFFFF {
		t.Errorf("loop did not restart at first dump")
	}
	if third.FrameNum != 3 {
		t.Errorf("frame numbers must keep increasing across loops, got %d", third.FrameNum)
	}
	src.Release(third)
}

func TestReplaySourceRejectsBadGeometry(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "short.rgb565", []uint16{0x0000, 0x0000})

	src, err := OpenReplay(dir, 2, 2)
	if err != nil {
		t.Fatalf("OpenReplay: %v", err)
	}
	if _, err := src.Acquire(); err == nil {
		t.Fatal("undersized dump accepted")
	}
}

func TestOpenReplayEmptyDir(t *testing.T) {
	if _, err := OpenReplay(t.TempDir(), 2, 2); err == nil {
		t.Fatal("empty directory accepted")
	}
}

func TestFramePoolReuse(t *testing.T) {
	f := getFrame(4, 4)
	if len(f.Pix) != 32 {
		t.Fatalf("pooled frame has %d bytes", len(f.Pix))
	}
	f.Pix[0] = 0xAA
	putFrame(f)

	g := getFrame(4, 4)
	if len(g.Pix) != 32 {
		t.Fatalf("recycled frame has %d bytes", len(g.Pix))
	}
	// A smaller geometry reslices the same backing storage.
	putFrame(g)
	h := getFrame(2, 2)
	if len(h.Pix) != 8 {
		t.Fatalf("resliced frame has %d bytes", len(h.Pix))
	}
	putFrame(h)
}

func TestToImageExpandsLikeInferencePath(t *testing.T) {
	pix := make([]byte, 4)
	binary.LittleEndian.PutUint16(pix[0:], 0xF800) // pure red
	binary.LittleEndian.PutUint16(pix[2:], 0x07E0) // pure green
	f := &types.RawFrame{Pix: pix, Width: 2, Height: 1}

	img, err := ToImage(f)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	if img.Pix[0] != 248 || img.Pix[1] != 0 || img.Pix[2] != 0 {
		t.Errorf("red pixel = %v", img.Pix[0:4])
	}
	if img.Pix[4] != 0 || img.Pix[5] != 252 || img.Pix[6] != 0 {
		t.Errorf("green pixel = %v", img.Pix[4:8])
	}

	var buf bytes.Buffer
	if err := WriteBMP(&buf, f); err != nil {
		t.Fatalf("WriteBMP: %v", err)
	}
	if buf.Len() == 0 || buf.Bytes()[0] != 'B' || buf.Bytes()[1] != 'M' {
		t.Errorf("BMP output missing signature")
	}
}
