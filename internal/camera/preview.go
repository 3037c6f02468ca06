package camera

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/bmp"

	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

// ToImage expands an RGB565 frame into an 8-bit RGBA image using the same
// bit-shift expansion the inference path uses, so the preview shows what
// the model sees.
func ToImage(f *types.RawFrame) (*image.RGBA, error) {
	if f == nil || f.Pix == nil {
		return nil, fmt.Errorf("no frame")
	}
	if err := checkGeometry(f.Width, f.Height, len(f.Pix)); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.PixelCount(); i++ {
		v := binary.LittleEndian.Uint16(f.Pix[i*2:])
		o := i * 4
		img.Pix[o+0] = uint8(v>>11) << 3
		img.Pix[o+1] = uint8(v>>5&0x3F) << 2
		img.Pix[o+2] = uint8(v&0x1F) << 3
		img.Pix[o+3] = 0xFF
	}
	return img, nil
}

// WriteBMP encodes the frame as BMP for the debug preview endpoint.
func WriteBMP(w io.Writer, f *types.RawFrame) error {
	img, err := ToImage(f)
	if err != nil {
		return err
	}
	return bmp.Encode(w, img)
}
