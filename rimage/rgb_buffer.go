package rimage

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
)

// RGBBuffer is a row-major buffer of packed 8-bit RGB triplets with a stride of width*3 and no
// alpha channel. It is the layout camera SDKs hand out for RGB8 streams.
type RGBBuffer struct {
	width, height int
	pix           []byte
}

// NewRGBBuffer returns a black buffer of the given size.
func NewRGBBuffer(width, height int) *RGBBuffer {
	return &RGBBuffer{width: width, height: height, pix: make([]byte, width*height*3)}
}

// NewRGBBufferFromBytes copies raw packed RGB bytes into a new buffer.
func NewRGBBufferFromBytes(width, height int, pix []byte) (*RGBBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("bad width or height for color buffer %v %v", width, height)
	}
	if len(pix) != width*height*3 {
		return nil, errors.Errorf("color buffer has %d bytes, expected %d x %d x 3", len(pix), width, height)
	}
	b := NewRGBBuffer(width, height)
	copy(b.pix, pix)
	return b, nil
}

// ConvertToRGBBuffer flattens any image into packed RGB, dropping alpha.
func ConvertToRGBBuffer(img image.Image) *RGBBuffer {
	if b, ok := img.(*RGBBuffer); ok {
		return b
	}
	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}
	out := NewRGBBuffer(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.height; y++ {
		for x := 0; x < out.width; x++ {
			i := nrgba.PixOffset(x, y)
			j := out.offset(x, y)
			copy(out.pix[j:j+3], nrgba.Pix[i:i+3])
		}
	}
	return out
}

func (b *RGBBuffer) offset(x, y int) int {
	return (y*b.width + x) * 3
}

// Width returns the horizontal size.
func (b *RGBBuffer) Width() int {
	return b.width
}

// Height returns the vertical size.
func (b *RGBBuffer) Height() int {
	return b.height
}

// Stride returns the number of bytes per row.
func (b *RGBBuffer) Stride() int {
	return b.width * 3
}

// Pix returns the packed backing bytes. It is not a copy.
func (b *RGBBuffer) Pix() []byte {
	return b.pix
}

// RGBAt returns the channels at (x, y).
func (b *RGBBuffer) RGBAt(x, y int) (uint8, uint8, uint8) {
	i := b.offset(x, y)
	return b.pix[i], b.pix[i+1], b.pix[i+2]
}

// SetRGB writes the channels at (x, y).
func (b *RGBBuffer) SetRGB(x, y int, r, g, bl uint8) {
	i := b.offset(x, y)
	b.pix[i], b.pix[i+1], b.pix[i+2] = r, g, bl
}

// ColorModel implements image.Image.
func (b *RGBBuffer) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements image.Image.
func (b *RGBBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// At implements image.Image.
func (b *RGBBuffer) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(b.Bounds())) {
		return color.NRGBA{}
	}
	r, g, bl := b.RGBAt(x, y)
	return color.NRGBA{r, g, bl, 255}
}

// ToNRGBA expands the buffer into an opaque NRGBA image for encoders that need one.
func (b *RGBBuffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(b.Bounds())
	for i, j := 0, 0; i < len(b.pix); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = b.pix[i], b.pix[i+1], b.pix[i+2], 255
	}
	return img
}

// Opaque is always true; encoders use it to write three channel images.
func (b *RGBBuffer) Opaque() bool {
	return true
}
