package rimage

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestRGBBuffer(t *testing.T) {
	_, err := NewRGBBufferFromBytes(2, 2, make([]byte, 11))
	test.That(t, err, test.ShouldNotBeNil)

	pix := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	b, err := NewRGBBufferFromBytes(2, 2, pix)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Stride(), test.ShouldEqual, 6)
	test.That(t, len(b.Pix()), test.ShouldEqual, 2*2*3)

	r, g, bl := b.RGBAt(1, 1)
	test.That(t, []uint8{r, g, bl}, test.ShouldResemble, []uint8{10, 11, 12})
	test.That(t, b.At(0, 1), test.ShouldResemble, color.NRGBA{7, 8, 9, 255})
	test.That(t, b.At(5, 5), test.ShouldResemble, color.NRGBA{})

	// the source slice is copied
	pix[0] = 99
	r, _, _ = b.RGBAt(0, 0)
	test.That(t, r, test.ShouldEqual, uint8(1))

	nrgba := b.ToNRGBA()
	test.That(t, nrgba.NRGBAAt(1, 0), test.ShouldResemble, color.NRGBA{4, 5, 6, 255})
}

func TestConvertToRGBBuffer(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 13, 12))
	img.Set(12, 11, color.RGBA{200, 100, 50, 255})

	b := ConvertToRGBBuffer(img)
	test.That(t, b.Width(), test.ShouldEqual, 3)
	test.That(t, b.Height(), test.ShouldEqual, 2)
	r, g, bl := b.RGBAt(2, 1)
	test.That(t, []uint8{r, g, bl}, test.ShouldResemble, []uint8{200, 100, 50})

	test.That(t, ConvertToRGBBuffer(b), test.ShouldEqual, b)
}
