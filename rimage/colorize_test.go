package rimage

import (
	"testing"

	"go.viam.com/test"
)

func TestColorizeDepth(t *testing.T) {
	dm, err := NewDepthMapFromRaw(3, 1, []uint16{0, 100, 2000})
	test.That(t, err, test.ShouldBeNil)

	out := ColorizeDepth(dm)
	test.That(t, out.Width(), test.ShouldEqual, 3)
	test.That(t, out.Height(), test.ShouldEqual, 1)

	r, g, b := out.RGBAt(0, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0, 0, 0})

	// the nearest sample sits halfway through the histogram (green), the farthest at the end (blue)
	r, g, b = out.RGBAt(1, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0, 255, 0})
	r, g, b = out.RGBAt(2, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0, 0, 255})
}

func TestColorizeDepthHueRamp(t *testing.T) {
	dm, err := NewDepthMapFromRaw(4, 1, []uint16{500, 1000, 1500, 2000})
	test.That(t, err, test.ShouldBeNil)
	out := ColorizeDepth(dm)

	// t = 0.25 -> hue 60, yellow; t = 0.75 -> hue 180, cyan. No step mixes red and blue.
	r, g, b := out.RGBAt(0, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{255, 255, 0})
	r, g, b = out.RGBAt(2, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0, 255, 255})
	for x := 0; x < 4; x++ {
		r, _, b := out.RGBAt(x, 0)
		test.That(t, r == 0 || b == 0, test.ShouldBeTrue)
	}
}

func TestColorizeEmptyDepth(t *testing.T) {
	out := ColorizeDepth(NewEmptyDepthMap(2, 2))
	for _, v := range out.Pix() {
		test.That(t, v, test.ShouldEqual, uint8(0))
	}
}
