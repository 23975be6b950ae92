package transform

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthcapture/rimage"
)

func TestAlignColorToDepthIdentity(t *testing.T) {
	intrin := &PinholeCameraIntrinsics{Width: 4, Height: 3, Fx: 2, Fy: 2, Ppx: 1.5, Ppy: 1, Model: NoneDistortionType}
	depth := rimage.NewEmptyDepthMap(4, 3)
	color := rimage.NewRGBBuffer(4, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			color.SetRGB(x, y, uint8(10*x), uint8(10*y), 200)
			if x != 2 {
				depth.Set(x, y, 1000)
			}
		}
	}

	aligned, err := AlignColorToDepth(depth, 0.001, color, intrin, intrin, IdentityExtrinsics())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, aligned.Width(), test.ShouldEqual, 4)
	test.That(t, aligned.Height(), test.ShouldEqual, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			r, g, b := aligned.RGBAt(x, y)
			if x == 2 {
				test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0, 0, 0})
				continue
			}
			test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{uint8(10 * x), uint8(10 * y), 200})
		}
	}
}

func TestAlignColorToDepthOutOfView(t *testing.T) {
	intrin := &PinholeCameraIntrinsics{Width: 2, Height: 2, Fx: 1, Fy: 1, Ppx: 0.5, Ppy: 0.5, Model: NoneDistortionType}
	depth := rimage.NewEmptyDepthMap(2, 2)
	depth.Set(0, 0, 500)
	color := rimage.NewRGBBuffer(2, 2)
	color.SetRGB(0, 0, 255, 255, 255)
	shift := NewExtrinsics([9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, [3]float64{100, 0, 0})

	aligned, err := AlignColorToDepth(depth, 0.001, color, intrin, intrin, shift)
	test.That(t, err, test.ShouldBeNil)
	r, g, b := aligned.RGBAt(0, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0, 0, 0})
}

func TestAlignColorToDepthErrors(t *testing.T) {
	intrin := &PinholeCameraIntrinsics{Width: 2, Height: 2, Fx: 1, Fy: 1, Ppx: 0.5, Ppy: 0.5, Model: NoneDistortionType}
	_, err := AlignColorToDepth(nil, 0.001, rimage.NewRGBBuffer(2, 2), intrin, intrin, IdentityExtrinsics())
	test.That(t, err, test.ShouldNotBeNil)

	_, err = AlignColorToDepth(rimage.NewEmptyDepthMap(3, 2), 0.001, rimage.NewRGBBuffer(2, 2), intrin, intrin, IdentityExtrinsics())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "don't match")

	fwd := *intrin
	fwd.Model = ModifiedBrownConradyDistortionType
	_, err = AlignColorToDepth(rimage.NewEmptyDepthMap(2, 2), 0.001, rimage.NewRGBBuffer(2, 2), &fwd, intrin, IdentityExtrinsics())
	test.That(t, err, test.ShouldNotBeNil)
}
