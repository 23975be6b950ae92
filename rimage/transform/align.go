package transform

import (
	"github.com/pkg/errors"

	"go.viam.com/depthcapture/rimage"
)

// AlignColorToDepth resamples the color image into the depth sensor's pixel grid. Each depth pixel
// is deprojected, moved into the color frame and projected onto the color image; the nearest color
// pixel is taken. Pixels without depth or that land outside the color image are black. The result
// has the depth stream's size, so its intrinsics are the depth intrinsics.
func AlignColorToDepth(
	depth *rimage.DepthMap,
	depthScale float64,
	color *rimage.RGBBuffer,
	depthIntrin, colorIntrin *PinholeCameraIntrinsics,
	depthToColor Extrinsics,
) (*rimage.RGBBuffer, error) {
	if depth == nil || color == nil {
		return nil, errors.New("need both a depth map and a color image to align")
	}
	if err := depthIntrin.CheckDeprojectable(); err != nil {
		return nil, errors.Wrap(err, "depth intrinsics")
	}
	if err := colorIntrin.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "color intrinsics")
	}
	if depth.Width() != depthIntrin.Width || depth.Height() != depthIntrin.Height {
		return nil, errors.Errorf("depth map and intrinsics don't match Depth(%d,%d) != Intrinsics(%d,%d)",
			depth.Width(), depth.Height(), depthIntrin.Width, depthIntrin.Height)
	}
	if color.Width() != colorIntrin.Width || color.Height() != colorIntrin.Height {
		return nil, errors.Errorf("color image and intrinsics don't match Color(%d,%d) != Intrinsics(%d,%d)",
			color.Width(), color.Height(), colorIntrin.Width, colorIntrin.Height)
	}
	aligned := rimage.NewRGBBuffer(depthIntrin.Width, depthIntrin.Height)
	for y := 0; y < depthIntrin.Height; y++ {
		for x := 0; x < depthIntrin.Width; x++ {
			d := depth.GetDepth(x, y)
			if d == 0 {
				continue
			}
			pt := depthIntrin.Deproject(float64(x), float64(y), float64(d)*depthScale)
			cx, cy, ok := colorIntrin.ProjectToPixel(depthToColor.TransformPoint(pt))
			if !ok {
				continue
			}
			r, g, b := color.RGBAt(cx, cy)
			aligned.SetRGB(x, y, r, g, b)
		}
	}
	return aligned, nil
}
