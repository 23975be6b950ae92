// Package pointcloud turns depth frames into 3D points and writes them out.
package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/depthcapture/rimage"
	"go.viam.com/depthcapture/rimage/transform"
)

// Record is one sample of an organized point cloud. Samples without depth are invalid and sit
// at the origin.
type Record struct {
	Point r3.Vector
	Valid bool
}

// Float32 returns the point at the precision it is written out with.
func (r Record) Float32() (float32, float32, float32) {
	return float32(r.Point.X), float32(r.Point.Y), float32(r.Point.Z)
}

// Deproject converts every pixel of the depth map, in row-major order, into a Record in meters.
// scale is the number of meters per depth unit.
func Deproject(dm *rimage.DepthMap, intrin *transform.PinholeCameraIntrinsics, scale float64) ([]Record, error) {
	if err := checkDepth(dm, intrin, scale); err != nil {
		return nil, err
	}
	width, height := dm.Width(), dm.Height()
	records := make([]Record, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := dm.GetDepth(x, y)
			if d == 0 {
				records = append(records, Record{})
				continue
			}
			records = append(records, deprojectPixel(intrin, x, y, d, scale))
		}
	}
	return records, nil
}

// deprojectPixel deprojects in single precision so every writer agrees with the text export.
func deprojectPixel(intrin *transform.PinholeCameraIntrinsics, x, y int, d rimage.Depth, scale float64) Record {
	px, py, pz := intrin.DeprojectFloat32(float32(x), float32(y), float32(d)*float32(scale))
	return Record{Point: r3.Vector{X: float64(px), Y: float64(py), Z: float64(pz)}, Valid: true}
}

func checkDepth(dm *rimage.DepthMap, intrin *transform.PinholeCameraIntrinsics, scale float64) error {
	if dm == nil {
		return errors.New("no depth channel, cannot project to points")
	}
	if err := intrin.CheckDeprojectable(); err != nil {
		return err
	}
	if dm.Width() != intrin.Width || dm.Height() != intrin.Height {
		return errors.Errorf("depth map and intrinsics don't match Depth(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), intrin.Width, intrin.Height)
	}
	if scale <= 0 {
		return errors.Errorf("depth scale must be positive, got %v", scale)
	}
	return nil
}
