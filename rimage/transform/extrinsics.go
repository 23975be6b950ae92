package transform

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Extrinsics is the rigid transform from one sensor's frame into another's. Rotation is stored
// column-major, the same layout the camera SDK reports. Translation is in meters.
type Extrinsics struct {
	Rotation    mgl64.Mat3 `json:"rotation"`
	Translation mgl64.Vec3 `json:"translation"`
}

// IdentityExtrinsics is the transform between co-located sensors.
func IdentityExtrinsics() Extrinsics {
	return Extrinsics{Rotation: mgl64.Ident3()}
}

// NewExtrinsics builds extrinsics from the column-major rotation and translation arrays the SDK reports.
func NewExtrinsics(rotation [9]float64, translation [3]float64) Extrinsics {
	return Extrinsics{Rotation: mgl64.Mat3(rotation), Translation: mgl64.Vec3(translation)}
}

// CheckValid reports whether the rotation is a proper rotation.
func (e Extrinsics) CheckValid() error {
	det := e.Rotation.Det()
	if math.Abs(det-1) > 1e-3 {
		return errors.Errorf("extrinsics rotation is not a rotation matrix, determinant is %v", det)
	}
	return nil
}

// TransformPoint moves pt from the source frame into the target frame.
func (e Extrinsics) TransformPoint(pt r3.Vector) r3.Vector {
	v := e.Rotation.Mul3x1(mgl64.Vec3{pt.X, pt.Y, pt.Z}).Add(e.Translation)
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Inverse returns the transform from the target frame back to the source frame.
func (e Extrinsics) Inverse() Extrinsics {
	rt := e.Rotation.Transpose()
	return Extrinsics{Rotation: rt, Translation: rt.Mul3x1(e.Translation).Mul(-1)}
}
