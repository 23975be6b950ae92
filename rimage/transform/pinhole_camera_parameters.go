package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrapf(ErrNoIntrinsics, "%s", msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D
// scene to the 2D plane, together with the lens model the sensor reports for the stream.
type PinholeCameraIntrinsics struct {
	Width  int            `json:"width_px"`
	Height int            `json:"height_px"`
	Fx     float64        `json:"fx"`
	Fy     float64        `json:"fy"`
	Ppx    float64        `json:"ppx"`
	Ppy    float64        `json:"ppy"`
	Model  DistortionType `json:"distortion_model,omitempty"`
	Coeffs [5]float64     `json:"distortion_coeffs"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	d, err := params.Distorter()
	if err != nil {
		return err
	}
	if d != nil {
		return d.CheckValid()
	}
	return nil
}

// CheckDeprojectable returns an error when pixels of this stream cannot be turned back into points,
// which is the case for lens models that only describe the forward direction.
func (params *PinholeCameraIntrinsics) CheckDeprojectable() error {
	if err := params.CheckValid(); err != nil {
		return err
	}
	switch params.Model {
	case ModifiedBrownConradyDistortionType, FThetaDistortionType:
		return errors.Errorf("cannot deproject from a stream with the forward only %q distortion model", params.Model)
	default:
		return nil
	}
}

// Distorter returns the lens model of the stream, or nil when the stream is undistorted.
func (params *PinholeCameraIntrinsics) Distorter() (Distorter, error) {
	return NewDistorter(params.Model, params.Coeffs[:])
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if intrinsics.Model == "" {
		intrinsics.Model = NoneDistortionType
	}
	return intrinsics, nil
}

// Deproject turns a pixel and its depth in meters into a 3D point in the sensor's frame.
// Forward only lens models are not inverted; use CheckDeprojectable first.
func (params *PinholeCameraIntrinsics) Deproject(px, py, depth float64) r3.Vector {
	x := (px - params.Ppx) / params.Fx
	y := (py - params.Ppy) / params.Fy
	if params.Model == InverseBrownConradyDistortionType {
		ibc := InverseBrownConrady{params.Coeffs[0], params.Coeffs[1], params.Coeffs[2], params.Coeffs[3], params.Coeffs[4]}
		x, y = ibc.Transform(x, y)
	}
	return r3.Vector{X: depth * x, Y: depth * y, Z: depth}
}

// DeprojectFloat32 is Deproject evaluated in single precision, operation by operation, the way
// depth camera SDKs deproject. Exported text points match theirs digit for digit.
func (params *PinholeCameraIntrinsics) DeprojectFloat32(px, py, depth float32) (float32, float32, float32) {
	x := (px - float32(params.Ppx)) / float32(params.Fx)
	y := (py - float32(params.Ppy)) / float32(params.Fy)
	if params.Model == InverseBrownConradyDistortionType {
		k1, k2, p1, p2, k3 := float32(params.Coeffs[0]), float32(params.Coeffs[1]),
			float32(params.Coeffs[2]), float32(params.Coeffs[3]), float32(params.Coeffs[4])
		// conversions round every product so no multiply-add gets fused
		r2 := float32(x*x) + float32(y*y)
		r4 := float32(r2 * r2)
		r6 := float32(r4 * r2)
		f := 1 + float32(k1*r2) + float32(k2*r4) + float32(k3*r6)
		ux := float32(x*f) + float32(float32(2*p1*x)*y) + float32(p2*(r2+float32(2*x*x)))
		uy := float32(y*f) + float32(float32(2*p2*x)*y) + float32(p1*(r2+float32(2*y*y)))
		x, y = ux, uy
	}
	return depth * x, depth * y, depth
}

// Project maps a 3D point in the sensor's frame onto the pixel plane. Points at or behind the
// optical center project to (-1, -1) so bounds checks filter them out.
func (params *PinholeCameraIntrinsics) Project(pt r3.Vector) (float64, float64) {
	if pt.Z <= 0 {
		return -1, -1
	}
	x := pt.X / pt.Z
	y := pt.Y / pt.Z
	switch params.Model {
	case ModifiedBrownConradyDistortionType:
		mbc := ModifiedBrownConrady{params.Coeffs[0], params.Coeffs[1], params.Coeffs[2], params.Coeffs[3], params.Coeffs[4]}
		x, y = mbc.Transform(x, y)
	case FThetaDistortionType:
		ft := FTheta{W: params.Coeffs[0]}
		x, y = ft.Transform(x, y)
	default:
	}
	return x*params.Fx + params.Ppx, y*params.Fy + params.Ppy
}

// ProjectToPixel is Project rounded to the nearest pixel center. ok is false when the pixel falls
// outside the image.
func (params *PinholeCameraIntrinsics) ProjectToPixel(pt r3.Vector) (x, y int, ok bool) {
	fx, fy := params.Project(pt)
	x, y = int(math.Round(fx)), int(math.Round(fy))
	if fx < -0.5 || fy < -0.5 || x < 0 || y < 0 || x >= params.Width || y >= params.Height {
		return 0, 0, false
	}
	return x, y, true
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}
