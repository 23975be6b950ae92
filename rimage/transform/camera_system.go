package transform

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// CameraSystem is the calibration of a depth and color sensor pair.
type CameraSystem struct {
	DepthIntrinsics PinholeCameraIntrinsics `json:"depth_intrinsics"`
	ColorIntrinsics PinholeCameraIntrinsics `json:"color_intrinsics"`
	DepthToColor    Extrinsics              `json:"depth_to_color"`
	// DepthScale is the number of meters per depth unit.
	DepthScale float64 `json:"depth_scale"`
}

// CheckValid checks both sensors and the transform between them.
func (cs *CameraSystem) CheckValid() error {
	if cs == nil {
		return NewNoIntrinsicsError("camera system does not exist")
	}
	if err := cs.DepthIntrinsics.CheckDeprojectable(); err != nil {
		return errors.Wrap(err, "depth_intrinsics")
	}
	if err := cs.ColorIntrinsics.CheckValid(); err != nil {
		return errors.Wrap(err, "color_intrinsics")
	}
	if err := cs.DepthToColor.CheckValid(); err != nil {
		return errors.Wrap(err, "depth_to_color")
	}
	if cs.DepthScale <= 0 {
		return errors.Errorf("depth_scale must be positive, got %v", cs.DepthScale)
	}
	return nil
}

// NewCameraSystemFromJSONFile reads a CameraSystem. A missing extrinsics block means the sensors
// are co-located and a missing depth scale means millimeters.
func NewCameraSystemFromJSONFile(jsonPath string) (*CameraSystem, error) {
	//nolint:gosec
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading camera system file")
	}
	cs := &CameraSystem{DepthToColor: IdentityExtrinsics(), DepthScale: 0.001}
	if err := json.Unmarshal(b, cs); err != nil {
		return nil, errors.Wrap(err, "error parsing camera system JSON")
	}
	for _, intrin := range []*PinholeCameraIntrinsics{&cs.DepthIntrinsics, &cs.ColorIntrinsics} {
		if intrin.Model == "" {
			intrin.Model = NoneDistortionType
		}
	}
	return cs, cs.CheckValid()
}
