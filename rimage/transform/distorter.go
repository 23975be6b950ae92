package transform

import "github.com/pkg/errors"

// DistortionType is the name of the distortion model.
type DistortionType string

const (
	// NoneDistortionType is a rectified stream; pixels map straight onto the pinhole model.
	NoneDistortionType = DistortionType("none")
	// ModifiedBrownConradyDistortionType is the forward Brown-Conrady variant color sensors report.
	// It distorts points on projection and cannot be used to deproject.
	ModifiedBrownConradyDistortionType = DistortionType("modified_brown_conrady")
	// InverseBrownConradyDistortionType undistorts pixels on deprojection. Depth sensors report it.
	InverseBrownConradyDistortionType = DistortionType("inverse_brown_conrady")
	// FThetaDistortionType is the fisheye model of tracking sensors. Forward only.
	FThetaDistortionType = DistortionType("ftheta")
)

// Distorter maps normalized image coordinates through a lens model.
type Distorter interface {
	ModelType() DistortionType
	CheckValid() error
	Parameters() []float64
	Transform(x, y float64) (float64, float64)
}

// InvalidDistortionError is used when the distortion parameters are invalid.
func InvalidDistortionError(msg string) error {
	return errors.Wrapf(errors.New("invalid distortion_parameters"), "%s", msg)
}

// NewDistorter returns a Distorter given a valid DistortionType and its parameters. A nil
// Distorter is returned for undistorted streams.
func NewDistorter(distortionType DistortionType, parameters []float64) (Distorter, error) {
	switch distortionType {
	case NoneDistortionType, "":
		return nil, nil
	case ModifiedBrownConradyDistortionType:
		return NewModifiedBrownConrady(parameters)
	case InverseBrownConradyDistortionType:
		return NewInverseBrownConrady(parameters)
	case FThetaDistortionType:
		return NewFTheta(parameters)
	default:
		return nil, errors.Errorf("do not know how to parse %q distortion model", distortionType)
	}
}

// fivePad fills the coefficient list to the five values the sensors report.
func fivePad(inp []float64) ([]float64, error) {
	if len(inp) > 5 {
		return nil, errors.Errorf("list of parameters too long, expected max 5, got %d", len(inp))
	}
	out := make([]float64, 5)
	copy(out, inp)
	return out, nil
}
