package transform

import "math"

// ModifiedBrownConrady distorts normalized coordinates on projection: radial terms are applied
// first and the tangential terms are evaluated on the radially distorted point. Coefficients are
// ordered k1, k2, p1, p2, k3.
type ModifiedBrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
	RadialK3     float64 `json:"rk3"`
}

// NewModifiedBrownConrady takes in a slice of floats that will be passed into the struct in order.
func NewModifiedBrownConrady(inp []float64) (*ModifiedBrownConrady, error) {
	c, err := fivePad(inp)
	if err != nil {
		return nil, err
	}
	return &ModifiedBrownConrady{c[0], c[1], c[2], c[3], c[4]}, nil
}

// CheckValid checks if the fields for ModifiedBrownConrady have valid inputs.
func (mbc *ModifiedBrownConrady) CheckValid() error {
	if mbc == nil {
		return InvalidDistortionError("ModifiedBrownConrady shaped distortion_parameters not provided")
	}
	return nil
}

// ModelType returns the type of distortion model.
func (mbc *ModifiedBrownConrady) ModelType() DistortionType {
	return ModifiedBrownConradyDistortionType
}

// Parameters returns the parameters of the distortion model as a list of floats.
func (mbc *ModifiedBrownConrady) Parameters() []float64 {
	if mbc == nil {
		return []float64{}
	}
	return []float64{mbc.RadialK1, mbc.RadialK2, mbc.TangentialP1, mbc.TangentialP2, mbc.RadialK3}
}

// Transform distorts an undistorted normalized coordinate.
func (mbc *ModifiedBrownConrady) Transform(x, y float64) (float64, float64) {
	if mbc == nil {
		return x, y
	}
	r2 := x*x + y*y
	f := 1 + mbc.RadialK1*r2 + mbc.RadialK2*r2*r2 + mbc.RadialK3*r2*r2*r2
	x *= f
	y *= f
	dx := x + 2*mbc.TangentialP1*x*y + mbc.TangentialP2*(r2+2*x*x)
	dy := y + 2*mbc.TangentialP2*x*y + mbc.TangentialP1*(r2+2*y*y)
	return dx, dy
}

// FTheta is the equidistant fisheye model. Only the first coefficient (field of view) is used.
type FTheta struct {
	W float64 `json:"w"`
}

// NewFTheta takes the sensor's coefficient list; only the first value is meaningful.
func NewFTheta(inp []float64) (*FTheta, error) {
	c, err := fivePad(inp)
	if err != nil {
		return nil, err
	}
	return &FTheta{W: c[0]}, nil
}

// CheckValid checks if the fields for FTheta have valid inputs.
func (ft *FTheta) CheckValid() error {
	if ft == nil {
		return InvalidDistortionError("FTheta shaped distortion_parameters not provided")
	}
	if ft.W == 0 {
		return InvalidDistortionError("FTheta needs a non zero field of view coefficient")
	}
	return nil
}

// ModelType returns the type of distortion model.
func (ft *FTheta) ModelType() DistortionType {
	return FThetaDistortionType
}

// Parameters returns the parameters of the distortion model as a list of floats.
func (ft *FTheta) Parameters() []float64 {
	if ft == nil {
		return []float64{}
	}
	return []float64{ft.W, 0, 0, 0, 0}
}

// Transform distorts an undistorted normalized coordinate.
func (ft *FTheta) Transform(x, y float64) (float64, float64) {
	if ft == nil || ft.W == 0 {
		return x, y
	}
	r := math.Sqrt(x*x + y*y)
	if r == 0 {
		return x, y
	}
	rd := 1.0 / ft.W * math.Atan(2*r*math.Tan(ft.W/2.0))
	return x * rd / r, y * rd / r
}
