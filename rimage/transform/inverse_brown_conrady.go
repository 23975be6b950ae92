package transform

// InverseBrownConrady undistorts normalized pixel coordinates using the single-pass correction
// depth sensors are calibrated against. Coefficients are ordered k1, k2, p1, p2, k3.
type InverseBrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
	RadialK3     float64 `json:"rk3"`
}

// CheckValid checks if the fields for InverseBrownConrady have valid inputs.
func (ibc *InverseBrownConrady) CheckValid() error {
	if ibc == nil {
		return InvalidDistortionError("InverseBrownConrady shaped distortion_parameters not provided")
	}
	return nil
}

// NewInverseBrownConrady takes in a slice of floats that will be passed into the struct in order.
func NewInverseBrownConrady(inp []float64) (*InverseBrownConrady, error) {
	c, err := fivePad(inp)
	if err != nil {
		return nil, err
	}
	return &InverseBrownConrady{c[0], c[1], c[2], c[3], c[4]}, nil
}

// ModelType returns the type of distortion model.
func (ibc *InverseBrownConrady) ModelType() DistortionType {
	return InverseBrownConradyDistortionType
}

// Parameters returns the parameters of the distortion model as a list of floats.
func (ibc *InverseBrownConrady) Parameters() []float64 {
	if ibc == nil {
		return []float64{}
	}
	return []float64{ibc.RadialK1, ibc.RadialK2, ibc.TangentialP1, ibc.TangentialP2, ibc.RadialK3}
}

// Transform maps a distorted normalized coordinate to its undistorted position.
func (ibc *InverseBrownConrady) Transform(x, y float64) (float64, float64) {
	if ibc == nil {
		return x, y
	}
	r2 := x*x + y*y
	f := 1 + ibc.RadialK1*r2 + ibc.RadialK2*r2*r2 + ibc.RadialK3*r2*r2*r2
	ux := x*f + 2*ibc.TangentialP1*x*y + ibc.TangentialP2*(r2+2*x*x)
	uy := y*f + 2*ibc.TangentialP2*x*y + ibc.TangentialP1*(r2+2*y*y)
	return ux, uy
}
