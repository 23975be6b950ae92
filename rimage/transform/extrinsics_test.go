package transform

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestExtrinsics(t *testing.T) {
	id := IdentityExtrinsics()
	test.That(t, id.CheckValid(), test.ShouldBeNil)
	pt := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, id.TransformPoint(pt), test.ShouldResemble, pt)

	// 90 degrees about z, column-major
	e := NewExtrinsics([9]float64{0, 1, 0, -1, 0, 0, 0, 0, 1}, [3]float64{0.015, 0, 0})
	test.That(t, e.CheckValid(), test.ShouldBeNil)
	out := e.TransformPoint(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, out.X, test.ShouldAlmostEqual, 0.015)
	test.That(t, out.Y, test.ShouldAlmostEqual, 1)
	test.That(t, out.Z, test.ShouldAlmostEqual, 0)

	back := e.Inverse().TransformPoint(out)
	test.That(t, back.X, test.ShouldAlmostEqual, 1)
	test.That(t, back.Y, test.ShouldAlmostEqual, 0)
	test.That(t, back.Z, test.ShouldAlmostEqual, 0)

	bad := NewExtrinsics([9]float64{2, 0, 0, 0, 1, 0, 0, 0, 1}, [3]float64{})
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)
}

func TestExtrinsicsJSON(t *testing.T) {
	var e Extrinsics
	err := json.Unmarshal([]byte(`{"rotation":[1,0,0,0,1,0,0,0,1],"translation":[-0.015,0.0001,0]}`), &e)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.CheckValid(), test.ShouldBeNil)
	test.That(t, e.Translation[0], test.ShouldEqual, -0.015)
	out := e.TransformPoint(r3.Vector{})
	test.That(t, math.Abs(out.X+0.015), test.ShouldBeLessThan, 1e-12)
}
