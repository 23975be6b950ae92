package viewer

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestLayout(t *testing.T) {
	views := Layout(1280, 960)
	test.That(t, views[0], test.ShouldResemble, image.Rect(0, 0, 640, 480))
	test.That(t, views[1], test.ShouldResemble, image.Rect(640, 0, 1280, 480))
	test.That(t, views[2], test.ShouldResemble, image.Rect(640, 480, 1280, 960))

	views = Layout(1001, 701)
	test.That(t, views[0].Dx(), test.ShouldEqual, 500)
	test.That(t, views[0].Dy(), test.ShouldEqual, 351)
	test.That(t, views[2].Min, test.ShouldResemble, image.Pt(500, 350))
}

func TestFit(t *testing.T) {
	r := image.Rect(640, 0, 1280, 480)
	test.That(t, Fit(r, 640, 480), test.ShouldResemble, r)
	// wide image letterboxed vertically
	test.That(t, Fit(r, 1280, 720), test.ShouldResemble, image.Rect(640, 60, 1280, 420))
	// tall image pillarboxed horizontally
	test.That(t, Fit(image.Rect(0, 0, 400, 400), 100, 200), test.ShouldResemble, image.Rect(100, 0, 300, 400))
	test.That(t, Fit(r, 0, 10).Empty(), test.ShouldBeTrue)
}

func TestTitle(t *testing.T) {
	test.That(t, Title("Intel RealSense D435"), test.ShouldEqual, "Cheap capture tool (Intel RealSense D435)")
}
