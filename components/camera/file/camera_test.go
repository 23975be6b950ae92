package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/rimage"
	"go.viam.com/depthcapture/rimage/transform"
)

func writeScene(t *testing.T, dir string) (colorFN, depthFN, systemFN string) {
	t.Helper()
	depth := rimage.NewEmptyDepthMap(8, 6)
	for y := 0; y < 6; y++ {
		for x := 2; x < 8; x++ {
			depth.Set(x, y, 1000)
		}
	}
	depthFN = filepath.Join(dir, "depth.dat.gz")
	test.That(t, depth.WriteToFile(depthFN), test.ShouldBeNil)

	color := rimage.NewRGBBuffer(8, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			color.SetRGB(x, y, 200, uint8(x), uint8(y))
		}
	}
	colorFN = filepath.Join(dir, "color.png")
	test.That(t, rimage.WriteImageToFile(colorFN, color), test.ShouldBeNil)

	intrin := transform.PinholeCameraIntrinsics{
		Width: 8, Height: 6, Fx: 10, Fy: 10, Ppx: 3.5, Ppy: 2.5, Model: transform.NoneDistortionType,
	}
	b, err := json.Marshal(transform.CameraSystem{
		DepthIntrinsics: intrin,
		ColorIntrinsics: intrin,
		DepthToColor:    transform.IdentityExtrinsics(),
		DepthScale:      0.001,
	})
	test.That(t, err, test.ShouldBeNil)
	systemFN = filepath.Join(dir, "system.json")
	test.That(t, os.WriteFile(systemFN, b, 0o600), test.ShouldBeNil)
	return colorFN, depthFN, systemFN
}

func TestFileCamera(t *testing.T) {
	ctx := context.Background()
	colorFN, depthFN, systemFN := writeScene(t, t.TempDir())

	dev, err := camera.Open(ctx, camera.Config{
		Model: Model,
		Attributes: map[string]interface{}{
			"color_image_file_path":   colorFN,
			"depth_image_file_path":   depthFN,
			"camera_system_file_path": systemFN,
		},
	}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.Name(), test.ShouldEqual, "File Replay depth.dat.gz")

	_, err = dev.WaitForFrames(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, dev.Start(ctx), test.ShouldBeNil)

	fs, err := dev.WaitForFrames(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs.CheckValid(), test.ShouldBeNil)
	test.That(t, fs.Depth.ValidCount(), test.ShouldEqual, 36)
	r, g, b := fs.AlignedColor.RGBAt(5, 3)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{200, 5, 3})
	r, g, b = fs.AlignedColor.RGBAt(0, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0, 0, 0})
	r, g, b = fs.Color.RGBAt(0, 0)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{200, 0, 0})

	test.That(t, dev.Close(ctx), test.ShouldBeNil)
	test.That(t, dev.Start(ctx), test.ShouldNotBeNil)
}

func TestFileCameraConfig(t *testing.T) {
	conf := &Config{}
	err := conf.Validate("file")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "color_image_file_path")

	conf = &Config{Color: "c.png", Depth: "d.dat"}
	err = conf.Validate("file")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "camera_system_file_path")

	conf = &Config{Color: "c.png", Depth: "d.dat", CameraSystem: "s.json", System: &transform.CameraSystem{}}
	test.That(t, conf.Validate("file"), test.ShouldNotBeNil)

	conf = &Config{Color: "c.png", Depth: "d.dat", CameraSystem: "s.json"}
	test.That(t, conf.Validate("file"), test.ShouldBeNil)

	cam, err := NewCamera(context.Background(), &Config{Color: "missing.png", Depth: "missing.dat", CameraSystem: "missing.json"},
		logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.Start(context.Background()), test.ShouldNotBeNil)
}
