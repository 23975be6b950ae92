package camera_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/rimage"
	"go.viam.com/depthcapture/rimage/transform"
)

type testConfig struct {
	Name  string  `json:"name"`
	Scale float64 `json:"scale,omitempty"`
}

func (c *testConfig) Validate(path string) error {
	if c.Name == "" {
		return errors.Errorf("%s.name is required", path)
	}
	return nil
}

type testDevice struct {
	name string
}

func (d *testDevice) Name() string { return d.name }

func (d *testDevice) Start(ctx context.Context) error { return nil }

func (d *testDevice) Close(ctx context.Context) error { return nil }

func (d *testDevice) WaitForFrames(ctx context.Context) (*camera.FrameSet, error) {
	return nil, errors.New("no frames")
}

func TestRegistry(t *testing.T) {
	camera.RegisterDevice("test_registry", camera.Registration[*testConfig]{
		Constructor: func(ctx context.Context, conf *testConfig, logger logging.Logger) (camera.Device, error) {
			return &testDevice{name: conf.Name}, nil
		},
	})
	test.That(t, camera.RegisteredModels(), test.ShouldContain, "test_registry")

	logger := logging.NewTestLogger(t)
	dev, err := camera.Open(context.Background(), camera.Config{
		Model:      "test_registry",
		Attributes: map[string]interface{}{"name": "bench", "scale": 2},
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.Name(), test.ShouldEqual, "bench")

	_, err = camera.Open(context.Background(), camera.Config{Model: "test_registry"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "name is required")

	_, err = camera.Open(context.Background(), camera.Config{Model: "nope"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown camera model")

	test.That(t, func() {
		camera.RegisterDevice("test_registry", camera.Registration[*testConfig]{
			Constructor: func(ctx context.Context, conf *testConfig, logger logging.Logger) (camera.Device, error) {
				return nil, nil
			},
		})
	}, test.ShouldPanic)
}

func TestTransformAttributeMap(t *testing.T) {
	conf, err := camera.TransformAttributeMap[*testConfig](map[string]interface{}{"name": "a", "scale": "0.5"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Scale, test.ShouldEqual, 0.5)

	_, err = camera.TransformAttributeMap[*testConfig](map[string]interface{}{"name": "a", "bogus": 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bogus")

	value, err := camera.TransformAttributeMap[testConfig](map[string]interface{}{"name": "b"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value.Name, test.ShouldEqual, "b")
}

func TestError(t *testing.T) {
	err := camera.NewError("rs2_pipeline_wait_for_frames", "pipe:0x1234", "Frame didn't arrive within 5000")
	test.That(t, err.Error(), test.ShouldEqual,
		"RealSense error calling rs2_pipeline_wait_for_frames(pipe:0x1234):\n    Frame didn't arrive within 5000")

	wrapped := errors.Wrap(err, "capture loop")
	camErr, ok := camera.AsError(wrapped)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, camErr.Function, test.ShouldEqual, "rs2_pipeline_wait_for_frames")
	test.That(t, camErr.Message(), test.ShouldEqual, "Frame didn't arrive within 5000")

	_, ok = camera.AsError(errors.New("plain"))
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = camera.AsError(camera.ErrNoDevice)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestPresets(t *testing.T) {
	p, err := camera.LookupPreset("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Name, test.ShouldEqual, camera.DefaultPreset)
	test.That(t, p.Depth, test.ShouldResemble, camera.StreamProfile{Width: 640, Height: 480, FPS: 30})
	test.That(t, p.Color, test.ShouldResemble, camera.StreamProfile{Width: 1280, Height: 720, FPS: 30})

	_, err = camera.LookupPreset("nope")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "highest_framerate")
}

func TestNewFrameSet(t *testing.T) {
	intrin := transform.PinholeCameraIntrinsics{Width: 4, Height: 2, Fx: 4, Fy: 4, Ppx: 2, Ppy: 1, Model: transform.NoneDistortionType}
	depth := rimage.NewEmptyDepthMap(4, 2)
	depth.Set(1, 1, 2000)
	color := rimage.NewRGBBuffer(4, 2)
	color.SetRGB(1, 1, 9, 8, 7)

	fs, err := camera.NewFrameSet(depth, color, intrin, intrin, transform.IdentityExtrinsics(), 0.001)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs.CheckValid(), test.ShouldBeNil)
	r, g, b := fs.AlignedColor.RGBAt(1, 1)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{9, 8, 7})

	fs.DepthScale = 0
	test.That(t, fs.CheckValid(), test.ShouldNotBeNil)

	_, err = camera.NewFrameSet(rimage.NewEmptyDepthMap(3, 2), color, intrin, intrin, transform.IdentityExtrinsics(), 0.001)
	test.That(t, err, test.ShouldNotBeNil)

	var missing *camera.FrameSet
	test.That(t, missing.CheckValid(), test.ShouldNotBeNil)
}
