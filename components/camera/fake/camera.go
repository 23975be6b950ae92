// Package fake implements a depth camera that renders a fixed synthetic scene: a tilted floor
// with a ball floating in front of it, seen through a yellow to blue gradient.
package fake

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/rimage"
	"go.viam.com/depthcapture/rimage/transform"
)

// Model is the registered name of the fake camera.
const Model = "fake"

const (
	defaultDepthScale = 0.001
	defaultBaseline   = 0.015
)

func init() {
	camera.RegisterDevice(Model, camera.Registration[*Config]{
		Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (camera.Device, error) {
			return NewCamera(ctx, conf, logger)
		},
	})
}

// Config are the attributes of the fake camera config.
type Config struct {
	Preset      string  `json:"preset,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	ColorWidth  int     `json:"color_width,omitempty"`
	ColorHeight int     `json:"color_height,omitempty"`
	Baseline    float64 `json:"baseline_m,omitempty"`
	// InvalidBand is the width in pixels of the strip on the left of the depth image that has no
	// depth, like the occlusion band of a stereo sensor.
	InvalidBand int `json:"invalid_band_px,omitempty"`
	// Unpaced delivers frames as fast as they are asked for instead of at the preset rate.
	Unpaced bool `json:"unpaced,omitempty"`
}

// Validate checks that the config attributes are valid for a fake camera.
func (conf *Config) Validate(path string) error {
	if _, err := camera.LookupPreset(conf.Preset); err != nil {
		return err
	}
	for _, v := range []struct {
		name string
		val  int
	}{
		{"width", conf.Width}, {"height", conf.Height}, {"color_width", conf.ColorWidth},
		{"color_height", conf.ColorHeight}, {"invalid_band_px", conf.InvalidBand},
	} {
		if v.val < 0 {
			return errors.Errorf("%s.%s cannot be negative, got %d", path, v.name, v.val)
		}
	}
	if (conf.Width == 0) != (conf.Height == 0) {
		return errors.Errorf("%s: width and height must be set together", path)
	}
	if (conf.ColorWidth == 0) != (conf.ColorHeight == 0) {
		return errors.Errorf("%s: color_width and color_height must be set together", path)
	}
	return nil
}

// fakeIntrinsics is a real color sensor calibration at 1024x768 that is rescaled to the
// requested stream size.
var fakeIntrinsics = transform.PinholeCameraIntrinsics{
	Width:  1024,
	Height: 768,
	Fx:     821.32642889,
	Fy:     821.68607359,
	Ppx:    494.95941428,
	Ppy:    370.70529534,
	Model:  transform.NoneDistortionType,
}

func fakeModel(width, height int) transform.PinholeCameraIntrinsics {
	widthRatio := float64(width) / float64(fakeIntrinsics.Width)
	heightRatio := float64(height) / float64(fakeIntrinsics.Height)
	return transform.PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     fakeIntrinsics.Fx * widthRatio,
		Fy:     fakeIntrinsics.Fy * heightRatio,
		Ppx:    fakeIntrinsics.Ppx * widthRatio,
		Ppy:    fakeIntrinsics.Ppy * heightRatio,
		Model:  transform.NoneDistortionType,
	}
}

// Camera is a fake depth camera that always sees the same scene.
type Camera struct {
	logger   logging.Logger
	preset   camera.Preset
	conf     Config
	interval time.Duration

	mu      sync.Mutex
	started bool
	closed  bool
	frames  *camera.FrameSet
	seq     uint64
	last    time.Time
}

// NewCamera returns a new fake camera.
func NewCamera(ctx context.Context, conf *Config, logger logging.Logger) (*Camera, error) {
	if conf == nil {
		conf = &Config{}
	}
	if err := conf.Validate("fake"); err != nil {
		return nil, err
	}
	preset, err := camera.LookupPreset(conf.Preset)
	if err != nil {
		return nil, err
	}
	if conf.Width > 0 {
		preset.Depth.Width, preset.Depth.Height = conf.Width, conf.Height
	}
	if conf.ColorWidth > 0 {
		preset.Color.Width, preset.Color.Height = conf.ColorWidth, conf.ColorHeight
	}
	cam := &Camera{logger: logger, preset: preset, conf: *conf}
	if !conf.Unpaced && preset.Depth.FPS > 0 {
		cam.interval = time.Second / time.Duration(preset.Depth.FPS)
	}
	return cam, nil
}

// Name returns the name of the device.
func (c *Camera) Name() string {
	return "Fake Depth Camera"
}

// Start renders the scene once; every later frame set shares it.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("camera is closed")
	}
	if c.started {
		return nil
	}
	frames, err := c.render()
	if err != nil {
		return err
	}
	c.frames = frames
	c.started = true
	c.logger.Debugw("started fake camera",
		"depth", c.preset.Depth, "color", c.preset.Color, "preset", c.preset.Name)
	return nil
}

// WaitForFrames returns the scene, paced to the stream's frame rate.
func (c *Camera) WaitForFrames(ctx context.Context) (*camera.FrameSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.closed {
		return nil, errors.New("camera is not streaming")
	}
	if c.interval > 0 && !c.last.IsZero() {
		if wait := c.interval - time.Since(c.last); wait > 0 {
			if !utils.SelectContextOrWait(ctx, wait) {
				return nil, ctx.Err()
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.last = time.Now()
	c.seq++
	fs := *c.frames
	fs.Sequence = c.seq
	fs.Timestamp = c.last
	return &fs, nil
}

// Close stops streaming.
func (c *Camera) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.frames = nil
	return nil
}

func (c *Camera) render() (*camera.FrameSet, error) {
	depthIntrin := fakeModel(c.preset.Depth.Width, c.preset.Depth.Height)
	colorIntrin := fakeModel(c.preset.Color.Width, c.preset.Color.Height)
	baseline := c.conf.Baseline
	if baseline == 0 {
		baseline = defaultBaseline
	}
	depthToColor := transform.IdentityExtrinsics()
	depthToColor.Translation[0] = -baseline

	depth := RenderDepth(&depthIntrin, defaultDepthScale, c.conf.InvalidBand)
	color := Gradient(colorIntrin.Width, colorIntrin.Height)
	return camera.NewFrameSet(depth, color, depthIntrin, colorIntrin, depthToColor, defaultDepthScale)
}

var (
	ballCenter = r3.Vector{X: 0.1, Y: 0, Z: 1.0}
	ballRadius = 0.25
	floorDist  = 1.8
	floorTilt  = 0.35
)

// RenderDepth ray casts the scene from a sensor with the given intrinsics. The leftmost
// invalidBand columns have no depth.
func RenderDepth(intrin *transform.PinholeCameraIntrinsics, scale float64, invalidBand int) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(intrin.Width, intrin.Height)
	for y := 0; y < intrin.Height; y++ {
		for x := invalidBand; x < intrin.Width; x++ {
			ray := intrin.Deproject(float64(x), float64(y), 1)
			z, ok := castRay(ray)
			if !ok {
				continue
			}
			units := math.Round(z / scale)
			if units <= 0 || units > float64(rimage.MaxDepth) {
				continue
			}
			dm.Set(x, y, rimage.Depth(units))
		}
	}
	return dm
}

// castRay returns the depth of the first surface hit by the ray through the point dir, which lies
// on the z = 1 plane.
func castRay(dir r3.Vector) (float64, bool) {
	best := math.Inf(1)
	// floor: z = floorDist + floorTilt * y, so t = floorDist / (1 - floorTilt * dir.y)
	if den := 1 - floorTilt*dir.Y; den > 0.1 {
		best = floorDist / den
	}
	// ball: |t*dir - c|^2 = r^2
	a := dir.Norm2()
	b := dir.Dot(ballCenter)
	disc := b*b - a*(ballCenter.Norm2()-ballRadius*ballRadius)
	if disc >= 0 {
		if t := (b - math.Sqrt(disc)) / a; t > 0 && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// Gradient is a yellow to blue gradient that darkens away from the top left corner.
func Gradient(width, height int) *rimage.RGBBuffer {
	img := rimage.NewRGBBuffer(width, height)
	totalDist := math.Hypot(float64(width), float64(height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dist := math.Hypot(float64(x), float64(y)) / totalDist
			img.SetRGB(x, y, uint8(255-(255*dist)), uint8(255-(255*dist)), uint8(255*dist))
		}
	}
	return img
}
