// Package file implements a depth camera that replays a color image and a depth map from disk.
package file

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/rimage"
	"go.viam.com/depthcapture/rimage/transform"
)

// Model is the registered name of the file camera.
const Model = "file"

func init() {
	camera.RegisterDevice(Model, camera.Registration[*Config]{
		Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (camera.Device, error) {
			return NewCamera(ctx, conf, logger)
		},
	})
}

// Config is the attribute struct for the file camera.
type Config struct {
	Color        string                  `json:"color_image_file_path"`
	Depth        string                  `json:"depth_image_file_path"`
	CameraSystem string                  `json:"camera_system_file_path,omitempty"`
	System       *transform.CameraSystem `json:"camera_system,omitempty"`
	FPS          int                     `json:"fps,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Color == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "color_image_file_path")
	}
	if conf.Depth == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "depth_image_file_path")
	}
	if conf.CameraSystem == "" && conf.System == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "camera_system_file_path")
	}
	if conf.CameraSystem != "" && conf.System != nil {
		return errors.Errorf("%s: only one of camera_system_file_path and camera_system can be set", path)
	}
	if conf.FPS < 0 {
		return errors.Errorf("%s.fps cannot be negative, got %d", path, conf.FPS)
	}
	return nil
}

// Camera replays the same frame set on every call.
type Camera struct {
	conf     Config
	logger   logging.Logger
	interval time.Duration

	mu     sync.Mutex
	frames *camera.FrameSet
	seq    uint64
	last   time.Time
	closed bool
}

// NewCamera returns a new file camera. The files are read when the camera is started.
func NewCamera(ctx context.Context, conf *Config, logger logging.Logger) (*Camera, error) {
	if conf == nil {
		return nil, errors.New("file camera needs a config")
	}
	if err := conf.Validate("file"); err != nil {
		return nil, err
	}
	c := &Camera{conf: *conf, logger: logger}
	if conf.FPS > 0 {
		c.interval = time.Second / time.Duration(conf.FPS)
	}
	return c, nil
}

// Name returns the name of the device.
func (c *Camera) Name() string {
	return "File Replay " + filepath.Base(c.conf.Depth)
}

// Start reads the files and aligns the color image to the depth map.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("camera is closed")
	}
	if c.frames != nil {
		return nil
	}
	system := c.conf.System
	if system == nil {
		var err error
		if system, err = transform.NewCameraSystemFromJSONFile(c.conf.CameraSystem); err != nil {
			return err
		}
	} else if err := system.CheckValid(); err != nil {
		return err
	}

	depth, err := rimage.ParseDepthMap(c.conf.Depth)
	if err != nil {
		return errors.Wrapf(err, "cannot read depth map %q", c.conf.Depth)
	}
	img, err := rimage.ReadImageFromFile(c.conf.Color)
	if err != nil {
		return err
	}
	frames, err := camera.NewFrameSet(depth, rimage.ConvertToRGBBuffer(img),
		system.DepthIntrinsics, system.ColorIntrinsics, system.DepthToColor, system.DepthScale)
	if err != nil {
		return err
	}
	c.frames = frames
	c.logger.Infow("replaying files", "color", c.conf.Color, "depth", c.conf.Depth,
		"depth_valid", depth.ValidCount())
	return nil
}

// WaitForFrames returns the replayed frame set.
func (c *Camera) WaitForFrames(ctx context.Context) (*camera.FrameSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frames == nil || c.closed {
		return nil, errors.New("camera is not streaming")
	}
	if c.interval > 0 && !c.last.IsZero() {
		if wait := c.interval - time.Since(c.last); wait > 0 && !utils.SelectContextOrWait(ctx, wait) {
			return nil, ctx.Err()
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

// Close drops the frames.
func (c *Camera) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.frames = nil
	return nil
}
