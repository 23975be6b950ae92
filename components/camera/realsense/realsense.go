// Package realsense implements a depth camera on top of librealsense2. The SDK binding is only
// compiled with the realsense build tag; without it the model is registered but cannot be opened.
package realsense

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
)

// Model is the registered name of the RealSense camera.
const Model = "realsense"

const defaultFrameTimeout = 5 * time.Second

func init() {
	camera.RegisterDevice(Model, camera.Registration[*Config]{
		Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (camera.Device, error) {
			return NewCamera(ctx, conf, logger)
		},
	})
}

// Config are the attributes of a RealSense camera.
type Config struct {
	// Serial picks the device; the first connected device is used when empty.
	Serial string `json:"serial,omitempty"`
	Preset string `json:"preset,omitempty"`
	// FrameTimeout bounds how long to wait for a frame set, e.g. "5s".
	FrameTimeout time.Duration `json:"frame_timeout,omitempty"`
}

// Validate checks that the config attributes are valid for a RealSense camera.
func (conf *Config) Validate(path string) error {
	if _, err := camera.LookupPreset(conf.Preset); err != nil {
		return errors.Wrap(err, path)
	}
	if conf.FrameTimeout < 0 {
		return errors.Errorf("%s.frame_timeout cannot be negative", path)
	}
	return nil
}

func (conf *Config) frameTimeout() time.Duration {
	if conf.FrameTimeout == 0 {
		return defaultFrameTimeout
	}
	return conf.FrameTimeout
}

// DeviceInfo describes a connected device.
type DeviceInfo struct {
	Name     string
	Serial   string
	Firmware string
}
