// Package config defines the capture tool's configuration file and its defaults.
package config

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/depthcapture/capture"
	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/rimage"
)

// DefaultModel is the device model used when none is configured.
const DefaultModel = "realsense"

// Config describes a capture run.
type Config struct {
	Camera       camera.Config  `json:"camera"`
	OutputDir    string         `json:"output_dir,omitempty"`
	ImageFormat  string         `json:"image_format,omitempty"`
	ExtraFormats []string       `json:"extra_formats,omitempty"`
	StartIndex   uint64         `json:"start_index,omitempty"`
	LogLevel     string         `json:"log_level,omitempty"`
	Window       WindowConfig   `json:"window"`
	Headless     HeadlessConfig `json:"headless"`
}

// WindowConfig sizes the viewer window.
type WindowConfig struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// HeadlessConfig controls the windowless loop.
type HeadlessConfig struct {
	CaptureEvery int `json:"capture_every,omitempty"`
	MaxCaptures  int `json:"max_captures,omitempty"`
}

// Default returns the configuration used without a file: the default device, the working
// directory and PNG images.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Camera.Model == "" {
		c.Camera.Model = DefaultModel
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.ImageFormat == "" {
		c.ImageFormat = string(rimage.FormatPNG)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Window.Width == 0 {
		c.Window.Width = 1280
	}
	if c.Window.Height == 0 {
		c.Window.Height = 960
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Camera.Model == "" {
		return utils.NewConfigValidationFieldRequiredError("camera", "model")
	}
	if c.OutputDir == "" {
		return utils.NewConfigValidationFieldRequiredError("", "output_dir")
	}
	if _, err := rimage.ParseImageFormat(c.ImageFormat); err != nil {
		return utils.NewConfigValidationError("image_format", err)
	}
	if _, err := capture.ParseExtraFormats(c.ExtraFormats); err != nil {
		return utils.NewConfigValidationError("extra_formats", err)
	}
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		return utils.NewConfigValidationError("log_level", err)
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return utils.NewConfigValidationError("window",
			errors.Errorf("size must not be negative, got %d x %d", c.Window.Width, c.Window.Height))
	}
	if c.Headless.CaptureEvery < 0 {
		return utils.NewConfigValidationError("headless", errors.New("capture_every must not be negative"))
	}
	if c.Headless.MaxCaptures < 0 {
		return utils.NewConfigValidationError("headless", errors.New("max_captures must not be negative"))
	}
	return nil
}

// NewExporter builds the exporter the configuration describes.
func (c *Config) NewExporter(logger logging.Logger) (*capture.Exporter, error) {
	format, err := rimage.ParseImageFormat(c.ImageFormat)
	if err != nil {
		return nil, err
	}
	extras, err := capture.ParseExtraFormats(c.ExtraFormats)
	if err != nil {
		return nil, err
	}
	return &capture.Exporter{
		Dir:          c.OutputDir,
		ImageFormat:  format,
		ExtraFormats: extras,
		Logger:       logger,
	}, nil
}
