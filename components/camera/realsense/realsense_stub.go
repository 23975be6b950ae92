//go:build !realsense

package realsense

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
)

// ErrNotCompiled is returned when the binary was built without the realsense tag.
var ErrNotCompiled = errors.New("RealSense support is not compiled in, rebuild with -tags realsense")

// Supported reports whether the SDK binding is compiled in.
const Supported = false

// NewCamera always fails without the SDK binding.
func NewCamera(ctx context.Context, conf *Config, logger logging.Logger) (camera.Device, error) {
	return nil, ErrNotCompiled
}

// QueryDevices always fails without the SDK binding.
func QueryDevices() ([]DeviceInfo, error) {
	return nil, ErrNotCompiled
}
