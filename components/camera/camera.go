// Package camera defines a depth camera that delivers synchronized depth and color frames.
package camera

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/depthcapture/rimage"
	"go.viam.com/depthcapture/rimage/transform"
)

// Device is an opened depth camera.
type Device interface {
	// Name is the human readable name of the device.
	Name() string
	// Start enables the depth and color streams and begins acquisition.
	Start(ctx context.Context) error
	// WaitForFrames blocks until the next synchronized frame set is available.
	WaitForFrames(ctx context.Context) (*FrameSet, error)
	// Close stops acquisition and releases the device.
	Close(ctx context.Context) error
}

// FrameSet is one synchronized capture from a Device.
type FrameSet struct {
	Depth        *rimage.DepthMap
	Color        *rimage.RGBBuffer
	AlignedColor *rimage.RGBBuffer

	DepthIntrinsics   transform.PinholeCameraIntrinsics
	ColorIntrinsics   transform.PinholeCameraIntrinsics
	AlignedIntrinsics transform.PinholeCameraIntrinsics
	DepthToColor      transform.Extrinsics

	// DepthScale is the number of meters per depth unit.
	DepthScale float64
	Sequence   uint64
	Timestamp  time.Time
}

// NewFrameSet builds a frame set from raw depth and color frames, computing the color image
// aligned to depth.
func NewFrameSet(
	depth *rimage.DepthMap,
	color *rimage.RGBBuffer,
	depthIntrin, colorIntrin transform.PinholeCameraIntrinsics,
	depthToColor transform.Extrinsics,
	depthScale float64,
) (*FrameSet, error) {
	aligned, err := transform.AlignColorToDepth(depth, depthScale, color, &depthIntrin, &colorIntrin, depthToColor)
	if err != nil {
		return nil, errors.Wrap(err, "cannot align color to depth")
	}
	return &FrameSet{
		Depth:             depth,
		Color:             color,
		AlignedColor:      aligned,
		DepthIntrinsics:   depthIntrin,
		ColorIntrinsics:   colorIntrin,
		AlignedIntrinsics: depthIntrin,
		DepthToColor:      depthToColor,
		DepthScale:        depthScale,
	}, nil
}

// CheckValid makes sure the buffers agree with the intrinsics they are reported with.
func (fs *FrameSet) CheckValid() error {
	if fs == nil {
		return errors.New("no frame set")
	}
	if fs.Depth == nil || fs.Color == nil || fs.AlignedColor == nil {
		return errors.New("frame set is missing a frame")
	}
	if fs.Depth.Width() != fs.DepthIntrinsics.Width || fs.Depth.Height() != fs.DepthIntrinsics.Height {
		return errors.Errorf("depth frame (%d,%d) does not match its intrinsics (%d,%d)",
			fs.Depth.Width(), fs.Depth.Height(), fs.DepthIntrinsics.Width, fs.DepthIntrinsics.Height)
	}
	if fs.Color.Width() != fs.ColorIntrinsics.Width || fs.Color.Height() != fs.ColorIntrinsics.Height {
		return errors.Errorf("color frame (%d,%d) does not match its intrinsics (%d,%d)",
			fs.Color.Width(), fs.Color.Height(), fs.ColorIntrinsics.Width, fs.ColorIntrinsics.Height)
	}
	if fs.AlignedColor.Width() != fs.AlignedIntrinsics.Width || fs.AlignedColor.Height() != fs.AlignedIntrinsics.Height {
		return errors.Errorf("aligned color frame (%d,%d) does not match its intrinsics (%d,%d)",
			fs.AlignedColor.Width(), fs.AlignedColor.Height(), fs.AlignedIntrinsics.Width, fs.AlignedIntrinsics.Height)
	}
	if fs.DepthScale <= 0 {
		return errors.Errorf("invalid depth scale %v", fs.DepthScale)
	}
	return nil
}
