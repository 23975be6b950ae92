//go:build realsense

package realsense

/*
#cgo linux darwin LDFLAGS: -L/usr/local/lib/ -lrealsense2
#cgo CPPFLAGS: -I/usr/local/include
#include <stdlib.h>
#include <librealsense2/rs.h>
#include <librealsense2/h/rs_pipeline.h>
#include <librealsense2/h/rs_frame.h>
*/
import "C"

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/rimage"
	"go.viam.com/depthcapture/rimage/transform"
)

// ErrNotCompiled is never returned when the SDK binding is compiled in.
var ErrNotCompiled = errors.New("RealSense support is not compiled in, rebuild with -tags realsense")

// Supported reports whether the SDK binding is compiled in.
const Supported = true

// pollInterval is how often a pending frame wait checks for cancellation.
const pollInterval = 100 * time.Millisecond

func errorFrom(e *C.rs2_error) error {
	if e == nil {
		return nil
	}
	defer C.rs2_free_error(e)
	return camera.NewError(
		C.GoString(C.rs2_get_failed_function(e)),
		C.GoString(C.rs2_get_failed_args(e)),
		C.GoString(C.rs2_get_error_message(e)),
	)
}

// QueryDevices lists the connected devices.
func QueryDevices() ([]DeviceInfo, error) {
	var e *C.rs2_error
	ctx := C.rs2_create_context(C.RS2_API_VERSION, &e)
	if e != nil {
		return nil, errorFrom(e)
	}
	defer C.rs2_delete_context(ctx)
	list := C.rs2_query_devices(ctx, &e)
	if e != nil {
		return nil, errorFrom(e)
	}
	defer C.rs2_delete_device_list(list)
	count := C.rs2_get_device_count(list, &e)
	if e != nil {
		return nil, errorFrom(e)
	}
	infos := make([]DeviceInfo, 0, int(count))
	for i := 0; i < int(count); i++ {
		dev := C.rs2_create_device(list, C.int(i), &e)
		if e != nil {
			return nil, errorFrom(e)
		}
		info, err := deviceInfo(dev)
		C.rs2_delete_device(dev)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func deviceInfo(dev *C.rs2_device) (DeviceInfo, error) {
	get := func(field C.rs2_camera_info) (string, error) {
		var e *C.rs2_error
		if C.rs2_supports_device_info(dev, field, &e) == 0 || e != nil {
			return "", errorFrom(e)
		}
		s := C.rs2_get_device_info(dev, field, &e)
		if e != nil {
			return "", errorFrom(e)
		}
		return C.GoString(s), nil
	}
	var info DeviceInfo
	var err error
	if info.Name, err = get(C.RS2_CAMERA_INFO_NAME); err != nil {
		return info, err
	}
	if info.Serial, err = get(C.RS2_CAMERA_INFO_SERIAL_NUMBER); err != nil {
		return info, err
	}
	if info.Firmware, err = get(C.RS2_CAMERA_INFO_FIRMWARE_VERSION); err != nil {
		return info, err
	}
	return info, nil
}

// Camera is an opened RealSense device streaming depth and color.
type Camera struct {
	logger  logging.Logger
	conf    Config
	preset  camera.Preset
	info    DeviceInfo
	timeout time.Duration

	mu      sync.Mutex
	ctx     *C.rs2_context
	pipe    *C.rs2_pipeline
	cfg     *C.rs2_config
	profile *C.rs2_pipeline_profile

	depthIntrin  transform.PinholeCameraIntrinsics
	colorIntrin  transform.PinholeCameraIntrinsics
	depthToColor transform.Extrinsics
}

// NewCamera opens the configured device, or the first one connected.
func NewCamera(_ context.Context, conf *Config, logger logging.Logger) (camera.Device, error) {
	if conf == nil {
		conf = &Config{}
	}
	preset, err := camera.LookupPreset(conf.Preset)
	if err != nil {
		return nil, err
	}
	c := &Camera{logger: logger, conf: *conf, preset: preset, timeout: conf.frameTimeout()}
	if err := c.open(); err != nil {
		return nil, multierr.Combine(err, c.release())
	}
	return c, nil
}

func (c *Camera) open() error {
	var e *C.rs2_error
	c.ctx = C.rs2_create_context(C.RS2_API_VERSION, &e)
	if e != nil {
		return errorFrom(e)
	}
	list := C.rs2_query_devices(c.ctx, &e)
	if e != nil {
		return errorFrom(e)
	}
	defer C.rs2_delete_device_list(list)
	count := C.rs2_get_device_count(list, &e)
	if e != nil {
		return errorFrom(e)
	}
	if count == 0 {
		return camera.ErrNoDevice
	}

	found := false
	for i := 0; i < int(count) && !found; i++ {
		dev := C.rs2_create_device(list, C.int(i), &e)
		if e != nil {
			return errorFrom(e)
		}
		info, err := deviceInfo(dev)
		C.rs2_delete_device(dev)
		if err != nil {
			return err
		}
		if c.conf.Serial == "" || info.Serial == c.conf.Serial {
			c.info = info
			found = true
		}
	}
	if !found {
		return errors.Errorf("no device with serial %q among %d connected", c.conf.Serial, int(count))
	}

	c.cfg = C.rs2_create_config(&e)
	if e != nil {
		return errorFrom(e)
	}
	serial := C.CString(c.info.Serial)
	defer C.free(unsafe.Pointer(serial))
	if C.rs2_config_enable_device(c.cfg, serial, &e); e != nil {
		return errorFrom(e)
	}
	d, col := c.preset.Depth, c.preset.Color
	if C.rs2_config_enable_stream(c.cfg, C.RS2_STREAM_DEPTH, -1,
		C.int(d.Width), C.int(d.Height), C.RS2_FORMAT_Z16, C.int(d.FPS), &e); e != nil {
		return errorFrom(e)
	}
	if C.rs2_config_enable_stream(c.cfg, C.RS2_STREAM_COLOR, -1,
		C.int(col.Width), C.int(col.Height), C.RS2_FORMAT_RGB8, C.int(col.FPS), &e); e != nil {
		return errorFrom(e)
	}
	c.pipe = C.rs2_create_pipeline(c.ctx, &e)
	if e != nil {
		return errorFrom(e)
	}
	return nil
}

// Name returns the device's product name.
func (c *Camera) Name() string {
	return c.info.Name
}

// Start starts streaming and reads the calibration of both streams.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipe == nil {
		return errors.New("camera is closed")
	}
	if c.profile != nil {
		return nil
	}
	var e *C.rs2_error
	c.profile = C.rs2_pipeline_start_with_config(c.pipe, c.cfg, &e)
	if e != nil {
		c.profile = nil
		return errorFrom(e)
	}
	if err := c.readCalibration(); err != nil {
		return err
	}
	c.logger.Infow("streaming", "device", c.info.Name, "serial", c.info.Serial, "firmware", c.info.Firmware,
		"preset", c.preset.Name, "depth_model", c.depthIntrin.Model, "color_model", c.colorIntrin.Model)
	return nil
}

func (c *Camera) readCalibration() error {
	var e *C.rs2_error
	streams := C.rs2_pipeline_profile_get_streams(c.profile, &e)
	if e != nil {
		return errorFrom(e)
	}
	defer C.rs2_delete_stream_profiles_list(streams)
	count := C.rs2_get_stream_profiles_count(streams, &e)
	if e != nil {
		return errorFrom(e)
	}
	var depthProfile, colorProfile *C.rs2_stream_profile
	for i := 0; i < int(count); i++ {
		sp := C.rs2_get_stream_profile(streams, C.int(i), &e)
		if e != nil {
			return errorFrom(e)
		}
		stream, err := streamOf(sp)
		if err != nil {
			return err
		}
		switch stream {
		case C.RS2_STREAM_DEPTH:
			depthProfile = sp
		case C.RS2_STREAM_COLOR:
			colorProfile = sp
		default:
		}
	}
	if depthProfile == nil || colorProfile == nil {
		return errors.New("device did not enable both depth and color streams")
	}
	var err error
	if c.depthIntrin, err = intrinsicsOf(depthProfile); err != nil {
		return err
	}
	if c.colorIntrin, err = intrinsicsOf(colorProfile); err != nil {
		return err
	}
	var extr C.rs2_extrinsics
	C.rs2_get_extrinsics(depthProfile, colorProfile, &extr, &e)
	if e != nil {
		return errorFrom(e)
	}
	var rot [9]float64
	var trans [3]float64
	for i := range rot {
		rot[i] = float64(extr.rotation[i])
	}
	for i := range trans {
		trans[i] = float64(extr.translation[i])
	}
	c.depthToColor = transform.NewExtrinsics(rot, trans)
	return nil
}

func streamOf(sp *C.rs2_stream_profile) (C.rs2_stream, error) {
	var e *C.rs2_error
	var stream C.rs2_stream
	var format C.rs2_format
	var index, uid, fps C.int
	C.rs2_get_stream_profile_data(sp, &stream, &format, &index, &uid, &fps, &e)
	return stream, errorFrom(e)
}

func intrinsicsOf(sp *C.rs2_stream_profile) (transform.PinholeCameraIntrinsics, error) {
	var e *C.rs2_error
	var in C.rs2_intrinsics
	C.rs2_get_video_stream_intrinsics(sp, &in, &e)
	if e != nil {
		return transform.PinholeCameraIntrinsics{}, errorFrom(e)
	}
	out := transform.PinholeCameraIntrinsics{
		Width:  int(in.width),
		Height: int(in.height),
		Fx:     float64(in.fx),
		Fy:     float64(in.fy),
		Ppx:    float64(in.ppx),
		Ppy:    float64(in.ppy),
	}
	for i := range out.Coeffs {
		out.Coeffs[i] = float64(in.coeffs[i])
	}
	switch in.model {
	case C.RS2_DISTORTION_NONE:
		out.Model = transform.NoneDistortionType
	case C.RS2_DISTORTION_MODIFIED_BROWN_CONRADY:
		out.Model = transform.ModifiedBrownConradyDistortionType
	case C.RS2_DISTORTION_INVERSE_BROWN_CONRADY:
		out.Model = transform.InverseBrownConradyDistortionType
	case C.RS2_DISTORTION_FTHETA:
		out.Model = transform.FThetaDistortionType
	default:
		return out, errors.Errorf("unsupported distortion model %s",
			C.GoString(C.rs2_distortion_to_string(in.model)))
	}
	return out, nil
}

// WaitForFrames blocks until a frame set with both depth and color arrives.
func (c *Camera) WaitForFrames(ctx context.Context) (*camera.FrameSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil, errors.New("camera is not streaming")
	}
	deadline := time.Now().Add(c.timeout)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var e *C.rs2_error
		var frames *C.rs2_frame
		ok := C.rs2_pipeline_try_wait_for_frames(c.pipe, &frames, C.uint(pollInterval.Milliseconds()), &e)
		if e != nil {
			return nil, errorFrom(e)
		}
		if ok != 0 {
			fs, err := c.convert(frames)
			C.rs2_release_frame(frames)
			return fs, err
		}
		if time.Now().After(deadline) {
			return nil, camera.NewError("rs2_pipeline_wait_for_frames",
				fmt.Sprintf("pipe:%p", c.pipe), fmt.Sprintf("Frame didn't arrive within %d", c.timeout.Milliseconds()))
		}
	}
}

func (c *Camera) convert(frames *C.rs2_frame) (*camera.FrameSet, error) {
	var e *C.rs2_error
	count := C.rs2_embedded_frames_count(frames, &e)
	if e != nil {
		return nil, errorFrom(e)
	}
	var (
		depth     *rimage.DepthMap
		color     *rimage.RGBBuffer
		scale     float64
		seq       uint64
		timestamp time.Time
	)
	for i := 0; i < int(count); i++ {
		frame := C.rs2_extract_frame(frames, C.int(i), &e)
		if e != nil {
			return nil, errorFrom(e)
		}
		err := func() error {
			defer C.rs2_release_frame(frame)
			sp := C.rs2_get_frame_stream_profile(frame, &e)
			if e != nil {
				return errorFrom(e)
			}
			stream, err := streamOf(sp)
			if err != nil {
				return err
			}
			switch stream {
			case C.RS2_STREAM_DEPTH:
				units := C.rs2_depth_frame_get_units(frame, &e)
				if e != nil {
					return errorFrom(e)
				}
				scale = float64(units)
				seq = uint64(C.rs2_get_frame_number(frame, &e))
				if e != nil {
					return errorFrom(e)
				}
				ms := float64(C.rs2_get_frame_timestamp(frame, &e))
				if e != nil {
					return errorFrom(e)
				}
				timestamp = time.UnixMicro(int64(ms * 1000))
				depth, err = copyDepth(frame)
				return err
			case C.RS2_STREAM_COLOR:
				color, err = copyColor(frame)
				return err
			default:
				return nil
			}
		}()
		if err != nil {
			return nil, err
		}
	}
	if depth == nil || color == nil {
		return nil, errors.New("frame set is missing depth or color")
	}
	fs, err := camera.NewFrameSet(depth, color, c.depthIntrin, c.colorIntrin, c.depthToColor, scale)
	if err != nil {
		return nil, err
	}
	fs.Sequence = seq
	fs.Timestamp = timestamp
	return fs, nil
}

func frameBytes(frame *C.rs2_frame) (data []byte, width, height, stride int, err error) {
	var e *C.rs2_error
	width = int(C.rs2_get_frame_width(frame, &e))
	if e != nil {
		return nil, 0, 0, 0, errorFrom(e)
	}
	height = int(C.rs2_get_frame_height(frame, &e))
	if e != nil {
		return nil, 0, 0, 0, errorFrom(e)
	}
	stride = int(C.rs2_get_frame_stride_in_bytes(frame, &e))
	if e != nil {
		return nil, 0, 0, 0, errorFrom(e)
	}
	ptr := C.rs2_get_frame_data(frame, &e)
	if e != nil {
		return nil, 0, 0, 0, errorFrom(e)
	}
	return C.GoBytes(ptr, C.int(stride*height)), width, height, stride, nil
}

func copyDepth(frame *C.rs2_frame) (*rimage.DepthMap, error) {
	data, width, height, stride, err := frameBytes(frame)
	if err != nil {
		return nil, err
	}
	raw := make([]uint16, width*height)
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			raw[y*width+x] = binary.LittleEndian.Uint16(row[2*x:])
		}
	}
	return rimage.NewDepthMapFromRaw(width, height, raw)
}

func copyColor(frame *C.rs2_frame) (*rimage.RGBBuffer, error) {
	data, width, height, stride, err := frameBytes(frame)
	if err != nil {
		return nil, err
	}
	pix := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		copy(pix[y*width*3:(y+1)*width*3], data[y*stride:y*stride+width*3])
	}
	return rimage.NewRGBBufferFromBytes(width, height, pix)
}

// Close stops streaming and releases the device.
func (c *Camera) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.release()
}

func (c *Camera) release() error {
	var err error
	if c.profile != nil {
		var e *C.rs2_error
		C.rs2_pipeline_stop(c.pipe, &e)
		err = multierr.Combine(err, errorFrom(e))
		C.rs2_delete_pipeline_profile(c.profile)
		c.profile = nil
	}
	if c.pipe != nil {
		C.rs2_delete_pipeline(c.pipe)
		c.pipe = nil
	}
	if c.cfg != nil {
		C.rs2_delete_config(c.cfg)
		c.cfg = nil
	}
	if c.ctx != nil {
		C.rs2_delete_context(c.ctx)
		c.ctx = nil
	}
	return err
}
