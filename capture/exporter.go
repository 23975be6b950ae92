package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/pointcloud"
	"go.viam.com/depthcapture/rimage"
)

// ExtraFormat is an additional point cloud encoding written next to the depth data.
type ExtraFormat string

// The extra point cloud encodings.
const (
	ExtraPCD = ExtraFormat("pcd")
	ExtraLAS = ExtraFormat("las")
)

// ParseExtraFormats validates a list of extra point cloud formats.
func ParseExtraFormats(names []string) ([]ExtraFormat, error) {
	out := make([]ExtraFormat, 0, len(names))
	for _, n := range names {
		switch f := ExtraFormat(n); f {
		case ExtraPCD, ExtraLAS:
			out = append(out, f)
		default:
			return nil, errors.Errorf("unsupported extra format %q, expected pcd or las", n)
		}
	}
	return out, nil
}

// Artifacts are the paths written by one export.
type Artifacts struct {
	DepthData    string
	Color        string
	AlignedColor string
	Extra        []string
}

// Exporter writes the files for one frame set.
type Exporter struct {
	Dir          string
	ImageFormat  rimage.ImageFormat
	ExtraFormats []ExtraFormat
	Logger       logging.Logger
}

// Names returns the paths the export numbered n writes to.
func (e *Exporter) Names(n uint64) Artifacts {
	format := e.ImageFormat
	if format == "" {
		format = rimage.FormatPNG
	}
	a := Artifacts{
		DepthData:    filepath.Join(e.Dir, fmt.Sprintf("depth_data_%d.dat", n)),
		Color:        filepath.Join(e.Dir, fmt.Sprintf("color_image_%d%s", n, format.Extension())),
		AlignedColor: filepath.Join(e.Dir, fmt.Sprintf("color_aligned_to_depth_image_%d%s", n, format.Extension())),
	}
	for _, f := range e.ExtraFormats {
		a.Extra = append(a.Extra, filepath.Join(e.Dir, fmt.Sprintf("depth_data_%d.%s", n, f)))
	}
	return a
}

// Export writes the depth data and both color images of fs, numbered n.
func (e *Exporter) Export(ctx context.Context, n uint64, fs *camera.FrameSet) (Artifacts, error) {
	a := e.Names(n)
	if err := fs.CheckValid(); err != nil {
		return a, err
	}
	if err := fs.DepthIntrinsics.CheckDeprojectable(); err != nil {
		return a, err
	}
	if e.Dir != "" {
		if err := os.MkdirAll(e.Dir, 0o750); err != nil {
			return a, err
		}
	}

	e.Logger.Infof("Writing %s, %d points", filepath.Base(a.DepthData), fs.DepthIntrinsics.Width*fs.DepthIntrinsics.Height)
	if err := writeFile(a.DepthData, func(f *os.File) error {
		return pointcloud.WriteDepthData(f, fs.Depth, &fs.DepthIntrinsics, fs.DepthScale)
	}); err != nil {
		return a, errors.Wrapf(err, "cannot write %q", a.DepthData)
	}
	if err := ctx.Err(); err != nil {
		return a, err
	}

	e.Logger.Infof("Writing %s, %d x %d pixels", filepath.Base(a.Color), fs.ColorIntrinsics.Width, fs.ColorIntrinsics.Height)
	if err := rimage.WriteImageToFile(a.Color, fs.Color); err != nil {
		return a, errors.Wrapf(err, "cannot write %q", a.Color)
	}
	e.Logger.Infof("Writing %s, %d x %d pixels", filepath.Base(a.AlignedColor), fs.AlignedIntrinsics.Width, fs.AlignedIntrinsics.Height)
	if err := rimage.WriteImageToFile(a.AlignedColor, fs.AlignedColor); err != nil {
		return a, errors.Wrapf(err, "cannot write %q", a.AlignedColor)
	}

	if len(a.Extra) == 0 && !e.Logger.Level().Enabled(zapcore.DebugLevel) {
		return a, nil
	}
	records, err := pointcloud.Deproject(fs.Depth, &fs.DepthIntrinsics, fs.DepthScale)
	if err != nil {
		return a, err
	}
	s := pointcloud.Summarize(records)
	e.Logger.Debugw("exported depth", "frame", n, "sequence", fs.Sequence, "valid", s.Valid, "invalid", s.Invalid,
		"mean_m", s.MeanDepth, "std_m", s.StdDepth, "min_m", s.MinDepth, "max_m", s.MaxDepth)
	for _, fn := range a.Extra {
		e.Logger.Infof("Writing %s, %d points", filepath.Base(fn), s.Valid)
		err := pointcloud.WriteToFile(fn, records, fs.DepthIntrinsics.Width, fs.DepthIntrinsics.Height, fs.AlignedColor)
		if err != nil {
			return a, errors.Wrapf(err, "cannot write %q", fn)
		}
	}
	return a, nil
}

func writeFile(fn string, write func(f *os.File) error) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return write(f)
}
