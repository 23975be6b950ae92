// Package rimage holds the raster types exchanged between the camera, the exporter and the viewer:
// 16-bit depth maps and packed RGB buffers, along with their file encodings.
package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Depth is a raw depth sample as produced by the sensor. Multiply by the stream's depth scale to
// get meters. Zero means the sensor has no data for that pixel.
type Depth uint16

// MaxDepth is the largest representable raw depth sample.
const MaxDepth = Depth(math.MaxUint16)

// MaxDimension bounds width and height when reading depth maps from disk.
const MaxDimension = 100000

// DepthMap is a row-major grid of raw depth samples.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a zero filled depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewDepthMapFromRaw copies a row-major slice of raw samples into a new depth map.
func NewDepthMapFromRaw(width, height int, raw []uint16) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("bad width or height for depth map %v %v", width, height)
	}
	if len(raw) != width*height {
		return nil, errors.Errorf("depth buffer has %d samples, expected %d x %d", len(raw), width, height)
	}
	dm := NewEmptyDepthMap(width, height)
	for i, v := range raw {
		dm.data[i] = Depth(v)
	}
	return dm, nil
}

// HasData returns whether the map has any samples at all.
func (dm *DepthMap) HasData() bool {
	return dm.width > 0 && dm.data != nil
}

// Width returns the horizontal size of the map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle spanned by the map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// GetDepth returns the raw sample at (x, y).
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Get returns the raw sample at p.
func (dm *DepthMap) Get(p image.Point) Depth {
	return dm.GetDepth(p.X, p.Y)
}

// Set stores a raw sample at (x, y).
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// Data returns the row-major backing slice. It is not a copy.
func (dm *DepthMap) Data() []Depth {
	return dm.data
}

// Clone returns a deep copy.
func (dm *DepthMap) Clone() *DepthMap {
	out := NewEmptyDepthMap(dm.width, dm.height)
	copy(out.data, dm.data)
	return out
}

// MinMax returns the smallest and largest non-zero samples. Both are zero when the map has no data.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	min := MaxDepth
	max := Depth(0)
	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	if max == 0 {
		return 0, 0
	}
	return min, max
}

// ValidCount returns how many samples carry depth.
func (dm *DepthMap) ValidCount() int {
	n := 0
	for _, z := range dm.data {
		if z != 0 {
			n++
		}
	}
	return n
}

// ToGray16Picture converts the depth map into a 16-bit grayscale image.
func (dm *DepthMap) ToGray16Picture() *image.Gray16 {
	img := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			img.SetGray16(x, y, color.Gray16{uint16(dm.GetDepth(x, y))})
		}
	}
	return img
}

// ConvertImageToDepthMap reads 16-bit grayscale images (the usual on-disk depth encoding) into
// a depth map.
func ConvertImageToDepthMap(img image.Image) (*DepthMap, error) {
	switch ii := img.(type) {
	case *DepthMap:
		return ii, nil
	case *image.Gray16:
		b := ii.Bounds()
		dm := NewEmptyDepthMap(b.Dx(), b.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.Set(x, y, Depth(ii.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return dm, nil
	default:
		return nil, errors.Errorf("don't know how to make DepthMap from %T", img)
	}
}

// ColorModel lets a DepthMap stand in as an image.Image.
func (dm *DepthMap) ColorModel() color.Model {
	return color.Gray16Model
}

// At returns the sample as 16-bit gray.
func (dm *DepthMap) At(x, y int) color.Color {
	return color.Gray16{uint16(dm.GetDepth(x, y))}
}

// ParseDepthMap reads a depth map from fn. ".png" files are read as 16-bit grayscale, anything
// else as the raw format written by WriteToFile (optionally gzip compressed, ".gz").
func ParseDepthMap(fn string) (dm *DepthMap, err error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	if filepath.Ext(fn) == ".png" {
		img, err := png.Decode(f)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot decode depth png %q", fn)
		}
		return ConvertImageToDepthMap(img)
	}

	var r io.Reader = f
	if filepath.Ext(fn) == ".gz" {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer func() {
			err = multierr.Combine(err, gr.Close())
		}()
		r = gr
	}
	return ReadDepthMap(bufio.NewReader(r))
}

// ReadDepthMap reads the raw format: little endian uint64 width and height followed by
// width*height little endian uint16 samples in row-major order.
func ReadDepthMap(r io.Reader) (*DepthMap, error) {
	var header [2]uint64
	if err := binary.Read(r, binary.LittleEndian, header[:]); err != nil {
		return nil, errors.Wrap(err, "cannot read depth map header")
	}
	width, height := int(header[0]), int(header[1])
	if width <= 0 || width >= MaxDimension || height <= 0 || height >= MaxDimension {
		return nil, errors.Errorf("bad width or height for depth map %v %v", width, height)
	}

	raw := make([]uint16, width*height)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, errors.Wrapf(err, "cannot read %d x %d depth samples", width, height)
	}
	return NewDepthMapFromRaw(width, height, raw)
}

// WriteToFile writes the map in the raw format, gzip compressed when fn ends in ".gz".
func (dm *DepthMap) WriteToFile(fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var out io.Writer = f
	var gout *gzip.Writer
	if filepath.Ext(fn) == ".gz" {
		gout = gzip.NewWriter(f)
		out = gout
	}

	bw := bufio.NewWriter(out)
	if err := dm.WriteRaw(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if gout != nil {
		if err := gout.Close(); err != nil {
			return err
		}
	}
	return f.Sync()
}

// WriteRaw writes the map in the raw format read by ReadDepthMap.
func (dm *DepthMap) WriteRaw(out io.Writer) error {
	header := [2]uint64{uint64(dm.width), uint64(dm.height)}
	if err := binary.Write(out, binary.LittleEndian, header[:]); err != nil {
		return err
	}
	return binary.Write(out, binary.LittleEndian, dm.data)
}
