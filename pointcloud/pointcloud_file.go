package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/depthcapture/rimage"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
)

// WriteToFile picks the writer from the file extension (.pcd, .las or .dat).
func WriteToFile(fn string, records []Record, width, height int, colors *rimage.RGBBuffer) error {
	switch filepath.Ext(fn) {
	case ".las":
		return WriteLAS(fn, records, colors)
	case ".pcd", ".dat":
	default:
		return errors.Errorf("do not know how to write file %q", fn)
	}
	return writeFile(fn, func(w io.Writer) error {
		if filepath.Ext(fn) == ".dat" {
			return WriteRecords(w, records, width, height)
		}
		return WritePCD(w, records, width, height, colors, PCDAscii)
	})
}

// WritePCD writes an organized cloud in the PCD v0.7 format. Invalid samples are written as NaN so
// the grid keeps its shape. When colors is not nil it must be aligned to the depth grid and an rgb
// field is added.
func WritePCD(out io.Writer, records []Record, width, height int, colors *rimage.RGBBuffer, outputType PCDType) error {
	if len(records) != width*height {
		return errors.Errorf("have %d records for a %dx%d cloud", len(records), width, height)
	}
	hasColor := colors != nil
	if hasColor && (colors.Width() != width || colors.Height() != height) {
		return errors.Errorf("colors (%d,%d) are not aligned to the cloud (%d,%d)",
			colors.Width(), colors.Height(), width, height)
	}
	bw := bufio.NewWriter(out)
	var err error
	if hasColor {
		_, err = fmt.Fprintf(bw, "VERSION .7\n"+
			"FIELDS x y z rgb\n"+
			"SIZE 4 4 4 4\n"+
			"TYPE F F F I\n"+
			"COUNT 1 1 1 1\n")
	} else {
		_, err = fmt.Fprintf(bw, "VERSION .7\n"+
			"FIELDS x y z\n"+
			"SIZE 4 4 4\n"+
			"TYPE F F F\n"+
			"COUNT 1 1 1\n")
	}
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		width, height, len(records)); err != nil {
		return err
	}
	switch outputType {
	case PCDBinary:
		_, err = fmt.Fprintf(bw, "DATA binary\n")
	case PCDAscii:
		_, err = fmt.Fprintf(bw, "DATA ascii\n")
	default:
		return errors.Errorf("unsupported pcd type %d", outputType)
	}
	if err != nil {
		return err
	}

	nan := float32(math.NaN())
	buf := make([]byte, 0, 64)
	for i, rec := range records {
		x, y, z := rec.Float32()
		if !rec.Valid {
			x, y, z = nan, nan, nan
		}
		c := 0
		if hasColor {
			r, g, b := colors.RGBAt(i%width, i/width)
			c = int(r)<<16 | int(g)<<8 | int(b)
		}
		buf = buf[:0]
		switch outputType {
		case PCDBinary:
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(y))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(z))
			if hasColor {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(c))
			}
		case PCDAscii:
			buf = appendPCDFloat(buf, x)
			buf = append(buf, ' ')
			buf = appendPCDFloat(buf, y)
			buf = append(buf, ' ')
			buf = appendPCDFloat(buf, z)
			if hasColor {
				buf = append(buf, fmt.Sprintf(" %d", c)...)
			}
			buf = append(buf, '\n')
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func appendPCDFloat(buf []byte, v float32) []byte {
	if math.IsNaN(float64(v)) {
		return append(buf, "nan"...)
	}
	return appendFloat(buf, v)
}

// lasUnitsPerMeter is the LAS coordinate unit; points are stored in millimeters.
const lasUnitsPerMeter = 1000.

// WriteLAS writes the valid samples out to a LAS file in millimeters. When colors is not nil it must be aligned
// to the depth grid and point format 2 is used.
func WriteLAS(fn string, records []Record, colors *rimage.RGBBuffer) (err error) {
	if colors != nil && colors.Width()*colors.Height() != len(records) {
		return errors.Errorf("colors (%d,%d) are not aligned to %d records", colors.Width(), colors.Height(), len(records))
	}
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	pointFormatID := 0
	if colors != nil {
		pointFormatID = 2
	}
	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: byte(pointFormatID),
	}); err != nil {
		return
	}

	for i, rec := range records {
		if !rec.Valid {
			continue
		}
		var lp lidario.LasPointer
		pr0 := &lidario.PointRecord0{
			X: rec.Point.X * lasUnitsPerMeter,
			Y: rec.Point.Y * lasUnitsPerMeter,
			Z: rec.Point.Z * lasUnitsPerMeter,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			PointSourceID: 1,
		}
		lp = pr0
		if colors != nil {
			r, g, b := colors.RGBAt(i%colors.Width(), i/colors.Width())
			lp = &lidario.PointRecord2{
				PointRecord0: pr0,
				RGB: &lidario.RgbData{
					Red:   uint16(r) * 256,
					Green: uint16(g) * 256,
					Blue:  uint16(b) * 256,
				},
			}
		}
		if err = lf.AddLasPoint(lp); err != nil {
			return
		}
	}
	return
}

// ReadLAS returns the points stored in a LAS file, in meters. Every point read is valid.
func ReadLAS(fn string) ([]Record, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	records := make([]Record, 0, lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()
		records = append(records, Record{Point: r3.Vector{X: data.X, Y: data.Y, Z: data.Z}.Mul(1 / lasUnitsPerMeter), Valid: true})
	}
	return records, nil
}

func writeFile(fn string, write func(w io.Writer) error) (err error) {
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
