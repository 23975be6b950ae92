package pointcloud

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/depthcapture/rimage"
	"go.viam.com/depthcapture/rimage/transform"
)

// WriteDepthData writes the depth map as text points: a "<height> <width>" line followed by one
// "x y z" line per pixel in row-major order, "0 0 0" where there is no depth. Coordinates are
// single precision with six significant digits.
func WriteDepthData(w io.Writer, dm *rimage.DepthMap, intrin *transform.PinholeCameraIntrinsics, scale float64) error {
	if err := checkDepth(dm, intrin, scale); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err := writeDepthDataHeader(bw, dm.Height(), dm.Width()); err != nil {
		return err
	}
	buf := make([]byte, 0, 64)
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			d := dm.GetDepth(x, y)
			if d == 0 {
				if _, err := bw.WriteString("0 0 0\n"); err != nil {
					return err
				}
				continue
			}
			buf = appendRecord(buf[:0], deprojectPixel(intrin, x, y, d, scale))
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteRecords writes already deprojected records in the same text layout as WriteDepthData.
func WriteRecords(w io.Writer, records []Record, width, height int) error {
	if len(records) != width*height {
		return errors.Errorf("have %d records for a %dx%d cloud", len(records), width, height)
	}
	bw := bufio.NewWriter(w)
	if err := writeDepthDataHeader(bw, height, width); err != nil {
		return err
	}
	buf := make([]byte, 0, 64)
	for _, rec := range records {
		buf = appendRecord(buf[:0], rec)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeDepthDataHeader(w *bufio.Writer, height, width int) error {
	_, err := w.WriteString(strconv.Itoa(height) + " " + strconv.Itoa(width) + "\n")
	return err
}

func appendRecord(buf []byte, rec Record) []byte {
	if !rec.Valid {
		return append(buf, "0 0 0\n"...)
	}
	x, y, z := rec.Float32()
	buf = appendFloat(buf, x)
	buf = append(buf, ' ')
	buf = appendFloat(buf, y)
	buf = append(buf, ' ')
	buf = appendFloat(buf, z)
	return append(buf, '\n')
}

// appendFloat matches the default stream formatting of a float: six significant digits,
// no trailing zeros, and an exponent only for very small or large magnitudes.
func appendFloat(buf []byte, v float32) []byte {
	return strconv.AppendFloat(buf, float64(v), 'g', 6, 32)
}

// maxPreallocRecords caps the allocation made from an unverified header.
const maxPreallocRecords = 1 << 22

// ReadDepthData parses a file written by WriteDepthData. A "0 0 0" line is an invalid record.
func ReadDepthData(r io.Reader) (width, height int, records []Record, err error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, 0, nil, err
		}
		return 0, 0, nil, errors.New("depth data is empty")
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 2 {
		return 0, 0, nil, errors.Errorf("expected \"<height> <width>\" header, got %q", scanner.Text())
	}
	if height, err = strconv.Atoi(header[0]); err != nil {
		return 0, 0, nil, errors.Wrap(err, "bad height")
	}
	if width, err = strconv.Atoi(header[1]); err != nil {
		return 0, 0, nil, errors.Wrap(err, "bad width")
	}
	if width < 0 || width >= rimage.MaxDimension || height < 0 || height >= rimage.MaxDimension {
		return 0, 0, nil, errors.Errorf("bad size %dx%d", width, height)
	}

	records = make([]Record, 0, min(width*height, maxPreallocRecords))
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return 0, 0, nil, errors.Errorf("line %d: expected 3 values, got %d", line, len(fields))
		}
		var v [3]float64
		for i, f := range fields {
			if v[i], err = strconv.ParseFloat(f, 32); err != nil {
				return 0, 0, nil, errors.Wrapf(err, "line %d", line)
			}
		}
		pt := r3.Vector{X: v[0], Y: v[1], Z: v[2]}
		records = append(records, Record{Point: pt, Valid: pt != r3.Vector{}})
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, nil, err
	}
	if len(records) != width*height {
		return 0, 0, nil, errors.Errorf("header says %dx%d but found %d points", width, height, len(records))
	}
	return width, height, records, nil
}
