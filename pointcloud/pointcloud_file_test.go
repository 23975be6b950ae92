package pointcloud

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/depthcapture/rimage"
)

func r3Z(z float64) r3.Vector {
	return r3.Vector{X: z / 10, Y: -z / 10, Z: z}
}

func TestWritePCDAscii(t *testing.T) {
	records := []Record{{Point: r3Z(1), Valid: true}, {}}
	var buf bytes.Buffer
	test.That(t, WritePCD(&buf, records, 2, 1, nil, PCDAscii), test.ShouldBeNil)
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "FIELDS x y z\n")
	test.That(t, out, test.ShouldContainSubstring, "WIDTH 2\nHEIGHT 1\n")
	test.That(t, out, test.ShouldContainSubstring, "POINTS 2\nDATA ascii\n")
	test.That(t, strings.HasSuffix(out, "0.1 -0.1 1\nnan nan nan\n"), test.ShouldBeTrue)

	colors := rimage.NewRGBBuffer(2, 1)
	colors.SetRGB(0, 0, 1, 2, 3)
	buf.Reset()
	test.That(t, WritePCD(&buf, records, 2, 1, colors, PCDAscii), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "FIELDS x y z rgb\n")
	test.That(t, buf.String(), test.ShouldContainSubstring, "0.1 -0.1 1 66051\n")

	test.That(t, WritePCD(&buf, records, 3, 1, nil, PCDAscii), test.ShouldNotBeNil)
	test.That(t, WritePCD(&buf, records, 2, 1, rimage.NewRGBBuffer(1, 1), PCDAscii), test.ShouldNotBeNil)
}

func TestWritePCDBinary(t *testing.T) {
	records := []Record{{Point: r3Z(2), Valid: true}, {}, {}}
	var buf bytes.Buffer
	test.That(t, WritePCD(&buf, records, 3, 1, nil, PCDBinary), test.ShouldBeNil)
	out := buf.Bytes()
	idx := bytes.Index(out, []byte("DATA binary\n"))
	test.That(t, idx, test.ShouldBeGreaterThan, 0)
	data := out[idx+len("DATA binary\n"):]
	test.That(t, data, test.ShouldHaveLength, 3*12)
	z := math.Float32frombits(uint32(data[8]) | uint32(data[9])<<8 | uint32(data[10])<<16 | uint32(data[11])<<24)
	test.That(t, z, test.ShouldEqual, float32(2))
}

func TestLASRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "cloud.las")
	records := []Record{{Point: r3Z(1.25), Valid: true}, {}, {Point: r3Z(0.5), Valid: true}}
	colors := rimage.NewRGBBuffer(3, 1)
	colors.SetRGB(2, 0, 255, 0, 0)
	test.That(t, WriteLAS(fn, records, colors), test.ShouldBeNil)

	read, err := ReadLAS(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read, test.ShouldHaveLength, 2)
	test.That(t, read[0].Point.Z, test.ShouldAlmostEqual, 1.25, 1e-4)
	test.That(t, read[1].Point.X, test.ShouldAlmostEqual, 0.05, 1e-4)
}

func TestWriteToFile(t *testing.T) {
	dir := t.TempDir()
	records := []Record{{Point: r3Z(1), Valid: true}, {}}
	for _, ext := range []string{".pcd", ".dat", ".las"} {
		fn := filepath.Join(dir, "out"+ext)
		test.That(t, WriteToFile(fn, records, 2, 1, nil), test.ShouldBeNil)
		_, err := os.Stat(fn)
		test.That(t, err, test.ShouldBeNil)
	}
	f, err := os.Open(filepath.Join(dir, "out.dat"))
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	width, height, read, err := ReadDepthData(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, width, test.ShouldEqual, 2)
	test.That(t, height, test.ShouldEqual, 1)
	test.That(t, read[1].Valid, test.ShouldBeFalse)

	test.That(t, WriteToFile(filepath.Join(dir, "out.ply"), records, 2, 1, nil), test.ShouldNotBeNil)
}
