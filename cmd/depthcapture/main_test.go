package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/pointcloud"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp(logging.NewTestLogger(t))
	var out bytes.Buffer
	app.Writer = &out
	err := app.RunContext(context.Background(), append([]string{"depthcapture"}, args...))
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	fn := filepath.Join(dir, "capture.json")
	cfg := fmt.Sprintf(`{
		"camera": {"model": "fake", "attributes": {"width": 24, "height": 16, "color_width": 48, "color_height": 27, "unpaced": true}},
		"output_dir": %q,
		"extra_formats": ["pcd"],
		"headless": {"capture_every": 1, "max_captures": 2}
	}`, filepath.Join(dir, "out"))
	test.That(t, os.WriteFile(fn, []byte(cfg), 0o600), test.ShouldBeNil)
	return fn
}

func TestHeadless(t *testing.T) {
	dir := t.TempDir()
	fn := writeConfig(t, dir)

	_, err := runApp(t, "-c", fn, "--start-index", "4", "headless")
	test.That(t, err, test.ShouldBeNil)
	for _, name := range []string{
		"depth_data_4.dat", "color_image_4.png", "color_aligned_to_depth_image_4.png", "depth_data_4.pcd",
		"depth_data_5.dat", "color_image_5.png", "color_aligned_to_depth_image_5.png", "depth_data_5.pcd",
	} {
		_, err := os.Stat(filepath.Join(dir, "out", name))
		test.That(t, err, test.ShouldBeNil)
	}

	_, err = runApp(t, "-c", fn, "--image-format", "qoi", "--output-dir", filepath.Join(dir, "qoi"),
		"headless", "--max-captures", "1")
	test.That(t, err, test.ShouldBeNil)
	_, err = os.Stat(filepath.Join(dir, "qoi", "color_image_0.qoi"))
	test.That(t, err, test.ShouldBeNil)
	_, err = os.Stat(filepath.Join(dir, "qoi", "color_image_1.qoi"))
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}

func TestFlagErrors(t *testing.T) {
	_, err := runApp(t, "--image-format", "bmp", "devices")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bmp")

	_, err = runApp(t, "-c", filepath.Join(t.TempDir(), "missing.json"), "devices")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "--model", "nope", "headless")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nope")

	_, err = runApp(t, "--model", "fake", "--preset", "tiny", "headless")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "tiny")

	_, err = runApp(t, "--model", "fake", "headless", "--capture-every", "-1")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDevices(t *testing.T) {
	out, err := runApp(t, "devices")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Models:")
	test.That(t, out, test.ShouldContainSubstring, "  fake\n")
	test.That(t, out, test.ShouldContainSubstring, "  file\n")
	test.That(t, out, test.ShouldContainSubstring, "  realsense\n")
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "depth_data_0.dat")
	test.That(t, os.WriteFile(in, []byte("1 2\n0 0 0\n0.5 -0.25 1.5\n"), 0o600), test.ShouldBeNil)

	out := filepath.Join(dir, "depth_data_0.pcd")
	_, err := runApp(t, "convert", in, out)
	test.That(t, err, test.ShouldBeNil)
	pcd, err := os.ReadFile(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(pcd), test.ShouldContainSubstring, "WIDTH 2\nHEIGHT 1\n")

	las := filepath.Join(dir, "depth_data_0.las")
	_, err = runApp(t, "convert", in, las)
	test.That(t, err, test.ShouldBeNil)
	records, err := pointcloud.ReadLAS(las)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(records), test.ShouldEqual, 1)
	test.That(t, records[0].Point.Z, test.ShouldAlmostEqual, 1.5, 1e-3)

	_, err = runApp(t, "convert", in)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = runApp(t, "convert", in, filepath.Join(dir, "out.ply"))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = runApp(t, "convert", filepath.Join(dir, "missing.dat"), out)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReportError(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	var stderr bytes.Buffer
	test.That(t, reportError(&stderr, nil, logger), test.ShouldEqual, 0)
	test.That(t, stderr.String(), test.ShouldBeEmpty)

	test.That(t, reportError(&stderr, errors.New("boom"), logger), test.ShouldEqual, 1)
	test.That(t, stderr.String(), test.ShouldEqual, "boom\n")
	test.That(t, logs.Len(), test.ShouldEqual, 0)

	stderr.Reset()
	camErr := camera.NewError("rs2_pipeline_start", "pipe:0x1", "device busy")
	test.That(t, reportError(&stderr, errors.Wrap(camErr, "starting"), logger), test.ShouldEqual, 1)
	test.That(t, stderr.String(), test.ShouldEqual, "RealSense error calling rs2_pipeline_start(pipe:0x1):\n    device busy\n")
	test.That(t, logs.FilterMessage("camera error").Len(), test.ShouldEqual, 1)
}

func TestMainWithArgsExitCode(t *testing.T) {
	t.Cleanup(func() { exitCode = 0 })
	logger, logs := logging.NewObservedTestLogger(t)

	test.That(t, mainWithArgs(context.Background(), []string{"depthcapture", "devices"}, logger), test.ShouldBeNil)
	test.That(t, exitCode, test.ShouldEqual, 0)

	test.That(t, mainWithArgs(context.Background(), []string{"depthcapture", "--model", "nope", "headless"}, logger),
		test.ShouldBeNil)
	test.That(t, exitCode, test.ShouldEqual, 1)
	// the error goes to stderr, not through the logger
	test.That(t, logs.FilterMessageSnippet("nope").Len(), test.ShouldEqual, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, mainWithArgs(ctx, []string{"depthcapture", "--model", "fake", "headless"}, logger), test.ShouldBeNil)
	test.That(t, exitCode, test.ShouldEqual, 0)
}
