// Package main is the depth capture tool: it shows a depth camera's streams and exports a point
// file and two color images each time the window is clicked.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/faiface/mainthread"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"go.viam.com/utils"

	"go.viam.com/depthcapture/capture"
	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/components/camera/realsense"
	_ "go.viam.com/depthcapture/components/register"
	"go.viam.com/depthcapture/config"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/pointcloud"
	"go.viam.com/depthcapture/viewer"
)

const (
	flagConfig       = "config"
	flagDebug        = "debug"
	flagOutputDir    = "output-dir"
	flagModel        = "model"
	flagPreset       = "preset"
	flagImageFormat  = "image-format"
	flagStartIndex   = "start-index"
	flagCaptureEvery = "capture-every"
	flagMaxCaptures  = "max-captures"
)

var (
	logger   = logging.NewLogger("depthcapture")
	exitCode int
)

func main() {
	// GLFW must run on the process' main thread.
	mainthread.Run(func() {
		utils.ContextualMainQuit(mainWithArgs, logger)
	})
	os.Exit(exitCode)
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	err := utils.FilterOutError(newApp(logger).RunContext(ctx, args), context.Canceled)
	exitCode = reportError(os.Stderr, err, logger)
	return nil
}

// reportError prints err to w and returns the process exit code. Camera errors print as the
// SDK reports them, with the failed call and its arguments.
func reportError(w io.Writer, err error, logger logging.Logger) int {
	if err == nil {
		return 0
	}
	if camErr, ok := camera.AsError(err); ok {
		logger.Debugw("camera error", "function", camErr.Function, "args", camErr.Args, "message", camErr.Message())
		err = camErr
	}
	fmt.Fprintln(w, err.Error())
	return 1
}

func newApp(logger logging.Logger) *cli.App {
	var cfg *config.Config
	return &cli.App{
		Name:  "depthcapture",
		Usage: "view a depth camera and export point files and color images on click",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagOutputDir,
				Usage: "write captures to `DIR`",
			},
			&cli.StringFlag{
				Name:  flagModel,
				Usage: "camera model to open (see the devices command)",
			},
			&cli.StringFlag{
				Name:  flagPreset,
				Usage: "stream preset: best_quality, largest_image or highest_framerate",
			},
			&cli.StringFlag{
				Name:  flagImageFormat,
				Usage: "color image format: png, qoi, webp or tga",
			},
			&cli.Uint64Flag{
				Name:  flagStartIndex,
				Usage: "number of the first capture",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = loadConfig(c)
			if err != nil {
				return err
			}
			level, err := logging.LevelFromString(cfg.LogLevel)
			if err != nil {
				return err
			}
			if c.Bool(flagDebug) {
				level = zapcore.DebugLevel
			}
			logger.SetLevel(level)
			return nil
		},
		Action: func(c *cli.Context) error {
			return runWindow(c.Context, cfg, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "show the streams in a window; left click captures",
				Action: func(c *cli.Context) error {
					return runWindow(c.Context, cfg, logger)
				},
			},
			{
				Name:  "headless",
				Usage: "stream without a window; SIGQUIT or the capture schedule captures",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagCaptureEvery,
						Usage: "capture every `N`th frame set",
					},
					&cli.IntFlag{
						Name:  flagMaxCaptures,
						Usage: "stop after `N` captures",
					},
				},
				Action: func(c *cli.Context) error {
					if c.IsSet(flagCaptureEvery) {
						cfg.Headless.CaptureEvery = c.Int(flagCaptureEvery)
					}
					if c.IsSet(flagMaxCaptures) {
						cfg.Headless.MaxCaptures = c.Int(flagMaxCaptures)
					}
					if err := cfg.Validate(); err != nil {
						return err
					}
					return runHeadless(c.Context, cfg, logger)
				},
			},
			{
				Name:  "devices",
				Usage: "list camera models and connected RealSense devices",
				Action: func(c *cli.Context) error {
					return listDevices(c)
				},
			},
			{
				Name:      "convert",
				Usage:     "re-encode an exported depth data file as pcd, las or dat",
				ArgsUsage: "<depth_data.dat> <out.(pcd|las|dat)>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return errors.New("convert needs an input and an output file")
					}
					return convert(c.Args().Get(0), c.Args().Get(1), logger)
				},
			},
		},
	}
}

// loadConfig reads the config file, if any, and applies the global flags on top of it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if fn := c.String(flagConfig); fn != "" {
		var err error
		if cfg, err = config.Read(fn); err != nil {
			return nil, err
		}
	}
	if c.IsSet(flagOutputDir) {
		cfg.OutputDir = c.String(flagOutputDir)
	}
	if c.IsSet(flagModel) && c.String(flagModel) != cfg.Camera.Model {
		cfg.Camera = camera.Config{Model: c.String(flagModel)}
	}
	if c.IsSet(flagPreset) {
		if cfg.Camera.Attributes == nil {
			cfg.Camera.Attributes = map[string]interface{}{}
		}
		cfg.Camera.Attributes["preset"] = c.String(flagPreset)
	}
	if c.IsSet(flagImageFormat) {
		cfg.ImageFormat = c.String(flagImageFormat)
	}
	if c.IsSet(flagStartIndex) {
		cfg.StartIndex = c.Uint64(flagStartIndex)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDevice(ctx context.Context, cfg *config.Config, logger logging.Logger) (camera.Device, *capture.Session, error) {
	exporter, err := cfg.NewExporter(logger.Sublogger("export"))
	if err != nil {
		return nil, nil, err
	}
	dev, err := camera.Open(ctx, cfg.Camera, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := dev.Start(ctx); err != nil {
		return nil, nil, multierr.Combine(err, dev.Close(ctx))
	}
	logger.Infow("streaming", "device", dev.Name(), "output_dir", cfg.OutputDir, "first_capture", cfg.StartIndex)
	return dev, capture.NewSession(exporter, cfg.StartIndex), nil
}

func runWindow(ctx context.Context, cfg *config.Config, logger logging.Logger) (err error) {
	dev, s, err := openDevice(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, dev.Close(context.Background()))
	}()
	return viewer.Run(ctx, dev, s, viewer.Options{Width: cfg.Window.Width, Height: cfg.Window.Height}, logger)
}

func runHeadless(ctx context.Context, cfg *config.Config, logger logging.Logger) (err error) {
	dev, s, err := openDevice(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, dev.Close(context.Background()))
	}()
	return capture.RunHeadless(ctx, dev, s, capture.HeadlessOptions{
		CaptureEvery: cfg.Headless.CaptureEvery,
		MaxCaptures:  cfg.Headless.MaxCaptures,
	}, logger)
}

func listDevices(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, "Models:")
	for _, m := range camera.RegisteredModels() {
		fmt.Fprintf(c.App.Writer, "  %s\n", m)
	}
	if !realsense.Supported {
		fmt.Fprintf(c.App.Writer, "%s\n", realsense.ErrNotCompiled)
		return nil
	}
	devices, err := realsense.QueryDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return camera.ErrNoDevice
	}
	fmt.Fprintln(c.App.Writer, "Devices:")
	for _, d := range devices {
		fmt.Fprintf(c.App.Writer, "  %s (serial %s, firmware %s)\n", d.Name, d.Serial, d.Firmware)
	}
	return nil
}

func convert(in, out string, logger logging.Logger) (err error) {
	//nolint:gosec
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	width, height, records, err := pointcloud.ReadDepthData(bufio.NewReader(f))
	if err != nil {
		return errors.Wrapf(err, "cannot read %q", in)
	}
	logger.Infof("Writing %s, %d points", out, width*height)
	return pointcloud.WriteToFile(out, records, width, height, nil)
}
