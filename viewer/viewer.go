// Package viewer shows the color, aligned color and depth streams in a window and turns left
// clicks into capture requests.
package viewer

import (
	"context"
	"fmt"
	"image"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"go.viam.com/depthcapture/capture"
	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/rimage"
)

// Options configure the window.
type Options struct {
	Width  int
	Height int
}

const (
	defaultWidth  = 1280
	defaultHeight = 960
)

// Title is the window title for a device.
func Title(deviceName string) string {
	return fmt.Sprintf("Cheap capture tool (%s)", deviceName)
}

// Viewer is a window showing one frame set at a time. All methods must run on the main thread.
type Viewer struct {
	win      *glfw.Window
	textures [3]uint32
	logger   logging.Logger
}

// New opens the window. Left clicks and the space bar press trigger.
func New(deviceName string, opts Options, trigger *capture.Trigger, logger logging.Logger) (*Viewer, error) {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "GLFW initialization failed")
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	win, err := glfw.CreateWindow(opts.Width, opts.Height, Title(deviceName), nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "cannot create window")
	}
	win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, errors.Wrap(err, "OpenGL initialization failed")
	}
	logger.Debugw("window opened", "title", Title(deviceName), "gl_version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft && action == glfw.Press {
			trigger.Press()
		}
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeySpace:
			trigger.Press()
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		default:
		}
	})

	v := &Viewer{win: win, logger: logger}
	gl.GenTextures(int32(len(v.textures)), &v.textures[0])
	for _, tex := range v.textures {
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return v, nil
}

// ShouldClose reports whether the user closed the window.
func (v *Viewer) ShouldClose() bool {
	return v.win.ShouldClose()
}

// PollEvents processes pending window events, running the input callbacks.
func (v *Viewer) PollEvents() {
	glfw.PollEvents()
}

// Draw shows the three images of fs and swaps buffers.
func (v *Viewer) Draw(fs *camera.FrameSet) {
	fbw, fbh := v.win.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbw), int32(fbh))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	w, h := v.win.GetSize()
	gl.MatrixMode(gl.PROJECTION)
	gl.PushMatrix()
	gl.LoadIdentity()
	gl.Ortho(0, float64(w), float64(h), 0, -1, 1)

	views := Layout(w, h)
	v.show(v.textures[0], fs.Color, views[0])
	v.show(v.textures[1], fs.AlignedColor, views[1])
	v.show(v.textures[2], rimage.ColorizeDepth(fs.Depth), views[2])

	gl.PopMatrix()
	v.win.SwapBuffers()
}

func (v *Viewer) show(tex uint32, img *rimage.RGBBuffer, r image.Rectangle) {
	if img == nil || img.Width() == 0 || img.Height() == 0 {
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB, int32(img.Width()), int32(img.Height()), 0,
		gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix()))

	dst := Fit(r, img.Width(), img.Height())
	x0, y0, x1, y1 := float32(dst.Min.X), float32(dst.Min.Y), float32(dst.Max.X), float32(dst.Max.Y)
	gl.Enable(gl.TEXTURE_2D)
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(x0, y0)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(x1, y0)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(x1, y1)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(x0, y1)
	gl.End()
	gl.Disable(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Close destroys the window.
func (v *Viewer) Close() {
	gl.DeleteTextures(int32(len(v.textures)), &v.textures[0])
	v.win.Destroy()
	glfw.Terminate()
}

// Run shows frames from dev until the window is closed or ctx is done, exporting through s when
// the trigger is pressed. It must be called inside mainthread.Run; window calls are sent to the
// main thread while frames are waited for on the calling goroutine.
func Run(ctx context.Context, dev camera.Device, s *capture.Session, opts Options, logger logging.Logger) (err error) {
	var v *Viewer
	if err := mainthread.CallErr(func() error {
		var err error
		v, err = New(dev.Name(), opts, &s.Trigger, logger)
		return err
	}); err != nil {
		return err
	}
	defer mainthread.Call(v.Close)

	for {
		var closed bool
		mainthread.Call(func() {
			v.PollEvents()
			closed = v.ShouldClose()
		})
		if closed {
			return nil
		}
		fs, err := dev.WaitForFrames(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		mainthread.Call(func() { v.Draw(fs) })
		if _, _, err := s.Step(ctx, fs); err != nil {
			return err
		}
	}
}
