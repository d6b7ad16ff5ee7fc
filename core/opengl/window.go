package opengl

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/toxichemicals/GO/shaderview/input"
)

// WindowOptions configures the window and its GL context.
type WindowOptions struct {
	Width, Height int
	Title         string
	VSync         bool
}

// Window owns the GLFW window and its OpenGL context. GLFW callbacks are
// translated into input events and buffered until PollEvents.
type Window struct {
	window *glfw.Window
	log    *zap.Logger
	events input.Queue
}

var _ input.Source = (*Window)(nil)

// NewWindow initializes GLFW, creates the window and makes its context
// current. The caller must have locked the OS thread.
func NewWindow(opts WindowOptions, log *zap.Logger) (*Window, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	window.MakeContextCurrent()

	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	log.Debug("window created",
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
		zap.Bool("vsync", opts.VSync))

	w := &Window{window: window, log: log}
	w.installCallbacks()
	return w, nil
}

func (w *Window) installCallbacks() {
	w.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.events.Push(input.Resized{Width: width, Height: height})
	})

	w.window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if k := translateKey(key); k != input.KeyUnknown {
			w.events.Push(input.KeyPressed{Key: k})
		}
	})

	w.window.SetMouseButtonCallback(func(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		b, ok := translateButton(button)
		if !ok || action == glfw.Repeat {
			return
		}
		x, y := win.GetCursorPos()
		w.events.Push(input.MouseButtonChanged{Button: b, Down: action == glfw.Press, X: x, Y: y})
	})

	w.window.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		w.events.Push(input.CursorMoved{X: xpos, Y: ypos})
	})

	w.window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.events.Push(input.Scrolled{Delta: yoff})
	})

	w.window.SetCloseCallback(func(_ *glfw.Window) {
		w.events.Push(input.CloseRequested{})
	})
}

// PollEvents pumps the GLFW event loop and returns what the callbacks saw.
func (w *Window) PollEvents() []input.Event {
	glfw.PollEvents()
	return w.events.PollEvents()
}

// FramebufferSize returns the drawable size in pixels.
func (w *Window) FramebufferSize() (int, int) {
	return w.window.GetFramebufferSize()
}

// Present swaps the front and back buffers.
func (w *Window) Present() {
	w.window.SwapBuffers()
}

func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

func (w *Window) SetTitle(title string) {
	w.window.SetTitle(title)
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	glfw.Terminate()
}

func translateKey(key glfw.Key) input.Key {
	switch key {
	case glfw.KeyEscape:
		return input.KeyEscape
	case glfw.KeyR:
		return input.KeyR
	case glfw.KeyF5:
		return input.KeyF5
	case glfw.KeyHome:
		return input.KeyHome
	case glfw.KeySpace:
		return input.KeySpace
	}
	return input.KeyUnknown
}

func translateButton(button glfw.MouseButton) (input.MouseButton, bool) {
	switch button {
	case glfw.MouseButtonLeft:
		return input.MouseButtonLeft, true
	case glfw.MouseButtonRight:
		return input.MouseButtonRight, true
	case glfw.MouseButtonMiddle:
		return input.MouseButtonMiddle, true
	}
	return 0, false
}
