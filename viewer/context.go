package viewer

import (
	"github.com/toxichemicals/GO/shaderview/camera"
	"github.com/toxichemicals/GO/shaderview/input"
)

// Context is the interaction state shared between input handling and the
// frame loop. Input only reaches the camera through Apply.
type Context struct {
	Camera    *camera.Camera
	ReloadKey input.Key

	// ReloadRequested is set by the reload key or a file-watch event and
	// cleared at the start of every frame.
	ReloadRequested bool
	// Closing is set by Escape or a window close request.
	Closing bool

	Width, Height int
	Aspect        float32

	resized    bool
	dragButton input.MouseButton
}

// NewContext returns a context for a framebuffer of the given size.
func NewContext(cam *camera.Camera, reloadKey input.Key, width, height int) *Context {
	c := &Context{Camera: cam, ReloadKey: reloadKey, Aspect: 1}
	c.resize(width, height)
	return c
}

// Apply updates the context for one event.
func (c *Context) Apply(ev input.Event) {
	switch ev := ev.(type) {
	case input.KeyPressed:
		switch ev.Key {
		case c.ReloadKey:
			c.ReloadRequested = true
		case input.KeyEscape:
			c.Closing = true
		case input.KeyHome:
			c.Camera.Reset()
		}
	case input.ReloadRequested:
		c.ReloadRequested = true
	case input.CloseRequested:
		c.Closing = true
	case input.MouseButtonChanged:
		c.applyButton(ev)
	case input.CursorMoved:
		c.Camera.UpdateDrag(ev.X, ev.Y)
	case input.Scrolled:
		c.Camera.ProcessScroll(float32(ev.Delta))
	case input.Resized:
		c.resize(ev.Width, ev.Height)
	}
}

func (c *Context) applyButton(ev input.MouseButtonChanged) {
	if !ev.Down {
		if c.Camera.Dragging() && ev.Button == c.dragButton {
			c.Camera.EndDrag()
		}
		return
	}
	mode := camera.DragOrbit
	if ev.Button != input.MouseButtonLeft {
		mode = camera.DragPan
	}
	c.dragButton = ev.Button
	c.Camera.StartDrag(ev.X, ev.Y, mode)
}

// A minimized window reports a zero size; the last good aspect is kept.
func (c *Context) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Width, c.Height = width, height
	c.Aspect = float32(width) / float32(height)
	c.resized = true
}
