// Package camera implements the orbit camera driven by mouse drags and the
// scroll wheel. It holds no GPU state; every matrix is a pure function of the
// camera's fields.
package camera

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ZoomMode selects what the scroll wheel changes.
type ZoomMode int

const (
	// ZoomOrbit moves the camera along its orbit radius.
	ZoomOrbit ZoomMode = iota
	// ZoomFOV narrows or widens the field of view.
	ZoomFOV
)

func (m ZoomMode) String() string {
	switch m {
	case ZoomOrbit:
		return "orbit"
	case ZoomFOV:
		return "fov"
	}
	return fmt.Sprintf("ZoomMode(%d)", int(m))
}

// ParseZoomMode accepts "orbit" or "fov".
func ParseZoomMode(s string) (ZoomMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "orbit", "radius", "":
		return ZoomOrbit, nil
	case "fov":
		return ZoomFOV, nil
	}
	return ZoomOrbit, fmt.Errorf("unknown zoom mode %q", s)
}

// DragMode selects what a drag changes.
type DragMode int

const (
	// DragOrbit turns cursor movement into yaw and pitch.
	DragOrbit DragMode = iota
	// DragPan shifts the view parallel to the screen.
	DragPan
)

// Limits applied on every update, in degrees or world units.
const (
	MinPitch  = -89.0
	MaxPitch  = 89.0
	MinRadius = 1.0
	MaxRadius = 50.0
	MinFOV    = 1.0
	MaxFOV    = 90.0

	DefaultRadius = 5.0
	DefaultFOV    = 45.0

	// Sensitivity is degrees of yaw/pitch per pixel of drag.
	Sensitivity = 0.3
	// PanSensitivity is view-space units per pixel at radius 1.
	PanSensitivity = 0.002
	// ScrollStep is orbit radius change per scroll unit.
	ScrollStep = 0.1

	// Near and Far are the clip plane distances of the projection.
	Near = 0.1
	Far  = 100.0
)

var (
	focus = mgl32.Vec3{0, 0, 0}
	up    = mgl32.Vec3{0, 1, 0}
)

// Options configures a new Camera. Zero values select the defaults.
type Options struct {
	ZoomMode ZoomMode
	Radius   float32
	Yaw      float32
	Pitch    float32
	FOV      float32
}

// Camera orbits the origin. Position is derived from yaw, pitch and radius
// and never stored on its own.
type Camera struct {
	initial Options

	mode   ZoomMode
	radius float32
	yaw    float32
	pitch  float32
	fov    float32
	pan    mgl32.Vec2

	dragging bool
	dragMode DragMode
	lastX    float64
	lastY    float64
}

// New creates a camera in the Idle state.
func New(opts Options) *Camera {
	if opts.Radius == 0 {
		opts.Radius = DefaultRadius
	}
	if opts.FOV == 0 {
		opts.FOV = DefaultFOV
	}
	c := &Camera{initial: opts}
	c.Reset()
	return c
}

// Reset restores the options the camera was created with and drops any drag.
func (c *Camera) Reset() {
	c.mode = c.initial.ZoomMode
	c.radius = clamp(c.initial.Radius, MinRadius, MaxRadius)
	c.yaw = c.initial.Yaw
	c.pitch = clamp(c.initial.Pitch, MinPitch, MaxPitch)
	c.fov = clamp(c.initial.FOV, MinFOV, MaxFOV)
	c.pan = mgl32.Vec2{}
	c.dragging = false
}

// StartDrag enters the Dragging state at the given cursor position.
func (c *Camera) StartDrag(x, y float64, mode DragMode) {
	c.dragging = true
	c.dragMode = mode
	c.lastX, c.lastY = x, y
}

// UpdateDrag applies the cursor movement since the last recorded position.
// It does nothing while Idle or when the movement is not finite.
func (c *Camera) UpdateDrag(x, y float64) {
	if !c.dragging {
		return
	}
	dx := float32(x - c.lastX)
	dy := float32(y - c.lastY)
	if !finite(dx) || !finite(dy) {
		return
	}
	c.lastX, c.lastY = x, y

	switch c.dragMode {
	case DragOrbit:
		c.yaw -= dx * Sensitivity
		c.pitch = clamp(c.pitch+dy*Sensitivity, MinPitch, MaxPitch)
	case DragPan:
		scale := PanSensitivity * c.radius
		c.pan = c.pan.Add(mgl32.Vec2{dx * scale, -dy * scale})
	}
}

// EndDrag returns to Idle.
func (c *Camera) EndDrag() {
	c.dragging = false
}

// ProcessScroll zooms by delta scroll units according to the zoom mode.
// Non-finite deltas are dropped.
func (c *Camera) ProcessScroll(delta float32) {
	if !finite(delta) {
		return
	}
	switch c.mode {
	case ZoomFOV:
		c.fov = clamp(c.fov-delta, MinFOV, MaxFOV)
	default:
		c.radius = clamp(c.radius-ScrollStep*delta, MinRadius, MaxRadius)
	}
}

// Position returns the eye position on the orbit sphere.
func (c *Camera) Position() mgl32.Vec3 {
	sinYaw, cosYaw := math32.Sincos(mgl32.DegToRad(c.yaw))
	sinPitch, cosPitch := math32.Sincos(mgl32.DegToRad(c.pitch))
	return focus.Add(mgl32.Vec3{
		c.radius * cosPitch * sinYaw,
		c.radius * sinPitch,
		c.radius * cosPitch * cosYaw,
	})
}

// ViewMatrix looks from Position at the origin, shifted by the pan offset.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	view := mgl32.LookAtV(c.Position(), focus, up)
	if c.pan == (mgl32.Vec2{}) {
		return view
	}
	return mgl32.Translate3D(c.pan[0], c.pan[1], 0).Mul4(view)
}

// ProjectionMatrix returns a perspective projection for the aspect ratio.
// Orbit zoom keeps the field of view at the configured value.
func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	fov := c.fov
	if c.mode == ZoomOrbit {
		fov = clamp(c.initial.FOV, MinFOV, MaxFOV)
	}
	return mgl32.Perspective(mgl32.DegToRad(fov), aspect, Near, Far)
}

func (c *Camera) Mode() ZoomMode { return c.mode }
func (c *Camera) Radius() float32 { return c.radius }
func (c *Camera) Yaw() float32 { return c.yaw }
func (c *Camera) Pitch() float32 { return c.pitch }
func (c *Camera) FOV() float32 { return c.fov }
func (c *Camera) Pan() mgl32.Vec2 { return c.pan }
func (c *Camera) Dragging() bool { return c.dragging }
func (c *Camera) DragMode() DragMode { return c.dragMode }

// clamp maps NaN to lo.
func clamp(v, lo, hi float32) float32 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
