// Package viewer runs the frame loop that ties input, the live shader program
// and the camera together around a single mesh draw.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/toxichemicals/GO/shaderview/camera"
	"github.com/toxichemicals/GO/shaderview/core"
	"github.com/toxichemicals/GO/shaderview/input"
)

// Uniform names every program may declare. Undeclared ones are skipped.
const (
	UniformModel      = "model"
	UniformView       = "view"
	UniformProjection = "projection"
	UniformTime       = "time"
)

// Program is the live shader program. *shader.Program implements it.
type Program interface {
	Use()
	SetUniformMat4(name string, m mgl32.Mat4)
	SetUniformFloat(name string, v float32)
	CheckForChanges() bool
	Reload() error
}

// Mesh is the drawable geometry. *mesh.Buffer implements it.
type Mesh interface {
	Draw()
}

// Presenter is the window side of a frame.
type Presenter interface {
	Present()
	ShouldClose() bool
	SetTitle(title string)
	FramebufferSize() (width, height int)
}

// Options wires an Orchestrator. Device, Program, Mesh, Camera and Presenter
// are required.
type Options struct {
	Device    core.Device
	Program   Program
	Mesh      Mesh
	Camera    *camera.Camera
	Input     input.Source
	Presenter Presenter
	Logger    *zap.Logger

	Title      string
	ReloadKey  input.Key
	ClearColor mgl32.Vec4
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// FrameContext describes one completed frame.
type FrameContext struct {
	DeltaTime  time.Duration
	Elapsed    time.Duration
	Aspect     float32
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Model      mgl32.Mat4

	ReloadRequested bool
	Reloaded        bool
}

// Orchestrator owns the frame loop. All of its methods must run on the
// thread that owns the GL context.
type Orchestrator struct {
	device    core.Device
	program   Program
	mesh      Mesh
	input     input.Source
	presenter Presenter
	log       *zap.Logger
	clock     func() time.Time

	ctx        *Context
	title      string
	clearColor mgl32.Vec4

	start time.Time
	last  time.Time

	fpsFrames int
	fpsSince  time.Time
}

// New validates opts and sizes the viewport to the presenter's framebuffer.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Device == nil:
		return nil, errors.New("viewer: device is required")
	case opts.Program == nil:
		return nil, errors.New("viewer: program is required")
	case opts.Mesh == nil:
		return nil, errors.New("viewer: mesh is required")
	case opts.Camera == nil:
		return nil, errors.New("viewer: camera is required")
	case opts.Presenter == nil:
		return nil, errors.New("viewer: presenter is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Input == nil {
		opts.Input = input.Multi()
	}

	width, height := opts.Presenter.FramebufferSize()
	o := &Orchestrator{
		device:     opts.Device,
		program:    opts.Program,
		mesh:       opts.Mesh,
		input:      opts.Input,
		presenter:  opts.Presenter,
		log:        opts.Logger,
		clock:      opts.Clock,
		ctx:        NewContext(opts.Camera, opts.ReloadKey, width, height),
		title:      opts.Title,
		clearColor: opts.ClearColor,
	}
	o.start = o.clock()
	o.last = o.start
	o.fpsSince = o.start
	o.applyViewport()
	return o, nil
}

// Context returns the interaction state.
func (o *Orchestrator) Context() *Context {
	return o.ctx
}

// Frame runs one frame. Input is applied and any reload finishes before the
// matrices are uploaded and the mesh is drawn.
func (o *Orchestrator) Frame() FrameContext {
	var fc FrameContext

	now := o.clock()
	fc.DeltaTime = now.Sub(o.last)
	fc.Elapsed = now.Sub(o.start)
	o.last = now

	o.ctx.ReloadRequested = false
	for _, ev := range o.input.PollEvents() {
		o.ctx.Apply(ev)
	}
	o.applyViewport()

	fc.ReloadRequested = o.ctx.ReloadRequested
	if fc.ReloadRequested || o.program.CheckForChanges() {
		if err := o.program.Reload(); err != nil {
			o.log.Error("shader reload failed, keeping previous program", zap.Error(err))
		} else {
			fc.Reloaded = true
			o.log.Info("shader reloaded successfully")
		}
	}

	o.device.Clear(o.clearColor)
	o.program.Use()

	cam := o.ctx.Camera
	fc.Aspect = o.ctx.Aspect
	fc.Model = mgl32.Ident4()
	fc.View = cam.ViewMatrix()
	fc.Projection = cam.ProjectionMatrix(fc.Aspect)
	o.program.SetUniformMat4(UniformModel, fc.Model)
	o.program.SetUniformMat4(UniformView, fc.View)
	o.program.SetUniformMat4(UniformProjection, fc.Projection)
	o.program.SetUniformFloat(UniformTime, float32(fc.Elapsed.Seconds()))

	o.mesh.Draw()
	o.presenter.Present()

	for _, err := range o.device.Errors() {
		o.log.Warn("gpu error", zap.Error(err))
	}
	o.updateFPS(now)
	return fc
}

// Run calls Frame until ctx is done, a close is requested or the presenter
// reports it should close. A frame that panics is logged and skipped.
func (o *Orchestrator) Run(ctx context.Context) {
	o.log.Info("render loop started")
	defer o.log.Info("render loop stopped")
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if o.ctx.Closing || o.presenter.ShouldClose() {
			return
		}
		if err := o.safeFrame(); err != nil {
			o.log.Error("frame failed", zap.Error(err))
		}
	}
}

func (o *Orchestrator) safeFrame() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	o.Frame()
	return nil
}

func (o *Orchestrator) applyViewport() {
	if !o.ctx.resized {
		return
	}
	o.ctx.resized = false
	o.device.Viewport(o.ctx.Width, o.ctx.Height)
}

func (o *Orchestrator) updateFPS(now time.Time) {
	o.fpsFrames++
	elapsed := now.Sub(o.fpsSince)
	if elapsed < time.Second {
		return
	}
	fps := float64(o.fpsFrames) / elapsed.Seconds()
	o.presenter.SetTitle(fmt.Sprintf("%s | FPS: %.2f", o.title, fps))
	o.fpsFrames = 0
	o.fpsSince = now
}
