// Package opengl implements core.Device on top of OpenGL 4.1 core profile and
// provides the GLFW window the viewer renders into.
package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/toxichemicals/GO/shaderview/core"
)

// Device issues OpenGL calls. The context must be current on the calling
// thread; see Window.
type Device struct {
	log *zap.Logger
}

var _ core.Device = (*Device)(nil)

// NewDevice loads the GL function pointers for the current context and sets
// the global state the viewer relies on.
func NewDevice(log *zap.Logger) (*Device, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	gl.Enable(gl.DEPTH_TEST)

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))
	return &Device{log: log}, nil
}

func (d *Device) CompileProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileStage(vertexSource, gl.VERTEX_SHADER, core.StageVertex)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileStage(fragmentSource, gl.FRAGMENT_SHADER, core.StageFragment)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	if err := checkProgramLinkStatus(program); err != nil {
		gl.DeleteProgram(program)
		return 0, err
	}
	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)

	return program, nil
}

func (d *Device) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (d *Device) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) UniformMatrix4(location int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Device) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (d *Device) CreateVertexBuffer(vertices []float32, attributes []int32) (core.VertexBuffer, error) {
	var stride int32
	for _, n := range attributes {
		stride += n
	}
	var vb core.VertexBuffer
	if stride == 0 || len(vertices) == 0 {
		return vb, &core.GPUError{Code: gl.INVALID_VALUE}
	}

	gl.GenVertexArrays(1, &vb.VAO)
	gl.BindVertexArray(vb.VAO)

	gl.GenBuffers(1, &vb.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	var offset int32
	for i, n := range attributes {
		gl.VertexAttribPointerWithOffset(uint32(i), n, gl.FLOAT, false, stride*4, uintptr(offset*4))
		gl.EnableVertexAttribArray(uint32(i))
		offset += n
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	vb.Count = int32(len(vertices)) / stride
	if code := gl.GetError(); code != gl.NO_ERROR {
		d.DeleteVertexBuffer(vb)
		return core.VertexBuffer{}, &core.GPUError{Code: code}
	}
	return vb, nil
}

func (d *Device) DeleteVertexBuffer(vb core.VertexBuffer) {
	if vb.VAO != 0 {
		gl.DeleteVertexArrays(1, &vb.VAO)
	}
	if vb.VBO != 0 {
		gl.DeleteBuffers(1, &vb.VBO)
	}
}

func (d *Device) DrawTriangles(vb core.VertexBuffer) {
	gl.BindVertexArray(vb.VAO)
	gl.DrawArrays(gl.TRIANGLES, 0, vb.Count)
	gl.BindVertexArray(0)
}

func (d *Device) Clear(color mgl32.Vec4) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// maxDrainedErrors bounds Errors when no context is current, in which case
// glGetError may keep returning the same code.
const maxDrainedErrors = 16

func (d *Device) Errors() []error {
	var errs []error
	for i := 0; i < maxDrainedErrors; i++ {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		errs = append(errs, &core.GPUError{Code: code})
	}
	return errs
}

func compileStage(source string, shaderType uint32, stage core.Stage) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	glShaderSource(shader, source)
	gl.CompileShader(shader)
	if err := checkShaderCompileStatus(shader, stage); err != nil {
		gl.DeleteShader(shader)
		return 0, err
	}
	return shader, nil
}

// glShaderSource passes Go source to OpenGL without requiring a trailing NUL.
func glShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

func checkShaderCompileStatus(shader uint32, stage core.Stage) error {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return &core.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}
	return nil
}

func checkProgramLinkStatus(program uint32) error {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return &core.LinkError{Log: strings.TrimRight(log, "\x00")}
	}
	return nil
}
