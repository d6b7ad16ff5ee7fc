// Package core defines the Device abstraction over the GPU API. The OpenGL
// implementation and the GLFW window live in core/opengl.
package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// InvalidLocation is returned by UniformLocation when the active program
// declares no uniform with the requested name.
const InvalidLocation int32 = -1

// VertexBuffer is an uploaded, immutable vertex array.
type VertexBuffer struct {
	VAO   uint32
	VBO   uint32
	Count int32
}

// Valid reports whether the buffer refers to live GPU objects.
func (vb VertexBuffer) Valid() bool {
	return vb.VAO != 0 && vb.VBO != 0
}

// Device is the subset of the GPU API the viewer needs. Every method must be
// called from the thread that owns the context.
type Device interface {
	// CompileProgram compiles both stages and links them. On failure it
	// returns a *CompileError or *LinkError and leaks no GPU objects.
	CompileProgram(vertexSource, fragmentSource string) (uint32, error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	UniformLocation(program uint32, name string) int32
	UniformMatrix4(location int32, m mgl32.Mat4)
	Uniform1f(location int32, v float32)

	// CreateVertexBuffer uploads interleaved float data. attributes lists
	// the component count of each attribute in layout order.
	CreateVertexBuffer(vertices []float32, attributes []int32) (VertexBuffer, error)
	DeleteVertexBuffer(vb VertexBuffer)
	DrawTriangles(vb VertexBuffer)

	Clear(color mgl32.Vec4)
	Viewport(width, height int)

	// Errors drains every pending GPU error.
	Errors() []error
}

// Stage names a shader stage.
type Stage string

const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
)

// CompileError carries the compiler diagnostics of one stage.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader:\n%v", e.Stage, e.Log)
}

// LinkError carries the linker diagnostics.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link program:\n%v", e.Log)
}

// GPUError is an error code reported by the driver outside of compilation.
type GPUError struct {
	Code uint32
}

func (e *GPUError) Error() string {
	return fmt.Sprintf("gpu error 0x%04X", e.Code)
}
