// Package coretest provides an in-memory core.Device for tests that need no
// GPU context.
package coretest

import (
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/toxichemicals/GO/shaderview/core"
)

// Marker strings that make the fake compiler fail. A source containing
// BadCompile fails to compile; one containing BadLink fails to link.
const (
	BadCompile = "#error"
	BadLink    = "#link-error"
)

// Program is the fake's record of a linked program.
type Program struct {
	ID             uint32
	VertexSource   string
	FragmentSource string
	Uniforms       []string
	Deleted        bool
}

// Upload is one uniform write.
type Upload struct {
	Program uint32
	Name    string
	Mat4    mgl32.Mat4
	Float   float32
}

// Device records every call. Uniforms a program "declares" are scraped from
// `uniform <type> <name>;` lines in its sources.
type Device struct {
	mu sync.Mutex

	nextID   uint32
	programs map[uint32]*Program
	bound    uint32
	buffers  map[uint32]core.VertexBuffer

	Calls     []string
	Uploads   []Upload
	Draws     []core.VertexBuffer
	Compiles  int
	Viewports [][2]int

	// PendingErrors are returned (and cleared) by the next Errors call.
	PendingErrors []error
}

var _ core.Device = (*Device)(nil)

func NewDevice() *Device {
	return &Device{
		programs: make(map[uint32]*Program),
		buffers:  make(map[uint32]core.VertexBuffer),
	}
}

func (d *Device) record(call string) {
	d.Calls = append(d.Calls, call)
}

func (d *Device) CompileProgram(vertexSource, fragmentSource string) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("compile")
	d.Compiles++

	if strings.Contains(vertexSource, BadCompile) {
		return 0, &core.CompileError{Stage: core.StageVertex, Log: "0:1(1): error: syntax error"}
	}
	if strings.Contains(fragmentSource, BadCompile) {
		return 0, &core.CompileError{Stage: core.StageFragment, Log: "0:1(1): error: syntax error"}
	}
	if strings.Contains(vertexSource, BadLink) || strings.Contains(fragmentSource, BadLink) {
		return 0, &core.LinkError{Log: "error: unresolved varying"}
	}

	d.nextID++
	p := &Program{
		ID:             d.nextID,
		VertexSource:   vertexSource,
		FragmentSource: fragmentSource,
		Uniforms:       append(scrapeUniforms(vertexSource), scrapeUniforms(fragmentSource)...),
	}
	d.programs[p.ID] = p
	return p.ID, nil
}

func (d *Device) DeleteProgram(program uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("deleteProgram")
	if p, ok := d.programs[program]; ok {
		p.Deleted = true
	}
}

func (d *Device) UseProgram(program uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("use")
	d.bound = program
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[program]
	if !ok || p.Deleted {
		return core.InvalidLocation
	}
	for i, u := range p.Uniforms {
		if u == name {
			return int32(i)
		}
	}
	return core.InvalidLocation
}

func (d *Device) uniformName(location int32) (uint32, string, bool) {
	p, ok := d.programs[d.bound]
	if !ok || location < 0 || int(location) >= len(p.Uniforms) {
		return 0, "", false
	}
	return p.ID, p.Uniforms[location], true
}

func (d *Device) UniformMatrix4(location int32, m mgl32.Mat4) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, name, ok := d.uniformName(location); ok {
		d.Uploads = append(d.Uploads, Upload{Program: id, Name: name, Mat4: m})
	}
}

func (d *Device) Uniform1f(location int32, v float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, name, ok := d.uniformName(location); ok {
		d.Uploads = append(d.Uploads, Upload{Program: id, Name: name, Float: v})
	}
}

func (d *Device) CreateVertexBuffer(vertices []float32, attributes []int32) (core.VertexBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("createBuffer")
	var stride int32
	for _, n := range attributes {
		stride += n
	}
	if stride == 0 || len(vertices) == 0 {
		return core.VertexBuffer{}, &core.GPUError{Code: 0x0501}
	}
	d.nextID++
	vb := core.VertexBuffer{VAO: d.nextID, VBO: d.nextID, Count: int32(len(vertices)) / stride}
	d.buffers[vb.VAO] = vb
	return vb, nil
}

func (d *Device) DeleteVertexBuffer(vb core.VertexBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("deleteBuffer")
	delete(d.buffers, vb.VAO)
}

func (d *Device) DrawTriangles(vb core.VertexBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("draw")
	d.Draws = append(d.Draws, vb)
}

func (d *Device) Clear(mgl32.Vec4) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("clear")
}

func (d *Device) Viewport(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("viewport")
	d.Viewports = append(d.Viewports, [2]int{width, height})
}

func (d *Device) Errors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	errs := d.PendingErrors
	d.PendingErrors = nil
	return errs
}

// Program returns the record for id, or nil.
func (d *Device) Program(id uint32) *Program {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.programs[id]
}

// Bound returns the program passed to the last UseProgram call.
func (d *Device) Bound() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bound
}

// LiveBuffers returns how many vertex buffers have not been deleted.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// LivePrograms returns how many programs have not been deleted.
func (d *Device) LivePrograms() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, p := range d.programs {
		if !p.Deleted {
			n++
		}
	}
	return n
}

// Reset clears the recorded calls, uploads, draws and viewports.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = nil
	d.Uploads = nil
	d.Draws = nil
	d.Viewports = nil
}

func scrapeUniforms(source string) []string {
	var names []string
	for _, line := range strings.Split(source, "\n") {
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(line), ";"))
		if len(fields) == 3 && fields[0] == "uniform" {
			names = append(names, fields[2])
		}
	}
	return names
}
