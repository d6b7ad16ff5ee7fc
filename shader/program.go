// Package shader owns the live-editable GPU program built from two GLSL
// files. An edited program replaces the running one only if it links.
package shader

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/toxichemicals/GO/shaderview/core"
)

// ErrFileRead wraps every failure to stat or read a shader source.
var ErrFileRead = errors.New("shader source unreadable")

// Program is a compiled and linked shader program built from a vertex and a
// fragment source file. The handle it exposes always belongs to the last
// load that succeeded.
type Program struct {
	device core.Device
	log    *zap.Logger

	vertexPath   string
	fragmentPath string

	handle    *Handle
	locations map[string]int32

	modVertex   time.Time
	modFragment time.Time

	// mtimes of the newest sources that failed to build; they stop a broken
	// edit from being recompiled every frame until the file changes again.
	failedVertex   time.Time
	failedFragment time.Time
}

// New reads, compiles and links both sources. Any failure is returned and no
// Program is created.
func New(device core.Device, vertexPath, fragmentPath string, log *zap.Logger) (*Program, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Program{
		device:       device,
		log:          log.With(zap.String("vertex", vertexPath), zap.String("fragment", fragmentPath)),
		vertexPath:   vertexPath,
		fragmentPath: fragmentPath,
	}

	src, err := p.readSources()
	if err != nil {
		return nil, err
	}
	id, err := device.CompileProgram(src.vertex, src.fragment)
	if err != nil {
		return nil, err
	}
	p.install(newHandle(device, id), src)
	p.log.Info("shader program loaded", zap.Uint32("program", id))
	return p, nil
}

type sources struct {
	vertex, fragment       string
	modVertex, modFragment time.Time
}

// readSources stats before reading so an edit landing mid-read is still seen
// as a change on the next check.
func (p *Program) readSources() (sources, error) {
	var src sources
	var err error
	if src.modVertex, err = modTime(p.vertexPath); err != nil {
		return src, err
	}
	if src.modFragment, err = modTime(p.fragmentPath); err != nil {
		return src, err
	}
	if src.vertex, err = readFile(p.vertexPath); err != nil {
		return src, err
	}
	if src.fragment, err = readFile(p.fragmentPath); err != nil {
		return src, err
	}
	return src, nil
}

func (p *Program) install(h *Handle, src sources) {
	p.handle = h
	p.locations = make(map[string]int32)
	p.modVertex = src.modVertex
	p.modFragment = src.modFragment
	p.failedVertex = time.Time{}
	p.failedFragment = time.Time{}
}

// Reload recompiles both sources. The current program stays bound and usable
// until the replacement has linked; on failure nothing changes and the error
// carries the compiler or linker diagnostics.
func (p *Program) Reload() error {
	src, err := p.readSources()
	if err != nil {
		p.log.Debug("shader sources unreadable", zap.Error(err))
		return err
	}

	id, err := p.device.CompileProgram(src.vertex, src.fragment)
	if err != nil {
		p.failedVertex = src.modVertex
		p.failedFragment = src.modFragment
		p.log.Debug("shader build failed",
			zap.Uint32("program", p.handle.ID()),
			zap.Error(err))
		return err
	}

	old := p.handle
	oldID := old.ID()
	p.install(newHandle(p.device, id), src)
	old.Release()

	p.log.Debug("shader program swapped",
		zap.Uint32("program", id),
		zap.Uint32("replaced", oldID))
	return nil
}

// CheckForChanges reports whether either source file has a modification time
// other than the one recorded at the last successful load. A pair of times
// that already failed to build is not reported again, so a broken edit is
// retried only once the files change again. Stat failures are logged and
// count as no change.
func (p *Program) CheckForChanges() bool {
	vt, err := modTime(p.vertexPath)
	if err != nil {
		p.log.Warn("error checking shader file", zap.Error(err))
		return false
	}
	ft, err := modTime(p.fragmentPath)
	if err != nil {
		p.log.Warn("error checking shader file", zap.Error(err))
		return false
	}

	if vt.Equal(p.modVertex) && ft.Equal(p.modFragment) {
		return false
	}
	if !p.failedVertex.IsZero() && vt.Equal(p.failedVertex) && ft.Equal(p.failedFragment) {
		return false
	}
	return true
}

// Use binds the program for subsequent draws. It does nothing once the
// program has been closed.
func (p *Program) Use() {
	if !p.handle.Valid() {
		p.log.Debug("skipping bind of invalid program")
		return
	}
	p.device.UseProgram(p.handle.ID())
}

// SetUniformMat4 uploads m to the named uniform of the bound program.
// Unknown names are ignored.
func (p *Program) SetUniformMat4(name string, m mgl32.Mat4) {
	if loc, ok := p.location(name); ok {
		p.device.UniformMatrix4(loc, m)
	}
}

// SetUniformFloat uploads v to the named uniform of the bound program.
// Unknown names are ignored.
func (p *Program) SetUniformFloat(name string, v float32) {
	if loc, ok := p.location(name); ok {
		p.device.Uniform1f(loc, v)
	}
}

func (p *Program) location(name string) (int32, bool) {
	if !p.handle.Valid() {
		return core.InvalidLocation, false
	}
	loc, ok := p.locations[name]
	if !ok {
		loc = p.device.UniformLocation(p.handle.ID(), name)
		p.locations[name] = loc
		if loc == core.InvalidLocation {
			p.log.Debug("uniform not declared by program", zap.String("uniform", name))
		}
	}
	return loc, loc != core.InvalidLocation
}

// Handle returns the current program handle.
func (p *Program) Handle() *Handle {
	return p.handle
}

// Valid reports whether the program holds a linked GPU program.
func (p *Program) Valid() bool {
	return p.handle.Valid()
}

// Paths returns the vertex and fragment source paths.
func (p *Program) Paths() (vertex, fragment string) {
	return p.vertexPath, p.fragmentPath
}

// ModTimes returns the source modification times of the last successful load.
func (p *Program) ModTimes() (vertex, fragment time.Time) {
	return p.modVertex, p.modFragment
}

// Close releases the GPU program.
func (p *Program) Close() {
	p.handle.Release()
}

func modTime(path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrFileRead, err)
	}
	return fi.ModTime(), nil
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileRead, err)
	}
	return string(b), nil
}
