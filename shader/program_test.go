package shader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/toxichemicals/GO/shaderview/core"
	"github.com/toxichemicals/GO/shaderview/core/coretest"
)

const vertexA = `#version 410 core
layout (location = 0) in vec3 aPos;
uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;
void main() { gl_Position = projection * view * model * vec4(aPos, 1.0); }
`

const fragmentRed = `#version 410 core
out vec4 FragColor;
uniform float time;
void main() { FragColor = vec4(1.0, 0.0, 0.0, 1.0); }
`

const fragmentBlue = `#version 410 core
out vec4 FragColor;
void main() { FragColor = vec4(0.0, 0.0, 1.0, 1.0); }
`

type fixture struct {
	dir      string
	vertex   string
	fragment string
	device   *coretest.Device
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		vertex:   filepath.Join(dir, "default.vert"),
		fragment: filepath.Join(dir, "default.frag"),
		device:   coretest.NewDevice(),
	}
	f.write(t, f.vertex, vertexA)
	f.write(t, f.fragment, fragmentRed)
	return f
}

// write replaces the file and moves its mtime forward so the change is
// visible on filesystems with coarse timestamps.
func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	var next time.Time
	if fi, err := os.Stat(path); err == nil {
		next = fi.ModTime().Add(2 * time.Second)
	} else {
		next = time.Now().Add(-time.Hour)
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, next, next))
}

func (f *fixture) touch(t *testing.T, path string) {
	t.Helper()
	fi, err := os.Stat(path)
	require.NoError(t, err)
	next := fi.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, next, next))
}

func (f *fixture) program(t *testing.T) *Program {
	t.Helper()
	p, err := New(f.device, f.vertex, f.fragment, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNewLoadsProgram(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)

	require.True(t, p.Valid())
	rec := f.device.Program(p.Handle().ID())
	require.NotNil(t, rec)
	assert.Equal(t, vertexA, rec.VertexSource)
	assert.Equal(t, fragmentRed, rec.FragmentSource)

	v, fr := p.Paths()
	assert.Equal(t, f.vertex, v)
	assert.Equal(t, f.fragment, fr)
}

func TestNewFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		f := newFixture(t)
		p, err := New(f.device, filepath.Join(f.dir, "nope.vert"), f.fragment, zaptest.NewLogger(t))
		assert.Nil(t, p)
		assert.ErrorIs(t, err, ErrFileRead)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("compile error", func(t *testing.T) {
		f := newFixture(t)
		f.write(t, f.fragment, coretest.BadCompile)
		p, err := New(f.device, f.vertex, f.fragment, zaptest.NewLogger(t))
		assert.Nil(t, p)
		var compileErr *core.CompileError
		require.ErrorAs(t, err, &compileErr)
		assert.Equal(t, core.StageFragment, compileErr.Stage)
		assert.NotEmpty(t, compileErr.Log)
	})

	t.Run("link error", func(t *testing.T) {
		f := newFixture(t)
		f.write(t, f.vertex, coretest.BadLink)
		_, err := New(f.device, f.vertex, f.fragment, zaptest.NewLogger(t))
		var linkErr *core.LinkError
		assert.ErrorAs(t, err, &linkErr)
		assert.Zero(t, f.device.LivePrograms())
	})
}

func TestReloadKeepsProgramOnCompileFailure(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)
	before := p.Handle().ID()
	modV, modF := p.ModTimes()

	f.write(t, f.fragment, "void main() { "+coretest.BadCompile)
	err := p.Reload()

	var compileErr *core.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, before, p.Handle().ID())
	assert.True(t, p.Valid())
	assert.False(t, f.device.Program(before).Deleted)

	gotV, gotF := p.ModTimes()
	assert.Equal(t, modV, gotV)
	assert.Equal(t, modF, gotF)

	p.Use()
	assert.Equal(t, before, f.device.Bound())
}

func TestReloadKeepsProgramOnUnreadableSource(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)
	before := p.Handle().ID()

	require.NoError(t, os.Remove(f.vertex))
	err := p.Reload()
	assert.ErrorIs(t, err, ErrFileRead)
	assert.Equal(t, before, p.Handle().ID())
	assert.Equal(t, 1, f.device.Compiles)
}

func TestReloadSwapsOnSuccess(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)
	old := p.Handle()
	oldID := old.ID()

	f.write(t, f.fragment, fragmentBlue)
	require.NoError(t, p.Reload())

	newID := p.Handle().ID()
	assert.NotEqual(t, oldID, newID)
	assert.True(t, f.device.Program(oldID).Deleted)
	assert.False(t, old.Valid())
	assert.Equal(t, fragmentBlue, f.device.Program(newID).FragmentSource)
	assert.Equal(t, 1, f.device.LivePrograms())

	p.Use()
	assert.Equal(t, newID, f.device.Bound())
}

func TestReloadAfterFailureRecovers(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)
	first := p.Handle().ID()

	f.write(t, f.fragment, coretest.BadCompile)
	require.Error(t, p.Reload())

	f.write(t, f.fragment, fragmentBlue)
	require.NoError(t, p.Reload())
	assert.NotEqual(t, first, p.Handle().ID())
	assert.Equal(t, 1, f.device.LivePrograms())
}

func TestCheckForChanges(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)
	assert.False(t, p.CheckForChanges(), "fresh program")

	f.touch(t, f.vertex)
	assert.True(t, p.CheckForChanges(), "vertex mtime moved, same content")

	require.NoError(t, p.Reload())
	assert.False(t, p.CheckForChanges(), "after reload")

	f.touch(t, f.fragment)
	assert.True(t, p.CheckForChanges(), "fragment mtime moved")
}

func TestCheckForChangesIgnoresSameBrokenEdit(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)

	f.write(t, f.fragment, coretest.BadCompile)
	require.True(t, p.CheckForChanges())
	require.Error(t, p.Reload())
	assert.False(t, p.CheckForChanges(), "failed edit is not retried every frame")

	f.touch(t, f.fragment)
	assert.True(t, p.CheckForChanges(), "next save is picked up")
}

func TestCheckForChangesSwallowsStatErrors(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)

	require.NoError(t, os.Remove(f.fragment))
	assert.False(t, p.CheckForChanges())
}

func TestUniforms(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)
	p.Use()

	view := mgl32.Translate3D(1, 2, 3)
	p.SetUniformMat4("view", view)
	p.SetUniformFloat("time", 1.5)
	p.SetUniformFloat("missing", 2)
	p.SetUniformMat4("alsoMissing", mgl32.Ident4())

	require.Len(t, f.device.Uploads, 2)
	assert.Equal(t, "view", f.device.Uploads[0].Name)
	assert.Equal(t, view, f.device.Uploads[0].Mat4)
	assert.Equal(t, "time", f.device.Uploads[1].Name)
	assert.Equal(t, float32(1.5), f.device.Uploads[1].Float)
}

func TestUniformLocationsFollowReload(t *testing.T) {
	f := newFixture(t)
	p := f.program(t)
	p.Use()
	p.SetUniformFloat("time", 1)
	require.Len(t, f.device.Uploads, 1)

	// fragmentBlue has no time uniform; the cached location must not leak.
	f.write(t, f.fragment, fragmentBlue)
	require.NoError(t, p.Reload())
	p.Use()
	p.SetUniformFloat("time", 2)
	assert.Len(t, f.device.Uploads, 1)
}

func TestCloseReleasesOnce(t *testing.T) {
	f := newFixture(t)
	p, err := New(f.device, f.vertex, f.fragment, nil)
	require.NoError(t, err)

	p.Close()
	p.Close()
	assert.False(t, p.Valid())
	assert.Zero(t, f.device.LivePrograms())

	deletes := 0
	for _, c := range f.device.Calls {
		if c == "deleteProgram" {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes)

	f.device.Reset()
	p.Use()
	p.SetUniformFloat("time", 1)
	assert.Empty(t, f.device.Calls)
	assert.Empty(t, f.device.Uploads)
}

func TestHandleNil(t *testing.T) {
	var h *Handle
	assert.False(t, h.Valid())
	assert.Zero(t, h.ID())
	h.Release()
}
