package camera

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

func TestNewDefaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, ZoomOrbit, c.Mode())
	assert.Equal(t, float32(DefaultRadius), c.Radius())
	assert.Equal(t, float32(DefaultFOV), c.FOV())
	assert.Zero(t, c.Yaw())
	assert.Zero(t, c.Pitch())
	assert.False(t, c.Dragging())
}

func TestNewClampsOptions(t *testing.T) {
	c := New(Options{Radius: 500, Pitch: -120, FOV: 170})
	assert.Equal(t, float32(MaxRadius), c.Radius())
	assert.Equal(t, float32(MinPitch), c.Pitch())
	assert.Equal(t, float32(MaxFOV), c.FOV())
}

func TestOrbitRoundTrip(t *testing.T) {
	c := New(Options{Radius: 5})

	pos := c.Position()
	assert.True(t, pos.ApproxEqualThreshold(mgl32.Vec3{0, 0, 5}, eps), "position %v", pos)

	want := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.True(t, c.ViewMatrix().ApproxEqualThreshold(want, eps))
}

func TestPositionFollowsYawAndPitch(t *testing.T) {
	c := New(Options{Radius: 2, Yaw: 90})
	assert.Less(t, c.Position().Sub(mgl32.Vec3{2, 0, 0}).Len(), float32(eps), "yaw 90: %v", c.Position())

	c = New(Options{Radius: 2, Pitch: 89})
	pos := c.Position()
	assert.InDelta(t, 2, pos.Len(), eps)
	assert.Greater(t, pos.Y(), float32(1.99))
}

func TestDragOrbit(t *testing.T) {
	c := New(Options{})

	c.StartDrag(100, 100, DragOrbit)
	require.True(t, c.Dragging())
	assert.Equal(t, DragOrbit, c.DragMode())

	c.UpdateDrag(110, 120)
	assert.InDelta(t, -10*Sensitivity, c.Yaw(), eps)
	assert.InDelta(t, 20*Sensitivity, c.Pitch(), eps)

	// Deltas are taken from the last recorded position, not the drag start.
	c.UpdateDrag(110, 120)
	assert.InDelta(t, -10*Sensitivity, c.Yaw(), eps)

	c.EndDrag()
	assert.False(t, c.Dragging())
	c.UpdateDrag(500, 500)
	assert.InDelta(t, -10*Sensitivity, c.Yaw(), eps)
	assert.InDelta(t, 20*Sensitivity, c.Pitch(), eps)
}

func TestUpdateDragWhileIdleIsIgnored(t *testing.T) {
	c := New(Options{})
	before := c.ViewMatrix()
	c.UpdateDrag(300, -40)
	assert.Equal(t, before, c.ViewMatrix())
	assert.False(t, c.Dragging())
}

func TestDragPitchClamps(t *testing.T) {
	c := New(Options{})
	c.StartDrag(0, 0, DragOrbit)
	c.UpdateDrag(0, 1000)
	assert.Equal(t, float32(MaxPitch), c.Pitch())
	c.UpdateDrag(0, -5000)
	assert.Equal(t, float32(MinPitch), c.Pitch())
}

func TestDragPan(t *testing.T) {
	c := New(Options{Radius: 10})
	c.StartDrag(0, 0, DragPan)
	c.UpdateDrag(50, 25)

	pan := c.Pan()
	assert.InDelta(t, 50*PanSensitivity*10, pan.X(), eps)
	assert.InDelta(t, -25*PanSensitivity*10, pan.Y(), eps)
	assert.Zero(t, c.Yaw(), "pan leaves the orbit alone")

	want := mgl32.Translate3D(pan.X(), pan.Y(), 0).Mul4(
		mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	assert.True(t, c.ViewMatrix().ApproxEqualThreshold(want, eps))
}

func TestScrollOrbitMode(t *testing.T) {
	c := New(Options{ZoomMode: ZoomOrbit})
	c.ProcessScroll(10)
	assert.InDelta(t, 4, c.Radius(), eps)
	assert.Equal(t, float32(DefaultFOV), c.FOV())

	c.ProcessScroll(1000)
	assert.Equal(t, float32(MinRadius), c.Radius())
	c.ProcessScroll(-10000)
	assert.Equal(t, float32(MaxRadius), c.Radius())
}

func TestScrollFOVMode(t *testing.T) {
	c := New(Options{ZoomMode: ZoomFOV})
	c.ProcessScroll(5)
	assert.InDelta(t, 40, c.FOV(), eps)
	assert.Equal(t, float32(DefaultRadius), c.Radius())

	c.ProcessScroll(100)
	assert.Equal(t, float32(MinFOV), c.FOV())
	c.ProcessScroll(-100)
	assert.Equal(t, float32(MaxFOV), c.FOV())
}

func TestProjectionMatrix(t *testing.T) {
	fov := New(Options{ZoomMode: ZoomFOV})
	fov.ProcessScroll(15)
	want := mgl32.Perspective(mgl32.DegToRad(30), 2, Near, Far)
	assert.True(t, fov.ProjectionMatrix(2).ApproxEqualThreshold(want, eps))

	orbit := New(Options{ZoomMode: ZoomOrbit})
	orbit.ProcessScroll(15)
	want = mgl32.Perspective(mgl32.DegToRad(DefaultFOV), 2, Near, Far)
	assert.True(t, orbit.ProjectionMatrix(2).ApproxEqualThreshold(want, eps))
}

func TestClampInvariantsHoldUnderRandomInput(t *testing.T) {
	for _, mode := range []ZoomMode{ZoomOrbit, ZoomFOV} {
		t.Run(mode.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			c := New(Options{ZoomMode: mode})
			for i := 0; i < 2000; i++ {
				switch rng.Intn(6) {
				case 0:
					c.StartDrag(rng.Float64()*800, rng.Float64()*600, DragMode(rng.Intn(2)))
				case 1, 2:
					c.UpdateDrag(rng.Float64()*4000-2000, rng.Float64()*4000-2000)
				case 3:
					c.ProcessScroll(rng.Float32()*200 - 100)
				case 4:
					c.EndDrag()
				case 5:
					bad := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}[rng.Intn(3)]
					c.ProcessScroll(float32(bad))
					c.UpdateDrag(bad, rng.Float64()*600)
				}
				requireWithinLimits(t, c)
			}
		})
	}
}

func TestNonFiniteInputIsIgnored(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for _, mode := range []ZoomMode{ZoomOrbit, ZoomFOV} {
		t.Run(mode.String(), func(t *testing.T) {
			c := New(Options{ZoomMode: mode})
			for _, d := range []float32{nan, inf, -inf} {
				c.ProcessScroll(d)
				requireWithinLimits(t, c)
			}
			assert.Equal(t, float32(DefaultRadius), c.Radius())
			assert.Equal(t, float32(DefaultFOV), c.FOV())

			c.StartDrag(10, 10, DragOrbit)
			c.UpdateDrag(10, math.NaN())
			c.UpdateDrag(math.Inf(-1), 10)
			requireWithinLimits(t, c)
			assert.Zero(t, c.Yaw())
			assert.Zero(t, c.Pitch())

			// The last finite cursor position is kept.
			c.UpdateDrag(20, 10)
			assert.InDelta(t, -10*Sensitivity, c.Yaw(), eps)

			c.StartDrag(0, 0, DragPan)
			c.UpdateDrag(math.NaN(), math.NaN())
			assert.Equal(t, mgl32.Vec2{}, c.Pan())

			c.ProcessScroll(1)
			requireWithinLimits(t, c)
			pos := c.Position()
			for i := range pos {
				require.False(t, math.IsNaN(float64(pos[i])), "position %v", pos)
			}
		})
	}
}

func requireWithinLimits(t *testing.T, c *Camera) {
	t.Helper()
	require.GreaterOrEqual(t, c.Pitch(), float32(MinPitch))
	require.LessOrEqual(t, c.Pitch(), float32(MaxPitch))
	require.GreaterOrEqual(t, c.Radius(), float32(MinRadius))
	require.LessOrEqual(t, c.Radius(), float32(MaxRadius))
	require.GreaterOrEqual(t, c.FOV(), float32(MinFOV))
	require.LessOrEqual(t, c.FOV(), float32(MaxFOV))
}

func TestReset(t *testing.T) {
	c := New(Options{Radius: 8, Yaw: 30, ZoomMode: ZoomFOV})
	c.StartDrag(0, 0, DragOrbit)
	c.UpdateDrag(40, 40)
	c.ProcessScroll(10)
	c.StartDrag(0, 0, DragPan)
	c.UpdateDrag(10, 10)

	c.Reset()
	assert.Equal(t, float32(8), c.Radius())
	assert.Equal(t, float32(30), c.Yaw())
	assert.Zero(t, c.Pitch())
	assert.Equal(t, float32(DefaultFOV), c.FOV())
	assert.Equal(t, mgl32.Vec2{}, c.Pan())
	assert.False(t, c.Dragging())
}

func TestParseZoomMode(t *testing.T) {
	for in, want := range map[string]ZoomMode{
		"":       ZoomOrbit,
		"orbit":  ZoomOrbit,
		"Radius": ZoomOrbit,
		" fov ":  ZoomFOV,
		"FOV":    ZoomFOV,
	} {
		got, err := ParseZoomMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseZoomMode("dolly")
	assert.Error(t, err)
}
