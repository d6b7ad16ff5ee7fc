// Package mesh turns model files into a centered, scaled vertex buffer of
// interleaved position and normal data.
package mesh

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// FloatsPerVertex is the interleaved layout: position xyz then normal xyz.
const FloatsPerVertex = 6

// Attributes is the per-vertex attribute layout handed to the device.
var Attributes = []int32{3, 3}

var (
	ErrEmpty         = errors.New("mesh has no triangles")
	ErrNotTriangles  = errors.New("corner count is not a multiple of 3")
	ErrIndexRange    = errors.New("index out of range")
	ErrUnknownFormat = errors.New("unsupported mesh format")
)

// Corner references one triangle corner in the attribute pools. Normal is
// -1 when the corner has none.
type Corner struct {
	Position int
	Normal   int
}

// Geometry is what a loader produces: attribute pools and the triangle
// corners that index them, three per triangle.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Corners   []Corner
}

// Triangles returns the number of triangles described by the corners.
func (g Geometry) Triangles() int {
	return len(g.Corners) / 3
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box along each axis.
func (b Box) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func emptyBox() Box {
	inf := math32.Inf(1)
	return Box{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b *Box) extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// PositionBounds is the bounding box of every position in the pool,
// referenced or not.
func (g Geometry) PositionBounds() Box {
	box := emptyBox()
	for _, p := range g.Positions {
		box.extend(p)
	}
	return box
}

// Normalize emits interleaved vertex data for every corner in order,
// translating positions so the pool's bounding box is centered on the
// origin and multiplying by scale. Normals are copied untouched, or zero
// when a corner has none.
func Normalize(g Geometry, scale float32) ([]float32, error) {
	if len(g.Corners) == 0 || len(g.Positions) == 0 {
		return nil, ErrEmpty
	}
	if len(g.Corners)%3 != 0 {
		return nil, fmt.Errorf("%w: %d corners", ErrNotTriangles, len(g.Corners))
	}

	mid := g.PositionBounds().Center()
	out := make([]float32, 0, len(g.Corners)*FloatsPerVertex)
	for i, c := range g.Corners {
		if c.Position < 0 || c.Position >= len(g.Positions) {
			return nil, fmt.Errorf("%w: corner %d position %d of %d", ErrIndexRange, i, c.Position, len(g.Positions))
		}
		p := g.Positions[c.Position].Sub(mid).Mul(scale)

		var n mgl32.Vec3
		if c.Normal >= 0 {
			if c.Normal >= len(g.Normals) {
				return nil, fmt.Errorf("%w: corner %d normal %d of %d", ErrIndexRange, i, c.Normal, len(g.Normals))
			}
			n = g.Normals[c.Normal]
		}
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2])
	}
	return out, nil
}

// Bounds returns the bounding box of the positions in interleaved vertex
// data. It returns false for empty input.
func Bounds(vertices []float32) (Box, bool) {
	if len(vertices) < FloatsPerVertex {
		return Box{}, false
	}
	box := emptyBox()
	for i := 0; i+FloatsPerVertex <= len(vertices); i += FloatsPerVertex {
		box.extend(mgl32.Vec3{vertices[i], vertices[i+1], vertices[i+2]})
	}
	return box, true
}
