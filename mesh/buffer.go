package mesh

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/toxichemicals/GO/shaderview/core"
)

// Scale is applied to every position after centering.
const Scale = 0.5

// Buffer is an immutable mesh living on the GPU. Vertices mirrors what was
// uploaded.
type Buffer struct {
	device   core.Device
	vb       core.VertexBuffer
	vertices []float32
}

// NewBuffer normalizes g and uploads it as a single vertex buffer with
// position at attribute 0 and normal at attribute 1.
func NewBuffer(device core.Device, g Geometry, log *zap.Logger) (*Buffer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vertices, err := Normalize(g, Scale)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize mesh: %w", err)
	}
	vb, err := device.CreateVertexBuffer(vertices, Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to upload mesh: %w", err)
	}

	src := g.PositionBounds()
	log.Debug("model bounds",
		zap.Float32s("min", src.Min[:]),
		zap.Float32s("max", src.Max[:]))
	log.Info("mesh uploaded",
		zap.Int("vertices", len(vertices)/FloatsPerVertex),
		zap.Int("triangles", g.Triangles()))

	return &Buffer{device: device, vb: vb, vertices: vertices}, nil
}

// Draw issues one triangle draw of the whole buffer.
func (b *Buffer) Draw() {
	if !b.vb.Valid() {
		return
	}
	b.device.DrawTriangles(b.vb)
}

// VertexCount returns the number of vertices, not floats.
func (b *Buffer) VertexCount() int {
	return len(b.vertices) / FloatsPerVertex
}

// Vertices returns the interleaved data that was uploaded. Callers must not
// modify it.
func (b *Buffer) Vertices() []float32 {
	return b.vertices
}

// Close deletes the GPU buffers. Later calls do nothing.
func (b *Buffer) Close() {
	if !b.vb.Valid() {
		return
	}
	b.device.DeleteVertexBuffer(b.vb)
	b.vb = core.VertexBuffer{}
}
