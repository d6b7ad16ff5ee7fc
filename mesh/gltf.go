package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLTF reads every triangle primitive of a .gltf or .glb file into one
// Geometry. Node transforms are not applied.
func LoadGLTF(path string) (Geometry, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to open glTF file: %w", err)
	}

	var g Geometry
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := appendPrimitive(&g, doc, prim); err != nil {
				return Geometry{}, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
		}
	}
	if len(g.Corners) == 0 {
		return Geometry{}, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return g, nil
}

func appendPrimitive(g *Geometry, doc *gltf.Document, prim *gltf.Primitive) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if normalIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[normalIdx], nil)
		if err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	posBase := len(g.Positions)
	normalBase := len(g.Normals)
	for _, p := range positions {
		g.Positions = append(g.Positions, mgl32.Vec3(p))
	}
	for _, n := range normals {
		g.Normals = append(g.Normals, mgl32.Vec3(n))
	}

	// A trailing partial triangle is dropped.
	for _, i := range indices[:len(indices)-len(indices)%3] {
		if int(i) >= len(positions) {
			return fmt.Errorf("%w: index %d with %d positions", ErrIndexRange, i, len(positions))
		}
		c := Corner{Position: posBase + int(i), Normal: -1}
		if int(i) < len(normals) {
			c.Normal = normalBase + int(i)
		}
		g.Corners = append(g.Corners, c)
	}
	return nil
}
