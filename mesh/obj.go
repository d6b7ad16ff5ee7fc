package mesh

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sheenobu/go-obj/obj"
)

// LoadOBJ reads a Wavefront OBJ file. Only v, vn and f records are used;
// polygons are split into triangle fans.
func LoadOBJ(path string) (Geometry, error) {
	file, err := os.Open(path)
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	g, err := ParseOBJ(file)
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return g, nil
}

// ParseOBJ parses OBJ text from r.
func ParseOBJ(r io.Reader) (Geometry, error) {
	src, err := canonicalOBJ(r)
	if err != nil {
		return Geometry{}, err
	}
	o, err := obj.NewReader(bytes.NewReader(src)).Read()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to read OBJ data: %w", err)
	}

	var g Geometry
	positions := make(map[obj.Vertex]int, len(o.Vertices))
	for _, v := range o.Vertices {
		if _, ok := positions[v]; !ok {
			positions[v] = len(g.Positions)
		}
		g.Positions = append(g.Positions, vec3(v.X, v.Y, v.Z))
	}
	normals := make(map[obj.Normal]int, len(o.Normals))
	for _, n := range o.Normals {
		if _, ok := normals[n]; !ok {
			normals[n] = len(g.Normals)
		}
		g.Normals = append(g.Normals, vec3(n.X, n.Y, n.Z))
	}

	for _, f := range o.Faces {
		corners := make([]Corner, len(f.Points))
		for i, p := range f.Points {
			corners[i] = Corner{Position: positionIndex(&g, positions, *p.Vertex), Normal: -1}
			if p.Normal != nil {
				corners[i].Normal = normalIndex(&g, normals, *p.Normal)
			}
		}
		for i := 1; i+1 < len(corners); i++ {
			g.Corners = append(g.Corners, corners[0], corners[i], corners[i+1])
		}
	}
	if len(g.Corners) == 0 {
		return Geometry{}, ErrEmpty
	}
	return g, nil
}

func vec3(x, y, z float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

// positionIndex maps a face point back into the pool. Values that cannot be
// looked up, such as NaN coordinates, are appended.
func positionIndex(g *Geometry, pool map[obj.Vertex]int, v obj.Vertex) int {
	if i, ok := pool[v]; ok {
		return i
	}
	g.Positions = append(g.Positions, vec3(v.X, v.Y, v.Z))
	return len(g.Positions) - 1
}

func normalIndex(g *Geometry, pool map[obj.Normal]int, n obj.Normal) int {
	if i, ok := pool[n]; ok {
		return i
	}
	g.Normals = append(g.Normals, vec3(n.X, n.Y, n.Z))
	return len(g.Normals) - 1
}

// canonicalOBJ rewrites r into the subset obj.Reader handles: single-space
// separated v, vn and f records with absolute v or v//vn corners. Other
// records become blank lines so reported line numbers still match the input.
// Face indices are range checked here since the reader indexes its pools
// without bounds checks.
func canonicalOBJ(r io.Reader) ([]byte, error) {
	var (
		out       bytes.Buffer
		positions int
		normals   int
		line      int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			out.WriteByte('\n')
			continue
		}

		switch fields[0] {
		case "v", "vn":
			if fields[0] == "v" {
				positions++
			} else {
				normals++
			}
			// A trailing w or color component is ignored.
			if len(fields) > 4 {
				fields = fields[:4]
			}
			out.WriteString(strings.Join(fields, " "))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 corners, got %d", line, len(fields)-1)
			}
			out.WriteByte('f')
			for _, ref := range fields[1:] {
				c, err := parseCorner(ref, positions, normals)
				if err != nil {
					return nil, fmt.Errorf("line %d: face %q: %w", line, ref, err)
				}
				out.WriteByte(' ')
				out.WriteString(strconv.Itoa(c.Position + 1))
				if c.Normal >= 0 {
					out.WriteString("//")
					out.WriteString(strconv.Itoa(c.Normal + 1))
				}
			}
		}
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning OBJ data: %w", err)
	}
	return out.Bytes(), nil
}

// parseCorner accepts v, v/vt, v//vn and v/vt/vn. Indices are 1-based;
// negative ones count back from the last element read so far.
func parseCorner(ref string, positions, normals int) (Corner, error) {
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return Corner{}, fmt.Errorf("too many components")
	}

	pos, err := resolveIndex(parts[0], positions)
	if err != nil {
		return Corner{}, fmt.Errorf("position: %w", err)
	}
	c := Corner{Position: pos, Normal: -1}
	if len(parts) == 3 && parts[2] != "" {
		if c.Normal, err = resolveIndex(parts[2], normals); err != nil {
			return Corner{}, fmt.Errorf("normal: %w", err)
		}
	}
	return c, nil
}

func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	}
	return 0, fmt.Errorf("%w: %d with %d defined", ErrIndexRange, n, count)
}
