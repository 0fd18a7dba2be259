package main

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// A Mesh is a triangle mesh with an optional texture-space association.
//
// UV holds texture coordinates. If FaceUV is non-nil, it has one entry per
// face and maps each face corner to an index in UV. Otherwise, if UV is
// non-nil, UV is indexed by vertex.
type Mesh struct {
	Verts []r3.Vec
	Faces [][3]int

	UV     [][2]float64
	FaceUV [][3]int
}

var (
	ErrFaceIndex      = errors.New("face index out of range")
	ErrIsolatedVertex = errors.New("vertex has no incident face")
)

// Validate checks that every face refers to existing vertices.
func (m *Mesh) Validate() error {
	if len(m.Verts) == 0 || len(m.Faces) == 0 {
		return fmt.Errorf("mesh has %d vertices and %d faces", len(m.Verts), len(m.Faces))
	}
	for f, tri := range m.Faces {
		for _, v := range tri {
			if v < 0 || v >= len(m.Verts) {
				return fmt.Errorf("face %d: vertex %d of %d: %w", f, v, len(m.Verts), ErrFaceIndex)
			}
		}
	}
	if m.FaceUV != nil {
		if len(m.FaceUV) != len(m.Faces) {
			return fmt.Errorf("%d UV faces for %d faces: %w", len(m.FaceUV), len(m.Faces), ErrFaceIndex)
		}
		for f, tri := range m.FaceUV {
			for _, t := range tri {
				if t < 0 || t >= len(m.UV) {
					return fmt.Errorf("UV face %d: texture coordinate %d of %d: %w", f, t, len(m.UV), ErrFaceIndex)
				}
			}
		}
	}
	return nil
}

// HasUV reports whether m carries a texture association that curvature
// fields can be exported against.
func (m *Mesh) HasUV() bool {
	return len(m.UV) > 0
}

// LogDims logs the sizes of the mesh tables.
func (m *Mesh) LogDims() {
	log.Printf("V: %d,3", len(m.Verts))
	log.Printf("F: %d,3", len(m.Faces))
	// Normals in the file are not read; they are recomputed.
	log.Printf("N: 0,0")
	log.Printf("Fn: 0,0")
	log.Printf("UV: %d,%d", len(m.UV), dimCols(len(m.UV), 2))
	log.Printf("Fuv: %d,%d", len(m.FaceUV), dimCols(len(m.FaceUV), 3))
}

func dimCols(rows, cols int) int {
	if rows == 0 {
		return 0
	}
	return cols
}

// LoadMesh reads a triangle mesh, choosing the format from the file
// extension.
func LoadMesh(path string) (*Mesh, error) {
	var m *Mesh
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		m, err = ReadOBJFile(path)
	case ".ply":
		m, err = ReadPLYFile(path)
	case ".stl":
		m, err = ReadSTLFile(path)
	case ".off":
		m, err = ReadOFFFile(path)
	default:
		return nil, fmt.Errorf("%s: unsupported mesh format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// adjacency returns, for each vertex, its distinct edge neighbors.
func (m *Mesh) adjacency() [][]int {
	adj := make([][]int, len(m.Verts))
	add := func(a, b int) {
		for _, x := range adj[a] {
			if x == b {
				return
			}
		}
		adj[a] = append(adj[a], b)
	}
	for _, tri := range m.Faces {
		for i := range tri {
			a, b := tri[i], tri[(i+1)%3]
			if a == b {
				continue
			}
			add(a, b)
			add(b, a)
		}
	}
	return adj
}

// faceNormal returns the unnormalized normal of face f. Its length is
// twice the face area.
func (m *Mesh) faceNormal(f int) r3.Vec {
	tri := m.Faces[f]
	a, b, c := m.Verts[tri[0]], m.Verts[tri[1]], m.Verts[tri[2]]
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

// AvgEdgeLength returns the mean length of all face edges. Interior
// edges are counted once per incident face.
func (m *Mesh) AvgEdgeLength() float64 {
	if len(m.Faces) == 0 {
		return 0
	}
	lengths := make([]float64, 0, 3*len(m.Faces))
	for _, tri := range m.Faces {
		for i := range tri {
			lengths = append(lengths, r3.Norm(r3.Sub(m.Verts[tri[(i+1)%3]], m.Verts[tri[i]])))
		}
	}
	return floats.Sum(lengths) / float64(len(lengths))
}
