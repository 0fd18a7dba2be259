package main

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// MassType selects how vertex areas are accumulated from faces.
type MassType int

const (
	// MassVoronoi uses mixed Voronoi areas (Meyer et al. 2003), falling
	// back to a barycentric-style split for obtuse triangles so no
	// contribution is negative.
	MassVoronoi MassType = iota
	// MassBarycentric gives each corner a third of its face's area.
	MassBarycentric
)

func (t MassType) String() string {
	switch t {
	case MassVoronoi:
		return "voronoi"
	case MassBarycentric:
		return "barycentric"
	}
	return fmt.Sprintf("MassType(%d)", int(t))
}

func ParseMassType(s string) (MassType, error) {
	switch strings.ToLower(s) {
	case "", "voronoi":
		return MassVoronoi, nil
	case "barycentric":
		return MassBarycentric, nil
	}
	return 0, fmt.Errorf("unknown mass matrix type %q", s)
}

// cotangent returns the cotangent of the angle between a and b, and
// false if they are parallel.
func cotangent(a, b r3.Vec) (float64, bool) {
	sin := r3.Norm(r3.Cross(a, b))
	if sin == 0 {
		return 0, false
	}
	return r3.Dot(a, b) / sin, true
}

// Cotmatrix returns the cotangent Laplacian of m. Off-diagonal entries
// are L_ij = ½(cot α_ij + cot β_ij), where α_ij and β_ij are the angles
// opposite edge ij, and each diagonal entry is the negated sum of its
// row, so L is negative semi-definite. Zero-area faces contribute
// nothing.
func Cotmatrix(m *Mesh) *Sparse {
	b := newSparseBuilder(len(m.Verts))
	for _, tri := range m.Faces {
		for c := range tri {
			// Corner c is opposite edge (j, k).
			i, j, k := tri[c], tri[(c+1)%3], tri[(c+2)%3]
			p := m.Verts[i]
			cot, ok := cotangent(r3.Sub(m.Verts[j], p), r3.Sub(m.Verts[k], p))
			if !ok {
				continue
			}
			w := cot / 2
			b.Add(j, k, w)
			b.Add(k, j, w)
			b.Add(j, j, -w)
			b.Add(k, k, -w)
		}
	}
	return b.Build()
}

// Massmatrix returns the diagonal of the lumped mass matrix of m: one
// area per vertex.
func Massmatrix(m *Mesh, typ MassType) []float64 {
	mass := make([]float64, len(m.Verts))
	for _, tri := range m.Faces {
		p := [3]r3.Vec{m.Verts[tri[0]], m.Verts[tri[1]], m.Verts[tri[2]]}
		area := r3.Norm(r3.Cross(r3.Sub(p[1], p[0]), r3.Sub(p[2], p[0]))) / 2
		if area == 0 {
			continue
		}
		if typ == MassBarycentric {
			for _, v := range tri {
				mass[v] += area / 3
			}
			continue
		}

		// Look for an obtuse corner.
		obtuse := -1
		for c := range tri {
			if r3.Dot(r3.Sub(p[(c+1)%3], p[c]), r3.Sub(p[(c+2)%3], p[c])) < 0 {
				obtuse = c
				break
			}
		}
		if obtuse >= 0 {
			for c, v := range tri {
				if c == obtuse {
					mass[v] += area / 2
				} else {
					mass[v] += area / 4
				}
			}
			continue
		}

		// Non-obtuse: Voronoi region of each corner.
		for c, v := range tri {
			j, k := (c+1)%3, (c+2)%3
			cotJ, _ := cotangent(r3.Sub(p[c], p[j]), r3.Sub(p[k], p[j]))
			cotK, _ := cotangent(r3.Sub(p[c], p[k]), r3.Sub(p[j], p[k]))
			mass[v] += (r3.Norm2(r3.Sub(p[c], p[k]))*cotJ + r3.Norm2(r3.Sub(p[c], p[j]))*cotK) / 8
		}
	}
	return mass
}

// InvertDiag returns the pointwise reciprocal of a diagonal matrix.
// Non-positive entries cannot be inverted; their reciprocal is clamped
// to 0 and their indexes are returned in degenerate.
func InvertDiag(diag []float64) (inv []float64, degenerate []int) {
	inv = make([]float64, len(diag))
	for i, d := range diag {
		if d > 0 {
			inv[i] = 1 / d
		} else {
			degenerate = append(degenerate, i)
		}
	}
	return inv, degenerate
}
