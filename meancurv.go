package main

import (
	"log"

	"gonum.org/v1/gonum/spatial/r3"
)

// LaplaceMean is the discrete mean curvature normal obtained from the
// Laplace-Beltrami operator applied to vertex positions.
//
// This estimate is diagnostic. Reported mean curvature comes from the
// principal curvatures (see Curvature.Mean).
type LaplaceMean struct {
	// HN is -M⁻¹ L V, one mean curvature normal per vertex.
	HN []r3.Vec
	// H is |HN|. It is unsigned because HN carries no orientation
	// reference.
	H []float64
	// Degenerate lists vertexes with zero mass. Their HN and H are 0.
	Degenerate []int
}

// LaplacianMeanCurvature computes the mean curvature normal of each
// vertex of m from its cotangent Laplacian and mass matrix.
func LaplacianMeanCurvature(m *Mesh, mass MassType) *LaplaceMean {
	L := Cotmatrix(m)
	minv, degenerate := InvertDiag(Massmatrix(m, mass))
	if len(degenerate) > 0 {
		log.Printf("%d vertexes have zero mass; clamping their Laplacian mean curvature to 0", len(degenerate))
	}

	lv := L.MulVecs(m.Verts)
	out := &LaplaceMean{
		HN:         make([]r3.Vec, len(lv)),
		H:          make([]float64, len(lv)),
		Degenerate: degenerate,
	}
	for i, x := range lv {
		out.HN[i] = r3.Scale(-minv[i], x)
		out.H[i] = r3.Norm(out.HN[i])
	}
	return out
}
