package main

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func checkFrames(t *testing.T, p *Principal) {
	t.Helper()
	const tol = 1e-9
	for i := range p.N {
		n, d1, d2 := p.N[i], p.D1[i], p.D2[i]
		if math.Abs(r3.Norm(d1)-1) > tol || math.Abs(r3.Norm(d2)-1) > tol {
			t.Fatalf("vertex %d: |D1| = %v, |D2| = %v", i, r3.Norm(d1), r3.Norm(d2))
		}
		if math.Abs(r3.Dot(d1, d2)) > tol {
			t.Fatalf("vertex %d: D1·D2 = %v", i, r3.Dot(d1, d2))
		}
		if math.Abs(r3.Dot(d1, n)) > tol || math.Abs(r3.Dot(d2, n)) > tol {
			t.Fatalf("vertex %d: D1·N = %v, D2·N = %v", i, r3.Dot(d1, n), r3.Dot(d2, n))
		}
	}
}

func TestPrincipalCurvatureSphere(t *testing.T) {
	for _, r := range []float64{1, 5} {
		m := icosphere(3, r)
		p, err := PrincipalCurvature(m, DefaultFitOptions)
		if err != nil {
			t.Fatal(err)
		}
		if len(p.Degenerate) != 0 {
			t.Errorf("r=%v: degenerate vertexes %v", r, p.Degenerate)
		}
		want := 1 / r
		for i := range m.Verts {
			assertNear(t, "κ1", p.K1[i], want, 0.05*want)
			assertNear(t, "κ2", p.K2[i], want, 0.05*want)
			// Every point of a sphere is umbilic.
			assertBetween(t, "κ1-κ2", p.K1[i]-p.K2[i], 0, 0.05*want)
		}
		checkFrames(t, p)
	}
}

func TestPrincipalCurvaturePlane(t *testing.T) {
	m := grid(8, 0.5)
	p, err := PrincipalCurvature(m, DefaultFitOptions)
	if err != nil {
		t.Fatal(err)
	}
	for i := range m.Verts {
		assertNear(t, "κ1", p.K1[i], 0, 1e-9)
		assertNear(t, "κ2", p.K2[i], 0, 1e-9)
		if r3.Norm(r3.Sub(p.N[i], r3.Vec{Z: 1})) > 1e-12 {
			t.Errorf("normal %d = %v, want +Z", i, p.N[i])
		}
	}
	checkFrames(t, p)
}

func TestPrincipalCurvatureCylinder(t *testing.T) {
	const (
		r      = 2.0
		around = 64
		rows   = 20
	)
	m := cylinder(r, around, rows, 2*math.Pi*r/around)
	p, err := PrincipalCurvature(m, DefaultFitOptions)
	if err != nil {
		t.Fatal(err)
	}
	checkFrames(t, p)
	// Stay clear of the open ends.
	for j := 3; j < rows-3; j++ {
		for i := 0; i < around; i++ {
			v := j*around + i
			assertNear(t, "κ1", p.K1[v], 1/r, 0.05/r)
			assertNear(t, "κ2", p.K2[v], 0, 0.05/r)
			// The direction of minimum curvature runs along the axis.
			assertBetween(t, "|D2·Z|", math.Abs(p.D2[v].Z), 0.95, 1+1e-9)
		}
	}
}

func TestPrincipalCurvatureIsolatedVertex(t *testing.T) {
	m := grid(3, 1)
	m.Verts = append(m.Verts, r3.Vec{X: 10})
	_, err := PrincipalCurvature(m, DefaultFitOptions)
	if !errors.Is(err, ErrIsolatedVertex) {
		t.Fatalf("got error %v, want %v", err, ErrIsolatedVertex)
	}
}

func TestPrincipalCurvatureTooFewNeighbors(t *testing.T) {
	// A lone triangle can never gather enough neighbors.
	m := &Mesh{
		Verts: []r3.Vec{{}, {X: 1}, {Y: 1}},
		Faces: [][3]int{{0, 1, 2}},
	}
	p, err := PrincipalCurvature(m, DefaultFitOptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Degenerate) != 3 {
		t.Errorf("degenerate = %v, want all 3 vertexes", p.Degenerate)
	}
	for i := range m.Verts {
		if p.K1[i] != 0 || p.K2[i] != 0 {
			t.Errorf("vertex %d: κ = %v, %v; want 0", i, p.K1[i], p.K2[i])
		}
	}
	checkFrames(t, p)
}

func TestNeighborhoodGrowth(t *testing.T) {
	m := grid(7, 1)
	kr := newKRing(m.adjacency())
	center := 3*7 + 3

	// One ring of an interior vertex has 6 neighbors, enough with
	// MinSamples 6.
	if got := len(kr.neighborhood(center, FitOptions{Rings: 1, MinSamples: 6, MaxRings: 8})); got != 6 {
		t.Errorf("1-ring has %d vertexes, want 6", got)
	}
	// Requiring more grows it to two rings.
	if got := len(kr.neighborhood(center, FitOptions{Rings: 1, MinSamples: 7, MaxRings: 8})); got != 18 {
		t.Errorf("grown neighborhood has %d vertexes, want 18", got)
	}
	// But not beyond MaxRings.
	if got := len(kr.neighborhood(center, FitOptions{Rings: 1, MinSamples: 100, MaxRings: 2})); got != 18 {
		t.Errorf("capped neighborhood has %d vertexes, want 18", got)
	}
	// Or the component.
	if got := len(kr.neighborhood(0, FitOptions{Rings: 1, MinSamples: 100, MaxRings: 100})); got != 48 {
		t.Errorf("whole-grid neighborhood has %d vertexes, want 48", got)
	}
}

func TestShapeOperator(t *testing.T) {
	// z = -x²/2 - y² bends away from +Z with curvature 1 along x and
	// 2 along y.
	vals, vecs, ok := shapeOperator(-0.5, 0, -1, 0, 0)
	if !ok {
		t.Fatal("shapeOperator failed")
	}
	assertNear(t, "κmin", vals[0], 1, 1e-12)
	assertNear(t, "κmax", vals[1], 2, 1e-12)
	assertNear(t, "|vmin.x|", math.Abs(vecs[0][0]), 1, 1e-12)
	assertNear(t, "|vmax.y|", math.Abs(vecs[1][1]), 1, 1e-12)
}
