package main

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// FitOptions controls the neighborhoods used for quadric fitting.
type FitOptions struct {
	// Rings is the initial neighborhood size, in edge rings.
	Rings int
	// MinSamples is the number of neighbors a fit requires. The
	// neighborhood grows one ring at a time until it has this many.
	MinSamples int
	// MaxRings bounds neighborhood growth.
	MaxRings int
}

// quadricParams is the number of free parameters of the height field
// z = ax² + bxy + cy² + dx + ey.
const quadricParams = 5

var DefaultFitOptions = FitOptions{Rings: 2, MinSamples: 6, MaxRings: 8}

func (o FitOptions) withDefaults() FitOptions {
	if o.Rings < 1 {
		o.Rings = DefaultFitOptions.Rings
	}
	if o.MinSamples < quadricParams {
		o.MinSamples = DefaultFitOptions.MinSamples
	}
	if o.MaxRings <= 0 {
		o.MaxRings = DefaultFitOptions.MaxRings
	}
	if o.MaxRings < o.Rings {
		o.MaxRings = o.Rings
	}
	return o
}

// Principal holds the principal curvatures and directions of each
// vertex.
//
// K1 is the larger curvature and K2 the smaller. Curvature is positive
// where the surface bends away from its normal, so a sphere with
// outward-facing triangles has positive curvature. D1 and D2 are unit
// tangent vectors with D2 = N × D1.
type Principal struct {
	N      []r3.Vec
	K1, K2 []float64
	D1, D2 []r3.Vec

	// Degenerate lists vertexes whose neighborhood could not be fit.
	// Their curvatures are 0 and their directions are an arbitrary
	// tangent frame.
	Degenerate []int
}

// VertexNormals returns the area-weighted normal of each vertex. A
// vertex with no incident faces is an error; a vertex whose faces all
// have zero area gets a zero normal.
func VertexNormals(m *Mesh) ([]r3.Vec, error) {
	normals := make([]r3.Vec, len(m.Verts))
	counts := make([]int, len(m.Verts))
	for f, tri := range m.Faces {
		n := m.faceNormal(f)
		for _, v := range tri {
			normals[v] = r3.Add(normals[v], n)
			counts[v]++
		}
	}
	for v := range normals {
		if counts[v] == 0 {
			return nil, fmt.Errorf("vertex %d: %w", v, ErrIsolatedVertex)
		}
		if l := r3.Norm(normals[v]); l > 0 {
			normals[v] = r3.Scale(1/l, normals[v])
		}
	}
	return normals, nil
}

// PrincipalCurvature estimates principal curvatures of every vertex of
// m by fitting a quadric height field over the vertex's tangent plane
// to its k-ring neighborhood.
func PrincipalCurvature(m *Mesh, opts FitOptions) (*Principal, error) {
	opts = opts.withDefaults()
	normals, err := VertexNormals(m)
	if err != nil {
		return nil, err
	}

	nv := len(m.Verts)
	p := &Principal{
		N:  normals,
		K1: make([]float64, nv),
		K2: make([]float64, nv),
		D1: make([]r3.Vec, nv),
		D2: make([]r3.Vec, nv),
	}
	kr := newKRing(m.adjacency())
	for v := range m.Verts {
		t1, t2 := tangentFrame(normals[v])
		nbrs := kr.neighborhood(v, opts)
		k1, k2, d1, ok := fitVertex(m.Verts, v, nbrs, normals[v], t1, t2)
		if !ok {
			p.Degenerate = append(p.Degenerate, v)
			p.D1[v], p.D2[v] = t1, t2
			continue
		}
		p.K1[v], p.K2[v] = k1, k2
		p.D1[v] = d1
		p.D2[v] = r3.Unit(r3.Cross(normals[v], d1))
	}
	if len(p.Degenerate) > 0 {
		log.Printf("%d vertexes have too few neighbors for a quadric fit; clamping their curvature to 0", len(p.Degenerate))
	}
	return p, nil
}

// tangentFrame returns two unit vectors that, with n, form a
// right-handed orthonormal basis. If n is zero, it returns the X and Y
// axes.
func tangentFrame(n r3.Vec) (t1, t2 r3.Vec) {
	if r3.Norm2(n) == 0 {
		return r3.Vec{X: 1}, r3.Vec{Y: 1}
	}
	// Cross with the axis least aligned with n.
	axis := r3.Vec{X: 1}
	if math.Abs(n.Y) < math.Abs(n.X) && math.Abs(n.Y) <= math.Abs(n.Z) {
		axis = r3.Vec{Y: 1}
	} else if math.Abs(n.Z) < math.Abs(n.X) {
		axis = r3.Vec{Z: 1}
	}
	t1 = r3.Unit(r3.Cross(n, axis))
	t2 = r3.Cross(n, t1)
	return t1, t2
}

// kRing computes grown neighborhoods over a vertex adjacency.
type kRing struct {
	adj  [][]int
	seen []int // seen[u] == stamp if u is in the current neighborhood
	st   int
}

func newKRing(adj [][]int) *kRing {
	return &kRing{adj: adj, seen: make([]int, len(adj))}
}

// neighborhood returns the vertexes within opts.Rings edges of v,
// excluding v, growing by whole rings until it has opts.MinSamples
// vertexes, reaches opts.MaxRings, or covers v's component.
func (k *kRing) neighborhood(v int, opts FitOptions) []int {
	k.st++
	k.seen[v] = k.st
	var out []int
	frontier := []int{v}
	for ring := 1; len(frontier) > 0; ring++ {
		if ring > opts.Rings && (len(out) >= opts.MinSamples || ring > opts.MaxRings) {
			break
		}
		var next []int
		for _, u := range frontier {
			for _, w := range k.adj[u] {
				if k.seen[w] != k.st {
					k.seen[w] = k.st
					next = append(next, w)
				}
			}
		}
		out = append(out, next...)
		frontier = next
	}
	return out
}

// fitVertex fits z = ax² + bxy + cy² + dx + ey to the neighbors of v
// in the frame (t1, t2, n) centered on v and returns the principal
// curvatures of the fitted surface at v, larger first, and the
// direction of the larger one projected onto the tangent plane.
func fitVertex(verts []r3.Vec, v int, nbrs []int, n, t1, t2 r3.Vec) (k1, k2 float64, d1 r3.Vec, ok bool) {
	if len(nbrs) < quadricParams || r3.Norm2(n) == 0 {
		return 0, 0, r3.Vec{}, false
	}

	// Scale the neighborhood to unit size to keep the system well
	// conditioned.
	origin := verts[v]
	h := 0.0
	for _, u := range nbrs {
		h = math.Max(h, r3.Norm(r3.Sub(verts[u], origin)))
	}
	if h == 0 {
		return 0, 0, r3.Vec{}, false
	}

	A := mat.NewDense(len(nbrs), quadricParams, nil)
	z := mat.NewVecDense(len(nbrs), nil)
	for i, u := range nbrs {
		q := r3.Scale(1/h, r3.Sub(verts[u], origin))
		x, y := r3.Dot(q, t1), r3.Dot(q, t2)
		A.SetRow(i, []float64{x * x, x * y, y * y, x, y})
		z.SetVec(i, r3.Dot(q, n))
	}
	var coef mat.VecDense
	if err := coef.SolveVec(A, z); err != nil {
		return 0, 0, r3.Vec{}, false
	}
	// Undo the scaling. The linear terms are scale-free.
	a, b, c := coef.AtVec(0)/h, coef.AtVec(1)/h, coef.AtVec(2)/h
	d, e := coef.AtVec(3), coef.AtVec(4)

	vals, vecs, ok := shapeOperator(a, b, c, d, e)
	if !ok {
		return 0, 0, r3.Vec{}, false
	}
	// Lift the eigenvector of the larger curvature into the tangent
	// plane.
	d1 = r3.Add(r3.Scale(vecs[1][0], t1), r3.Scale(vecs[1][1], t2))
	if r3.Norm2(d1) == 0 {
		return 0, 0, r3.Vec{}, false
	}
	return vals[1], vals[0], r3.Unit(d1), true
}

// shapeOperator returns the principal curvatures of the height field
// z = ax² + bxy + cy² + dx + ey at the origin in ascending order, and
// their directions in parameter space.
//
// The principal curvatures solve the generalized eigenproblem II v = κ I v
// where I and II are the first and second fundamental forms. I is
// positive definite, so with I = LLᵀ this is the symmetric problem
// (L⁻¹ II L⁻ᵀ) w = κ w with v = L⁻ᵀ w. The curvatures are real.
func shapeOperator(a, b, c, d, e float64) (vals [2]float64, vecs [2][2]float64, ok bool) {
	// First fundamental form, and its Cholesky factor.
	E, F, G := 1+d*d, d*e, 1+e*e
	l11 := math.Sqrt(E)
	l21 := F / l11
	l22 := math.Sqrt(G - l21*l21)
	Linv := mat.NewDense(2, 2, []float64{
		1 / l11, 0,
		-l21 / (l11 * l22), 1 / l22,
	})

	// Second fundamental form, negated so curvature is positive where
	// the surface bends away from the normal.
	w := math.Sqrt(1 + d*d + e*e)
	II := mat.NewDense(2, 2, []float64{
		-2 * a / w, -b / w,
		-b / w, -2 * c / w,
	})

	var S mat.Dense
	S.Product(Linv, II, Linv.T())
	off := (S.At(0, 1) + S.At(1, 0)) / 2
	sym := mat.NewSymDense(2, []float64{S.At(0, 0), off, off, S.At(1, 1)})

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return vals, vecs, false
	}
	ev := eig.Values(nil)
	var W mat.Dense
	eig.VectorsTo(&W)

	var V mat.Dense
	V.Mul(Linv.T(), &W)
	for i := 0; i < 2; i++ {
		vals[i] = ev[i]
		vecs[i] = [2]float64{V.At(0, i), V.At(1, i)}
		if math.IsNaN(vals[i]) || math.IsInf(vals[i], 0) {
			return vals, vecs, false
		}
	}
	return vals, vecs, true
}
