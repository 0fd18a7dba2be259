package main

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sparse is a square sparse matrix in compressed sparse row form.
type Sparse struct {
	n      int
	rowPtr []int
	cols   []int
	vals   []float64
}

type triplet struct {
	i, j int
	v    float64
}

// sparseBuilder accumulates matrix entries. Repeated entries are summed.
type sparseBuilder struct {
	n    int
	trip []triplet
}

func newSparseBuilder(n int) *sparseBuilder {
	return &sparseBuilder{n: n}
}

func (b *sparseBuilder) Add(i, j int, v float64) {
	b.trip = append(b.trip, triplet{i, j, v})
}

func (b *sparseBuilder) Build() *Sparse {
	sort.Slice(b.trip, func(x, y int) bool {
		tx, ty := b.trip[x], b.trip[y]
		if tx.i != ty.i {
			return tx.i < ty.i
		}
		return tx.j < ty.j
	})
	s := &Sparse{n: b.n, rowPtr: make([]int, b.n+1)}
	for k := 0; k < len(b.trip); {
		t := b.trip[k]
		v := 0.0
		for ; k < len(b.trip) && b.trip[k].i == t.i && b.trip[k].j == t.j; k++ {
			v += b.trip[k].v
		}
		s.cols = append(s.cols, t.j)
		s.vals = append(s.vals, v)
		s.rowPtr[t.i+1]++
	}
	for i := 0; i < b.n; i++ {
		s.rowPtr[i+1] += s.rowPtr[i]
	}
	return s
}

// Dims returns the number of rows and columns.
func (s *Sparse) Dims() (r, c int) {
	return s.n, s.n
}

// At returns the element at row i, column j.
func (s *Sparse) At(i, j int) float64 {
	row := s.cols[s.rowPtr[i]:s.rowPtr[i+1]]
	k := sort.SearchInts(row, j)
	if k < len(row) && row[k] == j {
		return s.vals[s.rowPtr[i]+k]
	}
	return 0
}

// NNZ returns the number of stored entries.
func (s *Sparse) NNZ() int {
	return len(s.vals)
}

// Row calls fn for each stored entry of row i.
func (s *Sparse) Row(i int, fn func(j int, v float64)) {
	for k := s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
		fn(s.cols[k], s.vals[k])
	}
}

// RowSum returns the sum of row i.
func (s *Sparse) RowSum(i int) float64 {
	sum := 0.0
	for k := s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
		sum += s.vals[k]
	}
	return sum
}

// MulVecs multiplies s by the n×3 matrix whose rows are xs.
func (s *Sparse) MulVecs(xs []r3.Vec) []r3.Vec {
	if len(xs) != s.n {
		panic("sparse: dimension mismatch")
	}
	out := make([]r3.Vec, s.n)
	for i := range out {
		var acc r3.Vec
		for k := s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			acc = r3.Add(acc, r3.Scale(s.vals[k], xs[s.cols[k]]))
		}
		out[i] = acc
	}
	return out
}

// IsSymmetric reports whether s equals its transpose to within tol.
func (s *Sparse) IsSymmetric(tol float64) bool {
	for i := 0; i < s.n; i++ {
		for k := s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			if math.Abs(s.vals[k]-s.At(s.cols[k], i)) > tol {
				return false
			}
		}
	}
	return true
}
