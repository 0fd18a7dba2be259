package main

import (
	"errors"
	"fmt"
)

// Kind selects which curvature fields to report.
type Kind uint8

const (
	KindNone  Kind = iota // No export; display mean curvature
	KindMean              // Mean curvature, H
	KindGauss             // Gaussian curvature, G
	KindK1                // First principal curvature
	KindK2                // Second principal curvature
	KindK                 // Both principal curvatures
	KindAll               // H, G, K1 and K2
)

var ErrUsage = errors.New("usage error")

var kindNames = [...]string{
	KindNone:  "",
	KindMean:  "mean",
	KindGauss: "gauss",
	KindK1:    "k1",
	KindK2:    "k2",
	KindK:     "k",
	KindAll:   "all",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		if k == KindNone {
			return "none"
		}
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses a curvature kind argument. KindNone has no name;
// it is the kind when the argument is absent.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if Kind(k) != KindNone && s == name {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("%w: invalid curvature type: %s", ErrUsage, s)
}

// Curvature is the set of per-vertex curvature fields of a mesh.
type Curvature struct {
	*Principal

	// Mean and Gauss are derived from the principal curvatures and are
	// the values reported for KindMean and KindGauss.
	Mean, Gauss []float64

	// Laplace is the Laplace-Beltrami estimate of mean curvature. It is
	// only used for comparison against Mean.
	Laplace *LaplaceMean
}

// NewCurvature derives mean and Gaussian curvature from p.
func NewCurvature(p *Principal, lap *LaplaceMean) *Curvature {
	c := &Curvature{
		Principal: p,
		Mean:      make([]float64, len(p.K1)),
		Gauss:     make([]float64, len(p.K1)),
		Laplace:   lap,
	}
	for i := range p.K1 {
		c.Mean[i] = 0.5 * (p.K1[i] + p.K2[i])
		c.Gauss[i] = p.K1[i] * p.K2[i]
	}
	return c
}

// ComputeCurvature runs the full curvature pipeline on m.
func ComputeCurvature(m *Mesh, mass MassType, opts FitOptions) (*Curvature, error) {
	lap := LaplacianMeanCurvature(m, mass)
	p, err := PrincipalCurvature(m, opts)
	if err != nil {
		return nil, err
	}
	return NewCurvature(p, lap), nil
}

// A Field is one named scalar curvature field.
type Field struct {
	Name   string
	Suffix string // Export file name suffix
	Values []float64
}

func (c *Curvature) mean() Field  { return Field{"mean curvature", "H", c.Mean} }
func (c *Curvature) gauss() Field { return Field{"Gaussian curvature", "G", c.Gauss} }
func (c *Curvature) k1() Field    { return Field{"first principal curvature", "K1", c.K1} }
func (c *Curvature) k2() Field    { return Field{"second principal curvature", "K2", c.K2} }

// Fields returns the fields selected by kind, in export order.
func (c *Curvature) Fields(kind Kind) []Field {
	switch kind {
	case KindNone:
		return nil
	case KindMean:
		return []Field{c.mean()}
	case KindGauss:
		return []Field{c.gauss()}
	case KindK1:
		return []Field{c.k1()}
	case KindK2:
		return []Field{c.k2()}
	case KindK:
		return []Field{c.k1(), c.k2()}
	case KindAll:
		return []Field{c.mean(), c.gauss(), c.k1(), c.k2()}
	}
	panic("bad curvature kind " + kind.String())
}

// DisplayField returns the field to color a displayed mesh by. Kinds
// that select more than one field display mean curvature.
func (c *Curvature) DisplayField(kind Kind) Field {
	switch kind {
	case KindGauss:
		return c.gauss()
	case KindK1:
		return c.k1()
	case KindK2:
		return c.k2()
	case KindNone, KindMean, KindK, KindAll:
		return c.mean()
	}
	panic("bad curvature kind " + kind.String())
}
