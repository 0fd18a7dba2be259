package main

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/palette/moreland"
)

// A ViewBundle is everything needed to display curvature on a mesh. It
// shares the mesh's slices and must not be modified.
type ViewBundle struct {
	Verts  []r3.Vec
	Faces  [][3]int
	Field  Field
	Colors []color.NRGBA // Per vertex

	// Segments are drawn through each vertex along its principal
	// directions.
	Segments []Segment
}

type Segment struct {
	A, B  r3.Vec
	Color color.NRGBA
}

var (
	dir1Color = color.NRGBA{R: 51, G: 51, B: 204, A: 255} // blue
	dir2Color = color.NRGBA{R: 204, G: 51, B: 51, A: 255} // red
)

// NewViewBundle colors m by the field kind selects and adds segments
// along both principal directions, each one average edge length to
// either side of its vertex.
func NewViewBundle(m *Mesh, c *Curvature, kind Kind) *ViewBundle {
	f := c.DisplayField(kind)
	b := &ViewBundle{
		Verts:  m.Verts,
		Faces:  m.Faces,
		Field:  f,
		Colors: Colorize(f.Values),
	}
	avg := m.AvgEdgeLength()
	b.Segments = make([]Segment, 0, 2*len(m.Verts))
	for i, v := range m.Verts {
		d1 := r3.Scale(avg, c.D1[i])
		d2 := r3.Scale(avg, c.D2[i])
		b.Segments = append(b.Segments,
			Segment{r3.Add(v, d1), r3.Sub(v, d1), dir1Color},
			Segment{r3.Add(v, d2), r3.Sub(v, d2), dir2Color})
	}
	return b
}

// Colorize maps values onto a diverging color map spanning their
// range.
func Colorize(values []float64) []color.NRGBA {
	out := make([]color.NRGBA, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if !(hi > lo) {
		hi = lo + 1
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo)
	cm.SetMax(hi)
	for i, x := range values {
		c, err := cm.At(x)
		if math.IsNaN(x) || err != nil {
			out[i] = color.NRGBA{A: 255}
			continue
		}
		out[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	return out
}
