package main

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"text/template"

	"gonum.org/v1/gonum/spatial/r3"
)

// WritePOV writes b as a POV-Ray scene: a mesh2 with one texture per
// vertex, a cylinder per principal direction segment, and a camera and
// light framing the mesh.
//
// POV-Ray is left-handed with Y up, so the Y and Z coordinates of the
// mesh are swapped.
func (b *ViewBundle) WritePOV(w io.Writer) error {
	bw := bufio.NewWriter(w)

	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range b.Verts {
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	center := r3.Scale(0.5, r3.Add(lo, hi))
	radius := r3.Norm(r3.Sub(hi, lo)) / 2
	if err := povSceneTemplate.Execute(bw, povScene{
		Center: povVec(center),
		Camera: povVec(r3.Add(center, r3.Vec{X: 1.2 * radius, Y: -2 * radius, Z: 1.2 * radius})),
		Light:  povVec(r3.Add(center, r3.Vec{X: 4 * radius, Y: -4 * radius, Z: 6 * radius})),
	}); err != nil {
		return err
	}

	fmt.Fprintf(bw, "mesh2 {\n")
	fmt.Fprintf(bw, "  vertex_vectors {\n")
	fmt.Fprintf(bw, "    %d,\n", len(b.Verts))
	for _, v := range b.Verts {
		fmt.Fprintf(bw, "    %s,\n", povVec(v))
	}
	fmt.Fprintf(bw, "  }\n")
	fmt.Fprintf(bw, "  texture_list {\n")
	fmt.Fprintf(bw, "    %d,\n", len(b.Colors))
	for _, c := range b.Colors {
		fmt.Fprintf(bw, "    texture { pigment { color %s } }\n", povColor(c))
	}
	fmt.Fprintf(bw, "  }\n")
	fmt.Fprintf(bw, "  face_indices {\n")
	fmt.Fprintf(bw, "    %d,\n", len(b.Faces))
	for _, tri := range b.Faces {
		fmt.Fprintf(bw, "    <%d, %d, %d>, %d, %d, %d,\n", tri[0], tri[1], tri[2], tri[0], tri[1], tri[2])
	}
	fmt.Fprintf(bw, "  }\n")
	fmt.Fprintf(bw, "}\n")

	if len(b.Segments) > 0 {
		// Segment radius relative to segment length.
		r := r3.Norm(r3.Sub(b.Segments[0].B, b.Segments[0].A)) / 40
		for _, s := range b.Segments {
			if s.A == s.B {
				continue
			}
			fmt.Fprintf(bw, "cylinder { %s, %s, %v texture { pigment { color %s } } }\n",
				povVec(s.A), povVec(s.B), r, povColor(s.Color))
		}
	}
	return bw.Flush()
}

// WritePOVFile writes b's POV-Ray scene to path.
func (b *ViewBundle) WritePOVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.WritePOV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func povVec(v r3.Vec) string {
	return fmt.Sprintf("<%v, %v, %v>", v.X, v.Z, v.Y)
}

func povColor(c color.NRGBA) string {
	return fmt.Sprintf("rgb <%.4f, %.4f, %.4f>", float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
}

type povScene struct {
	Center, Camera, Light string
}

var povSceneTemplate = template.Must(template.New("").Parse(`
global_settings {
	ambient_light 0.3
	assumed_gamma 1.0
}

background { color rgb <0.1, 0.1, 0.12> }

camera {
	location {{.Camera}}
	look_at {{.Center}}
}

light_source {
	{{.Light}}
	color rgb <1, 1, 1>
}

`))
