package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
)

var (
	ErrNoUV     = errors.New("no UV data")
	ErrUVLayout = errors.New("unsupported UV data")
)

// uvLayout is how a curvature field lines up with a mesh's UV table.
type uvLayout int

const (
	layoutInvalid uvLayout = iota
	layoutVertex           // UV[i] belongs to vertex i
	layoutCorner           // FaceUV[f][c] belongs to Faces[f][c]
)

func (m *Mesh) uvLayout(n int) uvLayout {
	switch {
	case len(m.UV) > 0 && n == len(m.UV):
		return layoutVertex
	case len(m.UV) > 0 && n == len(m.Verts) && m.FaceUV != nil && len(m.FaceUV) == len(m.Faces):
		return layoutCorner
	}
	return layoutInvalid
}

func (m *Mesh) layoutError(n int) error {
	return fmt.Errorf("%w: UV=%d,%d Fuv=%d,%d Curv=%d from curvature",
		ErrUVLayout, len(m.UV), dimCols(len(m.UV), 2), len(m.FaceUV), dimCols(len(m.FaceUV), 3), n)
}

// WriteCurvature writes values, one per vertex of m, as lines of
// "u\tv\tvalue". If m's UV table is indexed by vertex, it writes one
// line per vertex. If it is indexed by face corner, it writes one line
// per corner in face order. There is no header and no newline after
// the last line.
func WriteCurvature(w io.Writer, m *Mesh, values []float64) error {
	layout := m.uvLayout(len(values))
	if layout == layoutInvalid {
		return m.layoutError(len(values))
	}

	bw := bufio.NewWriter(w)
	line := 0
	writeLine := func(uv [2]float64, x float64) {
		if line > 0 {
			bw.WriteByte('\n')
		}
		line++
		bw.WriteString(formatFloat(uv[0]))
		bw.WriteByte('\t')
		bw.WriteString(formatFloat(uv[1]))
		bw.WriteByte('\t')
		bw.WriteString(formatFloat(x))
	}
	if layout == layoutVertex {
		for i, x := range values {
			writeLine(m.UV[i], x)
		}
	} else {
		for f, tri := range m.FaceUV {
			for c, t := range tri {
				writeLine(m.UV[t], values[m.Faces[f][c]])
			}
		}
	}
	return bw.Flush()
}

// formatFloat formats x with the fewest digits that read back as x.
func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// ExportPath returns the file a field of meshPath is exported to.
func ExportPath(meshPath string, f Field) string {
	return meshPath + "-" + f.Suffix + ".tsv"
}

// ExportField writes f to path. Nothing is written if f does not match
// m's UV layout.
func ExportField(path string, m *Mesh, f Field) error {
	if m.uvLayout(len(f.Values)) == layoutInvalid {
		return m.layoutError(len(f.Values))
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write to %s: %w", path, err)
	}
	if err := WriteCurvature(out, m, f.Values); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ExportFields writes each field next to meshPath. A field that cannot
// be exported is logged and skipped. It returns the paths written.
func ExportFields(meshPath string, m *Mesh, fields []Field) []string {
	var written []string
	for _, f := range fields {
		path := ExportPath(meshPath, f)
		if err := ExportField(path, m, f); err != nil {
			log.Printf("skipping %s: %s", f.Name, err)
			continue
		}
		log.Printf("Saved curvature to %s", path)
		written = append(written, path)
	}
	return written
}
