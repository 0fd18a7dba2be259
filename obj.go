package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

func ReadOBJFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadOBJ(f)
}

// ReadOBJ reads a Wavefront OBJ mesh. Polygons are fan-triangulated.
// If every face corner carries a texture coordinate index, the result
// has a per-corner UV association. Otherwise UV is left indexed by
// vertex.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	m := new(Mesh)
	allUV := true

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			m.Verts = append(m.Verts, r3.Vec{X: p[0], Y: p[1], Z: p[2]})
		case "vt":
			p, err := parseFloats(fields[1:], 1)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			uv := [2]float64{p[0], 0}
			if len(p) > 1 {
				uv[1] = p[1]
			}
			m.UV = append(m.UV, uv)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face with %d vertexes", line, len(fields)-1)
			}
			vi := make([]int, len(fields)-1)
			ti := make([]int, len(fields)-1)
			for i, s := range fields[1:] {
				var err error
				var hasUV bool
				vi[i], ti[i], hasUV, err = parseOBJCorner(s, len(m.Verts), len(m.UV))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				allUV = allUV && hasUV
			}
			// Fan triangulation
			for i := 1; i+1 < len(vi); i++ {
				m.Faces = append(m.Faces, [3]int{vi[0], vi[i], vi[i+1]})
				m.FaceUV = append(m.FaceUV, [3]int{ti[0], ti[i], ti[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Without a complete corner association, any texture coordinates
	// are taken to be indexed by vertex.
	if !allUV || len(m.UV) == 0 {
		m.FaceUV = nil
	}
	return m, nil
}

// parseOBJCorner parses one face corner of the form v, v/vt, v//vn or
// v/vt/vn into zero-based vertex and texture indexes. nv and nt are the
// number of vertexes and texture coordinates seen so far, which
// negative indexes are relative to.
func parseOBJCorner(s string, nv, nt int) (v, t int, hasUV bool, err error) {
	parts := strings.Split(s, "/")
	v, err = objIndex(parts[0], nv)
	if err != nil {
		return
	}
	if len(parts) > 1 && parts[1] != "" {
		t, err = objIndex(parts[1], nt)
		hasUV = err == nil
	}
	return
}

func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", s)
	}
	switch {
	case i > 0:
		return i - 1, nil
	case i < 0:
		return n + i, nil
	}
	return 0, fmt.Errorf("bad index %q", s)
}

// parseFloats parses at least min floats from fields.
func parseFloats(fields []string, min int) ([]float64, error) {
	if len(fields) < min {
		return nil, fmt.Errorf("want %d values, got %d", min, len(fields))
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}
