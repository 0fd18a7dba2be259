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

func ReadOFFFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadOFF(f)
}

// ReadOFF reads a Geomview OFF mesh. Polygons are fan-triangulated.
func ReadOFF(r io.Reader) (*Mesh, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	// next returns the fields of the next non-blank, non-comment line.
	next := func() ([]string, error) {
		for scanner.Scan() {
			line := scanner.Text()
			if i := strings.IndexByte(line, '#'); i >= 0 {
				line = line[:i]
			}
			if fields := strings.Fields(line); len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}

	fields, err := next()
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(fields[0], "OFF") {
		return nil, fmt.Errorf("missing OFF magic")
	}
	// The counts may follow the magic on the same line.
	if fields = fields[1:]; len(fields) == 0 {
		if fields, err = next(); err != nil {
			return nil, err
		}
	}
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed OFF counts")
	}
	nv, err1 := strconv.Atoi(fields[0])
	nf, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || nv < 0 || nf < 0 {
		return nil, fmt.Errorf("malformed OFF counts %q", fields)
	}

	m := new(Mesh)
	for i := 0; i < nv; i++ {
		fields, err := next()
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		p, err := parseFloats(fields, 3)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		m.Verts = append(m.Verts, r3.Vec{X: p[0], Y: p[1], Z: p[2]})
	}
	for i := 0; i < nf; i++ {
		fields, err := next()
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 3 || n > len(fields)-1 {
			return nil, fmt.Errorf("face %d: malformed", i)
		}
		idx := make([]int, n)
		for k := range idx {
			if idx[k], err = strconv.Atoi(fields[k+1]); err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
		}
		for k := 1; k+1 < n; k++ {
			m.Faces = append(m.Faces, [3]int{idx[0], idx[k], idx[k+1]})
		}
	}
	return m, nil
}
