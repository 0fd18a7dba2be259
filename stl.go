package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

func ReadSTLFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSTL(f)
}

// ReadSTL reads a binary or ASCII STL mesh. STL stores each triangle
// separately, so coincident vertexes are merged. STL has no texture
// coordinates.
func ReadSTL(r io.Reader) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isASCIISTL(data) {
		return readASCIISTL(bytes.NewReader(data))
	}
	return readBinarySTL(bytes.NewReader(data))
}

// isASCIISTL guesses the STL flavor. Some binary exporters also start
// their header with "solid", so the binary size is checked as well.
func isASCIISTL(data []byte) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return false
	}
	if len(data) >= 84 {
		n := binary.LittleEndian.Uint32(data[80:84])
		if int64(len(data)) == 84+50*int64(n) {
			return false
		}
	}
	return true
}

type stlBuilder struct {
	m       *Mesh
	vertMap map[r3.Vec]int
}

func newSTLBuilder() *stlBuilder {
	return &stlBuilder{new(Mesh), make(map[r3.Vec]int)}
}

// vertex adds v to the vertex set and returns its index.
func (b *stlBuilder) vertex(v r3.Vec) int {
	vertIndex, ok := b.vertMap[v]
	if !ok {
		vertIndex = len(b.m.Verts)
		b.m.Verts = append(b.m.Verts, v)
		b.vertMap[v] = vertIndex
	}
	return vertIndex
}

func readBinarySTL(r io.Reader) (*Mesh, error) {
	b := newSTLBuilder()

	var header struct {
		H    [80]byte
		NTri uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, err
	}

	var vert [3]float32
	var tri [3]int
	triBuf := make([]byte, 4*3*4+2)
	for i := 0; i < int(header.NTri); i++ {
		// Read a triangle
		if _, err := io.ReadFull(r, triBuf); err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, err)
		}
		for v := range tri {
			for c := range vert {
				const start = 3 * 4 // Skip normal
				vert[c] = math.Float32frombits(binary.LittleEndian.Uint32(triBuf[start+12*v+4*c:]))
			}
			tri[v] = b.vertex(r3.Vec{X: float64(vert[0]), Y: float64(vert[1]), Z: float64(vert[2])})
		}
		b.m.Faces = append(b.m.Faces, tri)
	}

	return b.m, nil
}

func readASCIISTL(r io.Reader) (*Mesh, error) {
	b := newSTLBuilder()

	var loop []int
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "outer":
			loop = loop[:0]
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: malformed vertex", line)
			}
			var p [3]float64
			for i := range p {
				x, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				p[i] = x
			}
			loop = append(loop, b.vertex(r3.Vec{X: p[0], Y: p[1], Z: p[2]}))
		case "endloop":
			if len(loop) < 3 {
				return nil, fmt.Errorf("line %d: facet with %d vertexes", line, len(loop))
			}
			// Fan-triangulate the odd non-triangular facet.
			for i := 1; i+1 < len(loop); i++ {
				b.m.Faces = append(b.m.Faces, [3]int{loop[0], loop[i], loop[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(b.m.Faces) == 0 {
		return nil, fmt.Errorf("no facets")
	}
	return b.m, nil
}
