package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const quadOBJ = `# a unit square as one quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vt 0.5 0.5
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestReadOBJ(t *testing.T) {
	m, err := ReadOBJ(strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Verts) != 4 || len(m.UV) != 5 {
		t.Fatalf("got %d vertexes and %d UVs, want 4 and 5", len(m.Verts), len(m.UV))
	}
	wantFaces := [][3]int{{0, 1, 2}, {0, 2, 3}}
	if !reflect.DeepEqual(m.Faces, wantFaces) {
		t.Errorf("faces = %v, want %v", m.Faces, wantFaces)
	}
	if !reflect.DeepEqual(m.FaceUV, wantFaces) {
		t.Errorf("UV faces = %v, want %v", m.FaceUV, wantFaces)
	}
	if m.UV[4] != [2]float64{0.5, 0.5} {
		t.Errorf("UV[4] = %v", m.UV[4])
	}
	if err := m.Validate(); err != nil {
		t.Error(err)
	}
}

func TestReadOBJNegativeIndexes(t *testing.T) {
	m, err := ReadOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Faces, [][3]int{{0, 1, 2}}) {
		t.Errorf("faces = %v", m.Faces)
	}
	if m.HasUV() || m.FaceUV != nil {
		t.Error("mesh without vt has a UV association")
	}
}

func TestReadOBJPartialUV(t *testing.T) {
	// Only one face has texture coordinates, so there's no complete
	// corner association. The texture coordinates stay, indexed by
	// vertex.
	m, err := ReadOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nvt 0 0\nf 1/1 2/1 3/1\nf 2//1 4//1 3//1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.UV) != 1 || m.FaceUV != nil {
		t.Errorf("got %d UVs and UV faces %v, want 1 UV and no UV faces", len(m.UV), m.FaceUV)
	}
}

func TestReadOBJVertexUV(t *testing.T) {
	m, err := ReadOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nf 1 2 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !m.HasUV() || m.FaceUV != nil {
		t.Fatalf("HasUV = %v, UV faces = %v", m.HasUV(), m.FaceUV)
	}
	if !reflect.DeepEqual(m.UV, [][2]float64{{0, 0}, {1, 0}, {0, 1}}) {
		t.Errorf("UV = %v", m.UV)
	}
	if m.uvLayout(len(m.Verts)) != layoutVertex {
		t.Error("per-vertex texture coordinates not exportable by vertex")
	}
}

func TestReadOBJErrors(t *testing.T) {
	for _, src := range []string{
		"v 0 0\n",
		"v 0 0 zero\n",
		"v 0 0 0\nv 1 0 0\nf 1 2\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 x\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
	} {
		if _, err := ReadOBJ(strings.NewReader(src)); err == nil {
			t.Errorf("no error reading %q", src)
		}
	}
}

const asciiPLY = `ply
format ascii 1.0
comment two triangles
element vertex 4
property float x
property float y
property float z
property float s
property float t
element face 1
property list uchar int vertex_indices
end_header
0 0 0 0 0
1 0 0 1 0
1 1 0 1 1
0 1 0 0 1
4 0 1 2 3
`

func TestReadPLYASCII(t *testing.T) {
	m, err := ReadPLY(strings.NewReader(asciiPLY))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Verts) != 4 || m.Verts[2] != (r3.Vec{X: 1, Y: 1}) {
		t.Errorf("vertexes = %v", m.Verts)
	}
	if !reflect.DeepEqual(m.UV, [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}) {
		t.Errorf("UV = %v", m.UV)
	}
	if !reflect.DeepEqual(m.Faces, [][3]int{{0, 1, 2}, {0, 2, 3}}) {
		t.Errorf("faces = %v", m.Faces)
	}
	if m.FaceUV != nil {
		t.Error("PLY UVs should be per vertex")
	}
}

func TestReadPLYBinary(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_little_endian 1.0\n" +
		"element vertex 3\nproperty double x\nproperty double y\nproperty double z\nproperty uchar red\n" +
		"element edge 1\nproperty int vertex1\nproperty int vertex2\n" +
		"element face 1\nproperty uchar flags\nproperty list uchar uint vertex_indices\n" +
		"end_header\n")
	for _, v := range [][3]float64{{0, 0, 0}, {2, 0, 0}, {0, 2, 1}} {
		binary.Write(&buf, binary.LittleEndian, v)
		buf.WriteByte(255)
	}
	binary.Write(&buf, binary.LittleEndian, [2]int32{0, 1})
	buf.WriteByte(7)
	buf.WriteByte(3)
	binary.Write(&buf, binary.LittleEndian, [3]uint32{2, 1, 0})

	m, err := ReadPLY(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Verts, []r3.Vec{{}, {X: 2}, {Y: 2, Z: 1}}) {
		t.Errorf("vertexes = %v", m.Verts)
	}
	if !reflect.DeepEqual(m.Faces, [][3]int{{2, 1, 0}}) {
		t.Errorf("faces = %v", m.Faces)
	}
	if m.HasUV() {
		t.Error("mesh without texture coordinates has UVs")
	}
}

func TestReadPLYErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\n",
		"ply\nformat xml 1.0\nend_header\n",
		"ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\n0\n",
		"ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n",
	} {
		if _, err := ReadPLY(strings.NewReader(src)); err == nil {
			t.Errorf("no error reading %q", src)
		}
	}
}

func TestReadPLYBadCounts(t *testing.T) {
	const header = "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n"
	for _, face := range []string{"1e300 0 1 2", "nan 0 1 2", "-3 0 1 2", "2.5 0 1 2", "3 0 1.5 2"} {
		if _, err := ReadPLY(strings.NewReader(header + face + "\n")); err == nil {
			t.Errorf("face %q accepted", face)
		}
	}

	// A list on an element that is skipped.
	src := "ply\nformat ascii 1.0\nelement edge 1\nproperty list uchar int vertex_indices\nend_header\n1e300 0 1\n"
	if _, err := ReadPLY(strings.NewReader(src)); err != nil {
		t.Errorf("skipped ASCII element: %v", err)
	}
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_little_endian 1.0\nelement edge 1\nproperty list uint int vertex_indices\nend_header\n")
	binary.Write(&buf, binary.LittleEndian, uint32(1<<31))
	if _, err := ReadPLY(&buf); err == nil {
		t.Error("huge binary list length accepted")
	}
}

func binarySTL(tris [][3][3]float32) []byte {
	var buf bytes.Buffer
	header := make([]byte, 80)
	copy(header, "solid but actually binary")
	buf.Write(header)
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		binary.Write(&buf, binary.LittleEndian, [3]float32{}) // normal
		binary.Write(&buf, binary.LittleEndian, tri)
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestReadSTLBinary(t *testing.T) {
	data := binarySTL([][3][3]float32{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		{{1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	})
	m, err := ReadSTL(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	// Shared corners are merged.
	if len(m.Verts) != 4 {
		t.Errorf("got %d vertexes, want 4", len(m.Verts))
	}
	if !reflect.DeepEqual(m.Faces, [][3]int{{0, 1, 2}, {1, 3, 2}}) {
		t.Errorf("faces = %v", m.Faces)
	}

	if _, err := ReadSTL(bytes.NewReader(data[:len(data)-10])); err == nil {
		t.Error("truncated STL accepted")
	}
}

const asciiSTL = `solid square
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 1 0 0
      vertex 1 1 0
      vertex 0 1 0
    endloop
  endfacet
endsolid square
`

func TestReadSTLASCII(t *testing.T) {
	m, err := ReadSTL(strings.NewReader(asciiSTL))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Verts) != 4 || !reflect.DeepEqual(m.Faces, [][3]int{{0, 1, 2}, {1, 3, 2}}) {
		t.Errorf("got %d vertexes, faces %v", len(m.Verts), m.Faces)
	}
}

func TestReadOFF(t *testing.T) {
	src := "OFF\n# a square\n4 1 0\n0 0 0\n1 0 0\n1 1 0\n0 1 0\n4 0 1 2 3\n"
	m, err := ReadOFF(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Verts) != 4 || !reflect.DeepEqual(m.Faces, [][3]int{{0, 1, 2}, {0, 2, 3}}) {
		t.Errorf("got %d vertexes, faces %v", len(m.Verts), m.Faces)
	}
	for _, src := range []string{
		"OFF\n4 1 0\n0 0 0\n",
		"OFF\n999999999999999 1 0\n",
		"OFF 3 999999999999999 0\n0 0 0\n1 0 0\n0 1 0\n",
		"OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n9223372036854775807 0 1 2\n",
		"OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n4 0 1 2\n",
		"OFF\n-1 1 0\n",
	} {
		if _, err := ReadOFF(strings.NewReader(src)); err == nil {
			t.Errorf("no error reading %q", src)
		}
	}
}

func TestLoadMesh(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(data), 0666); err != nil {
			t.Fatal(err)
		}
		return path
	}

	m, err := LoadMesh(write("quad.OBJ", quadOBJ))
	if err != nil {
		t.Fatal(err)
	}
	if !m.HasUV() {
		t.Error("OBJ lost its UVs")
	}
	if _, err := LoadMesh(write("square.stl", asciiSTL)); err != nil {
		t.Error(err)
	}
	if _, err := LoadMesh(write("square.ply", asciiPLY)); err != nil {
		t.Error(err)
	}

	if _, err := LoadMesh(write("mesh.xyz", "")); err == nil {
		t.Error("unsupported format accepted")
	}
	if _, err := LoadMesh(filepath.Join(dir, "missing.obj")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := LoadMesh(write("bad.off", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n3 0 1 5\n")); err == nil {
		t.Error("out of range face accepted")
	}
}
