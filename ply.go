package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

func ReadPLYFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPLY(f)
}

type plyProperty struct {
	name      string
	typ       string
	list      bool
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

// plyValueReader reads PLY scalar values in one of the three encodings.
type plyValueReader struct {
	r     *bufio.Reader
	order binary.ByteOrder // nil for ASCII

	fields []string // Remaining fields on the current ASCII line
}

// ReadPLY reads a PLY mesh in ASCII or binary encoding. Vertex texture
// coordinates, if present, become a per-vertex UV association.
func ReadPLY(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)
	elems, order, err := readPLYHeader(br)
	if err != nil {
		return nil, err
	}

	vr := &plyValueReader{r: br, order: order}
	m := new(Mesh)
	for _, el := range elems {
		switch el.name {
		case "vertex":
			if err := readPLYVertexes(vr, el, m); err != nil {
				return nil, err
			}
		case "face":
			if err := readPLYFaces(vr, el, m); err != nil {
				return nil, err
			}
		default:
			for i := 0; i < el.count; i++ {
				if err := vr.skipRecord(el); err != nil {
					return nil, fmt.Errorf("element %s: %w", el.name, err)
				}
			}
		}
	}
	return m, nil
}

func readPLYHeader(br *bufio.Reader) ([]*plyElement, binary.ByteOrder, error) {
	line, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "ply" {
		return nil, nil, fmt.Errorf("missing ply magic")
	}
	var elems []*plyElement
	var order binary.ByteOrder
	haveFormat := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, nil, fmt.Errorf("reading header: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("malformed format line")
			}
			switch fields[1] {
			case "ascii":
			case "binary_little_endian":
				order = binary.LittleEndian
			case "binary_big_endian":
				order = binary.BigEndian
			default:
				return nil, nil, fmt.Errorf("unknown format %q", fields[1])
			}
			haveFormat = true
		case "element":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("malformed element line")
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, nil, fmt.Errorf("bad element count %q", fields[2])
			}
			elems = append(elems, &plyElement{name: fields[1], count: n})
		case "property":
			if len(elems) == 0 {
				return nil, nil, fmt.Errorf("property before element")
			}
			el := elems[len(elems)-1]
			switch {
			case len(fields) == 5 && fields[1] == "list":
				el.props = append(el.props, plyProperty{name: fields[4], typ: fields[3], list: true, countType: fields[2]})
			case len(fields) == 3:
				el.props = append(el.props, plyProperty{name: fields[2], typ: fields[1]})
			default:
				return nil, nil, fmt.Errorf("malformed property line")
			}
		case "end_header":
			if !haveFormat {
				return nil, nil, fmt.Errorf("missing format line")
			}
			return elems, order, nil
		}
	}
}

func readPLYVertexes(vr *plyValueReader, el *plyElement, m *Mesh) error {
	col := map[string]int{}
	for i, p := range el.props {
		col[p.name] = i
	}
	for _, c := range []string{"x", "y", "z"} {
		if _, ok := col[c]; !ok {
			return fmt.Errorf("vertex element lacks %q", c)
		}
	}
	uCol, vCol := -1, -1
	for _, names := range [][2]string{{"u", "v"}, {"s", "t"}, {"texture_u", "texture_v"}, {"texture_s", "texture_t"}} {
		u, okU := col[names[0]]
		v, okV := col[names[1]]
		if okU && okV {
			uCol, vCol = u, v
			break
		}
	}

	vals := make([]float64, len(el.props))
	for i := 0; i < el.count; i++ {
		for j, p := range el.props {
			if p.list {
				if err := vr.skipList(p); err != nil {
					return fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			x, err := vr.value(p.typ)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			vals[j] = x
		}
		m.Verts = append(m.Verts, r3.Vec{X: vals[col["x"]], Y: vals[col["y"]], Z: vals[col["z"]]})
		if uCol >= 0 {
			m.UV = append(m.UV, [2]float64{vals[uCol], vals[vCol]})
		}
		vr.endRecord()
	}
	return nil
}

func readPLYFaces(vr *plyValueReader, el *plyElement, m *Mesh) error {
	for i := 0; i < el.count; i++ {
		found := false
		for _, p := range el.props {
			if !p.list || (p.name != "vertex_indices" && p.name != "vertex_index") {
				if p.list {
					if err := vr.skipList(p); err != nil {
						return fmt.Errorf("face %d: %w", i, err)
					}
				} else if _, err := vr.value(p.typ); err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				continue
			}
			n, err := vr.count(p)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			if n < 3 {
				return fmt.Errorf("face %d: %d vertexes", i, n)
			}
			idx := make([]int, n)
			for k := range idx {
				x, err := vr.value(p.typ)
				if err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
					return fmt.Errorf("face %d: bad vertex index %v", i, x)
				}
				idx[k] = int(x)
			}
			for k := 1; k+1 < len(idx); k++ {
				m.Faces = append(m.Faces, [3]int{idx[0], idx[k], idx[k+1]})
			}
			found = true
		}
		if !found {
			return fmt.Errorf("face element lacks vertex_indices")
		}
		vr.endRecord()
	}
	return nil
}

func (vr *plyValueReader) skipRecord(el *plyElement) error {
	if vr.order == nil {
		_, err := vr.r.ReadString('\n')
		return err
	}
	for _, p := range el.props {
		if p.list {
			if err := vr.skipList(p); err != nil {
				return err
			}
		} else if _, err := vr.value(p.typ); err != nil {
			return err
		}
	}
	return nil
}

func (vr *plyValueReader) skipList(p plyProperty) error {
	n, err := vr.count(p)
	if err != nil {
		return err
	}
	for k := 0; k < n; k++ {
		if _, err := vr.value(p.typ); err != nil {
			return err
		}
	}
	return nil
}

// maxPLYList bounds the length of a single list property.
const maxPLYList = 1 << 20

// count reads the length of list property p.
func (vr *plyValueReader) count(p plyProperty) (int, error) {
	x, err := vr.value(p.countType)
	if err != nil {
		return 0, err
	}
	if x != math.Trunc(x) || x < 0 || x > maxPLYList {
		return 0, fmt.Errorf("bad %s list length %v", p.name, x)
	}
	return int(x), nil
}

// endRecord discards whatever is left of the current ASCII line.
func (vr *plyValueReader) endRecord() {
	vr.fields = nil
}

func (vr *plyValueReader) value(typ string) (float64, error) {
	if vr.order == nil {
		for len(vr.fields) == 0 {
			line, err := vr.r.ReadString('\n')
			vr.fields = strings.Fields(line)
			if err != nil && len(vr.fields) == 0 {
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				return 0, err
			}
		}
		s := vr.fields[0]
		vr.fields = vr.fields[1:]
		return strconv.ParseFloat(s, 64)
	}

	var buf [8]byte
	size := plyTypeSize(typ)
	if size == 0 {
		return 0, fmt.Errorf("unknown property type %q", typ)
	}
	if _, err := io.ReadFull(vr.r, buf[:size]); err != nil {
		return 0, err
	}
	b := buf[:size]
	switch typ {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(vr.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(vr.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(vr.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(vr.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(vr.order.Uint32(b))), nil
	default: // double, float64
		return math.Float64frombits(vr.order.Uint64(b)), nil
	}
}

func plyTypeSize(typ string) int {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}
