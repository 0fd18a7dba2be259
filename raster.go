package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r3"
)

// frameBuffer holds the rendering target as flat slices.
type frameBuffer struct {
	size  int
	color []uint8   // RGBA interleaved
	zbuf  []float64 // Larger is closer
}

func newFrameBuffer(size int, bg color.NRGBA) *frameBuffer {
	n := size * size
	fb := &frameBuffer{size: size, color: make([]uint8, 4*n), zbuf: make([]float64, n)}
	for i := range fb.zbuf {
		fb.zbuf[i] = math.Inf(-1)
		fb.color[4*i], fb.color[4*i+1], fb.color[4*i+2], fb.color[4*i+3] = bg.R, bg.G, bg.B, bg.A
	}
	return fb
}

var (
	viewBackground = color.NRGBA{R: 26, G: 26, B: 30, A: 255}
	viewLight      = r3.Unit(r3.Vec{X: 0.3, Y: 0.5, Z: 1})
)

// viewRotation orients the model for display: a yaw of 30° about Z
// followed by a pitch of 60° about X, leaving the camera looking down
// -Z at a model whose Z axis tilts toward the viewer.
func viewRotation(p r3.Vec) r3.Vec {
	const yaw, pitch = 30 * math.Pi / 180, -60 * math.Pi / 180
	sy, cy := math.Sincos(yaw)
	p = r3.Vec{X: cy*p.X - sy*p.Y, Y: sy*p.X + cy*p.Y, Z: p.Z}
	sp, cp := math.Sincos(pitch)
	return r3.Vec{X: p.X, Y: cp*p.Y - sp*p.Z, Z: sp*p.Y + cp*p.Z}
}

// RenderView rasterizes b orthographically into a size×size image. The
// image is rendered at size*supersample and downsampled.
func RenderView(b *ViewBundle, size, supersample int) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	rs := size * supersample

	// Project vertexes and fit them to the frame.
	proj := make([]r3.Vec, len(b.Verts))
	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i, v := range b.Verts {
		p := viewRotation(v)
		proj[i] = p
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	center := r3.Scale(0.5, r3.Add(lo, hi))
	span := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	if span < 1e-12 {
		span = 1
	}
	margin := float64(16 * supersample)
	scale := (float64(rs) - 2*margin) / span
	toScreen := func(p r3.Vec) r3.Vec {
		return r3.Vec{
			X: float64(rs)/2 + (p.X-center.X)*scale,
			Y: float64(rs)/2 - (p.Y-center.Y)*scale,
			Z: (p.Z - center.Z) * scale,
		}
	}
	screen := make([]r3.Vec, len(proj))
	for i, p := range proj {
		screen[i] = toScreen(p)
	}

	fb := newFrameBuffer(rs, viewBackground)
	for _, tri := range b.Faces {
		// Shade by the view-space face normal. Faces are lit from both
		// sides so open meshes and inconsistent windings still read.
		n := r3.Cross(r3.Sub(proj[tri[1]], proj[tri[0]]), r3.Sub(proj[tri[2]], proj[tri[0]]))
		if r3.Norm2(n) == 0 {
			continue
		}
		shade := 0.35 + 0.65*math.Abs(r3.Dot(r3.Unit(n), viewLight))
		fb.triangle(
			[3]r3.Vec{screen[tri[0]], screen[tri[1]], screen[tri[2]]},
			[3]color.NRGBA{b.Colors[tri[0]], b.Colors[tri[1]], b.Colors[tri[2]]},
			shade)
	}
	// Segments sit on the surface, so bias them toward the viewer to
	// keep them from z-fighting with it.
	bias := float64(supersample)
	for _, s := range b.Segments {
		fb.line(toScreen(viewRotation(s.A)), toScreen(viewRotation(s.B)), s.Color, bias)
	}

	img := image.NewNRGBA(image.Rect(0, 0, rs, rs))
	copy(img.Pix, fb.color)
	if supersample == 1 {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// triangle rasterizes a triangle with per-vertex colors interpolated
// across it and a constant shade factor.
func (fb *frameBuffer) triangle(p [3]r3.Vec, c [3]color.NRGBA, shade float64) {
	minX := int(math.Max(0, math.Floor(math.Min(p[0].X, math.Min(p[1].X, p[2].X)))))
	maxX := int(math.Min(float64(fb.size-1), math.Ceil(math.Max(p[0].X, math.Max(p[1].X, p[2].X)))))
	minY := int(math.Max(0, math.Floor(math.Min(p[0].Y, math.Min(p[1].Y, p[2].Y)))))
	maxY := int(math.Min(float64(fb.size-1), math.Ceil(math.Max(p[0].Y, math.Max(p[1].Y, p[2].Y)))))
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (p[1].Y-p[2].Y)*(p[0].X-p[2].X) + (p[2].X-p[1].X)*(p[0].Y-p[2].Y)
	if math.Abs(det) < 1e-12 {
		return
	}
	invDet := 1 / det
	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - p[2].Y
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - p[2].X
			w0 := ((p[1].Y-p[2].Y)*dsx + (p[2].X-p[1].X)*dsy) * invDet
			w1 := ((p[2].Y-p[0].Y)*dsx + (p[0].X-p[2].X)*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*p[0].Z + w1*p[1].Z + w2*p[2].Z
			idx := sy*fb.size + sx
			if z <= fb.zbuf[idx] {
				continue
			}
			fb.zbuf[idx] = z
			px := fb.color[4*idx : 4*idx+4]
			px[0] = clamp255(shade * (w0*float64(c[0].R) + w1*float64(c[1].R) + w2*float64(c[2].R)))
			px[1] = clamp255(shade * (w0*float64(c[0].G) + w1*float64(c[1].G) + w2*float64(c[2].G)))
			px[2] = clamp255(shade * (w0*float64(c[0].B) + w1*float64(c[1].B) + w2*float64(c[2].B)))
			px[3] = 255
		}
	}
}

// line draws a depth-tested line from a to b.
func (fb *frameBuffer) line(a, b r3.Vec, c color.NRGBA, bias float64) {
	d := r3.Sub(b, a)
	steps := int(math.Ceil(math.Max(math.Abs(d.X), math.Abs(d.Y))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		p := r3.Add(a, r3.Scale(float64(i)/float64(steps), d))
		sx, sy := int(math.Floor(p.X)), int(math.Floor(p.Y))
		if sx < 0 || sy < 0 || sx >= fb.size || sy >= fb.size {
			continue
		}
		idx := sy*fb.size + sx
		if p.Z+bias < fb.zbuf[idx] {
			continue
		}
		fb.color[4*idx], fb.color[4*idx+1], fb.color[4*idx+2], fb.color[4*idx+3] = c.R, c.G, c.B, c.A
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// WriteImage encodes img to path as PNG, WebP or TGA, according to the
// extension.
func WriteImage(path string, img image.Image) error {
	var encode func(*os.File) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".webp":
		encode = func(f *os.File) error { return nativewebp.Encode(f, img, nil) }
	case ".tga":
		encode = func(f *os.File) error { return tga.Encode(f, img) }
	default:
		return fmt.Errorf("%s: unsupported image format %q", path, ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
