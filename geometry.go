package compose

// Color is a non-premultiplied RGBA color with components in [0, 1].
// Premultiplication, if the renderer needs it, happens at submission time
// in the renderer, not here.
type Color struct {
	R, G, B, A float64
}

// ColorTransparent is the zero value: fully transparent black.
var ColorTransparent = Color{}

// Vec2 is a 2D vector used for offsets, sizes, and directions.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in the coordinate system used
// throughout the pipeline: origin top-left, Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside r, with edges counted as
// inside (spec §8 boundary behavior: "a click exactly on the edge of a
// clip rect is a hit; one pixel outside is not").
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap, with edge-sharing
// counted as intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width && r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height && r.Y+r.Height >= other.Y
}

// Intersection returns the overlapping region of r and other, and whether
// one exists. Only rects that do not touch report ok=false; rects that
// share just an edge give a zero-size rect with ok=true.
func (r Rect) Intersection(other Rect) (Rect, bool) {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.X+r.Width, other.X+other.Width)
	y1 := min(r.Y+r.Height, other.Y+other.Height)
	if x1 < x0 || y1 < y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// Translate returns r offset by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// RoundedCorners holds per-corner radii for a rounded rectangle. The zero
// value is square corners. Spec §9 open question: Scene.HitTest checks
// RoundedCorners.Contains for every hit region whose radii are non-zero,
// so a point in a rounded-off corner is not a hit.
type RoundedCorners struct {
	TopLeft, TopRight, BottomRight, BottomLeft float64
}

// IsZero reports whether every radius is zero (a plain rectangle).
func (c RoundedCorners) IsZero() bool {
	return c.TopLeft == 0 && c.TopRight == 0 && c.BottomRight == 0 && c.BottomLeft == 0
}

// Contains reports whether (x, y), given in rect-local coordinates, lies
// inside rect's rounded-rectangle shape. Optional per spec §9; callers that
// only need the AABB test can skip calling this.
func (c RoundedCorners) Contains(rect Rect, x, y float64) bool {
	lx, ly := x-rect.X, y-rect.Y
	var r float64
	switch {
	case lx < c.TopLeft && ly < c.TopLeft:
		r = c.TopLeft
		return inCornerCircle(lx, ly, r, r, r)
	case lx > rect.Width-c.TopRight && ly < c.TopRight:
		r = c.TopRight
		return inCornerCircle(lx, ly, rect.Width-r, r, r)
	case lx > rect.Width-c.BottomRight && ly > rect.Height-c.BottomRight:
		r = c.BottomRight
		return inCornerCircle(lx, ly, rect.Width-r, rect.Height-r, r)
	case lx < c.BottomLeft && ly > rect.Height-c.BottomLeft:
		r = c.BottomLeft
		return inCornerCircle(lx, ly, r, rect.Height-r, r)
	}
	return true
}

func inCornerCircle(x, y, cx, cy, r float64) bool {
	if r == 0 {
		return true
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

// BrushKind distinguishes the fill styles a ShapeRecord can carry.
type BrushKind uint8

const (
	BrushSolid BrushKind = iota
	BrushLinearGradient
	BrushRadialGradient
)

// GradientStop is one color stop of a gradient brush.
type GradientStop struct {
	Offset float64 // in [0, 1]
	Color  Color
}

// Brush describes how a shape or glyph run is filled (spec §6: "shapes
// carry brush (solid / linear gradient / radial gradient)").
type Brush struct {
	Kind  BrushKind
	Solid Color

	// Gradient fields, valid when Kind != BrushSolid.
	Stops            []GradientStop
	Start, End       Vec2 // linear: endpoints (radial brushes use RadialCenter and RadialRadius)
	RadialCenter     Vec2
	RadialRadius     float64
}

// SolidBrush is a convenience constructor for the common case.
func SolidBrush(c Color) Brush { return Brush{Kind: BrushSolid, Solid: c} }
