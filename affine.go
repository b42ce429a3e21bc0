package compose

import "math"

// AffineTransform is a 2D affine matrix [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
//
// Used to compose the graphics_layer modifier's scale/rotation/translation into
// the running parent-to-local transform that both the paint pass and hit
// testing share, so a hit test always agrees with what was painted (spec
// §4.8 "transforms apply to both visual and hit rects, so hit testing
// remains consistent"). The composition math mirrors the scene-graph
// transform pipeline this runtime's paint/input stages are adapted from.
type AffineTransform [6]float64

// IdentityTransform is the identity affine matrix.
var IdentityTransform = AffineTransform{1, 0, 0, 1, 0, 0}

// GraphicsLayerTransform computes the local affine matrix for a
// graphics_layer modifier's scale/translation/rotation parameters,
// composed around the given pivot.
func GraphicsLayerTransform(scaleX, scaleY, rotation, translateX, translateY, pivotX, pivotY float64) AffineTransform {
	sin, cos := math.Sincos(rotation)

	a := scaleX
	d := scaleY

	preTx := -pivotX * scaleX
	preTy := -pivotY * scaleY

	ra := cos*a - sin*0
	rb := sin*a + cos*0
	rc := cos*0 - sin*d
	rd := sin*0 + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	return AffineTransform{ra, rb, rc, rd, rtx + translateX + pivotX, rty + translateY + pivotY}
}

// Multiply composes p then c (result = p * c — c is applied in p's space,
// matching child-into-parent composition during a coordinator walk).
func (p AffineTransform) Multiply(c AffineTransform) AffineTransform {
	return AffineTransform{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Translate returns p composed with a translation by (dx, dy) applied
// first, in p's local space (p.Multiply(T)): a point is offset by (dx, dy)
// and then mapped through p.
func (p AffineTransform) Translate(dx, dy float64) AffineTransform {
	return p.Multiply(AffineTransform{1, 0, 0, 1, dx, dy})
}

// Invert returns the inverse of m, or IdentityTransform if m is singular.
func (m AffineTransform) Invert() AffineTransform {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return AffineTransform{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms the point (x, y) by m.
func (m AffineTransform) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyRect transforms rect's four corners by m and returns their axis-
// aligned bounding box — the "transformed bounds" spec §4.8 uses for clip
// intersection and hit rects under rotation/scale.
func (m AffineTransform) ApplyRect(r Rect) Rect {
	corners := [4][2]float64{
		{r.X, r.Y}, {r.X + r.Width, r.Y},
		{r.X, r.Y + r.Height}, {r.X + r.Width, r.Y + r.Height},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x, y := m.Apply(c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
