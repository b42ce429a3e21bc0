package render

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// GraphicsLayerAnimator drives a graphics_layer modifier's alpha/scale/
// rotation through a tween, the same four-tween grouping pattern the
// teacher's animation.go TweenGroup uses for node transforms. A caller
// typically remembers one of these per animating node and calls Update
// once per tick, feeding Alpha()/ScaleX()/ScaleY()/Rotation() back into the
// GraphicsLayerElement it rebuilds that frame.
type GraphicsLayerAnimator struct {
	alpha, scaleX, scaleY, rotation *gween.Tween

	curAlpha, curScaleX, curScaleY, curRotation float32
	active                                      bool
}

// AnimateAlpha starts a tween from the animator's current alpha to to over
// duration seconds.
func (a *GraphicsLayerAnimator) AnimateAlpha(to float64, duration float32, fn ease.TweenFunc) {
	a.alpha = gween.New(a.curAlpha, float32(to), duration, fn)
	a.active = true
}

// AnimateScale starts a tween from the animator's current scale to
// (toX, toY) over duration seconds.
func (a *GraphicsLayerAnimator) AnimateScale(toX, toY float64, duration float32, fn ease.TweenFunc) {
	a.scaleX = gween.New(a.curScaleX, float32(toX), duration, fn)
	a.scaleY = gween.New(a.curScaleY, float32(toY), duration, fn)
	a.active = true
}

// AnimateRotation starts a tween from the animator's current rotation (in
// radians) to to over duration seconds.
func (a *GraphicsLayerAnimator) AnimateRotation(to float64, duration float32, fn ease.TweenFunc) {
	a.rotation = gween.New(a.curRotation, float32(to), duration, fn)
	a.active = true
}

// Update advances every in-flight tween by dt seconds. It reports whether
// any tween is still running, which a caller should OR into the Scene's
// HasActiveAnimations flag it reports back to the shell (spec §6
// "has_active_animations").
func (a *GraphicsLayerAnimator) Update(dt float32) (stillAnimating bool) {
	advance := func(t *gween.Tween, cur *float32) *gween.Tween {
		if t == nil {
			return nil
		}
		val, finished := t.Update(dt)
		*cur = val
		if finished {
			return nil
		}
		stillAnimating = true
		return t
	}
	a.alpha = advance(a.alpha, &a.curAlpha)
	a.scaleX = advance(a.scaleX, &a.curScaleX)
	a.scaleY = advance(a.scaleY, &a.curScaleY)
	a.rotation = advance(a.rotation, &a.curRotation)
	a.active = stillAnimating
	return stillAnimating
}

// Active reports whether a tween is in flight: one started since the last
// Update, or one the last Update left unfinished.
func (a *GraphicsLayerAnimator) Active() bool { return a.active }

func (a *GraphicsLayerAnimator) Alpha() float64    { return float64(a.curAlpha) }
func (a *GraphicsLayerAnimator) ScaleX() float64    { return float64(a.curScaleX) }
func (a *GraphicsLayerAnimator) ScaleY() float64    { return float64(a.curScaleY) }
func (a *GraphicsLayerAnimator) Rotation() float64  { return float64(a.curRotation) }

// NewGraphicsLayerAnimator creates an animator starting at full opacity,
// unit scale, and zero rotation.
func NewGraphicsLayerAnimator() *GraphicsLayerAnimator {
	return &GraphicsLayerAnimator{curAlpha: 1, curScaleX: 1, curScaleY: 1}
}
