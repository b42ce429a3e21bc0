package compose

import "math"

// PointerKind distinguishes the four pointer event kinds the platform
// layer produces (spec §6).
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerCancel
)

// PointerEvent is the platform-supplied input the shell feeds into
// Dispatch (spec §6 "PointerEvent").
type PointerEvent struct {
	Kind           PointerKind
	PointerId      int
	Buttons        uint8
	Position       Vec2
	GlobalPosition Vec2
	TimestampNs    int64
}

// ViewportChange is the platform-supplied viewport/density notification
// (spec §6).
type ViewportChange struct {
	Width, Height   float64
	Density         float64
	LayoutDirection LayoutDirection
}

// LayoutDirection distinguishes left-to-right from right-to-left content
// flow, consumed by direction-sensitive layout modifiers.
type LayoutDirection int

const (
	LayoutLTR LayoutDirection = iota
	LayoutRTL
)

// PointerInputModifierNode is the capability-CapPointerInput half of
// ModifierNode. OnPointerEvent returns whether the event was consumed —
// consumption stops iteration across this target's remaining handlers and
// across the rest of the hit path (spec §4.9).
type PointerInputModifierNode interface {
	ModifierNode
	OnPointerEvent(ctx *PointerDispatchContext, event PointerEvent) (consumed bool)
}

// PointerDispatchContext is handed to each PointerInputModifierNode during
// dispatch.
type PointerDispatchContext struct {
	Dispatcher   *InputDispatcher
	TargetNodeId NodeId
}

// ScrollGestureState gates a scroll gesture behind a cumulative-movement
// threshold before consuming events (spec §4.9 "drag threshold", §8 S3).
type ScrollGestureState struct {
	Active            bool
	Scrolling         bool
	StartPosition     Vec2
	LastPosition      Vec2
	AccumulatedOffset float64
}

// Begin resets the state for a fresh Down at pos.
func (s *ScrollGestureState) Begin(pos Vec2) {
	*s = ScrollGestureState{Active: true, StartPosition: pos, LastPosition: pos}
}

// Update folds in a new pointer position, crossing into Scrolling once
// cumulative movement from StartPosition exceeds threshold. Returns the
// vertical delta since the last Update call (0 before the threshold is
// crossed).
func (s *ScrollGestureState) Update(pos Vec2, threshold float64) float64 {
	dy := pos.Y - s.LastPosition.Y
	s.LastPosition = pos
	if !s.Scrolling {
		total := math.Hypot(pos.X-s.StartPosition.X, pos.Y-s.StartPosition.Y)
		if total <= threshold {
			return 0
		}
		s.Scrolling = true
	}
	s.AccumulatedOffset += dy
	return dy
}

// Reset clears the gesture back to idle (Up/Cancel).
func (s *ScrollGestureState) Reset() { *s = ScrollGestureState{} }

// HitPathTracker caches the ordered NodeId list struck on Down, per
// pointer id, until Up/Cancel clears it (spec §4.9 "hit-path tracker").
type HitPathTracker struct {
	paths map[int][]NodeId
}

// NewHitPathTracker creates an empty tracker.
func NewHitPathTracker() *HitPathTracker { return &HitPathTracker{paths: make(map[int][]NodeId)} }

// Path returns the cached path for pointerId, if a gesture is active.
func (t *HitPathTracker) Path(pointerId int) ([]NodeId, bool) {
	p, ok := t.paths[pointerId]
	return p, ok
}

// SetPath caches path for pointerId (called on Down).
func (t *HitPathTracker) SetPath(pointerId int, path []NodeId) { t.paths[pointerId] = path }

// Clear drops pointerId's cached path (called on Up/Cancel).
func (t *HitPathTracker) Clear(pointerId int) { delete(t.paths, pointerId) }

// velocitySample is one (position, time) observation in a VelocityTracker's
// ring.
type velocitySample struct {
	pos Vec2
	t   int64 // nanoseconds
}

// VelocityStrategy computes a velocity estimate from a window of samples.
// Pluggable per the original implementation's strategy enum, supplementing
// spec.md §4.9's single weighted-least-squares requirement with a
// swappable interface (SPEC_FULL §C).
type VelocityStrategy interface {
	Compute(samples []velocitySample, nowNs int64) (vx, vy float64)
}

// LeastSquaresVelocityStrategy fits a weighted linear regression of
// position against time per axis, with exponential recency weighting —
// the default, and the one spec.md §4.9 specifies directly.
type LeastSquaresVelocityStrategy struct {
	// HalfLifeSeconds controls how fast older samples are down-weighted;
	// zero defaults to 100ms.
	HalfLifeSeconds float64
}

func (s LeastSquaresVelocityStrategy) Compute(samples []velocitySample, nowNs int64) (vx, vy float64) {
	if len(samples) < 2 {
		return 0, 0
	}
	halfLife := s.HalfLifeSeconds
	if halfLife <= 0 {
		halfLife = 0.1
	}
	var sw, swt, swtt, swx, swtx, swy, swty float64
	for _, smp := range samples {
		ageSec := float64(nowNs-smp.t) / 1e9
		w := math.Exp2(-ageSec / halfLife)
		t := float64(smp.t) / 1e9
		sw += w
		swt += w * t
		swtt += w * t * t
		swx += w * smp.pos.X
		swtx += w * t * smp.pos.X
		swy += w * smp.pos.Y
		swty += w * t * smp.pos.Y
	}
	denom := sw*swtt - swt*swt
	if denom == 0 {
		return 0, 0
	}
	vx = (sw*swtx - swt*swx) / denom
	vy = (sw*swty - swt*swy) / denom
	return vx, vy
}

// ImpulseVelocityStrategy estimates velocity from the net displacement
// between the oldest and newest sample in the window divided by elapsed
// time — a simpler alternative useful where a regression fit is harder to
// reason about deterministically.
type ImpulseVelocityStrategy struct{}

func (ImpulseVelocityStrategy) Compute(samples []velocitySample, nowNs int64) (vx, vy float64) {
	if len(samples) < 2 {
		return 0, 0
	}
	first, last := samples[0], samples[len(samples)-1]
	dt := float64(last.t-first.t) / 1e9
	if dt <= 0 {
		return 0, 0
	}
	return (last.pos.X - first.pos.X) / dt, (last.pos.Y - first.pos.Y) / dt
}

// VelocityTracker keeps a bounded ring of recent timestamped positions for
// one pointer and reports velocity via a pluggable VelocityStrategy (spec
// §4.9: "a bounded ring of timestamped positions ... horizon of ~100ms").
type VelocityTracker struct {
	samples   []velocitySample
	strategy  VelocityStrategy
	horizonNs int64
}

// NewVelocityTracker creates a tracker with a 100ms horizon. A nil
// strategy defaults to LeastSquaresVelocityStrategy.
func NewVelocityTracker(strategy VelocityStrategy) *VelocityTracker {
	if strategy == nil {
		strategy = LeastSquaresVelocityStrategy{}
	}
	return &VelocityTracker{strategy: strategy, horizonNs: 100_000_000}
}

// Reset drops all samples (called on a fresh Down).
func (v *VelocityTracker) Reset() { v.samples = v.samples[:0] }

// AddSample folds in a new observation, evicting anything older than the
// horizon relative to t.
func (v *VelocityTracker) AddSample(pos Vec2, t int64) {
	v.samples = append(v.samples, velocitySample{pos: pos, t: t})
	cutoff := t - v.horizonNs
	i := 0
	for i < len(v.samples) && v.samples[i].t < cutoff {
		i++
	}
	v.samples = v.samples[i:]
}

// Velocity reports the current estimate. If the total movement across the
// retained window is under 2 logical units, it reports exactly zero (spec
// §8 invariant 7).
func (v *VelocityTracker) Velocity() (vx, vy float64) {
	if len(v.samples) < 2 {
		return 0, 0
	}
	first, last := v.samples[0], v.samples[len(v.samples)-1]
	if math.Hypot(last.pos.X-first.pos.X, last.pos.Y-first.pos.Y) < 2 {
		return 0, 0
	}
	return v.strategy.Compute(v.samples, last.t)
}

// InputDispatcher routes PointerEvents against the current Scene's hit
// regions, maintaining per-pointer hit paths and velocity trackers (spec
// §4.9).
type InputDispatcher struct {
	tree     *LayoutTree
	scene    *Scene
	hitPaths *HitPathTracker
	velocity map[int]*VelocityTracker

	// OnHitPathStale, if set, is notified whenever a cached NodeId no
	// longer resolves to a live node mid-gesture (spec §7 HitPathStale —
	// benign, the specific handler is skipped and the rest of the path
	// still fires).
	OnHitPathStale func(pointerId int, id NodeId)
}

// NewInputDispatcher creates a dispatcher bound to tree. SetScene must be
// called with each frame's freshly built Scene before Dispatch.
func NewInputDispatcher(tree *LayoutTree) *InputDispatcher {
	return &InputDispatcher{tree: tree, hitPaths: NewHitPathTracker(), velocity: make(map[int]*VelocityTracker)}
}

// SetScene installs the scene Dispatch hit-tests and resolves cached paths
// against.
func (d *InputDispatcher) SetScene(scene *Scene) { d.scene = scene }

func (d *InputDispatcher) velocityTracker(pointerId int) *VelocityTracker {
	vt, ok := d.velocity[pointerId]
	if !ok {
		vt = NewVelocityTracker(nil)
		d.velocity[pointerId] = vt
	}
	return vt
}

// Velocity reports pointerId's current velocity estimate.
func (d *InputDispatcher) Velocity(pointerId int) (vx, vy float64) {
	return d.velocityTracker(pointerId).Velocity()
}

// Dispatch routes one event per spec §4.9's dispatch semantics: during an
// active gesture, events route only along the cached hit path; otherwise
// Move does a fresh hit test (hover); Cancel delivers to the whole cached
// path in order and then clears it.
func (d *InputDispatcher) Dispatch(event PointerEvent) {
	if event.Kind == PointerMove || event.Kind == PointerDown {
		d.velocityTracker(event.PointerId).AddSample(event.Position, event.TimestampNs)
	}

	switch event.Kind {
	case PointerDown:
		d.velocityTracker(event.PointerId).Reset()
		d.velocityTracker(event.PointerId).AddSample(event.Position, event.TimestampNs)
		ids := d.freshHitIds(event.Position)
		d.hitPaths.SetPath(event.PointerId, ids)
		d.deliverAlongPath(event.PointerId, ids, event)

	case PointerMove:
		if path, ok := d.hitPaths.Path(event.PointerId); ok {
			d.deliverAlongPath(event.PointerId, path, event)
		} else {
			d.deliverAlongPath(event.PointerId, d.freshHitIds(event.Position), event)
		}

	case PointerUp:
		if path, ok := d.hitPaths.Path(event.PointerId); ok {
			d.deliverAlongPath(event.PointerId, path, event)
			d.hitPaths.Clear(event.PointerId)
		}

	case PointerCancel:
		if path, ok := d.hitPaths.Path(event.PointerId); ok {
			d.deliverAlongPath(event.PointerId, path, event)
			d.hitPaths.Clear(event.PointerId)
		}
	}
}

func (d *InputDispatcher) freshHitIds(pos Vec2) []NodeId {
	if d.scene == nil {
		return nil
	}
	hits := d.scene.HitTest(pos.X, pos.Y)
	ids := make([]NodeId, len(hits))
	for i, h := range hits {
		ids[i] = h.NodeId
	}
	return ids
}

func (d *InputDispatcher) deliverAlongPath(pointerId int, path []NodeId, event PointerEvent) {
	for _, id := range path {
		node := d.tree.Node(id)
		if node == nil {
			if d.OnHitPathStale != nil {
				d.OnHitPathStale(pointerId, id)
			}
			continue
		}
		consumed := false
		node.chain.ForEachForwardMatching(CapPointerInput, func(mn ModifierNode, _ Capability) {
			if consumed {
				return
			}
			if p, ok := mn.(PointerInputModifierNode); ok {
				ctx := &PointerDispatchContext{Dispatcher: d, TargetNodeId: id}
				if p.OnPointerEvent(ctx, event) {
					consumed = true
				}
			}
		})
		if consumed {
			break
		}
	}
}
