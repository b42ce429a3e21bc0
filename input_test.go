package compose

import "testing"

func TestScrollGestureStateThreshold(t *testing.T) {
	var g ScrollGestureState
	g.Begin(Vec2{X: 0, Y: 0})

	if dy := g.Update(Vec2{X: 0, Y: 2}, 8); dy != 0 || g.Scrolling {
		t.Fatalf("expected no scroll before threshold crossed, got dy=%v scrolling=%v", dy, g.Scrolling)
	}
	if dy := g.Update(Vec2{X: 0, Y: 10}, 8); dy == 0 || !g.Scrolling {
		t.Fatalf("expected scroll to begin once threshold crossed, got dy=%v scrolling=%v", dy, g.Scrolling)
	}

	g.Reset()
	if g.Active || g.Scrolling {
		t.Fatal("expected Reset to clear gesture state")
	}
}

func TestHitPathTrackerLifecycle(t *testing.T) {
	tracker := NewHitPathTracker()
	if _, ok := tracker.Path(1); ok {
		t.Fatal("expected no path before SetPath")
	}

	want := []NodeId{3, 2, 1}
	tracker.SetPath(1, want)
	got, ok := tracker.Path(1)
	if !ok || len(got) != len(want) {
		t.Fatalf("expected cached path %v, got %v (ok=%v)", want, got, ok)
	}

	tracker.Clear(1)
	if _, ok := tracker.Path(1); ok {
		t.Fatal("expected Clear to drop the cached path")
	}
}

func TestVelocityTrackerZeroBelowThreshold(t *testing.T) {
	vt := NewVelocityTracker(nil)
	vt.AddSample(Vec2{X: 0, Y: 0}, 0)
	vt.AddSample(Vec2{X: 1, Y: 0}, 10_000_000)
	if vx, vy := vt.Velocity(); vx != 0 || vy != 0 {
		t.Fatalf("expected zero velocity under the 2-unit movement threshold, got (%v, %v)", vx, vy)
	}
}

func TestVelocityTrackerLeastSquaresDirection(t *testing.T) {
	vt := NewVelocityTracker(LeastSquaresVelocityStrategy{})
	const step int64 = 16_000_000
	for i := 0; i < 6; i++ {
		vt.AddSample(Vec2{X: float64(i) * 20, Y: 0}, int64(i)*step)
	}
	vx, vy := vt.Velocity()
	if vx <= 0 {
		t.Fatalf("expected positive x velocity for rightward movement, got %v", vx)
	}
	if vy != 0 {
		t.Fatalf("expected zero y velocity for purely horizontal movement, got %v", vy)
	}
}

func TestVelocityTrackerImpulseStrategy(t *testing.T) {
	vt := NewVelocityTracker(ImpulseVelocityStrategy{})
	vt.AddSample(Vec2{X: 0, Y: 0}, 0)
	vt.AddSample(Vec2{X: 50, Y: 0}, 50_000_000)
	vx, _ := vt.Velocity()
	if vx <= 0 {
		t.Fatalf("expected positive impulse velocity, got %v", vx)
	}
}

func TestVelocityTrackerHorizonEviction(t *testing.T) {
	vt := NewVelocityTracker(nil)
	vt.AddSample(Vec2{X: 0, Y: 0}, 0)
	vt.AddSample(Vec2{X: 100, Y: 0}, 200_000_000)
	vx, _ := vt.Velocity()
	if vx != 0 {
		t.Fatalf("expected the stale first sample to be evicted leaving a single sample (zero velocity), got %v", vx)
	}
}

func TestInputDispatcherDeliversAlongCachedPath(t *testing.T) {
	table := NewSlotTable()
	rec := NewRecomposer()
	comp := NewComposer(table, rec)
	tree := NewLayoutTree(&MeasureContext{Density: 1})

	var downCount, upCount int
	rec.ComposeInitial(comp, NewKey("root"), func(c *Composer) {
		c.RestartableScope(NewKey("clickable"), func(c *Composer) {
			id := EmitNode(c, tree.Applier(), func() *LayoutNode {
				return tree.Node(tree.NewNode(fixedNodeMeasurePolicy{w: 50, h: 50}))
			}, func(n *LayoutNode) {})
			tree.SetRoot(id)
			if n := tree.Node(id); n != nil {
				n.UpdateModifiers([]ModifierElement{
					testPointerCounterElement{onDown: func() { downCount++ }, onUp: func() { upCount++ }},
					ClickableElement{Enabled: true, OnClick: func() {}},
				})
			}
		})
	})
	rec.ProcessInvalidScopes()
	tree.MeasureAndPlace(200, 200)

	input := NewInputDispatcher(tree)
	input.SetScene(BuildScene(tree))

	input.Dispatch(PointerEvent{Kind: PointerDown, PointerId: 0, Position: Vec2{X: 10, Y: 10}})
	input.Dispatch(PointerEvent{Kind: PointerUp, PointerId: 0, Position: Vec2{X: 10, Y: 10}})

	if downCount != 1 || upCount != 1 {
		t.Fatalf("expected exactly one down and one up delivered along the hit path, got down=%d up=%d", downCount, upCount)
	}
	if _, ok := input.hitPaths.Path(0); ok {
		t.Fatal("expected Up to clear the cached hit path")
	}
}

// fixedNodeMeasurePolicy gives a leaf node a constant intrinsic size clamped
// to whatever constraints come down, for tests that only need a real hit
// region rather than a concrete widget.
type fixedNodeMeasurePolicy struct{ w, h float64 }

func (p fixedNodeMeasurePolicy) Measure(ctx *MeasureContext, children []Measurable, c Constraints) MeasureResult {
	w, h := c.Clamp(p.w, p.h)
	return MeasureResult{Width: w, Height: h}
}
func (p fixedNodeMeasurePolicy) MinIntrinsicWidth(*MeasureContext, []IntrinsicMeasurable, float64) float64 {
	return p.w
}
func (p fixedNodeMeasurePolicy) MaxIntrinsicWidth(*MeasureContext, []IntrinsicMeasurable, float64) float64 {
	return p.w
}
func (p fixedNodeMeasurePolicy) MinIntrinsicHeight(*MeasureContext, []IntrinsicMeasurable, float64) float64 {
	return p.h
}
func (p fixedNodeMeasurePolicy) MaxIntrinsicHeight(*MeasureContext, []IntrinsicMeasurable, float64) float64 {
	return p.h
}

// testPointerCounterElement is a minimal PointerInputModifierNode used only
// to observe dispatch order/consumption in tests.
type testPointerCounterElement struct {
	onDown func()
	onUp   func()
}

func (e testPointerCounterElement) ElementTypeID() string    { return "test-pointer-counter" }
func (e testPointerCounterElement) Key() (any, bool)         { return nil, false }
func (e testPointerCounterElement) Hash() uint64             { return 0 }
func (e testPointerCounterElement) Capabilities() Capability { return CapPointerInput }
func (e testPointerCounterElement) CreateNode() ModifierNode {
	return &testPointerCounterNode{elem: e}
}
func (e testPointerCounterElement) UpdateNode(n ModifierNode) {
	if tn, ok := n.(*testPointerCounterNode); ok {
		tn.elem = e
	}
}
func (e testPointerCounterElement) StrongEqual(other ModifierElement) bool {
	_, ok := other.(testPointerCounterElement)
	return ok
}

type testPointerCounterNode struct {
	elem testPointerCounterElement
}

func (n *testPointerCounterNode) OnAttach(ctx *ModifierAttachContext) {}
func (n *testPointerCounterNode) OnDetach()                           {}

func (n *testPointerCounterNode) OnPointerEvent(ctx *PointerDispatchContext, event PointerEvent) bool {
	switch event.Kind {
	case PointerDown:
		if n.elem.onDown != nil {
			n.elem.onDown()
		}
	case PointerUp:
		if n.elem.onUp != nil {
			n.elem.onUp()
		}
	}
	return false
}
