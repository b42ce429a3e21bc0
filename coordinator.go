package compose

import "math"

// Inf is the constraint value standing in for an unbounded dimension
// (spec §8 boundary behavior: "Measuring with max = ∞ on a fill_max_width
// modifier yields the child's intrinsic width, not infinity").
var Inf = math.Inf(1)

// Constraints bounds a measure call's width/height in both directions.
// MaxWidth/MaxHeight may be Inf.
type Constraints struct {
	MinWidth, MaxWidth   float64
	MinHeight, MaxHeight float64
}

// Clamp fits (w, h) within the constraints.
func (c Constraints) Clamp(w, h float64) (float64, float64) {
	return clampF(w, c.MinWidth, c.MaxWidth), clampF(h, c.MinHeight, c.MaxHeight)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HasBoundedWidth/HasBoundedHeight report whether the corresponding max is
// finite — modifiers like fillMaxWidth need to distinguish "fill the
// available space" from "there is no available space to fill".
func (c Constraints) HasBoundedWidth() bool  { return !math.IsInf(c.MaxWidth, 1) }
func (c Constraints) HasBoundedHeight() bool { return !math.IsInf(c.MaxHeight, 1) }

// Placeable is the result of measuring something: its resolved size, and a
// Place callback that positions it in the caller's local coordinate space.
// Calling Place is what actually commits the node's (and its children's)
// final position; Measure alone only resolves size (spec §4.5 invariant:
// "measure must be called before place").
type Placeable struct {
	Width, Height float64
	Place         func(x, y float64)
}

// IntrinsicMeasurable is the read-only intrinsic-sizing half of Measurable,
// usable without committing to an actual measure+place.
type IntrinsicMeasurable interface {
	MinIntrinsicWidth(height float64) float64
	MaxIntrinsicWidth(height float64) float64
	MinIntrinsicHeight(width float64) float64
	MaxIntrinsicHeight(width float64) float64
}

// Measurable is anything a MeasurePolicy can measure and later place: a
// child node's outermost NodeCoordinator, in practice.
type Measurable interface {
	IntrinsicMeasurable
	Measure(c Constraints) Placeable
}

// MeasureContext threads the external collaborators a measure pass may
// need (density conversion, text shaping) without every LayoutModifierNode
// needing its own copy (spec §6 "TextMeasurer ... shared").
type MeasureContext struct {
	Density      float64
	TextMeasurer TextMeasurer
}

// MeasureResult is what a MeasurePolicy or LayoutModifierNode.MeasureModifier
// returns: this node's resolved size plus a closure that positions whatever
// children were measured to produce it. Place closures for children are
// expected to have been captured already (each child's Measurable.Measure
// was called during Measure, yielding a Placeable per child, and Place here
// just invokes those Placeable.Place calls) — mirroring Compose's
// `layout(w, h) { placeable.placeAt(x, y) }` pattern.
type MeasureResult struct {
	Width, Height float64
	Place         func()
}

// MeasurePolicy measures a LayoutNode's children against constraints and
// decides this node's own size (spec §4.6). Concrete policies (a vertical
// stack, a single-child pass-through, a subcompose-driven list) are
// supplied by callers — the core ships no concrete widgets (spec §1).
type MeasurePolicy interface {
	Measure(ctx *MeasureContext, children []Measurable, constraints Constraints) MeasureResult
	MinIntrinsicWidth(ctx *MeasureContext, children []IntrinsicMeasurable, height float64) float64
	MaxIntrinsicWidth(ctx *MeasureContext, children []IntrinsicMeasurable, height float64) float64
	MinIntrinsicHeight(ctx *MeasureContext, children []IntrinsicMeasurable, width float64) float64
	MaxIntrinsicHeight(ctx *MeasureContext, children []IntrinsicMeasurable, width float64) float64
}

// LayoutModifierNode is the capability-CapLayout half of ModifierNode: a
// modifier that participates in measurement by wrapping the next coordinator
// toward the content (padding, size, fillMax*, intrinsic overrides).
type LayoutModifierNode interface {
	ModifierNode
	MeasureModifier(ctx *MeasureContext, inner Measurable, constraints Constraints) Placeable
	IntrinsicMinWidth(ctx *MeasureContext, inner IntrinsicMeasurable, height float64) float64
	IntrinsicMaxWidth(ctx *MeasureContext, inner IntrinsicMeasurable, height float64) float64
	IntrinsicMinHeight(ctx *MeasureContext, inner IntrinsicMeasurable, width float64) float64
	IntrinsicMaxHeight(ctx *MeasureContext, inner IntrinsicMeasurable, width float64) float64
}

// NodeCoordinator is one link of the per-node coordinator chain (spec
// §4.5): modNode == nil marks the InnerCoordinator, which runs the owning
// LayoutNode's MeasurePolicy against its children's outer coordinators.
type NodeCoordinator struct {
	owner   *LayoutNode
	modNode LayoutModifierNode
	inner   *NodeCoordinator

	lastPlaceable Placeable
	measured      bool
}

var _ Measurable = (*NodeCoordinator)(nil)

func (nc *NodeCoordinator) Measure(c Constraints) Placeable {
	var p Placeable
	if nc.modNode != nil {
		p = nc.modNode.MeasureModifier(nc.owner.measureCtx, nc.inner, c)
	} else {
		p = nc.measureInnermost(c)
	}
	nc.lastPlaceable = p
	nc.measured = true
	// Only the chain head (the outermost coordinator, which is what parents
	// hold onto via childMeasurables/ensureCoordinator and what
	// MeasureAndPlace drives the root through) reflects the node's true
	// size once every layout modifier (padding, size, fillMax*, ...) has
	// had a chance to wrap it — record it here so paint/semantics/hit-test
	// see the real measured box instead of a zero Vec2.
	if nc.owner.coordinator == nc {
		nc.owner.size = Vec2{X: p.Width, Y: p.Height}
	}
	return p
}

func (nc *NodeCoordinator) measureInnermost(c Constraints) Placeable {
	owner := nc.owner
	children := owner.childMeasurables()
	result := owner.measurePolicy.Measure(owner.measureCtx, children, c)
	return Placeable{
		Width:  result.Width,
		Height: result.Height,
		Place: func(x, y float64) {
			owner.setLocalPosition(x, y)
			if result.Place != nil {
				result.Place()
			}
			owner.dirty.needsPlace = false
		},
	}
}

func (nc *NodeCoordinator) MinIntrinsicWidth(height float64) float64 {
	if nc.modNode != nil {
		return nc.modNode.IntrinsicMinWidth(nc.owner.measureCtx, nc.inner, height)
	}
	return nc.owner.measurePolicy.MinIntrinsicWidth(nc.owner.measureCtx, nc.owner.childIntrinsics(), height)
}

func (nc *NodeCoordinator) MaxIntrinsicWidth(height float64) float64 {
	if nc.modNode != nil {
		return nc.modNode.IntrinsicMaxWidth(nc.owner.measureCtx, nc.inner, height)
	}
	return nc.owner.measurePolicy.MaxIntrinsicWidth(nc.owner.measureCtx, nc.owner.childIntrinsics(), height)
}

func (nc *NodeCoordinator) MinIntrinsicHeight(width float64) float64 {
	if nc.modNode != nil {
		return nc.modNode.IntrinsicMinHeight(nc.owner.measureCtx, nc.inner, width)
	}
	return nc.owner.measurePolicy.MinIntrinsicHeight(nc.owner.measureCtx, nc.owner.childIntrinsics(), width)
}

func (nc *NodeCoordinator) MaxIntrinsicHeight(width float64) float64 {
	if nc.modNode != nil {
		return nc.modNode.IntrinsicMaxHeight(nc.owner.measureCtx, nc.inner, width)
	}
	return nc.owner.measurePolicy.MaxIntrinsicHeight(nc.owner.measureCtx, nc.owner.childIntrinsics(), width)
}

// buildCoordinatorChain constructs the outermost-to-innermost coordinator
// chain for a LayoutNode from its reconciled modifier chain, in the same
// order as the chain itself (head-to-tail = outermost-to-innermost).
func buildCoordinatorChain(owner *LayoutNode) *NodeCoordinator {
	var modNodes []LayoutModifierNode
	owner.chain.ForEachForwardMatching(CapLayout, func(node ModifierNode, _ Capability) {
		if ln, ok := node.(LayoutModifierNode); ok {
			modNodes = append(modNodes, ln)
		}
	})

	inner := &NodeCoordinator{owner: owner}
	chainHead := inner
	for i := len(modNodes) - 1; i >= 0; i-- {
		chainHead = &NodeCoordinator{owner: owner, modNode: modNodes[i], inner: chainHead}
	}
	return chainHead
}
