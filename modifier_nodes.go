package compose

import (
	"hash/fnv"
	"math"
	"slices"
)

func hashFloats(vals ...float64) uint64 {
	h := fnv.New64a()
	for _, v := range vals {
		writeVarint(h, int64(math.Float64bits(v)))
	}
	return h.Sum64()
}

// baseNode gives concrete modifier nodes a no-op OnAttach/OnDetach so they
// only need to override the hook they actually care about (most don't care
// about either — grounded on the teacher's node lifecycle hooks in
// node.go, where most node kinds leave OnAdded/OnRemoved as no-ops too).
type baseNode struct{}

func (baseNode) OnAttach(*ModifierAttachContext) {}
func (baseNode) OnDetach()                       {}

// --- padding ---------------------------------------------------------------

// PaddingElement insets a node's content on each edge (spec §4.6
// "shrink [constraints] by an inset").
type PaddingElement struct {
	Left, Top, Right, Bottom float64
	KeyValue                 any
	HasKey                   bool
}

func (e PaddingElement) ElementTypeID() string   { return "padding" }
func (e PaddingElement) Key() (any, bool)        { return e.KeyValue, e.HasKey }
func (e PaddingElement) Hash() uint64            { return hashFloats(e.Left, e.Top, e.Right, e.Bottom) }
func (e PaddingElement) Capabilities() Capability { return CapLayout }
func (e PaddingElement) CreateNode() ModifierNode {
	return &PaddingNode{Left: e.Left, Top: e.Top, Right: e.Right, Bottom: e.Bottom}
}
func (e PaddingElement) UpdateNode(node ModifierNode) {
	n := node.(*PaddingNode)
	n.Left, n.Top, n.Right, n.Bottom = e.Left, e.Top, e.Right, e.Bottom
}
func (e PaddingElement) StrongEqual(other ModifierElement) bool {
	o, ok := other.(PaddingElement)
	return ok && o.Left == e.Left && o.Top == e.Top && o.Right == e.Right && o.Bottom == e.Bottom
}

// PaddingNode shrinks the constraints offered to its inner content by its
// insets and translates the inner placement by (Left, Top).
type PaddingNode struct {
	baseNode
	Left, Top, Right, Bottom float64
}

func (n *PaddingNode) MeasureModifier(ctx *MeasureContext, inner Measurable, c Constraints) Placeable {
	horizontal, vertical := n.Left+n.Right, n.Top+n.Bottom
	innerConstraints := Constraints{
		MinWidth:  math.Max(0, c.MinWidth-horizontal),
		MaxWidth:  subtractInset(c.MaxWidth, horizontal),
		MinHeight: math.Max(0, c.MinHeight-vertical),
		MaxHeight: subtractInset(c.MaxHeight, vertical),
	}
	p := inner.Measure(innerConstraints)
	w, h := p.Width+horizontal, p.Height+vertical
	return Placeable{
		Width: w, Height: h,
		Place: func(x, y float64) { p.Place(x+n.Left, y+n.Top) },
	}
}

func subtractInset(max, inset float64) float64 {
	if math.IsInf(max, 1) {
		return max
	}
	return math.Max(0, max-inset)
}

func (n *PaddingNode) IntrinsicMinWidth(ctx *MeasureContext, inner IntrinsicMeasurable, height float64) float64 {
	return inner.MinIntrinsicWidth(math.Max(0, height-n.Top-n.Bottom)) + n.Left + n.Right
}
func (n *PaddingNode) IntrinsicMaxWidth(ctx *MeasureContext, inner IntrinsicMeasurable, height float64) float64 {
	return inner.MaxIntrinsicWidth(math.Max(0, height-n.Top-n.Bottom)) + n.Left + n.Right
}
func (n *PaddingNode) IntrinsicMinHeight(ctx *MeasureContext, inner IntrinsicMeasurable, width float64) float64 {
	return inner.MinIntrinsicHeight(math.Max(0, width-n.Left-n.Right)) + n.Top + n.Bottom
}
func (n *PaddingNode) IntrinsicMaxHeight(ctx *MeasureContext, inner IntrinsicMeasurable, width float64) float64 {
	return inner.MaxIntrinsicHeight(math.Max(0, width-n.Left-n.Right)) + n.Top + n.Bottom
}

var _ LayoutModifierNode = (*PaddingNode)(nil)

// --- fixed / fill-max size ---------------------------------------------------

// SizeElement fixes a node's width and/or height, clamped into the
// corresponding incoming constraint dimension(s) (see SizeNode).
type SizeElement struct {
	Width, Height          float64
	HasWidth, HasHeight    bool
	KeyValue               any
	HasKey                 bool
}

func (e SizeElement) ElementTypeID() string { return "size" }
func (e SizeElement) Key() (any, bool)      { return e.KeyValue, e.HasKey }
func (e SizeElement) Hash() uint64 {
	return hashFloats(e.Width, e.Height, boolF(e.HasWidth), boolF(e.HasHeight))
}
func (e SizeElement) Capabilities() Capability { return CapLayout }
func (e SizeElement) CreateNode() ModifierNode {
	return &SizeNode{Width: e.Width, Height: e.Height, HasWidth: e.HasWidth, HasHeight: e.HasHeight}
}
func (e SizeElement) UpdateNode(node ModifierNode) {
	n := node.(*SizeNode)
	n.Width, n.Height, n.HasWidth, n.HasHeight = e.Width, e.Height, e.HasWidth, e.HasHeight
}
func (e SizeElement) StrongEqual(other ModifierElement) bool {
	o, ok := other.(SizeElement)
	return ok && o == e
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SizeNode forces its fixed dimensions, clamped into the incoming
// constraints (a fixed size narrower than MinWidth still clamps up, per
// ordinary constraint semantics — it does not overflow the parent).
type SizeNode struct {
	baseNode
	Width, Height       float64
	HasWidth, HasHeight bool
}

func (n *SizeNode) MeasureModifier(ctx *MeasureContext, inner Measurable, c Constraints) Placeable {
	innerConstraints := c
	if n.HasWidth {
		w := clampF(n.Width, c.MinWidth, c.MaxWidth)
		innerConstraints.MinWidth, innerConstraints.MaxWidth = w, w
	}
	if n.HasHeight {
		h := clampF(n.Height, c.MinHeight, c.MaxHeight)
		innerConstraints.MinHeight, innerConstraints.MaxHeight = h, h
	}
	p := inner.Measure(innerConstraints)
	return p
}

func (n *SizeNode) IntrinsicMinWidth(ctx *MeasureContext, inner IntrinsicMeasurable, height float64) float64 {
	if n.HasWidth {
		return n.Width
	}
	return inner.MinIntrinsicWidth(height)
}
func (n *SizeNode) IntrinsicMaxWidth(ctx *MeasureContext, inner IntrinsicMeasurable, height float64) float64 {
	if n.HasWidth {
		return n.Width
	}
	return inner.MaxIntrinsicWidth(height)
}
func (n *SizeNode) IntrinsicMinHeight(ctx *MeasureContext, inner IntrinsicMeasurable, width float64) float64 {
	if n.HasHeight {
		return n.Height
	}
	return inner.MinIntrinsicHeight(width)
}
func (n *SizeNode) IntrinsicMaxHeight(ctx *MeasureContext, inner IntrinsicMeasurable, width float64) float64 {
	if n.HasHeight {
		return n.Height
	}
	return inner.MaxIntrinsicHeight(width)
}

var _ LayoutModifierNode = (*SizeNode)(nil)

// FillMaxWidthElement/FillMaxHeightElement make a node consume the
// available bounded space along an axis, falling back to the content's own
// intrinsic size along an unbounded axis (spec §8 boundary behavior:
// "Measuring with max = ∞ on a fill_max_width modifier yields the child's
// intrinsic width, not infinity").
type FillMaxWidthElement struct {
	Fraction float64 // 1.0 = fillMaxWidth()
}

func (e FillMaxWidthElement) ElementTypeID() string    { return "fillMaxWidth" }
func (e FillMaxWidthElement) Key() (any, bool)         { return nil, false }
func (e FillMaxWidthElement) Hash() uint64             { return hashFloats(e.Fraction) }
func (e FillMaxWidthElement) Capabilities() Capability { return CapLayout }
func (e FillMaxWidthElement) CreateNode() ModifierNode { return &FillMaxWidthNode{Fraction: e.Fraction} }
func (e FillMaxWidthElement) UpdateNode(node ModifierNode) {
	node.(*FillMaxWidthNode).Fraction = e.Fraction
}
func (e FillMaxWidthElement) StrongEqual(other ModifierElement) bool {
	o, ok := other.(FillMaxWidthElement)
	return ok && o.Fraction == e.Fraction
}

type FillMaxWidthNode struct {
	baseNode
	Fraction float64
}

func (n *FillMaxWidthNode) MeasureModifier(ctx *MeasureContext, inner Measurable, c Constraints) Placeable {
	if !c.HasBoundedWidth() {
		return inner.Measure(c)
	}
	target := c.MaxWidth * n.Fraction
	cc := c
	cc.MinWidth = target
	cc.MaxWidth = target
	return inner.Measure(cc)
}
func (n *FillMaxWidthNode) IntrinsicMinWidth(ctx *MeasureContext, inner IntrinsicMeasurable, h float64) float64 {
	return inner.MinIntrinsicWidth(h)
}
func (n *FillMaxWidthNode) IntrinsicMaxWidth(ctx *MeasureContext, inner IntrinsicMeasurable, h float64) float64 {
	return inner.MaxIntrinsicWidth(h)
}
func (n *FillMaxWidthNode) IntrinsicMinHeight(ctx *MeasureContext, inner IntrinsicMeasurable, w float64) float64 {
	return inner.MinIntrinsicHeight(w)
}
func (n *FillMaxWidthNode) IntrinsicMaxHeight(ctx *MeasureContext, inner IntrinsicMeasurable, w float64) float64 {
	return inner.MaxIntrinsicHeight(w)
}

var _ LayoutModifierNode = (*FillMaxWidthNode)(nil)

type FillMaxHeightElement struct{ Fraction float64 }

func (e FillMaxHeightElement) ElementTypeID() string    { return "fillMaxHeight" }
func (e FillMaxHeightElement) Key() (any, bool)         { return nil, false }
func (e FillMaxHeightElement) Hash() uint64             { return hashFloats(e.Fraction) }
func (e FillMaxHeightElement) Capabilities() Capability { return CapLayout }
func (e FillMaxHeightElement) CreateNode() ModifierNode {
	return &FillMaxHeightNode{Fraction: e.Fraction}
}
func (e FillMaxHeightElement) UpdateNode(node ModifierNode) {
	node.(*FillMaxHeightNode).Fraction = e.Fraction
}
func (e FillMaxHeightElement) StrongEqual(other ModifierElement) bool {
	o, ok := other.(FillMaxHeightElement)
	return ok && o.Fraction == e.Fraction
}

type FillMaxHeightNode struct {
	baseNode
	Fraction float64
}

func (n *FillMaxHeightNode) MeasureModifier(ctx *MeasureContext, inner Measurable, c Constraints) Placeable {
	if !c.HasBoundedHeight() {
		return inner.Measure(c)
	}
	target := c.MaxHeight * n.Fraction
	cc := c
	cc.MinHeight = target
	cc.MaxHeight = target
	return inner.Measure(cc)
}
func (n *FillMaxHeightNode) IntrinsicMinWidth(ctx *MeasureContext, inner IntrinsicMeasurable, h float64) float64 {
	return inner.MinIntrinsicWidth(h)
}
func (n *FillMaxHeightNode) IntrinsicMaxWidth(ctx *MeasureContext, inner IntrinsicMeasurable, h float64) float64 {
	return inner.MaxIntrinsicWidth(h)
}
func (n *FillMaxHeightNode) IntrinsicMinHeight(ctx *MeasureContext, inner IntrinsicMeasurable, w float64) float64 {
	return inner.MinIntrinsicHeight(w)
}
func (n *FillMaxHeightNode) IntrinsicMaxHeight(ctx *MeasureContext, inner IntrinsicMeasurable, w float64) float64 {
	return inner.MaxIntrinsicHeight(w)
}

var _ LayoutModifierNode = (*FillMaxHeightNode)(nil)

// --- background / draw -------------------------------------------------------

// BackgroundElement paints a solid or gradient fill behind a node's
// content and its own children.
type BackgroundElement struct {
	Brush   Brush
	Corners RoundedCorners
}

func (e BackgroundElement) ElementTypeID() string    { return "background" }
func (e BackgroundElement) Key() (any, bool)         { return nil, false }
func (e BackgroundElement) Hash() uint64 {
	return hashFloats(e.Brush.Solid.R, e.Brush.Solid.G, e.Brush.Solid.B, e.Brush.Solid.A,
		e.Corners.TopLeft, e.Corners.TopRight, e.Corners.BottomRight, e.Corners.BottomLeft)
}
func (e BackgroundElement) Capabilities() Capability { return CapDraw }
func (e BackgroundElement) CreateNode() ModifierNode {
	return &BackgroundNode{Brush: e.Brush, Corners: e.Corners}
}
func (e BackgroundElement) UpdateNode(node ModifierNode) {
	n := node.(*BackgroundNode)
	n.Brush, n.Corners = e.Brush, e.Corners
}
func (e BackgroundElement) StrongEqual(other ModifierElement) bool {
	o, ok := other.(BackgroundElement)
	a, b := o.Brush, e.Brush
	return ok && o.Corners == e.Corners && a.Kind == b.Kind && a.Solid == b.Solid &&
		a.Start == b.Start && a.End == b.End && a.RadialCenter == b.RadialCenter &&
		a.RadialRadius == b.RadialRadius && slices.Equal(a.Stops, b.Stops)
}

type BackgroundNode struct {
	baseNode
	Brush   Brush
	Corners RoundedCorners
}

func (n *BackgroundNode) Paint(ctx *PaintContext, phase DrawPhase) {
	if phase != DrawBehind {
		return
	}
	ctx.AddShape(ctx.LocalBounds(), n.Brush, n.Corners)
}

func (n *BackgroundNode) HitCorners() RoundedCorners { return n.Corners }

var _ DrawModifierNode = (*BackgroundNode)(nil)

// --- graphics layer ----------------------------------------------------------

// GraphicsLayerElement composes a scale/rotation/translation transform
// and, optionally, a clip into the node's paint/hit pipeline (spec §4.8).
// Alpha is stored on the node and hashed, but BuildScene does not apply it
// to any shape or text record. Animating is surfaced as-is into Scene.HasActiveAnimations
// for a driver (e.g. the render package's gween-based tween) to report
// per-frame whether this layer is still mid-animation.
type GraphicsLayerElement struct {
	ScaleX, ScaleY         float64
	Rotation               float64
	TranslateX, TranslateY float64
	Alpha                  float64
	ClipToBounds           bool
	Animating              bool
}

func (e GraphicsLayerElement) ElementTypeID() string { return "graphicsLayer" }
func (e GraphicsLayerElement) Key() (any, bool)      { return nil, false }
func (e GraphicsLayerElement) Hash() uint64 {
	return hashFloats(e.ScaleX, e.ScaleY, e.Rotation, e.TranslateX, e.TranslateY, e.Alpha, boolF(e.ClipToBounds))
}
func (e GraphicsLayerElement) Capabilities() Capability { return CapDraw }
func (e GraphicsLayerElement) CreateNode() ModifierNode {
	return &GraphicsLayerNode{
		ScaleX: e.ScaleX, ScaleY: e.ScaleY, Rotation: e.Rotation,
		TranslateX: e.TranslateX, TranslateY: e.TranslateY, Alpha: e.Alpha,
		ClipToBounds: e.ClipToBounds, Animating: e.Animating,
	}
}
func (e GraphicsLayerElement) UpdateNode(node ModifierNode) {
	n := node.(*GraphicsLayerNode)
	n.ScaleX, n.ScaleY, n.Rotation = e.ScaleX, e.ScaleY, e.Rotation
	n.TranslateX, n.TranslateY, n.Alpha = e.TranslateX, e.TranslateY, e.Alpha
	n.ClipToBounds, n.Animating = e.ClipToBounds, e.Animating
}
func (e GraphicsLayerElement) StrongEqual(other ModifierElement) bool {
	o, ok := other.(GraphicsLayerElement)
	return ok && o == e
}

type GraphicsLayerNode struct {
	baseNode
	ScaleX, ScaleY         float64
	Rotation               float64
	TranslateX, TranslateY float64
	Alpha                  float64
	ClipToBounds           bool
	Animating              bool
}

func (n *GraphicsLayerNode) localTransform(size Vec2) AffineTransform {
	return GraphicsLayerTransform(n.ScaleX, n.ScaleY, n.Rotation, n.TranslateX, n.TranslateY, size.X/2, size.Y/2)
}

// --- clickable / pointer input -----------------------------------------------

// ClickableElement makes a node a pointer-input target that invokes OnClick
// when an Up follows a Down it received, with no Cancel in between and no
// handler that received the Up before it consuming it (a ScrollableNode
// past its drag threshold does). The Up position is not checked against
// the node's bounds.
type ClickableElement struct {
	OnClick  func()
	Enabled  bool
	KeyValue any
	HasKey   bool
}

func (e ClickableElement) ElementTypeID() string    { return "clickable" }
func (e ClickableElement) Key() (any, bool)         { return e.KeyValue, e.HasKey }
func (e ClickableElement) Hash() uint64             { return hashFloats(boolF(e.Enabled)) }
func (e ClickableElement) Capabilities() Capability { return CapPointerInput | CapSemantics }
func (e ClickableElement) CreateNode() ModifierNode {
	return &ClickableNode{OnClick: e.OnClick, Enabled: e.Enabled}
}
func (e ClickableElement) UpdateNode(node ModifierNode) {
	n := node.(*ClickableNode)
	n.OnClick, n.Enabled = e.OnClick, e.Enabled
}
func (e ClickableElement) StrongEqual(other ModifierElement) bool {
	// Function values are never strong-equal; a reattached OnClick closure
	// (e.g. capturing a fresh loop variable) must always call UpdateNode.
	return false
}

type ClickableNode struct {
	baseNode
	OnClick func()
	Enabled bool

	pressed bool
}

func (n *ClickableNode) OnPointerEvent(ctx *PointerDispatchContext, event PointerEvent) bool {
	if !n.Enabled {
		return false
	}
	switch event.Kind {
	case PointerDown:
		n.pressed = true
	case PointerUp:
		if n.pressed {
			n.pressed = false
			if n.OnClick != nil {
				n.OnClick()
			}
			return true
		}
	case PointerCancel:
		n.pressed = false
	}
	return false
}

func (n *ClickableNode) ApplySemantics(out *SemanticsEntry) {
	out.Clickable = true
	out.Enabled = n.Enabled
}

var _ PointerInputModifierNode = (*ClickableNode)(nil)
var _ SemanticsModifierNode = (*ClickableNode)(nil)

// --- scrollable ----------------------------------------------------------

// ScrollableElement makes a node a vertical-scroll gesture target, gating
// child clickables behind a drag threshold (spec §4.9, §8 S3).
type ScrollableElement struct {
	OnOffsetChanged func(dy float64)
	Threshold       float64 // logical pixels; 0 defaults to 8
}

func (e ScrollableElement) ElementTypeID() string    { return "scrollable" }
func (e ScrollableElement) Key() (any, bool)         { return nil, false }
func (e ScrollableElement) Hash() uint64             { return hashFloats(e.Threshold) }
func (e ScrollableElement) Capabilities() Capability { return CapPointerInput }
func (e ScrollableElement) CreateNode() ModifierNode {
	threshold := e.Threshold
	if threshold == 0 {
		threshold = 8
	}
	return &ScrollableNode{OnOffsetChanged: e.OnOffsetChanged, Threshold: threshold}
}
func (e ScrollableElement) UpdateNode(node ModifierNode) {
	n := node.(*ScrollableNode)
	n.OnOffsetChanged = e.OnOffsetChanged
	if e.Threshold != 0 {
		n.Threshold = e.Threshold
	}
}
func (e ScrollableElement) StrongEqual(other ModifierElement) bool { return false }

type ScrollableNode struct {
	baseNode
	OnOffsetChanged func(dy float64)
	Threshold       float64

	gesture ScrollGestureState
}

func (n *ScrollableNode) OnPointerEvent(ctx *PointerDispatchContext, event PointerEvent) bool {
	switch event.Kind {
	case PointerDown:
		n.gesture.Begin(event.Position)
		return false
	case PointerMove:
		if !n.gesture.Active {
			return false
		}
		dy := n.gesture.Update(event.Position, n.Threshold)
		if n.gesture.Scrolling && dy != 0 {
			if n.OnOffsetChanged != nil {
				n.OnOffsetChanged(dy)
			}
			return true
		}
		return n.gesture.Scrolling
	case PointerUp, PointerCancel:
		wasScrolling := n.gesture.Scrolling
		n.gesture.Reset()
		return wasScrolling
	}
	return false
}

var _ PointerInputModifierNode = (*ScrollableNode)(nil)

// --- weight (layout-only marker) ---------------------------------------------

// WeightElement marks a child's proportional share of a parent layout's
// main-axis space. The core ships no Row/Column MeasurePolicy (spec §1
// excludes concrete widgets), but a caller's own policy can query a
// child's weight via GetWeight against the child's modifier chain.
type WeightElement struct{ Weight float64 }

func (e WeightElement) ElementTypeID() string    { return "weight" }
func (e WeightElement) Key() (any, bool)         { return nil, false }
func (e WeightElement) Hash() uint64             { return hashFloats(e.Weight) }
func (e WeightElement) Capabilities() Capability { return CapLayout }
func (e WeightElement) CreateNode() ModifierNode { return &WeightNode{Weight: e.Weight} }
func (e WeightElement) UpdateNode(node ModifierNode) {
	node.(*WeightNode).Weight = e.Weight
}
func (e WeightElement) StrongEqual(other ModifierElement) bool {
	o, ok := other.(WeightElement)
	return ok && o.Weight == e.Weight
}

// WeightNode is a pass-through layout modifier: by itself it does not
// alter measurement, it only publishes a value parent policies can read.
type WeightNode struct {
	baseNode
	Weight float64
}

func (n *WeightNode) MeasureModifier(ctx *MeasureContext, inner Measurable, c Constraints) Placeable {
	return inner.Measure(c)
}
func (n *WeightNode) IntrinsicMinWidth(ctx *MeasureContext, inner IntrinsicMeasurable, h float64) float64 {
	return inner.MinIntrinsicWidth(h)
}
func (n *WeightNode) IntrinsicMaxWidth(ctx *MeasureContext, inner IntrinsicMeasurable, h float64) float64 {
	return inner.MaxIntrinsicWidth(h)
}
func (n *WeightNode) IntrinsicMinHeight(ctx *MeasureContext, inner IntrinsicMeasurable, w float64) float64 {
	return inner.MinIntrinsicHeight(w)
}
func (n *WeightNode) IntrinsicMaxHeight(ctx *MeasureContext, inner IntrinsicMeasurable, w float64) float64 {
	return inner.MaxIntrinsicHeight(w)
}

var _ LayoutModifierNode = (*WeightNode)(nil)

// GetWeight scans chain for a WeightNode and reports its value, if any.
func GetWeight(chain *ModifierChain) (float64, bool) {
	var weight float64
	found := false
	chain.ForEachForwardMatching(CapLayout, func(node ModifierNode, _ Capability) {
		if w, ok := node.(*WeightNode); ok {
			weight, found = w.Weight, true
		}
	})
	return weight, found
}

// --- semantics -----------------------------------------------------------

// SemanticsElement attaches accessibility/test-driver metadata directly
// (as opposed to ClickableNode's implicit Clickable=true).
type SemanticsElement struct {
	Role    string
	Text    string
	Enabled bool
}

func (e SemanticsElement) ElementTypeID() string    { return "semantics" }
func (e SemanticsElement) Key() (any, bool)         { return nil, false }
func (e SemanticsElement) Hash() uint64             { return 0 }
func (e SemanticsElement) Capabilities() Capability { return CapSemantics }
func (e SemanticsElement) CreateNode() ModifierNode {
	return &SemanticsModNode{Role: e.Role, Text: e.Text, Enabled: e.Enabled}
}
func (e SemanticsElement) UpdateNode(node ModifierNode) {
	n := node.(*SemanticsModNode)
	n.Role, n.Text, n.Enabled = e.Role, e.Text, e.Enabled
}
func (e SemanticsElement) StrongEqual(other ModifierElement) bool {
	o, ok := other.(SemanticsElement)
	return ok && o == e
}

type SemanticsModNode struct {
	baseNode
	Role    string
	Text    string
	Enabled bool
}

func (n *SemanticsModNode) ApplySemantics(out *SemanticsEntry) {
	out.Role = n.Role
	out.Text = n.Text
	out.Enabled = n.Enabled
}

var _ SemanticsModifierNode = (*SemanticsModNode)(nil)

// --- modifier locals -------------------------------------------------------

// ProvideLocalElement publishes a value visible to consumer nodes further
// toward the tail of the same chain (spec §4.4 "modifier locals").
type ProvideLocalElement struct {
	LocalKey ModifierLocalKey
	Value    any
}

func (e ProvideLocalElement) ElementTypeID() string    { return "provideLocal:" + e.LocalKey.name }
func (e ProvideLocalElement) Key() (any, bool)         { return nil, false }
func (e ProvideLocalElement) Hash() uint64             { return 0 }
func (e ProvideLocalElement) Capabilities() Capability { return CapModifierLocals }
func (e ProvideLocalElement) CreateNode() ModifierNode {
	return &ProvideLocalNode{LocalKey: e.LocalKey, Value: e.Value}
}
func (e ProvideLocalElement) UpdateNode(node ModifierNode) {
	n := node.(*ProvideLocalNode)
	n.Value = e.Value
	if n.chain != nil {
		n.chain.ProvideLocal(n, n.LocalKey, n.Value)
	}
}
func (e ProvideLocalElement) StrongEqual(other ModifierElement) bool { return false }

type ProvideLocalNode struct {
	baseNode
	LocalKey ModifierLocalKey
	Value    any
	chain    *ModifierChain
}

func (n *ProvideLocalNode) OnAttach(ctx *ModifierAttachContext) {
	n.chain = ctx.Chain
	n.chain.ProvideLocal(n, n.LocalKey, n.Value)
}

var _ ModifierNode = (*ProvideLocalNode)(nil)

// ConsumeLocal resolves key by walking from consumer toward the chain's
// head, returning the nearest provided value.
func ConsumeLocal(chain *ModifierChain, consumer ModifierNode, key ModifierLocalKey) (any, bool) {
	return chain.ResolveLocal(consumer, key)
}
