package compose

// dirtyFlags tracks what a LayoutNode still needs redone before its output
// (size, position, scene contribution) can be trusted (spec §3 LayoutNode).
type dirtyFlags struct {
	needsMeasure     bool
	needsPlace       bool
	needsDraw        bool
	needsPointerPass bool
	needsFocusSync   bool
}

// LayoutNode is the per-node-slot record the measure/place/paint pipeline
// operates on (spec §3). It is the T stored in the Applier[*LayoutNode]
// a composition's Composer emits nodes into via EmitNode.
type LayoutNode struct {
	id    NodeId
	tree  *LayoutTree
	chain *ModifierChain

	measurePolicy MeasurePolicy
	measureCtx    *MeasureContext
	coordinator   *NodeCoordinator

	size          Vec2
	localPosition Vec2 // relative to parent, set by the parent's placement closure

	dirty dirtyFlags
}

// Id returns the node's identity.
func (n *LayoutNode) Id() NodeId { return n.id }

// Chain returns the node's reconciled modifier chain.
func (n *LayoutNode) Chain() *ModifierChain { return n.chain }

// Size returns the node's last-measured size.
func (n *LayoutNode) Size() Vec2 { return n.size }

// LocalPosition returns the node's position in its parent's coordinate
// space, as set by the most recent placement pass.
func (n *LayoutNode) LocalPosition() Vec2 { return n.localPosition }

func (n *LayoutNode) setLocalPosition(x, y float64) { n.localPosition = Vec2{X: x, Y: y} }

// SetMeasurePolicy installs or replaces the policy the node's innermost
// coordinator runs against its children. Replacing it dirties measurement.
func (n *LayoutNode) SetMeasurePolicy(policy MeasurePolicy) {
	n.measurePolicy = policy
	n.dirty.needsMeasure = true
}

// UpdateModifiers reconciles the node's modifier chain against a freshly
// built element sequence and rebuilds the coordinator chain to match (spec
// §4.4/§4.5). Always dirties measure and draw: a changed chain may have
// changed sizing or what gets painted even when StrongEqual kept most
// nodes in place.
func (n *LayoutNode) UpdateModifiers(elements []ModifierElement) AttachResult {
	result := n.chain.UpdateFromSlice(elements, func(nodeID NodeId) *ModifierAttachContext {
		return &ModifierAttachContext{Chain: n.chain, NodeId: nodeID}
	})
	n.coordinator = buildCoordinatorChain(n)
	n.dirty.needsMeasure = true
	n.dirty.needsDraw = true
	return result
}

func (n *LayoutNode) ensureCoordinator() *NodeCoordinator {
	if n.coordinator == nil {
		n.coordinator = buildCoordinatorChain(n)
	}
	return n.coordinator
}

func (n *LayoutNode) childMeasurables() []Measurable {
	kids := n.tree.applier.Children(n.id)
	out := make([]Measurable, 0, len(kids))
	for _, cid := range kids {
		if child, ok := n.tree.applier.Get(cid); ok {
			out = append(out, child.ensureCoordinator())
		}
	}
	return out
}

func (n *LayoutNode) childIntrinsics() []IntrinsicMeasurable {
	kids := n.tree.applier.Children(n.id)
	out := make([]IntrinsicMeasurable, 0, len(kids))
	for _, cid := range kids {
		if child, ok := n.tree.applier.Get(cid); ok {
			out = append(out, child.ensureCoordinator())
		}
	}
	return out
}

// LayoutTree owns the Applier of LayoutNodes and drives the measure/place
// pass described in spec §4.6.
type LayoutTree struct {
	applier    *Applier[*LayoutNode]
	root       NodeId
	measureCtx *MeasureContext
}

// NewLayoutTree creates an empty tree. ctx supplies density and the shared
// TextMeasurer every node's measure calls will see.
func NewLayoutTree(ctx *MeasureContext) *LayoutTree {
	return &LayoutTree{applier: NewApplier[*LayoutNode](), measureCtx: ctx}
}

// Applier exposes the underlying node arena, mainly so EmitNode callers can
// pass it directly as the generic applier argument.
func (lt *LayoutTree) Applier() *Applier[*LayoutNode] { return lt.applier }

// NewNode allocates a fresh LayoutNode under policy and returns its id. The
// node starts fully dirty.
func (lt *LayoutTree) NewNode(policy MeasurePolicy) NodeId {
	n := &LayoutNode{tree: lt, measurePolicy: policy, measureCtx: lt.measureCtx}
	id := lt.applier.Insert(n)
	n.id = id
	n.chain = NewModifierChain(id)
	n.dirty = dirtyFlags{needsMeasure: true, needsPlace: true, needsDraw: true}
	return id
}

// Node resolves id to its LayoutNode, or nil if unknown.
func (lt *LayoutTree) Node(id NodeId) *LayoutNode {
	n, _ := lt.applier.Get(id)
	return n
}

// SetRoot designates id as the tree's root node.
func (lt *LayoutTree) SetRoot(id NodeId) { lt.applier.SetRoot(id); lt.root = id }

// Root returns the tree's root id.
func (lt *LayoutTree) Root() NodeId { return lt.root }

// ScheduleLayoutRepass bubbles needs_measure from id up to the root,
// marking every node on the way even where one is already marked (a node's
// own mark does not imply its ancestors are marked). Sibling subtrees are
// never touched (spec §8 invariant 5).
func (lt *LayoutTree) ScheduleLayoutRepass(id NodeId) {
	cur := id
	for {
		n := lt.Node(cur)
		if n == nil {
			return
		}
		n.dirty.needsMeasure = true
		n.dirty.needsDraw = true
		n.dirty.needsPlace = true
		parent, ok := lt.applier.Parent(cur)
		if !ok {
			return
		}
		cur = parent
	}
}

// InvalidateAll marks the whole tree for remeasure — the fallback path for
// a viewport/density/font-scale change (spec §4.6 "a global invalidation
// path is available ... explicitly the fallback").
func (lt *LayoutTree) InvalidateAll() {
	lt.applier.Walk(lt.root, func(id NodeId) bool {
		if n := lt.Node(id); n != nil {
			n.dirty.needsMeasure = true
			n.dirty.needsDraw = true
			n.dirty.needsPlace = true
		}
		return true
	})
}

// MeasureAndPlace runs the measure and placement phases against the root
// if it's dirty (spec §4.6 steps 1-5). Every MeasurePolicy.Measure call
// recurses into its children's coordinators naturally — the only
// top-level drive needed is kicking off the root and then invoking its
// resulting Placeable.Place, which cascades placement all the way down
// through the closures each level's MeasurePolicy captured.
func (lt *LayoutTree) MeasureAndPlace(viewportWidth, viewportHeight float64) {
	root := lt.Node(lt.root)
	if root == nil {
		return
	}
	if !root.dirty.needsMeasure {
		if root.dirty.needsPlace {
			if root.coordinator != nil {
				root.coordinator.lastPlaceable.Place(0, 0)
			}
		}
		return
	}
	coordinator := root.ensureCoordinator()
	placeable := coordinator.Measure(Constraints{MinWidth: 0, MaxWidth: viewportWidth, MinHeight: 0, MaxHeight: viewportHeight})
	root.dirty.needsMeasure = false
	placeable.Place(0, 0)
	root.dirty.needsDraw = true
}
