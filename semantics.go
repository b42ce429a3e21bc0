package compose

// SemanticsEntry accumulates the semantics contributions of one node's
// modifier chain (spec §4.8, §6): every SemanticsModifierNode on the chain
// runs in order against the same entry, each free to overwrite or layer
// onto fields set by an earlier one (outer-to-inner, matching CapDraw's
// own ordering convention).
type SemanticsEntry struct {
	Role      string
	Text      string
	Clickable bool
	Enabled   bool
}

// SemanticsModifierNode is the capability-CapSemantics half of
// ModifierNode: a modifier that contributes accessibility/automation
// metadata rather than pixels.
type SemanticsModifierNode interface {
	ModifierNode
	ApplySemantics(out *SemanticsEntry)
}

// SemanticsNode is one entry in the snapshot tree BuildSemanticsTree
// produces — a test harness or accessibility bridge's view of the
// composition, keyed by NodeId and carrying the node's current layout
// bounds (spec §6).
type SemanticsNode struct {
	NodeId    NodeId
	Role      string
	Text      string
	Clickable bool
	Enabled   bool
	Bounds    Rect
	Children  []*SemanticsNode
}

// BuildSemanticsTree walks tree from its root, folding each node's
// CapSemantics modifiers into a SemanticsEntry and assembling the result
// into a tree shaped like the layout tree. A node whose chain has no
// semantics modifiers and whose subtree is entirely devoid of them is
// still visited (descendants may carry semantics even when it doesn't),
// but carries zero-value Role/Text/Clickable.
func BuildSemanticsTree(tree *LayoutTree) *SemanticsNode {
	root := tree.Node(tree.Root())
	if root == nil {
		return nil
	}
	return buildSemanticsNode(tree, tree.Root())
}

func buildSemanticsNode(tree *LayoutTree, id NodeId) *SemanticsNode {
	n := tree.Node(id)
	if n == nil {
		return nil
	}

	var entry SemanticsEntry
	n.chain.ForEachForwardMatching(CapSemantics, func(mn ModifierNode, _ Capability) {
		if sm, ok := mn.(SemanticsModifierNode); ok {
			sm.ApplySemantics(&entry)
		}
	})

	out := &SemanticsNode{
		NodeId:    id,
		Role:      entry.Role,
		Text:      entry.Text,
		Clickable: entry.Clickable,
		Enabled:   entry.Enabled,
		Bounds:    Rect{X: n.localPosition.X, Y: n.localPosition.Y, Width: n.size.X, Height: n.size.Y},
	}
	for _, cid := range tree.applier.Children(id) {
		if child := buildSemanticsNode(tree, cid); child != nil {
			out.Children = append(out.Children, child)
		}
	}
	return out
}

// FindByRole depth-first searches the subtree rooted at n for the first
// node with the given role — a convenience for harness/test code asserting
// against the semantics tree rather than raw layout.
func (n *SemanticsNode) FindByRole(role string) *SemanticsNode {
	if n == nil {
		return nil
	}
	if n.Role == role {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindByRole(role); found != nil {
			return found
		}
	}
	return nil
}
