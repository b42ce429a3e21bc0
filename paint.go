package compose

// DrawPhase distinguishes the two points in a node's traversal at which
// its draw modifiers may contribute to the scene (spec §4.8): Behind
// commands are emitted before the node's children, Overlay commands after.
type DrawPhase int

const (
	DrawBehind DrawPhase = iota
	DrawOverlay
)

// DrawModifierNode is the capability-CapDraw half of ModifierNode: a
// modifier that contributes shape/text records to the paint scene.
type DrawModifierNode interface {
	ModifierNode
	Paint(ctx *PaintContext, phase DrawPhase)
}

// ShapeRecord is one filled (optionally rounded) rect in the scene.
type ShapeRecord struct {
	ZOrder  int
	Rect    Rect
	Brush   Brush
	Corners RoundedCorners
	NodeId  NodeId
	Clip    *Rect
}

// TextRecord is one text run in the scene.
type TextRecord struct {
	ZOrder   int
	Rect     Rect
	Text     string
	Color    Color
	FontSize float64
	NodeId   NodeId
	Clip     *Rect
}

// HitRegion is one pointer-routable region, indexed by the owning node's id
// (spec §6 "HitRegions ... indexed by NodeId").
type HitRegion struct {
	NodeId       NodeId
	Rect         Rect
	Corners      RoundedCorners
	Clip         *Rect
	Capabilities Capability
}

// Scene is the ordered output of one paint pass (spec §3, §6): draw lists
// in emission order (last = topmost) plus a hit-region list in the same
// order, and the per-frame flags an app shell needs to decide whether to
// submit anything to the renderer.
type Scene struct {
	Shapes []ShapeRecord
	Texts  []TextRecord
	Hits   []HitRegion

	Dirty               bool
	HasActiveAnimations bool
}

// HitTest walks Hits in reverse (topmost first) and returns every region
// whose rect — and whose clip, if any — contains (x, y) (spec §4.9). A
// region with non-zero corner radii is skipped when (x, y) falls outside
// its rounded shape.
func (s *Scene) HitTest(x, y float64) []HitRegion {
	var out []HitRegion
	for i := len(s.Hits) - 1; i >= 0; i-- {
		r := s.Hits[i]
		if !r.Rect.Contains(x, y) {
			continue
		}
		if r.Clip != nil && !r.Clip.Contains(x, y) {
			continue
		}
		if !r.Corners.IsZero() && !r.Corners.Contains(r.Rect, x, y) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// PaintContext is handed to each DrawModifierNode.Paint call: it resolves
// a modifier's node-local rect into the scene's absolute, clipped
// coordinate space and assigns it the next z-order slot.
type PaintContext struct {
	scene     *Scene
	transform AffineTransform
	clip      *Rect
	localRect Rect
	nodeID    NodeId
	nextZ     *int
}

// LocalBounds returns the node's own (unclipped, untransformed) rect —
// (0, 0, width, height) in the node's local coordinate space.
func (ctx *PaintContext) LocalBounds() Rect { return ctx.localRect }

// AddShape transforms localRect into absolute space, clips it against the
// active clip chain, and appends it to the scene. A fully-clipped shape is
// silently dropped.
func (ctx *PaintContext) AddShape(localRect Rect, brush Brush, corners RoundedCorners) {
	abs := ctx.transform.ApplyRect(localRect)
	clip := ctx.clip
	if clip != nil {
		inter, ok := clip.Intersection(abs)
		if !ok {
			return
		}
		abs = inter
	}
	*ctx.nextZ++
	ctx.scene.Shapes = append(ctx.scene.Shapes, ShapeRecord{
		ZOrder: *ctx.nextZ, Rect: abs, Brush: brush, Corners: corners, NodeId: ctx.nodeID, Clip: clip,
	})
}

// AddText transforms localRect into absolute space, clips it, and appends
// a text record to the scene.
func (ctx *PaintContext) AddText(localRect Rect, text string, color Color, fontSize float64) {
	abs := ctx.transform.ApplyRect(localRect)
	clip := ctx.clip
	if clip != nil {
		inter, ok := clip.Intersection(abs)
		if !ok {
			return
		}
		abs = inter
	}
	*ctx.nextZ++
	ctx.scene.Texts = append(ctx.scene.Texts, TextRecord{
		ZOrder: *ctx.nextZ, Rect: abs, Text: text, Color: color, FontSize: fontSize, NodeId: ctx.nodeID, Clip: clip,
	})
}

type paintWalker struct {
	scene *Scene
	z     int
}

// BuildScene performs the depth-first paint traversal of spec §4.8,
// producing a fresh Scene from tree's current layout. Nodes whose
// transformed bounds lie entirely outside the active clip are pruned along
// with their whole subtree.
func BuildScene(tree *LayoutTree) *Scene {
	scene := &Scene{Dirty: true}
	w := &paintWalker{scene: scene}
	if root := tree.Node(tree.Root()); root != nil {
		w.visit(tree, tree.Root(), IdentityTransform, nil)
	}
	return scene
}

func (w *paintWalker) visit(tree *LayoutTree, id NodeId, parentTransform AffineTransform, parentClip *Rect) {
	n := tree.Node(id)
	if n == nil {
		return
	}

	transform := parentTransform.Translate(n.localPosition.X, n.localPosition.Y)
	localRect := Rect{Width: n.size.X, Height: n.size.Y}
	clip := parentClip

	n.chain.ForEachForwardMatching(CapDraw, func(node ModifierNode, _ Capability) {
		if gl, ok := node.(*GraphicsLayerNode); ok {
			transform = transform.Multiply(gl.localTransform(n.size))
			if gl.ClipToBounds {
				absRect := transform.ApplyRect(localRect)
				if clip != nil {
					if inter, ok := clip.Intersection(absRect); ok {
						clip = &inter
					} else {
						empty := Rect{}
						clip = &empty
					}
				} else {
					clip = &absRect
				}
			}
			if gl.Animating {
				w.scene.HasActiveAnimations = true
			}
		}
	})

	absRect := transform.ApplyRect(localRect)
	if clip != nil {
		if _, ok := clip.Intersection(absRect); !ok {
			return
		}
	}

	ctx := &PaintContext{scene: w.scene, transform: transform, clip: clip, localRect: localRect, nodeID: id, nextZ: &w.z}

	n.chain.ForEachForwardMatching(CapDraw, func(node ModifierNode, _ Capability) {
		if d, ok := node.(DrawModifierNode); ok {
			d.Paint(ctx, DrawBehind)
		}
	})

	for _, c := range tree.applier.Children(id) {
		w.visit(tree, c, transform, clip)
	}

	n.chain.ForEachForwardMatching(CapDraw, func(node ModifierNode, _ Capability) {
		if d, ok := node.(DrawModifierNode); ok {
			d.Paint(ctx, DrawOverlay)
		}
	})

	if n.chain.HasCapabilityInSubtree(CapPointerInput) || n.chain.HasCapabilityInSubtree(CapSemantics) {
		var corners RoundedCorners
		n.chain.ForEachForwardMatching(CapDraw, func(node ModifierNode, _ Capability) {
			if provider, ok := node.(interface{ HitCorners() RoundedCorners }); ok {
				corners = provider.HitCorners()
			}
		})
		w.scene.Hits = append(w.scene.Hits, HitRegion{
			NodeId:       id,
			Rect:         absRect,
			Corners:      corners,
			Clip:         clip,
			Capabilities: n.chain.HeadCapabilities() & (CapPointerInput | CapSemantics),
		})
	}
}
