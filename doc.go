// Package compose is the core of a retained-mode, declarative UI engine
// modeled on slot-table composition: a gap-aware slot table, a composer
// that turns nested composable calls into node creation/update commands, a
// recomposer that re-enters invalidated scopes, and the measure/place/paint
// pipeline that walks a reconciled modifier node chain to produce a
// paintable [Scene] and a hit-testable pointer-input surface.
//
// The package is deliberately renderer-, input-platform-, and
// text-shaping-agnostic: those concerns are external collaborators reached
// through the interfaces in external.go. Concrete implementations live in
// the render and semanticsbridge sibling modules and the harness
// subpackage.
//
// # Quick start
//
//	var rootKey = NewKey("root")
//	var textKey = NewKey("text")
//
//	table := NewSlotTable()
//	rec := NewRecomposer()
//	comp := NewComposer(table, rec)
//	tree := NewLayoutTree(&MeasureContext{Density: 1})
//
//	rec.ComposeInitial(comp, rootKey, func(c *Composer) {
//		c.RestartableScope(textKey, func(c *Composer) {
//			count := MutableStateOf(c, 0, StructuralEqual[int])
//			EmitNode(c, tree.Applier(), func() *LayoutNode {
//				return tree.Node(tree.NewNode(someTextMeasurePolicy(count.Get())))
//			}, func(n *LayoutNode) {
//				n.SetMeasurePolicy(someTextMeasurePolicy(count.Get()))
//			})
//		})
//	})
package compose
