// Command composectl is a diagnostics CLI over the compose core — not part
// of the core itself (spec §1 "CLI ... owned by outer crates"). It runs a
// small built-in composition against the requested viewport and dumps
// either the reconciled slot table or the built paint scene, for debugging
// a composition's structure without a full app shell.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phanxgames/gocompose"
)

var (
	viewportWidth  float64
	viewportHeight float64
	density        float64
)

func main() {
	root := &cobra.Command{
		Use:   "composectl",
		Short: "Diagnostics for gocompose slot tables and paint scenes",
	}

	flags := pflag.NewFlagSet("composectl", pflag.ExitOnError)
	flags.Float64Var(&viewportWidth, "viewport-width", 800, "viewport width in logical pixels")
	flags.Float64Var(&viewportHeight, "viewport-height", 600, "viewport height in logical pixels")
	flags.Float64Var(&density, "density", 1, "display density")
	root.PersistentFlags().AddFlagSet(flags)

	root.AddCommand(dumpSceneCommand(), dumpSlotsCommand(), dumpSemanticsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// fixedMeasurePolicy gives the demo's single leaf node a constant
// intrinsic size, clamped into whatever constraints the viewport passes
// down — enough to drive a real measure/place/paint pass without pulling
// in a concrete widget (out of core scope per spec §1).
type fixedMeasurePolicy struct {
	width, height float64
}

func (p fixedMeasurePolicy) Measure(ctx *compose.MeasureContext, children []compose.Measurable, c compose.Constraints) compose.MeasureResult {
	w, h := c.Clamp(p.width, p.height)
	return compose.MeasureResult{Width: w, Height: h}
}
func (p fixedMeasurePolicy) MinIntrinsicWidth(*compose.MeasureContext, []compose.IntrinsicMeasurable, float64) float64 {
	return p.width
}
func (p fixedMeasurePolicy) MaxIntrinsicWidth(*compose.MeasureContext, []compose.IntrinsicMeasurable, float64) float64 {
	return p.width
}
func (p fixedMeasurePolicy) MinIntrinsicHeight(*compose.MeasureContext, []compose.IntrinsicMeasurable, float64) float64 {
	return p.height
}
func (p fixedMeasurePolicy) MaxIntrinsicHeight(*compose.MeasureContext, []compose.IntrinsicMeasurable, float64) float64 {
	return p.height
}

// demoTree builds a minimal composition: a single clickable root node with
// padding, a solid background and button semantics, and no children. The
// callers measure it against the viewport flags.
func demoTree() (*compose.LayoutTree, *compose.Composer, *compose.Recomposer) {
	table := compose.NewSlotTable()
	rec := compose.NewRecomposer()
	comp := compose.NewComposer(table, rec)
	tree := compose.NewLayoutTree(&compose.MeasureContext{Density: density})

	rootKey := compose.NewKey("composectl-demo-root")
	rec.ComposeInitial(comp, rootKey, func(c *compose.Composer) {
		c.RestartableScope(compose.NewKey("demo-button"), func(c *compose.Composer) {
			id := compose.EmitNode(c, tree.Applier(), func() *compose.LayoutNode {
				return tree.Node(tree.NewNode(fixedMeasurePolicy{width: 120, height: 48}))
			}, func(n *compose.LayoutNode) {})
			tree.SetRoot(id)
			if n := tree.Node(id); n != nil {
				n.UpdateModifiers([]compose.ModifierElement{
					compose.PaddingElement{Left: 8, Top: 8, Right: 8, Bottom: 8},
					compose.BackgroundElement{Brush: compose.SolidBrush(compose.Color{R: 0.2, G: 0.4, B: 0.9, A: 1})},
					compose.ClickableElement{Enabled: true},
					compose.SemanticsElement{Role: "button", Text: "demo", Enabled: true},
				})
			}
		})
	})
	rec.ProcessInvalidScopes()
	return tree, comp, rec
}

func dumpSceneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-scene",
		Short: "Run the demo composition and print the built paint scene as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, _, _ := demoTree()
			tree.MeasureAndPlace(viewportWidth, viewportHeight)
			scene := compose.BuildScene(tree)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(scene)
		},
	}
}

func dumpSlotsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-slots",
		Short: "Run the demo composition and print the slot table's slot and gap counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, comp, _ := demoTree()
			fmt.Printf("slots: %d\n", comp.Table().Len())
			fmt.Printf("gaps: %d\n", comp.Table().GapCount())
			return nil
		},
	}
}

func dumpSemanticsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-semantics",
		Short: "Run the demo composition and print the semantics tree as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, _, _ := demoTree()
			tree.MeasureAndPlace(viewportWidth, viewportHeight)
			semantics := compose.BuildSemanticsTree(tree)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(semantics)
		},
	}
}
