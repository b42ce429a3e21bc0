package harness

import (
	"testing"

	"github.com/phanxgames/gocompose"
)

type fixedPolicy struct{ w, h float64 }

func (p fixedPolicy) Measure(ctx *compose.MeasureContext, children []compose.Measurable, c compose.Constraints) compose.MeasureResult {
	w, h := c.Clamp(p.w, p.h)
	return compose.MeasureResult{Width: w, Height: h}
}
func (p fixedPolicy) MinIntrinsicWidth(*compose.MeasureContext, []compose.IntrinsicMeasurable, float64) float64 {
	return p.w
}
func (p fixedPolicy) MaxIntrinsicWidth(*compose.MeasureContext, []compose.IntrinsicMeasurable, float64) float64 {
	return p.w
}
func (p fixedPolicy) MinIntrinsicHeight(*compose.MeasureContext, []compose.IntrinsicMeasurable, float64) float64 {
	return p.h
}
func (p fixedPolicy) MaxIntrinsicHeight(*compose.MeasureContext, []compose.IntrinsicMeasurable, float64) float64 {
	return p.h
}

func buildButton(t *testing.T) (*compose.LayoutTree, *compose.Recomposer, *compose.InputDispatcher, func() bool) {
	t.Helper()
	table := compose.NewSlotTable()
	rec := compose.NewRecomposer()
	comp := compose.NewComposer(table, rec)
	tree := compose.NewLayoutTree(&compose.MeasureContext{Density: 1})

	var clicked bool
	rec.ComposeInitial(comp, compose.NewKey("root"), func(c *compose.Composer) {
		c.RestartableScope(compose.NewKey("button"), func(c *compose.Composer) {
			id := compose.EmitNode(c, tree.Applier(), func() *compose.LayoutNode {
				return tree.Node(tree.NewNode(fixedPolicy{w: 100, h: 40}))
			}, func(n *compose.LayoutNode) {})
			tree.SetRoot(id)
			if n := tree.Node(id); n != nil {
				n.UpdateModifiers([]compose.ModifierElement{
					compose.ClickableElement{Enabled: true, OnClick: func() { clicked = true }},
					compose.SemanticsElement{Role: "button", Text: "click me", Enabled: true},
				})
			}
		})
	})
	rec.ProcessInvalidScopes()

	input := compose.NewInputDispatcher(tree)
	return tree, rec, input, func() bool { return clicked }
}

func TestRunnerClickScenario(t *testing.T) {
	tree, rec, input, clicked := buildButton(t)
	runner := NewRunner(tree, rec, input, 200, 200)

	script, err := LoadScript([]byte(`{
		"steps": [
			{"action": "measure"},
			{"action": "assert-semantics", "role": "button", "wantText": "click me", "wantClickable": true},
			{"action": "inject-pointer", "kind": "down", "x": 10, "y": 10},
			{"action": "inject-pointer", "kind": "up", "x": 10, "y": 10}
		]
	}`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if err := runner.Run(script); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !clicked() {
		t.Fatal("expected click handler to have fired")
	}
}

func TestRunnerAssertSemanticsFailureIsReported(t *testing.T) {
	tree, rec, input, _ := buildButton(t)
	runner := NewRunner(tree, rec, input, 200, 200)

	script, err := LoadScript([]byte(`{
		"steps": [
			{"action": "measure"},
			{"action": "assert-semantics", "role": "button", "wantText": "wrong text"}
		]
	}`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if err := runner.Run(script); err == nil {
		t.Fatal("expected Run to report the mismatched wantText")
	}
}

func TestLoadScriptRejectsEmptyScript(t *testing.T) {
	if _, err := LoadScript([]byte(`{"steps": []}`)); err == nil {
		t.Fatal("expected an error for an empty step list")
	}
}

func TestLoadScriptRejectsInvalidJSON(t *testing.T) {
	if _, err := LoadScript([]byte(`not json`)); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}
