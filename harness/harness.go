// Package harness is a JSON-scriptable driver for composition/input
// end-to-end scenarios (spec.md §8's S1-S6), generalizing the teacher's
// TestRunner (testrunner.go: a JSON step list of screenshot/click/drag/
// wait actions driving an ebiten Scene) and the Rust original's
// compose-testing robot harness
// (original_source/crates/compose-testing/src/robot_app.rs) into steps
// that drive the core directly: compose, measure, inject-pointer,
// advance-frame, assert-semantics (SPEC_FULL §A.4).
package harness

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phanxgames/gocompose"
)

// Step is one scripted action. Only the fields relevant to Action are
// read; the rest are left zero.
type Step struct {
	Action string `json:"action"`

	// inject-pointer
	Kind      string  `json:"kind,omitempty"` // "down" | "move" | "up" | "cancel"
	PointerId int     `json:"pointerId,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`

	// advance-frame
	Frames int `json:"frames,omitempty"`

	// assert-semantics
	Role          string `json:"role,omitempty"`
	WantText      string `json:"wantText,omitempty"`
	WantClickable *bool  `json:"wantClickable,omitempty"`
}

// Script is the top-level JSON structure a harness run consumes.
type Script struct {
	Steps []Step `json:"steps"`
}

// LoadScript parses a JSON document into a Script.
func LoadScript(data []byte) (*Script, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("harness: parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("harness: script has no steps")
	}
	return &s, nil
}

// Runner drives one Script against a live composition/layout/input triple,
// stepping a synthetic frame clock rather than a real one (so replays are
// deterministic — no wall-clock dependency, consistent with the composed-
// at-depth ordering the recomposer itself guarantees).
type Runner struct {
	Tree       *compose.LayoutTree
	Recomposer *compose.Recomposer
	Input      *compose.InputDispatcher

	ViewportWidth, ViewportHeight float64

	now      int64
	Failures []string
}

// NewRunner wires a harness run to an already-composed tree. Callers
// typically build Tree/Recomposer/Input once via ComposeInitial and then
// drive the rest of a scenario through Run.
func NewRunner(tree *compose.LayoutTree, rec *compose.Recomposer, input *compose.InputDispatcher, viewportWidth, viewportHeight float64) *Runner {
	return &Runner{Tree: tree, Recomposer: rec, Input: input, ViewportWidth: viewportWidth, ViewportHeight: viewportHeight}
}

// Run executes every step in order, returning an error on a malformed step
// or if any assert-semantics step failed (the accumulated Failures are
// joined into the error message; they're also left on r.Failures for a
// caller that wants to report more than the first one).
func (r *Runner) Run(script *Script) error {
	for i, step := range script.Steps {
		if err := r.runStep(step); err != nil {
			return fmt.Errorf("harness: step %d (%s): %w", i, step.Action, err)
		}
	}
	if len(r.Failures) > 0 {
		return fmt.Errorf("harness: %d assertion(s) failed: %s", len(r.Failures), strings.Join(r.Failures, "; "))
	}
	return nil
}

func (r *Runner) runStep(st Step) error {
	switch st.Action {
	case "compose":
		_, err := r.Recomposer.ProcessInvalidScopes()
		return err

	case "measure":
		r.Tree.MeasureAndPlace(r.ViewportWidth, r.ViewportHeight)
		return nil

	case "inject-pointer":
		kind, err := parseKind(st.Kind)
		if err != nil {
			return err
		}
		r.advanceClock()
		scene := compose.BuildScene(r.Tree)
		r.Input.SetScene(scene)
		r.Input.Dispatch(compose.PointerEvent{
			Kind:        kind,
			PointerId:   st.PointerId,
			Position:    compose.Vec2{X: st.X, Y: st.Y},
			TimestampNs: r.now,
		})
		return nil

	case "advance-frame":
		frames := st.Frames
		if frames < 1 {
			frames = 1
		}
		for i := 0; i < frames; i++ {
			r.advanceClock()
			if _, err := r.Recomposer.ProcessInvalidScopes(); err != nil {
				return err
			}
			r.Tree.MeasureAndPlace(r.ViewportWidth, r.ViewportHeight)
		}
		return nil

	case "assert-semantics":
		tree := compose.BuildSemanticsTree(r.Tree)
		node := tree.FindByRole(st.Role)
		if node == nil {
			r.Failures = append(r.Failures, fmt.Sprintf("no semantics node with role %q", st.Role))
			return nil
		}
		if st.WantText != "" && node.Text != st.WantText {
			r.Failures = append(r.Failures, fmt.Sprintf("role %q: want text %q, got %q", st.Role, st.WantText, node.Text))
		}
		if st.WantClickable != nil && node.Clickable != *st.WantClickable {
			r.Failures = append(r.Failures, fmt.Sprintf("role %q: want clickable=%v, got %v", st.Role, *st.WantClickable, node.Clickable))
		}
		return nil

	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
}

// advanceClock ticks the synthetic frame clock by one frame at 60fps.
func (r *Runner) advanceClock() { r.now += 16_666_667 }

func parseKind(s string) (compose.PointerKind, error) {
	switch s {
	case "down":
		return compose.PointerDown, nil
	case "move":
		return compose.PointerMove, nil
	case "up":
		return compose.PointerUp, nil
	case "cancel":
		return compose.PointerCancel, nil
	default:
		return 0, fmt.Errorf("unknown pointer kind %q", s)
	}
}
