package compose

import "testing"

func TestRememberReturnsStableIdentityAcrossRecompositions(t *testing.T) {
	table := NewSlotTable()
	rec := NewRecomposer()
	comp := NewComposer(table, rec)

	var seen []*int
	var scope ScopeId
	rec.ComposeInitial(comp, NewKey("root"), func(c *Composer) {
		scope = c.RestartableScope(NewKey("child"), func(c *Composer) {
			v := Remember(c, func() *int { n := 0; return &n })
			seen = append(seen, v)
		})
	})

	rec.invalidate(scope)
	if _, err := rec.ProcessInvalidScopes(); err != nil {
		t.Fatalf("ProcessInvalidScopes: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected the scope body to run twice (once per composition), got %d calls", len(seen))
	}
	if seen[0] != seen[1] {
		t.Fatal("expected Remember to return the same pointer across a recomposition of the same scope")
	}
}

func TestMutableStateOfInvalidatesOnlyItsOwnScope(t *testing.T) {
	table := NewSlotTable()
	rec := NewRecomposer()
	comp := NewComposer(table, rec)

	var state *State[int]
	var otherRuns int

	rec.ComposeInitial(comp, NewKey("root"), func(c *Composer) {
		c.RestartableScope(NewKey("counter"), func(c *Composer) {
			state = MutableStateOf(c, 0, StructuralEqual[int])
			state.Get()
		})
		c.RestartableScope(NewKey("unrelated"), func(c *Composer) {
			otherRuns++
		})
	})

	if otherRuns != 1 {
		t.Fatalf("expected the unrelated scope to have run once initially, got %d", otherRuns)
	}

	state.Set(1)
	processed, err := rec.ProcessInvalidScopes()
	if err != nil {
		t.Fatalf("ProcessInvalidScopes: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected exactly one scope to be reprocessed after the state write, got %d", processed)
	}
	if otherRuns != 1 {
		t.Fatalf("expected the unrelated scope not to rerun, got %d total runs", otherRuns)
	}
}

func TestStateSetWithEqualValueDoesNotInvalidate(t *testing.T) {
	table := NewSlotTable()
	rec := NewRecomposer()
	comp := NewComposer(table, rec)

	var state *State[int]
	rec.ComposeInitial(comp, NewKey("root"), func(c *Composer) {
		c.RestartableScope(NewKey("counter"), func(c *Composer) {
			state = MutableStateOf(c, 5, StructuralEqual[int])
			state.Get()
		})
	})

	state.Set(5)
	processed, err := rec.ProcessInvalidScopes()
	if err != nil {
		t.Fatalf("ProcessInvalidScopes: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected Set with an equal value to enqueue nothing, got %d processed", processed)
	}
}
