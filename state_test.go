package compose

import "testing"

func TestStateSetIsNoOpWhenEqual(t *testing.T) {
	s := NewState(5, StructuralEqual[int])
	before := s.version
	s.Set(5)
	if s.version != before {
		t.Fatal("expected Set with an equal value not to bump the version")
	}
}

func TestStateSetInvalidatesRegisteredReaders(t *testing.T) {
	pub := &fakePublisher{}
	s := NewState(0, StructuralEqual[int])
	s.Attach(pub)

	pub.scope, pub.ok = 7, true
	s.Get() // registers scope 7 as a reader

	s.Set(1)
	if len(pub.invalidated) != 1 || pub.invalidated[0] != 7 {
		t.Fatalf("expected scope 7 to be invalidated, got %v", pub.invalidated)
	}
}

func TestStateUpdateAppliesFunction(t *testing.T) {
	s := NewState(10, StructuralEqual[int])
	s.Update(func(v int) int { return v + 5 })
	if got := s.Peek(); got != 15 {
		t.Fatalf("expected Update to apply the function, got %d", got)
	}
}

func TestDerivedRecomputesOnlyWhenStale(t *testing.T) {
	calls := 0
	d := NewDerived(func() int {
		calls++
		return calls
	})
	if got := d.Get(); got != 1 {
		t.Fatalf("expected first Get to compute, got %d", got)
	}
	if got := d.Get(); got != 1 {
		t.Fatalf("expected cached Get not to recompute, got %d", got)
	}
	d.Invalidate()
	if got := d.Get(); got != 2 {
		t.Fatalf("expected Get after Invalidate to recompute, got %d", got)
	}
}

func TestCurrentSnapshotHandleIsStableUntilAdvanced(t *testing.T) {
	a := CurrentSnapshotHandle()
	b := CurrentSnapshotHandle()
	if a != b {
		t.Fatal("expected CurrentSnapshotHandle to be stable without an intervening AdvanceSnapshot")
	}
	AdvanceSnapshot()
	c := CurrentSnapshotHandle()
	if a == c {
		t.Fatal("expected CurrentSnapshotHandle to change after AdvanceSnapshot")
	}
}

type fakePublisher struct {
	scope       ScopeId
	ok          bool
	invalidated []ScopeId
}

func (f *fakePublisher) invalidate(scope ScopeId)            { f.invalidated = append(f.invalidated, scope) }
func (f *fakePublisher) currentReaderScope() (ScopeId, bool) { return f.scope, f.ok }
