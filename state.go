package compose

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// snapshotId is the per-task snapshot a composition pass is running under
// (spec §4.3 "snapshot semantics": a state observed twice within one pass
// yields the same value; changes apply at phase boundaries). The runtime
// is single-threaded (spec §5), so a single global counter is sufficient —
// there is exactly one "current" snapshot at a time.
type snapshotId uint64

var currentSnapshot snapshotId = 1

// AdvanceSnapshot opens a new snapshot, making any previously-applied
// writes visible and starting a fresh "observed once per pass" window. The
// recomposer calls this once per recomposition pass.
func AdvanceSnapshot() { currentSnapshot++ }

// snapshotNamespace seeds the deterministic UUIDs SnapshotHandle derives,
// so the same snapshot counter value always maps to the same external id
// within one process family — useful for a harness's replay log, which
// needs a stable handle for "the point-in-time read that happened here"
// without relying on wall-clock uniqueness (spec §4.3 "Snapshot
// semantics").
var snapshotNamespace = uuid.MustParse("8f14e45f-ceea-467e-9f89-0c5a0a8e3d6f")

// SnapshotHandle is an opaque external identifier for a point-in-time
// snapshot (SPEC_FULL §B: "a stable external handle to a point-in-time
// read").
type SnapshotHandle = uuid.UUID

// CurrentSnapshotHandle derives a stable handle for the current snapshot.
// Calling it twice without an intervening AdvanceSnapshot returns the same
// value.
func CurrentSnapshotHandle() SnapshotHandle {
	return uuid.NewSHA1(snapshotNamespace, []byte(fmt.Sprintf("%d", currentSnapshot)))
}

// EqualityPolicy decides whether two values of a state should be
// considered equal for the purposes of a no-op Set (spec §4.3: "set with
// equal value is a no-op"). A nil policy (as passed to NewState or
// MutableStateOf) treats every Set as a change; StructuralEqual applies only
// where it is passed explicitly.
type EqualityPolicy[T any] func(a, b T) bool

// StructuralEqual is the equality policy for comparable types: ==. Types
// that aren't comparable (slices, maps, funcs) must supply their own
// EqualityPolicy to State/MutableStateOf, or every Set is treated as a
// change.
func StructuralEqual[T comparable](a, b T) bool { return a == b }

// stateReader is the type-erased side of a State a scope registers itself
// against; it exists so the recomposer's invalid-scope queue doesn't need
// to be generic over T.
type stateReader interface {
	addReader(s ScopeId)
	removeReader(s ScopeId)
}

// State is a versioned, read-tracked mutable cell (spec §4.3). Reading
// Get() inside a composition registers the enclosing scope as a reader;
// writing Set()/Update() publishes the new value to every registered
// reader, enqueuing each as invalid unless the equality policy says the
// value didn't change.
type State[T any] struct {
	value     T
	version   snapshotId
	readers   map[ScopeId]struct{}
	equal     EqualityPolicy[T]
	publisher invalidationPublisher
}

// invalidationPublisher is supplied by the Composer/Recomposer so State
// writes can enqueue reader scopes without the state package depending on
// the recomposer type directly.
type invalidationPublisher interface {
	invalidate(scope ScopeId)
	currentReaderScope() (ScopeId, bool)
}

// NewState creates a detached State not tied to any composition — mostly
// useful for tests and for background-task result cells that get wired to
// a publisher later via Attach.
func NewState[T any](initial T, equal EqualityPolicy[T]) *State[T] {
	if equal == nil {
		equal = func(a, b T) bool { return false }
	}
	return &State[T]{value: initial, version: currentSnapshot, readers: make(map[ScopeId]struct{}), equal: equal}
}

// Attach wires a publisher into the state so Get()/Set() participate in
// scope invalidation. Idempotent.
func (s *State[T]) Attach(p invalidationPublisher) { s.publisher = p }

// Get reads the current value and, if called during composition,
// registers the currently-composing scope as a reader.
func (s *State[T]) Get() T {
	if s.publisher != nil {
		if scope, ok := s.publisher.currentReaderScope(); ok {
			s.readers[scope] = struct{}{}
		}
	}
	return s.value
}

// Peek reads the current value without registering a reader — used by
// code that observes state but must not become a recomposition dependency
// (e.g. effect bodies reading the latest value on cancellation).
func (s *State[T]) Peek() T { return s.value }

// Set writes v. If v equals the current value under the equality policy,
// this is a no-op (no version bump, no invalidation). Otherwise every
// registered reader scope is enqueued as invalid and the reader set is
// cleared (scopes re-register on their next run if they still read it).
func (s *State[T]) Set(v T) {
	if s.equal(s.value, v) {
		return
	}
	s.value = v
	s.version = currentSnapshot
	if s.publisher == nil {
		return
	}
	readers := make([]ScopeId, 0, len(s.readers))
	for scope := range s.readers {
		readers = append(readers, scope)
	}
	clear(s.readers)
	sort.Slice(readers, func(i, j int) bool { return readers[i] < readers[j] })
	for _, scope := range readers {
		s.publisher.invalidate(scope)
	}
}

// Update reads the current value, applies f, and writes the result back
// (equivalent to s.Set(f(s.Peek()))). Provided because update-in-place is
// the common case for counters/accumulators and composing Get+Set at call
// sites is easy to get wrong under concurrent background writers.
func (s *State[T]) Update(f func(T) T) { s.Set(f(s.Peek())) }

// readerCount reports how many scopes currently read this state; exposed
// for tests of "readers-set is allowed to shrink when unobserved" (§5).
func (s *State[T]) readerCount() int { return len(s.readers) }

func (s *State[T]) addReader(scope ScopeId)    { s.readers[scope] = struct{}{} }
func (s *State[T]) removeReader(scope ScopeId) { delete(s.readers, scope) }

// Derived lazily recomputes a value from a compute function the first time
// it's read after being marked stale, and caches the result until an
// upstream dependency invalidates it again. Unlike State, Derived has no
// Set: it is a read-only projection (spec §4.3).
type Derived[T any] struct {
	compute func() T
	value   T
	stale   bool
}

// NewDerived creates a Derived value. It starts stale, so the first Get
// always calls compute.
func NewDerived[T any](compute func() T) *Derived[T] {
	return &Derived[T]{compute: compute, stale: true}
}

// Get returns the cached value, recomputing first if stale.
func (d *Derived[T]) Get() T {
	if d.stale {
		d.value = d.compute()
		d.stale = false
	}
	return d.value
}

// Invalidate marks the derived value stale, so the next Get recomputes.
// Call this from the dependency's invalidation path (typically a State's
// writer installs a callback that calls Invalidate on every dependent
// Derived).
func (d *Derived[T]) Invalidate() { d.stale = true }
