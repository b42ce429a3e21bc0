package compose

import "sort"

// maxRecomposePasses bounds ProcessInvalidScopes against a pathological
// cycle where recomposing a scope keeps marking itself (or a sibling)
// invalid forever. A well-behaved composition converges in one or two
// passes; this is a backstop, not a budget callers should ever approach.
const maxRecomposePasses = 10000

type scopeRecord struct {
	depth int
	rerun func() error
	valid bool
}

// Recomposer owns the set of registered restartable scopes and the queue
// of scopes a State write has marked invalid (spec §4.2 "invalid-scope
// priority queue keyed by tree depth"). Processing drains shallowest
// scopes first, since a parent's rerun can dispose or replace children
// before their own stale reruns would otherwise waste work.
type Recomposer struct {
	nextScope uint32
	scopes    map[ScopeId]*scopeRecord
	invalid   map[ScopeId]struct{}

	activeScope ScopeId
	activeValid bool

	// effectStops holds the cancellation callbacks launch_effect tasks
	// registered against each scope, run when the scope is disposed (spec
	// §5 "cancellation occurs when the launching group is removed").
	effectStops map[ScopeId][]func()
}

// NewRecomposer creates an empty recomposer.
func NewRecomposer() *Recomposer {
	return &Recomposer{
		scopes:      make(map[ScopeId]*scopeRecord),
		invalid:     make(map[ScopeId]struct{}),
		effectStops: make(map[ScopeId][]func()),
	}
}

// registerEffect records stop to be called if scope is ever disposed. Used
// by LaunchEffect (effect.go) to tie a cooperative task's lifetime to its
// launching scope.
func (r *Recomposer) registerEffect(scope ScopeId, stop func()) {
	r.effectStops[scope] = append(r.effectStops[scope], stop)
}

// RegisterScope records a restartable scope's rerun body at the given
// composition depth and returns its fresh ScopeId.
func (r *Recomposer) RegisterScope(depth int, rerun func() error) ScopeId {
	r.nextScope++
	id := ScopeId(r.nextScope)
	r.scopes[id] = &scopeRecord{depth: depth, rerun: rerun, valid: true}
	return id
}

// DisposeScope removes a scope, drops any pending invalidation for it, and
// runs the stop callbacks of effects launched in it, so a stale rerun
// closure never fires against a torn-down subtree. Nothing in this package
// calls it: the slot table does not dispose scopes when it gaps or drops a
// group.
func (r *Recomposer) DisposeScope(id ScopeId) {
	if rec, ok := r.scopes[id]; ok {
		rec.valid = false
	}
	delete(r.scopes, id)
	delete(r.invalid, id)
	for _, stop := range r.effectStops[id] {
		stop()
	}
	delete(r.effectStops, id)
}

// invalidate marks scope as needing a rerun on the next
// ProcessInvalidScopes call. Satisfies the invalidationPublisher interface
// consumed by State.
func (r *Recomposer) invalidate(scope ScopeId) {
	if rec, ok := r.scopes[scope]; ok && rec.valid {
		r.invalid[scope] = struct{}{}
	}
}

// PendingCount reports how many scopes are currently queued invalid, for
// tests and shell-loop "is there more work this frame" checks.
func (r *Recomposer) PendingCount() int { return len(r.invalid) }

// ProcessInvalidScopes drains the invalid-scope queue, shallowest scopes
// first, until it empties or maxRecomposePasses is hit. It returns the
// number of scope reruns performed and the first error any rerun body
// returned (processing continues past an error — one scope's failure
// mustn't starve its unrelated siblings).
func (r *Recomposer) ProcessInvalidScopes() (processed int, firstErr error) {
	for pass := 0; pass < maxRecomposePasses && len(r.invalid) > 0; pass++ {
		batch := make([]ScopeId, 0, len(r.invalid))
		for id := range r.invalid {
			batch = append(batch, id)
		}
		sort.Slice(batch, func(i, j int) bool {
			di, dj := r.depthOf(batch[i]), r.depthOf(batch[j])
			if di != dj {
				return di < dj
			}
			return batch[i] < batch[j]
		})

		for _, id := range batch {
			if _, stillInvalid := r.invalid[id]; !stillInvalid {
				continue // a shallower rerun already consumed/disposed this one
			}
			delete(r.invalid, id)
			rec, ok := r.scopes[id]
			if !ok || !rec.valid {
				continue
			}
			r.activeScope, r.activeValid = id, true
			err := rec.rerun()
			r.activeValid = false
			processed++
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return processed, firstErr
}

func (r *Recomposer) depthOf(id ScopeId) int {
	if rec, ok := r.scopes[id]; ok {
		return rec.depth
	}
	return 0
}

// ComposeInitial runs body under a fresh snapshot from the start of c's
// slot table (spec §4.2 "ComposeInitial"): the first call builds the
// initial tree, a later call re-enters the same root group.
func (r *Recomposer) ComposeInitial(c *Composer, rootKey Key, body func(c *Composer)) {
	AdvanceSnapshot()
	c.table.cursor = 0
	c.WithGroup(rootKey, func() { body(c) })
}

// RunFrame advances the snapshot and drains the invalid-scope queue — the
// per-frame composition step an AppShell's frame loop calls before
// entering the measure/place/paint phases.
func (r *Recomposer) RunFrame() (processed int, err error) {
	AdvanceSnapshot()
	return r.ProcessInvalidScopes()
}
