package compose

import "fmt"

// Composer drives one composition pass over a SlotTable, tracking group
// nesting depth and the stack of restartable scopes currently executing so
// that State reads register against the right scope (spec §3 "Composer").
// A single Composer instance is threaded through an entire composition
// root's lifetime — initial composition and every later recomposition
// pass reuse it.
type Composer struct {
	table *SlotTable
	rec   *Recomposer

	scopeStack []ScopeId
	depth      int
}

// NewComposer binds a slot table to a recomposer.
func NewComposer(table *SlotTable, rec *Recomposer) *Composer {
	return &Composer{table: table, rec: rec}
}

// Table returns the underlying slot table, for callers (subcomposition,
// diagnostics) that need direct access.
func (c *Composer) Table() *SlotTable { return c.table }

// Recomposer returns the bound recomposer.
func (c *Composer) Recomposer() *Recomposer { return c.rec }

// Depth returns the current group nesting depth, used as the priority key
// when registering a restartable scope.
func (c *Composer) Depth() int { return c.depth }

// invalidate satisfies invalidationPublisher by delegating to the
// recomposer's queue.
func (c *Composer) invalidate(scope ScopeId) { c.rec.invalidate(scope) }

// currentReaderScope satisfies invalidationPublisher: a State read during
// composition registers against whichever restartable scope is innermost
// on the stack, or no scope at all if composition is happening outside
// any (a State read at the root, before any RestartableScope, has no
// reader to invalidate — writing it only takes effect on the next full
// ComposeInitial).
func (c *Composer) currentReaderScope() (ScopeId, bool) {
	if len(c.scopeStack) == 0 {
		return 0, false
	}
	return c.scopeStack[len(c.scopeStack)-1], true
}

// WithGroup opens a plain (non-restartable) group keyed by key, runs body,
// and closes it. Use this for structural nesting that doesn't need its own
// skip-on-equal-input rerun entry point (most composables; see
// RestartableScope for the ones that do).
func (c *Composer) WithGroup(key Key, body func()) {
	c.table.BeginGroup(key)
	c.depth++
	body()
	c.depth--
	c.table.EndGroup()
}

// RestartableScope opens a group keyed by key and registers (on first
// entry) or reuses (on later entries) a restartable scope for it, so a
// State write that invalidates this scope can later re-run body alone
// without recomposing any ancestor (spec §4.2). body receives the
// Composer so it can keep composing children.
func (c *Composer) RestartableScope(key Key, body func(c *Composer)) ScopeId {
	c.table.BeginGroup(key)

	scope, ok := c.table.CurrentGroupScope()
	if !ok {
		scope = c.rec.RegisterScope(c.depth, func() error {
			return c.recomposeAt(scope, body)
		})
		c.table.SetGroupScope(scope)
	}

	c.scopeStack = append(c.scopeStack, scope)
	c.depth++
	body(c)
	c.depth--
	c.scopeStack = c.scopeStack[:len(c.scopeStack)-1]
	c.table.EndGroup()
	return scope
}

// recomposeAt re-enters the group owned by scope in isolation — the
// slot-table cursor jumps straight to it (BeginRecomposeAtScope) instead
// of walking down from the root, and the cursor/group stack is restored
// to its prior state afterward so the outer composition pass (if any is
// in progress) is unaffected.
func (c *Composer) recomposeAt(scope ScopeId, body func(c *Composer)) error {
	frame, err := c.table.BeginRecomposeAtScope(scope)
	if err != nil {
		// Scope's group no longer exists — the owning subtree was removed.
		// Benign no-op per spec §4.2.
		return nil
	}

	rec, ok := c.rec.scopes[scope]
	if !ok {
		c.table.EndRecompose(frame)
		return nil
	}

	savedStack, savedDepth := c.scopeStack, c.depth
	c.scopeStack = []ScopeId{scope}
	c.depth = rec.depth

	c.table.ReenterCurrentGroup()
	c.depth++
	body(c)
	c.depth--
	c.table.EndGroup()

	c.table.EndRecompose(frame)
	c.scopeStack, c.depth = savedStack, savedDepth
	return nil
}

// EmitNode resolves the node living at the cursor, if any: if one is
// present it's handed to update and rebound in place, otherwise create
// builds a fresh value and it's inserted fresh (spec §3 Applier + SlotTable
// node slots working together). T is the applier's owned node type — in
// practice the single concrete LayoutNode type the measure/paint pipeline
// operates on, but kept generic so tests can exercise the composer against
// a bare placeholder node type.
func EmitNode[T any](c *Composer, applier *Applier[T], create func() T, update func(existing T)) NodeId {
	if id, ok := c.table.PeekNode(); ok {
		if existing, ok := applier.Get(id); ok {
			update(existing)
			c.table.RecordNode(id)
			return id
		}
	}
	value := create()
	id := applier.Insert(value)
	c.table.RecordNode(id)
	return id
}

// Remember returns a stable-identity value at the cursor, computing it
// with init only the first time this call site is visited (spec §3
// "Remember"). V's dynamic type tags the slot so a structural change at
// the same position (a conditional swapping branches) correctly discards
// and reinitializes rather than returning a foreign value in disguise.
func Remember[V any](c *Composer, init func() V) V {
	var zero V
	tag := fmt.Sprintf("%T", zero)
	raw := c.table.Remember(tag, func() any { return init() })
	return raw.(V)
}

// MutableStateOf remembers a *State[V] seeded with initial, wiring it to
// this Composer so reads register the active scope and writes enqueue
// invalidation (spec §3 "MutableStateOf"). equal may be nil to fall back
// to "every Set is a change" (safe default for non-comparable V).
func MutableStateOf[V any](c *Composer, initial V, equal EqualityPolicy[V]) *State[V] {
	return Remember(c, func() *State[V] {
		s := NewState(initial, equal)
		s.Attach(c)
		return s
	})
}

// SubcomposeIn runs body against a slot table borrowed from a remembered
// subcomposition host keyed by slotKey, letting a layout phase composable
// (e.g. a lazy list populating only its visible range) defer composing its
// children until it knows its own constraints (spec §4.6 "subcomposition
// at measure"). The nested table and its own Recomposer/Composer triple
// are retained across recompositions of the parent the same way any other
// Remembered value is.
func (c *Composer) SubcomposeIn(slotKey Key, body func(child *Composer)) {
	host := Remember(c, func() *subcomposeHost {
		table := NewSlotTable()
		rec := NewRecomposer()
		return &subcomposeHost{table: table, rec: rec, child: NewComposer(table, rec)}
	})
	host.rec.ComposeInitial(host.child, slotKey, func(cc *Composer) { body(cc) })
}

type subcomposeHost struct {
	table *SlotTable
	rec   *Recomposer
	child *Composer
}
