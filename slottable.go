package compose

import "fmt"

// slotKind distinguishes the three things a SlotTable position can hold
// (spec §3 "SlotTable (linear buffer + cursor)").
type slotKind int

const (
	slotGroup slotKind = iota
	slotNode
	slotValue
)

func (k slotKind) String() string {
	switch k {
	case slotGroup:
		return "group"
	case slotNode:
		return "node"
	case slotValue:
		return "value"
	default:
		return "unknown"
	}
}

// groupInfo is the payload of a slotGroup slot.
type groupInfo struct {
	key             Key
	scope           ScopeId // 0 means "no restartable scope registered"
	span            int     // total slot count covered, including this marker
	generation      uint64
	restoredFromGap bool
}

// slot is one cell of the linear slot buffer.
type slot struct {
	kind slotKind

	group groupInfo // valid when kind == slotGroup

	nodeID NodeId // valid when kind == slotNode

	value     any    // valid when kind == slotValue
	valueType string // type-id tag recorded at remember time, for reuse checks
}

// groupFrame is the open-group bookkeeping pushed by BeginGroup and popped
// by EndGroup.
type groupFrame struct {
	start   int // index of the group's own marker slot
	oldSpan int // span recorded when this frame was entered (0 for a fresh insert)
}

// gapBlocks holds whole group blocks (marker slot followed by its full
// descendant span) evicted from a shrinking or reordered parent, keyed by
// the evicted group's key. A later BeginGroup with the same key splices
// the most recently evicted block back in verbatim, restoring remembered
// values and node identity (spec §4.1 gap restoration).
type gapBlocks = map[Key][][]slot

// SlotTable is the linear, gap-aware store of groups, node markers, and
// remembered values described in spec §3/§4.1. A single table may be
// re-entered many times across a process's lifetime; between compositions
// its content persists so that `remember`ed values and node identity
// survive recomposition.
type SlotTable struct {
	slots      []slot
	cursor     int
	groupStack []groupFrame

	gaps gapBlocks

	// scopeIndex maps a registered ScopeId to the current index of its
	// group's marker slot, so BeginRecomposeAtScope can jump straight there
	// without a linear scan.
	scopeIndex map[ScopeId]int

	generation uint64
}

// NewSlotTable creates an empty slot table with its cursor at position 0.
func NewSlotTable() *SlotTable {
	return &SlotTable{
		gaps:       make(gapBlocks),
		scopeIndex: make(map[ScopeId]int),
	}
}

// Cursor returns the current read/write position, for diagnostics.
func (t *SlotTable) Cursor() int { return t.cursor }

// Len returns the total number of slots currently stored (excluding gaps).
func (t *SlotTable) Len() int { return len(t.slots) }

// GapCount returns the number of distinct keys currently holding gapped
// blocks, for diagnostics and tests.
func (t *SlotTable) GapCount() int { return len(t.gaps) }

// currentParentEnd returns the exclusive end index of the innermost open
// group's stale-content region (or len(t.slots) at the root).
func (t *SlotTable) currentParentEnd() int {
	if len(t.groupStack) == 0 {
		return len(t.slots)
	}
	top := t.groupStack[len(t.groupStack)-1]
	if top.oldSpan == 0 {
		// Freshly inserted parent: there is no stale sibling region to
		// search past whatever has been written so far.
		return t.cursor
	}
	end := top.start + top.oldSpan
	if end > len(t.slots) {
		end = len(t.slots)
	}
	return end
}

// BeginGroup opens or re-enters a group at the cursor (spec §4.1).
//
//  1. If the slot at the cursor is already a group with a matching key,
//     re-enter it in place.
//  2. Else, look ahead among the remaining stale siblings of the enclosing
//     group for one with a matching key (supports cheap keyed reordering)
//     and rotate it to the front.
//  3. Else, look in the gap for a block evicted under this key in a past
//     composition and splice it back in (restoredFromGap = true).
//  4. Else, insert a brand new group marker.
func (t *SlotTable) BeginGroup(key Key) (restoredFromGap bool) {
	if t.cursor < len(t.slots) && t.slots[t.cursor].kind == slotGroup && t.slots[t.cursor].group.key == key {
		t.pushFrame(t.cursor)
		return false
	}

	parentEnd := t.currentParentEnd()
	if j, span := t.findSiblingGroup(t.cursor, parentEnd, key); j >= 0 {
		t.rotateBlockToFront(j, span)
		t.pushFrame(t.cursor)
		return false
	}

	if block, ok := t.popGap(key); ok {
		block[0].group.restoredFromGap = true
		t.insertBlock(t.cursor, block)
		t.pushFrame(t.cursor)
		return true
	}

	t.generation++
	g := slot{kind: slotGroup, group: groupInfo{key: key, span: 1, generation: t.generation}}
	t.insertBlock(t.cursor, []slot{g})
	t.groupStack = append(t.groupStack, groupFrame{start: t.cursor, oldSpan: 0})
	t.cursor++
	return false
}

// pushFrame opens a groupStack frame for the group marker at start and
// advances the cursor past it, registering the group's scope if any.
func (t *SlotTable) pushFrame(start int) {
	oldSpan := t.slots[start].group.span
	t.groupStack = append(t.groupStack, groupFrame{start: start, oldSpan: oldSpan})
	if scope := t.slots[start].group.scope; scope != 0 {
		t.scopeIndex[scope] = start
	}
	t.cursor = start + 1
}

// findSiblingGroup scans [from, end) for a top-level group slot with the
// given key, skipping over nested group spans wholesale, returning its
// index and span, or (-1, 0) if absent.
func (t *SlotTable) findSiblingGroup(from, end int, key Key) (index, span int) {
	i := from
	for i < end && i < len(t.slots) {
		s := t.slots[i]
		if s.kind == slotGroup {
			if s.group.key == key {
				return i, s.group.span
			}
			i += s.group.span
			continue
		}
		i++
	}
	return -1, 0
}

// rotateBlockToFront removes the span-sized block starting at index and
// reinserts it at t.cursor (which is always <= index).
func (t *SlotTable) rotateBlockToFront(index, span int) {
	if index == t.cursor {
		return
	}
	block := make([]slot, span)
	copy(block, t.slots[index:index+span])
	rest := append([]slot{}, t.slots[:index]...)
	rest = append(rest, t.slots[index+span:]...)
	t.slots = rest
	t.insertBlock(t.cursor, block)
}

// insertBlock inserts block at index.
func (t *SlotTable) insertBlock(index int, block []slot) {
	out := make([]slot, 0, len(t.slots)+len(block))
	out = append(out, t.slots[:index]...)
	out = append(out, block...)
	out = append(out, t.slots[index:]...)
	t.slots = out
}

// popGap removes and returns the most recently gapped block for key, if any.
func (t *SlotTable) popGap(key Key) ([]slot, bool) {
	blocks := t.gaps[key]
	if len(blocks) == 0 {
		return nil, false
	}
	last := blocks[len(blocks)-1]
	blocks = blocks[:len(blocks)-1]
	if len(blocks) == 0 {
		delete(t.gaps, key)
	} else {
		t.gaps[key] = blocks
	}
	return last, true
}

func (t *SlotTable) pushGap(key Key, block []slot) {
	t.gaps[key] = append(t.gaps[key], block)
}

// EndGroup closes the group opened by the matching BeginGroup. Any slots
// between the cursor and the group's former end (i.e. stale content this
// pass didn't touch or reorder back in) are moved, whole sub-group at a
// time, into the gap. The group's span is fixed to cover exactly what was
// written this pass.
func (t *SlotTable) EndGroup() {
	if len(t.groupStack) == 0 {
		panic("compose: EndGroup with no matching BeginGroup")
	}
	frame := t.groupStack[len(t.groupStack)-1]
	t.groupStack = t.groupStack[:len(t.groupStack)-1]

	t.trimTrailing(frame)

	newSpan := t.cursor - frame.start
	t.slots[frame.start].group.span = newSpan
}

// trimTrailing moves any unconsumed sibling groups remaining in
// [t.cursor, frame.start+frame.oldSpan) into the gap, and discards any
// bare node/value slots in that range (they carry no restorable identity
// of their own — identity lives at the enclosing group).
func (t *SlotTable) trimTrailing(frame groupFrame) (shrank bool) {
	if frame.oldSpan == 0 {
		return false
	}
	oldEnd := frame.start + frame.oldSpan
	if oldEnd > len(t.slots) {
		oldEnd = len(t.slots)
	}
	if t.cursor >= oldEnd {
		return false
	}
	i := t.cursor
	for i < oldEnd {
		s := t.slots[i]
		if s.kind == slotGroup {
			span := s.group.span
			block := make([]slot, span)
			copy(block, t.slots[i:i+span])
			t.pushGap(s.group.key, block)
			i += span
			continue
		}
		i++
	}
	t.slots = append(t.slots[:t.cursor], t.slots[oldEnd:]...)
	return true
}

// FinalizeCurrentGroup trims any trailing unconsumed slots of the
// currently-open group into the gap without closing the group, and
// reports whether the group shrank as a result.
func (t *SlotTable) FinalizeCurrentGroup() (shrank bool) {
	if len(t.groupStack) == 0 {
		return false
	}
	frame := t.groupStack[len(t.groupStack)-1]
	shrank = t.trimTrailing(frame)
	frame.oldSpan = t.cursor - frame.start
	t.groupStack[len(t.groupStack)-1] = frame
	return shrank
}

// SetGroupScope associates the currently open group with a restartable
// scope so the recomposer can later jump straight to it.
func (t *SlotTable) SetGroupScope(scope ScopeId) {
	if len(t.groupStack) == 0 {
		panic("compose: SetGroupScope outside any group")
	}
	start := t.groupStack[len(t.groupStack)-1].start
	t.slots[start].group.scope = scope
	t.scopeIndex[scope] = start
}

// CurrentGroupScope returns the restartable scope registered against the
// innermost open group, if any.
func (t *SlotTable) CurrentGroupScope() (ScopeId, bool) {
	if len(t.groupStack) == 0 {
		return 0, false
	}
	start := t.groupStack[len(t.groupStack)-1].start
	s := t.slots[start].group.scope
	return s, s != 0
}

// ReenterCurrentGroup pushes a group frame for the group marker sitting at
// the cursor without checking its key — used by BeginRecomposeAtScope
// callers, which have already positioned the cursor at the exact group
// they mean to re-run.
func (t *SlotTable) ReenterCurrentGroup() {
	if t.cursor >= len(t.slots) || t.slots[t.cursor].kind != slotGroup {
		panic("compose: ReenterCurrentGroup at non-group slot")
	}
	t.pushFrame(t.cursor)
}

// CurrentGroupRestoredFromGap reports whether the innermost open group's
// content was spliced back in from the gap rather than freshly entered or
// created.
func (t *SlotTable) CurrentGroupRestoredFromGap() bool {
	if len(t.groupStack) == 0 {
		return false
	}
	start := t.groupStack[len(t.groupStack)-1].start
	return t.slots[start].group.restoredFromGap
}

// SkipCurrentGroup advances the cursor past the group at the cursor without
// entering it — used when none of the composable's declared inputs changed
// and no directly-read state is dirty.
func (t *SlotTable) SkipCurrentGroup() {
	if t.cursor >= len(t.slots) || t.slots[t.cursor].kind != slotGroup {
		panic(fmt.Sprintf("compose: SkipCurrentGroup at non-group slot %d", t.cursor))
	}
	t.cursor += t.slots[t.cursor].group.span
}

// RecordNode emits a node marker at the cursor, or, if the cursor already
// holds a node marker, re-binds it to id (used when a previously emitted
// node is updated in place rather than recreated).
func (t *SlotTable) RecordNode(id NodeId) {
	if t.cursor < len(t.slots) {
		if t.slots[t.cursor].kind != slotNode {
			panic(&StructuralMismatchError{Index: t.cursor, Expected: slotNode, Actual: t.slots[t.cursor].kind})
		}
		t.slots[t.cursor].nodeID = id
		t.cursor++
		return
	}
	t.slots = append(t.slots, slot{kind: slotNode, nodeID: id})
	t.cursor++
}

// PeekNode reports the node id at the cursor without advancing, and
// whether a node slot is actually present there.
func (t *SlotTable) PeekNode() (id NodeId, ok bool) {
	if t.cursor >= len(t.slots) || t.slots[t.cursor].kind != slotNode {
		return 0, false
	}
	return t.slots[t.cursor].nodeID, true
}

// Remember returns a stable-identity value slot at the cursor: on first
// visit it calls init and stores the result tagged with typeTag; on
// subsequent visits (provided typeTag still matches) it returns the stored
// value unchanged. A type mismatch on reuse discards the stale slot and
// reinitializes, per spec §4.1's gap-restoration invariant ("value type-id
// must match on reuse or the slot is discarded").
func (t *SlotTable) Remember(typeTag string, init func() any) any {
	if t.cursor < len(t.slots) {
		s := t.slots[t.cursor]
		if s.kind == slotValue && s.valueType == typeTag {
			t.cursor++
			return s.value
		}
		if s.kind == slotValue {
			v := init()
			t.slots[t.cursor] = slot{kind: slotValue, value: v, valueType: typeTag}
			t.cursor++
			return v
		}
		panic(&StructuralMismatchError{Index: t.cursor, Expected: slotValue, Actual: s.kind})
	}
	v := init()
	t.slots = append(t.slots, slot{kind: slotValue, value: v, valueType: typeTag})
	t.cursor++
	return v
}

// recomposeFrame is pushed onto a side stack by BeginRecomposeAtScope so
// EndRecompose can restore the table to its pre-jump cursor/group-stack
// state.
type recomposeFrame struct {
	cursor     int
	groupStack []groupFrame
}

// BeginRecomposeAtScope re-enters at the group of a previously observed
// scope, restoring the cursor stack so nested WithGroup/EndGroup calls
// inside the re-run body behave exactly as a fresh top-to-bottom pass
// would. Returns ErrScopeLost if the scope's group no longer exists (the
// owning subtree was removed in the meantime) — a benign no-op per §4.2.
func (t *SlotTable) BeginRecomposeAtScope(scope ScopeId) (*recomposeFrame, error) {
	start, ok := t.scopeIndex[scope]
	if !ok || start >= len(t.slots) || t.slots[start].kind != slotGroup || t.slots[start].group.scope != scope {
		return nil, ErrScopeLost
	}
	saved := &recomposeFrame{cursor: t.cursor, groupStack: append([]groupFrame{}, t.groupStack...)}
	t.cursor = start
	t.groupStack = nil
	return saved, nil
}

// EndRecompose restores the slot table's cursor/group stack to what it was
// before the matching BeginRecomposeAtScope call.
func (t *SlotTable) EndRecompose(saved *recomposeFrame) {
	t.cursor = saved.cursor
	t.groupStack = saved.groupStack
}

// Flush compacts gap storage opportunistically. keep is consulted once per
// gapped block; a nil keep drops every gapped block unconditionally (an
// aggressive default appropriate for tests and for a "viewport changed,
// discard all gap history" reset).
func (t *SlotTable) Flush(keep func(key Key, block []slot) bool) {
	for key, blocks := range t.gaps {
		if keep == nil {
			delete(t.gaps, key)
			continue
		}
		kept := blocks[:0]
		for _, b := range blocks {
			if keep(key, b) {
				kept = append(kept, b)
			}
		}
		if len(kept) == 0 {
			delete(t.gaps, key)
		} else {
			t.gaps[key] = kept
		}
	}
}
