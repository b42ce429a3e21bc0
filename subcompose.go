package compose

// subcomposeRootKey is the fixed call-site key every SubcomposeState slot's
// private root group re-enters on each pass — stable because it is
// computed once from this single source location (spec §4.1 "stable
// across runs at the same source revision").
var subcomposeRootKey = NewKey("subcompose-slot-root")

// subcomposeSlot is one retained child composition: its own slot table,
// recomposer, and composer, plus the node ids it last emitted.
type subcomposeSlot struct {
	composer *Composer
	rec      *Recomposer
	nodeIds  []NodeId
}

// SubcomposeState backs a measure-time-driven layout (spec §4.7): a
// private slot-table per slotId, content run lazily by the MeasurePolicy
// once it knows its constraints, and a deterministic retention policy for
// slots that fall out of use (spec §9 open question: retention policy is
// implementation-defined but must be deterministic — this implementation
// keeps the RetainLast most-recently-used inactive slots and disposes the
// rest, oldest first).
type SubcomposeState struct {
	tree       *LayoutTree
	retainLast int

	slots           map[string]*subcomposeSlot
	lru             []string // oldest-used .. newest-used
	touchedThisPass map[string]bool
}

// NewSubcomposeState creates a subcompose host bound to tree, retaining up
// to retainLast inactive slots across passes.
func NewSubcomposeState(tree *LayoutTree, retainLast int) *SubcomposeState {
	return &SubcomposeState{
		tree:       tree,
		retainLast: retainLast,
		slots:      make(map[string]*subcomposeSlot),
	}
}

// BeginPass starts a new subcomposition pass, clearing the touched-set a
// MeasurePolicy will populate via Subcompose calls.
func (s *SubcomposeState) BeginPass() {
	s.touchedThisPass = make(map[string]bool)
}

// Subcompose runs content against slotId's retained (or freshly created)
// private composer, returning the node ids it emitted this pass. Calling
// it more than once per slotId within a pass simply recomposes the same
// slot again (content is expected to be idempotent for fixed inputs, as
// any composable body is).
func (s *SubcomposeState) Subcompose(slotId string, content func(c *Composer) []NodeId) []NodeId {
	slot, ok := s.slots[slotId]
	if !ok {
		table := NewSlotTable()
		rec := NewRecomposer()
		slot = &subcomposeSlot{composer: NewComposer(table, rec), rec: rec}
		s.slots[slotId] = slot
	}

	var emitted []NodeId
	slot.rec.ComposeInitial(slot.composer, subcomposeRootKey, func(cc *Composer) {
		emitted = content(cc)
	})
	slot.rec.ProcessInvalidScopes()
	slot.nodeIds = emitted

	s.touchedThisPass[slotId] = true
	s.touchLRU(slotId)
	return emitted
}

func (s *SubcomposeState) touchLRU(id string) {
	s.removeLRU(id)
	s.lru = append(s.lru, id)
}

func (s *SubcomposeState) removeLRU(id string) {
	for i, x := range s.lru {
		if x == id {
			s.lru = append(s.lru[:i], s.lru[i+1:]...)
			return
		}
	}
}

// FinalizeUnused disposes slots this pass didn't touch beyond the
// RetainLast most-recently-used of them, removing their node ids from the
// owning LayoutTree's applier. Call once per measure pass after the
// MeasurePolicy body finishes calling Subcompose.
func (s *SubcomposeState) FinalizeUnused() {
	var inactive []string
	for _, id := range s.lru {
		if !s.touchedThisPass[id] {
			inactive = append(inactive, id)
		}
	}
	keep := s.retainLast
	if keep < 0 {
		keep = 0
	}
	evict := len(inactive) - keep
	for i := 0; i < evict; i++ {
		id := inactive[i]
		slot := s.slots[id]
		delete(s.slots, id)
		s.removeLRU(id)
		if slot == nil {
			continue
		}
		for _, nodeID := range slot.nodeIds {
			s.tree.applier.Remove(nodeID)
		}
	}
}

// SlotCount reports the number of currently retained slots, active and
// inactive, for tests of the retention policy.
func (s *SubcomposeState) SlotCount() int { return len(s.slots) }

// SubcomposeMeasurePolicy adapts a constraints-driven content function
// into a MeasurePolicy, so a SubcomposeLayoutNode (e.g. a lazily-populated
// list) can defer composing its children until its own measure call knows
// the available space (spec §4.7). Intrinsic queries are not meaningfully
// derivable without actually running content, so they report permissive
// defaults (0 / Inf) — acceptable since intrinsic sizing of a
// subcompose-driven layout is inherently approximate.
type SubcomposeMeasurePolicy struct {
	State *SubcomposeState
	MeasureFn func(ctx *MeasureContext, subcompose func(slotId string, content func(c *Composer) []NodeId) []NodeId, constraints Constraints) MeasureResult
}

func (p *SubcomposeMeasurePolicy) Measure(ctx *MeasureContext, _ []Measurable, constraints Constraints) MeasureResult {
	p.State.BeginPass()
	result := p.MeasureFn(ctx, p.State.Subcompose, constraints)
	p.State.FinalizeUnused()
	return result
}

func (p *SubcomposeMeasurePolicy) MinIntrinsicWidth(*MeasureContext, []IntrinsicMeasurable, float64) float64 {
	return 0
}
func (p *SubcomposeMeasurePolicy) MaxIntrinsicWidth(*MeasureContext, []IntrinsicMeasurable, float64) float64 {
	return Inf
}
func (p *SubcomposeMeasurePolicy) MinIntrinsicHeight(*MeasureContext, []IntrinsicMeasurable, float64) float64 {
	return 0
}
func (p *SubcomposeMeasurePolicy) MaxIntrinsicHeight(*MeasureContext, []IntrinsicMeasurable, float64) float64 {
	return Inf
}

var _ MeasurePolicy = (*SubcomposeMeasurePolicy)(nil)
