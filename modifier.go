package compose

import "fmt"

// Capability is a bitmask of which pipeline stages a modifier node
// participates in (spec §3 "Capability bitset").
type Capability uint8

const (
	CapLayout Capability = 1 << iota
	CapDraw
	CapPointerInput
	CapSemantics
	CapModifierLocals
)

func (c Capability) Has(bit Capability) bool { return c&bit != 0 }

// ModifierLocalKey identifies a value threaded between modifier nodes in
// the same chain (spec §4.4 "modifier locals").
type ModifierLocalKey struct{ name string }

// NewModifierLocalKey creates a distinct key; name is for debugging only.
func NewModifierLocalKey(name string) ModifierLocalKey { return ModifierLocalKey{name: name} }

// ModifierAttachContext is passed to a node's OnAttach, giving it access to
// the chain it's pinned to (for modifier local resolution) and the owning
// node's id.
type ModifierAttachContext struct {
	Chain  *ModifierChain
	NodeId NodeId
}

// ModifierNode is the reified behavior attached to a chain entry. Concrete
// node kinds (padding, clickable, graphics_layer, ...) embed a struct that
// implements this plus whichever of the optional per-capability interfaces
// below apply.
type ModifierNode interface {
	// OnAttach is called when the node is newly created and spliced into a
	// chain. Best-effort: a panic here is recovered and isolated to this
	// node (spec §4.4 "exceptions from user handlers are isolated").
	OnAttach(ctx *ModifierAttachContext)
	// OnDetach is called when the node is no longer present in a new
	// modifier sequence after reconciliation.
	OnDetach()
}

// ModifierElement is a declarative description of one link in a modifier
// chain — what `padding(8)` or `clickable(onClick)` actually produce when
// a composable builds its modifier list. Reconciliation matches elements
// against the previous chain by (element type, key), falls back to
// (element type, hash), and finally groups by bare element type.
type ModifierElement interface {
	ElementTypeID() string
	// Key returns a caller-supplied identity key, and whether one was set.
	Key() (any, bool)
	// Hash is a content hash used as the second-tier match key when no
	// explicit Key is set (e.g. two `padding(8)` elements hash equal and
	// reuse each other's node across a reorder).
	Hash() uint64
	Capabilities() Capability
	CreateNode() ModifierNode
	// UpdateNode pushes this element's parameters onto an existing node of
	// the same kind (called instead of CreateNode on a match).
	UpdateNode(node ModifierNode)
	// StrongEqual reports whether this element is parameter-for-parameter
	// identical to other, letting reconciliation skip calling UpdateNode
	// entirely (spec §4.4 step 2).
	StrongEqual(other ModifierElement) bool
}

// chainEntry is one link in a ModifierChain, including the two sentinels.
type chainEntry struct {
	sentinel bool

	elementTypeID string
	key           any
	hasKey        bool
	hash          uint64
	element       ModifierElement
	node          ModifierNode

	attached bool

	capabilities               Capability
	aggregateChildCapabilities Capability // this entry's capabilities unioned with every entry between it and the tail

	locals map[ModifierLocalKey]any // non-nil only if this node provides locals

	prev, next *chainEntry
}

// ModifierChain is the reconciled, capability-tagged chain of behavior
// nodes pinned to one layout node (spec §3/§4.4). It is always bracketed
// by a head and tail sentinel so traversal code never special-cases the
// boundaries.
type ModifierChain struct {
	head, tail *chainEntry
	nodeID     NodeId
}

// NewModifierChain creates an empty chain (head directly linked to tail)
// for the given owning node.
func NewModifierChain(nodeID NodeId) *ModifierChain {
	head := &chainEntry{sentinel: true}
	tail := &chainEntry{sentinel: true}
	head.next = tail
	tail.prev = head
	return &ModifierChain{head: head, tail: tail, nodeID: nodeID}
}

// HeadCapabilities returns the head sentinel's aggregate-child-capabilities,
// the union of every entry's capabilities in the chain (spec invariant 3).
func (c *ModifierChain) HeadCapabilities() Capability { return c.head.aggregateChildCapabilities }

// Len returns the number of non-sentinel entries.
func (c *ModifierChain) Len() int {
	n := 0
	for e := c.head.next; e != c.tail; e = e.next {
		n++
	}
	return n
}

func matchKeyOf(typeID string, key any) string { return typeID + "\x00" + fmt.Sprint(key) }
func hashKeyOf(typeID string, hash uint64) string {
	return typeID + "\x00#" + fmt.Sprintf("%x", hash)
}

// AttachResult reports what UpdateFromSlice did, for tests and for
// invariant 2 / idempotence checks (spec §8: "a modifier chain updated
// with the same sequence twice produces zero attach/detach events on the
// second update").
type AttachResult struct {
	Attached int
	Updated  int
	Kept     int
	Detached int
}

// UpdateFromSlice reconciles the chain against a freshly-built element
// sequence (spec §4.4 `update_from_slice`):
//
//  1. Match each incoming element against a previous entry by
//     (type, key), then (type, hash), then bare type.
//  2. On match: keep the node; call UpdateNode unless StrongEqual.
//  3. On miss: CreateNode, and OnAttach once the new chain is linked.
//  4. Detach and discard every previous entry not matched.
//  5. Recompute capability aggregates.
func (c *ModifierChain) UpdateFromSlice(elements []ModifierElement, attachCtx func(nodeID NodeId) *ModifierAttachContext) AttachResult {
	var result AttachResult
	var attachNodes []ModifierNode

	keyedPool := make(map[string]*chainEntry)
	hashPool := make(map[string]*chainEntry)
	typePool := make(map[string][]*chainEntry)

	for e := c.head.next; e != c.tail; e = e.next {
		if e.hasKey {
			keyedPool[matchKeyOf(e.elementTypeID, e.key)] = e
			continue
		}
		hashPool[hashKeyOf(e.elementTypeID, e.hash)] = e
		typePool[e.elementTypeID] = append(typePool[e.elementTypeID], e)
	}

	matched := make(map[*chainEntry]bool)
	newEntries := make([]*chainEntry, 0, len(elements))

	for _, el := range elements {
		typeID := el.ElementTypeID()
		hash := el.Hash()
		key, hasKey := el.Key()

		var found *chainEntry
		if hasKey {
			if e, ok := keyedPool[matchKeyOf(typeID, key)]; ok {
				found = e
				delete(keyedPool, matchKeyOf(typeID, key))
			}
		}
		if found == nil {
			if e, ok := hashPool[hashKeyOf(typeID, hash)]; ok {
				found = e
				delete(hashPool, hashKeyOf(typeID, hash))
				removeFromTypePool(typePool, typeID, e)
			}
		}
		if found == nil {
			if pool := typePool[typeID]; len(pool) > 0 {
				found = pool[0]
				typePool[typeID] = pool[1:]
				if hk := hashKeyOf(typeID, found.hash); hashPool[hk] == found {
					delete(hashPool, hk)
				}
			}
		}

		if found != nil {
			matched[found] = true
			if !el.StrongEqual(found.element) {
				safeCall(func() { el.UpdateNode(found.node) })
				result.Updated++
			} else {
				result.Kept++
			}
			found.element = el
			found.key = key
			found.hasKey = hasKey
			found.hash = hash
			found.capabilities = el.Capabilities()
			found.attached = true
			newEntries = append(newEntries, found)
			continue
		}

		node := el.CreateNode()
		entry := &chainEntry{
			elementTypeID: typeID,
			key:           key,
			hasKey:        hasKey,
			hash:          hash,
			element:       el,
			node:          node,
			capabilities:  el.Capabilities(),
		}
		entry.attached = true
		result.Attached++
		newEntries = append(newEntries, entry)
		attachNodes = append(attachNodes, node)
	}

	for e := c.head.next; e != c.tail; e = e.next {
		if !matched[e] {
			safeCall(func() { e.node.OnDetach() })
			result.Detached++
		}
	}

	c.relink(newEntries)
	c.recomputeAggregates()
	for _, node := range attachNodes {
		ctx := attachCtx(c.nodeID)
		safeCall(func() { node.OnAttach(ctx) })
	}
	return result
}

func removeFromTypePool(pool map[string][]*chainEntry, typeID string, e *chainEntry) {
	s := pool[typeID]
	for i, x := range s {
		if x == e {
			pool[typeID] = append(s[:i], s[i+1:]...)
			return
		}
	}
}

func (c *ModifierChain) relink(entries []*chainEntry) {
	prev := c.head
	for _, e := range entries {
		prev.next = e
		e.prev = prev
		prev = e
	}
	prev.next = c.tail
	c.tail.prev = prev
}

func (c *ModifierChain) recomputeAggregates() {
	var agg Capability
	for e := c.tail.prev; e != c.head; e = e.prev {
		agg |= e.capabilities
		e.aggregateChildCapabilities = agg
	}
	c.head.aggregateChildCapabilities = agg
}

// safeCall isolates a panic from a user-supplied attach/detach/update
// handler so one misbehaving modifier node cannot corrupt the rest of the
// chain's reconciliation (spec §4.4 "exceptions from user handlers are
// isolated to that node").
func safeCall(f func()) {
	defer func() { _ = recover() }()
	f()
}

// ForEachForward visits every non-sentinel entry from head to tail in
// chain order ("behind" draw order; outermost-to-innermost layout order).
func (c *ModifierChain) ForEachForward(f func(node ModifierNode, capabilities Capability)) {
	for e := c.head.next; e != c.tail; e = e.next {
		f(e.node, e.capabilities)
	}
}

// ForEachForwardMatching visits entries whose capabilities intersect mask,
// short-circuiting via the aggregate mask at the head sentinel so a chain
// with no matching entries at all does no per-entry work (spec §4.4
// "iterators are fused and visit only nodes intersecting the mask").
func (c *ModifierChain) ForEachForwardMatching(mask Capability, f func(node ModifierNode, capabilities Capability)) {
	if c.head.aggregateChildCapabilities&mask == 0 {
		return
	}
	for e := c.head.next; e != c.tail; e = e.next {
		if e.aggregateChildCapabilities&mask == 0 {
			break
		}
		if e.capabilities&mask != 0 {
			f(e.node, e.capabilities)
		}
	}
}

// ForEachBackward visits every non-sentinel entry from tail to head —
// used for overlay draw commands and backward modifier-local resolution.
func (c *ModifierChain) ForEachBackward(f func(node ModifierNode, capabilities Capability)) {
	for e := c.tail.prev; e != c.head; e = e.prev {
		f(e.node, e.capabilities)
	}
}

// HasCapabilityInSubtree reports whether any entry in the chain declares
// any of the bits in mask — an O(1) query via the head sentinel's
// aggregate (spec invariant 3).
func (c *ModifierChain) HasCapabilityInSubtree(mask Capability) bool {
	return c.head.aggregateChildCapabilities&mask != 0
}

// ProvideLocal records value under key on the entry holding node, so
// consumers after it in the chain resolve it via ResolveLocal. A provider
// node calls this from its OnAttach (through the ModifierAttachContext's
// Chain) and from its element's UpdateNode; the entry is looked up by node
// identity, and a node not in the chain is ignored.
func (c *ModifierChain) ProvideLocal(node ModifierNode, key ModifierLocalKey, value any) {
	for e := c.head.next; e != c.tail; e = e.next {
		if e.node == node {
			if e.locals == nil {
				e.locals = make(map[ModifierLocalKey]any)
			}
			e.locals[key] = value
			return
		}
	}
}

// ResolveLocal resolves key by walking from the position of consumer
// child-to-head (toward the head sentinel), returning the first provided
// value found (spec §4.4: "visible to any consumer node in positions > P
// ... resolution walks child-to-head first").
func (c *ModifierChain) ResolveLocal(consumer ModifierNode, key ModifierLocalKey) (any, bool) {
	var at *chainEntry
	for e := c.head.next; e != c.tail; e = e.next {
		if e.node == consumer {
			at = e
			break
		}
	}
	if at == nil {
		return nil, false
	}
	for e := at.prev; e != c.head; e = e.prev {
		if e.locals != nil {
			if v, ok := e.locals[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}
