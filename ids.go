package compose

import "strconv"

// NodeId is an opaque dense index into an Applier. Never zero for a live
// node; zero is reserved as the "no node" sentinel.
type NodeId uint32

// IsValid reports whether id refers to a (possibly stale) node rather than
// the zero sentinel.
func (id NodeId) IsValid() bool { return id != 0 }

func (id NodeId) String() string { return "node#" + strconv.FormatUint(uint64(id), 10) }

// ScopeId identifies a restartable composition region. It carries no data
// itself; the recomposer and slot table look up the associated scope
// record by this id.
type ScopeId uint32

func (id ScopeId) String() string { return "scope#" + strconv.FormatUint(uint64(id), 10) }

// idAllocator hands out dense, monotonically increasing ids. Willow's node
// counter is a plain package-level counter because the scene graph is
// single-threaded (see nextNodeID in the scene-graph teacher code this
// runtime is adapted from); the composition runtime keeps that invariant —
// all id allocation happens on the UI task — but scopes it to the owning
// Applier/SlotTable instance instead of a package global, since a process
// may host more than one composition root (e.g. a harness driving several
// scenes in one test binary).
type idAllocator struct {
	next uint32
}

func (a *idAllocator) allocate() uint32 {
	a.next++
	return a.next
}
