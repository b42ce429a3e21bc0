// Package semanticsbridge bridges a compose composition's semantics-tree
// snapshot and NodeId-keyed interaction events into a donburi ECS world,
// generalizing the teacher's ecs/donburi.go adapter (which bridged
// willow's per-EntityID InteractionEvent into a Donburi world) from the
// teacher's concrete-entity event model to the core's NodeId-keyed
// semantics/interaction model (SPEC_FULL §B).
package semanticsbridge

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/gocompose"
)

// InteractionEvent is the donburi-published form of a compose.PointerEvent,
// carrying the NodeId it was dispatched to instead of willow's numeric
// EntityID.
type InteractionEvent struct {
	Kind      compose.PointerKind
	NodeId    compose.NodeId
	Position  compose.Vec2
	Buttons   uint8
	Timestamp int64
}

// InteractionEventType is the donburi event type interaction events
// publish under. Subscribe to it in ECS systems to receive pointer events
// routed through a DonburiBridge.
var InteractionEventType = events.NewEventType[InteractionEvent]()

// nodeIDComponent, roleComponent, textComponent, and clickableComponent
// tag each donburi entity mirroring a live compose.SemanticsNode.
var (
	nodeIDComponent    = donburi.NewComponentType[compose.NodeId]()
	roleComponent      = donburi.NewComponentType[string]()
	textComponent      = donburi.NewComponentType[string]()
	clickableComponent = donburi.NewComponentType[bool]()
	boundsComponent    = donburi.NewComponentType[compose.Rect]()
)

// DonburiBridge owns the mapping from compose.NodeId to the donburi entity
// mirroring it, and forwards dispatched pointer events into the world as
// InteractionEvents.
type DonburiBridge struct {
	world    donburi.World
	entities map[compose.NodeId]donburi.Entity
}

// NewDonburiBridge creates a bridge over an existing donburi world.
func NewDonburiBridge(world donburi.World) *DonburiBridge {
	return &DonburiBridge{world: world, entities: make(map[compose.NodeId]donburi.Entity)}
}

// World returns the underlying donburi world, for systems that need direct
// access alongside the bridge.
func (b *DonburiBridge) World() donburi.World { return b.world }

// PublishPointerEvent publishes one dispatched pointer event per NodeId it
// reached — a caller wraps InputDispatcher.Dispatch and also calls this for
// every target on the hit path it walked, if ECS systems need to react to
// raw input rather than just semantics state.
func (b *DonburiBridge) PublishPointerEvent(event compose.PointerEvent, target compose.NodeId) {
	InteractionEventType.Publish(b.world, InteractionEvent{
		Kind:      event.Kind,
		NodeId:    target,
		Position:  event.Position,
		Buttons:   event.Buttons,
		Timestamp: event.TimestampNs,
	})
}

// SyncSemantics mirrors a fresh compose.SemanticsNode snapshot into the
// donburi world: nodes present in the snapshot get their entity created (if
// new) or updated (if already mirrored); entities whose NodeId no longer
// appears in the snapshot are removed. Call this once per frame after
// compose.BuildSemanticsTree, the same "world reflects external tree"
// shape the teacher's donburiStore used for interaction events, generalized
// here to full semantics state sync.
func (b *DonburiBridge) SyncSemantics(root *compose.SemanticsNode) {
	seen := make(map[compose.NodeId]bool)
	if root != nil {
		b.syncNode(root, seen)
	}
	for id, entity := range b.entities {
		if !seen[id] {
			b.world.Remove(entity)
			delete(b.entities, id)
		}
	}
}

func (b *DonburiBridge) syncNode(n *compose.SemanticsNode, seen map[compose.NodeId]bool) {
	seen[n.NodeId] = true
	entity, ok := b.entities[n.NodeId]
	if !ok {
		entity = b.world.Create(nodeIDComponent, roleComponent, textComponent, clickableComponent, boundsComponent)
		b.entities[n.NodeId] = entity
	}
	entry := b.world.Entry(entity)
	nodeIDComponent.Set(entry, n.NodeId)
	roleComponent.Set(entry, n.Role)
	textComponent.Set(entry, n.Text)
	clickableComponent.Set(entry, n.Clickable)
	boundsComponent.Set(entry, n.Bounds)

	for _, child := range n.Children {
		b.syncNode(child, seen)
	}
}

// EntityFor resolves a NodeId to its mirrored donburi entity, ok is false
// if SyncSemantics hasn't seen that node yet.
func (b *DonburiBridge) EntityFor(id compose.NodeId) (donburi.Entity, bool) {
	e, ok := b.entities[id]
	return e, ok
}
