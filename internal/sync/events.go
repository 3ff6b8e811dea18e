package sync

import "log"

// Op names a reconciliation outcome carried on an Event or a change message.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Event is emitted after a Local Store write so consumers (notification
// triggers) can react without being wired into the write path.
type Event struct {
	Kind    EntityKind `json:"kind"`
	Op      Op         `json:"op"`
	Key     string     `json:"key"`
	Changes ChangeSet  `json:"changes,omitempty"`
	Record  RemoteRecord
}

// emit publishes without blocking the write path: if no consumer keeps up,
// the event is dropped and logged rather than stalling reconciliation.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		log.Printf("[Sync] Event buffer full, dropping %s %s/%s", ev.Op, ev.Kind, ev.Key)
	}
}

// Events exposes the engine's event stream. Delivery is at-least-once per
// accepted event; ordering is per-key only.
func (e *Engine) Events() <-chan Event {
	return e.events
}
