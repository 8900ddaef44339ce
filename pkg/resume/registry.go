// Package resume runs one-shot callbacks when a given host state becomes
// active.
package resume

import (
	"github.com/google/uuid"
	"github.com/jwebster45206/fast-dialogue/pkg/host"
)

// Callback receives the state that was just activated.
type Callback func(state host.State)

type entry struct {
	id       uuid.UUID
	target   host.State
	callback Callback
}

// Registry is an ordered list of pending entries. It is not safe for
// concurrent use.
type Registry struct {
	entries []entry
}

// Schedule arranges for cb to run the first time target becomes active.
func (r *Registry) Schedule(target host.State, cb Callback) uuid.UUID {
	id := uuid.New()
	r.entries = append(r.entries, entry{id: id, target: target, callback: cb})
	return id
}

// Activate fires and removes every entry targeting state, in registration
// order, and returns how many fired. Entries scheduled by a callback during
// the pass wait for a later activation.
func (r *Registry) Activate(state host.State) int {
	snapshot := make([]entry, len(r.entries))
	copy(snapshot, r.entries)

	fired := 0
	for _, e := range snapshot {
		if e.target != state {
			continue
		}
		// an earlier callback may have cancelled this entry
		if !r.remove(e.id) {
			continue
		}
		e.callback(state)
		fired++
	}
	return fired
}

// Cancel drops a pending entry.
func (r *Registry) Cancel(id uuid.UUID) bool {
	return r.remove(id)
}

// Pending counts entries waiting for state.
func (r *Registry) Pending(state host.State) int {
	n := 0
	for _, e := range r.entries {
		if e.target == state {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	return len(r.entries)
}

func (r *Registry) remove(id uuid.UUID) bool {
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}
