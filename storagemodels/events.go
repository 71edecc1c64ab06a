/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Update tokens with a fixed meaning.
const (
	// SaveToken tags "new elements" events emitted by Save.
	SaveToken = "save"
)

// NewElements is broadcast after entities are written into a store.
// UpdateID is the causation tag used by bindings to ignore their own echoes.
type NewElements struct {
	UpdateID string
	Content  []Entity
	// Trail lists the bindings this write already travelled through.
	Trail []string
}

// Visited reports whether the binding id is on the event's trail.
func (e NewElements) Visited(id string) bool {
	for _, t := range e.Trail {
		if t == id {
			return true
		}
	}
	return false
}

// UpdateAttempt is signalled when an update targets a key the store does not hold.
type UpdateAttempt struct {
	Key      string
	UpdateID string
	// Apply transforms a copy of the entity the update was aimed at.
	Apply func(Entity) Entity
}
