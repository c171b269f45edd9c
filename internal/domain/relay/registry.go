package relay

import (
	"crypto/subtle"
	"sync"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
)

// Source identifies the sender of a relayed message: the slot it claims,
// the mount generation it was rendered for and that mount's token.
type Source struct {
	Slot       id.SlotID  `json:"slot"`
	Generation id.MountID `json:"generation"`
	Token      string     `json:"token"`
}

// Registry maps each preview slot to the one mount generation currently
// allowed to post into it.
type Registry struct {
	mu    sync.RWMutex
	slots map[id.SlotID]Source
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{slots: make(map[id.SlotID]Source)}
}

// Register makes src the current generation of its slot, replacing any other
func (r *Registry) Register(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[src.Slot] = src
}

// Unregister removes the slot's registration if it is still gen.
// It reports whether a registration was removed.
func (r *Registry) Unregister(slot id.SlotID, gen id.MountID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.slots[slot]
	if !ok || current.Generation != gen {
		return false
	}
	delete(r.slots, slot)
	return true
}

// Current returns the registered generation of a slot
func (r *Registry) Current(slot id.SlotID) (id.MountID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.slots[slot]
	return src.Generation, ok
}

// Trusted reports whether src is the slot's current generation and carries
// its token.
func (r *Registry) Trusted(src Source) bool {
	r.mu.RLock()
	current, ok := r.slots[src.Slot]
	r.mu.RUnlock()

	if !ok || src.Generation == "" || current.Generation != src.Generation {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(current.Token), []byte(src.Token)) == 1
}

// Len returns the number of registered slots
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}
