package state

import (
	"fmt"

	"github.com/google/uuid"
)

// Registry owns the set of open vaults. Slots are an arena: removal marks a
// slot free instead of shifting live entries, so a sweep can snapshot the live
// set, decide removals while iterating, and apply them afterwards without
// skipping or double-visiting anything.
type Registry struct {
	slots []*Vault // insertion order; nil marks a freed slot
	index map[VaultID]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[VaultID]int)}
}

// Open appends a new vault and returns its handle. Negative amounts are
// rejected; zero is allowed (a vault with no debt is maximally healthy).
func (r *Registry) Open(owner string, collateral, liability float64) (VaultID, error) {
	if collateral < 0 {
		return uuid.Nil, fmt.Errorf("%w: collateral %v", ErrInvalidAmount, collateral)
	}
	if liability < 0 {
		return uuid.Nil, fmt.Errorf("%w: liability %v", ErrInvalidAmount, liability)
	}

	id := uuid.New()
	r.slots = append(r.slots, &Vault{
		ID:         id,
		Owner:      owner,
		Collateral: collateral,
		Liability:  liability,
	})
	r.index[id] = len(r.slots) - 1
	return id, nil
}

// Get returns the vault for id, or false if it has been removed.
func (r *Registry) Get(id VaultID) (*Vault, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.slots[i], true
}

// Remove frees the vault's slot. Removing a stale handle is an error, not a
// no-op: a second removal of the same vault is a double-liquidation bug and
// must surface.
func (r *Registry) Remove(id VaultID) error {
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.slots[i] = nil
	delete(r.index, id)
	return nil
}

// All returns the live vaults in insertion order. The slice is a fresh
// snapshot; it stays valid while the caller defers removals.
func (r *Registry) All() []*Vault {
	out := make([]*Vault, 0, len(r.index))
	for _, v := range r.slots {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of open vaults.
func (r *Registry) Len() int {
	return len(r.index)
}
