package role

import (
	"errors"
	"sync"
)

// Hierarchy maps role names to integer ranks forming a strict total
// order. A larger rank contains the access of every smaller one.
//
// Hierarchy instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type Hierarchy struct {
	mu         sync.RWMutex
	nameToRank map[string]int
	rankToName map[int]string
	frozen     bool
}

// NewHierarchy creates an empty role [Hierarchy]. Roles are added with
// [Hierarchy.Register] and the set is sealed with [Hierarchy.Freeze].
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		nameToRank: make(map[string]int),
		rankToName: make(map[int]string),
	}
}

// Default returns the frozen marketplace hierarchy:
// client (1) < trainer (2) < admin (3).
func Default() *Hierarchy {
	h := NewHierarchy()
	// Registration on a fresh hierarchy cannot fail.
	_ = h.Register("client", 1)
	_ = h.Register("trainer", 2)
	_ = h.Register("admin", 3)
	h.Freeze()
	return h
}

// Register assigns the given rank to the named role. Each name and each
// rank may be used once. Must be called before [Hierarchy.Freeze].
func (h *Hierarchy) Register(name string, rank int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frozen {
		return errors.New("hierarchy frozen")
	}

	if name == "" {
		return errors.New("role name cannot be empty")
	}

	if _, exists := h.nameToRank[name]; exists {
		return errors.New("role already registered")
	}

	if _, exists := h.rankToName[rank]; exists {
		return errors.New("rank already assigned")
	}

	h.nameToRank[name] = rank
	h.rankToName[rank] = name

	return nil
}

// Rank returns the rank for the named role, or false if not registered.
func (h *Hierarchy) Rank(name string) (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rank, ok := h.nameToRank[name]
	return rank, ok
}

// Name returns the role name for the given rank, or false if unassigned.
func (h *Hierarchy) Name(rank int) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	name, ok := h.rankToName[rank]
	return name, ok
}

// AtLeast reports whether the named role holds at least the rank of min.
// Unknown roles on either side rank as insufficient; authorization never
// passes on a name the hierarchy has not seen.
func (h *Hierarchy) AtLeast(name, min string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	have, ok := h.nameToRank[name]
	if !ok {
		return false
	}
	want, ok := h.nameToRank[min]
	if !ok {
		return false
	}
	return have >= want
}

// Freeze prevents further registrations. Must be called before the
// hierarchy is used for authorization.
func (h *Hierarchy) Freeze() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frozen = true
}

// Count returns the number of registered roles.
func (h *Hierarchy) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nameToRank)
}
