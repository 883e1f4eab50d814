package permission

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrFrozen is returned when a registry or role manager is modified after Freeze.
	ErrFrozen = errors.New("permission: frozen")
	// ErrEmptyName is returned for blank permission or role names.
	ErrEmptyName = errors.New("permission: empty name")
	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("permission: already registered")
	// ErrLimitExceeded is returned when the mask has no free bit left.
	ErrLimitExceeded = errors.New("permission: limit exceeded")
	// ErrUnknownPermission is returned when a role references an unregistered permission.
	ErrUnknownPermission = errors.New("permission: unknown permission")
)

// Registry maps permission names to bit positions within a Mask.
//
// When rootReserved is set, the highest bit is kept for the root permission and
// is never handed out by Register.
type Registry struct {
	rootReserved bool

	mu        sync.RWMutex
	nameToBit map[string]int
	bitToName map[int]string
	frozen    bool
}

// NewRegistry returns an empty registry.
func NewRegistry(rootReserved bool) *Registry {
	return &Registry{
		rootReserved: rootReserved,
		nameToBit:    make(map[string]int),
		bitToName:    make(map[int]string),
	}
}

// Register assigns the next free bit to name and returns it.
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, ErrFrozen
	}
	if name == "" {
		return -1, ErrEmptyName
	}
	if _, exists := r.nameToBit[name]; exists {
		return -1, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	next := len(r.nameToBit)
	limit := MaxBits
	if r.rootReserved {
		limit = rootBit
	}
	if next >= limit {
		return -1, ErrLimitExceeded
	}

	r.nameToBit[name] = next
	r.bitToName[next] = name
	return next, nil
}

// Bit returns the bit index for name.
func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToBit[name]
	return bit, ok
}

// Name returns the permission name assigned to bit.
func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.bitToName[bit]
	return name, ok
}

// Names returns the permissions set in m, sorted. The root bit expands to every
// registered permission.
func (r *Registry) Names(m Mask) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.nameToBit))
	for name, bit := range r.nameToBit {
		if m.Has(bit, r.rootReserved) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nameToBit)
}

// RootBit returns the reserved root bit, or false when reservation is disabled.
func (r *Registry) RootBit() (int, bool) {
	if !r.rootReserved {
		return -1, false
	}
	return rootBit, true
}

// RootReserved reports whether the registry keeps the root bit.
func (r *Registry) RootReserved() bool {
	return r.rootReserved
}
