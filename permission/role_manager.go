package permission

import (
	"fmt"
	"sync"
)

// RoleManager resolves role names to permission masks.
//
// Roles are registered during Build and the manager is frozen before the first
// request; lookups afterwards only take the read lock.
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string]Mask
	frozen bool
}

// NewRoleManager returns a manager resolving permissions through registry.
func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[string]Mask),
	}
}

// RegisterRole composes a mask from permissionNames and stores it under roleName.
func (rm *RoleManager) RegisterRole(roleName string, permissionNames []string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := rm.checkNew(roleName); err != nil {
		return err
	}

	var mask Mask
	for _, perm := range permissionNames {
		bit, ok := rm.registry.Bit(perm)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, perm)
		}
		mask = mask.Set(bit)
	}

	rm.roles[roleName] = mask
	return nil
}

// RegisterRootRole stores roleName with only the root bit set.
func (rm *RoleManager) RegisterRootRole(roleName string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := rm.checkNew(roleName); err != nil {
		return err
	}
	bit, ok := rm.registry.RootBit()
	if !ok {
		return fmt.Errorf("%w: root bit not reserved", ErrLimitExceeded)
	}
	rm.roles[roleName] = Mask(0).Set(bit)
	return nil
}

func (rm *RoleManager) checkNew(roleName string) error {
	if rm.frozen {
		return ErrFrozen
	}
	if roleName == "" {
		return ErrEmptyName
	}
	if _, exists := rm.roles[roleName]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, roleName)
	}
	return nil
}

// GetMask returns the mask registered for roleName.
func (rm *RoleManager) GetMask(roleName string) (Mask, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	mask, ok := rm.roles[roleName]
	return mask, ok
}

// Allows reports whether roleName holds perm. Unknown roles and permissions
// are denied.
func (rm *RoleManager) Allows(roleName, perm string) bool {
	mask, ok := rm.GetMask(roleName)
	if !ok {
		return false
	}
	bit, ok := rm.registry.Bit(perm)
	if !ok {
		return false
	}
	return mask.Has(bit, rm.registry.RootReserved())
}

// Permissions lists the permission names granted to roleName.
func (rm *RoleManager) Permissions(roleName string) []string {
	mask, ok := rm.GetMask(roleName)
	if !ok {
		return nil
	}
	return rm.registry.Names(mask)
}

// Freeze prevents further registrations.
func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

// Count returns the number of registered roles.
func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}
