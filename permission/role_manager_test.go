package permission

import (
	"errors"
	"testing"
)

func newDefaultManager(t *testing.T) *RoleManager {
	t.Helper()

	reg := NewRegistry(true)
	for _, p := range DefaultPermissions() {
		if _, err := reg.Register(p); err != nil {
			t.Fatalf("register %s: %v", p, err)
		}
	}
	reg.Freeze()

	rm := NewRoleManager(reg)
	for role, perms := range DefaultRoles() {
		if err := rm.RegisterRole(role, perms); err != nil {
			t.Fatalf("register role %s: %v", role, err)
		}
	}
	if err := rm.RegisterRootRole(RoleSuperAdmin); err != nil {
		t.Fatalf("register root: %v", err)
	}
	rm.Freeze()
	return rm
}

func TestRoleManager_DefaultRoles(t *testing.T) {
	rm := newDefaultManager(t)

	tests := []struct {
		role string
		perm string
		want bool
	}{
		{RoleViewer, ContentRead, true},
		{RoleViewer, ContentWrite, false},
		{RoleEditor, ContentWrite, true},
		{RoleEditor, ContentPublish, false},
		{RoleAdmin, UsersManage, true},
		{RoleAdmin, SecurityRead, false},
		{RoleOwner, SecurityRead, true},
		{RoleOwner, TenantsManage, false},
		{RoleSuperAdmin, TenantsManage, true},
		{RoleSuperAdmin, PlatformMonitor, true},
		{"GHOST", ContentRead, false},
		{RoleOwner, "unknown:perm", false},
	}
	for _, tt := range tests {
		if got := rm.Allows(tt.role, tt.perm); got != tt.want {
			t.Errorf("Allows(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestRoleManager_Permissions(t *testing.T) {
	rm := newDefaultManager(t)

	got := rm.Permissions(RoleEditor)
	want := []string{ContentRead, ContentWrite, MediaWrite}
	if len(got) != len(want) {
		t.Fatalf("Permissions(EDITOR) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Permissions(EDITOR) = %v, want %v", got, want)
		}
	}
	if n := len(rm.Permissions(RoleSuperAdmin)); n != len(DefaultPermissions()) {
		t.Fatalf("super admin permissions = %d, want all %d", n, len(DefaultPermissions()))
	}
}

func TestRoleManager_Errors(t *testing.T) {
	reg := NewRegistry(false)
	if _, err := reg.Register(ContentRead); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Register(ContentRead); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate register err = %v", err)
	}
	if _, err := reg.Register(""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("empty register err = %v", err)
	}

	rm := NewRoleManager(reg)
	if err := rm.RegisterRole(RoleViewer, []string{"missing"}); !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("unknown permission err = %v", err)
	}
	if err := rm.RegisterRootRole(RoleSuperAdmin); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("root without reservation err = %v", err)
	}

	reg.Freeze()
	if _, err := reg.Register(ContentWrite); !errors.Is(err, ErrFrozen) {
		t.Fatalf("frozen register err = %v", err)
	}
	rm.Freeze()
	if err := rm.RegisterRole(RoleViewer, nil); !errors.Is(err, ErrFrozen) {
		t.Fatalf("frozen role err = %v", err)
	}
}

func TestRegistry_RootBitNeverAssigned(t *testing.T) {
	reg := NewRegistry(true)
	for i := 0; i < MaxBits-1; i++ {
		if _, err := reg.Register(string(rune('a'+i%26)) + string(rune('0'+i/26))); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	if _, err := reg.Register("overflow"); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected limit exceeded, got %v", err)
	}
}

func TestIsTenantAdmin(t *testing.T) {
	for role, want := range map[string]bool{
		RoleOwner:      true,
		RoleAdmin:      true,
		RoleEditor:     false,
		RoleViewer:     false,
		RoleSuperAdmin: false,
	} {
		if got := IsTenantAdmin(role); got != want {
			t.Errorf("IsTenantAdmin(%s) = %v", role, got)
		}
	}
}
