package permission

// Role names carried in session claims.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleOwner      = "OWNER"
	RoleAdmin      = "ADMIN"
	RoleEditor     = "EDITOR"
	RoleViewer     = "VIEWER"
)

// Built-in permissions.
const (
	ContentRead     = "content:read"
	ContentWrite    = "content:write"
	ContentPublish  = "content:publish"
	MediaWrite      = "media:write"
	UsersManage     = "users:manage"
	SettingsManage  = "settings:manage"
	SecurityRead    = "security:read"
	TenantsManage   = "tenants:manage"
	PlatformMonitor = "platform:monitor"
)

// DefaultPermissions returns the built-in permission names in registration order.
func DefaultPermissions() []string {
	return []string{
		ContentRead,
		ContentWrite,
		ContentPublish,
		MediaWrite,
		UsersManage,
		SettingsManage,
		SecurityRead,
		TenantsManage,
		PlatformMonitor,
	}
}

// DefaultRoles returns the tenant role table. RoleSuperAdmin is not listed; it
// is registered as the root role.
func DefaultRoles() map[string][]string {
	viewer := []string{ContentRead}
	editor := append(append([]string{}, viewer...), ContentWrite, MediaWrite)
	admin := append(append([]string{}, editor...), ContentPublish, UsersManage, SettingsManage)
	owner := append(append([]string{}, admin...), SecurityRead)

	return map[string][]string{
		RoleViewer: viewer,
		RoleEditor: editor,
		RoleAdmin:  admin,
		RoleOwner:  owner,
	}
}

// IsTenantAdmin reports whether role may administer its tenant.
func IsTenantAdmin(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}
