// Package accounts loads callers from the super_admins and tenant_users
// tables and implements goGuard.CallerProvider and goGuard.PasswordUpdater.
package accounts
