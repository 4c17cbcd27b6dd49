package types

import "time"

// Role is a named, admin-managed permission bundle. Many admins may
// reference the same role; roles are never owned by an admin.
type Role struct {
	// ID is the unique identifier of the role.
	ID int `json:"id" db:"id"`

	// RoleName is the unique, case-insensitive name of the role.
	// Stored uppercase.
	RoleName string `json:"role_name" db:"role_name"`

	// RolePermissions is the ordered permission tree granted by this role.
	RolePermissions PermissionSet `json:"role_permissions" db:"role_permissions"`

	// Status toggles the role active/inactive.
	Status bool `json:"status" db:"status"`

	// CreatedAt is the timestamp when the role was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PermissionSet is the three-level permission tree attached to a role:
// UI component -> sub-component -> named permission with an HTTP method.
type PermissionSet []PermissionComponent

// PermissionComponent groups the permissions of one UI component.
type PermissionComponent struct {
	// Component is the UI component name (e.g. "Dashboard").
	Component string `json:"component"`

	// SubComponents lists the component's sections, in display order.
	SubComponents []SubComponent `json:"sub_components"`
}

// SubComponent groups the permissions of one section of a component.
type SubComponent struct {
	// Name is the sub-component name. May be blank for single-section
	// components.
	Name string `json:"name"`

	// Permissions lists the named actions available in this section.
	Permissions []Permission `json:"permissions"`
}

// Permission is a single named action bound to an HTTP method and route.
type Permission struct {
	// Name is the human-readable action name (e.g. "Create Banner").
	Name string `json:"name"`

	// Method is the HTTP method of the guarded route, uppercase.
	Method string `json:"method"`

	// Route is the path of the guarded endpoint.
	Route string `json:"route,omitempty"`

	// Enabled reports whether the role grants this action.
	Enabled bool `json:"enabled"`
}
