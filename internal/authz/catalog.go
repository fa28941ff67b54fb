package authz

import (
	"errors"
	"fmt"
)

// Permission is a canonical "<resource>:<action>" identifier. The set
// is fixed at build time; a role's permission set may only grow across
// versions.
type Permission string

// Role names a build-time bundle of permissions.
type Role string

// Roles.
const (
	RoleAdmin     Role = "ADMIN"
	RoleLawyer    Role = "LAWYER"
	RoleParalegal Role = "PARALEGAL"
	RoleClient    Role = "CLIENT"
)

// Case management.
const (
	PermCasesCreate Permission = "cases:create"
	PermCasesRead   Permission = "cases:read"
	PermCasesUpdate Permission = "cases:update"
	PermCasesDelete Permission = "cases:delete"
	PermCasesList   Permission = "cases:list"
	PermCasesSearch Permission = "cases:search"
)

// Party management.
const (
	PermPartiesCreate Permission = "parties:create"
	PermPartiesRead   Permission = "parties:read"
	PermPartiesUpdate Permission = "parties:update"
	PermPartiesDelete Permission = "parties:delete"
	PermPartiesList   Permission = "parties:list"
)

// Task management.
const (
	PermTasksCreate Permission = "tasks:create"
	PermTasksRead   Permission = "tasks:read"
	PermTasksUpdate Permission = "tasks:update"
	PermTasksDelete Permission = "tasks:delete"
	PermTasksList   Permission = "tasks:list"
)

// Timesheet management.
const (
	PermTimesheetCreate Permission = "timesheet:create"
	PermTimesheetRead   Permission = "timesheet:read"
	PermTimesheetUpdate Permission = "timesheet:update"
	PermTimesheetDelete Permission = "timesheet:delete"
	PermTimesheetList   Permission = "timesheet:list"
)

// User management.
const (
	PermUsersCreate Permission = "users:create"
	PermUsersRead   Permission = "users:read"
	PermUsersUpdate Permission = "users:update"
	PermUsersDelete Permission = "users:delete"
	PermUsersList   Permission = "users:list"
)

// System administration.
const (
	PermSystemAdmin  Permission = "system:admin"
	PermSystemConfig Permission = "system:config"
	PermSystemAudit  Permission = "system:audit"
)

// ErrUnmappedAction indicates a resource/action pair that is not in the
// catalog. The engine treats it as an automatic deny; there is no
// fallback to an unrelated permission.
var ErrUnmappedAction = errors.New("authz: unmapped resource/action")

var permissionTable = map[string]map[string]Permission{
	"cases": {
		"create": PermCasesCreate,
		"read":   PermCasesRead,
		"update": PermCasesUpdate,
		"delete": PermCasesDelete,
		"list":   PermCasesList,
		"search": PermCasesSearch,
	},
	"parties": {
		"create": PermPartiesCreate,
		"read":   PermPartiesRead,
		"update": PermPartiesUpdate,
		"delete": PermPartiesDelete,
		"list":   PermPartiesList,
	},
	"tasks": {
		"create": PermTasksCreate,
		"read":   PermTasksRead,
		"update": PermTasksUpdate,
		"delete": PermTasksDelete,
		"list":   PermTasksList,
	},
	"timesheets": {
		"create": PermTimesheetCreate,
		"read":   PermTimesheetRead,
		"update": PermTimesheetUpdate,
		"delete": PermTimesheetDelete,
		"list":   PermTimesheetList,
	},
	"users": {
		"create": PermUsersCreate,
		"read":   PermUsersRead,
		"update": PermUsersUpdate,
		"delete": PermUsersDelete,
		"list":   PermUsersList,
	},
	"system": {
		"admin":  PermSystemAdmin,
		"config": PermSystemConfig,
		"audit":  PermSystemAudit,
	},
}

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermCasesCreate, PermCasesRead, PermCasesUpdate, PermCasesDelete, PermCasesList, PermCasesSearch,
		PermPartiesCreate, PermPartiesRead, PermPartiesUpdate, PermPartiesDelete, PermPartiesList,
		PermTasksCreate, PermTasksRead, PermTasksUpdate, PermTasksDelete, PermTasksList,
		PermTimesheetCreate, PermTimesheetRead, PermTimesheetUpdate, PermTimesheetDelete, PermTimesheetList,
		PermUsersCreate, PermUsersRead, PermUsersUpdate, PermUsersDelete, PermUsersList,
		PermSystemAdmin, PermSystemConfig, PermSystemAudit,
	},
	RoleLawyer: {
		PermCasesCreate, PermCasesRead, PermCasesUpdate, PermCasesList, PermCasesSearch,
		PermPartiesCreate, PermPartiesRead, PermPartiesUpdate, PermPartiesList,
		PermTasksCreate, PermTasksRead, PermTasksUpdate, PermTasksList,
		PermTimesheetCreate, PermTimesheetRead, PermTimesheetUpdate, PermTimesheetList,
	},
	RoleParalegal: {
		PermCasesRead, PermCasesList, PermCasesSearch,
		PermPartiesCreate, PermPartiesRead, PermPartiesUpdate, PermPartiesList,
		PermTasksCreate, PermTasksRead, PermTasksUpdate, PermTasksList,
		PermTimesheetCreate, PermTimesheetRead, PermTimesheetUpdate, PermTimesheetList,
	},
	RoleClient: {
		PermCasesRead, PermCasesList,
		PermTasksRead, PermTasksList,
	},
}

// RequiredPermission resolves the permission guarding a resource/action
// pair. Unknown pairs return ErrUnmappedAction.
func RequiredPermission(resource, action string) (Permission, error) {
	actions, ok := permissionTable[resource]
	if !ok {
		return "", fmt.Errorf("%w: %s:%s", ErrUnmappedAction, resource, action)
	}
	perm, ok := actions[action]
	if !ok {
		return "", fmt.Errorf("%w: %s:%s", ErrUnmappedAction, resource, action)
	}
	return perm, nil
}

// RolePermissions returns the permission set for a role. Unknown roles
// yield the empty set, never an error.
func RolePermissions(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// RoleHas reports whether the role's permission set contains p.
func RoleHas(role Role, p Permission) bool {
	for _, perm := range rolePermissions[role] {
		if perm == p {
			return true
		}
	}
	return false
}

// KnownRole reports whether the role is one of the build-time roles.
func KnownRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// KnownPermission reports whether p exists in the catalog.
func KnownPermission(p Permission) bool {
	for _, actions := range permissionTable {
		for _, perm := range actions {
			if perm == p {
				return true
			}
		}
	}
	return false
}

// Roles lists the build-time roles.
func Roles() []Role {
	return []Role{RoleAdmin, RoleLawyer, RoleParalegal, RoleClient}
}

// Permissions lists every catalog permission grouped by resource, in
// stable order.
func Permissions() []Permission {
	resources := []string{"cases", "parties", "tasks", "timesheets", "users", "system"}
	actions := []string{"create", "read", "update", "delete", "list", "search", "admin", "config", "audit"}
	var out []Permission
	for _, res := range resources {
		for _, act := range actions {
			if perm, ok := permissionTable[res][act]; ok {
				out = append(out, perm)
			}
		}
	}
	return out
}
