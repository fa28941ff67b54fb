package authz

import (
	"errors"
	"testing"
)

func TestRequiredPermission(t *testing.T) {
	cases := []struct {
		resource string
		action   string
		want     Permission
	}{
		{"cases", "read", PermCasesRead},
		{"cases", "search", PermCasesSearch},
		{"parties", "delete", PermPartiesDelete},
		{"tasks", "update", PermTasksUpdate},
		// The timesheets resource maps onto timesheet:* permissions.
		{"timesheets", "create", PermTimesheetCreate},
		{"users", "list", PermUsersList},
		{"system", "audit", PermSystemAudit},
	}
	for _, tc := range cases {
		got, err := RequiredPermission(tc.resource, tc.action)
		if err != nil {
			t.Fatalf("RequiredPermission(%s, %s): %v", tc.resource, tc.action, err)
		}
		if got != tc.want {
			t.Fatalf("RequiredPermission(%s, %s) = %s, want %s", tc.resource, tc.action, got, tc.want)
		}
	}
}

func TestRequiredPermissionUnmapped(t *testing.T) {
	for _, pair := range [][2]string{
		{"cases", "archive"},
		{"invoices", "read"},
		{"parties", "search"},
		{"", ""},
	} {
		if _, err := RequiredPermission(pair[0], pair[1]); !errors.Is(err, ErrUnmappedAction) {
			t.Fatalf("RequiredPermission(%s, %s) error = %v, want ErrUnmappedAction", pair[0], pair[1], err)
		}
	}
}

func TestRolePermissions(t *testing.T) {
	admin := RolePermissions(RoleAdmin)
	if len(admin) != len(Permissions()) {
		t.Fatalf("admin permission count = %d, want every catalog permission (%d)", len(admin), len(Permissions()))
	}

	if RoleHas(RoleClient, PermCasesUpdate) {
		t.Fatal("client must not hold cases:update")
	}
	if !RoleHas(RoleClient, PermCasesRead) {
		t.Fatal("client must hold cases:read")
	}
	if RoleHas(RoleLawyer, PermCasesDelete) {
		t.Fatal("lawyer must not hold cases:delete")
	}
	if RoleHas(RoleParalegal, PermCasesCreate) {
		t.Fatal("paralegal must not hold cases:create")
	}
	if !RoleHas(RoleParalegal, PermCasesSearch) {
		t.Fatal("paralegal must hold cases:search")
	}

	if perms := RolePermissions(Role("INTERN")); len(perms) != 0 {
		t.Fatalf("unknown role permissions = %v, want empty", perms)
	}
}

func TestRolePermissionsReturnsCopy(t *testing.T) {
	first := RolePermissions(RoleClient)
	first[0] = Permission("system:admin")
	second := RolePermissions(RoleClient)
	if second[0] == Permission("system:admin") {
		t.Fatal("mutating the returned slice must not affect the catalog")
	}
}

func TestKnownRoleAndPermission(t *testing.T) {
	for _, role := range Roles() {
		if !KnownRole(role) {
			t.Fatalf("role %s should be known", role)
		}
	}
	if KnownRole(Role("OWNER")) {
		t.Fatal("OWNER should not be a known role")
	}
	if !KnownPermission(PermTimesheetDelete) {
		t.Fatal("timesheet:delete should be in the catalog")
	}
	if KnownPermission(Permission("cases:archive")) {
		t.Fatal("cases:archive should not be in the catalog")
	}
}

func TestPermissionsStableOrder(t *testing.T) {
	first := Permissions()
	second := Permissions()
	if len(first) != len(second) {
		t.Fatalf("permission count changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("permission order unstable at %d: %s vs %s", i, first[i], second[i])
		}
	}
	if first[0] != PermCasesCreate {
		t.Fatalf("first permission = %s, want cases:create", first[0])
	}
}
