// Package permission holds the role to permission catalog.
//
// A Catalog is built once at startup and handed to whoever needs it; it is
// never mutated afterwards, so it can be shared between goroutines freely.
package permission

import "github.com/tazhibayda/workspace-service/internal/domain"

// All grants every permission.
const All = "all"

const (
	CreateWorkspace         = "CREATE_WORKSPACE"
	DeleteWorkspace         = "DELETE_WORKSPACE"
	EditWorkspace           = "EDIT_WORKSPACE"
	ManageWorkspaceSettings = "MANAGE_WORKSPACE_SETTINGS"
	AddMember               = "ADD_MEMBER"
	ChangeMemberRole        = "CHANGE_MEMBER_ROLE"
	RemoveMember            = "REMOVE_MEMBER"
	CreateProject           = "CREATE_PROJECT"
	EditProject             = "EDIT_PROJECT"
	DeleteProject           = "DELETE_PROJECT"
	CreateTask              = "CREATE_TASK"
	EditTask                = "EDIT_TASK"
	DeleteTask              = "DELETE_TASK"
	ViewOnly                = "VIEW_ONLY"
)

// Entry is one role definition.
type Entry struct {
	Role        string
	Permissions []string
}

type Catalog struct {
	order []string
	perms map[string][]string
}

// NewCatalog builds a catalog preserving the given order. Duplicate
// permissions within a role are dropped; a role defined twice keeps its
// first definition.
func NewCatalog(entries ...Entry) Catalog {
	c := Catalog{perms: make(map[string][]string, len(entries))}
	for _, e := range entries {
		if e.Role == "" {
			continue
		}
		if _, ok := c.perms[e.Role]; ok {
			continue
		}
		c.order = append(c.order, e.Role)
		c.perms[e.Role] = dedup(e.Permissions)
	}
	return c
}

// Default is the catalog compiled into the service.
func Default() Catalog {
	return NewCatalog(
		Entry{Role: domain.RoleOwner, Permissions: []string{
			All,
			CreateWorkspace, DeleteWorkspace, EditWorkspace, ManageWorkspaceSettings,
			AddMember, ChangeMemberRole, RemoveMember,
			CreateProject, EditProject, DeleteProject,
			CreateTask, EditTask, DeleteTask,
			ViewOnly,
		}},
		Entry{Role: domain.RoleAdmin, Permissions: []string{
			AddMember,
			CreateProject, EditProject, DeleteProject,
			CreateTask, EditTask, DeleteTask,
			ManageWorkspaceSettings,
			ViewOnly,
		}},
		Entry{Role: domain.RoleMember, Permissions: []string{
			ViewOnly,
			CreateTask, EditTask,
		}},
	)
}

// PermissionsFor returns a copy of the permissions of role.
func (c Catalog) PermissionsFor(role string) ([]string, bool) {
	p, ok := c.perms[role]
	if !ok {
		return nil, false
	}
	return append([]string(nil), p...), true
}

func (c Catalog) Roles() []string {
	return append([]string(nil), c.order...)
}

// Entries returns every role in catalog order.
func (c Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, r := range c.order {
		out = append(out, Entry{Role: r, Permissions: append([]string(nil), c.perms[r]...)})
	}
	return out
}

func (c Catalog) Len() int { return len(c.order) }

// OwnerPermissions is what a lazily created OWNER role receives: the catalog
// entry if there is one, otherwise the wildcard alone.
func (c Catalog) OwnerPermissions() []string {
	if p, ok := c.PermissionsFor(domain.RoleOwner); ok && len(p) > 0 {
		return p
	}
	return []string{All}
}

// Allows reports whether granted covers required.
func Allows(granted []string, required string) bool {
	for _, g := range granted {
		if g == All || g == required {
			return true
		}
	}
	return false
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
