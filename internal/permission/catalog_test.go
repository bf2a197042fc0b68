package permission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/permission"
)

func TestNewCatalog_OrderAndDedup(t *testing.T) {
	c := permission.NewCatalog(
		permission.Entry{Role: "Owner", Permissions: []string{"all", "read", "all"}},
		permission.Entry{Role: "Member", Permissions: []string{"read"}},
		permission.Entry{Role: "Owner", Permissions: []string{"ignored"}},
	)

	assert.Equal(t, []string{"Owner", "Member"}, c.Roles())
	assert.Equal(t, 2, c.Len())

	p, ok := c.PermissionsFor("Owner")
	require.True(t, ok)
	assert.Equal(t, []string{"all", "read"}, p)

	_, ok = c.PermissionsFor("Nobody")
	assert.False(t, ok)
}

func TestPermissionsFor_ReturnsCopy(t *testing.T) {
	c := permission.NewCatalog(permission.Entry{Role: "Member", Permissions: []string{"read"}})

	p, _ := c.PermissionsFor("Member")
	p[0] = "write"

	again, _ := c.PermissionsFor("Member")
	assert.Equal(t, []string{"read"}, again)
}

func TestDefault_OwnerHasWildcard(t *testing.T) {
	c := permission.Default()

	assert.Equal(t, []string{domain.RoleOwner, domain.RoleAdmin, domain.RoleMember}, c.Roles())
	owner, ok := c.PermissionsFor(domain.RoleOwner)
	require.True(t, ok)
	assert.Contains(t, owner, permission.All)
	assert.Equal(t, owner, c.OwnerPermissions())
}

func TestOwnerPermissions_FallsBackToAll(t *testing.T) {
	c := permission.NewCatalog(permission.Entry{Role: domain.RoleMember, Permissions: []string{"read"}})
	assert.Equal(t, []string{permission.All}, c.OwnerPermissions())
}

func TestAllows(t *testing.T) {
	assert.True(t, permission.Allows([]string{permission.All}, permission.DeleteWorkspace))
	assert.True(t, permission.Allows([]string{permission.ViewOnly}, permission.ViewOnly))
	assert.False(t, permission.Allows([]string{permission.ViewOnly}, permission.EditTask))
	assert.False(t, permission.Allows(nil, permission.ViewOnly))
}
