package seed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/metrics"
	"github.com/tazhibayda/workspace-service/internal/permission"
	"github.com/tazhibayda/workspace-service/internal/repo"
	"github.com/tazhibayda/workspace-service/internal/seed"
)

func byName(roles []domain.Role) map[string][]string {
	out := make(map[string][]string, len(roles))
	for _, r := range roles {
		out[r.Name] = r.Permissions
	}
	return out
}

func TestRun_TwiceLeavesExactlyTheCatalog(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	require.NoError(t, store.CreateRole(ctx, nil, &domain.Role{Name: "LEGACY", Permissions: []string{"x"}}))

	cat := permission.Default()
	s := seed.New(store, cat, zap.NewNop())

	first, err := s.Run(ctx)
	require.NoError(t, err)
	second, err := s.Run(ctx)
	require.NoError(t, err)

	require.Len(t, second, cat.Len())
	for i, role := range cat.Roles() {
		assert.Equal(t, role, second[i].Name)
		want, _ := cat.PermissionsFor(role)
		assert.Equal(t, want, second[i].Permissions)
		assert.NotEqual(t, first[i].ID, second[i].ID, "roles are recreated")
	}

	stored, err := store.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, cat.Len())
	assert.Equal(t, byName(second), byName(stored))
	assert.Equal(t, float64(cat.Len()), testutil.ToFloat64(metrics.SeededRoles))
}

func TestRun_EmptyCatalogClearsRoles(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	require.NoError(t, store.CreateRole(ctx, nil, &domain.Role{Name: domain.RoleOwner}))

	got, err := seed.New(store, permission.NewCatalog(), zap.NewNop()).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, store.Stats().Roles)
}

type failingStore struct {
	*repo.Memory
	err error
}

func (f failingStore) ReplaceAllRoles(ctx context.Context, tx repo.Tx, roles []domain.Role) ([]domain.Role, error) {
	if _, err := f.Memory.ReplaceAllRoles(ctx, tx, roles); err != nil {
		return nil, err
	}
	return nil, f.err
}

func TestRun_FailureKeepsPreviousRoles(t *testing.T) {
	ctx := context.Background()
	mem := repo.NewMemory()
	require.NoError(t, mem.CreateRole(ctx, nil, &domain.Role{Name: "LEGACY"}))
	boom := errors.New("insert failed")

	_, err := seed.New(failingStore{Memory: mem, err: boom}, permission.Default(), zap.NewNop()).Run(ctx)
	assert.ErrorIs(t, err, boom)

	roles, err := mem.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "LEGACY", roles[0].Name)
}
