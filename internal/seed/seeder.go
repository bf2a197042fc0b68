// Package seed replaces the stored roles with the permission catalog.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/metrics"
	"github.com/tazhibayda/workspace-service/internal/permission"
	"github.com/tazhibayda/workspace-service/internal/repo"
)

type Store interface {
	WithTx(ctx context.Context, fn func(tx repo.Tx) error) error
	ReplaceAllRoles(ctx context.Context, tx repo.Tx, roles []domain.Role) ([]domain.Role, error)
}

type Seeder struct {
	store   Store
	catalog permission.Catalog
	log     *zap.Logger
}

func New(store Store, catalog permission.Catalog, l *zap.Logger) *Seeder {
	if l == nil {
		l = log.L()
	}
	return &Seeder{store: store, catalog: catalog, log: l}
}

// Run deletes every stored role and inserts one per catalog entry, in catalog
// order, inside a single transaction. On failure the previous roles remain.
// Member rows pointing at deleted role ids are left as they are.
func (s *Seeder) Run(ctx context.Context) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, s.catalog.Len())
	for _, e := range s.catalog.Entries() {
		roles = append(roles, domain.Role{Name: e.Role, Permissions: e.Permissions})
	}

	var inserted []domain.Role
	err := s.store.WithTx(ctx, func(tx repo.Tx) error {
		var err error
		inserted, err = s.store.ReplaceAllRoles(ctx, tx, roles)
		return err
	})
	if err != nil {
		s.log.Error("seed roles", zap.Error(err))
		return nil, fmt.Errorf("seed roles: %w", err)
	}

	metrics.SeededRoles.Set(float64(len(inserted)))
	s.log.Info("roles seeded", zap.Int("count", len(inserted)))
	return inserted, nil
}
