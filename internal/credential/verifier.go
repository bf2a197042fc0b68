// Package credential checks password credentials against stored accounts.
package credential

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/helper"
	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/metrics"
	"github.com/tazhibayda/workspace-service/internal/repo"
	"github.com/tazhibayda/workspace-service/internal/security"
)

type Store interface {
	FindAccount(ctx context.Context, tx repo.Tx, provider, providerID string) (*domain.Account, error)
	FindUserByID(ctx context.Context, tx repo.Tx, id primitive.ObjectID) (*domain.User, error)
}

type VerifyInput struct {
	Email    string
	Password string
	Provider string
}

type Verifier struct {
	store  Store
	hasher security.Hasher
	log    *zap.Logger
	decoy  func() string
}

func NewVerifier(store Store, hasher security.Hasher, l *zap.Logger) *Verifier {
	if hasher == nil {
		hasher = security.NewBcrypt()
	}
	if l == nil {
		l = log.L()
	}
	v := &Verifier{store: store, hasher: hasher, log: l}
	v.decoy = sync.OnceValue(func() string {
		h, err := hasher.Hash("decoy password")
		if err != nil {
			return ""
		}
		return h
	})
	return v
}

// burn spends one hash comparison so failures without a stored password take
// as long as a mismatch.
func (v *Verifier) burn(pw string) {
	_ = v.hasher.Compare(v.decoy(), pw)
}

// Verify returns the sanitized user owning the credentials. Unknown account,
// dangling account and wrong password are indistinguishable to the caller:
// all three fail with domain.ErrInvalidCredentials after one hash comparison.
func (v *Verifier) Verify(ctx context.Context, in VerifyInput) (*domain.SanitizedUser, error) {
	provider := in.Provider
	if provider == "" {
		provider = domain.ProviderEmail
	}
	email := helper.NormalizeEmail(in.Email)
	l := log.WithDD(ctx, v.log, zap.String("provider", provider), zap.String("email_hash", helper.Hash8(email)))

	acc, err := v.store.FindAccount(ctx, nil, provider, email)
	if err != nil {
		metrics.VerifyTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if acc == nil {
		v.burn(in.Password)
		l.Info("verify: account not found")
		metrics.VerifyTotal.WithLabelValues("no_account").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := v.store.FindUserByID(ctx, nil, acc.UserID)
	if err != nil {
		metrics.VerifyTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if user == nil {
		v.burn(in.Password)
		l.Warn("verify: account references missing user", zap.String("user_id", acc.UserID.Hex()))
		metrics.VerifyTotal.WithLabelValues("no_user").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !v.hasher.Compare(user.Password, in.Password) {
		l.Info("verify: password mismatch", zap.String("user_id", user.ID.Hex()))
		metrics.VerifyTotal.WithLabelValues("mismatch").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	metrics.VerifyTotal.WithLabelValues("ok").Inc()
	return user.Sanitized(), nil
}
