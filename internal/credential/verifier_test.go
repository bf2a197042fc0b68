package credential_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tazhibayda/workspace-service/internal/credential"
	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/repo"
	"github.com/tazhibayda/workspace-service/internal/security"
)

var hasher = security.BcryptHasher{Cost: 4}

func seedPasswordUser(t *testing.T, store *repo.Memory, email, pw string) *domain.User {
	t.Helper()
	ctx := context.Background()
	hash, err := hasher.Hash(pw)
	require.NoError(t, err)
	u := &domain.User{Email: email, Name: "Dana", Password: hash, IsActive: true}
	require.NoError(t, store.CreateUser(ctx, nil, u))
	require.NoError(t, store.CreateAccount(ctx, nil, &domain.Account{
		UserID: u.ID, Provider: domain.ProviderEmail, ProviderID: email,
	}))
	return u
}

func newVerifier(store credential.Store) (*credential.Verifier, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return credential.NewVerifier(store, hasher, zap.New(core)), logs
}

func TestVerify_OK(t *testing.T) {
	store := repo.NewMemory()
	u := seedPasswordUser(t, store, "dana@x.com", "hunter2")
	v, _ := newVerifier(store)

	got, err := v.Verify(context.Background(), credential.VerifyInput{Email: " Dana@X.com", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "dana@x.com", got.Email)
}

func TestVerify_FailuresLookTheSame(t *testing.T) {
	store := repo.NewMemory()
	seedPasswordUser(t, store, "dana@x.com", "hunter2")
	orphanEmail := "ghost@x.com"
	require.NoError(t, store.CreateAccount(context.Background(), nil, &domain.Account{
		UserID: primitive.NewObjectID(), Provider: domain.ProviderEmail, ProviderID: orphanEmail,
	}))
	v, logs := newVerifier(store)

	cases := []struct {
		name string
		in   credential.VerifyInput
		log  string
	}{
		{"wrong password", credential.VerifyInput{Email: "dana@x.com", Password: "nope"}, "verify: password mismatch"},
		{"unknown email", credential.VerifyInput{Email: "nobody@x.com", Password: "hunter2"}, "verify: account not found"},
		{"dangling account", credential.VerifyInput{Email: orphanEmail, Password: "hunter2"}, "verify: account references missing user"},
		{"other provider", credential.VerifyInput{Email: "dana@x.com", Password: "hunter2", Provider: domain.ProviderGoogle}, "verify: account not found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := v.Verify(context.Background(), tc.in)
			assert.Nil(t, got)
			assert.Same(t, domain.ErrInvalidCredentials, err)
			assert.Equal(t, "unauthorized: invalid email or password", err.Error())
			assert.NotZero(t, logs.FilterMessage(tc.log).Len())
		})
	}
}

func TestVerify_DoesNotLogEmail(t *testing.T) {
	v, logs := newVerifier(repo.NewMemory())
	_, err := v.Verify(context.Background(), credential.VerifyInput{Email: "secret@x.com", Password: "pw"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	for _, e := range logs.All() {
		for k, val := range e.ContextMap() {
			assert.NotContains(t, val, "secret@x.com", "field %s", k)
		}
	}
}

type countingHasher struct {
	security.Hasher
	compares atomic.Int32
}

func (h *countingHasher) Compare(hash, pw string) bool {
	h.compares.Add(1)
	return h.Hasher.Compare(hash, pw)
}

func TestVerify_EveryFailureComparesOnce(t *testing.T) {
	store := repo.NewMemory()
	seedPasswordUser(t, store, "dana@x.com", "hunter2")
	require.NoError(t, store.CreateAccount(context.Background(), nil, &domain.Account{
		UserID: primitive.NewObjectID(), Provider: domain.ProviderEmail, ProviderID: "ghost@x.com",
	}))
	oauthOnly := &domain.User{Email: "gina@x.com", Name: "Gina", IsActive: true}
	require.NoError(t, store.CreateUser(context.Background(), nil, oauthOnly))
	require.NoError(t, store.CreateAccount(context.Background(), nil, &domain.Account{
		UserID: oauthOnly.ID, Provider: domain.ProviderEmail, ProviderID: "gina@x.com",
	}))

	for _, email := range []string{"dana@x.com", "nobody@x.com", "ghost@x.com", "gina@x.com"} {
		t.Run(email, func(t *testing.T) {
			h := &countingHasher{Hasher: hasher}
			v := credential.NewVerifier(store, h, zap.NewNop())

			_, err := v.Verify(context.Background(), credential.VerifyInput{Email: email, Password: "wrong"})
			require.ErrorIs(t, err, domain.ErrInvalidCredentials)
			assert.EqualValues(t, 1, h.compares.Load())
		})
	}
}

type brokenStore struct{ err error }

func (b brokenStore) FindAccount(context.Context, repo.Tx, string, string) (*domain.Account, error) {
	return nil, b.err
}

func (b brokenStore) FindUserByID(context.Context, repo.Tx, primitive.ObjectID) (*domain.User, error) {
	return nil, b.err
}

func TestVerify_StoreErrorPassesThrough(t *testing.T) {
	boom := errors.New("connection reset")
	v, _ := newVerifier(brokenStore{err: boom})

	_, err := v.Verify(context.Background(), credential.VerifyInput{Email: "a@x.com", Password: "pw"})
	assert.Same(t, boom, err)
}
