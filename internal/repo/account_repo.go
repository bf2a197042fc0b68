package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/workspace-service/internal/domain"
)

func (s *Store) CreateAccount(ctx context.Context, tx Tx, a *domain.Account) (err error) {
	sp := startSpan(ctx, "mongo.account.insert", tracer.Tag("provider", a.Provider))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = time.Now().UTC()
	_, err = s.accounts.InsertOne(s.opCtx(ctx, tx), a)
	return mapErr(err)
}

func (s *Store) FindAccount(ctx context.Context, tx Tx, provider, providerID string) (a *domain.Account, err error) {
	sp := startSpan(ctx, "mongo.account.find", tracer.Tag("provider", provider))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	var out domain.Account
	err = s.accounts.FindOne(s.opCtx(ctx, tx), bson.M{"provider": provider, "provider_id": providerID}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
