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

func (s *Store) FindRoleByName(ctx context.Context, tx Tx, name string) (r *domain.Role, err error) {
	sp := startSpan(ctx, "mongo.role.find_by_name", tracer.Tag("role", name))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	var out domain.Role
	err = s.roles.FindOne(s.opCtx(ctx, tx), bson.M{"name": name}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) FindRoleByID(ctx context.Context, tx Tx, id primitive.ObjectID) (r *domain.Role, err error) {
	sp := startSpan(ctx, "mongo.role.find_by_id")
	defer func() { sp.Finish(tracer.WithError(err)) }()

	var out domain.Role
	err = s.roles.FindOne(s.opCtx(ctx, tx), bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateRole(ctx context.Context, tx Tx, r *domain.Role) (err error) {
	sp := startSpan(ctx, "mongo.role.insert", tracer.Tag("role", r.Name))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	now := time.Now().UTC()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt, r.UpdatedAt = now, now
	_, err = s.roles.InsertOne(s.opCtx(ctx, tx), r)
	return mapErr(err)
}

// ReplaceAllRoles deletes every role and inserts roles in their place.
// Run it inside WithTx to make the reset atomic.
func (s *Store) ReplaceAllRoles(ctx context.Context, tx Tx, roles []domain.Role) (out []domain.Role, err error) {
	sp := startSpan(ctx, "mongo.role.replace_all", tracer.Tag("count", len(roles)))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	opCtx := s.opCtx(ctx, tx)
	if _, err = s.roles.DeleteMany(opCtx, bson.M{}); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []domain.Role{}, nil
	}

	now := time.Now().UTC()
	out = make([]domain.Role, len(roles))
	docs := make([]any, len(roles))
	for i, r := range roles {
		r.ID = primitive.NewObjectID()
		r.Permissions = append([]string(nil), r.Permissions...)
		r.CreatedAt, r.UpdatedAt = now, now
		out[i] = r
		docs[i] = r
	}
	if _, err = s.roles.InsertMany(opCtx, docs); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]domain.Role, error) {
	cur, err := s.roles.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Role
	for cur.Next(ctx) {
		var r domain.Role
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cur.Err()
}
