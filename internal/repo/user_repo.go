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

func (s *Store) FindUserByEmail(ctx context.Context, tx Tx, email string) (u *domain.User, err error) {
	sp := startSpan(ctx, "mongo.user.find_by_email")
	defer func() { sp.Finish(tracer.WithError(err)) }()

	var out domain.User
	err = s.users.FindOne(s.opCtx(ctx, tx), bson.M{"email": email}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) FindUserByID(ctx context.Context, tx Tx, id primitive.ObjectID) (u *domain.User, err error) {
	sp := startSpan(ctx, "mongo.user.find_by_id", tracer.Tag("user_id", id.Hex()))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	var out domain.User
	err = s.users.FindOne(s.opCtx(ctx, tx), bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser inserts u and fills its ID and timestamps.
func (s *Store) CreateUser(ctx context.Context, tx Tx, u *domain.User) (err error) {
	sp := startSpan(ctx, "mongo.user.insert")
	defer func() { sp.Finish(tracer.WithError(err)) }()

	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt, u.UpdatedAt = now, now
	_, err = s.users.InsertOne(s.opCtx(ctx, tx), u)
	return mapErr(err)
}

func (s *Store) UpdateUser(ctx context.Context, tx Tx, id primitive.ObjectID, p domain.UserPatch) (err error) {
	sp := startSpan(ctx, "mongo.user.update", tracer.Tag("user_id", id.Hex()))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	if p.Empty() {
		n, err := s.users.CountDocuments(s.opCtx(ctx, tx), bson.M{"_id": id})
		if err != nil {
			return mapErr(err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if p.LastLogin != nil {
		set["last_login"] = p.LastLogin.UTC()
	}
	if p.CurrentWorkspace != nil {
		set["current_workspace"] = *p.CurrentWorkspace
	}
	res, err := s.users.UpdateOne(s.opCtx(ctx, tx), bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	return s.users.CountDocuments(ctx, bson.M{"email": email})
}
