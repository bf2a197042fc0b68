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

func (s *Store) CreateMember(ctx context.Context, tx Tx, m *domain.Member) (err error) {
	sp := startSpan(ctx, "mongo.member.insert",
		tracer.Tag("user_id", m.UserID.Hex()),
		tracer.Tag("workspace_id", m.WorkspaceID.Hex()),
	)
	defer func() { sp.Finish(tracer.WithError(err)) }()

	now := time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = now
	}
	m.CreatedAt, m.UpdatedAt = now, now
	_, err = s.members.InsertOne(s.opCtx(ctx, tx), m)
	return mapErr(err)
}

func (s *Store) FindMember(ctx context.Context, tx Tx, userID, workspaceID primitive.ObjectID) (m *domain.Member, err error) {
	sp := startSpan(ctx, "mongo.member.find",
		tracer.Tag("user_id", userID.Hex()),
		tracer.Tag("workspace_id", workspaceID.Hex()),
	)
	defer func() { sp.Finish(tracer.WithError(err)) }()

	var out domain.Member
	err = s.members.FindOne(s.opCtx(ctx, tx), bson.M{"user_id": userID, "workspace_id": workspaceID}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
