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
	"github.com/tazhibayda/workspace-service/internal/helper"
)

func (s *Store) CreateWorkspace(ctx context.Context, tx Tx, w *domain.Workspace) (err error) {
	sp := startSpan(ctx, "mongo.workspace.insert", tracer.Tag("owner", w.Owner.Hex()))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	now := time.Now().UTC()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	if w.InviteCode == "" {
		w.InviteCode = helper.InviteCode()
	}
	w.CreatedAt, w.UpdatedAt = now, now
	_, err = s.workspaces.InsertOne(s.opCtx(ctx, tx), w)
	return mapErr(err)
}

func (s *Store) FindWorkspaceByID(ctx context.Context, tx Tx, id primitive.ObjectID) (w *domain.Workspace, err error) {
	sp := startSpan(ctx, "mongo.workspace.find_by_id", tracer.Tag("workspace_id", id.Hex()))
	defer func() { sp.Finish(tracer.WithError(err)) }()

	var out domain.Workspace
	err = s.workspaces.FindOne(s.opCtx(ctx, tx), bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
