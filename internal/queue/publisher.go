package queue

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	Exchange = "auth.events"

	KeyUserRegistered  = "user.registered"
	KeyUserProvisioned = "user.provisioned"
	KeyUserLoggedIn    = "user.loggedin"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, key string, event any, reqID string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }

// UserRegistered is published after a password registration commits.
type UserRegistered struct {
	UserID      primitive.ObjectID `json:"user_id"`
	WorkspaceID primitive.ObjectID `json:"workspace_id"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
}

// UserProvisioned is published when a federated login created a new user.
type UserProvisioned struct {
	UserID      primitive.ObjectID `json:"user_id"`
	WorkspaceID primitive.ObjectID `json:"workspace_id"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Provider    string             `json:"provider"`
}

type UserLoggedIn struct {
	UserID      primitive.ObjectID `json:"user_id"`
	WorkspaceID primitive.ObjectID `json:"workspace_id"`
	Email       string             `json:"email"`
	Provider    string             `json:"provider"`
}
