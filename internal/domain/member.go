package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member binds a user to a workspace with a role. One row per (user, workspace).
type Member struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id"       json:"user_id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id"  json:"workspace_id"`
	RoleID      primitive.ObjectID `bson:"role"          json:"role_id"`
	JoinedAt    time.Time          `bson:"joined_at"     json:"joined_at"`
	CreatedAt   time.Time          `bson:"created_at"    json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"    json:"updated_at"`
}

// ProvisionResult identifies the user and workspace a login or registration resolved to.
type ProvisionResult struct {
	UserID      primitive.ObjectID `json:"user_id"`
	WorkspaceID primitive.ObjectID `json:"workspace_id"`
}
