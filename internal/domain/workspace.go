package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Workspace struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name"          json:"name"`
	Description string             `bson:"description"   json:"description"`
	Owner       primitive.ObjectID `bson:"owner"         json:"owner"`
	InviteCode  string             `bson:"invite_code"   json:"invite_code"`
	CreatedAt   time.Time          `bson:"created_at"    json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"    json:"updated_at"`
}

// DefaultWorkspace returns the workspace created for a freshly provisioned user.
func DefaultWorkspace(displayName string, owner primitive.ObjectID) *Workspace {
	return &Workspace{
		Name:        fmt.Sprintf("%s's Workspace", displayName),
		Description: fmt.Sprintf("Workspace for %s", displayName),
		Owner:       owner,
	}
}
