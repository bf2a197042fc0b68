package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty"               json:"id"`
	Email            string              `bson:"email"                       json:"email"`
	Name             string              `bson:"name"                        json:"name"`
	ProfilePicture   *string             `bson:"profile_picture"             json:"profile_picture"`
	Password         string              `bson:"password,omitempty"          json:"-"` // bcrypt hash, password accounts only
	CurrentWorkspace *primitive.ObjectID `bson:"current_workspace,omitempty" json:"current_workspace,omitempty"`
	LastLogin        *time.Time          `bson:"last_login,omitempty"        json:"last_login,omitempty"`
	IsActive         bool                `bson:"is_active"                   json:"is_active"`
	CreatedAt        time.Time           `bson:"created_at"                  json:"created_at"`
	UpdatedAt        time.Time           `bson:"updated_at"                  json:"updated_at"`
}

// SanitizedUser is a User without its stored credential. It is the only
// user projection that leaves the credential verifier.
type SanitizedUser struct {
	ID               primitive.ObjectID  `json:"id"`
	Email            string              `json:"email"`
	Name             string              `json:"name"`
	ProfilePicture   *string             `json:"profile_picture"`
	CurrentWorkspace *primitive.ObjectID `json:"current_workspace,omitempty"`
	LastLogin        *time.Time          `json:"last_login,omitempty"`
	IsActive         bool                `json:"is_active"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (u *User) Sanitized() *SanitizedUser {
	if u == nil {
		return nil
	}
	return &SanitizedUser{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		ProfilePicture:   u.ProfilePicture,
		CurrentWorkspace: u.CurrentWorkspace,
		LastLogin:        u.LastLogin,
		IsActive:         u.IsActive,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// UserPatch lists the user fields the provisioning flows mutate. Nil fields
// are left untouched.
type UserPatch struct {
	LastLogin        *time.Time
	CurrentWorkspace *primitive.ObjectID
}

// Empty reports a patch that changes nothing; stores skip the write.
func (p UserPatch) Empty() bool {
	return p.LastLogin == nil && p.CurrentWorkspace == nil
}
