package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProviderEmail    = "EMAIL"
	ProviderGoogle   = "GOOGLE"
	ProviderGithub   = "GITHUB"
	ProviderFacebook = "FACEBOOK"
)

// Account binds a user to one identity source. (Provider, ProviderID) is unique.
type Account struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id"       json:"user_id"`
	Provider   string             `bson:"provider"      json:"provider"`
	ProviderID string             `bson:"provider_id"   json:"provider_id"` // email for EMAIL, subject for OAuth
	CreatedAt  time.Time          `bson:"created_at"    json:"created_at"`
}
