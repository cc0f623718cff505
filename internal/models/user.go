package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Username    string               `bson:"username" json:"username"` // globally unique handle
	DisplayName string               `bson:"display_name" json:"display_name"`
	Email       string               `bson:"email" json:"email"`
	Bio         string               `bson:"bio" json:"bio"`
	Avatar      string               `bson:"avatar" json:"avatar"` // public URL on the object host
	ExternalID  string               `bson:"external_id" json:"-"` // identity provider subject
	Followers   []primitive.ObjectID `bson:"followers" json:"followers"`
	Following   []primitive.ObjectID `bson:"following" json:"following"`
	Posts       []primitive.ObjectID `bson:"posts" json:"posts"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

// Identity is the verified profile handed over by the identity provider.
// The local User record mirrors it on first sight, keyed by ExternalID.
type Identity struct {
	ExternalID  string `json:"external_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}
