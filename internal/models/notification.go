package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeLike    NotificationType = "like"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeFollow  NotificationType = "follow"
	NotificationTypeVote    NotificationType = "vote"
	NotificationTypeMention NotificationType = "mention"
)

type EntityType string

const (
	EntityTypePost EntityType = "post"
	EntityTypeUser EntityType = "user"
)

// Entity is the tagged reference a notification points at: a Post or a
// User, with an explicit discriminant.
type Entity struct {
	Type EntityType         `bson:"type" json:"type"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

// Notification is created as a side effect of like/comment/follow/vote
// actions and mutated only by the read-flag toggle.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`   // recipient
	ActorID   primitive.ObjectID `bson:"actor_id" json:"actor_id"` // who triggered it
	Type      NotificationType   `bson:"type" json:"type"`
	Entity    Entity             `bson:"entity" json:"entity"`
	IsRead    bool               `bson:"is_read" json:"is_read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	// Filled on read.
	Actor *User `bson:"-" json:"actor,omitempty"`
}
