// Package store is the persistence collaborator. The service talks to the
// Store interface only; Mongo backs it in production and the in-memory
// implementation stands in where no document store is configured (and in
// tests). Both give the same per-document atomicity: a like/follow set
// update and the (voter, poll) vote upsert are single atomic operations.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/models"
)

type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, bio, avatar string) error
	Follow(ctx context.Context, follower, followee primitive.ObjectID) (changed bool, err error)
	Unfollow(ctx context.Context, follower, followee primitive.ObjectID) (changed bool, err error)

	// Posts
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListUserPosts(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Post, error)
	ListFeed(ctx context.Context, limit, offset int) ([]models.Post, error)
	AddLike(ctx context.Context, postID, userID primitive.ObjectID) (added bool, err error)
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (removed bool, err error)
	AppendComment(ctx context.Context, parentID, commentID primitive.ObjectID) error

	// Votes. UpsertVote must behave like a compare-and-swap on the
	// (voter, poll) key: concurrent re-votes collapse to one ballot.
	UpsertVote(ctx context.Context, vote *models.Vote) error
	ListVotes(ctx context.Context, pollID primitive.ObjectID) ([]models.Vote, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID primitive.ObjectID, limit, offset int) (page []models.Notification, hasMore bool, err error)
	MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) error
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)

	Close(ctx context.Context) error
}
