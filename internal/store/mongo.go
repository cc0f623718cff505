package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pollup/internal/apperr"
	"pollup/internal/models"
)

// Mongo backs the Store with a document database. Identifiers are native
// ObjectIDs; set updates go through $addToSet/$pull and the vote upsert
// is a single update keyed by (user_id, poll_id), so each operation is
// atomic at the document level.
type Mongo struct {
	client        *mongo.Client
	users         *mongo.Collection
	posts         *mongo.Collection
	votes         *mongo.Collection
	notifications *mongo.Collection
}

func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	m := &Mongo{
		client:        client,
		users:         db.Collection("users"),
		posts:         db.Collection("posts"),
		votes:         db.Collection("votes"),
		notifications: db.Collection("notifications"),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		// Unique over non-empty emails only; identities without one share "".
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}})},
		{Keys: bson.D{{Key: "external_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	// One ballot per (voter, poll); the unique index is what makes the
	// upsert behave like a compare-and-swap under concurrent re-votes.
	_, err = m.votes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "poll_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("vote index: %w", err)
	}
	_, err = m.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("notification index: %w", err)
	}
	return nil
}

func (m *Mongo) CreateUser(ctx context.Context, user *models.User) error {
	_, err := m.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Validation("username or email already taken")
	}
	return err
}

func (m *Mongo) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *Mongo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"username": username})
}

func (m *Mongo) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"external_id": externalID})
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := m.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *Mongo) UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, bio, avatar string) error {
	set := bson.M{"updated_at": time.Now()}
	if displayName != "" {
		set["display_name"] = displayName
	}
	if bio != "" {
		set["bio"] = bio
	}
	if avatar != "" {
		set["avatar"] = avatar
	}
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user %s", id.Hex())
	}
	return nil
}

func (m *Mongo) Follow(ctx context.Context, follower, followee primitive.ObjectID) (bool, error) {
	res, err := m.users.UpdateOne(ctx,
		bson.M{"_id": follower},
		bson.M{"$addToSet": bson.M{"following": followee}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, apperr.NotFound("user %s", follower.Hex())
	}
	changed := res.ModifiedCount > 0
	back, err := m.users.UpdateOne(ctx,
		bson.M{"_id": followee},
		bson.M{"$addToSet": bson.M{"followers": follower}})
	if err != nil {
		return changed, err
	}
	if back.MatchedCount == 0 {
		return changed, apperr.NotFound("user %s", followee.Hex())
	}
	return changed, nil
}

func (m *Mongo) Unfollow(ctx context.Context, follower, followee primitive.ObjectID) (bool, error) {
	res, err := m.users.UpdateOne(ctx,
		bson.M{"_id": follower},
		bson.M{"$pull": bson.M{"following": followee}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, apperr.NotFound("user %s", follower.Hex())
	}
	changed := res.ModifiedCount > 0
	if _, err := m.users.UpdateOne(ctx,
		bson.M{"_id": followee},
		bson.M{"$pull": bson.M{"followers": follower}}); err != nil {
		return changed, err
	}
	return changed, nil
}

func (m *Mongo) CreatePost(ctx context.Context, post *models.Post) error {
	if _, err := m.posts.InsertOne(ctx, post); err != nil {
		return err
	}
	_, err := m.users.UpdateOne(ctx,
		bson.M{"_id": post.UserID},
		bson.M{"$push": bson.M{"posts": post.ID}})
	return err
}

func (m *Mongo) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := m.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("post %s", id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (m *Mongo) ListUserPosts(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Post, error) {
	filter := bson.M{"user_id": userID, "kind": bson.M{"$ne": models.PostKindComment}}
	return m.listPosts(ctx, filter, limit, offset)
}

func (m *Mongo) ListFeed(ctx context.Context, limit, offset int) ([]models.Post, error) {
	filter := bson.M{"kind": bson.M{"$ne": models.PostKindComment}, "visibility": models.VisibilityPublic}
	return m.listPosts(ctx, filter, limit, offset)
}

func (m *Mongo) listPosts(ctx context.Context, filter bson.M, limit, offset int) ([]models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := m.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (m *Mongo) AddLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	res, err := m.posts.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$addToSet": bson.M{"likes": userID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, apperr.NotFound("post %s", postID.Hex())
	}
	return res.ModifiedCount > 0, nil
}

func (m *Mongo) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	res, err := m.posts.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$pull": bson.M{"likes": userID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, apperr.NotFound("post %s", postID.Hex())
	}
	return res.ModifiedCount > 0, nil
}

func (m *Mongo) AppendComment(ctx context.Context, parentID, commentID primitive.ObjectID) error {
	res, err := m.posts.UpdateOne(ctx,
		bson.M{"_id": parentID},
		bson.M{"$addToSet": bson.M{"comments": commentID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post %s", parentID.Hex())
	}
	return nil
}

func (m *Mongo) UpsertVote(ctx context.Context, vote *models.Vote) error {
	filter := bson.M{"user_id": vote.UserID, "poll_id": vote.PollID}
	update := bson.M{
		"$set": bson.M{
			"post_id":    vote.PostID,
			"choice":     vote.Choice,
			"created_at": vote.CreatedAt,
		},
		"$setOnInsert": bson.M{"_id": vote.ID},
	}
	_, err := m.votes.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Lost the race against another insert for the same key; the
		// other writer's ballot document exists now, replace its payload.
		_, err = m.votes.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
			"post_id":    vote.PostID,
			"choice":     vote.Choice,
			"created_at": vote.CreatedAt,
		}})
	}
	return err
}

func (m *Mongo) ListVotes(ctx context.Context, pollID primitive.ObjectID) ([]models.Vote, error) {
	cursor, err := m.votes.Find(ctx, bson.M{"poll_id": pollID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	votes := []models.Vote{}
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

func (m *Mongo) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := m.notifications.InsertOne(ctx, n)
	return err
}

func (m *Mongo) ListNotifications(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Notification, bool, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit) + 1) // one extra row answers hasMore
	cursor, err := m.notifications.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, false, err
	}
	defer cursor.Close(ctx)

	page := []models.Notification{}
	if err := cursor.All(ctx, &page); err != nil {
		return nil, false, err
	}
	hasMore := len(page) > limit
	if hasMore {
		page = page[:limit]
	}
	return page, hasMore, nil
}

func (m *Mongo) MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := m.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("notification %s", id.Hex())
	}
	return nil
}

func (m *Mongo) MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := m.notifications.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	return err
}

func (m *Mongo) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return m.notifications.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
