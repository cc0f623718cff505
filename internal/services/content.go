package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/apperr"
	"pollup/internal/codec"
	"pollup/internal/models"
	"pollup/internal/poll"
	"pollup/internal/store"
	"pollup/internal/utils"
)

const DefaultPageSize = 20

// ContentService validates and persists mutations and composes entities
// for presentation. It is stateless between calls: everything it knows
// lives in the store.
type ContentService struct {
	store store.Store
}

func NewContentService(s store.Store) *ContentService {
	return &ContentService{store: s}
}

// CreatePostInput carries everything createPost needs; the author comes
// from the verified identity, never from the payload.
type CreatePostInput struct {
	Body       string              `json:"body"`
	Kind       models.PostKind     `json:"kind"`
	Poll       *models.PollContent `json:"poll,omitempty"`
	Tags       []string            `json:"tags,omitempty"`
	Media      []string            `json:"media,omitempty"`
	Visibility models.Visibility   `json:"visibility,omitempty"`
}

func (s *ContentService) CreatePost(ctx context.Context, authorID primitive.ObjectID, input CreatePostInput) (*models.Post, error) {
	if authorID.IsZero() {
		return nil, apperr.AuthenticationRequired("sign in to post")
	}

	post := &models.Post{
		ID:         primitive.NewObjectID(),
		UserID:     authorID,
		Kind:       input.Kind,
		Body:       input.Body,
		Poll:       input.Poll,
		Likes:      []primitive.ObjectID{},
		Comments:   []primitive.ObjectID{},
		Tags:       input.Tags,
		Media:      input.Media,
		Visibility: input.Visibility,
		CreatedAt:  time.Now(),
	}
	if post.Visibility == "" {
		post.Visibility = models.VisibilityPublic
	}
	if post.Poll != nil && post.Poll.ID.IsZero() {
		post.Poll.ID = primitive.NewObjectID()
	}
	// Validation happens before any write; a malformed poll persists nothing.
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return s.hydratePost(ctx, post)
}

// CastVote replaces any prior ballot by the same voter on the same poll
// (the upsert is atomic on that key) and returns the recomputed summary.
// The post author gets a vote notification unless they voted themselves.
func (s *ContentService) CastVote(ctx context.Context, voterID, pollID, postID primitive.ObjectID, choice models.Choice) (*models.VoteSummary, error) {
	if voterID.IsZero() {
		return nil, apperr.AuthenticationRequired("sign in to vote")
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Poll == nil || post.Poll.ID != pollID {
		return nil, apperr.Validation("post %s carries no poll %s", postID.Hex(), pollID.Hex())
	}
	if err := choice.Validate(post.Poll); err != nil {
		return nil, err
	}

	vote := &models.Vote{
		ID:        primitive.NewObjectID(),
		UserID:    voterID,
		PollID:    pollID,
		PostID:    postID,
		Choice:    choice,
		CreatedAt: time.Now(),
	}
	if err := s.store.UpsertVote(ctx, vote); err != nil {
		return nil, err
	}

	s.notify(ctx, post.UserID, voterID, models.NotificationTypeVote, models.Entity{
		Type: models.EntityTypePost,
		ID:   postID,
	})

	votes, err := s.store.ListVotes(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return poll.Aggregate(post.Poll, votes)
}

// ToggleLike flips the caller's membership in the post's like set and
// returns the resulting like count. The like notification fires on the
// add transition only.
func (s *ContentService) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (int, error) {
	if userID.IsZero() {
		return 0, apperr.AuthenticationRequired("sign in to like")
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return 0, err
	}

	liked := false
	for _, id := range post.Likes {
		if id == userID {
			liked = true
			break
		}
	}

	if liked {
		if _, err := s.store.RemoveLike(ctx, postID, userID); err != nil {
			return 0, err
		}
	} else {
		added, err := s.store.AddLike(ctx, postID, userID)
		if err != nil {
			return 0, err
		}
		if added {
			s.notify(ctx, post.UserID, userID, models.NotificationTypeLike, models.Entity{
				Type: models.EntityTypePost,
				ID:   postID,
			})
		}
	}

	updated, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return 0, err
	}
	return len(updated.Likes), nil
}

// AddComment creates a comment-kind post under the parent and links it.
func (s *ContentService) AddComment(ctx context.Context, parentID, authorID primitive.ObjectID, body string) (*models.Post, error) {
	if authorID.IsZero() {
		return nil, apperr.AuthenticationRequired("sign in to comment")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validation("comment body cannot be empty")
	}

	parent, err := s.store.GetPost(ctx, parentID)
	if err != nil {
		if errors.Is(err, apperr.NotFound("")) {
			return nil, apperr.Validation("parent post %s does not exist", parentID.Hex())
		}
		return nil, err
	}

	comment := &models.Post{
		ID:         primitive.NewObjectID(),
		UserID:     authorID,
		Kind:       models.PostKindComment,
		Body:       body,
		ParentID:   &parentID,
		Likes:      []primitive.ObjectID{},
		Comments:   []primitive.ObjectID{},
		Visibility: parent.Visibility,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreatePost(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.store.AppendComment(ctx, parentID, comment.ID); err != nil {
		return nil, err
	}

	s.notify(ctx, parent.UserID, authorID, models.NotificationTypeComment, models.Entity{
		Type: models.EntityTypePost,
		ID:   parentID,
	})

	return s.hydratePost(ctx, comment)
}

func (s *ContentService) Follow(ctx context.Context, followerID, followeeID primitive.ObjectID) error {
	if followerID.IsZero() {
		return apperr.AuthenticationRequired("sign in to follow")
	}
	if followerID == followeeID {
		return apperr.Validation("cannot follow yourself")
	}
	changed, err := s.store.Follow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if changed {
		s.notify(ctx, followeeID, followerID, models.NotificationTypeFollow, models.Entity{
			Type: models.EntityTypeUser,
			ID:   followerID,
		})
	}
	return nil
}

func (s *ContentService) Unfollow(ctx context.Context, followerID, followeeID primitive.ObjectID) error {
	if followerID.IsZero() {
		return apperr.AuthenticationRequired("sign in to unfollow")
	}
	_, err := s.store.Unfollow(ctx, followerID, followeeID)
	return err
}

func (s *ContentService) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.hydratePost(ctx, post)
}

func (s *ContentService) GetUserPosts(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Post, error) {
	limit = normalizeLimit(limit)
	posts, err := s.store.ListUserPosts(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.hydratePosts(ctx, posts)
}

func (s *ContentService) GetFeed(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit = normalizeLimit(limit)
	posts, err := s.store.ListFeed(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.hydratePosts(ctx, posts)
}

func (s *ContentService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *ContentService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

func (s *ContentService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, displayName, bio, avatar string) (*models.User, error) {
	if userID.IsZero() {
		return nil, apperr.AuthenticationRequired("sign in first")
	}
	if err := s.store.UpdateProfile(ctx, userID, displayName, bio, avatar); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, userID)
}

// NotificationPage is one page of a user's notifications, newest first.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	HasMore       bool                  `json:"has_more"`
}

func (s *ContentService) GetNotifications(ctx context.Context, userID primitive.ObjectID, limit, offset int) (*NotificationPage, error) {
	if userID.IsZero() {
		return nil, apperr.AuthenticationRequired("sign in first")
	}
	limit = normalizeLimit(limit)
	page, hasMore, err := s.store.ListNotifications(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range page {
		if actor, err := s.store.GetUser(ctx, page[i].ActorID); err == nil {
			page[i].Actor = actor
		}
	}
	return &NotificationPage{Notifications: page, HasMore: hasMore}, nil
}

func (s *ContentService) MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}

func (s *ContentService) MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

func (s *ContentService) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

// MirrorIdentity returns the local user for a verified external identity,
// creating the mirror on first sight. Safe to call on every request.
func (s *ContentService) MirrorIdentity(ctx context.Context, ident models.Identity) (*models.User, error) {
	if ident.ExternalID == "" {
		return nil, apperr.AuthenticationRequired("no verified identity")
	}

	user, err := s.store.GetUserByExternalID(ctx, ident.ExternalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperr.NotFound("")) {
		return nil, err
	}

	username := ident.Username
	if username == "" {
		username = strings.Split(ident.Email, "@")[0]
	}

	now := time.Now()
	user = &models.User{
		ID:          primitive.NewObjectID(),
		Username:    username,
		DisplayName: ident.DisplayName,
		Email:       ident.Email,
		Avatar:      ident.Avatar,
		ExternalID:  ident.ExternalID,
		Followers:   []primitive.ObjectID{},
		Following:   []primitive.ObjectID{},
		Posts:       []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, apperr.Validation("")) {
		// Handle collision with an existing user: disambiguate with a
		// fragment of the external id and try once more. If another
		// request mirrored the same identity concurrently, the lookup
		// below picks up its record instead.
		if existing, lookupErr := s.store.GetUserByExternalID(ctx, ident.ExternalID); lookupErr == nil {
			return existing, nil
		}
		user.Username = fmt.Sprintf("%s_%s", username, suffixOf(ident.ExternalID))
		err = s.store.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ContentService) hydratePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if token, err := codec.Encode(post.ID.Hex()); err == nil {
		post.Token = token
	}
	if author, err := s.store.GetUser(ctx, post.UserID); err == nil {
		post.Author = author
	}
	if post.Body != "" {
		post.BodyHTML = string(utils.RenderMarkdown(post.Body))
	}
	if post.Poll != nil {
		if token, err := codec.Encode(post.Poll.ID.Hex()); err == nil {
			post.Poll.Token = token
		}
		votes, err := s.store.ListVotes(ctx, post.Poll.ID)
		if err != nil {
			return nil, err
		}
		summary, err := poll.Aggregate(post.Poll, votes)
		if err != nil {
			return nil, err
		}
		post.Summary = summary
	}
	return post, nil
}

func (s *ContentService) hydratePosts(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	for i := range posts {
		if _, err := s.hydratePost(ctx, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// notify records a notification unless the actor is the recipient.
// Notification writes ride after the main mutation and are individually
// visible; a failure here never fails the action itself.
func (s *ContentService) notify(ctx context.Context, recipient, actor primitive.ObjectID, typ models.NotificationType, entity models.Entity) {
	if recipient == actor {
		return
	}
	_ = s.store.CreateNotification(ctx, &models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    recipient,
		ActorID:   actor,
		Type:      typ,
		Entity:    entity,
		IsRead:    false,
		CreatedAt: time.Now(),
	})
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return DefaultPageSize
	}
	return limit
}

func suffixOf(s string) string {
	if len(s) <= 6 {
		return s
	}
	return s[len(s)-6:]
}
