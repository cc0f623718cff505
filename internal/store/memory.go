package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/apperr"
	"pollup/internal/models"
)

// Memory is the in-process store used when no MONGO_URI is configured,
// and by the test suite. One mutex guards everything; each exported
// method is a single atomic operation, matching the per-document
// atomicity the Mongo store gives.
type Memory struct {
	mu            sync.RWMutex
	users         map[primitive.ObjectID]*models.User
	posts         map[primitive.ObjectID]*models.Post
	votes         map[voteKey]*models.Vote
	notifications []*models.Notification
}

type voteKey struct {
	userID primitive.ObjectID
	pollID primitive.ObjectID
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[primitive.ObjectID]*models.User),
		posts: make(map[primitive.ObjectID]*models.Post),
		votes: make(map[voteKey]*models.Vote),
	}
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return apperr.Validation("username %q is taken", user.Username)
		}
		if user.Email != "" && u.Email == user.Email {
			return apperr.Validation("email %q is taken", user.Email)
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user %s", id.Hex())
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user %q", username)
}

func (m *Memory) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("identity %q not mirrored", externalID)
}

func (m *Memory) UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, bio, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user %s", id.Hex())
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	if bio != "" {
		u.Bio = bio
	}
	if avatar != "" {
		u.Avatar = avatar
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) Follow(ctx context.Context, follower, followee primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fr, ok := m.users[follower]
	if !ok {
		return false, apperr.NotFound("user %s", follower.Hex())
	}
	fe, ok := m.users[followee]
	if !ok {
		return false, apperr.NotFound("user %s", followee.Hex())
	}
	if containsID(fr.Following, followee) {
		return false, nil
	}
	fr.Following = append(fr.Following, followee)
	fe.Followers = append(fe.Followers, follower)
	return true, nil
}

func (m *Memory) Unfollow(ctx context.Context, follower, followee primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fr, ok := m.users[follower]
	if !ok {
		return false, apperr.NotFound("user %s", follower.Hex())
	}
	fe, ok := m.users[followee]
	if !ok {
		return false, apperr.NotFound("user %s", followee.Hex())
	}
	if !containsID(fr.Following, followee) {
		return false, nil
	}
	fr.Following = removeID(fr.Following, followee)
	fe.Followers = removeID(fe.Followers, follower)
	return true, nil
}

func (m *Memory) CreatePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	author, ok := m.users[post.UserID]
	if !ok {
		return apperr.NotFound("user %s", post.UserID.Hex())
	}
	cp := clonePost(post)
	m.posts[post.ID] = cp
	author.Posts = append(author.Posts, post.ID)
	return nil
}

func (m *Memory) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, apperr.NotFound("post %s", id.Hex())
	}
	return clonePost(p), nil
}

func (m *Memory) ListUserPosts(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Post
	for _, p := range m.posts {
		if p.UserID == userID && p.Kind != models.PostKindComment {
			out = append(out, *clonePost(p))
		}
	}
	sortPostsNewest(out)
	return pagePosts(out, limit, offset), nil
}

func (m *Memory) ListFeed(ctx context.Context, limit, offset int) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Post
	for _, p := range m.posts {
		if p.Kind != models.PostKindComment && p.Visibility == models.VisibilityPublic {
			out = append(out, *clonePost(p))
		}
	}
	sortPostsNewest(out)
	return pagePosts(out, limit, offset), nil
}

func (m *Memory) AddLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return false, apperr.NotFound("post %s", postID.Hex())
	}
	if containsID(p.Likes, userID) {
		return false, nil
	}
	p.Likes = append(p.Likes, userID)
	return true, nil
}

func (m *Memory) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return false, apperr.NotFound("post %s", postID.Hex())
	}
	if !containsID(p.Likes, userID) {
		return false, nil
	}
	p.Likes = removeID(p.Likes, userID)
	return true, nil
}

func (m *Memory) AppendComment(ctx context.Context, parentID, commentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[parentID]
	if !ok {
		return apperr.NotFound("post %s", parentID.Hex())
	}
	if !containsID(p.Comments, commentID) {
		p.Comments = append(p.Comments, commentID)
	}
	return nil
}

func (m *Memory) UpsertVote(ctx context.Context, vote *models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *vote
	m.votes[voteKey{vote.UserID, vote.PollID}] = &cp
	return nil
}

func (m *Memory) ListVotes(ctx context.Context, pollID primitive.ObjectID) ([]models.Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Vote
	for k, v := range m.votes {
		if k.pollID == pollID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

func (m *Memory) ListNotifications(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Notification, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var mine []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			mine = append(mine, *n)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })

	if offset >= len(mine) {
		return []models.Notification{}, false, nil
	}
	end := offset + limit
	hasMore := end < len(mine)
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], hasMore, nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return apperr.NotFound("notification %s", id.Hex())
}

func (m *Memory) MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *Memory) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *Memory) Close(ctx context.Context) error { return nil }

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Likes = append([]primitive.ObjectID(nil), p.Likes...)
	cp.Comments = append([]primitive.ObjectID(nil), p.Comments...)
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Media = append([]string(nil), p.Media...)
	if p.Poll != nil {
		poll := *p.Poll
		poll.Options = append([]string(nil), p.Poll.Options...)
		cp.Poll = &poll
	}
	return &cp
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func sortPostsNewest(posts []models.Post) {
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
}

func pagePosts(posts []models.Post, limit, offset int) []models.Post {
	if offset >= len(posts) {
		return []models.Post{}
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end]
}
