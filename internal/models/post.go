package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/apperr"
)

type PostKind string

const (
	PostKindText    PostKind = "text"
	PostKindImage   PostKind = "image"
	PostKindVideo   PostKind = "video"
	PostKindPoll    PostKind = "poll"
	PostKindComment PostKind = "comment"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityPrivate Visibility = "private"
)

type Post struct {
	ID         primitive.ObjectID   `bson:"_id" json:"id"`
	UserID     primitive.ObjectID   `bson:"user_id" json:"user_id"`
	Kind       PostKind             `bson:"kind" json:"kind"`
	Body       string               `bson:"body" json:"body"`
	Poll       *PollContent         `bson:"poll,omitempty" json:"poll,omitempty"`     // present iff Kind == poll
	ParentID   *primitive.ObjectID  `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // present iff Kind == comment
	Likes      []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments   []primitive.ObjectID `bson:"comments" json:"comments"`
	Tags       []string             `bson:"tags" json:"tags"`
	Media      []string             `bson:"media" json:"media"` // public URLs on the object host
	Visibility Visibility           `bson:"visibility" json:"visibility"`
	CreatedAt  time.Time            `bson:"created_at" json:"created_at"`

	// Filled on read, never stored.
	Token    string       `bson:"-" json:"token,omitempty"` // external decimal token for ID
	Author   *User        `bson:"-" json:"author,omitempty"`
	BodyHTML string       `bson:"-" json:"body_html,omitempty"`
	Summary  *VoteSummary `bson:"-" json:"vote_summary,omitempty"`
}

// Validate enforces the kind/payload invariants: poll content present iff
// the post is a poll, parent present iff the post is a comment.
func (p *Post) Validate() error {
	switch p.Kind {
	case PostKindText, PostKindImage, PostKindVideo, PostKindPoll, PostKindComment:
	default:
		return apperr.Validation("unknown post kind %q", p.Kind)
	}
	if (p.Kind == PostKindPoll) != (p.Poll != nil) {
		return apperr.Validation("poll content present iff kind is poll")
	}
	if (p.Kind == PostKindComment) != (p.ParentID != nil) {
		return apperr.Validation("parent reference present iff kind is comment")
	}
	if p.Poll != nil {
		if err := p.Poll.Validate(); err != nil {
			return err
		}
	}
	switch p.Visibility {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
	default:
		return apperr.Validation("unknown visibility %q", p.Visibility)
	}
	return nil
}
