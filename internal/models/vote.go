package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/apperr"
)

// Choice is the tagged payload of a ballot: exactly one of the three
// shapes, selected by Kind to match the poll.
type Choice struct {
	Kind    PollKind `bson:"kind" json:"kind"`
	Option  string   `bson:"option,omitempty" json:"option,omitempty"`   // single
	Options []string `bson:"options,omitempty" json:"options,omitempty"` // multiple
	Value   float64  `bson:"value" json:"value"`                         // slider
}

// Validate checks the choice against the poll it targets: the shape must
// match the poll kind, options must come from the declared list, and a
// slider value must lie within [min, max].
func (c *Choice) Validate(poll *PollContent) error {
	if c.Kind != poll.Kind {
		return apperr.Validation("choice kind %q does not match poll kind %q", c.Kind, poll.Kind)
	}
	switch c.Kind {
	case PollKindSingle:
		if c.Option == "" || len(c.Options) != 0 {
			return apperr.Validation("single-choice ballot needs exactly one option")
		}
		if !poll.HasOption(c.Option) {
			return apperr.Validation("unknown option %q", c.Option)
		}
	case PollKindMultiple:
		if len(c.Options) == 0 || c.Option != "" {
			return apperr.Validation("multiple-choice ballot needs a non-empty option set")
		}
		seen := make(map[string]bool, len(c.Options))
		for _, opt := range c.Options {
			if !poll.HasOption(opt) {
				return apperr.Validation("unknown option %q", opt)
			}
			if seen[opt] {
				return apperr.Validation("option %q selected twice", opt)
			}
			seen[opt] = true
		}
	case PollKindSlider:
		if c.Option != "" || len(c.Options) != 0 {
			return apperr.Validation("slider ballot carries only a value")
		}
		if c.Value < poll.Min || c.Value > poll.Max {
			return apperr.Validation("value %v outside [%v, %v]", c.Value, poll.Min, poll.Max)
		}
	default:
		return apperr.Validation("unknown choice kind %q", c.Kind)
	}
	return nil
}

// Vote is one ballot. At most one exists per (voter, poll) pair; a
// resubmission replaces the prior ballot.
type Vote struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	PollID    primitive.ObjectID `bson:"poll_id" json:"poll_id"`
	PostID    primitive.ObjectID `bson:"post_id" json:"post_id"`
	Choice    Choice             `bson:"choice" json:"choice"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
