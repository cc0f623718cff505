package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/apperr"
)

type PollKind string

const (
	PollKindSingle   PollKind = "single"
	PollKindMultiple PollKind = "multiple"
	PollKindSlider   PollKind = "slider"
)

// PollContent is owned exclusively by its parent Post and shares its
// lifecycle: created with it, deleted with it.
type PollContent struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Question string             `bson:"question" json:"question"`
	Kind     PollKind           `bson:"kind" json:"kind"`
	Options  []string           `bson:"options,omitempty" json:"options,omitempty"` // choice kinds
	Min      float64            `bson:"min,omitempty" json:"min,omitempty"`         // slider kind
	Max      float64            `bson:"max,omitempty" json:"max,omitempty"`

	// External decimal token for ID, filled on read.
	Token string `bson:"-" json:"token,omitempty"`
}

// Validate applies the creation-time checks: choice polls need a non-empty
// list of unique option labels, slider polls need min < max.
func (p *PollContent) Validate() error {
	switch p.Kind {
	case PollKindSingle, PollKindMultiple:
		if len(p.Options) == 0 {
			return apperr.Validation("choice poll needs at least one option")
		}
		seen := make(map[string]bool, len(p.Options))
		for _, opt := range p.Options {
			if opt == "" {
				return apperr.Validation("option label cannot be empty")
			}
			if seen[opt] {
				return apperr.Validation("duplicate option %q", opt)
			}
			seen[opt] = true
		}
	case PollKindSlider:
		if p.Min >= p.Max {
			return apperr.Validation("slider needs min < max, got [%v, %v]", p.Min, p.Max)
		}
		if len(p.Options) != 0 {
			return apperr.Validation("slider poll cannot carry options")
		}
	default:
		return apperr.Validation("unknown poll kind %q", p.Kind)
	}
	return nil
}

// HasOption reports whether label is one of the poll's declared options.
func (p *PollContent) HasOption(label string) bool {
	for _, opt := range p.Options {
		if opt == label {
			return true
		}
	}
	return false
}

// VoteSummary is derived from the current vote set on every read; it is
// never stored. Average is nil when no ballots exist.
type VoteSummary struct {
	Total   int            `json:"total"`
	Options map[string]int `json:"options,omitempty"`
	Sum     float64        `json:"sum,omitempty"`
	Average *float64       `json:"average,omitempty"`
}
