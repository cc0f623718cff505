package models

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pollup/internal/apperr"
)

func validationErr(t *testing.T, err error, context string) {
	t.Helper()
	if !errors.Is(err, apperr.Validation("")) {
		t.Errorf("%s: expected ValidationError, got %v", context, err)
	}
}

func TestPollContentValidate(t *testing.T) {
	cases := []struct {
		name    string
		poll    PollContent
		wantErr bool
	}{
		{"valid single", PollContent{Kind: PollKindSingle, Options: []string{"A", "B"}}, false},
		{"valid multiple", PollContent{Kind: PollKindMultiple, Options: []string{"A"}}, false},
		{"valid slider", PollContent{Kind: PollKindSlider, Min: 0, Max: 10}, false},
		{"empty options", PollContent{Kind: PollKindSingle, Options: nil}, true},
		{"duplicate option", PollContent{Kind: PollKindMultiple, Options: []string{"A", "A"}}, true},
		{"empty label", PollContent{Kind: PollKindSingle, Options: []string{""}}, true},
		{"min == max", PollContent{Kind: PollKindSlider, Min: 5, Max: 5}, true},
		{"min > max", PollContent{Kind: PollKindSlider, Min: 6, Max: 5}, true},
		{"slider with options", PollContent{Kind: PollKindSlider, Min: 0, Max: 1, Options: []string{"A"}}, true},
		{"unknown kind", PollContent{Kind: "ranked"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.poll.Validate()
			if tc.wantErr {
				validationErr(t, err, tc.name)
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestChoiceValidate(t *testing.T) {
	single := &PollContent{Kind: PollKindSingle, Options: []string{"A", "B"}}
	multiple := &PollContent{Kind: PollKindMultiple, Options: []string{"A", "B", "C"}}
	slider := &PollContent{Kind: PollKindSlider, Min: 0, Max: 10}

	cases := []struct {
		name    string
		poll    *PollContent
		choice  Choice
		wantErr bool
	}{
		{"single ok", single, Choice{Kind: PollKindSingle, Option: "A"}, false},
		{"single unknown option", single, Choice{Kind: PollKindSingle, Option: "Z"}, true},
		{"single missing option", single, Choice{Kind: PollKindSingle}, true},
		{"kind mismatch", single, Choice{Kind: PollKindSlider, Value: 3}, true},
		{"multiple ok", multiple, Choice{Kind: PollKindMultiple, Options: []string{"A", "C"}}, false},
		{"multiple empty", multiple, Choice{Kind: PollKindMultiple}, true},
		{"multiple unknown", multiple, Choice{Kind: PollKindMultiple, Options: []string{"A", "Z"}}, true},
		{"multiple repeated", multiple, Choice{Kind: PollKindMultiple, Options: []string{"A", "A"}}, true},
		{"slider ok", slider, Choice{Kind: PollKindSlider, Value: 5}, false},
		{"slider at min", slider, Choice{Kind: PollKindSlider, Value: 0}, false},
		{"slider at max", slider, Choice{Kind: PollKindSlider, Value: 10}, false},
		{"slider below", slider, Choice{Kind: PollKindSlider, Value: -1}, true},
		{"slider above", slider, Choice{Kind: PollKindSlider, Value: 11}, true},
		{"slider with option", slider, Choice{Kind: PollKindSlider, Value: 5, Option: "A"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.choice.Validate(tc.poll)
			if tc.wantErr {
				validationErr(t, err, tc.name)
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPostValidate(t *testing.T) {
	author := primitive.NewObjectID()
	parent := primitive.NewObjectID()

	poll := &PollContent{ID: primitive.NewObjectID(), Kind: PollKindSingle, Options: []string{"A"}}

	cases := []struct {
		name    string
		post    Post
		wantErr bool
	}{
		{"text ok", Post{UserID: author, Kind: PostKindText, Visibility: VisibilityPublic}, false},
		{"poll ok", Post{UserID: author, Kind: PostKindPoll, Poll: poll, Visibility: VisibilityPublic}, false},
		{"poll kind without content", Post{UserID: author, Kind: PostKindPoll, Visibility: VisibilityPublic}, true},
		{"text with poll content", Post{UserID: author, Kind: PostKindText, Poll: poll, Visibility: VisibilityPublic}, true},
		{"comment ok", Post{UserID: author, Kind: PostKindComment, ParentID: &parent, Visibility: VisibilityPublic}, false},
		{"comment without parent", Post{UserID: author, Kind: PostKindComment, Visibility: VisibilityPublic}, true},
		{"text with parent", Post{UserID: author, Kind: PostKindText, ParentID: &parent, Visibility: VisibilityPublic}, true},
		{"bad visibility", Post{UserID: author, Kind: PostKindText, Visibility: "everyone"}, true},
		{"bad kind", Post{UserID: author, Kind: "story", Visibility: VisibilityPublic}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.post.Validate()
			if tc.wantErr {
				validationErr(t, err, tc.name)
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
