// Package poll computes vote summaries. Aggregation is a pure function
// over the poll definition and the current complete ballot set; the
// summary is recomputed on every read and never stored.
package poll

import (
	"pollup/internal/apperr"
	"pollup/internal/models"
)

// Aggregate tallies votes for a poll. Choice polls get a per-option count
// with every declared option present (zero included); slider polls get
// total/sum/average, with average omitted when no ballots exist. A ballot
// that references an undeclared option or an out-of-range value is an
// input error, not something to skip silently.
func Aggregate(content *models.PollContent, votes []models.Vote) (*models.VoteSummary, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}

	switch content.Kind {
	case models.PollKindSingle, models.PollKindMultiple:
		return aggregateChoice(content, votes)
	case models.PollKindSlider:
		return aggregateSlider(content, votes)
	}
	return nil, apperr.Validation("unknown poll kind %q", content.Kind)
}

func aggregateChoice(content *models.PollContent, votes []models.Vote) (*models.VoteSummary, error) {
	counts := make(map[string]int, len(content.Options))
	for _, opt := range content.Options {
		counts[opt] = 0
	}

	for _, v := range votes {
		if err := v.Choice.Validate(content); err != nil {
			return nil, err
		}
		// A multiple-choice ballot with k selections increments k
		// counters; total stays the ballot count.
		if content.Kind == models.PollKindSingle {
			counts[v.Choice.Option]++
			continue
		}
		for _, opt := range v.Choice.Options {
			counts[opt]++
		}
	}

	return &models.VoteSummary{
		Total:   len(votes),
		Options: counts,
	}, nil
}

func aggregateSlider(content *models.PollContent, votes []models.Vote) (*models.VoteSummary, error) {
	var sum float64
	for _, v := range votes {
		if err := v.Choice.Validate(content); err != nil {
			return nil, err
		}
		sum += v.Choice.Value
	}

	summary := &models.VoteSummary{
		Total: len(votes),
		Sum:   sum,
	}
	if len(votes) > 0 {
		avg := sum / float64(len(votes))
		summary.Average = &avg
	}
	return summary, nil
}
