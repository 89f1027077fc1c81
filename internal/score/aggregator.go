package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vivalab/interview-agent/internal/config"
	"github.com/vivalab/interview-agent/internal/models"
)

// Aggregator computes the final result from finalized score entries. One
// unmatched entry never fails the whole evaluation: it falls back to the
// configured default maximum and the mismatch is logged.
type Aggregator struct {
	defaultMaxScore  int
	successThreshold int
	warningThreshold int
	logger           *zerolog.Logger
}

func NewAggregator(cfg config.ScoringConfig, logger *zerolog.Logger) *Aggregator {
	return &Aggregator{
		defaultMaxScore:  cfg.DefaultMaxScore,
		successThreshold: cfg.SuccessThreshold,
		warningThreshold: cfg.WarningThreshold,
		logger:           logger,
	}
}

func (a *Aggregator) Aggregate(entries []models.ScoreEntry, set models.AnswerSet) models.EvaluationResult {
	result := models.EvaluationResult{
		Entries: make([]models.ScoredEntry, 0, len(entries)),
	}

	for _, entry := range entries {
		max, ok := a.resolveMaxScore(entry.Name, set)
		if !ok {
			a.logger.Warn().
				Str("entry", entry.Name).
				Int("assumed_max", a.defaultMaxScore).
				Msg("score entry matches no rubric item")
			max = a.defaultMaxScore
		}

		clamped := entry.Score
		if clamped < 0 {
			clamped = 0
		}
		if clamped > max {
			clamped = max
		}

		scored := models.ScoredEntry{
			ScoreEntry: models.ScoreEntry{Name: entry.Name, Score: clamped, Reason: entry.Reason},
			MaxScore:   max,
			Band:       EntryBand(clamped, max),
		}
		result.Entries = append(result.Entries, scored)

		result.TotalScore += clamped
		result.MaxPossibleScore += max
	}

	result.Percentage = percentage(result.TotalScore, result.MaxPossibleScore)
	result.Band = a.Band(result.Percentage)
	return result
}

// Band classifies an overall percentage.
func (a *Aggregator) Band(pct int) models.Band {
	switch {
	case pct >= a.successThreshold:
		return models.BandSuccess
	case pct >= a.warningThreshold:
		return models.BandWarning
	default:
		return models.BandDanger
	}
}

// EntryBand classifies a single entry against its own maximum: full marks
// are a success, zero is a danger, anything between is a warning.
func EntryBand(score, max int) models.Band {
	switch {
	case max > 0 && score == max:
		return models.BandSuccess
	case score == 0:
		return models.BandDanger
	default:
		return models.BandWarning
	}
}

func percentage(total, max int) int {
	if max == 0 {
		return 0
	}
	return int(math.Round(100 * float64(total) / float64(max)))
}

// resolveMaxScore matches an entry name back to its rubric item. Primary
// convention is the "Q<id>_<criterion>" prefix; a bare criterion name is
// accepted as fallback since model naming drifts.
func (a *Aggregator) resolveMaxScore(name string, set models.AnswerSet) (int, bool) {
	for _, qa := range set {
		prefix := fmt.Sprintf("Q%d_", qa.Question.ID)
		for _, item := range qa.Question.Rubric {
			if strings.EqualFold(name, prefix+item.Name) {
				return item.MaxScore, true
			}
		}
	}

	for _, qa := range set {
		for _, item := range qa.Question.Rubric {
			if strings.EqualFold(name, item.Name) {
				return item.MaxScore, true
			}
		}
	}

	return 0, false
}
