package models

import (
	"time"
)

// NoAnswer is the sentinel stored for questions the candidate never answered.
// It is still submitted for scoring: an absent answer is scorable as zero.
const NoAnswer = "No answer provided"

type Band string

const (
	BandSuccess Band = "success"
	BandWarning Band = "warning"
	BandDanger  Band = "danger"
)

// RubricItem is one scoring criterion for a question.
type RubricItem struct {
	Name     string `json:"name" yaml:"name"`
	MaxScore int    `json:"max_score" yaml:"max_score"`
}

// Question is immutable once loaded into a session. ID is the ordinal
// position, starting at 1.
type Question struct {
	ID     int          `json:"id" yaml:"id"`
	Text   string       `json:"text" yaml:"text"`
	Rubric []RubricItem `json:"rubric" yaml:"rubric"`
}

// MaxScore returns the sum of the rubric item maxima.
func (q Question) MaxScore() int {
	total := 0
	for _, item := range q.Rubric {
		total += item.MaxScore
	}
	return total
}

type Answer struct {
	QuestionID int    `json:"question_id"`
	Text       string `json:"text"`
}

// QA pairs a question with the answer snapshot taken at evaluation time.
type QA struct {
	Question Question `json:"question"`
	Answer   Answer   `json:"answer"`
}

// AnswerSet is the ordered unit submitted for one evaluation run.
type AnswerSet []QA

// ScoreEntry is one rubric-item score produced by the model. Name follows
// the "Q<id>_<criterion>" convention so the originating question is
// recoverable.
type ScoreEntry struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type ScoredEntry struct {
	ScoreEntry
	MaxScore int  `json:"max_score"`
	Band     Band `json:"band"`
}

// EvaluationResult is derived wholesale from a finalized entry list and is
// never mutated afterwards.
type EvaluationResult struct {
	Entries          []ScoredEntry `json:"entries"`
	TotalScore       int           `json:"total_score"`
	MaxPossibleScore int           `json:"max_possible_score"`
	Percentage       int           `json:"percentage"`
	Band             Band          `json:"band"`
}

// EvaluationJob is the unit consumed from the stream and batch inputs.
type EvaluationJob struct {
	JobID   string    `json:"job_id"`
	User    string    `json:"user,omitempty"`
	Track   string    `json:"track,omitempty"`
	Answers AnswerSet `json:"answers"`
}

// ResultRecord is what the history store persists per evaluation run.
type ResultRecord struct {
	ID        string           `json:"id"`
	User      string           `json:"user"`
	Track     string           `json:"track,omitempty"`
	Questions []string         `json:"questions"`
	Answers   []string         `json:"answers"`
	Result    EvaluationResult `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}
