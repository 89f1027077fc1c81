package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/vivalab/interview-agent/internal/config"
	"github.com/vivalab/interview-agent/internal/models"
)

// Request is the (system, user) prompt pair submitted to the model.
type Request struct {
	System string
	User   string
}

// Builder serializes an answer set into an evaluation request. It is a pure
// function of its inputs; the instruction wording comes from configuration.
type Builder struct {
	instructions *template.Template
	trailer      string
}

func NewBuilder(cfg config.EvaluationPrompts) (*Builder, error) {
	tmpl, err := template.New("instructions").Parse(cfg.Instructions)
	if err != nil {
		return nil, fmt.Errorf("failed to parse instructions template: %w", err)
	}

	return &Builder{
		instructions: tmpl,
		trailer:      cfg.Trailer,
	}, nil
}

type instructionsData struct {
	QuestionCount int
	MaxScore      int
}

// Build produces the prompt pair for one answer set. Every question appears
// exactly once in ordinal order, including those carrying the no-answer
// sentinel: absence of an answer is itself scorable.
func (b *Builder) Build(set models.AnswerSet) (Request, error) {
	maxScore := 0
	for _, qa := range set {
		maxScore += qa.Question.MaxScore()
	}

	var system bytes.Buffer
	data := instructionsData{QuestionCount: len(set), MaxScore: maxScore}
	if err := b.instructions.Execute(&system, data); err != nil {
		return Request{}, fmt.Errorf("instructions template execution failed: %w", err)
	}

	blocks := make([]string, 0, len(set))
	for _, qa := range set {
		answer := qa.Answer.Text
		if strings.TrimSpace(answer) == "" {
			answer = models.NoAnswer
		}

		rubric, err := json.Marshal(qa.Question.Rubric)
		if err != nil {
			return Request{}, fmt.Errorf("failed to serialize rubric for question %d: %w", qa.Question.ID, err)
		}

		blocks = append(blocks, fmt.Sprintf("Question %d: %s\nAnswer: %s\nRubric: %s\n",
			qa.Question.ID, qa.Question.Text, answer, rubric))
	}

	user := strings.Join(blocks, "\n")
	if b.trailer != "" {
		user = user + "\n" + b.trailer
	}

	return Request{System: system.String(), User: user}, nil
}
