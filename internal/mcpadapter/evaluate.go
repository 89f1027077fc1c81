package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vivalab/interview-agent/internal/evaluate"
	"github.com/vivalab/interview-agent/internal/models"
	"github.com/vivalab/interview-agent/internal/questions"
)

// EvaluateInput is the MCP tool input schema (matches HTTP API field names).
type EvaluateInput struct {
	Track   string   `json:"track,omitempty" jsonschema:"question track to score against (default: 'default')"`
	Answers []string `json:"answers" jsonschema:"one answer per question, ordered by question id"`
}

// NewEvaluateHandler returns a tool handler that scores a full answer set.
// Pass the returned function to mcp.AddTool.
func NewEvaluateHandler(catalog *questions.Catalog, evaluator *evaluate.Evaluator) func(context.Context, *mcp.CallToolRequest, EvaluateInput) (*mcp.CallToolResult, models.EvaluationResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EvaluateInput) (*mcp.CallToolResult, models.EvaluationResult, error) {
		return EvaluateAnswers(ctx, catalog, evaluator, req, input)
	}
}

// EvaluateAnswers pairs the submitted answers with the track's questions and
// runs the scoring pipeline. Missing answers score as unanswered.
func EvaluateAnswers(
	ctx context.Context,
	catalog *questions.Catalog,
	evaluator *evaluate.Evaluator,
	req *mcp.CallToolRequest,
	input EvaluateInput,
) (*mcp.CallToolResult, models.EvaluationResult, error) {
	qs, err := catalog.Track(input.Track)
	if err != nil {
		return nil, models.EvaluationResult{}, err
	}

	set := make(models.AnswerSet, 0, len(qs))
	for i, q := range qs {
		text := ""
		if i < len(input.Answers) {
			text = input.Answers[i]
		}
		set = append(set, models.QA{
			Question: q,
			Answer:   models.Answer{QuestionID: q.ID, Text: text},
		})
	}

	result, err := evaluator.Evaluate(ctx, set)
	return nil, result, err
}

// ListQuestionsInput is the MCP tool input schema for listing a track.
type ListQuestionsInput struct {
	Track string `json:"track,omitempty" jsonschema:"question track to list (default: 'default')"`
}

// QuestionList is the tool output for list_questions.
type QuestionList struct {
	Track     string            `json:"track"`
	Questions []models.Question `json:"questions"`
}

// NewListQuestionsHandler returns a tool handler exposing the catalog.
func NewListQuestionsHandler(catalog *questions.Catalog) func(context.Context, *mcp.CallToolRequest, ListQuestionsInput) (*mcp.CallToolResult, QuestionList, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListQuestionsInput) (*mcp.CallToolResult, QuestionList, error) {
		track := input.Track
		if track == "" {
			track = questions.DefaultTrack
		}
		qs, err := catalog.Track(track)
		if err != nil {
			return nil, QuestionList{}, err
		}
		return nil, QuestionList{Track: track, Questions: qs}, nil
	}
}
