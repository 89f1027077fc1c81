package evaluate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vivalab/interview-agent/internal/config"
	"github.com/vivalab/interview-agent/internal/llm"
	"github.com/vivalab/interview-agent/internal/models"
	"github.com/vivalab/interview-agent/internal/prompt"
	"github.com/vivalab/interview-agent/internal/score"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// MockLLMClient returns a canned response, or an error.
type MockLLMClient struct {
	Response    *llm.Response
	Err         error
	LastRequest llm.Request
}

func (m *MockLLMClient) Invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.LastRequest = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

// MockStreamClient delivers accumulated snapshots, then returns StreamErr.
type MockStreamClient struct {
	MockLLMClient
	Snapshots []string
	StreamErr error
}

func (m *MockStreamClient) Stream(ctx context.Context, req llm.Request, onSnapshot func(string)) error {
	for _, s := range m.Snapshots {
		onSnapshot(s)
	}
	return m.StreamErr
}

// captureSink records every rendering pushed to it.
type captureSink struct {
	renderings []string
}

func (c *captureSink) Render(markup string) {
	c.renderings = append(c.renderings, markup)
}

func newTestEvaluator(t *testing.T, client llm.Client) *Evaluator {
	t.Helper()

	builder, err := prompt.NewBuilder(config.EvaluationPrompts{
		Instructions: "Score {{.QuestionCount}} questions.",
		Trailer:      "Rows only.",
	})
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	agg := score.NewAggregator(config.ScoringConfig{
		DefaultMaxScore:  2,
		SuccessThreshold: 70,
		WarningThreshold: 40,
	}, newTestLogger())

	return NewEvaluator(builder, client, agg, config.ModelConfig{MaxTokens: 2048}, newTestLogger())
}

func oneQuestionSet() models.AnswerSet {
	return models.AnswerSet{
		{
			Question: models.Question{
				ID:     1,
				Text:   "Explain interfaces.",
				Rubric: []models.RubricItem{{Name: "correctness", MaxScore: 2}},
			},
			Answer: models.Answer{QuestionID: 1, Text: "They define method sets."},
		},
	}
}

func TestEvaluate_JSONArrayResponse(t *testing.T) {
	client := &MockLLMClient{
		Response: &llm.Response{
			Content: `[{"name":"Q1_correctness","score":2,"reason":"right"}]`,
		},
	}
	evaluator := newTestEvaluator(t, client)

	result, err := evaluator.Evaluate(context.Background(), oneQuestionSet())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.TotalScore != 2 || result.MaxPossibleScore != 2 {
		t.Errorf("unexpected totals: %d/%d", result.TotalScore, result.MaxPossibleScore)
	}
	if result.Band != models.BandSuccess {
		t.Errorf("expected success, got %s", result.Band)
	}
	if client.LastRequest.MaxTokens != 2048 {
		t.Errorf("model config not applied to request: %+v", client.LastRequest)
	}
}

func TestEvaluate_FencedJSONResponse(t *testing.T) {
	client := &MockLLMClient{
		Response: &llm.Response{
			Content: "```json\n[{\"name\":\"Q1_correctness\",\"score\":1,\"reason\":\"partial\"}]\n```",
		},
	}
	evaluator := newTestEvaluator(t, client)

	result, err := evaluator.Evaluate(context.Background(), oneQuestionSet())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.TotalScore != 1 {
		t.Errorf("expected total 1, got %d", result.TotalScore)
	}
}

func TestEvaluate_TableMarkupResponse(t *testing.T) {
	client := &MockLLMClient{
		Response: &llm.Response{
			Content: `<tr><td>Q1_correctness</td><td>2</td><td>right</td></tr>`,
		},
	}
	evaluator := newTestEvaluator(t, client)

	result, err := evaluator.Evaluate(context.Background(), oneQuestionSet())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.TotalScore != 2 {
		t.Errorf("expected total 2, got %d", result.TotalScore)
	}
}

func TestEvaluate_NonArrayJSON(t *testing.T) {
	client := &MockLLMClient{
		Response: &llm.Response{Content: `{"score": 2}`},
	}
	evaluator := newTestEvaluator(t, client)

	_, err := evaluator.Evaluate(context.Background(), oneQuestionSet())

	var malformed *models.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestEvaluate_UnparseableResponse(t *testing.T) {
	client := &MockLLMClient{
		Response: &llm.Response{Content: "I cannot score this."},
	}
	evaluator := newTestEvaluator(t, client)

	_, err := evaluator.Evaluate(context.Background(), oneQuestionSet())

	var malformed *models.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestEvaluate_EmptySet(t *testing.T) {
	evaluator := newTestEvaluator(t, &MockLLMClient{})

	if _, err := evaluator.Evaluate(context.Background(), nil); err == nil {
		t.Error("expected error for empty answer set")
	}
}

func TestEvaluate_TransportError(t *testing.T) {
	wantErr := &models.TransportError{Op: "invoke", Err: errors.New("connection refused")}
	client := &MockLLMClient{Err: wantErr}
	evaluator := newTestEvaluator(t, client)

	_, err := evaluator.Evaluate(context.Background(), oneQuestionSet())

	var transportErr *models.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestEvaluateStream_RendersIncrementally(t *testing.T) {
	row := `<tr><td>Q1_correctness</td><td>2</td><td>right</td></tr>`
	client := &MockStreamClient{
		Snapshots: []string{
			`<tr><td>Q1_corr`,
			row,
		},
	}
	evaluator := newTestEvaluator(t, client)
	sink := &captureSink{}

	result, err := evaluator.EvaluateStream(context.Background(), oneQuestionSet(), sink)
	if err != nil {
		t.Fatalf("EvaluateStream failed: %v", err)
	}

	if len(sink.renderings) < 2 {
		t.Fatalf("expected at least 2 renderings, got %d", len(sink.renderings))
	}
	if sink.renderings[0] != "" {
		t.Errorf("partial row rendered: %q", sink.renderings[0])
	}
	if sink.renderings[1] != row {
		t.Errorf("unexpected second rendering: %q", sink.renderings[1])
	}
	if result.TotalScore != 2 {
		t.Errorf("expected total 2, got %d", result.TotalScore)
	}
}

func TestEvaluateStream_TransportFailureKeepsPartial(t *testing.T) {
	row := `<tr><td>Q1_correctness</td><td>2</td><td>right</td></tr>`
	client := &MockStreamClient{
		Snapshots: []string{row},
		StreamErr: errors.New("connection reset"),
	}
	evaluator := newTestEvaluator(t, client)
	sink := &captureSink{}

	_, err := evaluator.EvaluateStream(context.Background(), oneQuestionSet(), sink)
	if err == nil {
		t.Fatal("expected stream error")
	}

	// The partial rendering delivered before the failure is not retracted.
	last := sink.renderings[len(sink.renderings)-1]
	if last != row {
		t.Errorf("expected partial rendering kept, got %q", last)
	}
}

func TestEvaluateStream_FailureBeforeAnyRowShowsNotice(t *testing.T) {
	client := &MockStreamClient{
		Snapshots: []string{`<tr><td>Q1`},
		StreamErr: errors.New("connection reset"),
	}
	evaluator := newTestEvaluator(t, client)
	sink := &captureSink{}

	_, err := evaluator.EvaluateStream(context.Background(), oneQuestionSet(), sink)
	if err == nil {
		t.Fatal("expected stream error")
	}

	last := sink.renderings[len(sink.renderings)-1]
	if !strings.Contains(last, "Evaluation failed") {
		t.Errorf("expected error notice, got %q", last)
	}
}

func TestEvaluateStream_NonStreamingClientFallsBack(t *testing.T) {
	client := &MockLLMClient{
		Response: &llm.Response{
			Content: `[{"name":"Q1_correctness","score":2,"reason":"right"}]`,
		},
	}
	evaluator := newTestEvaluator(t, client)
	sink := &captureSink{}

	result, err := evaluator.EvaluateStream(context.Background(), oneQuestionSet(), sink)
	if err != nil {
		t.Fatalf("EvaluateStream fallback failed: %v", err)
	}
	if result.TotalScore != 2 {
		t.Errorf("expected total 2, got %d", result.TotalScore)
	}
}

func TestEvaluateStream_GarbagePayload(t *testing.T) {
	client := &MockStreamClient{
		Snapshots: []string{"no table here"},
	}
	evaluator := newTestEvaluator(t, client)

	_, err := evaluator.EvaluateStream(context.Background(), oneQuestionSet(), &captureSink{})

	var parseErr *models.StreamParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected StreamParseError, got %v", err)
	}
}
