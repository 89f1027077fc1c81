package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vivalab/interview-agent/internal/config"
	"github.com/vivalab/interview-agent/internal/llm"
	"github.com/vivalab/interview-agent/internal/models"
	"github.com/vivalab/interview-agent/internal/prompt"
	"github.com/vivalab/interview-agent/internal/reconcile"
	"github.com/vivalab/interview-agent/internal/score"
)

// RenderSink receives the reconciled partial rendering on every stream
// update. Each call replaces the previous rendering; it never appends.
type RenderSink interface {
	Render(markup string)
}

// Evaluator drives one evaluation run: build the prompt pair, submit it,
// reconcile the response, aggregate the scores. No retries live here; a
// failed run is re-triggered by the operator.
type Evaluator struct {
	builder    *prompt.Builder
	client     llm.Client
	aggregator *score.Aggregator
	model      config.ModelConfig
	logger     *zerolog.Logger
}

func NewEvaluator(
	builder *prompt.Builder,
	client llm.Client,
	aggregator *score.Aggregator,
	model config.ModelConfig,
	logger *zerolog.Logger,
) *Evaluator {
	return &Evaluator{
		builder:    builder,
		client:     client,
		aggregator: aggregator,
		model:      model,
		logger:     logger,
	}
}

// Evaluate is the non-streaming path. The response body is either a JSON
// array of score entries (optionally fenced) or the same table markup the
// streaming path produces; both parse to the same entry list.
func (e *Evaluator) Evaluate(ctx context.Context, set models.AnswerSet) (models.EvaluationResult, error) {
	req, err := e.request(set)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	resp, err := e.client.Invoke(ctx, req)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	entries, err := e.parseEntries(resp.Content)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	result := e.aggregator.Aggregate(entries, set)
	e.logger.Info().
		Int("entries", len(result.Entries)).
		Int("percentage", result.Percentage).
		Str("band", string(result.Band)).
		Msg("evaluation complete")
	return result, nil
}

// EvaluateStream is the incremental path. Every accumulated snapshot is
// reconciled and the safe rendering pushed to sink. On a transport failure
// the partial rendering already produced stays visible and an error notice
// is appended in place of further results.
func (e *Evaluator) EvaluateStream(ctx context.Context, set models.AnswerSet, sink RenderSink) (models.EvaluationResult, error) {
	streamer, ok := e.client.(llm.StreamClient)
	if !ok {
		e.logger.Info().Msg("provider has no streaming support, using one-shot path")
		return e.Evaluate(ctx, set)
	}

	req, err := e.request(set)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	rec := reconcile.New(e.logger)

	streamErr := streamer.Stream(ctx, req, func(accumulated string) {
		sink.Render(rec.Feed(accumulated))
	})
	if errors.Is(streamErr, llm.ErrNoStream) {
		e.logger.Info().Msg("provider declined streaming, using one-shot path")
		return e.Evaluate(ctx, set)
	}
	if streamErr != nil {
		rec.Fail(streamErr)
		if rec.Rendered() == "" {
			sink.Render(errorNotice(streamErr))
		}
		return models.EvaluationResult{}, streamErr
	}

	entries, err := rec.Complete()
	if err != nil {
		return models.EvaluationResult{}, err
	}
	sink.Render(rec.Rendered())

	result := e.aggregator.Aggregate(entries, set)
	e.logger.Info().
		Int("entries", len(result.Entries)).
		Int("percentage", result.Percentage).
		Str("band", string(result.Band)).
		Msg("streamed evaluation complete")
	return result, nil
}

func (e *Evaluator) request(set models.AnswerSet) (llm.Request, error) {
	if len(set) == 0 {
		return llm.Request{}, fmt.Errorf("empty answer set")
	}

	pair, err := e.builder.Build(set)
	if err != nil {
		return llm.Request{}, fmt.Errorf("failed to build evaluation request: %w", err)
	}

	return llm.Request{
		System:      pair.System,
		User:        pair.User,
		MaxTokens:   e.model.MaxTokens,
		Temperature: e.model.Temperature,
	}, nil
}

// parseEntries strips an optional markdown fence, then accepts either a JSON
// array or table-row markup.
func (e *Evaluator) parseEntries(content string) ([]models.ScoreEntry, error) {
	stripped := stripMarkdownCodeBlock(content)

	var decoded any
	if err := json.Unmarshal([]byte(stripped), &decoded); err == nil {
		if _, ok := decoded.([]any); !ok {
			return nil, models.NewMalformedResponseError("evaluation response", content,
				fmt.Errorf("expected a JSON array of score entries"))
		}
		var entries []models.ScoreEntry
		if err := json.Unmarshal([]byte(stripped), &entries); err != nil {
			return nil, models.NewMalformedResponseError("evaluation response", content, err)
		}
		return entries, nil
	}

	rec := reconcile.New(e.logger)
	rec.Feed(stripped)
	entries, err := rec.Complete()
	if err != nil {
		return nil, models.NewMalformedResponseError("evaluation response", content, err)
	}
	return entries, nil
}

// stripMarkdownCodeBlock removes code fence formatting if present.
func stripMarkdownCodeBlock(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		firstNewline := strings.Index(content, "\n")
		if firstNewline == -1 {
			return content
		}

		closingBackticks := strings.LastIndex(content, "```")
		if closingBackticks == -1 || closingBackticks <= firstNewline {
			return content
		}

		content = content[firstNewline+1 : closingBackticks]
		content = strings.TrimSpace(content)
	}

	return content
}

func errorNotice(err error) string {
	return "<tr><td colspan=\"3\">Evaluation failed: " + strings.ReplaceAll(err.Error(), "<", "&lt;") + "</td></tr>"
}
