package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vivalab/interview-agent/internal/evaluate"
	"github.com/vivalab/interview-agent/internal/models"
)

// OutputRecord is one scored job, or the error that stopped it.
type OutputRecord struct {
	JobID      string                  `json:"job_id"`
	User       string                  `json:"user,omitempty"`
	Track      string                  `json:"track,omitempty"`
	Result     models.EvaluationResult `json:"result"`
	Error      string                  `json:"error,omitempty"`
	DurationMs int64                   `json:"duration_ms"`
}

type Processor struct {
	evaluator *evaluate.Evaluator
	workers   int
	logger    *zerolog.Logger
}

func NewProcessor(evaluator *evaluate.Evaluator, workers int, logger *zerolog.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		evaluator: evaluator,
		workers:   workers,
		logger:    logger,
	}
}

// Process fans the records out over the worker pool and returns results on a
// channel. Records that failed to parse are passed through with their error
// so downstream counts stay honest.
func (p *Processor) Process(ctx context.Context, records []InputRecord) <-chan OutputRecord {
	jobs := make(chan InputRecord)
	results := make(chan OutputRecord)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range jobs {
				results <- p.run(ctx, record)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, record := range records {
			select {
			case jobs <- record:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (p *Processor) run(ctx context.Context, record InputRecord) OutputRecord {
	out := OutputRecord{
		JobID: record.Job.JobID,
		User:  record.Job.User,
		Track: record.Job.Track,
	}

	if record.Error != nil {
		out.Error = record.Error.Error()
		return out
	}

	start := time.Now()
	result, err := p.evaluator.Evaluate(ctx, record.Job.Answers)
	out.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		p.logger.Error().
			Err(err).
			Str("job_id", record.Job.JobID).
			Int("line", record.LineNumber).
			Msg("Evaluation failed")
		out.Error = err.Error()
		return out
	}

	out.Result = result
	return out
}
