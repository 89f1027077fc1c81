package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vivalab/interview-agent/internal/evaluate"
	"github.com/vivalab/interview-agent/internal/history"
	"github.com/vivalab/interview-agent/internal/models"
)

// Consumer reads evaluation jobs off a Redis stream, scores them through the
// one-shot path, and persists the result to history. Offline jobs have no
// render surface, so the streaming path is never used here.
type Consumer struct {
	client       *redis.Client
	stream       string
	groupID      string
	consumerName string
	evaluator    *evaluate.Evaluator
	results      *history.Store
	logger       *zerolog.Logger
}

func NewConsumer(
	client *redis.Client,
	stream string,
	groupID string,
	consumerName string,
	evaluator *evaluate.Evaluator,
	results *history.Store,
	logger *zerolog.Logger,
) *Consumer {
	return &Consumer{
		client:       client,
		stream:       stream,
		groupID:      groupID,
		consumerName: consumerName,
		evaluator:    evaluator,
		results:      results,
		logger:       logger,
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupID, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("group", c.groupID).
		Str("consumer", c.consumerName).
		Msg("Consumer started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgs, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupID,
			Consumer: c.consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    1,
			Block:    2 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// timeout, no message -> loop again
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err() // context cancelled during block
			}

			c.logger.Error().Err(err).Msg("Failed to read from stream")
			continue
		}

		for _, msg := range msgs[0].Messages {
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) Stop() error {
	// No-op
	return nil
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	c.logger.Info().Str("id", msg.ID).Msg("Message received")

	payload, ok := msg.Values["payload"].(string)
	if !ok {
		c.logger.Error().Str("id", msg.ID).Msg("Missing payload field")
		c.ack(ctx, msg.ID)
		return
	}

	var job models.EvaluationJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to decode message")
		c.ack(ctx, msg.ID) // bad message — ACK to skip it
		return
	}

	result, err := c.evaluator.Evaluate(ctx, job.Answers)
	if err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Str("job_id", job.JobID).Msg("Evaluation failed")
		c.ack(ctx, msg.ID)
		return
	}

	c.logger.Info().
		Str("id", msg.ID).
		Str("job_id", job.JobID).
		Int("percentage", result.Percentage).
		Str("band", string(result.Band)).
		Msg("Evaluation complete")

	if c.results != nil && job.User != "" {
		record := models.ResultRecord{User: job.User, Track: job.Track, Result: result}
		for _, qa := range job.Answers {
			record.Questions = append(record.Questions, qa.Question.Text)
			record.Answers = append(record.Answers, qa.Answer.Text)
		}
		if _, err := c.results.Save(ctx, record); err != nil {
			c.logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to save result")
		}
	}

	c.ack(ctx, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.groupID, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to ACK message")
	}
}
