package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vivalab/interview-agent/internal/models"
)

// Store keeps finished evaluation results per user in a Redis list, newest
// first. The evaluation core never depends on it: a nil *Store disables
// history without affecting anything else.
type Store struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewStore(client *redis.Client, logger *zerolog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func key(user string) string {
	return "interview:results:" + user
}

func (s *Store) Save(ctx context.Context, record models.ResultRecord) (string, error) {
	if s == nil {
		return "", nil
	}
	if record.User == "" {
		return "", fmt.Errorf("result record requires a user")
	}

	record.ID = uuid.NewString()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to serialize result record: %w", err)
	}

	if err := s.client.LPush(ctx, key(record.User), payload).Err(); err != nil {
		return "", fmt.Errorf("failed to save result record: %w", err)
	}

	s.logger.Info().
		Str("id", record.ID).
		Str("user", record.User).
		Int("percentage", record.Result.Percentage).
		Msg("result saved")
	return record.ID, nil
}

func (s *Store) List(ctx context.Context, user string, limit int) ([]models.ResultRecord, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	raw, err := s.client.LRange(ctx, key(user), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read result history: %w", err)
	}

	records := make([]models.ResultRecord, 0, len(raw))
	for _, item := range raw {
		var record models.ResultRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			s.logger.Warn().Err(err).Str("user", user).Msg("skipping undecodable history entry")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
