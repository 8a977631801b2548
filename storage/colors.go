// Package storage persists the one piece of board state the remote task
// store has no home for: the column color map. It is a best-effort sidecar;
// a missing or failing Redis never fails a board operation.
package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const colorsKey = "board:colors"

// ColorStore keeps the column id to color swatch mapping.
type ColorStore struct {
	redis  *redis.Client
	logger *log.Logger
}

// NewColorStore creates a ColorStore over the given Redis client. A nil
// client yields a store that reads empty and drops writes.
func NewColorStore(client *redis.Client, logger *log.Logger) *ColorStore {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &ColorStore{redis: client, logger: logger}
}

// Load returns all persisted column colors. Errors degrade to an empty map.
func (s *ColorStore) Load(ctx context.Context) map[string]string {
	if s.redis == nil {
		return map[string]string{}
	}
	colors, err := s.redis.HGetAll(ctx, colorsKey).Result()
	if err != nil {
		s.logger.WithError(err).Warn("color store: load failed")
		return map[string]string{}
	}
	return colors
}

// Set persists a single column color.
func (s *ColorStore) Set(ctx context.Context, columnID, color string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.HSet(ctx, colorsKey, columnID, color).Err(); err != nil {
		s.logger.WithError(err).Warn("color store: set failed")
	}
}

// Remove drops the persisted colors for columns that no longer exist,
// garbage-collecting the sidecar against a freshly loaded column set.
func (s *ColorStore) Remove(ctx context.Context, columnIDs ...string) {
	if s.redis == nil || len(columnIDs) == 0 {
		return
	}
	if err := s.redis.HDel(ctx, colorsKey, columnIDs...).Err(); err != nil {
		s.logger.WithError(err).Warn("color store: remove failed")
	}
}
