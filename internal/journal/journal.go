// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/natuspati/jeopardy/internal/cache"
	"github.com/natuspati/jeopardy/internal/models"
	"github.com/redis/go-redis/v9"
)

// Recorder appends accepted moves to the action journal.
type Recorder interface {
	Record(ctx context.Context, action models.GameAction) error
}

// QueueKey is the list that holds pending journal entries.
func QueueKey(keys cache.Keyspace) string {
	return keys.Key("actions")
}

// RedisJournal pushes each action onto a Redis list for the historian to drain.
type RedisJournal struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisJournal(rdb redis.UniversalClient, keys cache.Keyspace) *RedisJournal {
	return &RedisJournal{rdb: rdb, key: QueueKey(keys)}
}

func (j *RedisJournal) Record(ctx context.Context, action models.GameAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}
	if err := j.rdb.RPush(ctx, j.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push action for lobby %s: %w", action.LobbyID, err)
	}
	return nil
}

// NopJournal discards every action.
type NopJournal struct{}

func (NopJournal) Record(context.Context, models.GameAction) error { return nil }
