// internal/store/redis.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/natuspati/jeopardy/internal/cache"
	"github.com/natuspati/jeopardy/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL matches how long an abandoned lobby is kept around.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultUpdateRetries bounds optimistic transaction retries.
	DefaultUpdateRetries = 8
)

// RedisStore keeps each lobby as one JSON string under <namespace>lobby:<id>.
type RedisStore struct {
	rdb     redis.UniversalClient
	keys    cache.Keyspace
	ttl     time.Duration
	retries int
	log     logrus.FieldLogger
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the expiration applied on every write. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithUpdateRetries sets how many times Update retries after a concurrent write.
func WithUpdateRetries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(log logrus.FieldLogger) RedisOption {
	return func(s *RedisStore) { s.log = log }
}

func NewRedisStore(rdb redis.UniversalClient, keys cache.Keyspace, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:     rdb,
		keys:    keys,
		ttl:     DefaultTTL,
		retries: DefaultUpdateRetries,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id uuid.UUID) string {
	return s.keys.Key("lobby", id.String())
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*models.Lobby, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("lobby %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lobby %s: %w", id, err)
	}
	return decode(data)
}

func (s *RedisStore) Create(ctx context.Context, lobby *models.Lobby) (*models.Lobby, error) {
	doc, err := prepareCreate(lobby)
	if err != nil {
		return nil, err
	}
	data, err := encode(doc)
	if err != nil {
		return nil, err
	}

	ok, err := s.rdb.SetNX(ctx, s.key(doc.ID), data, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create lobby %s: %w", doc.ID, err)
	}
	if !ok {
		return nil, fmt.Errorf("lobby %s: %w", doc.ID, ErrAlreadyExists)
	}
	return s.Get(ctx, doc.ID)
}

// Update runs WATCH/GET/MULTI SET so a concurrent writer aborts this attempt
// instead of being overwritten. Aborted attempts are retried with a fresh read.
func (s *RedisStore) Update(ctx context.Context, update models.LobbyUpdate) (*models.Lobby, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	key := s.key(update.ID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("lobby %s: %w", update.ID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read lobby %s: %w", update.ID, err)
		}
		current, err := decode(data)
		if err != nil {
			return err
		}
		next, err := applyUpdate(current, update)
		if err != nil {
			return err
		}
		payload, err := encode(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= s.retries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return s.Get(ctx, update.ID)
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"lobby_id": update.ID,
			"attempt":  attempt,
		}).Debug("lobby update lost a race, retrying")
	}
	return nil, fmt.Errorf("lobby %s: gave up after %d attempts: %w", update.ID, s.retries, ErrVersionConflict)
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete lobby %s: %w", id, err)
	}
	return nil
}
