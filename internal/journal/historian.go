// internal/journal/historian.go
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/natuspati/jeopardy/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sink persists a batch of drained actions.
type Sink interface {
	Flush(ctx context.Context, batch []models.GameAction) error
}

// HistorianConfig tunes batching. Zero values fall back to defaults.
type HistorianConfig struct {
	BatchSize  int
	FlushDelay time.Duration
	PopTimeout time.Duration
}

// Historian drains the journal list and hands batches to a Sink. A batch is
// flushed when it is full or when FlushDelay has passed since the last flush.
type Historian struct {
	rdb  redis.UniversalClient
	key  string
	sink Sink
	cfg  HistorianConfig
	log  logrus.FieldLogger

	batch     []models.GameAction
	lastFlush time.Time
}

func NewHistorian(rdb redis.UniversalClient, key string, sink Sink, cfg HistorianConfig, log logrus.FieldLogger) *Historian {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = 500 * time.Millisecond
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = time.Second
	}
	return &Historian{
		rdb:   rdb,
		key:   key,
		sink:  sink,
		cfg:   cfg,
		log:   log,
		batch: make([]models.GameAction, 0, cfg.BatchSize),
	}
}

// Run drains until ctx is done, then flushes whatever is still buffered.
func (h *Historian) Run(ctx context.Context) error {
	h.lastFlush = time.Now()
	h.log.Infof("historian draining %s", h.key)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.flush(flushCtx)
		h.log.Info("historian stopped")
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := h.step(ctx); err != nil && ctx.Err() == nil {
			h.log.Errorf("historian pop failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(h.cfg.PopTimeout):
			}
		}
	}
}

// step pops at most one entry and flushes if a batch boundary was reached.
func (h *Historian) step(ctx context.Context) error {
	res, err := h.rdb.BLPop(ctx, h.cfg.PopTimeout, h.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(res) == 2 {
		var action models.GameAction
		if err := json.Unmarshal([]byte(res[1]), &action); err != nil {
			h.log.Warnf("skipping invalid journal entry: %v", err)
		} else {
			h.batch = append(h.batch, action)
		}
	}
	if len(h.batch) >= h.cfg.BatchSize || time.Since(h.lastFlush) >= h.cfg.FlushDelay {
		h.flush(ctx)
	}
	return nil
}

func (h *Historian) flush(ctx context.Context) {
	h.lastFlush = time.Now()
	if len(h.batch) == 0 {
		return
	}
	if err := h.sink.Flush(ctx, h.batch); err != nil {
		h.log.Errorf("failed to flush %d actions: %v", len(h.batch), err)
		return
	}
	h.log.Debugf("flushed %d actions", len(h.batch))
	h.batch = h.batch[:0]
}

// PostgresSink writes batches into the lobby_actions table in one transaction.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

const insertActionQ = `
	INSERT INTO lobby_actions (
		lobby_id, action_index, actor_user_id, action_type, payload, state, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, to_timestamp($7::double precision / 1000))
	ON CONFLICT (lobby_id, action_index) DO NOTHING
`

func (s *PostgresSink) Flush(ctx context.Context, batch []models.GameAction) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, a := range batch {
			payload, err := json.Marshal(a.Payload)
			if err != nil {
				return fmt.Errorf("failed to marshal payload for lobby %s: %w", a.LobbyID, err)
			}
			b.Queue(insertActionQ, a.LobbyID, a.ActionIndex, a.ActorUserID, a.ActionType, payload, string(a.State), a.Timestamp)
		}
		return tx.SendBatch(ctx, b).Close()
	})
}
