// cmd/server/historian.go
package main

import (
	"errors"
	"time"

	"github.com/natuspati/jeopardy/internal/cache"
	"github.com/natuspati/jeopardy/internal/database"
	"github.com/natuspati/jeopardy/internal/journal"
	"github.com/spf13/cobra"
)

func newHistorianCmd(cfg *Config) *cobra.Command {
	var hc journal.HistorianConfig

	cmd := &cobra.Command{
		Use:   "historian",
		Short: "Drain the action journal from redis into postgres.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.postgresDSN == "" {
				return errors.New("historian requires --postgres-dsn")
			}
			logger := cfg.newLogger()
			ctx := cmd.Context()

			rdb, err := cfg.connectRedis(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()

			pool, err := database.ConnectDB(ctx, cfg.postgresDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			key := journal.QueueKey(cache.NewKeyspace(cfg.namespace))
			h := journal.NewHistorian(rdb, key, journal.NewPostgresSink(pool), hc, logger)
			return h.Run(ctx)
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&hc.BatchSize, "batch-size", 20, "actions per postgres batch (env: JEOPARDY_BATCH_SIZE)")
	fs.DurationVar(&hc.FlushDelay, "flush-delay", 500*time.Millisecond, "maximum wait before a partial batch is written (env: JEOPARDY_FLUSH_DELAY)")

	return cmd
}
