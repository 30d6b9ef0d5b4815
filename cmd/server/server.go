// cmd/server/server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/natuspati/jeopardy/internal/auth"
	"github.com/natuspati/jeopardy/internal/cache"
	"github.com/natuspati/jeopardy/internal/catalog"
	"github.com/natuspati/jeopardy/internal/database"
	"github.com/natuspati/jeopardy/internal/flow"
	"github.com/natuspati/jeopardy/internal/handlers"
	"github.com/natuspati/jeopardy/internal/journal"
	"github.com/natuspati/jeopardy/internal/registry"
	"github.com/natuspati/jeopardy/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func (c *Config) connectRedis(ctx context.Context) (*redis.Client, error) {
	return cache.ConnectRedis(ctx, cache.Options{
		Addr:     c.redisAddr,
		Password: c.redisPassword,
		DB:       c.redisDB,
	})
}

func (c *Config) issuer() (*auth.Issuer, error) {
	if c.jwtPrivateKey == "" {
		return auth.NewIssuer(c.jwtTTL)
	}
	return auth.LoadIssuer(c.jwtPrivateKey, c.jwtPublicKey, c.jwtTTL)
}

// backends holds what serve wires together and must close on exit.
type backends struct {
	store   store.Store
	journal journal.Recorder
	catalog catalog.Catalog

	rdb  *redis.Client
	pool *pgxpool.Pool
}

func (b *backends) Close() {
	if b.rdb != nil {
		_ = b.rdb.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func (c *Config) openBackends(ctx context.Context, logger *logrus.Logger) (*backends, error) {
	b := &backends{}

	switch c.store {
	case storeMemory:
		logger.Warn("using the in-process lobby store; lobbies are lost on restart")
		b.store = store.NewMemoryStore(c.lobbyTTL)
		b.journal = journal.NopJournal{}
	default:
		rdb, err := c.connectRedis(ctx)
		if err != nil {
			return nil, err
		}
		b.rdb = rdb
		keys := cache.NewKeyspace(c.namespace)
		b.store = store.NewRedisStore(rdb, keys,
			store.WithTTL(c.lobbyTTL),
			store.WithUpdateRetries(c.updateRetries),
			store.WithLogger(logger),
		)
		b.journal = journal.NewRedisJournal(rdb, keys)
	}

	switch {
	case c.postgresDSN != "":
		pool, err := database.ConnectDB(ctx, c.postgresDSN)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.pool = pool
		b.catalog = catalog.NewPostgresCatalog(pool)
	case c.catalogFile != "":
		cat, err := catalog.LoadFile(c.catalogFile)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.catalog = cat
	default:
		logger.Warn("no catalog configured; lobby creation will fail until presets are loaded")
		b.catalog = catalog.NewMemoryCatalog()
	}
	return b, nil
}

func serve(ctx context.Context, cfg *Config) error {
	logger := cfg.newLogger()
	logger.Infof("START: jeopardy v%s", releaseVersion)

	issuer, err := cfg.issuer()
	if err != nil {
		return fmt.Errorf("failed to set up token issuer: %w", err)
	}

	b, err := cfg.openBackends(ctx, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	rooms := registry.New(cfg.queueSize, logger)
	api := &handlers.APIServer{
		Store:          b.store,
		Catalog:        b.catalog,
		Issuer:         issuer,
		Game:           flow.NewService(b.store, rooms, b.journal, logger),
		Logger:         logger,
		OriginPatterns: cfg.originPatterns,
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           api.Routes(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("SERVE: Listening on http://%s/", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
