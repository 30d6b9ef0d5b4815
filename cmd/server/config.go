// cmd/server/config.go
package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "JEOPARDY"

const (
	storeRedis  = "redis"
	storeMemory = "memory"
)

type Config struct {
	bind     string
	port     int
	logLevel string
	logJSON  bool

	redisAddr     string
	redisPassword string
	redisDB       int
	namespace     string

	store         string
	lobbyTTL      time.Duration
	updateRetries int
	queueSize     int

	postgresDSN string
	catalogFile string

	jwtPrivateKey string
	jwtPublicKey  string
	jwtTTL        time.Duration

	originPatterns []string
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.store != storeRedis && c.store != storeMemory {
		return fmt.Errorf("invalid store %q (must be %s or %s)", c.store, storeRedis, storeMemory)
	}
	if (c.jwtPrivateKey == "") != (c.jwtPublicKey == "") {
		return errors.New("both --jwt-private-key and --jwt-public-key must be provided together")
	}
	if c.postgresDSN != "" && c.catalogFile != "" {
		return errors.New("--postgres-dsn and --catalog-file are mutually exclusive")
	}
	if c.lobbyTTL <= 0 {
		return fmt.Errorf("invalid lobby ttl: %s", c.lobbyTTL)
	}
	if c.updateRetries < 1 {
		return fmt.Errorf("invalid update retries (must be at least 1): %d", c.updateRetries)
	}
	if c.queueSize < 1 {
		return fmt.Errorf("invalid queue size (must be at least 1): %d", c.queueSize)
	}
	if _, err := logrus.ParseLevel(c.logLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) newLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.logJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// bindEnv lets JEOPARDY_<FLAG_NAME> fill any flag not given on the command line.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func newCmd(cfg *Config) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:     "jeopardy",
		Short:   "Real-time game flow server for jeopardy lobbies.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindEnv(v, cmd.Flags())
			return cfg.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	pfs.StringVar(&cfg.logLevel, "log-level", "info", "logrus level (env: JEOPARDY_LOG_LEVEL)")
	pfs.BoolVar(&cfg.logJSON, "log-json", false, "emit JSON log lines (env: JEOPARDY_LOG_JSON)")
	pfs.StringVar(&cfg.redisAddr, "redis-addr", "localhost:6379", "redis address (env: JEOPARDY_REDIS_ADDR)")
	pfs.StringVar(&cfg.redisPassword, "redis-password", "", "redis password (env: JEOPARDY_REDIS_PASSWORD)")
	pfs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database number (env: JEOPARDY_REDIS_DB)")
	pfs.StringVar(&cfg.namespace, "namespace", "jeopardy:", "prefix for every redis key (env: JEOPARDY_NAMESPACE)")
	pfs.StringVar(&cfg.postgresDSN, "postgres-dsn", "", "postgres connection string for the catalog and historian (env: JEOPARDY_POSTGRES_DSN)")
	pfs.StringVar(&cfg.jwtPrivateKey, "jwt-private-key", "", "path to raw ed25519 private key (env: JEOPARDY_JWT_PRIVATE_KEY)")
	pfs.StringVar(&cfg.jwtPublicKey, "jwt-public-key", "", "path to raw ed25519 public key (env: JEOPARDY_JWT_PUBLIC_KEY)")
	pfs.DurationVar(&cfg.jwtTTL, "jwt-ttl", 24*time.Hour, "lifetime of minted tokens (env: JEOPARDY_JWT_TTL)")

	// Validated by every subcommand, so these defaults must stay valid.
	pfs.StringVar(&cfg.store, "store", storeRedis, "lobby store: redis or memory (env: JEOPARDY_STORE)")
	pfs.DurationVar(&cfg.lobbyTTL, "lobby-ttl", 7*24*time.Hour, "expiry of idle lobbies, reset on every write (env: JEOPARDY_LOBBY_TTL)")
	pfs.IntVar(&cfg.updateRetries, "update-retries", 8, "optimistic lobby update attempts (env: JEOPARDY_UPDATE_RETRIES)")

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: JEOPARDY_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: JEOPARDY_PORT)")
	fs.StringVar(&cfg.catalogFile, "catalog-file", "", "JSON preset file used when no postgres dsn is set (env: JEOPARDY_CATALOG_FILE)")
	fs.IntVar(&cfg.queueSize, "queue-size", 16, "outbound frames buffered per connection (env: JEOPARDY_QUEUE_SIZE)")
	fs.StringSliceVar(&cfg.originPatterns, "origin", nil, "allowed websocket origins, all when empty (env: JEOPARDY_ORIGIN)")

	cmd.AddCommand(newHistorianCmd(cfg), newTokenCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("jeopardy v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
