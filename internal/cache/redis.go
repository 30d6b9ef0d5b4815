// internal/cache/redis.go
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key this service writes.
const DefaultNamespace = "jeopardy:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int

	// SocketTimeout bounds reads and writes; zero keeps the client default.
	SocketTimeout time.Duration
}

// ConnectRedis creates a client and pings it, so a misconfigured address fails at startup.
func ConnectRedis(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		ReadTimeout:  opts.SocketTimeout,
		WriteTimeout: opts.SocketTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// Keyspace builds namespaced keys such as "jeopardy:lobby:<id>".
type Keyspace struct {
	namespace string
}

// NewKeyspace returns a Keyspace for ns, falling back to DefaultNamespace when empty.
// A trailing ":" is added if missing.
func NewKeyspace(ns string) Keyspace {
	if ns == "" {
		ns = DefaultNamespace
	}
	if !strings.HasSuffix(ns, ":") {
		ns += ":"
	}
	return Keyspace{namespace: ns}
}

// Key joins parts under the namespace with ":".
func (k Keyspace) Key(parts ...string) string {
	return k.namespace + strings.Join(parts, ":")
}

// Namespace returns the prefix including its trailing separator.
func (k Keyspace) Namespace() string {
	return k.namespace
}
