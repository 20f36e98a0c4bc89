package rate

import (
	"context"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Options para construir el limiter desde config.
type Options struct {
	Backend  string // memory | redis
	Limit    int
	Window   time.Duration
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New crea el Limiter y su función de cierre.
func New(ctx context.Context, o Options) (Limiter, func() error, error) {
	switch o.Backend {
	case "", "memory":
		return NewMemoryLimiter(o.Limit, o.Window), func() error { return nil }, nil
	case "redis":
		client := rdb.NewClient(&rdb.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisLimiter(client, o.Prefix, o.Limit, o.Window), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported rate backend: %s", o.Backend)
	}
}
