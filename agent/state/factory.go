package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	configx "github.com/tanpawarit/marketing-ai/pkg/config"
)

const (
	BackendMemory   = "memory"
	BackendUpstash  = "upstash"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend string        `default:"memory"`
	TTL     time.Duration `envconfig:"TTL" default:"168h"`
}

// NewStore opens the backend named by cfg. Backend settings are read from
// the UPSTASH_REDIS and POSTGRES environment prefixes.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendUpstash:
		redisCfg, err := configx.New[UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, err
		}
		return NewUpstashRedisStore(*redisCfg, cfg.TTL)
	case BackendPostgres:
		pgCfg, err := configx.New[PostgresConfig]("POSTGRES")
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, *pgCfg)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
