package credstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-companion/internal/domain/user"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Credential is the persisted session: the bearer token plus the principal it last resolved to.
type Credential struct {
	Token     string
	Principal user.Principal
	SavedAt   time.Time
}

// Store persists at most one Credential. Load reports ok=false when nothing is stored.
type Store interface {
	Load(ctx context.Context) (cred Credential, ok bool, err error)
	Save(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
	Close() error
}

type Config struct {
	Driver string
	// DSN is the sqlite file path, the postgres URL, or the redis address.
	DSN string
	// Key names the redis key or SQL slot.
	Key string
	// TTL expires the redis key. Zero keeps it until Clear.
	TTL time.Duration
}

func Open(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverSQLite, DriverPostgres:
		return openSQL(log, cfg)
	case DriverRedis:
		return openRedis(ctx, log, cfg)
	case DriverMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported credential store driver %q", cfg.Driver)
	}
}
