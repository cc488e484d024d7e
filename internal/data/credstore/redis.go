package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-companion/internal/domain/user"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

const defaultRedisKey = "companion:credential"

type redisStore struct {
	log *logger.Logger
	rdb goredis.UniversalClient
	key string
	ttl time.Duration
}

type redisRecord struct {
	Token     string          `json:"token"`
	Principal *user.Principal `json:"principal,omitempty"`
	SavedAt   time.Time       `json:"saved_at"`
}

func openRedis(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	addr := strings.TrimSpace(cfg.DSN)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(log, rdb, cfg.Key, cfg.TTL), nil
}

// NewRedis stores the credential as one JSON value under key.
func NewRedis(log *logger.Logger, rdb goredis.UniversalClient, key string, ttl time.Duration) Store {
	if log == nil {
		log = logger.Nop()
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = defaultRedisKey
	}
	return &redisStore{log: log.With("store", "redis"), rdb: rdb, key: key, ttl: ttl}
}

func (s *redisStore) Load(ctx context.Context) (Credential, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, fmt.Errorf("load credential: %w", err)
	}
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.log.Warn("stored credential unreadable (treating as absent)", "error", err)
		return Credential{}, false, nil
	}
	if strings.TrimSpace(rec.Token) == "" {
		return Credential{}, false, nil
	}
	cred := Credential{Token: rec.Token, SavedAt: rec.SavedAt}
	if rec.Principal != nil {
		cred.Principal = *rec.Principal
	}
	return cred, true, nil
}

func (s *redisStore) Save(ctx context.Context, cred Credential) error {
	rec := redisRecord{Token: cred.Token, SavedAt: cred.SavedAt}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}
	if !cred.Principal.IsZero() {
		p := cred.Principal
		rec.Principal = &p
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, raw, s.ttl).Err()
}

func (s *redisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

func (s *redisStore) Close() error { return s.rdb.Close() }
