package redisgate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/utils"
)

// SyncGate serializes library syncs per (user, platform). The sync
// service acquires before touching the platform cache; a second sync
// for the same pair is rejected instead of queued.
type SyncGate interface {
	Acquire(ctx context.Context, userID uuid.UUID, platform library.Platform) (release func(), ok bool, err error)
	Close() error
}

type syncGate struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewSyncGate(log *logger.Logger) (SyncGate, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlMinutes := utils.GetEnvAsInt("SYNC_LOCK_TTL_MINUTES", 15, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &syncGate{
		log: log.With("service", "SyncGate"),
		rdb: rdb,
		ttl: time.Duration(ttlMinutes) * time.Minute,
	}, nil
}

func (g *syncGate) Acquire(ctx context.Context, userID uuid.UUID, platform library.Platform) (func(), bool, error) {
	key := fmt.Sprintf("sync:%s:%s", userID, platform)
	ok, err := g.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// Release outlives the request context.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.rdb.Del(relCtx, key).Err(); err != nil {
			g.log.Warn("failed to release sync lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}

func (g *syncGate) Close() error {
	return g.rdb.Close()
}
