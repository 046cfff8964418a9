package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/repos"
)

// ViewCounter tracks share page views. Counts accumulate in Redis and
// are flushed to the share row periodically; when Redis is unavailable
// the counter writes straight to the database.
type ViewCounter interface {
	RecordView(ctx context.Context, shareID uuid.UUID) error
	Flush(ctx context.Context) error
	Close() error
}

type redisViewCounter struct {
	log       *logger.Logger
	rdb       *goredis.Client
	shareRepo repos.ShareRepo
}

func NewViewCounter(log *logger.Logger, shareRepo repos.ShareRepo) ViewCounter {
	counterLog := log.With("service", "ViewCounter")

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		counterLog.Warn("REDIS_ADDR not set; share views write directly to the database")
		return &dbViewCounter{log: counterLog, shareRepo: shareRepo}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		counterLog.Warn("redis ping failed; share views write directly to the database", "error", err)
		return &dbViewCounter{log: counterLog, shareRepo: shareRepo}
	}

	return &redisViewCounter{log: counterLog, rdb: rdb, shareRepo: shareRepo}
}

func viewKey(shareID uuid.UUID) string {
	return "share_views:" + shareID.String()
}

func (vc *redisViewCounter) RecordView(ctx context.Context, shareID uuid.UUID) error {
	if err := vc.rdb.Incr(ctx, viewKey(shareID)).Err(); err != nil {
		// Keep the count rather than lose the view.
		vc.log.Warn("redis incr failed, falling back to db", "shareID", shareID, "error", err)
		return vc.shareRepo.IncrementViewCount(ctx, nil, shareID, 1)
	}
	return nil
}

// Flush moves accumulated Redis counts into the share rows. GETDEL keeps
// the increment-vs-flush race loss-free.
func (vc *redisViewCounter) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := vc.rdb.Scan(ctx, cursor, "share_views:*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		for _, key := range keys {
			val, gErr := vc.rdb.GetDel(ctx, key).Int64()
			if gErr != nil {
				if gErr == goredis.Nil {
					continue
				}
				vc.log.Warn("failed to read view counter", "key", key, "error", gErr)
				continue
			}
			if val == 0 {
				continue
			}
			shareID, pErr := uuid.Parse(strings.TrimPrefix(key, "share_views:"))
			if pErr != nil {
				vc.log.Warn("malformed view counter key", "key", key)
				continue
			}
			if iErr := vc.shareRepo.IncrementViewCount(ctx, nil, shareID, val); iErr != nil {
				vc.log.Warn("failed to flush view counter", "shareID", shareID, "error", iErr)
				// Put the count back so the next flush retries it.
				_ = vc.rdb.IncrBy(ctx, key, val).Err()
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (vc *redisViewCounter) Close() error {
	return vc.rdb.Close()
}

// dbViewCounter is the degraded mode without Redis.
type dbViewCounter struct {
	log       *logger.Logger
	shareRepo repos.ShareRepo
}

func (vc *dbViewCounter) RecordView(ctx context.Context, shareID uuid.UUID) error {
	return vc.shareRepo.IncrementViewCount(ctx, nil, shareID, 1)
}

func (vc *dbViewCounter) Flush(ctx context.Context) error { return nil }

func (vc *dbViewCounter) Close() error { return nil }
