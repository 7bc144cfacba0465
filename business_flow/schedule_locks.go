package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/coldwire/dialplan/config"
	"github.com/coldwire/dialplan/utils"
	"github.com/redis/go-redis/v9"
)

// ScheduleLock serializes scheduling and backfill runs per account when
// strict-quota mode is enabled. With the lock disabled (or Redis absent),
// concurrent runs may overshoot a day's quota; that soft mode is the default.
type ScheduleLock struct {
	rc      *redis.Client
	prefix  string
	enabled bool
}

func NewScheduleLock(rc *redis.Client, cacheConfig *config.CacheConfig, strict bool) *ScheduleLock {
	prefix := ""
	if cacheConfig != nil {
		prefix = cacheConfig.RedisPrefix
	}
	return &ScheduleLock{
		rc:      rc,
		prefix:  prefix,
		enabled: strict && rc != nil,
	}
}

func (l *ScheduleLock) key(accountID uint) string {
	return fmt.Sprintf("%sdialer:schedule_lock:%d", l.prefix, accountID)
}

// Acquire takes the per-account lock (SETNX with TTL) and returns a release
// func. A held lock yields ErrSchedulingInProgress. In soft mode Acquire is a
// no-op.
func (l *ScheduleLock) Acquire(ctx context.Context, accountID uint) (func(), error) {
	if !l.enabled {
		return func() {}, nil
	}

	key := l.key(accountID)
	ok, err := l.rc.SetNX(ctx, key, "1", utils.ScheduleLockTTLSeconds*time.Second).Result()
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LOCK_FAILED", "Failed to acquire scheduling lock", err)
	}
	if !ok {
		return nil, NewBusinessError("SCHEDULING_IN_PROGRESS", "A scheduling run is already in progress", ErrSchedulingInProgress)
	}

	return func() {
		_ = l.rc.Del(context.Background(), key).Err()
	}, nil
}
