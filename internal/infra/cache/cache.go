// Package cache is a read-through cache over the shared store with three
// policies: null-marker TTL (penetration guard), mutex-guarded rebuild
// (breakdown guard), and logical expiration with asynchronous rebuild
// (always-fast reads for read-heavy, write-rare entities).
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"flashsale-service/internal/infra/redis/lock"
	"flashsale-service/internal/pkg/clock"
	"flashsale-service/internal/pkg/config"
	"flashsale-service/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"
)

// Source loads the entity from the source of truth. A (nil, nil) return
// means the entity does not exist.
type Source[T any] func(ctx context.Context) (*T, error)

// envelope wraps a logically-expired entry. The key carries no physical
// TTL; staleness is judged only against ExpireAt.
type envelope struct {
	ExpireAt time.Time       `json:"expireAt"`
	Data     json.RawMessage `json:"data"`
}

type Reader struct {
	client   redis.UniversalClient
	locks    *lock.Factory
	clock    clock.Clock
	logger   *slog.Logger
	rebuilds *semaphore.Weighted

	nullTTL    time.Duration
	lockTTL    time.Duration
	retryDelay time.Duration
}

func NewReader(client redis.UniversalClient, locks *lock.Factory, clk clock.Clock, logger *slog.Logger, cfg config.CacheConfig) *Reader {
	return &Reader{
		client:     client,
		locks:      locks,
		clock:      clk,
		logger:     logger,
		rebuilds:   semaphore.NewWeighted(cfg.RebuildWorkers),
		nullTTL:    cfg.NullTTL,
		lockTTL:    cfg.LockTTL,
		retryDelay: cfg.RetryDelay,
	}
}

// Delete drops a cache entry; called after source-of-truth writes.
func (r *Reader) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errs.Wrap(err, "cache delete failed")
	}
	return nil
}

// GetWithNullGuard reads through the cache with penetration protection: a
// miss that the source cannot serve stores a short-lived empty marker so
// repeated lookups of a known-absent key stop hitting the source.
func GetWithNullGuard[T any](ctx context.Context, r *Reader, key string, ttl time.Duration, src Source[T]) (*T, error) {
	v, absent, hit, err := readEntry[T](ctx, r, key)
	if err != nil {
		return nil, err
	}
	if hit {
		if absent {
			return nil, nil
		}
		return v, nil
	}

	return rebuildEntry(ctx, r, key, ttl, src)
}

// GetWithMutex reads through the cache with breakdown protection: on a miss
// only one caller rebuilds per key; the rest sleep briefly and re-check
// until the winner has written the entry. The loop blocks the calling
// goroutine, bounded by the lock TTL under normal contention.
func GetWithMutex[T any](ctx context.Context, r *Reader, key string, ttl time.Duration, src Source[T]) (*T, error) {
	for {
		v, absent, hit, err := readEntry[T](ctx, r, key)
		if err != nil {
			return nil, err
		}
		if hit {
			if absent {
				return nil, nil
			}
			return v, nil
		}

		l := r.locks.NewLock(key)
		ok, err := l.TryLock(ctx, r.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, errs.Wrap(err, "gave up waiting for cache rebuild")
			}
			r.clock.Sleep(r.retryDelay)
			continue
		}

		v, err = func() (*T, error) {
			defer func() {
				if uerr := l.Unlock(context.WithoutCancel(ctx)); uerr != nil {
					r.logger.Error("cache rebuild unlock failed", "key", key, "error", uerr)
				}
			}()

			// Another winner may have filled the entry between our miss
			// and the acquire.
			v, absent, hit, err := readEntry[T](ctx, r, key)
			if err != nil {
				return nil, err
			}
			if hit {
				if absent {
					return nil, nil
				}
				return v, nil
			}

			return rebuildEntry(ctx, r, key, ttl, src)
		}()
		return v, err
	}
}

// GetWithLogicalExpire serves always-available reads: a warmed key never
// leaves the store, and a stale value is returned immediately while at most
// one background task rebuilds it. Returns (nil, nil) for keys never warmed.
func GetWithLogicalExpire[T any](ctx context.Context, r *Reader, key string, horizon time.Duration, src Source[T]) (*T, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err, "cache read failed")
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, errs.Wrap(err, "malformed cache envelope")
	}
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, errs.Wrap(err, "malformed cache payload")
	}

	if r.clock.Now().Before(env.ExpireAt) {
		return &v, nil
	}

	// Stale. Hand the rebuild to the background pool if we win the lock;
	// either way the caller gets the stale value without blocking.
	l := r.locks.NewLock(key)
	ok, err := l.TryLock(ctx, r.lockTTL)
	if err != nil {
		r.logger.Error("rebuild lock attempt failed", "key", key, "error", err)
		return &v, nil
	}
	if !ok {
		return &v, nil
	}

	if !r.rebuilds.TryAcquire(1) {
		// Pool exhausted; give the lock back so a later reader can retry.
		if uerr := l.Unlock(context.WithoutCancel(ctx)); uerr != nil {
			r.logger.Error("rebuild unlock failed", "key", key, "error", uerr)
		}
		return &v, nil
	}

	go func() {
		defer r.rebuilds.Release(1)

		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lockTTL)
		defer cancel()
		defer func() {
			if uerr := l.Unlock(bgCtx); uerr != nil {
				r.logger.Error("rebuild unlock failed", "key", key, "error", uerr)
			}
		}()

		// Another worker may have rebuilt between the staleness check and
		// the lock win.
		if fresh, err := isFresh(bgCtx, r, key); err != nil || fresh {
			return
		}

		entity, err := src(bgCtx)
		if err != nil {
			r.logger.Error("cache rebuild source lookup failed", "key", key, "error", err)
			return
		}
		if err := WarmLogical(bgCtx, r, key, entity, horizon); err != nil {
			r.logger.Error("cache rebuild write failed", "key", key, "error", err)
		}
	}()

	return &v, nil
}

// WarmLogical writes entity with a fresh embedded expiry and no physical
// TTL. It is also the explicit out-of-band population step for keys served
// under the logical-expiration policy.
func WarmLogical[T any](ctx context.Context, r *Reader, key string, entity *T, horizon time.Duration) error {
	if entity == nil {
		return errs.New("refusing to warm nil entity")
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return errs.Wrap(err, "failed to marshal cache payload")
	}
	env := envelope{
		ExpireAt: r.clock.Now().Add(horizon),
		Data:     data,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return errs.Wrap(err, "failed to marshal cache envelope")
	}
	if err := r.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return errs.Wrap(err, "cache warm failed")
	}
	return nil
}

// readEntry returns (value, absentMarker, hit, err). An empty string is the
// null marker for a known-absent entity.
func readEntry[T any](ctx context.Context, r *Reader, key string) (*T, bool, bool, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, false, nil
	}
	if err != nil {
		return nil, false, false, errs.Wrap(err, "cache read failed")
	}
	if raw == "" {
		return nil, true, true, nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false, false, errs.Wrap(err, "malformed cache payload")
	}
	return &v, false, true, nil
}

func rebuildEntry[T any](ctx context.Context, r *Reader, key string, ttl time.Duration, src Source[T]) (*T, error) {
	entity, err := src(ctx)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		if err := r.client.Set(ctx, key, "", r.nullTTL).Err(); err != nil {
			return nil, errs.Wrap(err, "failed to store null marker")
		}
		return nil, nil
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return nil, errs.Wrap(err, "failed to marshal cache payload")
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return nil, errs.Wrap(err, "cache write failed")
	}
	return entity, nil
}

func isFresh(ctx context.Context, r *Reader, key string) (bool, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return false, err
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return false, err
	}
	return r.clock.Now().Before(env.ExpireAt), nil
}
