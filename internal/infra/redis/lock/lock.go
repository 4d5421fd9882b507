// Package lock implements a best-effort distributed mutex on the shared
// redis store. Acquisition is a single SET NX EX of an owner token; release
// is a compare-and-delete script so a lock that expired and was re-acquired
// by another holder is never deleted by the stale owner. There is no
// fairness or queueing: callers needing blocking semantics retry themselves.
package lock

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"flashsale-service/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lock:"

// Compare owner token before deleting; a plain GET+DEL would race with
// expiry followed by re-acquisition.
var releaseScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`)

type Factory struct {
	client  redis.UniversalClient
	ownerID string
	seq     atomic.Uint64
}

func NewFactory(client redis.UniversalClient) *Factory {
	return &Factory{
		client:  client,
		ownerID: uuid.NewString(),
	}
}

// NewLock creates a lock handle for name. Each handle carries its own owner
// token, so the goroutine that acquired it is the only one that can release.
func (f *Factory) NewLock(name string) *Lock {
	return &Lock{
		client: f.client,
		key:    keyPrefix + name,
		token:  f.ownerID + "-" + strconv.FormatUint(f.seq.Add(1), 10),
	}
}

type Lock struct {
	client redis.UniversalClient
	key    string
	token  string
}

// TryLock attempts a non-blocking acquire with the given store-side expiry.
func (l *Lock) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return false, errs.Wrap(err, "lock acquire failed")
	}
	return ok, nil
}

// Unlock releases the lock if this handle still owns it. A mismatch (the
// lock expired and was taken by someone else) is not an error.
func (l *Lock) Unlock(ctx context.Context) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
	if err != nil && err != redis.Nil {
		return errs.Wrap(err, "lock release failed")
	}
	return nil
}
