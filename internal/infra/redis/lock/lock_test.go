//go:build unit

package lock_test

import (
	"context"
	"testing"
	"time"

	"flashsale-service/internal/infra/redis/lock"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLock_MutualExclusion(t *testing.T) {
	_, client := newTestClient(t)
	factory := lock.NewFactory(client)
	ctx := context.Background()

	first := factory.NewLock("stock:1")
	ok, err := first.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	second := factory.NewLock("stock:1")
	ok, err = second.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire on a held lock must fail")

	// A different name is an independent lock.
	other := factory.NewLock("stock:2")
	ok, err = other.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_ReleaseAllowsReacquire(t *testing.T) {
	_, client := newTestClient(t)
	factory := lock.NewFactory(client)
	ctx := context.Background()

	first := factory.NewLock("stock:1")
	ok, err := first.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Unlock(ctx))

	second := factory.NewLock("stock:1")
	ok, err = second.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released lock must be acquirable")
}

func TestLock_StaleOwnerCannotReleaseNewHolder(t *testing.T) {
	mr, client := newTestClient(t)
	factory := lock.NewFactory(client)
	ctx := context.Background()

	stale := factory.NewLock("stock:1")
	ok, err := stale.TryLock(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	// Expire the first holder's entry, then let a second handle take over.
	mr.FastForward(time.Second)

	fresh := factory.NewLock("stock:1")
	ok, err = fresh.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// The stale handle's release must not delete the new holder's entry.
	require.NoError(t, stale.Unlock(ctx))

	third := factory.NewLock("stock:1")
	ok, err = third.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "new holder's lock must survive the stale release")
}

func TestLock_UnlockIsIdempotent(t *testing.T) {
	_, client := newTestClient(t)
	factory := lock.NewFactory(client)
	ctx := context.Background()

	l := factory.NewLock("stock:1")
	ok, err := l.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Unlock(ctx))
	require.NoError(t, l.Unlock(ctx), "double release is not an error")
}
