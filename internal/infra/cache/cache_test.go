//go:build unit

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"flashsale-service/internal/infra/cache"
	"flashsale-service/internal/infra/redis/lock"
	"flashsale-service/internal/pkg/clock"
	"flashsale-service/internal/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestReader(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient, *cache.Reader) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.NewTestConfig().Cache
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reader := cache.NewReader(client, lock.NewFactory(client), clock.NewRealClock(), logger, cfg)
	return mr, client, reader
}

func countingSource(entity *testEntity, calls *atomic.Int32) cache.Source[testEntity] {
	return func(_ context.Context) (*testEntity, error) {
		calls.Add(1)
		return entity, nil
	}
}

func TestGetWithNullGuard_CachesHit(t *testing.T) {
	_, _, reader := newTestReader(t)
	ctx := context.Background()

	var calls atomic.Int32
	src := countingSource(&testEntity{ID: 1, Name: "cafe"}, &calls)

	got, err := cache.GetWithNullGuard(ctx, reader, "cache:shop:1", time.Minute, src)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cafe", got.Name)

	// Second read is served from the cache.
	got, err = cache.GetWithNullGuard(ctx, reader, "cache:shop:1", time.Minute, src)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetWithNullGuard_AbsentEntityMarkedOnce(t *testing.T) {
	mr, _, reader := newTestReader(t)
	ctx := context.Background()

	var calls atomic.Int32
	src := countingSource(nil, &calls)

	got, err := cache.GetWithNullGuard(ctx, reader, "cache:shop:404", time.Minute, src)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Repeated misses are absorbed by the null marker, not the source.
	for i := 0; i < 5; i++ {
		got, err = cache.GetWithNullGuard(ctx, reader, "cache:shop:404", time.Minute, src)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Equal(t, int32(1), calls.Load())

	// Once the marker expires the source is consulted again.
	mr.FastForward(3 * time.Minute)
	_, err = cache.GetWithNullGuard(ctx, reader, "cache:shop:404", time.Minute, src)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetWithMutex_SingleRebuildUnderContention(t *testing.T) {
	_, _, reader := newTestReader(t)
	ctx := context.Background()

	var calls atomic.Int32
	src := func(_ context.Context) (*testEntity, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond) // hold the rebuild open
		return &testEntity{ID: 2, Name: "voucher"}, nil
	}

	const readers = 10
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.GetWithMutex(ctx, reader, "cache:voucher:2", time.Minute, src)
			if assert.NoError(t, err) && assert.NotNil(t, got) {
				assert.Equal(t, "voucher", got.Name)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "only the lock winner rebuilds")
}

func TestGetWithMutex_AbsentEntity(t *testing.T) {
	_, _, reader := newTestReader(t)
	ctx := context.Background()

	var calls atomic.Int32
	got, err := cache.GetWithMutex(ctx, reader, "cache:voucher:404", time.Minute, countingSource(nil, &calls))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = cache.GetWithMutex(ctx, reader, "cache:voucher:404", time.Minute, countingSource(nil, &calls))
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetWithLogicalExpire_NeverWarmed(t *testing.T) {
	_, _, reader := newTestReader(t)

	got, err := cache.GetWithLogicalExpire(context.Background(), reader, "cache:shop:hot:404", time.Minute,
		func(_ context.Context) (*testEntity, error) {
			t.Fatal("source must not be consulted for an unwarmed key")
			return nil, nil
		})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetWithLogicalExpire_FreshValueServedDirectly(t *testing.T) {
	_, _, reader := newTestReader(t)
	ctx := context.Background()

	require.NoError(t, cache.WarmLogical(ctx, reader, "cache:shop:hot:3", &testEntity{ID: 3, Name: "fresh"}, time.Hour))

	got, err := cache.GetWithLogicalExpire(ctx, reader, "cache:shop:hot:3", time.Hour,
		func(_ context.Context) (*testEntity, error) {
			t.Error("fresh entry must not trigger a rebuild")
			return nil, nil
		})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "fresh", got.Name)
}

func TestGetWithLogicalExpire_StaleServedWhileRebuilding(t *testing.T) {
	_, _, reader := newTestReader(t)
	ctx := context.Background()

	// Warm with an already-passed expiry so the entry is immediately stale.
	require.NoError(t, cache.WarmLogical(ctx, reader, "cache:shop:hot:4", &testEntity{ID: 4, Name: "stale"}, -time.Minute))

	var calls atomic.Int32
	src := func(_ context.Context) (*testEntity, error) {
		calls.Add(1)
		return &testEntity{ID: 4, Name: "rebuilt"}, nil
	}

	const readers = 10
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.GetWithLogicalExpire(ctx, reader, "cache:shop:hot:4", time.Hour, src)
			if assert.NoError(t, err) && assert.NotNil(t, got) {
				// Readers never block on the rebuild; both values are legal.
				assert.Contains(t, []string{"stale", "rebuilt"}, got.Name)
			}
		}()
	}
	wg.Wait()

	// Exactly one background rebuild, and it eventually lands.
	require.Eventually(t, func() bool {
		got, err := cache.GetWithLogicalExpire(ctx, reader, "cache:shop:hot:4", time.Hour, src)
		return err == nil && got != nil && got.Name == "rebuilt"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDelete_RemovesEntry(t *testing.T) {
	_, client, reader := newTestReader(t)
	ctx := context.Background()

	var calls atomic.Int32
	src := countingSource(&testEntity{ID: 5, Name: "shop"}, &calls)

	_, err := cache.GetWithNullGuard(ctx, reader, "cache:shop:5", time.Minute, src)
	require.NoError(t, err)
	require.NoError(t, reader.Delete(ctx, "cache:shop:5"))

	exists, err := client.Exists(ctx, "cache:shop:5").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	// Next read rebuilds from the source.
	_, err = cache.GetWithNullGuard(ctx, reader, "cache:shop:5", time.Minute, src)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
