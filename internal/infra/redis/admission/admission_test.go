//go:build unit

package admission_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"flashsale-service/internal/infra/redis/admission"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdmitter(t *testing.T) *admission.Admitter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return admission.NewAdmitter(client)
}

func TestSeedAndWindowRoundTrip(t *testing.T) {
	a := newAdmitter(t)
	ctx := context.Background()

	begin := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	end := begin.Add(2 * time.Hour)
	require.NoError(t, a.Seed(ctx, 7, admission.SaleState{
		Stock:     100,
		BeginTime: begin,
		EndTime:   end,
	}))

	gotBegin, gotEnd, err := a.Window(ctx, 7)
	require.NoError(t, err)
	assert.True(t, gotBegin.Equal(begin))
	assert.True(t, gotEnd.Equal(end))

	stock, err := a.Stock(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(100), stock)
}

func TestWindow_MissingSale(t *testing.T) {
	a := newAdmitter(t)

	_, _, err := a.Window(context.Background(), 404)
	assert.ErrorIs(t, err, admission.ErrSaleStateMissing)
}

func TestAdmit_LastUnitAdmitsExactlyOne(t *testing.T) {
	a := newAdmitter(t)
	ctx := context.Background()

	require.NoError(t, a.Seed(ctx, 7, admission.SaleState{
		Stock:     1,
		BeginTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}))

	first, err := a.Admit(ctx, 7, 1001)
	require.NoError(t, err)
	assert.Equal(t, admission.Admitted, first)

	second, err := a.Admit(ctx, 7, 1002)
	require.NoError(t, err)
	assert.Equal(t, admission.SoldOut, second)

	stock, err := a.Stock(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(0), stock, "stock never goes below zero")
}

func TestAdmit_DuplicateUser(t *testing.T) {
	a := newAdmitter(t)
	ctx := context.Background()

	require.NoError(t, a.Seed(ctx, 7, admission.SaleState{
		Stock:     10,
		BeginTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}))

	res, err := a.Admit(ctx, 7, 1001)
	require.NoError(t, err)
	require.Equal(t, admission.Admitted, res)

	res, err = a.Admit(ctx, 7, 1001)
	require.NoError(t, err)
	assert.Equal(t, admission.Duplicate, res)

	// The duplicate attempt must not consume stock.
	stock, err := a.Stock(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(9), stock)
}

func TestAdmit_UnseededSaleIsSoldOut(t *testing.T) {
	a := newAdmitter(t)

	res, err := a.Admit(context.Background(), 404, 1001)
	require.NoError(t, err)
	assert.Equal(t, admission.SoldOut, res)
}

func TestAdmit_ConcurrentAdmissionsNeverOversell(t *testing.T) {
	a := newAdmitter(t)
	ctx := context.Background()

	const stock = 10
	const users = 50
	require.NoError(t, a.Seed(ctx, 7, admission.SaleState{
		Stock:     stock,
		BeginTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}))

	var admitted, soldOut atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			res, err := a.Admit(ctx, 7, userID)
			if !assert.NoError(t, err) {
				return
			}
			switch res {
			case admission.Admitted:
				admitted.Add(1)
			case admission.SoldOut:
				soldOut.Add(1)
			}
		}(int64(2000 + i))
	}
	wg.Wait()

	assert.Equal(t, int32(stock), admitted.Load(), "exactly stock admissions")
	assert.Equal(t, int32(users-stock), soldOut.Load())

	remaining, err := a.Stock(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(0), remaining)
}
