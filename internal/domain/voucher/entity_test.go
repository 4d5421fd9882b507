//go:build unit

package voucher_test

import (
	"testing"
	"time"

	"flashsale-service/internal/domain/voucher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeckillVoucher(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	begin := now.Add(-time.Hour)
	end := now.Add(time.Hour)

	t.Run("basic success case", func(t *testing.T) {
		v, err := voucher.NewSeckillVoucher(7, "100 off coffee", 100, begin, end, now)
		require.NoError(t, err)
		require.NotNil(t, v)

		assert.Equal(t, int64(7), v.ID())
		assert.Equal(t, "100 off coffee", v.Title())
		assert.Equal(t, int32(100), v.Stock())
		assert.True(t, v.IsActiveAt(now))
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name  string
			title string
			stock int32
			begin time.Time
			end   time.Time
			errIs error
		}{
			{name: "empty title", title: "", stock: 1, begin: begin, end: end, errIs: voucher.ErrEmptyTitle},
			{name: "whitespace title", title: "   ", stock: 1, begin: begin, end: end, errIs: voucher.ErrEmptyTitle},
			{name: "negative stock", title: "v", stock: -1, begin: begin, end: end, errIs: voucher.ErrNegativeStock},
			{name: "zero stock allowed", title: "v", stock: 0, begin: begin, end: end},
			{name: "window inverted", title: "v", stock: 1, begin: end, end: begin, errIs: voucher.ErrInvalidWindow},
			{name: "window zero length", title: "v", stock: 1, begin: begin, end: begin, errIs: voucher.ErrInvalidWindow},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := voucher.NewSeckillVoucher(1, tc.title, tc.stock, tc.begin, tc.end, now)
				if tc.errIs != nil {
					assert.ErrorIs(t, err, tc.errIs)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("sale window boundaries", func(t *testing.T) {
		v, err := voucher.NewSeckillVoucher(1, "v", 1, begin, end, now)
		require.NoError(t, err)

		assert.True(t, v.IsActiveAt(begin))
		assert.True(t, v.IsActiveAt(end))
		assert.False(t, v.IsActiveAt(begin.Add(-time.Second)))
		assert.False(t, v.IsActiveAt(end.Add(time.Second)))
	})
}
