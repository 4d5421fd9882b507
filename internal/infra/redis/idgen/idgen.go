// Package idgen allocates globally unique, monotonically nondecreasing
// 64-bit ids: high bits are seconds since a fixed epoch, low 32 bits a
// per-prefix-per-day counter incremented atomically in the shared store.
package idgen

import (
	"context"

	"flashsale-service/internal/pkg/clock"
	"flashsale-service/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const (
	// 2024-01-01T00:00:00Z
	epochSeconds = 1704067200

	counterBits = 32

	counterKeyPrefix = "icr:"
)

type Generator struct {
	client redis.UniversalClient
	clock  clock.Clock
}

func NewGenerator(client redis.UniversalClient, clk clock.Clock) *Generator {
	return &Generator{client: client, clock: clk}
}

// NextID returns the next id for prefix. The counter key embeds the calendar
// date, so day rollover starts a fresh counter without reset logic. A store
// failure fails the call: there is no local fallback sequence.
func (g *Generator) NextID(ctx context.Context, prefix string) (int64, error) {
	now := g.clock.Now().UTC()
	timestamp := now.Unix() - epochSeconds

	date := now.Format("2006:01:02")
	count, err := g.client.Incr(ctx, counterKeyPrefix+prefix+":"+date).Result()
	if err != nil {
		return 0, errs.Wrap(err, "sequence increment failed")
	}

	return timestamp<<counterBits | count, nil
}
