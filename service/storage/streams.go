package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Accepted messages are mirrored into a per-pair redis stream. This is the
// hand-off point for the external history store; the gateway never reads
// them back.

// DMKey builds the stream key for a sender/receiver pair; order-insensitive
// so both directions land in the same stream.
func DMKey(a, b string) string {
	p := []string{a, b}
	sort.Strings(p)
	return fmt.Sprintf("im:dm:%s:%s", p[0], p[1])
}

// AppendDM appends one message envelope to the pair stream, capped to a
// rolling window.
func AppendDM(ctx context.Context, stream string, fields map[string]any) (string, error) {
	if rdb == nil {
		return "", errors.New("redis not initialized")
	}
	args := &redis.XAddArgs{Stream: stream, Values: fields, Approx: true, MaxLen: 100_000}
	return rdb.XAdd(ctx, args).Result()
}
