package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis mirror of derived presence. In-process decisions always come from
// registry occupancy; the mirror only gives other processes (ops tooling,
// the push worker) a view of who is connected to which gateway.

// presence key: im:presence:<user>
// value: gateway id; TTL bounds staleness if the gateway dies uncleanly.
func presenceKey(user string) string { return "im:presence:" + user }

// PresenceChannel is the pub/sub channel carrying transition events.
const PresenceChannel = "im:presence:events"

// DefaultPresenceTTL bounds how long a stale key outlives a crashed
// gateway before the mirror self-heals.
const DefaultPresenceTTL = 90 * time.Second

// PresenceEvent is published on every online/offline edge.
type PresenceEvent struct {
	UserID    string `json:"userId"`
	Status    string `json:"status"` // online | offline
	GatewayID string `json:"gatewayId"`
	TS        int64  `json:"ts"`
}

// PresenceOnline marks the user online and renews the TTL.
func PresenceOnline(ctx context.Context, user, gatewayID string, ttl time.Duration) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceRenew extends the TTL without touching the value; a no-op if the
// key already expired.
func PresenceRenew(ctx context.Context, user string, ttl time.Duration) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Expire(ctx, presenceKey(user), ttl).Err()
}

// PresenceOffline removes the user's presence key.
func PresenceOffline(ctx context.Context, user string) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup reports whether the user is online anywhere and on which
// gateway.
func PresenceLookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	if rdb == nil {
		return "", false, errors.New("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// PublishPresence broadcasts a transition on the pub/sub channel.
func PublishPresence(ctx context.Context, ev PresenceEvent) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal presence event")
	}
	return rdb.Publish(ctx, PresenceChannel, b).Err()
}
