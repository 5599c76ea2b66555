package slotcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"calendar-booking/internal/calendar"
)

// Redis stores each (owner, date) entry as a JSON array under one key so
// several service instances can share staged searches.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis builds a Redis-backed cache. A zero ttl keeps entries until they
// are refreshed or overwritten.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "slots"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(owner, date string) string {
	return r.prefix + ":" + owner + ":" + date
}

func (r *Redis) Refresh(ctx context.Context, owner, date string, slots []calendar.Slot) error {
	key := r.key(owner, date)
	if len(slots) == 0 {
		return r.rdb.Del(ctx, key).Err()
	}
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, payload, r.ttl).Err()
}

func (r *Redis) Lookup(ctx context.Context, owner, date string) ([]calendar.Slot, error) {
	raw, err := r.rdb.Get(ctx, r.key(owner, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w for owner: %s on date %s", ErrCacheMiss, owner, date)
	}
	if err != nil {
		return nil, err
	}
	slots := []calendar.Slot{}
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, fmt.Errorf("decode cached slots for %s: %w", r.key(owner, date), err)
	}
	return slots, nil
}

const maxTxAttempts = 5

// retryTx reruns fn while the optimistic transaction loses a WATCH race.
func retryTx(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// RemoveSlot rewrites the entry inside WATCH/MULTI so concurrent instances
// cannot both consume the same slot. A lost WATCH race is retried.
func (r *Redis) RemoveSlot(ctx context.Context, owner, date string, slot calendar.Slot) error {
	key := r.key(owner, date)
	return retryTx(maxTxAttempts, func() error {
		return r.removeSlotOnce(ctx, key, slot)
	})
}

func (r *Redis) removeSlotOnce(ctx context.Context, key string, slot calendar.Slot) error {
	return r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var slots []calendar.Slot
		if err := json.Unmarshal(raw, &slots); err != nil {
			return err
		}
		payload, err := json.Marshal(removeFirst(slots, slot))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		return err
	}, key)
}

// Ping is used by the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
