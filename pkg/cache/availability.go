// Package cache keeps per-date open slot lists in Redis
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

const (
	keyPrefix        = "teesheet:open:"
	generationPrefix = "teesheet:gen:"
)

// setIfCurrent writes the slot list only while the date's generation still equals ARGV[1]
var setIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[1]) or '0') ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// AvailabilityCache stores open slots per date with a TTL
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a client and checks it responds
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// NewAvailabilityCache wraps client. A zero ttl keeps entries until invalidated.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

// Key returns the redis key for a date
func Key(date time.Time) string {
	return keyPrefix + date.Format(time.DateOnly)
}

// GenerationKey returns the redis key of the invalidation counter for a date
func GenerationKey(date time.Time) string {
	return generationPrefix + date.Format(time.DateOnly)
}

// Generation returns the invalidation counter of date; zero if it was never invalidated
func (c *AvailabilityCache) Generation(ctx context.Context, date time.Time) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(date)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached slots of date; false on a miss
func (c *AvailabilityCache) Get(ctx context.Context, date time.Time) ([]model.Slot, bool, error) {
	data, err := c.client.Get(ctx, Key(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached slots: %w", err)
	}

	slots, err := DecodeSlots(data)
	if err != nil {
		return nil, false, err
	}
	return slots, true, nil
}

// Set caches the open slots of date if no invalidation happened since generation gen
// was read. It reports whether the list was stored.
func (c *AvailabilityCache) Set(ctx context.Context, date time.Time, gen int64, slots []model.Slot) (bool, error) {
	data, err := EncodeSlots(slots)
	if err != nil {
		return false, err
	}

	stored, err := setIfCurrent.Run(ctx, c.client,
		[]string{GenerationKey(date), Key(date)},
		strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache slots: %w", err)
	}
	return stored == 1, nil
}

// Invalidate drops the cached slots of date and bumps its generation so that a
// list computed before the change can no longer be stored
func (c *AvailabilityCache) Invalidate(ctx context.Context, date time.Time) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(date))
		pipe.Del(ctx, Key(date))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached slots: %w", err)
	}
	return nil
}

// EncodeSlots serializes slots as a JSON array of "HH:MM-HH:MM" labels
func EncodeSlots(slots []model.Slot) ([]byte, error) {
	labels := make([]string, 0, len(slots))
	for _, s := range slots {
		labels = append(labels, s.Label())
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode slots: %w", err)
	}
	return data, nil
}

// DecodeSlots parses the output of EncodeSlots
func DecodeSlots(data []byte) ([]model.Slot, error) {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}

	slots := make([]model.Slot, 0, len(labels))
	for _, label := range labels {
		start, end, ok := strings.Cut(label, "-")
		if !ok {
			return nil, fmt.Errorf("malformed slot label %q", label)
		}
		s, err := model.ParseTimeOfDay(start)
		if err != nil {
			return nil, fmt.Errorf("malformed slot label %q: %w", label, err)
		}
		e, err := model.ParseTimeOfDay(end)
		if err != nil {
			return nil, fmt.Errorf("malformed slot label %q: %w", label, err)
		}
		slots = append(slots, model.Slot{Start: s, End: e})
	}
	return slots, nil
}
