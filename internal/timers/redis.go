package timers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/technomatra/missions/internal/missions"
)

// Retention keeps a record around after its deadline so the expiry can
// still be observed and acted on by the next reader.
const Retention = 24 * time.Hour

// RedisStore keeps deadlines as unix-millisecond strings under
// "<prefix>timer:<kind>:<username>:<task>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(k missions.TimerKey) string {
	return r.prefix + "timer:" + k.String()
}

func (r *RedisStore) Deadline(ctx context.Context, key missions.TimerKey) (time.Time, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing deadline %q: %w", v, err)
	}
	return time.UnixMilli(ms), true, nil
}

func (r *RedisStore) SetDeadline(ctx context.Context, key missions.TimerKey, end time.Time) error {
	ttl := time.Until(end) + Retention
	return r.client.Set(ctx, r.key(key), strconv.FormatInt(end.UnixMilli(), 10), ttl).Err()
}

func (r *RedisStore) Clear(ctx context.Context, key missions.TimerKey) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Check pings the server.
func (r *RedisStore) Check(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
