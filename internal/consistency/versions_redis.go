package consistency

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "famhelpdesk:version:"
	redisEpochKey  = redisKeyPrefix + "epoch"
)

// RedisVersions shares version counters between service instances so a read
// served by any instance observes writes committed through another.
//
// The epoch key is read with the counters. A flush drops it together with
// the counters, and the next reader claims a fresh epoch, so counters that
// restart from zero never reproduce a stamp issued before the flush.
type RedisVersions struct {
	client redis.UniversalClient
}

// NewRedisVersions claims the epoch key if no instance has yet.
func NewRedisVersions(ctx context.Context, client redis.UniversalClient) (*RedisVersions, error) {
	v := &RedisVersions{client: client}
	if _, err := v.claimEpoch(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *RedisVersions) claimEpoch(ctx context.Context) (string, error) {
	if err := v.client.SetNX(ctx, redisEpochKey, uuid.NewString(), 0).Err(); err != nil {
		return "", fmt.Errorf("claim version epoch: %w", err)
	}
	epoch, err := v.client.Get(ctx, redisEpochKey).Result()
	if err != nil {
		return "", fmt.Errorf("read version epoch: %w", err)
	}
	return epoch, nil
}

func redisKeys(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = redisKeyPrefix + string(k)
	}
	return out
}

func (v *RedisVersions) Versions(ctx context.Context, keys []Key) (string, []uint64, error) {
	vals, err := v.client.MGet(ctx, append([]string{redisEpochKey}, redisKeys(keys)...)...).Result()
	if err != nil {
		return "", nil, fmt.Errorf("read versions: %w", err)
	}
	epoch, ok := vals[0].(string)
	if !ok {
		if epoch, err = v.claimEpoch(ctx); err != nil {
			return "", nil, err
		}
	}
	out := make([]uint64, len(keys))
	for i, raw := range vals[1:] {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("parse version of %s: %w", keys[i], err)
		}
		out[i] = n
	}
	return epoch, out, nil
}

// Bump increments all keys in one pipelined round trip.
func (v *RedisVersions) Bump(ctx context.Context, keys []Key) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := v.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range redisKeys(keys) {
			p.Incr(ctx, k)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bump versions: %w", err)
	}
	return nil
}
