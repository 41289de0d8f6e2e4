package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/soyeahso/llmbridge/internal/llm"
)

const defaultRedisPrefix = "llmbridge:usage"

// RedisUsageConfig describes the Redis connection of a shared usage counter.
type RedisUsageConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// RedisUsage keeps per-model usage counters in Redis hashes so several
// processes can share one running total. It implements llm.UsageRecorder.
type RedisUsage struct {
	client *redis.Client
	prefix string
}

// NewRedisUsage connects to Redis and verifies the connection.
func NewRedisUsage(ctx context.Context, cfg RedisUsageConfig) (*RedisUsage, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return newRedisUsage(client, cfg.Prefix), nil
}

func newRedisUsage(client *redis.Client, prefix string) *RedisUsage {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisUsage{client: client, prefix: prefix}
}

func (r *RedisUsage) modelsKey() string { return r.prefix + ":models" }

func (r *RedisUsage) modelKey(provider, model string) string {
	return r.prefix + ":" + provider + "/" + model
}

// RecordUsage adds one request to the model's counters.
func (r *RedisUsage) RecordUsage(ctx context.Context, rec llm.UsageRecord) error {
	cost, err := strconv.ParseFloat(rec.Cost.TotalCost, 64)
	if err != nil {
		cost = 0
	}
	key := r.modelKey(rec.Provider, rec.Model)

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, r.modelsKey(), rec.Provider+"/"+rec.Model)
		p.HIncrBy(ctx, key, "requests", 1)
		p.HIncrBy(ctx, key, "input", int64(rec.Input))
		p.HIncrBy(ctx, key, "output", int64(rec.Output))
		if rec.Estimated {
			p.HIncrBy(ctx, key, "estimated", 1)
		}
		p.HIncrByFloat(ctx, key, "cost", cost)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording usage in redis: %w", err)
	}
	return nil
}

// Totals returns the counters of every model seen so far.
func (r *RedisUsage) Totals(ctx context.Context) ([]ModelTotals, error) {
	members, err := r.client.SMembers(ctx, r.modelsKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(members)

	out := make([]ModelTotals, 0, len(members))
	for _, m := range members {
		provider, model, _ := strings.Cut(m, "/")
		fields, err := r.client.HGetAll(ctx, r.modelKey(provider, model)).Result()
		if err != nil {
			return nil, err
		}
		t := ModelTotals{Provider: provider, Model: model}
		t.Requests, _ = strconv.Atoi(fields["requests"])
		t.Input, _ = strconv.Atoi(fields["input"])
		t.Output, _ = strconv.Atoi(fields["output"])
		t.Estimated, _ = strconv.Atoi(fields["estimated"])
		cost, _ := strconv.ParseFloat(fields["cost"], 64)
		t.TotalCost = strconv.FormatFloat(cost, 'f', 6, 64)
		out = append(out, t)
	}
	return out, nil
}

// Reset deletes every counter under the prefix.
func (r *RedisUsage) Reset(ctx context.Context) error {
	members, err := r.client.SMembers(ctx, r.modelsKey()).Result()
	if err != nil {
		return err
	}
	keys := []string{r.modelsKey()}
	for _, m := range members {
		provider, model, _ := strings.Cut(m, "/")
		keys = append(keys, r.modelKey(provider, model))
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close closes the Redis client.
func (r *RedisUsage) Close() error {
	return r.client.Close()
}
