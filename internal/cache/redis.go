// Package cache keeps complete query results in Redis until the corpus
// changes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dgallion1/docthemes/internal/pipeline"
)

var _ pipeline.Cache = (*RedisCache)(nil)

const (
	genKey      = "docthemes:gen"
	queryPrefix = "docthemes:query:"
)

// RedisCache stores results under the current generation. Invalidate bumps
// the generation, orphaning every earlier entry until its TTL expires.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Open connects to url (redis://…) and verifies the connection.
func Open(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisCache(client, ttl), nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get returns the result stored under key, or nil on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*pipeline.Result, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached result: %w", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal cached result: %w", err)
	}
	return &res, nil
}

// Put stores res under key. A key taken before Invalidate stays in the old
// generation, so the entry is never reachable from a later Key.
func (c *RedisCache) Put(ctx context.Context, key string, res *pipeline.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached result: %w", err)
	}
	return nil
}

// Invalidate makes every cached result unreachable.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}

// Key resolves query against the current generation.
func (c *RedisCache) Key(ctx context.Context, query string) (string, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("get cache generation: %w", err)
	}
	return fmt.Sprintf("%s%d:%s", queryPrefix, gen, QueryHash(query)), nil
}

// QueryHash is the hex SHA-256 of the query lowercased with whitespace runs
// collapsed.
func QueryHash(query string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}
