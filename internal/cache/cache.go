// Package cache stores raw search results so repeated queries skip the
// search API.
//
// Raw results are cached rather than extracted developers: extraction is
// cheap, and running it per request keeps ids and timestamps fresh.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/intellicrawl/internal/search"
)

const keyPrefix = "intellicrawl:search:"

// SearchCache looks up and stores search results by built query and result count.
type SearchCache interface {
	Get(ctx context.Context, query string, maxResults int) ([]search.Result, bool, error)
	Set(ctx context.Context, query string, maxResults int, results []search.Result) error
}

// RedisConfig configures the Redis cache.
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL; a bare host:port also works.
	URL string
	TTL time.Duration
}

// Redis is a SearchCache backed by go-redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ SearchCache = (*Redis)(nil)

// NewRedis creates the client. It does not connect; call Ping.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		// Not a URL: treat it as an address.
		opts = &redis.Options{Addr: cfg.URL}
	}
	if opts.Addr == "" {
		return nil, errors.New("cache: empty redis address")
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Redis{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: redis PING: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get returns the cached results. A miss is (nil, false, nil).
func (r *Redis) Get(ctx context.Context, query string, maxResults int) ([]search.Result, bool, error) {
	raw, err := r.client.Get(ctx, Key(query, maxResults)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis GET: %w", err)
	}

	var results []search.Result
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false, fmt.Errorf("cache: decoding cached results: %w", err)
	}
	return results, true, nil
}

// Set stores results with the configured TTL.
func (r *Redis) Set(ctx context.Context, query string, maxResults int, results []search.Result) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("cache: encoding results: %w", err)
	}
	if err := r.client.Set(ctx, Key(query, maxResults), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis SET: %w", err)
	}
	return nil
}

// Key derives the cache key. Queries can be long and contain quotes, so
// the key carries a hash of them instead of the text.
func Key(query string, maxResults int) string {
	sum := sha256.Sum256([]byte(query + "\x00" + strconv.Itoa(maxResults)))
	return keyPrefix + hex.EncodeToString(sum[:16])
}
