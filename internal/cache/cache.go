// Package cache keeps published forms in Redis so the public render and
// submit endpoints do not hit the database for every request.
//
// Schemas never change after creation, so entries only need to be dropped
// when a form is deleted. Redis problems are logged and treated as misses:
// the cache can fail without the API failing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sakif/promptforms/internal/metrics"
	"github.com/sakif/promptforms/internal/model"
)

const keyPrefix = "promptforms:form:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// FormCache is a read-through cache of live forms keyed by ID.
type FormCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Open connects to Redis and verifies the connection with a PING.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*FormCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: connecting to redis at %s: %w", opts.Addr, err)
	}

	return New(client, opts.TTL, logger), nil
}

// New wraps an existing client. A zero ttl keeps entries until deleted.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *FormCache {
	return &FormCache{client: client, ttl: ttl, logger: logger}
}

func key(id string) string {
	return keyPrefix + id
}

// Get returns the cached form, or false on a miss or any Redis error.
func (c *FormCache) Get(ctx context.Context, id string) (*model.Form, bool) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("form cache get failed",
				slog.String("formID", id),
				slog.String("error", err.Error()),
			)
			metrics.FormCacheLookups.WithLabelValues("error").Inc()
			return nil, false
		}
		metrics.FormCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var f model.Form
	if err := json.Unmarshal(raw, &f); err != nil {
		c.logger.Warn("form cache entry unreadable",
			slog.String("formID", id),
			slog.String("error", err.Error()),
		)
		metrics.FormCacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.FormCacheLookups.WithLabelValues("hit").Inc()
	return &f, true
}

// Set stores f.
func (c *FormCache) Set(ctx context.Context, f *model.Form) {
	raw, err := json.Marshal(f)
	if err != nil {
		c.logger.Warn("form cache encode failed", slog.String("formID", f.ID), slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, key(f.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("form cache set failed", slog.String("formID", f.ID), slog.String("error", err.Error()))
	}
}

// Invalidate drops the entry for id.
func (c *FormCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn("form cache delete failed", slog.String("formID", id), slog.String("error", err.Error()))
	}
}

// Close closes the Redis client.
func (c *FormCache) Close() error {
	return c.client.Close()
}
