// Package redis opens the Redis connection behind the workspace scope store
// and exports its pool statistics.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"consulthub/internal/platform/config"
)

var (
	poolEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consulthub_redis_pool_events_total",
		Help: "Redis connection pool events by kind (hit, miss, timeout, stale)",
	}, []string{"kind"})
	poolConns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "consulthub_redis_pool_conns",
		Help: "Redis connections currently held by the pool, by state (total, idle)",
	}, []string{"state"})
)

// Client is a go-redis client with a health probe and pool metrics.
type Client struct {
	*redis.Client
	last redis.PoolStats
}

// New connects to cfg.URL and pings it. It returns nil, nil when no URL is
// configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// RecordPoolStats publishes the pool counters accumulated since the previous
// call. It is not safe for concurrent use.
func (c *Client) RecordPoolStats() {
	stats := c.PoolStats()

	poolConns.WithLabelValues("total").Set(float64(stats.TotalConns))
	poolConns.WithLabelValues("idle").Set(float64(stats.IdleConns))

	addDelta("hit", stats.Hits, c.last.Hits)
	addDelta("miss", stats.Misses, c.last.Misses)
	addDelta("timeout", stats.Timeouts, c.last.Timeouts)
	addDelta("stale", stats.StaleConns, c.last.StaleConns)

	c.last = *stats
}

func addDelta(kind string, current, previous uint32) {
	if current > previous {
		poolEvents.WithLabelValues(kind).Add(float64(current - previous))
	}
}

// RecordPoolStatsEvery calls RecordPoolStats on every tick until ctx ends.
func (c *Client) RecordPoolStatsEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RecordPoolStats()
		}
	}
}
