package pagination

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/query"
)

// CounterConfig configures total-result counting.
type CounterConfig struct {
	// TTL of cached totals. Zero disables caching.
	TTL time.Duration
	// Namespace prefixes cache keys.
	Namespace string
	// MaxCountsPerSecond throttles COUNT queries reaching the database.
	// Zero means unlimited.
	MaxCountsPerSecond float64
	Burst              int
	// QueryTimeout bounds a shared count, which no single caller can cancel.
	// Zero means no bound.
	QueryTimeout time.Duration
}

// CounterStats reports how totals were obtained.
type CounterStats struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Queries     int64 `json:"queries"`
}

// TotalCounter computes the number of rows a statement returns.
type TotalCounter interface {
	Count(ctx context.Context, stmt query.Statement) (int, error)
}

// Counter counts statement results with a COUNT(*) subquery. Totals are
// cached in a KVStore when one is configured, identical concurrent counts
// share one database round trip, and database counts are rate limited.
type Counter struct {
	db      core.Database
	dialect query.Dialect
	cache   core.KVStore
	config  CounterConfig
	limiter *rate.Limiter
	group   singleflight.Group

	hits, misses, queries atomic.Int64
}

// NewCounter creates a counter. cache may be nil.
func NewCounter(db core.Database, dialect query.Dialect, cache core.KVStore, cfg CounterConfig) *Counter {
	c := &Counter{
		db:      db,
		dialect: dialect,
		cache:   cache,
		config:  cfg,
	}
	if cfg.MaxCountsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.MaxCountsPerSecond), burst)
	}
	return c
}

// Count returns the number of rows stmt yields, ignoring its limit, offset
// and loader options. Failures are never cached. A caller whose context ends
// stops waiting without failing other callers sharing the same count.
func (c *Counter) Count(ctx context.Context, stmt query.Statement) (int, error) {
	sql, args, err := stmt.RenderCount(c.dialect)
	if err != nil {
		return 0, fmt.Errorf("failed to render count query: %w", err)
	}
	key := c.cacheKey(sql, args)

	if total, ok := c.cached(ctx, key); ok {
		c.hits.Add(1)
		return total, nil
	}
	c.misses.Add(1)

	// The shared query outlives any single caller; each caller stops
	// waiting on its own context.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		qctx, cancel := c.queryContext(shared)
		defer cancel()

		total, err := c.query(qctx, sql, args)
		if err != nil {
			return 0, err
		}
		c.store(shared, key, total)
		return total, nil
	})

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("failed to count results: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		if res.Shared {
			log.Printf("[COUNTER] Shared in-flight count for %s", key)
		}
		return res.Val.(int), nil
	}
}

// Invalidate drops the cached total of stmt so the next Count queries the
// database. It reports whether a cached total was removed.
func (c *Counter) Invalidate(ctx context.Context, stmt query.Statement) (bool, error) {
	sql, args, err := stmt.RenderCount(c.dialect)
	if err != nil {
		return false, fmt.Errorf("failed to render count query: %w", err)
	}
	key := c.cacheKey(sql, args)
	c.group.Forget(key)

	if !c.cacheEnabled() {
		return false, nil
	}
	exists, err := c.cache.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check cached count: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := c.cache.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("failed to delete cached count: %w", err)
	}
	return true, nil
}

// Stats returns counters since creation.
func (c *Counter) Stats() CounterStats {
	return CounterStats{
		CacheHits:   c.hits.Load(),
		CacheMisses: c.misses.Load(),
		Queries:     c.queries.Load(),
	}
}

func (c *Counter) cacheKey(sql string, args []interface{}) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%#v", sql, args)))
	return c.config.Namespace + ":count:" + hex.EncodeToString(sum[:])
}

func (c *Counter) cacheEnabled() bool {
	return c.cache != nil && c.config.TTL > 0
}

func (c *Counter) cached(ctx context.Context, key string) (int, bool) {
	if !c.cacheEnabled() {
		return 0, false
	}
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, core.ErrKeyNotFound) {
			log.Printf("[COUNTER] WARNING: Cache read failed for %s: %v", key, err)
		}
		return 0, false
	}
	total, err := strconv.Atoi(string(raw))
	if err != nil {
		log.Printf("[COUNTER] WARNING: Ignoring malformed cached total for %s: %q", key, raw)
		return 0, false
	}
	return total, true
}

func (c *Counter) store(ctx context.Context, key string, total int) {
	if !c.cacheEnabled() {
		return
	}
	if err := c.cache.Set(ctx, key, []byte(strconv.Itoa(total)), c.config.TTL); err != nil {
		log.Printf("[COUNTER] WARNING: Cache write failed for %s: %v", key, err)
	}
}

func (c *Counter) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.config.QueryTimeout)
	}
	return ctx, func() {}
}

func (c *Counter) query(ctx context.Context, sql string, args []interface{}) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("failed to wait for count rate limiter: %w", err)
		}
	}
	c.queries.Add(1)

	rows, err := c.db.Query(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("failed to count results: %w", err)
		}
		return 0, fmt.Errorf("failed to count results: count query returned no rows")
	}
	var total int
	if err := rows.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}
	return total, rows.Err()
}

// Paginate counts the results of stmt and applies the requested page.
func Paginate(ctx context.Context, counter TotalCounter, stmt query.Statement, pageNumber, pageSize *int) (query.Statement, Pagination, error) {
	total, err := counter.Count(ctx, stmt)
	if err != nil {
		return query.Statement{}, Pagination{}, err
	}
	return Apply(stmt, pageNumber, pageSize, total)
}
