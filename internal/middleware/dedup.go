package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// ReferenceGuard tracks payment references that already started an attempt.
// The reference is the caller's idempotency key and must be unique per
// attempt; replaying one must not initiate a second provider call.
type ReferenceGuard interface {
	Seen(ctx context.Context, reference string) (bool, error)
}

type redisReferenceGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (g *redisReferenceGuard) Seen(ctx context.Context, reference string) (bool, error) {
	key := g.prefix + ":" + reference
	ok, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

type memoryReferenceGuard struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
}

func newMemoryReferenceGuard(ttl time.Duration) *memoryReferenceGuard {
	now := time.Now()
	return &memoryReferenceGuard{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
	}
}

func (g *memoryReferenceGuard) Seen(_ context.Context, reference string) (bool, error) {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if exp, ok := g.seen[reference]; ok && exp.After(now) {
		return true, nil
	}

	g.seen[reference] = now.Add(g.ttl)
	if now.After(g.nextGC) {
		for ref, exp := range g.seen {
			if exp.Before(now) {
				delete(g.seen, ref)
			}
		}
		g.nextGC = now.Add(g.ttl)
	}

	return false, nil
}

// NewReferenceGuard builds a Redis-backed guard and falls back to in-memory
// when Redis is absent or unreachable.
func NewReferenceGuard(addr, pass string, db int, ttl time.Duration) (ReferenceGuard, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if addr == "" {
		return newMemoryReferenceGuard(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryReferenceGuard(ttl), err
	}

	return &redisReferenceGuard{
		client: client,
		prefix: "pay:ref",
		ttl:    ttl,
	}, nil
}

// PaymentReferenceDedup rejects payment attempts that replay an
// already-seen reference before any provider call is made.
func PaymentReferenceDedup(guard ReferenceGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if guard == nil {
				return next(c)
			}

			req := c.Request()
			if req.Body == nil {
				return next(c)
			}

			rawBody, err := io.ReadAll(req.Body)
			if err != nil {
				return next(c)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(rawBody))
			if len(rawBody) == 0 {
				return next(c)
			}

			var payload struct {
				Reference string `json:"reference"`
			}
			if err := json.Unmarshal(rawBody, &payload); err != nil || payload.Reference == "" {
				return next(c)
			}

			isDuplicate, err := guard.Seen(req.Context(), payload.Reference)
			if err != nil {
				return next(c)
			}
			if isDuplicate {
				return c.JSON(http.StatusConflict, map[string]interface{}{
					"status": false,
					"msg":    "Duplicate payment reference: " + payload.Reference,
					"obj":    nil,
				})
			}

			return next(c)
		}
	}
}
