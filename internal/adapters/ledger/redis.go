// Package ledger provides a Redis-backed mission dedup ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/loggers/logbook/internal/domain/dedupe"
	"github.com/redis/go-redis/v9"
)

// Default Redis ledger configuration constants.
const (
	DefaultKey     = "logbook:missions"
	DefaultTimeout = 5 * time.Second
	seqSuffix      = ":seq"
)

// Client is the subset of the go-redis API the ledger uses. *redis.Client
// satisfies it.
type Client interface {
	ZScore(ctx context.Context, key, member string) *redis.FloatCmd
	ZAddNX(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) *redis.IntCmd
	ZCard(ctx context.Context, key string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Close() error
}

// RedisLedger keeps mission fingerprints in a sorted set scored by insertion
// sequence. The set is trimmed to the newest maxSize members after each add.
type RedisLedger struct {
	client  Client
	key     string
	maxSize int
	timeout time.Duration
	size    atomic.Int64
}

var _ dedupe.Ledger = (*RedisLedger)(nil)

// New wraps client and loads the current set size.
func New(ctx context.Context, client Client, opts ...Option) (*RedisLedger, error) {
	l := &RedisLedger{
		client:  client,
		key:     DefaultKey,
		maxSize: dedupe.DefaultMaxSize,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	n, err := l.client.ZCard(ctx, l.key).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger size: %w", err)
	}
	l.size.Store(n)
	return l, nil
}

// Dial connects to addr, pings it and returns a ledger on top of the client.
func Dial(ctx context.Context, addr string, opts ...Option) (*RedisLedger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  DefaultTimeout,
		WriteTimeout: DefaultTimeout,
	})

	pctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	l, err := New(ctx, client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return l, nil
}

// Contains implements dedupe.Ledger.
func (l *RedisLedger) Contains(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	err := l.client.ZScore(ctx, l.key, key).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return true, nil
}

// Add implements dedupe.Ledger. Adding a present key keeps its position.
func (l *RedisLedger) Add(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	seq, err := l.client.Incr(ctx, l.key+seqSuffix).Result()
	if err != nil {
		return fmt.Errorf("ledger sequence: %w", err)
	}
	if err := l.client.ZAddNX(ctx, l.key, redis.Z{Score: float64(seq), Member: key}).Err(); err != nil {
		return fmt.Errorf("ledger add: %w", err)
	}
	if l.maxSize > 0 {
		if err := l.client.ZRemRangeByRank(ctx, l.key, 0, int64(-l.maxSize-1)).Err(); err != nil {
			return fmt.Errorf("ledger trim: %w", err)
		}
	}
	n, err := l.client.ZCard(ctx, l.key).Result()
	if err != nil {
		return fmt.Errorf("ledger size: %w", err)
	}
	l.size.Store(n)
	return nil
}

// Size implements dedupe.Ledger with the count seen after the last write.
func (l *RedisLedger) Size() int64 {
	return l.size.Load()
}

// Close closes the underlying client.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}
