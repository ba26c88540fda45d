// Package tracenotify correlates a chat turn with its trace span through a
// single keyed Redis slot.
//
// The slot is last-writer-wins by design: each generation overwrites the
// previous span id and exactly one downstream feedback lookup consumes it.
// Two concurrent chat turns can therefore cross-annotate; callers that need
// a guaranteed pairing should use the span id returned by the generation
// call itself instead of reading the slot.
package tracenotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the slot key.
const DefaultKey = "span_id"

// Notifier publishes and reads the most recent generation span id.
type Notifier struct {
	client *redis.Client
	key    string
}

// New connects to Redis at addr. An empty key falls back to DefaultKey.
func New(addr, key string) *Notifier {
	if key == "" {
		key = DefaultKey
	}
	return &Notifier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
	}
}

// Publish overwrites the slot with spanID.
func (n *Notifier) Publish(ctx context.Context, spanID string) error {
	if err := n.client.Set(ctx, n.key, spanID, 0).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", n.key, err)
	}
	return nil
}

// Latest returns the span id currently in the slot, or "" if nothing has
// been published yet.
func (n *Notifier) Latest(ctx context.Context) (string, error) {
	val, err := n.client.Get(ctx, n.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting %s: %w", n.key, err)
	}
	return val, nil
}

// Ping verifies the Redis connection.
func (n *Notifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (n *Notifier) Close() error {
	return n.client.Close()
}
