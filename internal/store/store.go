// Package store keeps all ephemeral conversation state: submitted
// searches, in-progress filters, magnet references, rendered callbacks
// and anti-spam counters. Every entry is written with a TTL; expiry is
// how stale tokens die.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the key never existed or its TTL expired.
	// Handlers translate it into the "request outdated" reply.
	ErrNotFound = errors.New("store: not found")
	// ErrUnavailable means the backend could not be reached.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Backend is the raw byte-oriented storage under the typed state layer.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
