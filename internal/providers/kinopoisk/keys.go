package kinopoisk

import (
	"errors"
	"sync"
)

// ErrKeysExhausted means every configured API key answered with a
// quota error during one request. The caller should alert operators;
// quotas reset upstream, after which Reset restores the ring.
var ErrKeysExhausted = errors.New("kinopoisk: all api keys exhausted")

// KeyRing rotates through the configured API keys. Rotation state is
// shared across requests so a burned key stays skipped until quotas
// reset.
type KeyRing struct {
	mu      sync.Mutex
	keys    []string
	current int
}

func NewKeyRing(keys []string) *KeyRing {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			clean = append(clean, k)
		}
	}
	return &KeyRing{keys: clean}
}

func (r *KeyRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Current returns the key requests should use right now.
func (r *KeyRing) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[r.current]
}

// Advance moves to the next key and returns it. The caller bounds its
// retry loop by Len to detect a full cycle.
func (r *KeyRing) Advance() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return ""
	}
	r.current = (r.current + 1) % len(r.keys)
	return r.keys[r.current]
}

// Reset returns the ring to the first key.
func (r *KeyRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = 0
}
