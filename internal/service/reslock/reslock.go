// Package reslock serializes mutations per logical resource. A second
// action arriving while one is in flight for the same key is rejected
// instead of queued, which is what stops double-submitted gifts from both
// reading the same stale balance.
package reslock

import "sync"

// Keyed hands out at most one lock per key at a time
type Keyed struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// New creates an empty keyed lock set
func New() *Keyed {
	return &Keyed{busy: make(map[string]struct{})}
}

// TryAcquire marks the key busy. It returns false if the key is already
// held; the caller should reject the action rather than wait.
func (k *Keyed) TryAcquire(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, held := k.busy[key]; held {
		return false
	}
	k.busy[key] = struct{}{}
	return true
}

// TryAcquireAll acquires every key or none. Keys are released on partial
// failure so two transfers touching the same pair cannot wedge each other.
func (k *Keyed) TryAcquireAll(keys ...string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range keys {
		if _, held := k.busy[key]; held {
			return false
		}
	}
	for _, key := range keys {
		k.busy[key] = struct{}{}
	}
	return true
}

// Release frees the keys. Releasing an unheld key is a no-op.
func (k *Keyed) Release(keys ...string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range keys {
		delete(k.busy, key)
	}
}
