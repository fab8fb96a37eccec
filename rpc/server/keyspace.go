package server

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// keyspace is the in-memory data set of the engine.
// Values live in a concurrent map, expiries in a heap guarded by mu.
type keyspace struct {
	values *xsync.MapOf[string, []byte]

	mu      sync.Mutex
	expires *expiryHeap
	now     func() time.Time
}

func newKeyspace() *keyspace {
	return &keyspace{
		values:  xsync.NewMapOf[string, []byte](),
		expires: newExpiryHeap(),
		now:     time.Now,
	}
}

// get returns the value of key, expired keys are deleted on access
func (k *keyspace) get(key string) ([]byte, bool) {
	k.evictExpired()
	return k.values.Load(key)
}

// set stores value under key. ttl <= 0 removes an existing expiry.
func (k *keyspace) set(key string, value []byte, ttl time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.values.Store(key, append([]byte{}, value...))
	if ttl > 0 {
		k.expires.schedule(key, k.now().Add(ttl).UnixNano())
	} else {
		k.expires.unschedule(key)
	}
}

// del removes keys and returns how many existed
func (k *keyspace) del(keys ...string) int {
	k.evictExpired()

	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if _, ok := k.values.LoadAndDelete(key); ok {
			removed++
		}
		k.expires.unschedule(key)
	}
	return removed
}

// ttl returns the remaining time to live of key
func (k *keyspace) ttl(key string) (time.Duration, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	deadline, ok := k.expires.deadline(key)
	if !ok {
		return 0, false
	}
	return time.Duration(deadline - k.now().UnixNano()), true
}

func (k *keyspace) size() int {
	k.evictExpired()
	return k.values.Size()
}

func (k *keyspace) evictExpired() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.expires.popExpired(k.now().UnixNano()) {
		k.values.Delete(key)
	}
}
