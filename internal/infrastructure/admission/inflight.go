package admission

import (
	"sync"

	"github.com/clipgate/clipgate/pkg/constants"
)

// inflightKey identifies one acquisition: two users fetching the same URL
// run independently.
type inflightKey struct {
	userID int64
	key    string
}

// InflightHandle represents a running acquisition. Done must be called on
// every exit path; it removes the registry entry exactly once. A dangling
// entry would permanently block the (user, key) pair.
type InflightHandle struct {
	registry *InflightRegistry
	key      inflightKey

	once sync.Once
	done chan struct{}
}

// Done removes the registry entry. Safe to call more than once.
func (h *InflightHandle) Done() {
	h.once.Do(func() {
		h.registry.remove(h.key)
		close(h.done)
	})
}

// Completed reports whether the acquisition has finished.
func (h *InflightHandle) Completed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

type inflightShard struct {
	mu      sync.Mutex
	entries map[inflightKey]*InflightHandle
}

// InflightRegistry maps (user, request key) to the active acquisition so
// duplicate concurrent requests can be rejected instead of queued.
type InflightRegistry struct {
	shards [constants.AdmissionShardCount]*inflightShard
}

// NewInflightRegistry creates an empty registry.
func NewInflightRegistry() *InflightRegistry {
	r := &InflightRegistry{}
	for i := range r.shards {
		r.shards[i] = &inflightShard{entries: make(map[inflightKey]*InflightHandle)}
	}
	return r
}

func (r *InflightRegistry) shard(k inflightKey) *inflightShard {
	return r.shards[shardIndex(k.userID)]
}

// Get returns the handle of a running acquisition for (user, key), or nil.
func (r *InflightRegistry) Get(userID int64, key string) *InflightHandle {
	k := inflightKey{userID: userID, key: key}
	s := r.shard(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries[k]
}

// Register creates a handle for (user, key). It returns (nil, false) when
// an acquisition for the same pair is already running.
func (r *InflightRegistry) Register(userID int64, key string) (*InflightHandle, bool) {
	k := inflightKey{userID: userID, key: key}
	s := r.shard(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[k]; exists {
		return nil, false
	}
	h := &InflightHandle{registry: r, key: k, done: make(chan struct{})}
	s.entries[k] = h
	return h, true
}

func (r *InflightRegistry) remove(k inflightKey) {
	s := r.shard(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, k)
}

// Size reports the number of running acquisitions, for metrics.
func (r *InflightRegistry) Size() int {
	total := 0
	for _, s := range r.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}
