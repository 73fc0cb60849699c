// Package admission implements the per-user admission controller: rate
// gating, bounded FIFO queueing, inflight deduplication and per-user
// execution locks. All state is in-process and sharded per user so
// unrelated users never contend on a common lock.
package admission

import (
	"sync"
	"time"

	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
)

// Clock abstracts time for deterministic tests.
type Clock func() time.Time

// RateGateConfig holds the tunable rate policy knobs.
type RateGateConfig struct {
	// Window is the sliding window duration.
	Window time.Duration

	// MaxPerWindow is the maximum allowed hits inside one window.
	MaxPerWindow int

	// Cooldown is the minimum interval between two allowed requests.
	Cooldown time.Duration
}

// DefaultRateGateConfig returns the default rate policy.
func DefaultRateGateConfig() RateGateConfig {
	return RateGateConfig{
		Window:       constants.DefaultRateWindow,
		MaxPerWindow: constants.DefaultMaxPerWindow,
		Cooldown:     constants.DefaultCooldown,
	}
}

// rateState is the per-user sliding window history. hits is kept in
// insertion order, which is time order.
type rateState struct {
	lastSeen time.Time
	hits     []time.Time
}

type rateShard struct {
	mu    sync.Mutex
	users map[int64]*rateState
}

// RateGate performs the per-user cooldown and sliding-window check.
// Check is a non-blocking fast path; it mutates state only on allow, so
// denied retries never consume budget.
type RateGate struct {
	config RateGateConfig
	clock  Clock
	shards [constants.AdmissionShardCount]*rateShard
}

// NewRateGate creates a rate gate with the given policy. A nil clock
// defaults to time.Now.
func NewRateGate(config RateGateConfig, clock Clock) *RateGate {
	if clock == nil {
		clock = time.Now
	}
	g := &RateGate{config: config, clock: clock}
	for i := range g.shards {
		g.shards[i] = &rateShard{users: make(map[int64]*rateState)}
	}
	return g
}

func (g *RateGate) shard(userID int64) *rateShard {
	return g.shards[shardIndex(userID)]
}

// Check applies the rate policy for one user. It returns nil on allow and
// a rate_limited error carrying the remaining wait on deny.
func (g *RateGate) Check(userID int64) error {
	now := g.clock()
	s := g.shard(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.users[userID]
	if !ok {
		st = &rateState{}
		s.users[userID] = st
	}

	// Cooldown has priority over the window check.
	if !st.lastSeen.IsZero() {
		if since := now.Sub(st.lastSeen); since < g.config.Cooldown {
			return errors.ErrRateLimited(g.config.Cooldown - since)
		}
	}

	// Lazily prune hits that aged out of the window.
	cutoff := now.Add(-g.config.Window)
	keep := st.hits[:0]
	for _, hit := range st.hits {
		if hit.After(cutoff) {
			keep = append(keep, hit)
		}
	}
	st.hits = keep

	if len(st.hits) >= g.config.MaxPerWindow {
		oldest := st.hits[0]
		retryAfter := g.config.Window - now.Sub(oldest)
		return errors.ErrRateLimited(retryAfter)
	}

	st.hits = append(st.hits, now)
	st.lastSeen = now
	return nil
}

// shardIndex maps a user id onto a shard. User ids are external identities
// with no particular distribution, so mix the bits before folding.
func shardIndex(userID int64) int {
	h := uint64(userID)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return int(h % constants.AdmissionShardCount)
}
