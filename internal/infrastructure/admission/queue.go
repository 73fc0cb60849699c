package admission

import (
	"context"
	"sync"

	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
)

// Ticket is one pending admission slot. The holder waits on it until all
// predecessor tickets of the same user are dequeued.
type Ticket struct {
	userID int64
	ready  chan struct{}

	resolveOnce sync.Once
}

func newTicket(userID int64) *Ticket {
	return &Ticket{userID: userID, ready: make(chan struct{})}
}

func (t *Ticket) resolve() {
	t.resolveOnce.Do(func() { close(t.ready) })
}

// Wait suspends the caller until the ticket reaches the queue head or the
// context is done.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type queueShard struct {
	mu    sync.Mutex
	users map[int64][]*Ticket
}

// RequestQueue is the per-user bounded FIFO admission queue. It bounds how
// many requests a user may have pending, not how many execute; execution is
// bounded separately by UserLockSet. Exactly one ticket per user is ever
// resolved but not yet dequeued, which makes this a strict FIFO gate rather
// than a counting semaphore.
type RequestQueue struct {
	capacity int
	shards   [constants.AdmissionShardCount]*queueShard
}

// NewRequestQueue creates a queue with the given per-user capacity.
func NewRequestQueue(capacity int) *RequestQueue {
	if capacity <= 0 {
		capacity = constants.DefaultQueueDepth
	}
	q := &RequestQueue{capacity: capacity}
	for i := range q.shards {
		q.shards[i] = &queueShard{users: make(map[int64][]*Ticket)}
	}
	return q
}

func (q *RequestQueue) shard(userID int64) *queueShard {
	return q.shards[shardIndex(userID)]
}

// EnqueueOrFail reserves an admission slot for the user. It never blocks:
// a full queue fails immediately with queue_overflow. The returned ticket
// is already resolved when it is the sole entry.
func (q *RequestQueue) EnqueueOrFail(userID int64) (*Ticket, error) {
	s := q.shard(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.users[userID]
	if len(pending) >= q.capacity {
		return nil, errors.ErrQueueOverflow(q.capacity)
	}

	t := newTicket(userID)
	s.users[userID] = append(pending, t)
	if len(s.users[userID]) == 1 {
		t.resolve()
	}
	return t, nil
}

// Dequeue removes the head ticket of the user's queue and resolves the new
// head if one remains. Calling it on an empty queue is a no-op.
func (q *RequestQueue) Dequeue(userID int64) {
	s := q.shard(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.users[userID]
	if len(pending) == 0 {
		return
	}
	q.removeLocked(s, userID, pending[0])
}

// Remove takes a specific ticket out of the queue wherever it sits. Needed
// when a waiter abandons its slot on cancellation before reaching the head.
// Removing a ticket twice, or one that was already dequeued, is a no-op.
func (q *RequestQueue) Remove(t *Ticket) {
	if t == nil {
		return
	}
	s := q.shard(t.userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	q.removeLocked(s, t.userID, t)
}

// removeLocked removes t from the user's queue and, if the head changed,
// resolves the new head. Caller holds the shard mutex.
func (q *RequestQueue) removeLocked(s *queueShard, userID int64, t *Ticket) {
	pending := s.users[userID]
	idx := -1
	for i, cur := range pending {
		if cur == t {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	wasHead := idx == 0
	pending = append(pending[:idx], pending[idx+1:]...)
	if len(pending) == 0 {
		delete(s.users, userID)
		return
	}
	s.users[userID] = pending
	if wasHead {
		pending[0].resolve()
	}
}

// PendingCount reports how many tickets the user currently holds.
func (q *RequestQueue) PendingCount(userID int64) int {
	s := q.shard(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users[userID])
}
