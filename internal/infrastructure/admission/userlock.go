package admission

import (
	"context"
	"sync"

	"github.com/clipgate/clipgate/pkg/constants"
)

type lockShard struct {
	mu    sync.Mutex
	users map[int64]chan struct{}
}

// UserLockSet provides the per-user exclusive execution gate around the
// admit→acquire→deliver→cache sequence. It is stricter than the queue: the
// queue bounds how many requests are pending, the lock bounds concurrent
// execution to one per user.
type UserLockSet struct {
	shards [constants.AdmissionShardCount]*lockShard
}

// NewUserLockSet creates an empty lock set.
func NewUserLockSet() *UserLockSet {
	l := &UserLockSet{}
	for i := range l.shards {
		l.shards[i] = &lockShard{users: make(map[int64]chan struct{})}
	}
	return l
}

func (l *UserLockSet) sem(userID int64) chan struct{} {
	s := l.shards[shardIndex(userID)]

	s.mu.Lock()
	defer s.mu.Unlock()

	sem, ok := s.users[userID]
	if !ok {
		sem = make(chan struct{}, 1)
		s.users[userID] = sem
	}
	return sem
}

// Acquire takes the user's exclusive lock, suspending until the previous
// holder releases or the context is done. The returned release function is
// safe to call more than once.
func (l *UserLockSet) Acquire(ctx context.Context, userID int64) (func(), error) {
	sem := l.sem(userID)

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() { <-sem })
	}
	return release, nil
}

// TryAcquire takes the lock without blocking, reporting success.
func (l *UserLockSet) TryAcquire(userID int64) (func(), bool) {
	sem := l.sem(userID)

	select {
	case sem <- struct{}{}:
	default:
		return nil, false
	}

	var once sync.Once
	release := func() {
		once.Do(func() { <-sem })
	}
	return release, true
}
