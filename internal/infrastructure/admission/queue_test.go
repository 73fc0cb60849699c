package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
)

func ticketReady(t *Ticket) bool {
	select {
	case <-t.ready:
		return true
	default:
		return false
	}
}

func TestQueueSoleEntryIsImmediatelyReady(t *testing.T) {
	q := NewRequestQueue(2)

	ticket, err := q.EnqueueOrFail(1)
	require.NoError(t, err)
	assert.True(t, ticketReady(ticket))
	assert.Equal(t, 1, q.PendingCount(1))
}

func TestQueueSecondEntryWaits(t *testing.T) {
	q := NewRequestQueue(2)

	first, err := q.EnqueueOrFail(1)
	require.NoError(t, err)
	second, err := q.EnqueueOrFail(1)
	require.NoError(t, err)

	assert.True(t, ticketReady(first))
	assert.False(t, ticketReady(second))
}

func TestQueueOverflowFailsImmediately(t *testing.T) {
	q := NewRequestQueue(2)

	_, err := q.EnqueueOrFail(1)
	require.NoError(t, err)
	_, err = q.EnqueueOrFail(1)
	require.NoError(t, err)

	_, err = q.EnqueueOrFail(1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeQueueOverflow))
}

func TestQueueDequeueResolvesNextHead(t *testing.T) {
	q := NewRequestQueue(2)

	first, _ := q.EnqueueOrFail(1)
	second, _ := q.EnqueueOrFail(1)
	require.True(t, ticketReady(first))
	require.False(t, ticketReady(second))

	q.Dequeue(1)
	assert.True(t, ticketReady(second))
	assert.Equal(t, 1, q.PendingCount(1))
}

func TestQueueRemoveNonHeadLeavesHeadAlone(t *testing.T) {
	q := NewRequestQueue(2)

	first, _ := q.EnqueueOrFail(1)
	second, _ := q.EnqueueOrFail(1)

	q.Remove(second)
	assert.True(t, ticketReady(first))
	assert.Equal(t, 1, q.PendingCount(1))

	// The freed slot is usable again.
	third, err := q.EnqueueOrFail(1)
	require.NoError(t, err)
	assert.False(t, ticketReady(third))
}

func TestQueueRemoveHeadResolvesSuccessor(t *testing.T) {
	q := NewRequestQueue(2)

	first, _ := q.EnqueueOrFail(1)
	second, _ := q.EnqueueOrFail(1)

	q.Remove(first)
	assert.True(t, ticketReady(second))
}

func TestQueueRemoveIsIdempotent(t *testing.T) {
	q := NewRequestQueue(2)

	ticket, _ := q.EnqueueOrFail(1)
	q.Remove(ticket)
	q.Remove(ticket)
	q.Remove(nil)

	assert.Equal(t, 0, q.PendingCount(1))
}

func TestQueueUsersAreIndependent(t *testing.T) {
	q := NewRequestQueue(1)

	_, err := q.EnqueueOrFail(1)
	require.NoError(t, err)

	ticket, err := q.EnqueueOrFail(2)
	require.NoError(t, err)
	assert.True(t, ticketReady(ticket))
}

func TestTicketWaitHonorsContext(t *testing.T) {
	q := NewRequestQueue(2)

	_, err := q.EnqueueOrFail(1)
	require.NoError(t, err)
	second, err := q.EnqueueOrFail(1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = second.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
