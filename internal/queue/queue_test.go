// internal/queue/queue_test.go
package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r1olo/ase-project/internal/models"
)

func TestEnqueueDuplicate(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()
	p := uuid.New()

	_, err := q.Enqueue(ctx, p)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, p)
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestPairingIsFIFO(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	for _, p := range []uuid.UUID{p1, p2, p3} {
		_, err := q.Enqueue(ctx, p)
		require.NoError(t, err)
	}

	a, b, ok, err := q.TryPair(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p1, a)
	assert.Equal(t, p2, b)

	// One waiter left: no pair.
	_, _, ok, err = q.TryPair(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	status, err := q.Status(ctx, p3)
	require.NoError(t, err)
	assert.Equal(t, models.QueueWaiting, status.Status)
}

func TestDequeue(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	for _, p := range []uuid.UUID{p1, p2, p3} {
		_, err := q.Enqueue(ctx, p)
		require.NoError(t, err)
	}

	require.NoError(t, q.Dequeue(ctx, p1))
	assert.ErrorIs(t, q.Dequeue(ctx, p1), ErrNotQueued)
	assert.ErrorIs(t, q.Dequeue(ctx, uuid.New()), ErrNotQueued)

	// The departed player must never be paired.
	a, b, ok, err := q.TryPair(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p2, a)
	assert.Equal(t, p3, b)
}

func TestStatusLifecycle(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	p1, p2 := uuid.New(), uuid.New()
	stranger := uuid.New()

	status, err := q.Status(ctx, stranger)
	require.NoError(t, err)
	assert.Equal(t, models.QueueUnknown, status.Status)

	_, err = q.Enqueue(ctx, p1)
	require.NoError(t, err)
	status, err = q.Status(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, models.QueueWaiting, status.Status)

	_, err = q.Enqueue(ctx, p2)
	require.NoError(t, err)
	a, b, ok, err := q.TryPair(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	matchID := uuid.New()
	require.NoError(t, q.RecordMatched(ctx, a, b, matchID))

	for _, p := range []uuid.UUID{p1, p2} {
		status, err = q.Status(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, models.QueueMatched, status.Status)
		assert.Equal(t, matchID, status.MatchID)
	}
}

func TestRequeueAfterMatchClearsRecord(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	p1, p2 := uuid.New(), uuid.New()
	_, err := q.Enqueue(ctx, p1)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, p2)
	require.NoError(t, err)

	a, b, ok, err := q.TryPair(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, q.RecordMatched(ctx, a, b, uuid.New()))

	// Joining again supersedes the stale matched record.
	_, err = q.Enqueue(ctx, p1)
	require.NoError(t, err)
	status, err := q.Status(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, models.QueueWaiting, status.Status)
	assert.Equal(t, uuid.Nil, status.MatchID)
}

func TestEnqueueIssuesDistinctTokens(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	p1, p2 := uuid.New(), uuid.New()
	t1, err := q.Enqueue(ctx, p1)
	require.NoError(t, err)
	t2, err := q.Enqueue(ctx, p2)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, t1)
	assert.NotEqual(t, uuid.Nil, t2)
	assert.NotEqual(t, t1, t2)
}

func TestWaitingTakesPrecedenceOverStaleMatched(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	p1, p2 := uuid.New(), uuid.New()
	_, err := q.Enqueue(ctx, p1)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, p2)
	require.NoError(t, err)

	a, b, ok, err := q.TryPair(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// p1 re-enqueues before the pairing step records the match. The late
	// record must not mask the new waiting session.
	_, err = q.Enqueue(ctx, p1)
	require.NoError(t, err)
	require.NoError(t, q.RecordMatched(ctx, a, b, uuid.New()))

	status, err := q.Status(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, models.QueueWaiting, status.Status)

	status, err = q.Status(ctx, p2)
	require.NoError(t, err)
	assert.Equal(t, models.QueueMatched, status.Status)
}

func TestPairsAreConsecutiveArrivals(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	const n = 20
	players := make([]uuid.UUID, n)
	arrival := make(map[uuid.UUID]int, n)
	for i := range players {
		players[i] = uuid.New()
		arrival[players[i]] = i
		_, err := q.Enqueue(ctx, players[i])
		require.NoError(t, err)
	}

	for k := 0; k < n/2; k++ {
		a, b, ok, err := q.TryPair(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 2*k, arrival[a])
		assert.Equal(t, 2*k+1, arrival[b])
	}
}

func TestConcurrentPairingIsExclusive(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	const n = 64
	ids := make(map[uuid.UUID]bool, n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := uuid.New()
			_, err := q.Enqueue(ctx, p)
			assert.NoError(t, err)
			mu.Lock()
			ids[p] = false
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Several pairers race over the same queue; every player must land in
	// exactly one pair.
	type pair struct{ a, b uuid.UUID }
	pairs := make(chan pair, n/2)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				a, b, ok, err := q.TryPair(ctx)
				assert.NoError(t, err)
				if !ok {
					return
				}
				pairs <- pair{a, b}
			}
		}()
	}
	wg.Wait()
	close(pairs)

	seen := 0
	for p := range pairs {
		for _, id := range []uuid.UUID{p.a, p.b} {
			taken, known := ids[id]
			require.True(t, known, "pair contains a player that never enqueued")
			require.False(t, taken, "player paired twice")
			ids[id] = true
			seen++
		}
	}
	assert.Equal(t, n, seen)
}
