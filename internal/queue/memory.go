// internal/queue/memory.go
package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/r1olo/ase-project/internal/models"
)

// Memory is the in-process Coordinator. A single mutex serializes every
// operation, so the pop-two in TryPair is trivially atomic. Entries are lost
// on restart, which degrades to players re-enqueuing.
type Memory struct {
	mu      sync.Mutex
	seq     int64
	waiting []*models.WaitingEntry
	byID    map[uuid.UUID]*models.WaitingEntry
	matched map[uuid.UUID]uuid.UUID // player id -> match id
}

// NewMemory returns an empty in-memory coordinator.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[uuid.UUID]*models.WaitingEntry),
		matched: make(map[uuid.UUID]uuid.UUID),
	}
}

func (q *Memory) Enqueue(_ context.Context, playerID uuid.UUID) (uuid.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, live := q.byID[playerID]; live {
		return uuid.Nil, ErrAlreadyQueued
	}

	q.seq++
	entry := &models.WaitingEntry{
		PlayerID: playerID,
		Seq:      q.seq,
		Token:    uuid.New(),
	}
	q.waiting = append(q.waiting, entry)
	q.byID[playerID] = entry
	// A fresh enqueue supersedes any stale MATCHED record from a prior game.
	delete(q.matched, playerID)
	return entry.Token, nil
}

func (q *Memory) Dequeue(_ context.Context, playerID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, live := q.byID[playerID]
	if !live {
		return ErrNotQueued
	}
	delete(q.byID, playerID)
	for i, e := range q.waiting {
		if e == entry {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			break
		}
	}
	return nil
}

func (q *Memory) TryPair(_ context.Context) (uuid.UUID, uuid.UUID, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiting) < 2 {
		return uuid.Nil, uuid.Nil, false, nil
	}
	first, second := q.waiting[0], q.waiting[1]
	q.waiting = q.waiting[2:]
	delete(q.byID, first.PlayerID)
	delete(q.byID, second.PlayerID)
	return first.PlayerID, second.PlayerID, true, nil
}

func (q *Memory) Status(_ context.Context, playerID uuid.UUID) (models.QueueStatusResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, live := q.byID[playerID]; live {
		return models.QueueStatusResult{Status: models.QueueWaiting}, nil
	}
	if matchID, ok := q.matched[playerID]; ok {
		return models.QueueStatusResult{Status: models.QueueMatched, MatchID: matchID}, nil
	}
	return models.QueueStatusResult{Status: models.QueueUnknown}, nil
}

func (q *Memory) RecordMatched(_ context.Context, a, b, matchID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.matched[a] = matchID
	q.matched[b] = matchID
	return nil
}
