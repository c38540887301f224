// internal/queue/queue.go
package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/r1olo/ase-project/internal/models"
)

var (
	// ErrAlreadyQueued is returned when a player with a live entry enqueues again.
	ErrAlreadyQueued = errors.New("player already queued")

	// ErrNotQueued is returned when dequeuing a player with no live entry.
	ErrNotQueued = errors.New("player not queued")
)

// Coordinator turns an unordered stream of ready signals into fair,
// FIFO-ordered pairs. Pairing always removes the two oldest entries in a
// single atomic step; no concurrent operation may claim either entry between
// the check and the removal.
type Coordinator interface {
	// Enqueue registers a waiting player and returns an opaque token the
	// client uses to poll. Never blocks waiting for a pairing.
	Enqueue(ctx context.Context, playerID uuid.UUID) (uuid.UUID, error)

	// Dequeue removes the player's entry if still waiting. This is the only
	// cancellation path before pairing.
	Dequeue(ctx context.Context, playerID uuid.UUID) error

	// TryPair atomically pops the two oldest entries, first-arrived first.
	// ok is false when fewer than two players are waiting.
	TryPair(ctx context.Context) (a, b uuid.UUID, ok bool, err error)

	// Status reports WAITING, MATCHED (with the match id) or UNKNOWN.
	Status(ctx context.Context, playerID uuid.UUID) (models.QueueStatusResult, error)

	// RecordMatched stores the match id against both players so either
	// client's next poll observes the formed match.
	RecordMatched(ctx context.Context, a, b, matchID uuid.UUID) error
}
