// internal/models/queue.go
package models

import "github.com/google/uuid"

// QueueStatus is the answer to a waiting player's status poll.
type QueueStatus string

const (
	QueueWaiting QueueStatus = "WAITING"
	QueueMatched QueueStatus = "MATCHED"
	QueueUnknown QueueStatus = "UNKNOWN"
)

// WaitingEntry is one player's live position in the pairing queue.
// Seq is a monotonically increasing arrival number, not wall-clock time,
// so two entries never tie under clock skew.
type WaitingEntry struct {
	PlayerID uuid.UUID `json:"player_id"`
	Seq      int64     `json:"seq"`
	Token    uuid.UUID `json:"token"`
}

// QueueStatusResult pairs a status with the match id once MATCHED.
type QueueStatusResult struct {
	Status  QueueStatus `json:"status"`
	MatchID uuid.UUID   `json:"match_id,omitempty"`
}
