// internal/models/match.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus is the lifecycle state of a match. Transitions are monotonic:
// SETUP -> IN_PROGRESS -> FINISHED, never backwards.
type MatchStatus string

const (
	MatchSetup      MatchStatus = "SETUP"
	MatchInProgress MatchStatus = "IN_PROGRESS"
	MatchFinished   MatchStatus = "FINISHED"
)

// RoundWinner identifies which side took a resolved round.
type RoundWinner string

const (
	RoundWinnerA    RoundWinner = "A"
	RoundWinnerB    RoundWinner = "B"
	RoundWinnerDraw RoundWinner = "DRAW"
)

// Round is one simultaneous-reveal comparison of a single category.
// MoveA/MoveB hold card ids and stay empty until the respective player moves.
// Once Resolved is set the round is sealed and never mutated again.
type Round struct {
	ID         uuid.UUID   `json:"id"`
	MatchID    uuid.UUID   `json:"match_id"`
	Index      int         `json:"index"` // 1-based
	Category   Category    `json:"category"`
	MoveA      string      `json:"-"`
	MoveB      string      `json:"-"`
	Winner     RoundWinner `json:"winner,omitempty"`
	Resolved   bool        `json:"resolved"`
	ResolvedAt time.Time   `json:"resolved_at,omitempty"`
}

// Match holds the full state of one head-to-head session.
// Mutated only by the session engine while holding the match-scoped lock.
type Match struct {
	ID       uuid.UUID   `json:"id"`
	PlayerA  uuid.UUID   `json:"player_a"`
	PlayerB  uuid.UUID   `json:"player_b"`
	Status   MatchStatus `json:"status"`
	DeckA    Deck        `json:"-"`
	DeckB    Deck        `json:"-"`
	ScoreA   int         `json:"score_a"`
	ScoreB   int         `json:"score_b"`
	WinnerID *uuid.UUID  `json:"winner_id,omitempty"` // nil while unfinished and on a draw

	// CurrentRound is the 1-based index of the open round while IN_PROGRESS.
	CurrentRound int       `json:"current_round"`
	MaxRounds    int       `json:"max_rounds"`
	Rounds       []*Round  `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsParticipant reports whether the player belongs to this match.
func (m *Match) IsParticipant(playerID uuid.UUID) bool {
	return playerID == m.PlayerA || playerID == m.PlayerB
}

// DeckOf returns the registered deck of the given participant, or nil if the
// player has not registered one yet.
func (m *Match) DeckOf(playerID uuid.UUID) Deck {
	if playerID == m.PlayerA {
		return m.DeckA
	}
	if playerID == m.PlayerB {
		return m.DeckB
	}
	return nil
}

// RoundByID returns the round with the given id, or nil.
func (m *Match) RoundByID(roundID uuid.UUID) *Round {
	for _, r := range m.Rounds {
		if r.ID == roundID {
			return r
		}
	}
	return nil
}

// OpenRound returns the current unresolved round, or nil if none is open.
func (m *Match) OpenRound() *Round {
	if len(m.Rounds) == 0 {
		return nil
	}
	last := m.Rounds[len(m.Rounds)-1]
	if last.Resolved {
		return nil
	}
	return last
}
