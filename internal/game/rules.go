// internal/game/rules.go
package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/r1olo/ase-project/internal/models"
)

// DeckSize is the exact number of unique cards a registered deck must hold.
const DeckSize = 10

// MaxRounds is the default number of rounds a match runs before finalization.
const MaxRounds = 10

// ErrInvalidDeck covers every deck composition violation (size, duplicates,
// unknown cards). Wrapped with the specific cause.
var ErrInvalidDeck = errors.New("invalid deck")

// ValidateDeck checks a submitted card-id collection against size and
// uniqueness rules. Catalogue membership is checked separately by the engine
// because it needs the collaborator; this function stays pure.
func ValidateDeck(cardIDs []string) error {
	if len(cardIDs) == 0 {
		return fmt.Errorf("%w: deck cannot be empty", ErrInvalidDeck)
	}
	if len(cardIDs) != DeckSize {
		return fmt.Errorf("%w: deck must contain exactly %d cards, got %d", ErrInvalidDeck, DeckSize, len(cardIDs))
	}
	seen := make(map[string]struct{}, len(cardIDs))
	for _, id := range cardIDs {
		if id == "" {
			return fmt.Errorf("%w: empty card id", ErrInvalidDeck)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate card %s", ErrInvalidDeck, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ResolveRound computes the winner of a single category comparison.
// The higher value takes the round; an exact tie is a draw and awards nothing.
// Returns the winning side plus the score deltas for A and B.
func ResolveRound(statsA, statsB models.CardStats, category models.Category) (models.RoundWinner, int, int) {
	a := statsA.Value(category)
	b := statsB.Value(category)
	switch {
	case a > b:
		return models.RoundWinnerA, 1, 0
	case b > a:
		return models.RoundWinnerB, 0, 1
	default:
		return models.RoundWinnerDraw, 0, 0
	}
}

// MatchWinnerID returns the id of the player with the strictly higher
// cumulative score, or nil on an exact tie.
func MatchWinnerID(m *models.Match) *uuid.UUID {
	switch {
	case m.ScoreA > m.ScoreB:
		w := m.PlayerA
		return &w
	case m.ScoreB > m.ScoreA:
		w := m.PlayerB
		return &w
	default:
		return nil
	}
}
