// internal/catalogue/catalogue.go
package catalogue

import (
	"context"
	"errors"

	"github.com/r1olo/ase-project/internal/models"
)

// ErrUnknownCard is returned when a card id has no catalogue entry.
var ErrUnknownCard = errors.New("unknown card")

// ErrUnavailable is returned when the catalogue collaborator cannot be
// reached. Callers fail the triggering request; stats are never fabricated.
var ErrUnavailable = errors.New("catalogue unavailable")

// Catalogue is the card-statistics collaborator. Entries are immutable once
// published, so lookups may be cached without invalidation concerns.
type Catalogue interface {
	// Lookup returns the stats of a single card or ErrUnknownCard.
	Lookup(ctx context.Context, cardID string) (models.CardStats, error)

	// FetchStats resolves every card id to its stats in one call, failing
	// with ErrUnknownCard if any id has no entry.
	FetchStats(ctx context.Context, cardIDs []string) (models.Deck, error)

	// ValidateMembership reports whether every id is a published card.
	ValidateMembership(ctx context.Context, cardIDs []string) (bool, error)
}
