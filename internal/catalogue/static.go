// internal/catalogue/static.go
package catalogue

import (
	"context"
	"fmt"

	"github.com/r1olo/ase-project/internal/models"
)

// Static is an in-memory catalogue seeded at construction. Used when no
// catalogue service is configured and throughout the test suites.
type Static struct {
	cards map[string]models.CardStats
}

// NewStatic builds a catalogue over a fixed card set.
func NewStatic(cards map[string]models.CardStats) *Static {
	cp := make(map[string]models.CardStats, len(cards))
	for id, stats := range cards {
		cp[id] = stats
	}
	return &Static{cards: cp}
}

// NewStaticDefault seeds the catalogue with the stock region card set.
func NewStaticDefault() *Static {
	return NewStatic(defaultCards)
}

func (s *Static) Lookup(_ context.Context, cardID string) (models.CardStats, error) {
	stats, ok := s.cards[cardID]
	if !ok {
		return models.CardStats{}, fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	return stats, nil
}

func (s *Static) FetchStats(ctx context.Context, cardIDs []string) (models.Deck, error) {
	deck := make(models.Deck, len(cardIDs))
	for _, id := range cardIDs {
		stats, err := s.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		deck[id] = stats
	}
	return deck, nil
}

func (s *Static) ValidateMembership(_ context.Context, cardIDs []string) (bool, error) {
	for _, id := range cardIDs {
		if _, ok := s.cards[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// defaultCards is the stock playing set: one card per Italian region.
// Total is the weighted aggregate the catalogue publishes alongside the
// individual category points.
var defaultCards = map[string]models.CardStats{
	"abruzzo":               {Economy: 8, Food: 12, Environment: 14, Special: 2, Total: 27.5},
	"basilicata":            {Economy: 6, Food: 10, Environment: 13, Special: 1, Total: 23.0},
	"calabria":              {Economy: 7, Food: 13, Environment: 12, Special: 2, Total: 26.0},
	"campania":              {Economy: 11, Food: 15, Environment: 10, Special: 4, Total: 32.5},
	"emilia-romagna":        {Economy: 14, Food: 15, Environment: 9, Special: 3, Total: 34.0},
	"friuli-venezia-giulia": {Economy: 10, Food: 11, Environment: 12, Special: 2, Total: 27.0},
	"lazio":                 {Economy: 13, Food: 12, Environment: 9, Special: 5, Total: 32.0},
	"liguria":               {Economy: 10, Food: 12, Environment: 11, Special: 2, Total: 27.0},
	"lombardia":             {Economy: 15, Food: 11, Environment: 8, Special: 4, Total: 33.5},
	"marche":                {Economy: 9, Food: 11, Environment: 12, Special: 1, Total: 25.5},
	"molise":                {Economy: 5, Food: 9, Environment: 13, Special: 1, Total: 21.0},
	"piemonte":              {Economy: 12, Food: 14, Environment: 10, Special: 3, Total: 31.5},
	"puglia":                {Economy: 9, Food: 14, Environment: 11, Special: 2, Total: 28.0},
	"sardegna":              {Economy: 8, Food: 11, Environment: 15, Special: 3, Total: 29.0},
	"sicilia":               {Economy: 9, Food: 15, Environment: 12, Special: 4, Total: 30.5},
	"toscana":               {Economy: 12, Food: 14, Environment: 12, Special: 4, Total: 33.0},
	"trentino-alto-adige":   {Economy: 11, Food: 10, Environment: 15, Special: 2, Total: 30.0},
	"umbria":                {Economy: 8, Food: 12, Environment: 13, Special: 1, Total: 26.5},
	"valle-d-aosta":         {Economy: 7, Food: 9, Environment: 15, Special: 2, Total: 25.0},
	"veneto":                {Economy: 13, Food: 13, Environment: 11, Special: 3, Total: 31.5},
}
