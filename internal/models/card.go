// internal/models/card.go
package models

// Category is one of the fixed comparable numeric attributes on a card.
type Category string

const (
	CategoryEconomy     Category = "economy"
	CategoryFood        Category = "food"
	CategoryEnvironment Category = "environment"
	CategorySpecial     Category = "special"
	CategoryTotal       Category = "total"
)

// Categories lists every playable category. Round categories are drawn from this set.
var Categories = []Category{
	CategoryEconomy,
	CategoryFood,
	CategoryEnvironment,
	CategorySpecial,
	CategoryTotal,
}

// CardStats holds the per-category scores of a single catalogue card.
// Catalogue entries are immutable once published, so stats are cached
// freely on the match at deck-submission time.
type CardStats struct {
	Economy     float64 `json:"economy"`
	Food        float64 `json:"food"`
	Environment float64 `json:"environment"`
	Special     float64 `json:"special"`
	Total       float64 `json:"total"`
}

// Value returns the stat for the given category. Unknown categories return 0;
// callers validate the category before comparing.
func (s CardStats) Value(c Category) float64 {
	switch c {
	case CategoryEconomy:
		return s.Economy
	case CategoryFood:
		return s.Food
	case CategoryEnvironment:
		return s.Environment
	case CategorySpecial:
		return s.Special
	case CategoryTotal:
		return s.Total
	}
	return 0
}

// Deck is a player's registered set of cards with their cached stat snapshot,
// keyed by card id. Exactly DeckSize unique cards once registered.
type Deck map[string]CardStats

// Contains reports whether the card id belongs to the deck.
func (d Deck) Contains(cardID string) bool {
	_, ok := d[cardID]
	return ok
}
