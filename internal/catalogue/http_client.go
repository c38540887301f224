// internal/catalogue/http_client.go
package catalogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/r1olo/ase-project/internal/models"
)

// HTTPClient talks to the catalogue microservice over its REST surface
// (GET /cards/{id}). Responses are cached for the life of the process since
// the catalogue asserts published cards never change.
type HTTPClient struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	cache map[string]models.CardStats
}

// NewHTTPClient builds a catalogue client for the given base URL,
// e.g. "http://catalogue:5002".
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		cache:   make(map[string]models.CardStats),
	}
}

// cardPayload mirrors the catalogue service's card JSON.
type cardPayload struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Economy     float64     `json:"economy"`
	Food        float64     `json:"food"`
	Environment float64     `json:"environment"`
	Special     float64     `json:"special"`
	Total       float64     `json:"total"`
}

// Lookup fetches a single card's stats, consulting the local cache first.
func (c *HTTPClient) Lookup(ctx context.Context, cardID string) (models.CardStats, error) {
	c.mu.RLock()
	if stats, ok := c.cache[cardID]; ok {
		c.mu.RUnlock()
		return stats, nil
	}
	c.mu.RUnlock()

	u := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(cardID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.CardStats{}, fmt.Errorf("build catalogue request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return models.CardStats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return models.CardStats{}, fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	default:
		return models.CardStats{}, fmt.Errorf("%w: catalogue returned %d", ErrUnavailable, resp.StatusCode)
	}

	var payload cardPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.CardStats{}, fmt.Errorf("decode catalogue response: %w", err)
	}
	stats := models.CardStats{
		Economy:     payload.Economy,
		Food:        payload.Food,
		Environment: payload.Environment,
		Special:     payload.Special,
		Total:       payload.Total,
	}

	c.mu.Lock()
	c.cache[cardID] = stats
	c.mu.Unlock()
	return stats, nil
}

// FetchStats resolves every id, failing fast on the first unknown card or
// collaborator error so no partial deck is ever committed.
func (c *HTTPClient) FetchStats(ctx context.Context, cardIDs []string) (models.Deck, error) {
	deck := make(models.Deck, len(cardIDs))
	for _, id := range cardIDs {
		stats, err := c.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		deck[id] = stats
	}
	return deck, nil
}

// ValidateMembership reports whether every id resolves to a published card.
func (c *HTTPClient) ValidateMembership(ctx context.Context, cardIDs []string) (bool, error) {
	for _, id := range cardIDs {
		if _, err := c.Lookup(ctx, id); err != nil {
			if errors.Is(err, ErrUnknownCard) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}
