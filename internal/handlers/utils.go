// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/r1olo/ase-project/internal/auth"
	"github.com/r1olo/ase-project/internal/catalogue"
	"github.com/r1olo/ase-project/internal/game"
	"github.com/r1olo/ase-project/internal/queue"
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// authenticatePlayer verifies the bearer credential (auth_token cookie or
// Authorization header) and returns the verified player id. The token issuer
// is trusted completely; this service never re-derives the identity.
func authenticatePlayer(r *http.Request) (uuid.UUID, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		return uuid.Nil, errors.New("missing auth token")
	}

	playerIDStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(playerIDStr)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Msg string `json:"msg"`
}

// writeError maps the engine and queue error taxonomy onto HTTP statuses:
// validation => 400, stale-state conflicts => 409, not-found => 404,
// collaborator failures => 503.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, game.ErrInvalidPlayers),
		errors.Is(err, game.ErrInvalidDeck),
		errors.Is(err, game.ErrCardNotInDeck):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrDeckAlreadySet),
		errors.Is(err, game.ErrMatchNotInSetup),
		errors.Is(err, game.ErrMatchNotInProgress),
		errors.Is(err, game.ErrMatchFinished),
		errors.Is(err, game.ErrRoundResolved),
		errors.Is(err, game.ErrDuplicateMove),
		errors.Is(err, game.ErrCardAlreadyPlayed),
		errors.Is(err, queue.ErrAlreadyQueued),
		errors.Is(err, queue.ErrNotQueued):
		status = http.StatusConflict
	case errors.Is(err, game.ErrUnknownMatch),
		errors.Is(err, game.ErrUnknownRound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrNotAParticipant):
		status = http.StatusForbidden
	case errors.Is(err, catalogue.ErrUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Msg: err.Error()})
}
