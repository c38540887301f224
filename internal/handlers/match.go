// internal/handlers/match.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

type createMatchRequest struct {
	PlayerA uuid.UUID `json:"player_a"`
	PlayerB uuid.UUID `json:"player_b"`
}

// CreateMatchHandler creates a match directly from two player ids. The
// pairing step calls the engine in-process; this endpoint exists for
// operators and service-to-service callers.
func CreateMatchHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		m, err := s.Engine.CreateMatch(r.Context(), req.PlayerA, req.PlayerB)
		if err != nil {
			writeError(w, err)
			return
		}
		summary, err := s.Engine.Summary(r.Context(), m.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, summary)
	}
}

type submitDeckRequest struct {
	Cards []string `json:"cards"`
}

// SubmitDeckHandler registers the authenticated player's deck for a match.
func SubmitDeckHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := authenticatePlayer(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		matchID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid match id", http.StatusBadRequest)
			return
		}

		var req submitDeckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		summary, err := s.Engine.SubmitDeck(r.Context(), matchID, playerID, req.Cards)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

type submitMoveRequest struct {
	CardID string `json:"card_id"`
}

// SubmitMoveHandler records the player's card for the addressed round. Moves
// are round-scoped: the client addresses the round id it is answering, so a
// stale submission against a sealed round conflicts instead of landing on
// the wrong round.
func SubmitMoveHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := authenticatePlayer(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		matchID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid match id", http.StatusBadRequest)
			return
		}
		roundID, err := uuid.Parse(r.PathValue("round_id"))
		if err != nil {
			http.Error(w, "invalid round id", http.StatusBadRequest)
			return
		}

		var req submitMoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		outcome, err := s.Engine.SubmitMove(r.Context(), matchID, roundID, playerID, req.CardID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	}
}

// GetMatchHandler returns the round-free match summary.
func GetMatchHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticatePlayer(r); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		matchID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid match id", http.StatusBadRequest)
			return
		}

		summary, err := s.Engine.Summary(r.Context(), matchID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// GetRoundHandler returns one round's projection. A round holding a single
// pending move reports pending only; the lone card is never exposed.
func GetRoundHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticatePlayer(r); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		matchID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid match id", http.StatusBadRequest)
			return
		}
		roundID, err := uuid.Parse(r.PathValue("round_id"))
		if err != nil {
			http.Error(w, "invalid round id", http.StatusBadRequest)
			return
		}

		view, err := s.Engine.Round(r.Context(), matchID, roundID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GetCurrentRoundHandler returns the open round so a client can rediscover
// the round id to address its move to.
func GetCurrentRoundHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticatePlayer(r); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		matchID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid match id", http.StatusBadRequest)
			return
		}

		view, err := s.Engine.CurrentRound(r.Context(), matchID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GetHistoryHandler returns the match summary plus every round view.
func GetHistoryHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticatePlayer(r); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		matchID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid match id", http.StatusBadRequest)
			return
		}

		history, err := s.Engine.History(r.Context(), matchID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}

// PlayerHistoryHandler returns the authenticated player's durable match
// history from Postgres.
func PlayerHistoryHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := authenticatePlayer(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		if s.Store == nil {
			http.Error(w, "history not available", http.StatusServiceUnavailable)
			return
		}

		limit, offset := pagination(r, 20, 100)
		history, err := s.Store.PlayerHistory(r.Context(), playerID, limit, offset)
		if err != nil {
			s.Logger.WithError(err).Error("player history query failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"player_id": playerID,
			"matches":   history,
			"limit":     limit,
			"offset":    offset,
		})
	}
}

// LeaderboardHandler ranks players by finished-match wins.
func LeaderboardHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticatePlayer(r); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		if s.Store == nil {
			http.Error(w, "leaderboard not available", http.StatusServiceUnavailable)
			return
		}

		limit, offset := pagination(r, 100, 500)
		entries, err := s.Store.Leaderboard(r.Context(), limit, offset)
		if err != nil {
			s.Logger.WithError(err).Error("leaderboard query failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"leaderboard": entries,
			"limit":       limit,
			"offset":      offset,
		})
	}
}

// HealthHandler is the liveness probe.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func pagination(r *http.Request, defLimit, maxLimit int) (int, int) {
	limit := defLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
