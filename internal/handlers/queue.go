// internal/handlers/queue.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/r1olo/ase-project/internal/models"
	"github.com/r1olo/ase-project/internal/queue"
)

type joinQueueResponse struct {
	Token  uuid.UUID          `json:"token"`
	Status models.QueueStatus `json:"status"`
}

// JoinQueueHandler registers the authenticated player as ready and returns
// the polling token immediately: the pairing itself never blocks the call.
func JoinQueueHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := authenticatePlayer(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		token, err := s.Queue.Enqueue(r.Context(), playerID)
		if err != nil {
			if errors.Is(err, queue.ErrAlreadyQueued) {
				writeError(w, err)
				return
			}
			s.Logger.WithError(err).Error("enqueue failed")
			writeError(w, err)
			return
		}

		// Opportunistic pairing so the partner's next poll already sees the
		// match; the background worker covers anything missed here.
		s.PairWaitingPlayers(r.Context())

		writeJSON(w, http.StatusAccepted, joinQueueResponse{Token: token, Status: models.QueueWaiting})
	}
}

// LeaveQueueHandler removes the player's waiting entry. This is the only
// cancellation path before pairing; once paired the player is committed.
func LeaveQueueHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := authenticatePlayer(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		if err := s.Queue.Dequeue(r.Context(), playerID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"msg": "left queue"})
	}
}

// QueueStatusHandler reports WAITING, MATCHED (with the match id) or UNKNOWN.
func QueueStatusHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := authenticatePlayer(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		result, err := s.Queue.Status(r.Context(), playerID)
		if err != nil {
			s.Logger.WithError(err).Error("queue status failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
