// internal/handlers/api_server.go
package handlers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/r1olo/ase-project/internal/database"
	"github.com/r1olo/ase-project/internal/events"
	"github.com/r1olo/ase-project/internal/game"
	"github.com/r1olo/ase-project/internal/queue"
)

// Server bundles the queue coordinator and the match engine with their
// optional collaborators, and owns the pairing step that bridges the two.
type Server struct {
	Queue  queue.Coordinator
	Engine *game.Engine
	Store  *database.Store   // nil when running without Postgres
	Events *events.Publisher // nil when no broker is configured
	Logger *log.Logger
}

// NewServer wires a Server. store and publisher may be nil.
func NewServer(q queue.Coordinator, engine *game.Engine, store *database.Store, publisher *events.Publisher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New()
	}
	return &Server{
		Queue:  q,
		Engine: engine,
		Store:  store,
		Events: publisher,
		Logger: logger,
	}
}

// PairWaitingPlayers drains the queue two at a time, creating a match per
// pair and recording the match id for both players' polls. Invoked inline
// after each enqueue and periodically by the background worker, so a pair
// left behind by a crashed request still forms. Concurrent invocations are
// safe: TryPair is atomic, so no entry is ever claimed twice.
//
// Between the pair claim and RecordMatched a claimed player's poll briefly
// reads UNKNOWN; the event publish happens only after the record is written
// so a notified consumer never observes the gap. A player who re-enqueues
// inside that window polls WAITING for the new session (the waiting set
// takes precedence over a matched record), and the stale record is cleared
// by their next enqueue.
func (s *Server) PairWaitingPlayers(ctx context.Context) {
	for {
		a, b, ok, err := s.Queue.TryPair(ctx)
		if err != nil {
			s.Logger.WithError(err).Error("pairing attempt failed")
			return
		}
		if !ok {
			return
		}

		m, err := s.Engine.CreateMatch(ctx, a, b)
		if err != nil {
			// Put both players back rather than dropping them. They rejoin
			// at the tail, which beats being silently lost.
			s.Logger.WithError(err).WithFields(log.Fields{
				"player_a": a,
				"player_b": b,
			}).Error("match creation failed, re-enqueueing pair")
			if _, reErr := s.Queue.Enqueue(ctx, a); reErr != nil {
				s.Logger.WithError(reErr).Error("failed to re-enqueue player")
			}
			if _, reErr := s.Queue.Enqueue(ctx, b); reErr != nil {
				s.Logger.WithError(reErr).Error("failed to re-enqueue player")
			}
			return
		}

		if err := s.Queue.RecordMatched(ctx, a, b, m.ID); err != nil {
			s.Logger.WithError(err).WithField("match_id", m.ID).Error("failed to record matched players")
		}

		if s.Events != nil {
			ev := events.MatchFound{
				MatchID:   m.ID,
				PlayerA:   a,
				PlayerB:   b,
				CreatedAt: time.Now().Unix(),
			}
			if err := s.Events.PublishMatchFound(ev); err != nil {
				s.Logger.WithError(err).Warn("failed to publish match-found event")
			}
		}
	}
}
