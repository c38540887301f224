// internal/game/views.go
package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/r1olo/ase-project/internal/models"
)

// RoundView is the read-path projection of a round. Moves are only populated
// once the round is resolved: a round holding a single pending move reports
// pending and never reveals which card (or that player's identity) it holds.
// MovesSubmitted exposes only a count.
type RoundView struct {
	ID             uuid.UUID          `json:"id"`
	Index          int                `json:"index"`
	Category       models.Category    `json:"category"`
	Resolved       bool               `json:"resolved"`
	MovesSubmitted int                `json:"moves_submitted"`
	Winner         models.RoundWinner `json:"winner,omitempty"`
	MoveA          string             `json:"move_a,omitempty"`
	MoveB          string             `json:"move_b,omitempty"`
	ResolvedAt     *time.Time         `json:"resolved_at,omitempty"`
}

// MatchSummary is the round-free projection of a match.
type MatchSummary struct {
	ID           uuid.UUID          `json:"id"`
	PlayerA      uuid.UUID          `json:"player_a"`
	PlayerB      uuid.UUID          `json:"player_b"`
	Status       models.MatchStatus `json:"status"`
	ScoreA       int                `json:"score_a"`
	ScoreB       int                `json:"score_b"`
	WinnerID     *uuid.UUID         `json:"winner_id,omitempty"`
	CurrentRound int                `json:"current_round"`
	MaxRounds    int                `json:"max_rounds"`
	DeckASet     bool               `json:"deck_a_set"`
	DeckBSet     bool               `json:"deck_b_set"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// MatchHistory is the full projection: summary plus every round view.
type MatchHistory struct {
	MatchSummary
	Rounds []*RoundView `json:"rounds"`
}

func viewRound(r *models.Round) *RoundView {
	v := &RoundView{
		ID:       r.ID,
		Index:    r.Index,
		Category: r.Category,
		Resolved: r.Resolved,
	}
	if r.MoveA != "" {
		v.MovesSubmitted++
	}
	if r.MoveB != "" {
		v.MovesSubmitted++
	}
	if r.Resolved {
		v.Winner = r.Winner
		v.MoveA = r.MoveA
		v.MoveB = r.MoveB
		t := r.ResolvedAt
		v.ResolvedAt = &t
	}
	return v
}

func summarize(m *models.Match) *MatchSummary {
	return &MatchSummary{
		ID:           m.ID,
		PlayerA:      m.PlayerA,
		PlayerB:      m.PlayerB,
		Status:       m.Status,
		ScoreA:       m.ScoreA,
		ScoreB:       m.ScoreB,
		WinnerID:     m.WinnerID,
		CurrentRound: m.CurrentRound,
		MaxRounds:    m.MaxRounds,
		DeckASet:     m.DeckA != nil,
		DeckBSet:     m.DeckB != nil,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// Summary returns the round-free match projection.
func (e *Engine) Summary(ctx context.Context, matchID uuid.UUID) (*MatchSummary, error) {
	sess, err := e.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return summarize(sess.m), nil
}

// Round returns the projection of a single round, pending moves hidden.
func (e *Engine) Round(ctx context.Context, matchID, roundID uuid.UUID) (*RoundView, error) {
	sess, err := e.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	r := sess.m.RoundByID(roundID)
	if r == nil {
		return nil, ErrUnknownRound
	}
	return viewRound(r), nil
}

// CurrentRound returns the open round's projection, so a client that lost
// track can rediscover the round id to address moves to.
func (e *Engine) CurrentRound(ctx context.Context, matchID uuid.UUID) (*RoundView, error) {
	sess, err := e.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	r := sess.m.OpenRound()
	if r == nil {
		return nil, ErrUnknownRound
	}
	return viewRound(r), nil
}

// History returns the summary plus every round view in index order.
func (e *Engine) History(ctx context.Context, matchID uuid.UUID) (*MatchHistory, error) {
	sess, err := e.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	h := &MatchHistory{MatchSummary: *summarize(sess.m)}
	for _, r := range sess.m.Rounds {
		h.Rounds = append(h.Rounds, viewRound(r))
	}
	return h, nil
}
