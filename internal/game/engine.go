// internal/game/engine.go
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/r1olo/ase-project/internal/catalogue"
	"github.com/r1olo/ase-project/internal/models"
)

var (
	ErrInvalidPlayers     = errors.New("invalid players")
	ErrUnknownMatch       = errors.New("unknown match")
	ErrNotAParticipant    = errors.New("player is not part of this match")
	ErrDeckAlreadySet     = errors.New("deck already registered")
	ErrMatchNotInSetup    = errors.New("decks can only be registered during setup")
	ErrMatchNotInProgress = errors.New("match is not in progress")
	ErrMatchFinished      = errors.New("match already finished")
	ErrUnknownRound       = errors.New("unknown round")
	ErrRoundResolved      = errors.New("round already resolved")
	ErrDuplicateMove      = errors.New("player already moved this round")
	ErrCardNotInDeck      = errors.New("card is not in the player's deck")
	ErrCardAlreadyPlayed  = errors.New("card has already been played this match")
)

// Persister is the durable backing for match and round state. Upserts carry
// the full record so a failed write is healed by the next one. May be nil,
// in which case matches live only in memory.
type Persister interface {
	UpsertMatch(ctx context.Context, m *models.Match) error
	UpsertRound(ctx context.Context, r *models.Round) error

	// LoadMatch rehydrates a match (with rounds) after a restart.
	// Returns ErrUnknownMatch when no row exists.
	LoadMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
}

// MoveStatus is the immediate answer to a move submission.
type MoveStatus string

const (
	MoveWaitingForOpponent MoveStatus = "WAITING_FOR_OPPONENT"
	MoveRoundProcessed     MoveStatus = "ROUND_PROCESSED"
)

// MoveOutcome is returned from SubmitMove. For a first mover only Status and
// the pending round view are populated; the resolving (second) move carries
// the sealed round, updated scores, and the next round or final result.
type MoveOutcome struct {
	Status      MoveStatus         `json:"status"`
	Round       *RoundView         `json:"round"`
	ScoreA      int                `json:"score_a"`
	ScoreB      int                `json:"score_b"`
	MatchStatus models.MatchStatus `json:"match_status"`
	NextRound   *RoundView         `json:"next_round,omitempty"`
	WinnerID    *uuid.UUID         `json:"winner_id,omitempty"`
}

// Engine owns the match lifecycle: creation, deck registration, the round
// loop, and finalization. Every mutating operation serializes on the
// match-scoped lock; matches are fully independent of each other.
type Engine struct {
	store     *MatchStore
	catalogue catalogue.Catalogue
	db        Persister
	log       *logrus.Logger
	maxRounds int
}

// NewEngine wires the engine with its collaborators. persister may be nil.
func NewEngine(cat catalogue.Catalogue, persister Persister, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		store:     NewMatchStore(),
		catalogue: cat,
		db:        persister,
		log:       logger,
		maxRounds: MaxRounds,
	}
}

// SetMaxRounds overrides the round count, mainly for tests and house configs.
func (e *Engine) SetMaxRounds(n int) {
	if n > 0 {
		e.maxRounds = n
	}
}

// CreateMatch produces a new SETUP match for the two paired players, with the
// round-1 category already drawn.
func (e *Engine) CreateMatch(ctx context.Context, playerA, playerB uuid.UUID) (*models.Match, error) {
	if playerA == uuid.Nil || playerB == uuid.Nil {
		return nil, fmt.Errorf("%w: player ids must be set", ErrInvalidPlayers)
	}
	if playerA == playerB {
		return nil, fmt.Errorf("%w: player ids must be different", ErrInvalidPlayers)
	}

	now := time.Now().UTC()
	m := &models.Match{
		ID:           uuid.New(),
		PlayerA:      playerA,
		PlayerB:      playerB,
		Status:       models.MatchSetup,
		CurrentRound: 1,
		MaxRounds:    e.maxRounds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	first := &models.Round{
		ID:       uuid.New(),
		MatchID:  m.ID,
		Index:    1,
		Category: randomCategory(),
	}
	m.Rounds = append(m.Rounds, first)

	e.store.Add(m)
	if err := e.persistMatch(ctx, m, first); err != nil {
		e.store.Delete(m.ID)
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"match_id": m.ID,
		"player_a": playerA,
		"player_b": playerB,
		"category": first.Category,
	}).Info("match created")
	return m, nil
}

// SubmitDeck registers a deck for one participant while the match is in
// SETUP. Card membership is checked against the catalogue and the stat
// snapshot is cached on the match; the catalogue failing fails this request.
// Once both decks are present the match moves to IN_PROGRESS.
func (e *Engine) SubmitDeck(ctx context.Context, matchID, playerID uuid.UUID, cardIDs []string) (*MatchSummary, error) {
	sess, err := e.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	m := sess.m

	if m.Status != models.MatchSetup {
		return nil, ErrMatchNotInSetup
	}
	if !m.IsParticipant(playerID) {
		return nil, ErrNotAParticipant
	}
	if m.DeckOf(playerID) != nil {
		return nil, ErrDeckAlreadySet
	}
	if err := ValidateDeck(cardIDs); err != nil {
		return nil, err
	}

	deck, err := e.catalogue.FetchStats(ctx, cardIDs)
	if err != nil {
		if errors.Is(err, catalogue.ErrUnknownCard) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDeck, err)
		}
		return nil, err
	}

	prevUpdated := m.UpdatedAt
	if playerID == m.PlayerA {
		m.DeckA = deck
	} else {
		m.DeckB = deck
	}
	m.UpdatedAt = time.Now().UTC()

	started := m.DeckA != nil && m.DeckB != nil
	if started {
		m.Status = models.MatchInProgress
	}

	if err := e.persistMatch(ctx, m, nil); err != nil {
		// Undo the registration so the retry after the outage is a fresh
		// submission, not ErrDeckAlreadySet.
		if playerID == m.PlayerA {
			m.DeckA = nil
		} else {
			m.DeckB = nil
		}
		if started {
			m.Status = models.MatchSetup
		}
		m.UpdatedAt = prevUpdated
		return nil, err
	}

	if started {
		e.log.WithFields(logrus.Fields{
			"match_id": m.ID,
			"category": m.Rounds[0].Category,
		}).Info("both decks registered, match starting")
	} else {
		e.log.WithFields(logrus.Fields{
			"match_id":  m.ID,
			"player_id": playerID,
		}).Info("deck registered")
	}
	return summarize(m), nil
}

// SubmitMove records one player's card for the addressed round. The first
// move of a round returns WAITING_FOR_OPPONENT without revealing anything;
// the second move resolves the round, updates scores, and either opens the
// next round or finalizes the match.
func (e *Engine) SubmitMove(ctx context.Context, matchID, roundID, playerID uuid.UUID, cardID string) (*MoveOutcome, error) {
	sess, err := e.session(ctx, matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	m := sess.m

	switch m.Status {
	case models.MatchFinished:
		return nil, ErrMatchFinished
	case models.MatchInProgress:
	default:
		return nil, ErrMatchNotInProgress
	}
	if !m.IsParticipant(playerID) {
		return nil, ErrNotAParticipant
	}

	round := m.RoundByID(roundID)
	if round == nil {
		return nil, ErrUnknownRound
	}
	if round.Resolved {
		return nil, ErrRoundResolved
	}

	deck := m.DeckOf(playerID)
	if !deck.Contains(cardID) {
		return nil, fmt.Errorf("%w: %s", ErrCardNotInDeck, cardID)
	}

	isA := playerID == m.PlayerA
	if (isA && round.MoveA != "") || (!isA && round.MoveB != "") {
		return nil, ErrDuplicateMove
	}
	for _, prev := range m.Rounds {
		if prev == round {
			continue
		}
		if (isA && prev.MoveA == cardID) || (!isA && prev.MoveB == cardID) {
			return nil, fmt.Errorf("%w: %s", ErrCardAlreadyPlayed, cardID)
		}
	}

	if isA {
		round.MoveA = cardID
	} else {
		round.MoveB = cardID
	}
	undoMove := func() {
		if isA {
			round.MoveA = ""
		} else {
			round.MoveB = ""
		}
	}

	if round.MoveA == "" || round.MoveB == "" {
		// First mover: persist and wait. Nothing about this move is revealed
		// until the opponent resolves the round.
		if err := e.persistRound(ctx, round); err != nil {
			// Undo so the retry after the outage is accepted instead of
			// hitting ErrDuplicateMove.
			undoMove()
			return nil, err
		}
		e.log.WithFields(logrus.Fields{
			"match_id": m.ID,
			"round":    round.Index,
		}).Info("first move of round recorded, waiting for opponent")
		return &MoveOutcome{
			Status:      MoveWaitingForOpponent,
			Round:       viewRound(round),
			ScoreA:      m.ScoreA,
			ScoreB:      m.ScoreB,
			MatchStatus: m.Status,
		}, nil
	}

	outcome, err := e.resolveRound(ctx, m, round)
	if err != nil {
		// resolveRound unwound its own transition; dropping the resolving
		// move as well makes the retry replay the whole submission.
		undoMove()
		return nil, err
	}
	return outcome, nil
}

// resolveRound seals the round, applies the score delta, and advances or
// finalizes the match. Called with the session lock held. The in-memory
// transition only stands once the write-through succeeded: a finalize that
// never reached the database must not commit in memory, or no later write
// would ever heal the durable row.
func (e *Engine) resolveRound(ctx context.Context, m *models.Match, round *models.Round) (*MoveOutcome, error) {
	winner, deltaA, deltaB := ResolveRound(m.DeckA[round.MoveA], m.DeckB[round.MoveB], round.Category)
	round.Winner = winner
	round.Resolved = true
	round.ResolvedAt = time.Now().UTC()
	m.ScoreA += deltaA
	m.ScoreB += deltaB
	prevUpdated := m.UpdatedAt
	m.UpdatedAt = round.ResolvedAt

	var next *models.Round
	if round.Index >= m.MaxRounds {
		m.Status = models.MatchFinished
		m.WinnerID = MatchWinnerID(m)
	} else {
		next = &models.Round{
			ID:       uuid.New(),
			MatchID:  m.ID,
			Index:    round.Index + 1,
			Category: randomCategory(),
		}
		m.Rounds = append(m.Rounds, next)
		m.CurrentRound = next.Index
	}

	err := e.persistRound(ctx, round)
	if err == nil {
		err = e.persistMatch(ctx, m, next)
	}
	if err != nil {
		// Unwind the whole transition: the round reopens with the first
		// mover's card intact and the resolving retry replays it.
		round.Winner = ""
		round.Resolved = false
		round.ResolvedAt = time.Time{}
		m.ScoreA -= deltaA
		m.ScoreB -= deltaB
		m.UpdatedAt = prevUpdated
		if next != nil {
			m.Rounds = m.Rounds[:len(m.Rounds)-1]
			m.CurrentRound = round.Index
		} else {
			m.Status = models.MatchInProgress
			m.WinnerID = nil
		}
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"match_id": m.ID,
		"round":    round.Index,
		"category": round.Category,
		"winner":   winner,
		"score_a":  m.ScoreA,
		"score_b":  m.ScoreB,
	}).Info("round resolved")

	if next == nil {
		e.log.WithFields(logrus.Fields{
			"match_id": m.ID,
			"winner":   m.WinnerID,
			"score_a":  m.ScoreA,
			"score_b":  m.ScoreB,
		}).Info("match finished")
	} else {
		e.log.WithFields(logrus.Fields{
			"match_id": m.ID,
			"round":    next.Index,
			"category": next.Category,
		}).Info("round opened")
	}

	outcome := &MoveOutcome{
		Status:      MoveRoundProcessed,
		Round:       viewRound(round),
		ScoreA:      m.ScoreA,
		ScoreB:      m.ScoreB,
		MatchStatus: m.Status,
		WinnerID:    m.WinnerID,
	}
	if next != nil {
		outcome.NextRound = viewRound(next)
	}
	return outcome, nil
}

// session resolves a live session, falling back to the durable store so a
// match survives a process restart.
func (e *Engine) session(ctx context.Context, matchID uuid.UUID) (*session, error) {
	if sess, ok := e.store.Get(matchID); ok {
		return sess, nil
	}
	if e.db == nil {
		return nil, ErrUnknownMatch
	}
	m, err := e.db.LoadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return e.store.GetOrAdd(m), nil
}

func (e *Engine) persistMatch(ctx context.Context, m *models.Match, newRound *models.Round) error {
	if e.db == nil {
		return nil
	}
	if err := e.db.UpsertMatch(ctx, m); err != nil {
		return fmt.Errorf("persist match %s: %w", m.ID, err)
	}
	if newRound != nil {
		if err := e.db.UpsertRound(ctx, newRound); err != nil {
			return fmt.Errorf("persist round %d of match %s: %w", newRound.Index, m.ID, err)
		}
	}
	return nil
}

func (e *Engine) persistRound(ctx context.Context, r *models.Round) error {
	if e.db == nil {
		return nil
	}
	if err := e.db.UpsertRound(ctx, r); err != nil {
		return fmt.Errorf("persist round %d of match %s: %w", r.Index, r.MatchID, err)
	}
	return nil
}

func randomCategory() models.Category {
	return models.Categories[rand.Intn(len(models.Categories))]
}
