// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/r1olo/ase-project/internal/game"
	"github.com/r1olo/ase-project/internal/models"
)

// Store persists matches and rounds through the shared pgx pool. It
// implements game.Persister; every write is full-state so a missed write is
// healed by the next one.
type Store struct{}

func NewStore() *Store { return &Store{} }

func (s *Store) UpsertMatch(ctx context.Context, m *models.Match) error {
	deckA, err := marshalDeck(m.DeckA)
	if err != nil {
		return err
	}
	deckB, err := marshalDeck(m.DeckB)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO matches (id, player_a, player_b, status, deck_a, deck_b,
			score_a, score_b, winner_id, current_round, max_rounds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			deck_a = EXCLUDED.deck_a,
			deck_b = EXCLUDED.deck_b,
			score_a = EXCLUDED.score_a,
			score_b = EXCLUDED.score_b,
			winner_id = EXCLUDED.winner_id,
			current_round = EXCLUDED.current_round,
			updated_at = EXCLUDED.updated_at
	`
	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			m.ID, m.PlayerA, m.PlayerB, string(m.Status), deckA, deckB,
			m.ScoreA, m.ScoreB, m.WinnerID, m.CurrentRound, m.MaxRounds,
			m.CreatedAt, m.UpdatedAt,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

func (s *Store) UpsertRound(ctx context.Context, r *models.Round) error {
	var winner *string
	if r.Resolved {
		w := string(r.Winner)
		winner = &w
	}
	var resolvedAt interface{}
	if r.Resolved {
		resolvedAt = r.ResolvedAt
	}

	q := `
		INSERT INTO rounds (id, match_id, round_index, category, move_a, move_b, winner, resolved, resolved_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			move_a = EXCLUDED.move_a,
			move_b = EXCLUDED.move_b,
			winner = EXCLUDED.winner,
			resolved = EXCLUDED.resolved,
			resolved_at = EXCLUDED.resolved_at
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			r.ID, r.MatchID, r.Index, string(r.Category),
			r.MoveA, r.MoveB, winner, r.Resolved, resolvedAt,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upsert round: %w", err)
	}
	return nil
}

// LoadMatch rehydrates a match and its rounds, e.g. after a restart.
func (s *Store) LoadMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var m models.Match
	var status string
	var deckA, deckB []byte

	q := `
		SELECT id, player_a, player_b, status, deck_a, deck_b,
		       score_a, score_b, winner_id, current_round, max_rounds, created_at, updated_at
		FROM matches WHERE id = $1
	`
	err := DB.QueryRow(ctx, q, id).Scan(
		&m.ID, &m.PlayerA, &m.PlayerB, &status, &deckA, &deckB,
		&m.ScoreA, &m.ScoreB, &m.WinnerID, &m.CurrentRound, &m.MaxRounds,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrUnknownMatch
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	m.Status = models.MatchStatus(status)
	if m.DeckA, err = unmarshalDeck(deckA); err != nil {
		return nil, err
	}
	if m.DeckB, err = unmarshalDeck(deckB); err != nil {
		return nil, err
	}

	rows, err := DB.Query(ctx, `
		SELECT id, match_id, round_index, category, COALESCE(move_a, ''), COALESCE(move_b, ''),
		       COALESCE(winner, ''), resolved, resolved_at
		FROM rounds WHERE match_id = $1 ORDER BY round_index
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.Round
		var category, winner string
		var resolvedAt *time.Time
		if err := rows.Scan(&r.ID, &r.MatchID, &r.Index, &category, &r.MoveA, &r.MoveB,
			&winner, &r.Resolved, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.Category = models.Category(category)
		r.Winner = models.RoundWinner(winner)
		if resolvedAt != nil {
			r.ResolvedAt = *resolvedAt
		}
		m.Rounds = append(m.Rounds, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return &m, nil
}

// PlayerMatchRow is one entry of a player's durable match history.
type PlayerMatchRow struct {
	MatchID       uuid.UUID          `json:"match_id"`
	OpponentID    uuid.UUID          `json:"opponent_id"`
	Status        models.MatchStatus `json:"status"`
	PlayerScore   int                `json:"player_score"`
	OpponentScore int                `json:"opponent_score"`
	Won           *bool              `json:"won"` // nil while unfinished or on a draw
}

// PlayerHistory lists a player's matches, newest first.
func (s *Store) PlayerHistory(ctx context.Context, playerID uuid.UUID, limit, offset int) ([]PlayerMatchRow, error) {
	q := `
		SELECT id, player_a, player_b, status, score_a, score_b, winner_id
		FROM matches
		WHERE player_a = $1 OR player_b = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := DB.Query(ctx, q, playerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query player history: %w", err)
	}
	defer rows.Close()

	var history []PlayerMatchRow
	for rows.Next() {
		var matchID, a, b uuid.UUID
		var status string
		var scoreA, scoreB int
		var winnerID *uuid.UUID
		if err := rows.Scan(&matchID, &a, &b, &status, &scoreA, &scoreB, &winnerID); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		row := PlayerMatchRow{MatchID: matchID, Status: models.MatchStatus(status)}
		if playerID == a {
			row.OpponentID, row.PlayerScore, row.OpponentScore = b, scoreA, scoreB
		} else {
			row.OpponentID, row.PlayerScore, row.OpponentScore = a, scoreB, scoreA
		}
		if winnerID != nil {
			won := *winnerID == playerID
			row.Won = &won
		}
		history = append(history, row)
	}
	return history, rows.Err()
}

// LeaderboardEntry ranks a player by finished-match wins.
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	PlayerID uuid.UUID `json:"player_id"`
	Wins     int       `json:"wins"`
}

// Leaderboard returns the top winners across all finished matches.
func (s *Store) Leaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, error) {
	q := `
		SELECT winner_id, COUNT(*) AS wins
		FROM matches
		WHERE status = 'FINISHED' AND winner_id IS NOT NULL
		GROUP BY winner_id
		ORDER BY wins DESC, winner_id
		LIMIT $1 OFFSET $2
	`
	rows, err := DB.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	rank := offset
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Wins); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalDeck(d models.Deck) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal deck: %w", err)
	}
	return b, nil
}

func unmarshalDeck(b []byte) (models.Deck, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var d models.Deck
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("unmarshal deck: %w", err)
	}
	return d, nil
}
