// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var DB *pgxpool.Pool

func ConnectDB() {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		log.Fatalf("unable to parse pgx config: %v", err)
	}

	DB, err = pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatalf("unable to create pgx pool: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := DB.Ping(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}

	log.Printf("Connected to database %s", os.Getenv("PG_DATABASE"))
}

// EnsureSchema creates the match tables when they do not exist yet.
func EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY,
		player_a UUID NOT NULL,
		player_b UUID NOT NULL,
		status TEXT NOT NULL,
		deck_a JSONB,
		deck_b JSONB,
		score_a INT NOT NULL DEFAULT 0,
		score_b INT NOT NULL DEFAULT 0,
		winner_id UUID,
		current_round INT NOT NULL DEFAULT 1,
		max_rounds INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS rounds (
		id UUID PRIMARY KEY,
		match_id UUID NOT NULL REFERENCES matches(id),
		round_index INT NOT NULL,
		category TEXT NOT NULL,
		move_a TEXT,
		move_b TEXT,
		winner TEXT,
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at TIMESTAMPTZ,
		UNIQUE (match_id, round_index)
	);
	CREATE INDEX IF NOT EXISTS idx_matches_player_a ON matches(player_a);
	CREATE INDEX IF NOT EXISTS idx_matches_player_b ON matches(player_b);
	CREATE INDEX IF NOT EXISTS idx_rounds_match ON rounds(match_id);
	`
	_, err := DB.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
