package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type sqliteGame struct {
	db *sql.DB
}

// NewSQLiteGameRepository expects the games table created by storage.SQLiteStorage.Init.
func NewSQLiteGameRepository(db *sql.DB) GameRepository {
	return &sqliteGame{
		db: db,
	}
}

func (that *sqliteGame) Save(ctx context.Context, game *entity.GameState) error {
	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	var finishedAt sql.NullTime
	if !game.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: game.FinishedAt, Valid: true}
	}

	query := `INSERT OR REPLACE INTO games (id, board_size, status, winner, moves, started_at, finished_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = that.db.ExecContext(ctx, query,
		game.ID,
		game.Size,
		string(game.Outcome.Status),
		string(game.Outcome.Winner),
		game.MovesPlayed(),
		game.StartedAt,
		finishedAt,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}

func (that *sqliteGame) GetByID(ctx context.Context, id string) (*entity.GameState, error) {
	var payload string

	err := that.db.QueryRowContext(ctx, `SELECT payload FROM games WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var game entity.GameState
	if err = json.Unmarshal([]byte(payload), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

func (that *sqliteGame) List(ctx context.Context, limit int) ([]*entity.GameState, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := that.db.QueryContext(ctx, `SELECT payload FROM games ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*entity.GameState
	for rows.Next() {
		var payload string
		if err = rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}

		var game entity.GameState
		if err = json.Unmarshal([]byte(payload), &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game: %w", err)
		}
		games = append(games, &game)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}

	return games, nil
}
