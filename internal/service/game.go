package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

var ErrGameNotFinished = errors.New("only finished games are archived")

type GameService interface {
	Save(ctx context.Context, game *entity.GameState) error

	GetGameByID(ctx context.Context, id string) (*entity.GameState, error)
	RecentGames(ctx context.Context, limit int) ([]*entity.GameState, error)
}

type gameRepo interface {
	Save(ctx context.Context, game *entity.GameState) error

	GetByID(ctx context.Context, id string) (*entity.GameState, error)
	List(ctx context.Context, limit int) ([]*entity.GameState, error)
}

type gameService struct {
	gameRepo gameRepo
}

func NewGameService(gameRepo gameRepo) GameService {
	return &gameService{
		gameRepo: gameRepo,
	}
}

// Save archives a finished game.
func (that *gameService) Save(ctx context.Context, game *entity.GameState) error {
	if !game.IsFinished() {
		return ErrGameNotFinished
	}

	if err := that.gameRepo.Save(ctx, game); err != nil {
		return fmt.Errorf("failed to archive game: %w", err)
	}
	return nil
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.GameState, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}
	return game, nil
}

func (that *gameService) RecentGames(ctx context.Context, limit int) ([]*entity.GameState, error) {
	games, err := that.gameRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games from storage: %w", err)
	}
	return games, nil
}
