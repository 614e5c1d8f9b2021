package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type memoryGame struct {
	mu    sync.RWMutex
	games map[string]*entity.GameState
	order []string
}

// NewMemoryGameRepository keeps games for the lifetime of the process.
func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]*entity.GameState),
	}
}

func (that *memoryGame) Save(_ context.Context, game *entity.GameState) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[game.ID]; ok {
		that.order = slices.DeleteFunc(that.order, func(id string) bool { return id == game.ID })
	}

	that.games[game.ID] = game.Clone()
	that.order = append(that.order, game.ID)

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.GameState, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}

	return game.Clone(), nil
}

func (that *memoryGame) List(_ context.Context, limit int) ([]*entity.GameState, error) {
	if limit <= 0 {
		return nil, nil
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	games := make([]*entity.GameState, 0, min(limit, len(that.order)))
	for i := len(that.order) - 1; i >= 0 && len(games) < limit; i-- {
		games = append(games, that.games[that.order[i]].Clone())
	}

	return games, nil
}
