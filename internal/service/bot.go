package service

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/search"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type BotService interface {
	MakeTurn(game *entity.GameState, now time.Time) (*entity.GameState, search.Move, error)
	Hint(game *entity.GameState) []search.ScoredMove
}

type botService struct {
	side entity.Side
	cfg  search.Config
}

// NewBotService builds the computer player from the session settings. rng may
// be nil to use the global random source.
func NewBotService(settings entity.Settings, rng *rand.Rand) BotService {
	return &botService{
		side: settings.ComputerSide,
		cfg: search.Config{
			DepthLimit:            settings.DepthLimit,
			RandomMoveProbability: settings.EffectiveRandomMoveProbability(),
			Rand:                  rng,
		},
	}
}

func (that *botService) MakeTurn(game *entity.GameState, now time.Time) (*entity.GameState, search.Move, error) {
	if game.IsFinished() {
		return nil, search.Move{}, apperror.ErrGameAlreadyOver
	}

	if game.Turn() != that.side {
		return nil, search.Move{}, apperror.ErrWrongTurn
	}

	move, err := search.BestMove(game.Latest().Board, that.side, that.cfg)
	if err != nil {
		return nil, search.Move{}, fmt.Errorf("bot failed to choose a move: %w", err)
	}

	next, err := tictactoe.ApplyMove(game, move.Row, move.Col, that.side, now)
	if err != nil {
		return nil, search.Move{}, fmt.Errorf("bot failed to make turn: %w", err)
	}

	return next, move, nil
}

// Hint scores every free cell for the side to move without randomization.
func (that *botService) Hint(game *entity.GameState) []search.ScoredMove {
	side := game.Turn()
	if side == "" {
		return nil
	}

	return search.Evaluate(game.Latest().Board, side, search.Config{DepthLimit: that.cfg.DepthLimit})
}
