package tictactoe

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/pkg"
)

// NewGame - creates a game on an empty board with startingSide to move.
func NewGame(boardSize int, startingSide entity.Side, now time.Time) (*entity.GameState, error) {
	if !startingSide.IsValid() {
		return nil, fmt.Errorf("%w: starting side %q", apperror.ErrInvalidSettings, startingSide)
	}

	board, err := entity.NewBoard(boardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	gameID, err := pkg.GenerateGameID()
	if err != nil {
		return nil, fmt.Errorf("error generating game ID: %w", err)
	}

	start := entity.MoveRecord{
		Row:           -1,
		Col:           -1,
		Board:         board,
		CurrentPlayer: startingSide,
		Outcome:       entity.InProgress(),
		At:            now,
	}

	return &entity.GameState{
		ID:           gameID,
		Size:         boardSize,
		StartingSide: startingSide,
		History:      []entity.MoveRecord{start},
		StepNumber:   0,
		Outcome:      entity.InProgress(),
		ViewOutcome:  entity.InProgress(),
		StartedAt:    now,
	}, nil
}

// ApplyMove - validates the move against the latest record and returns the
// next state. The given state is never modified.
func ApplyMove(state *entity.GameState, row, col int, side entity.Side, now time.Time) (*entity.GameState, error) {
	if state.IsFinished() {
		return nil, apperror.ErrGameAlreadyOver
	}

	latest := state.Latest()

	if err := validateMove(latest, row, col, side); err != nil {
		return nil, fmt.Errorf("invalid turn: %w", err)
	}

	board := latest.Board.Place(row, col, side)
	outcome := entity.OutcomeOf(board)

	record := entity.MoveRecord{
		Row:           row,
		Col:           col,
		Side:          side,
		Board:         board,
		CurrentPlayer: nextPlayer(outcome, side),
		Outcome:       outcome,
		At:            now,
	}

	next := state.Clone()
	next.History = append(next.History, record)
	next.StepNumber = len(next.History) - 1
	next.Outcome = outcome
	next.ViewOutcome = outcome

	if outcome.IsFinished() {
		next.FinishedAt = now
	}

	return next, nil
}

// JumpTo - moves the replay cursor. History is kept, so jumping forward again
// is always possible.
func JumpTo(state *entity.GameState, step int, policy entity.JumpPolicy) (*entity.GameState, error) {
	if step < 0 || step >= len(state.History) {
		return nil, fmt.Errorf("%w: step %d of %d", apperror.ErrInvalidReplayStep, step, len(state.History))
	}

	next := state.Clone()
	next.StepNumber = step

	switch policy {
	case entity.RestoreOutcomeOnJump:
		next.ViewOutcome = next.History[step].Outcome
	default:
		next.ViewOutcome = entity.InProgress()
	}

	return next, nil
}

// validateMove - checks if the move is valid.
func validateMove(latest entity.MoveRecord, row, col int, side entity.Side) error {
	if !latest.Board.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCoordinate, row, col)
	}

	if !latest.Board.IsEmpty(row, col) {
		return apperror.ErrCellOccupied
	}

	if latest.CurrentPlayer != side {
		return apperror.ErrWrongTurn
	}

	return nil
}

// nextPlayer - the side to move after a move; nobody moves after the end.
func nextPlayer(outcome entity.Outcome, side entity.Side) entity.Side {
	if outcome.IsFinished() {
		return ""
	}
	return side.Opponent()
}

// Turn - the side to move on the latest record, empty once the game is over.
func Turn(state *entity.GameState) entity.Side {
	return state.Latest().CurrentPlayer
}
