package apperror

import "errors"

var (
	ErrInvalidCoordinate = errors.New("coordinate is out of the board")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrWrongTurn         = errors.New("it's not your turn")
	ErrGameAlreadyOver   = errors.New("game is already over")
	ErrMoveNotAllowedYet = errors.New("computer move is pending")
	ErrInvalidReplayStep = errors.New("invalid replay step")

	ErrInvalidBoardSize      = errors.New("invalid board size")
	ErrInvalidSettings       = errors.New("invalid session settings")
	ErrNoPendingComputerMove = errors.New("no pending computer move")
	ErrNotFound              = errors.New("not found")
)
