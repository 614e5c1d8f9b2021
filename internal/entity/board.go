package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

// Cell is the content of one square of the board.
type Cell string

// Side is one of the two players.
type Side string

const (
	EmptyCell Cell = ""
	CellX     Cell = "X"
	CellO     Cell = "O"

	PlayerX Side = "X"
	PlayerO Side = "O"
)

const (
	MinBoardSize = 3
	MaxBoardSize = 4
)

var ErrUnknownCell = errors.New("unknown cell value")

func (that Side) Opponent() Side {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Side) Cell() Cell {
	return Cell(that)
}

func (that Side) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

// ParseSide accepts "X" or "O".
func ParseSide(value string) (Side, error) {
	side := Side(value)
	if !side.IsValid() {
		return "", fmt.Errorf("%w: unknown side %q", apperror.ErrInvalidSettings, value)
	}
	return side, nil
}

// Board is a square grid stored in row-major order.
type Board struct {
	size  int
	cells []Cell
}

func NewBoard(size int) (Board, error) {
	if size < MinBoardSize || size > MaxBoardSize {
		return Board{}, fmt.Errorf("%w: %d", apperror.ErrInvalidBoardSize, size)
	}

	return Board{size: size, cells: make([]Cell, size*size)}, nil
}

// BoardFromRows builds a board from a square matrix of marks.
func BoardFromRows(rows [][]Cell) (Board, error) {
	board, err := NewBoard(len(rows))
	if err != nil {
		return Board{}, err
	}

	for row, line := range rows {
		if len(line) != board.size {
			return Board{}, fmt.Errorf("%w: row %d has %d cells", apperror.ErrInvalidBoardSize, row, len(line))
		}
		for col, cell := range line {
			if cell != EmptyCell && cell != CellX && cell != CellO {
				return Board{}, fmt.Errorf("%w: %q", ErrUnknownCell, cell)
			}
			board.cells[row*board.size+col] = cell
		}
	}

	return board, nil
}

func (that Board) Size() int {
	return that.size
}

func (that Board) InBounds(row, col int) bool {
	return row >= 0 && row < that.size && col >= 0 && col < that.size
}

func (that Board) At(row, col int) Cell {
	return that.cells[row*that.size+col]
}

func (that Board) IsEmpty(row, col int) bool {
	return that.At(row, col) == EmptyCell
}

// Place returns a copy of the board with the cell set to the side's mark.
func (that Board) Place(row, col int, side Side) Board {
	next := that.Clone()
	next.cells[row*that.size+col] = side.Cell()
	return next
}

// Set mutates the board in place. Only search scratch boards use it.
func (that Board) Set(row, col int, cell Cell) {
	that.cells[row*that.size+col] = cell
}

func (that Board) Clone() Board {
	cells := make([]Cell, len(that.cells))
	copy(cells, that.cells)
	return Board{size: that.size, cells: cells}
}

func (that Board) Count(cell Cell) int {
	count := 0
	for _, c := range that.cells {
		if c == cell {
			count++
		}
	}
	return count
}

func (that Board) IsFull() bool {
	return that.Count(EmptyCell) == 0
}

// EmptyCells lists the free squares in row-major order.
func (that Board) EmptyCells() []Position {
	positions := make([]Position, 0, len(that.cells))
	for i, c := range that.cells {
		if c == EmptyCell {
			positions = append(positions, Position{Row: i / that.size, Col: i % that.size})
		}
	}
	return positions
}

// Winner scans rows, then columns, then both diagonals and returns the side
// owning the first complete line.
func (that Board) Winner() (Side, bool) {
	for row := 0; row < that.size; row++ {
		if side, ok := that.lineOwner(row, 0, 0, 1); ok {
			return side, true
		}
	}

	for col := 0; col < that.size; col++ {
		if side, ok := that.lineOwner(0, col, 1, 0); ok {
			return side, true
		}
	}

	if side, ok := that.lineOwner(0, 0, 1, 1); ok {
		return side, true
	}

	return that.lineOwner(0, that.size-1, 1, -1)
}

// IsDraw is true for a full board without a complete line.
func (that Board) IsDraw() bool {
	if !that.IsFull() {
		return false
	}

	_, won := that.Winner()
	return !won
}

func (that Board) lineOwner(row, col, dRow, dCol int) (Side, bool) {
	first := that.At(row, col)
	if first == EmptyCell {
		return "", false
	}

	for i := 1; i < that.size; i++ {
		if that.At(row+i*dRow, col+i*dCol) != first {
			return "", false
		}
	}

	return Side(first), true
}

// Rows returns a copy of the grid as a matrix.
func (that Board) Rows() [][]Cell {
	rows := make([][]Cell, that.size)
	for row := range rows {
		rows[row] = make([]Cell, that.size)
		copy(rows[row], that.cells[row*that.size:(row+1)*that.size])
	}
	return rows
}

func (that Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.Rows())
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var rows [][]Cell
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	board, err := BoardFromRows(rows)
	if err != nil {
		return err
	}

	*that = board
	return nil
}

// Position addresses one cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
