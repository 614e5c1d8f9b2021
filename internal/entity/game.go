package entity

import "time"

type Status string

const (
	StatusOngoing Status = "ongoing"
	StatusWon     Status = "won"
	StatusDraw    Status = "draw"
)

// Outcome of a game at some point of its history. Winner is set only for StatusWon.
type Outcome struct {
	Status Status `json:"status"`
	Winner Side   `json:"winner,omitempty"`
}

func InProgress() Outcome {
	return Outcome{Status: StatusOngoing}
}

func WinFor(side Side) Outcome {
	return Outcome{Status: StatusWon, Winner: side}
}

func Draw() Outcome {
	return Outcome{Status: StatusDraw}
}

// OutcomeOf evaluates a board: win first, then draw.
func OutcomeOf(board Board) Outcome {
	if side, ok := board.Winner(); ok {
		return WinFor(side)
	}

	if board.IsDraw() {
		return Draw()
	}

	return InProgress()
}

func (that Outcome) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusDraw
}

func (that Outcome) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that Outcome) String() string {
	switch that.Status {
	case StatusWon:
		return "won by " + string(that.Winner)
	case StatusDraw:
		return "draw"
	default:
		return "in progress"
	}
}

// MoveRecord is one entry of the game history. The first record of every game
// is the start record: no side, Row and Col set to -1, empty board.
type MoveRecord struct {
	Row           int       `json:"row"`
	Col           int       `json:"col"`
	Side          Side      `json:"side,omitempty"`
	Board         Board     `json:"board"`
	CurrentPlayer Side      `json:"current_player,omitempty"`
	Outcome       Outcome   `json:"outcome"`
	At            time.Time `json:"at"`
}

func (that MoveRecord) IsStart() bool {
	return that.Side == ""
}

// GameState is one game: its history and the replay cursor.
type GameState struct {
	ID           string       `json:"id"`
	Size         int          `json:"size"`
	StartingSide Side         `json:"starting_side"`
	History      []MoveRecord `json:"history"`
	StepNumber   int          `json:"step_number"`
	Outcome      Outcome      `json:"outcome"`
	ViewOutcome  Outcome      `json:"view_outcome"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at,omitempty"`
}

// Latest is the authoritative record moves are applied to.
func (that *GameState) Latest() MoveRecord {
	return that.History[len(that.History)-1]
}

// Current is the record shown at the replay cursor.
func (that *GameState) Current() MoveRecord {
	return that.History[that.StepNumber]
}

// Board is the board shown to the player.
func (that *GameState) Board() Board {
	return that.Current().Board
}

// Turn is the side to move on the latest record.
func (that *GameState) Turn() Side {
	return that.Latest().CurrentPlayer
}

func (that *GameState) IsFinished() bool {
	return that.Outcome.IsFinished()
}

// MovesPlayed excludes the start record.
func (that *GameState) MovesPlayed() int {
	return len(that.History) - 1
}

func (that *GameState) Duration() time.Duration {
	if that.FinishedAt.IsZero() {
		return 0
	}
	return that.FinishedAt.Sub(that.StartedAt)
}

// Clone copies the history slice header contents; records themselves are
// immutable and shared.
func (that *GameState) Clone() *GameState {
	clone := *that
	clone.History = make([]MoveRecord, len(that.History), len(that.History)+1)
	copy(clone.History, that.History)
	return &clone
}
