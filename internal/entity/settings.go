package entity

import (
	"fmt"
	"math"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

type Mode string

const (
	ComputerMode    Mode = "computer"
	MultiplayerMode Mode = "multiplayer"
)

type Difficulty string

const (
	EasyDifficulty Difficulty = "easy"
	HardDifficulty Difficulty = "hard"
)

// JumpPolicy decides which outcome the view shows after a jump in the history.
type JumpPolicy string

const (
	// ClearOutcomeOnJump always shows the jumped-to step as ongoing.
	ClearOutcomeOnJump JumpPolicy = "clear"
	// RestoreOutcomeOnJump shows the outcome recorded at that step.
	RestoreOutcomeOnJump JumpPolicy = "restore"
)

// NoDepthLimit lets the search run to terminal positions.
const NoDepthLimit = -1

const (
	easyRandomMoveProbability = 0.2

	easyThinkDelay = 500 * time.Millisecond
	hardThinkDelay = time.Second
)

// RandomMoveProbability is the share of computer moves picked at random.
func (that Difficulty) RandomMoveProbability() float64 {
	if that == EasyDifficulty {
		return easyRandomMoveProbability
	}
	return 0
}

// ThinkDelay is the pause a host shows before the computer answers.
func (that Difficulty) ThinkDelay() time.Duration {
	if that == EasyDifficulty {
		return easyThinkDelay
	}
	return hardThinkDelay
}

// DefaultDepthLimit bounds the 4x4 tree; 3x3 is searched completely.
func DefaultDepthLimit(boardSize int) int {
	if boardSize > MinBoardSize {
		return 3
	}
	return NoDepthLimit
}

// Settings configure one session.
type Settings struct {
	BoardSize    int
	Mode         Mode
	ComputerSide Side
	StartingSide Side
	Difficulty   Difficulty
	DepthLimit   int
	// RandomMoveProbability overrides the difficulty default when not negative.
	RandomMoveProbability float64
	ThinkDelay            time.Duration
	JumpPolicy            JumpPolicy
}

func DefaultSettings() Settings {
	return Settings{
		BoardSize:             MinBoardSize,
		Mode:                  ComputerMode,
		ComputerSide:          PlayerO,
		StartingSide:          PlayerX,
		Difficulty:            EasyDifficulty,
		DepthLimit:            NoDepthLimit,
		RandomMoveProbability: -1,
		ThinkDelay:            0,
		JumpPolicy:            ClearOutcomeOnJump,
	}
}

func (that Settings) Validate() error {
	if that.BoardSize < MinBoardSize || that.BoardSize > MaxBoardSize {
		return fmt.Errorf("%w: board size %d", apperror.ErrInvalidBoardSize, that.BoardSize)
	}

	if that.Mode != ComputerMode && that.Mode != MultiplayerMode {
		return fmt.Errorf("%w: mode %q", apperror.ErrInvalidSettings, that.Mode)
	}

	if !that.StartingSide.IsValid() {
		return fmt.Errorf("%w: starting side %q", apperror.ErrInvalidSettings, that.StartingSide)
	}

	if that.Mode == ComputerMode && !that.ComputerSide.IsValid() {
		return fmt.Errorf("%w: computer side %q", apperror.ErrInvalidSettings, that.ComputerSide)
	}

	if that.Difficulty != EasyDifficulty && that.Difficulty != HardDifficulty {
		return fmt.Errorf("%w: difficulty %q", apperror.ErrInvalidSettings, that.Difficulty)
	}

	if that.DepthLimit < NoDepthLimit {
		return fmt.Errorf("%w: depth limit %d", apperror.ErrInvalidSettings, that.DepthLimit)
	}

	if that.RandomMoveProbability > 1 || math.IsNaN(that.RandomMoveProbability) {
		return fmt.Errorf("%w: random move probability %v", apperror.ErrInvalidSettings, that.RandomMoveProbability)
	}

	if that.ThinkDelay < 0 {
		return fmt.Errorf("%w: think delay %s", apperror.ErrInvalidSettings, that.ThinkDelay)
	}

	if that.JumpPolicy != ClearOutcomeOnJump && that.JumpPolicy != RestoreOutcomeOnJump {
		return fmt.Errorf("%w: jump policy %q", apperror.ErrInvalidSettings, that.JumpPolicy)
	}

	return nil
}

// EffectiveRandomMoveProbability resolves the override against the difficulty.
func (that Settings) EffectiveRandomMoveProbability() float64 {
	if that.RandomMoveProbability >= 0 {
		return that.RandomMoveProbability
	}
	return that.Difficulty.RandomMoveProbability()
}

// HumanSide is the side typed moves are played for in computer mode.
func (that Settings) HumanSide() Side {
	return that.ComputerSide.Opponent()
}
