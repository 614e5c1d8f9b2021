package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/search"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

type gameArchive interface {
	Save(ctx context.Context, game *entity.GameState) error
}

type Option func(*Session)

// WithClock replaces time.Now for move timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(that *Session) {
		that.now = now
	}
}

// WithRand seeds the computer's random moves.
func WithRand(rng *rand.Rand) Option {
	return func(that *Session) {
		that.rng = rng
	}
}

// Session runs consecutive games with the same settings and keeps their
// statistics. It is safe for concurrent use.
type Session struct {
	logger   *slog.Logger
	settings entity.Settings
	archive  gameArchive
	bot      service.BotService
	now      func() time.Time
	rng      *rand.Rand

	mu      sync.Mutex
	game    *entity.GameState
	stats   entity.Statistics
	pending bool
}

// NewSession validates settings and starts the first game. archive may be nil.
func NewSession(logger *slog.Logger, settings entity.Settings, archive gameArchive, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session := &Session{
		logger:   logger.With("component", "session"),
		settings: settings,
		archive:  archive,
		now:      time.Now,
		stats:    entity.NewStatistics(),
	}

	for _, opt := range opts {
		opt(session)
	}

	session.bot = service.NewBotService(settings, session.rng)

	if _, err := session.StartNewGame(context.Background()); err != nil {
		return nil, err
	}

	return session, nil
}

// StartNewGame drops the current game, finished or not, and starts an empty one.
func (that *Session) StartNewGame(ctx context.Context) (*entity.GameState, error) {
	log := that.logger.With("method", "StartNewGame")

	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := tictactoe.NewGame(that.settings.BoardSize, that.settings.StartingSide, that.now())
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	that.game = game
	that.stats.GameStarted()
	that.pending = that.isComputerTurn()

	log.DebugContext(ctx, "game started", "gameID", game.ID, "size", game.Size, "computerFirst", that.pending)

	return that.game.Clone(), nil
}

// MakeTurn plays the human move. In multiplayer mode it is played for the side
// to move; against the computer always for the human side.
func (that *Session) MakeTurn(ctx context.Context, row, col int) (*entity.GameState, error) {
	game, finished, err := that.makeTurn(ctx, row, col)
	if err != nil {
		return nil, err
	}

	that.archiveGame(ctx, finished)

	return game, nil
}

func (that *Session) makeTurn(ctx context.Context, row, col int) (*entity.GameState, *entity.GameState, error) {
	log := that.logger.With("method", "MakeTurn")

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.pending {
		return nil, nil, apperror.ErrMoveNotAllowedYet
	}

	side := that.game.Turn()
	if that.settings.Mode == entity.ComputerMode {
		side = that.settings.HumanSide()
	}

	next, err := tictactoe.ApplyMove(that.game, row, col, side, that.now())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make turn: %w", err)
	}

	that.game = next
	log.DebugContext(ctx, "move applied", "gameID", next.ID, "row", row, "col", col, "side", side)

	var finished *entity.GameState
	if next.IsFinished() {
		finished = that.finish(ctx)
	} else {
		that.pending = that.isComputerTurn()
	}

	return that.game.Clone(), finished, nil
}

// ComputerMovePending reports whether human moves are blocked until
// PlayComputerTurn resolves.
func (that *Session) ComputerMovePending() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.pending
}

// PlayComputerTurn waits the think delay and plays the computer move. The
// wait does not hold the session, so MakeTurn keeps failing with
// ErrMoveNotAllowedYet meanwhile. A cancelled ctx leaves the move pending.
func (that *Session) PlayComputerTurn(ctx context.Context) (*entity.GameState, search.Move, error) {
	that.mu.Lock()
	if !that.pending {
		that.mu.Unlock()
		return nil, search.Move{}, apperror.ErrNoPendingComputerMove
	}
	gameID := that.game.ID
	that.mu.Unlock()

	if err := that.think(ctx); err != nil {
		return nil, search.Move{}, err
	}

	game, move, finished, err := that.playComputerTurn(ctx, gameID)
	if err != nil {
		return nil, search.Move{}, err
	}

	that.archiveGame(ctx, finished)

	return game, move, nil
}

func (that *Session) playComputerTurn(ctx context.Context, gameID string) (*entity.GameState, search.Move, *entity.GameState, error) {
	log := that.logger.With("method", "PlayComputerTurn")

	that.mu.Lock()
	defer that.mu.Unlock()

	// another caller played it, or a new game replaced this one
	if !that.pending || that.game.ID != gameID {
		return nil, search.Move{}, nil, apperror.ErrNoPendingComputerMove
	}

	next, move, err := that.bot.MakeTurn(that.game, that.now())
	if err != nil {
		that.pending = false
		log.ErrorContext(ctx, "computer failed to move", "gameID", gameID, "error", err)
		return nil, search.Move{}, nil, fmt.Errorf("failed to play computer turn: %w", err)
	}

	that.game = next
	that.pending = false
	log.DebugContext(ctx, "computer moved", "gameID", gameID, "row", move.Row, "col", move.Col)

	var finished *entity.GameState
	if next.IsFinished() {
		finished = that.finish(ctx)
	}

	return that.game.Clone(), move, finished, nil
}

// JumpTo moves the replay cursor. Allowed in every state, including while a
// computer move is pending.
func (that *Session) JumpTo(step int) (*entity.GameState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	next, err := tictactoe.JumpTo(that.game, step, that.settings.JumpPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to jump: %w", err)
	}

	that.game = next

	return that.game.Clone(), nil
}

// Hint scores the free cells for the side to move.
func (that *Session) Hint() []search.ScoredMove {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.bot.Hint(that.game)
}

func (that *Session) State() *entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.Clone()
}

func (that *Session) Statistics() entity.Statistics {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.stats.Clone()
}

func (that *Session) Settings() entity.Settings {
	return that.settings
}

func (that *Session) isComputerTurn() bool {
	return that.settings.Mode == entity.ComputerMode &&
		!that.game.IsFinished() &&
		that.game.Turn() == that.settings.ComputerSide
}

func (that *Session) think(ctx context.Context) error {
	if that.settings.ThinkDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(that.settings.ThinkDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("computer turn interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// finish records the outcome and returns a copy of the game for the archive.
// Must hold mu.
func (that *Session) finish(ctx context.Context) *entity.GameState {
	log := that.logger.With("method", "finish")

	that.pending = false

	game := that.game
	that.stats.RecordOutcome(game.Outcome, float64(game.Duration().Milliseconds()))

	log.InfoContext(ctx, "game finished", "gameID", game.ID, "outcome", game.Outcome.String(), "moves", game.MovesPlayed())

	return game.Clone()
}

// archiveGame saves a finished game. Runs without mu, so storage latency does
// not block the session.
func (that *Session) archiveGame(ctx context.Context, game *entity.GameState) {
	if game == nil || that.archive == nil {
		return
	}

	if err := that.archive.Save(ctx, game); err != nil {
		that.logger.ErrorContext(ctx, "failed to archive game", "method", "archiveGame", "gameID", game.ID, "error", err)
	}
}
