package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errStorageIsFull = errors.New("storage is full")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (that *fakeClock) Now() time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.now
}

func (that *fakeClock) Advance(d time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.now = that.now.Add(d)
}

type mockArchive struct {
	mock.Mock
}

func (that *mockArchive) Save(ctx context.Context, game *entity.GameState) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func multiplayerSettings() entity.Settings {
	settings := entity.DefaultSettings()
	settings.Mode = entity.MultiplayerMode
	return settings
}

func hardSettings() entity.Settings {
	settings := entity.DefaultSettings()
	settings.Difficulty = entity.HardDifficulty
	return settings
}

func newSession(t *testing.T, settings entity.Settings, archive gameArchive, opts ...Option) *Session {
	t.Helper()

	session, err := NewSession(suite.Logger(t), settings, archive, opts...)
	require.NoError(t, err)

	return session
}

func play(t *testing.T, session *Session, cells ...[2]int) *entity.GameState {
	t.Helper()

	var game *entity.GameState
	for _, cell := range cells {
		next, err := session.MakeTurn(context.Background(), cell[0], cell[1])
		require.NoError(t, err)
		game = next
	}

	return game
}

func TestNewSession(t *testing.T) {
	t.Run("Starts the first game", func(t *testing.T) {
		// When: a session is created
		session := newSession(t, entity.DefaultSettings(), nil)

		// Then: an empty game is running and counted
		game := session.State()
		assert.Equal(t, 0, game.MovesPlayed())
		assert.Equal(t, entity.PlayerX, game.Turn())
		assert.Equal(t, 1, session.Statistics().TotalGames)
		assert.False(t, session.ComputerMovePending())
	})

	t.Run("Rejects invalid settings", func(t *testing.T) {
		settings := entity.DefaultSettings()
		settings.BoardSize = 5

		_, err := NewSession(suite.Logger(t), settings, nil)

		require.ErrorIs(t, err, apperror.ErrInvalidBoardSize)
	})

	t.Run("Computer moves first when it starts", func(t *testing.T) {
		// Given: the computer plays O and O starts
		settings := hardSettings()
		settings.StartingSide = entity.PlayerO

		// When: the session starts
		session := newSession(t, settings, nil)

		// Then: the computer move is pending and the human cannot move
		assert.True(t, session.ComputerMovePending())

		_, err := session.MakeTurn(context.Background(), 0, 0)
		require.ErrorIs(t, err, apperror.ErrMoveNotAllowedYet)

		game, _, err := session.PlayComputerTurn(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, game.Board().Count(entity.CellO))
		assert.Equal(t, entity.PlayerX, game.Turn())
	})
}

func TestSession_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Human move makes the computer move pending", func(t *testing.T) {
		// Given: a game against the computer
		session := newSession(t, hardSettings(), nil)

		// When: the human plays the center
		game, err := session.MakeTurn(ctx, 1, 1)
		require.NoError(t, err)

		// Then: the move is on the board and the computer is pending
		assert.Equal(t, entity.CellX, game.Board().At(1, 1))
		assert.True(t, session.ComputerMovePending())

		// Then: a second human move is rejected without changing the game
		_, err = session.MakeTurn(ctx, 0, 0)
		require.ErrorIs(t, err, apperror.ErrMoveNotAllowedYet)
		assert.Equal(t, 1, session.State().MovesPlayed())
	})

	t.Run("Computer answers and the human moves again", func(t *testing.T) {
		session := newSession(t, hardSettings(), nil)
		play(t, session, [2]int{1, 1})

		game, move, err := session.PlayComputerTurn(ctx)
		require.NoError(t, err)

		assert.Equal(t, entity.CellO, game.Board().At(move.Row, move.Col))
		assert.False(t, session.ComputerMovePending())

		_, err = session.MakeTurn(ctx, move.Row, move.Col)
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
	})

	t.Run("Multiplayer alternates sides", func(t *testing.T) {
		// Given: a multiplayer session
		session := newSession(t, multiplayerSettings(), nil)

		// When: two moves are played
		game := play(t, session, [2]int{0, 0}, [2]int{1, 1})

		// Then: X and O are placed and nothing is pending
		assert.Equal(t, entity.CellX, game.Board().At(0, 0))
		assert.Equal(t, entity.CellO, game.Board().At(1, 1))
		assert.False(t, session.ComputerMovePending())
	})

	t.Run("Invalid moves leave the game unchanged", func(t *testing.T) {
		session := newSession(t, multiplayerSettings(), nil)
		play(t, session, [2]int{0, 0})

		_, err := session.MakeTurn(ctx, 0, 0)
		require.ErrorIs(t, err, apperror.ErrCellOccupied)

		_, err = session.MakeTurn(ctx, 3, 0)
		require.ErrorIs(t, err, apperror.ErrInvalidCoordinate)

		assert.Equal(t, 1, session.State().MovesPlayed())
		assert.Equal(t, entity.PlayerO, session.State().Turn())
	})

	t.Run("Finished game accepts only a new game or a jump", func(t *testing.T) {
		// Given: X won a multiplayer game
		session := newSession(t, multiplayerSettings(), nil)
		play(t, session, [2]int{0, 0}, [2]int{1, 0}, [2]int{0, 1}, [2]int{1, 1}, [2]int{0, 2})

		// When: another move is tried
		_, err := session.MakeTurn(ctx, 2, 2)

		// Then: ErrGameAlreadyOver is returned
		require.ErrorIs(t, err, apperror.ErrGameAlreadyOver)

		_, err = session.JumpTo(1)
		require.NoError(t, err)

		game, err := session.StartNewGame(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, game.MovesPlayed())
	})
}

func TestSession_PlayComputerTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Error without a pending move", func(t *testing.T) {
		session := newSession(t, hardSettings(), nil)

		_, _, err := session.PlayComputerTurn(ctx)

		require.ErrorIs(t, err, apperror.ErrNoPendingComputerMove)
	})

	t.Run("Human moves are rejected while the computer thinks", func(t *testing.T) {
		// Given: a computer with a think delay
		settings := hardSettings()
		settings.ThinkDelay = 200 * time.Millisecond
		session := newSession(t, settings, nil)
		play(t, session, [2]int{0, 0})

		done := make(chan error, 1)
		go func() {
			_, _, err := session.PlayComputerTurn(ctx)
			done <- err
		}()

		// When: the human tries to move during the delay
		time.Sleep(20 * time.Millisecond)
		_, err := session.MakeTurn(ctx, 2, 2)

		// Then: the move is rejected and the computer still plays
		require.ErrorIs(t, err, apperror.ErrMoveNotAllowedYet)
		require.NoError(t, <-done)
		assert.Equal(t, 2, session.State().MovesPlayed())
		assert.False(t, session.ComputerMovePending())
	})

	t.Run("Cancelled wait keeps the move pending", func(t *testing.T) {
		// Given: a computer with a long think delay
		settings := hardSettings()
		settings.ThinkDelay = time.Hour
		session := newSession(t, settings, nil)
		play(t, session, [2]int{0, 0})

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		// When: the wait is cancelled
		_, _, err := session.PlayComputerTurn(cancelled)

		// Then: nothing was played and the computer is still to move
		require.ErrorIs(t, err, context.Canceled)
		assert.True(t, session.ComputerMovePending())
		assert.Equal(t, 1, session.State().MovesPlayed())
	})

	t.Run("A new game drops the stale computer move", func(t *testing.T) {
		settings := hardSettings()
		settings.ThinkDelay = 200 * time.Millisecond
		session := newSession(t, settings, nil)
		play(t, session, [2]int{0, 0})

		done := make(chan error, 1)
		go func() {
			_, _, err := session.PlayComputerTurn(ctx)
			done <- err
		}()

		time.Sleep(20 * time.Millisecond)
		_, err := session.StartNewGame(ctx)
		require.NoError(t, err)

		require.ErrorIs(t, <-done, apperror.ErrNoPendingComputerMove)
		assert.Equal(t, 0, session.State().MovesPlayed())
	})

	t.Run("Hard computer never loses to random moves", func(t *testing.T) {
		// Given: a hard computer and a seeded random human
		session := newSession(t, hardSettings(), nil)
		rng := rand.New(rand.NewSource(11))

		for round := 0; round < 30; round++ {
			// When: a game is played to the end
			game := session.State()
			for !game.IsFinished() {
				if session.ComputerMovePending() {
					next, _, err := session.PlayComputerTurn(ctx)
					require.NoError(t, err)
					game = next
					continue
				}

				free := game.Latest().Board.EmptyCells()
				pos := free[rng.Intn(len(free))]
				next, err := session.MakeTurn(ctx, pos.Row, pos.Col)
				require.NoError(t, err)
				game = next
			}

			// Then: X never wins
			assert.NotEqual(t, entity.WinFor(entity.PlayerX), game.Outcome)

			_, err := session.StartNewGame(ctx)
			require.NoError(t, err)
		}

		stats := session.Statistics()
		assert.Zero(t, stats.WinsBySide[entity.PlayerX])
		assert.Equal(t, 30, stats.WinsBySide[entity.PlayerO]+stats.Ties)
		assert.Equal(t, 31, stats.TotalGames)
	})
}

func TestSession_JumpTo(t *testing.T) {
	t.Run("Jump shows an earlier board and moves continue from the latest", func(t *testing.T) {
		// Given: three moves in a multiplayer game
		session := newSession(t, multiplayerSettings(), nil)
		play(t, session, [2]int{0, 0}, [2]int{1, 1}, [2]int{2, 2})

		// When: jumping to step 1
		view, err := session.JumpTo(1)
		require.NoError(t, err)

		// Then: only the first move is shown
		assert.Equal(t, 1, view.StepNumber)
		assert.Equal(t, 1, view.Board().Count(entity.CellX))
		assert.Equal(t, 0, view.Board().Count(entity.CellO))

		// Then: the next move extends the full history
		game, err := session.MakeTurn(context.Background(), 0, 2)
		require.NoError(t, err)
		assert.Equal(t, 4, game.StepNumber)
		assert.Equal(t, entity.CellO, game.Board().At(0, 2))
	})

	t.Run("Invalid step", func(t *testing.T) {
		session := newSession(t, multiplayerSettings(), nil)

		_, err := session.JumpTo(3)

		require.ErrorIs(t, err, apperror.ErrInvalidReplayStep)
	})

	t.Run("Restore policy shows the recorded outcome", func(t *testing.T) {
		settings := multiplayerSettings()
		settings.JumpPolicy = entity.RestoreOutcomeOnJump
		session := newSession(t, settings, nil)
		play(t, session, [2]int{0, 0}, [2]int{1, 0}, [2]int{0, 1}, [2]int{1, 1}, [2]int{0, 2})

		view, err := session.JumpTo(5)
		require.NoError(t, err)

		assert.Equal(t, entity.WinFor(entity.PlayerX), view.ViewOutcome)
	})
}

func TestSession_Statistics(t *testing.T) {
	ctx := context.Background()

	t.Run("Average duration follows the running mean", func(t *testing.T) {
		// Given: a session on a controlled clock
		clock := newFakeClock()
		session := newSession(t, multiplayerSettings(), nil, WithClock(clock.Now))

		// When: the first game takes 1000ms
		play(t, session, [2]int{0, 0}, [2]int{1, 0}, [2]int{0, 1}, [2]int{1, 1})
		clock.Advance(time.Second)
		play(t, session, [2]int{0, 2})

		// Then: the average is 1000ms
		stats := session.Statistics()
		assert.InDelta(t, 1000, stats.AverageDurationMs, 0.001)
		assert.Equal(t, 1, stats.WinsBySide[entity.PlayerX])

		// When: the second game takes 2000ms and ends in a draw
		_, err := session.StartNewGame(ctx)
		require.NoError(t, err)
		play(t, session, [2]int{0, 0}, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 1}, [2]int{1, 0}, [2]int{1, 2}, [2]int{2, 1}, [2]int{2, 0})
		clock.Advance(2 * time.Second)
		play(t, session, [2]int{2, 2})

		// Then: the average is 1500ms
		stats = session.Statistics()
		assert.InDelta(t, 1500, stats.AverageDurationMs, 0.001)
		assert.Equal(t, 2, stats.TotalGames)
		assert.Equal(t, 1, stats.Ties)
		assert.Equal(t, entity.Streak{}, stats.Streak)
	})

	t.Run("Abandoned games are counted but not decided", func(t *testing.T) {
		session := newSession(t, multiplayerSettings(), nil)
		play(t, session, [2]int{0, 0})

		_, err := session.StartNewGame(ctx)
		require.NoError(t, err)

		stats := session.Statistics()
		assert.Equal(t, 2, stats.TotalGames)
		assert.Equal(t, 0, stats.DecidedGames)
	})

	t.Run("Returned statistics are a copy", func(t *testing.T) {
		session := newSession(t, multiplayerSettings(), nil)

		stats := session.Statistics()
		stats.WinsBySide[entity.PlayerX] = 10

		assert.Zero(t, session.Statistics().WinsBySide[entity.PlayerX])
	})
}

func TestSession_Archive(t *testing.T) {
	xWins := [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}}

	t.Run("Finished games are archived", func(t *testing.T) {
		// Given: an archive expecting one finished game
		archive := &mockArchive{}
		archive.On("Save", mock.Anything, mock.MatchedBy(func(game *entity.GameState) bool {
			return game.Outcome == entity.WinFor(entity.PlayerX)
		})).Return(nil).Once()

		session := newSession(t, multiplayerSettings(), archive)

		// When: X wins
		play(t, session, xWins...)

		// Then: the game was handed to the archive
		archive.AssertExpectations(t)
	})

	t.Run("Archive errors do not fail the move", func(t *testing.T) {
		// Given: a failing archive
		archive := &mockArchive{}
		archive.On("Save", mock.Anything, mock.Anything).Return(errStorageIsFull).Once()

		session := newSession(t, multiplayerSettings(), archive)

		// When: the winning move is played
		game := play(t, session, xWins...)

		// Then: the move succeeded and the win was counted
		assert.Equal(t, entity.WinFor(entity.PlayerX), game.Outcome)
		assert.Equal(t, 1, session.Statistics().WinsBySide[entity.PlayerX])
		archive.AssertExpectations(t)
	})

	t.Run("Ongoing games are not archived", func(t *testing.T) {
		archive := &mockArchive{}
		session := newSession(t, multiplayerSettings(), archive)

		play(t, session, [2]int{0, 0})

		archive.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("A slow archive does not block the session", func(t *testing.T) {
		// Given: an archive that holds the save until released
		saving := make(chan struct{})
		release := make(chan struct{})
		archive := &mockArchive{}
		archive.On("Save", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
			close(saving)
			<-release
		}).Return(nil).Once()

		session := newSession(t, multiplayerSettings(), archive)
		play(t, session, xWins[:len(xWins)-1]...)

		// When: the winning move is being archived
		moved := make(chan error, 1)
		go func() {
			last := xWins[len(xWins)-1]
			_, err := session.MakeTurn(context.Background(), last[0], last[1])
			moved <- err
		}()
		<-saving

		// Then: the session still answers and already counts the win
		answered := make(chan entity.Statistics, 1)
		go func() {
			answered <- session.Statistics()
		}()

		select {
		case stats := <-answered:
			assert.Equal(t, 1, stats.WinsBySide[entity.PlayerX])
		case <-time.After(time.Second):
			t.Fatal("session blocked while archiving")
		}

		close(release)
		require.NoError(t, <-moved)
		archive.AssertExpectations(t)
	})
}

func TestSession_Hint(t *testing.T) {
	// Given: X threatens the top row in a multiplayer game
	session := newSession(t, multiplayerSettings(), nil)
	play(t, session, [2]int{0, 0}, [2]int{1, 1}, [2]int{0, 1})

	// When: O asks for a hint
	hint := session.Hint()

	// Then: only the block keeps the game alive
	require.NotEmpty(t, hint)
	for _, scored := range hint {
		if scored.Row == 0 && scored.Col == 2 {
			assert.Equal(t, 0, scored.Score)
			continue
		}
		assert.Equal(t, -1, scored.Score, "move (%d, %d)", scored.Row, scored.Col)
	}
}
