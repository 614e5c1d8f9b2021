package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/search"
)

const recentGamesLimit = 5

var (
	errQuit           = errors.New("quit")
	errUnknownCommand = errors.New("unknown command, type help")
	errUsage          = errors.New("wrong arguments")
)

type uSession interface {
	StartNewGame(ctx context.Context) (*entity.GameState, error)
	MakeTurn(ctx context.Context, row, col int) (*entity.GameState, error)

	ComputerMovePending() bool
	PlayComputerTurn(ctx context.Context) (*entity.GameState, search.Move, error)

	JumpTo(step int) (*entity.GameState, error)
	Hint() []search.ScoredMove

	State() *entity.GameState
	Statistics() entity.Statistics
}

type uArchive interface {
	RecentGames(ctx context.Context, limit int) ([]*entity.GameState, error)
}

type handler func(ctx context.Context, args []string, out io.Writer) error

// Server plays a session through line commands.
type Server struct {
	logger   *slog.Logger
	uSession uSession
	uArchive uArchive

	handlers map[string]handler
}

// New builds the console front-end. archive may be nil, then the games
// command is not available.
func New(logger *slog.Logger, uSession uSession, uArchive uArchive) *Server {
	server := &Server{
		logger:   logger.With("component", "console"),
		uSession: uSession,
		uArchive: uArchive,

		handlers: make(map[string]handler),
	}

	server.handlers["move"] = server.handleMove
	server.handlers["m"] = server.handleMove
	server.handlers["jump"] = server.handleJump
	server.handlers["new"] = server.handleNewGame
	server.handlers["board"] = server.handleBoard
	server.handlers["history"] = server.handleHistory
	server.handlers["hint"] = server.handleHint
	server.handlers["stats"] = server.handleStats
	server.handlers["help"] = server.handleHelp
	server.handlers["quit"] = server.handleQuit
	server.handlers["exit"] = server.handleQuit

	if uArchive != nil {
		server.handlers["games"] = server.handleGames
	}

	return server
}

// Start reads commands from in until quit, EOF or ctx is done.
func (that *Server) Start(ctx context.Context, in io.Reader, out io.Writer) error {
	log := that.logger.With("method", "Start")

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	if that.uSession.ComputerMovePending() {
		if err := that.playPendingComputerTurn(ctx, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	} else {
		writeGame(out, that.uSession.State())
	}
	fmt.Fprint(out, "> ")

	for {
		select {
		case <-ctx.Done():
			log.Info("console stopped", "reason", ctx.Err())
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read command: %w", err)
					}
				default:
				}
				return nil
			}

			err := that.dispatch(ctx, line, out)
			if errors.Is(err, errQuit) {
				return nil
			}

			if err != nil {
				log.Debug("command failed", "command", line, "error", err)
				fmt.Fprintf(out, "error: %v\n", err)
			}
			fmt.Fprint(out, "> ")
		}
	}
}

func (that *Server) dispatch(ctx context.Context, line string, out io.Writer) error {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil
	}

	handle, ok := that.handlers[fields[0]]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownCommand, fields[0])
	}

	return handle(ctx, fields[1:], out)
}

func (that *Server) handleMove(ctx context.Context, args []string, out io.Writer) error {
	numbers, err := parseInts(args, 2)
	if err != nil {
		return fmt.Errorf("%w: move <row> <col>", err)
	}

	game, err := that.uSession.MakeTurn(ctx, numbers[0], numbers[1])
	if err != nil {
		return err
	}

	if that.uSession.ComputerMovePending() {
		return that.playPendingComputerTurn(ctx, out)
	}

	writeGame(out, game)

	return nil
}

func (that *Server) handleJump(_ context.Context, args []string, out io.Writer) error {
	numbers, err := parseInts(args, 1)
	if err != nil {
		return fmt.Errorf("%w: jump <step>", err)
	}

	game, err := that.uSession.JumpTo(numbers[0])
	if err != nil {
		return err
	}

	writeGame(out, game)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, _ []string, out io.Writer) error {
	game, err := that.uSession.StartNewGame(ctx)
	if err != nil {
		return err
	}

	if that.uSession.ComputerMovePending() {
		return that.playPendingComputerTurn(ctx, out)
	}

	writeGame(out, game)

	return nil
}

func (that *Server) handleBoard(_ context.Context, _ []string, out io.Writer) error {
	writeGame(out, that.uSession.State())
	return nil
}

func (that *Server) handleHistory(_ context.Context, _ []string, out io.Writer) error {
	fmt.Fprint(out, renderHistory(that.uSession.State()))
	return nil
}

func (that *Server) handleHint(_ context.Context, _ []string, out io.Writer) error {
	scored := that.uSession.Hint()
	if len(scored) == 0 {
		fmt.Fprintln(out, "no moves left")
		return nil
	}

	best := scored[0]
	for _, candidate := range scored {
		fmt.Fprintf(out, "(%d, %d): %+d\n", candidate.Row, candidate.Col, candidate.Score)
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	fmt.Fprintf(out, "suggested: move %d %d\n", best.Row, best.Col)

	return nil
}

func (that *Server) handleStats(_ context.Context, _ []string, out io.Writer) error {
	fmt.Fprint(out, renderStatistics(that.uSession.Statistics()))
	return nil
}

func (that *Server) handleGames(ctx context.Context, _ []string, out io.Writer) error {
	games, err := that.uArchive.RecentGames(ctx, recentGamesLimit)
	if err != nil {
		return fmt.Errorf("failed to load archived games: %w", err)
	}

	if len(games) == 0 {
		fmt.Fprintln(out, "no archived games")
		return nil
	}

	for _, game := range games {
		fmt.Fprintf(out, "%s  %dx%d  %s  %d moves  %s\n",
			game.ID, game.Size, game.Size, game.Outcome, game.MovesPlayed(), game.Duration())
	}

	return nil
}

func (that *Server) handleHelp(_ context.Context, _ []string, out io.Writer) error {
	fmt.Fprintln(out, "move <row> <col>  play a mark (rows and columns start at 0)")
	fmt.Fprintln(out, "jump <step>       show the board after that step")
	fmt.Fprintln(out, "new               start a new game")
	fmt.Fprintln(out, "board             show the board")
	fmt.Fprintln(out, "history           list the moves of this game")
	fmt.Fprintln(out, "hint              score every free cell")
	fmt.Fprintln(out, "stats             show the session statistics")
	if that.uArchive != nil {
		fmt.Fprintln(out, "games             list recently finished games")
	}
	fmt.Fprintln(out, "quit              leave")
	return nil
}

func (that *Server) handleQuit(context.Context, []string, io.Writer) error {
	return errQuit
}

func (that *Server) playPendingComputerTurn(ctx context.Context, out io.Writer) error {
	if !that.uSession.ComputerMovePending() {
		return nil
	}

	fmt.Fprintln(out, "computer is thinking...")

	game, move, err := that.uSession.PlayComputerTurn(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "computer plays %d %d\n", move.Row, move.Col)
	writeGame(out, game)

	return nil
}

func parseInts(args []string, count int) ([]int, error) {
	if len(args) != count {
		return nil, errUsage
	}

	numbers := make([]int, count)
	for i, arg := range args {
		number, err := strconv.Atoi(arg)
		if err != nil {
			return nil, errUsage
		}
		numbers[i] = number
	}

	return numbers, nil
}
