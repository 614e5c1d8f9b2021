package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const emptyMark = "."

// renderBoard draws the board with row and column indexes.
func renderBoard(board entity.Board) string {
	var sb strings.Builder

	sb.WriteString("  ")
	for col := 0; col < board.Size(); col++ {
		fmt.Fprintf(&sb, " %d", col)
	}
	sb.WriteString("\n")

	for row, cells := range board.Rows() {
		fmt.Fprintf(&sb, "%d ", row)
		for _, cell := range cells {
			mark := string(cell)
			if cell == entity.EmptyCell {
				mark = emptyMark
			}
			sb.WriteString(" " + mark)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderStatus describes the shown step of the game.
func renderStatus(game *entity.GameState) string {
	var status string

	switch outcome := game.ViewOutcome; {
	case outcome.Status == entity.StatusWon:
		status = fmt.Sprintf("%s wins", outcome.Winner)
	case outcome.Status == entity.StatusDraw:
		status = "draw"
	case game.Current().CurrentPlayer == "":
		status = "game over"
	default:
		status = fmt.Sprintf("%s to move", game.Current().CurrentPlayer)
	}

	if game.StepNumber != game.MovesPlayed() {
		status += fmt.Sprintf(" (viewing step %d of %d)", game.StepNumber, game.MovesPlayed())
	}

	return status
}

func writeGame(out io.Writer, game *entity.GameState) {
	fmt.Fprint(out, renderBoard(game.Board()))
	fmt.Fprintln(out, renderStatus(game))
}

func renderStatistics(stats entity.Statistics) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "games: %d\n", stats.TotalGames)
	fmt.Fprintf(&sb, "X wins: %d\n", stats.WinsBySide[entity.PlayerX])
	fmt.Fprintf(&sb, "O wins: %d\n", stats.WinsBySide[entity.PlayerO])
	fmt.Fprintf(&sb, "ties: %d\n", stats.Ties)
	fmt.Fprintf(&sb, "average duration: %.0fms\n", stats.AverageDurationMs)

	if leader, ok := stats.Leader(); ok {
		fmt.Fprintf(&sb, "best player: %s\n", leader)
	}

	if stats.Streak.Length > 1 {
		fmt.Fprintf(&sb, "hot streak: %s x%d\n", stats.Streak.Side, stats.Streak.Length)
	}

	return sb.String()
}

func renderHistory(game *entity.GameState) string {
	var sb strings.Builder

	for step, record := range game.History {
		marker := " "
		if step == game.StepNumber {
			marker = ">"
		}

		if record.IsStart() {
			fmt.Fprintf(&sb, "%s %d: start\n", marker, step)
			continue
		}
		fmt.Fprintf(&sb, "%s %d: %s at (%d, %d)\n", marker, step, record.Side, record.Row, record.Col)
	}

	return sb.String()
}
