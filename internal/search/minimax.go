package search

import (
	"errors"
	"math"
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

const (
	winScore  = 1
	lossScore = -1
	drawScore = 0

	infinity = math.MaxInt32
)

// Config tunes one search.
type Config struct {
	// DepthLimit is the number of plies searched below the candidate move.
	// entity.NoDepthLimit searches to the end of the game.
	DepthLimit int
	// RandomMoveProbability is the chance to skip the search and play a
	// uniformly random empty cell.
	RandomMoveProbability float64
	// Rand is the random source; nil uses the math/rand global source.
	Rand *rand.Rand
}

// Move is the cell chosen by the search.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ScoredMove is a candidate root move with its minimax value.
type ScoredMove struct {
	Move
	Score int `json:"score"`
}

// BestMove picks the move for side on board. Ties go to the first cell in
// row-major order.
func BestMove(board entity.Board, side entity.Side, cfg Config) (Move, error) {
	empty := board.EmptyCells()
	if len(empty) == 0 {
		return Move{}, ErrNoAvailableMoves
	}

	if cfg.RandomMoveProbability > 0 && cfg.roll() < cfg.RandomMoveProbability {
		cell := empty[cfg.pick(len(empty))]
		return Move{Row: cell.Row, Col: cell.Col}, nil
	}

	best, _ := newSearcher(board, side, cfg.DepthLimit).root(empty, true)

	return best.Move, nil
}

// Evaluate scores every empty cell for side without pruning across root
// moves, so each score is exact.
func Evaluate(board entity.Board, side entity.Side, cfg Config) []ScoredMove {
	empty := board.EmptyCells()
	if len(empty) == 0 {
		return nil
	}

	_, scored := newSearcher(board, side, cfg.DepthLimit).root(empty, false)

	return scored
}

type searcher struct {
	scratch    entity.Board
	maximizer  entity.Side
	depthLimit int
	nodes      int
}

func newSearcher(board entity.Board, maximizer entity.Side, depthLimit int) *searcher {
	return &searcher{
		scratch:    board.Clone(),
		maximizer:  maximizer,
		depthLimit: depthLimit,
	}
}

// root tries each candidate for the maximizer. With shareBounds the alpha
// found so far is passed to later candidates, which may then return a bound
// instead of an exact value; such values never exceed the best score.
func (that *searcher) root(candidates []entity.Position, shareBounds bool) (ScoredMove, []ScoredMove) {
	best := ScoredMove{Score: -infinity}
	scored := make([]ScoredMove, 0, len(candidates))
	alpha := -infinity

	for _, pos := range candidates {
		that.scratch.Set(pos.Row, pos.Col, that.maximizer.Cell())

		bound := -infinity
		if shareBounds {
			bound = alpha
		}
		score := that.minimax(0, false, bound, infinity)

		that.scratch.Set(pos.Row, pos.Col, entity.EmptyCell)

		candidate := ScoredMove{Move: Move{Row: pos.Row, Col: pos.Col}, Score: score}
		scored = append(scored, candidate)

		if score > best.Score {
			best = candidate
		}
		alpha = max(alpha, score)
	}

	return best, scored
}

func (that *searcher) minimax(depth int, maximizing bool, alpha, beta int) int {
	that.nodes++

	if winner, ok := that.scratch.Winner(); ok {
		if winner == that.maximizer {
			return winScore
		}
		return lossScore
	}

	if that.scratch.IsFull() || depth == that.depthLimit {
		return drawScore
	}

	mover := that.maximizer
	bestScore := infinity
	if maximizing {
		bestScore = -infinity
	} else {
		mover = that.maximizer.Opponent()
	}

	size := that.scratch.Size()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if !that.scratch.IsEmpty(row, col) {
				continue
			}

			that.scratch.Set(row, col, mover.Cell())
			score := that.minimax(depth+1, !maximizing, alpha, beta)
			that.scratch.Set(row, col, entity.EmptyCell)

			if maximizing {
				bestScore = max(bestScore, score)
				alpha = max(alpha, score)
			} else {
				bestScore = min(bestScore, score)
				beta = min(beta, score)
			}

			if beta <= alpha {
				return bestScore
			}
		}
	}

	return bestScore
}

func (that Config) roll() float64 {
	if that.Rand != nil {
		return that.Rand.Float64()
	}
	return rand.Float64() //nolint: gosec // move variety, not security
}

func (that Config) pick(n int) int {
	if that.Rand != nil {
		return that.Rand.Intn(n)
	}
	return rand.Intn(n) //nolint: gosec // move variety, not security
}
