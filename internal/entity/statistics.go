package entity

// Streak is the run of consecutive wins by one side. A draw resets it.
type Streak struct {
	Side   Side `json:"side,omitempty"`
	Length int  `json:"length"`
}

// Statistics accumulate over the games of one session.
type Statistics struct {
	TotalGames        int          `json:"total_games"`
	WinsBySide        map[Side]int `json:"wins_by_side"`
	Ties              int          `json:"ties"`
	AverageDurationMs float64      `json:"average_duration_ms"`
	// DecidedGames counts games whose outcome has been recorded. It weights
	// the running mean.
	DecidedGames int    `json:"decided_games"`
	Streak       Streak `json:"streak"`
}

func NewStatistics() Statistics {
	return Statistics{
		WinsBySide: map[Side]int{PlayerX: 0, PlayerO: 0},
	}
}

func (that *Statistics) GameStarted() {
	that.TotalGames++
}

// RecordOutcome counts a finished game. Ongoing outcomes are ignored.
func (that *Statistics) RecordOutcome(outcome Outcome, durationMs float64) {
	switch outcome.Status {
	case StatusWon:
		if that.WinsBySide == nil {
			that.WinsBySide = map[Side]int{}
		}
		that.WinsBySide[outcome.Winner]++

		if that.Streak.Side == outcome.Winner {
			that.Streak.Length++
		} else {
			that.Streak = Streak{Side: outcome.Winner, Length: 1}
		}
	case StatusDraw:
		that.Ties++
		that.Streak = Streak{}
	default:
		return
	}

	n := float64(that.DecidedGames)
	that.AverageDurationMs = (that.AverageDurationMs*n + durationMs) / (n + 1)
	that.DecidedGames++
}

// Leader is the side with more wins; false on equal counts.
func (that Statistics) Leader() (Side, bool) {
	x, o := that.WinsBySide[PlayerX], that.WinsBySide[PlayerO]
	switch {
	case x > o:
		return PlayerX, true
	case o > x:
		return PlayerO, true
	default:
		return "", false
	}
}

func (that Statistics) Clone() Statistics {
	clone := that
	clone.WinsBySide = make(map[Side]int, len(that.WinsBySide))
	for side, wins := range that.WinsBySide {
		clone.WinsBySide[side] = wins
	}
	return clone
}
