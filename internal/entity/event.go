package entity

import "time"

// EventType names a notification sent from a board to the presentation host.
type EventType string

const (
	EventCellOwnerChanged EventType = "cell:owner_changed"
	EventCellHighlight    EventType = "cell:highlight"
	EventWinLineDetected  EventType = "round:win_line"
	EventRoundEnded       EventType = "round:ended"
	EventScoreChanged     EventType = "score:changed"
	EventBoardCleared     EventType = "board:cleared"
	EventRoundReset       EventType = "round:reset"
	EventClickRejected    EventType = "click:rejected"
)

// Event is the single outbound notification shape. Only the fields relevant to Type are set.
type Event struct {
	Type    EventType `json:"type"`
	BoardID string    `json:"board_id"`
	Round   int       `json:"round"`
	At      time.Time `json:"at"`

	Index   *int     `json:"index,omitempty"`
	Player  Player   `json:"player,omitempty"`
	Line    Line     `json:"line,omitempty"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Moves   []int    `json:"moves,omitempty"`
	Score   *int     `json:"score,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// Snapshot is a read-only copy of a board for transports.
type Snapshot struct {
	ID            string   `json:"id"`
	Size          int      `json:"size"`
	Round         int      `json:"round"`
	Cells         []Player `json:"cells"`
	CurrentPlayer Player   `json:"current_player"`
	Outcome       Outcome  `json:"outcome"`
	Scores        Scores   `json:"scores"`
	Cleared       bool     `json:"cleared"`
}

// RoundRecord is a finished round as kept in the round history.
type RoundRecord struct {
	BoardID    string    `json:"board_id"`
	Round      int       `json:"round"`
	Outcome    Outcome   `json:"outcome"`
	Moves      []int     `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}
