package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
	"github.com/rocketscienceinc/tictactoe-grid/internal/tictactoe"
)

const (
	actionWatch     = "board:watch"
	actionState     = "board:state"
	actionActivate  = "cell:activate"
	actionHighlight = "cell:highlight"
	actionEvent     = "event"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload carries both requests and replies; only the fields an action needs are set.
type Payload struct {
	BoardID string `json:"board_id,omitempty"`
	Index   *int   `json:"index,omitempty"`
	On      *bool  `json:"on,omitempty"`

	Board   *entity.Snapshot       `json:"board,omitempty"`
	Result  *tictactoe.ClickResult `json:"result,omitempty"`
	Preview *tictactoe.Preview     `json:"preview,omitempty"`
	Event   *entity.Event          `json:"event,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
