package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
	"github.com/rocketscienceinc/tictactoe-grid/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-grid/internal/usecase"
)

const readTimeout = 2 * time.Second

type reply struct {
	Action  string
	Payload struct {
		BoardID string             `json:"board_id"`
		Board   *entity.Snapshot   `json:"board"`
		Result  string             `json:"result"`
		Preview *tictactoe.Preview `json:"preview"`
		Event   *entity.Event      `json:"event"`
		Error   string             `json:"error"`
	}
}

func newTestServer(t *testing.T) string {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger)
	go hub.Run(ctx)

	manager := usecase.NewGameManager(logger, nil)
	require.NoError(t, manager.AddBoard("classic", 3, tictactoe.WithNotifier(hub), tictactoe.WithClock(clock.NewMock())))
	t.Cleanup(manager.Close)

	return serve(ctx, t, logger, manager, hub)
}

func serve(ctx context.Context, t *testing.T, logger *slog.Logger, manager gameManager, hub *Hub) string {
	t.Helper()

	ts := httptest.NewServer(New(logger, manager, hub).Handler(ctx))
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

type failingManager struct {
	err error
}

func (that *failingManager) Snapshot(string) (entity.Snapshot, error) {
	return entity.Snapshot{}, that.err
}

func (that *failingManager) ActivateCell(context.Context, string, int) (tictactoe.ClickResult, entity.Snapshot, error) {
	return tictactoe.ClickClaimed, entity.Snapshot{}, that.err
}

func (that *failingManager) Highlight(string, int, bool) (tictactoe.Preview, error) {
	return tictactoe.Preview{}, that.err
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: payloadJSON}))
}

func receive(t *testing.T, conn *websocket.Conn) reply {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var r reply
	require.NoError(t, conn.ReadJSON(&r))

	return r
}

func TestServer_Watch(t *testing.T) {
	t.Run("Replies with the board snapshot", func(t *testing.T) {
		conn := dial(t, newTestServer(t))

		// When: the client watches the classic board
		send(t, conn, actionWatch, map[string]any{"board_id": "classic"})

		// Then: the snapshot comes back on the same action
		r := receive(t, conn)
		assert.Equal(t, actionWatch, r.Action)
		require.NotNil(t, r.Payload.Board)
		assert.Equal(t, "classic", r.Payload.Board.ID)
		assert.Len(t, r.Payload.Board.Cells, 9)
	})

	t.Run("Replies with an error for an unknown board", func(t *testing.T) {
		conn := dial(t, newTestServer(t))

		send(t, conn, actionWatch, map[string]any{"board_id": "nope"})

		r := receive(t, conn)
		assert.Equal(t, actionWatch, r.Action)
		assert.Contains(t, r.Payload.Error, "board not found")
	})

	t.Run("Replies with an error without a board id", func(t *testing.T) {
		conn := dial(t, newTestServer(t))

		send(t, conn, actionState, map[string]any{})

		r := receive(t, conn)
		assert.Equal(t, actionState, r.Action)
		assert.Equal(t, "board_id is required", r.Payload.Error)
	})
}

func TestServer_Activate(t *testing.T) {
	t.Run("Watcher receives the event before the reply", func(t *testing.T) {
		conn := dial(t, newTestServer(t))

		// Given: a client watching the board
		send(t, conn, actionWatch, map[string]any{"board_id": "classic"})
		receive(t, conn)

		// When: the same client activates cell 4
		send(t, conn, actionActivate, map[string]any{"board_id": "classic", "index": 4})

		// Then: the owner change is pushed, then the click is answered
		event := receive(t, conn)
		assert.Equal(t, actionEvent, event.Action)
		require.NotNil(t, event.Payload.Event)
		assert.Equal(t, entity.EventCellOwnerChanged, event.Payload.Event.Type)
		assert.Equal(t, entity.Player1, event.Payload.Event.Player)

		r := receive(t, conn)
		assert.Equal(t, actionActivate, r.Action)
		assert.Equal(t, "claimed", r.Payload.Result)
		require.NotNil(t, r.Payload.Board)
		assert.Equal(t, entity.Player2, r.Payload.Board.CurrentPlayer)
	})

	t.Run("Other watchers receive the events", func(t *testing.T) {
		url := newTestServer(t)
		watcher := dial(t, url)
		player := dial(t, url)

		send(t, watcher, actionWatch, map[string]any{"board_id": "classic"})
		receive(t, watcher)

		// When: another connection plays a whole winning round
		for _, index := range []int{0, 3, 1, 4, 2} {
			send(t, player, actionActivate, map[string]any{"board_id": "classic", "index": index})
			assert.Equal(t, "claimed", receive(t, player).Payload.Result)
		}

		// Then: the watcher sees the round end with the winning line
		var types []entity.EventType
		var ended *entity.Event
		for len(types) < 8 {
			r := receive(t, watcher)
			require.Equal(t, actionEvent, r.Action)
			types = append(types, r.Payload.Event.Type)
			if r.Payload.Event.Type == entity.EventRoundEnded {
				ended = r.Payload.Event
			}
		}

		assert.Equal(t, []entity.EventType{
			entity.EventCellOwnerChanged,
			entity.EventCellOwnerChanged,
			entity.EventCellOwnerChanged,
			entity.EventCellOwnerChanged,
			entity.EventCellOwnerChanged,
			entity.EventWinLineDetected,
			entity.EventScoreChanged,
			entity.EventRoundEnded,
		}, types)
		require.NotNil(t, ended)
		assert.Equal(t, entity.Line{0, 1, 2}, ended.Outcome.Line)
	})

	t.Run("Replies with an error for an out of range index", func(t *testing.T) {
		conn := dial(t, newTestServer(t))

		send(t, conn, actionActivate, map[string]any{"board_id": "classic", "index": 42})

		r := receive(t, conn)
		assert.Equal(t, actionActivate, r.Action)
		assert.Contains(t, r.Payload.Error, "invalid cell index")
	})

	t.Run("Replies with an error without an index", func(t *testing.T) {
		conn := dial(t, newTestServer(t))

		send(t, conn, actionActivate, map[string]any{"board_id": "classic"})

		assert.Equal(t, "index is required", receive(t, conn).Payload.Error)
	})
}

func TestServer_Highlight(t *testing.T) {
	conn := dial(t, newTestServer(t))

	send(t, conn, actionHighlight, map[string]any{"board_id": "classic", "index": 8})

	r := receive(t, conn)
	assert.Equal(t, actionHighlight, r.Action)
	require.NotNil(t, r.Payload.Preview)
	assert.True(t, r.Payload.Preview.Changed)
	assert.Equal(t, entity.Player1, r.Payload.Preview.Mark)
}

func TestServer_UnknownAction(t *testing.T) {
	conn := dial(t, newTestServer(t))

	send(t, conn, "game:new", map[string]any{})

	r := receive(t, conn)
	assert.Equal(t, "game:new", r.Action)
	assert.Equal(t, "unknown action", r.Payload.Error)
}

func TestServer_Failures(t *testing.T) {
	newFailingServer := func(t *testing.T, err error) string {
		t.Helper()

		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)

		hub := NewHub(logger)
		go hub.Run(ctx)

		return serve(ctx, t, logger, &failingManager{err: err}, hub)
	}

	t.Run("Hides server errors", func(t *testing.T) {
		// Given: a manager failing with an internal error
		conn := dial(t, newFailingServer(t, errors.New("redis: connection refused")))

		// When: the client activates a cell
		send(t, conn, actionActivate, map[string]any{"board_id": "classic", "index": 0})

		// Then: the reply carries a generic message only
		r := receive(t, conn)
		assert.Equal(t, actionActivate, r.Action)
		assert.Equal(t, internalErrorMsg, r.Payload.Error)
	})

	t.Run("Passes request errors through", func(t *testing.T) {
		conn := dial(t, newFailingServer(t, fmt.Errorf("%w: classic", apperror.ErrBoardClosed)))

		send(t, conn, actionHighlight, map[string]any{"board_id": "classic", "index": 0})

		r := receive(t, conn)
		assert.Equal(t, actionHighlight, r.Action)
		assert.Contains(t, r.Payload.Error, apperror.ErrBoardClosed.Error())
	})
}
