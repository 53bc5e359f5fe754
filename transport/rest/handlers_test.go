package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
	"github.com/rocketscienceinc/tictactoe-grid/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-grid/internal/usecase"
)

type stubHistory struct {
	records []*entity.RoundRecord
	err     error
	limit   int
}

func (that *stubHistory) Rounds(_ context.Context, _ string, limit int) ([]*entity.RoundRecord, error) {
	that.limit = limit
	return that.records, that.err
}

func newTestRouter(t *testing.T, history *stubHistory) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	manager := usecase.NewGameManager(logger, history)
	require.NoError(t, manager.AddBoard("classic", 3, tictactoe.WithClock(clock.NewMock())))
	t.Cleanup(manager.Close)

	return NewRouter(NewHandlers(logger, manager))
}

func do(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, target, nil))

	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &v))

	return v
}

func TestHandlers_Ping(t *testing.T) {
	router := newTestRouter(t, &stubHistory{})

	recorder := do(t, router, http.MethodGet, "/ping")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestHandlers_Boards(t *testing.T) {
	t.Run("Lists every board", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})

		recorder := do(t, router, http.MethodGet, "/api/boards")

		require.Equal(t, http.StatusOK, recorder.Code)
		boards := decode[[]entity.Snapshot](t, recorder)
		require.Len(t, boards, 1)
		assert.Equal(t, "classic", boards[0].ID)
		assert.Len(t, boards[0].Cells, 9)
	})

	t.Run("Returns one board", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})

		recorder := do(t, router, http.MethodGet, "/api/boards/classic")

		require.Equal(t, http.StatusOK, recorder.Code)
		board := decode[entity.Snapshot](t, recorder)
		assert.Equal(t, 1, board.Round)
		assert.Equal(t, entity.Player1, board.CurrentPlayer)
		assert.Equal(t, entity.StatusInProgress, board.Outcome.Status)
	})

	t.Run("Returns 404 for an unknown board", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})

		recorder := do(t, router, http.MethodGet, "/api/boards/nope")

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Contains(t, decode[errorResponse](t, recorder).Error, "board not found")
	})
}

func TestHandlers_ActivateCell(t *testing.T) {
	t.Run("Claims a cell", func(t *testing.T) {
		// Given: a fresh board
		router := newTestRouter(t, &stubHistory{})

		// When: cell 4 is activated
		recorder := do(t, router, http.MethodPost, "/api/boards/classic/cells/4")

		// Then: the cell belongs to player 1 and the turn moved on
		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			Result string          `json:"result"`
			Board  entity.Snapshot `json:"board"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "claimed", response.Result)
		assert.Equal(t, entity.Player1, response.Board.Cells[4])
		assert.Equal(t, entity.Player2, response.Board.CurrentPlayer)
	})

	t.Run("Reports an owned cell", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})
		require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/boards/classic/cells/4").Code)

		recorder := do(t, router, http.MethodPost, "/api/boards/classic/cells/4")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `"cell_owned"`, string(decode[map[string]json.RawMessage](t, recorder)["result"]))
	})

	t.Run("Returns 400 for an out of range index", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})

		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/boards/classic/cells/9").Code)
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/boards/classic/cells/-1").Code)
	})

	t.Run("Returns 404 for an unknown board", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})

		recorder := do(t, router, http.MethodPost, "/api/boards/nope/cells/0")

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Rejects GET", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})

		recorder := do(t, router, http.MethodGet, "/api/boards/classic/cells/0")

		assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	})

	t.Run("Keeps 404 for an unknown path", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})

		assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/boards/classic/cells/x").Code)
		assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/nothing").Code)
	})
}

func TestHandlers_ResetRound(t *testing.T) {
	router := newTestRouter(t, &stubHistory{})
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/boards/classic/cells/0").Code)

	recorder := do(t, router, http.MethodPost, "/api/boards/classic/reset")

	require.Equal(t, http.StatusOK, recorder.Code)
	board := decode[entity.Snapshot](t, recorder)
	assert.Equal(t, 2, board.Round)
	assert.Equal(t, entity.Unclaimed, board.Cells[0])
}

func TestHandlers_ClosedBoard(t *testing.T) {
	// Given: a manager whose boards are closed
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, &stubHistory{})
	require.NoError(t, manager.AddBoard("classic", 3, tictactoe.WithClock(clock.NewMock())))
	manager.Close()

	router := NewRouter(NewHandlers(logger, manager))

	// When: a cell is activated
	recorder := do(t, router, http.MethodPost, "/api/boards/classic/cells/0")

	// Then: the request is rejected as a conflict with the error text
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, decode[errorResponse](t, recorder).Error, "board is closed")
}

func TestHandlers_ResetRound_RejectsGET(t *testing.T) {
	router := newTestRouter(t, &stubHistory{})

	recorder := do(t, router, http.MethodGet, "/api/boards/classic/reset")

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestHandlers_ListRounds(t *testing.T) {
	t.Run("Returns history with the default limit", func(t *testing.T) {
		history := &stubHistory{records: []*entity.RoundRecord{
			{BoardID: "classic", Round: 1, Outcome: entity.Outcome{Status: entity.StatusDraw}},
		}}
		router := newTestRouter(t, history)

		recorder := do(t, router, http.MethodGet, "/api/boards/classic/rounds")

		require.Equal(t, http.StatusOK, recorder.Code)
		records := decode[[]entity.RoundRecord](t, recorder)
		require.Len(t, records, 1)
		assert.Equal(t, entity.StatusDraw, records[0].Outcome.Status)
		assert.Equal(t, defaultRoundsLimit, history.limit)
	})

	t.Run("Passes the limit", func(t *testing.T) {
		history := &stubHistory{}
		router := newTestRouter(t, history)

		recorder := do(t, router, http.MethodGet, "/api/boards/classic/rounds?limit=5")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 5, history.limit)
	})

	t.Run("Returns 400 for a bad limit", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{})

		recorder := do(t, router, http.MethodGet, "/api/boards/classic/rounds?limit=zero")

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Returns 500 when the history fails", func(t *testing.T) {
		router := newTestRouter(t, &stubHistory{err: errors.New("redis down")})

		recorder := do(t, router, http.MethodGet, "/api/boards/classic/rounds")

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), decode[errorResponse](t, recorder).Error)
	})
}
