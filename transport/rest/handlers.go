package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
	"github.com/rocketscienceinc/tictactoe-grid/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-grid/internal/usecase"
)

const defaultRoundsLimit = 20

type Handlers interface {
	Ping(w http.ResponseWriter, _ *http.Request)

	ListBoards(w http.ResponseWriter, r *http.Request)
	GetBoard(w http.ResponseWriter, r *http.Request)
	ActivateCell(w http.ResponseWriter, r *http.Request)
	ResetRound(w http.ResponseWriter, r *http.Request)
	ListRounds(w http.ResponseWriter, r *http.Request)
}

type gameManager interface {
	List() []entity.Snapshot
	Snapshot(boardID string) (entity.Snapshot, error)
	ActivateCell(ctx context.Context, boardID string, index int) (tictactoe.ClickResult, entity.Snapshot, error)
	ResetRound(boardID string) (entity.Snapshot, error)
	Rounds(ctx context.Context, boardID string, limit int) ([]*entity.RoundRecord, error)
}

type handlers struct {
	logger      *slog.Logger
	gameManager gameManager
}

func NewHandlers(logger *slog.Logger, gameManager gameManager) Handlers {
	return &handlers{
		logger:      logger.With("component", "rest"),
		gameManager: gameManager,
	}
}

type activateResponse struct {
	Result tictactoe.ClickResult `json:"result"`
	Board  entity.Snapshot       `json:"board"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}

func (that *handlers) ListBoards(w http.ResponseWriter, _ *http.Request) {
	that.jsonResp(w, http.StatusOK, that.gameManager.List())
}

func (that *handlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.gameManager.Snapshot(mux.Vars(r)["id"])
	if err != nil {
		that.errorResp(w, "GetBoard", err)
		return
	}

	that.jsonResp(w, http.StatusOK, snapshot)
}

func (that *handlers) ActivateCell(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		that.jsonResp(w, http.StatusBadRequest, errorResponse{Error: "cell index must be a number"})
		return
	}

	result, snapshot, err := that.gameManager.ActivateCell(r.Context(), vars["id"], index)
	if err != nil {
		that.errorResp(w, "ActivateCell", err)
		return
	}

	that.jsonResp(w, http.StatusOK, activateResponse{Result: result, Board: snapshot})
}

func (that *handlers) ResetRound(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.gameManager.ResetRound(mux.Vars(r)["id"])
	if err != nil {
		that.errorResp(w, "ResetRound", err)
		return
	}

	that.jsonResp(w, http.StatusOK, snapshot)
}

func (that *handlers) ListRounds(w http.ResponseWriter, r *http.Request) {
	limit := defaultRoundsLimit

	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			that.jsonResp(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive number"})
			return
		}

		limit = parsed
	}

	records, err := that.gameManager.Rounds(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		that.errorResp(w, "ListRounds", err)
		return
	}

	if records == nil {
		records = []*entity.RoundRecord{}
	}

	that.jsonResp(w, http.StatusOK, records)
}

func (that *handlers) errorResp(w http.ResponseWriter, method string, err error) {
	if !usecase.IsClientError(err) {
		that.logger.Error("request failed", "method", method, "error", err)
		that.jsonResp(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		return
	}

	status := http.StatusBadRequest

	switch {
	case errors.Is(err, apperror.ErrBoardNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrBoardClosed):
		status = http.StatusConflict
	}

	that.jsonResp(w, status, errorResponse{Error: err.Error()})
}

func (that *handlers) jsonResp(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
