package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
	"github.com/rocketscienceinc/tictactoe-grid/internal/tictactoe"
)

type roundHistory interface {
	Rounds(ctx context.Context, boardID string, limit int) ([]*entity.RoundRecord, error)
}

// GameManager keeps the boards of the process and routes every request to its board.
type GameManager struct {
	logger  *slog.Logger
	history roundHistory

	mu     sync.RWMutex
	boards map[string]*tictactoe.Board
	order  []string
}

func NewGameManager(logger *slog.Logger, history roundHistory) *GameManager {
	return &GameManager{
		logger:  logger.With("component", "game_manager"),
		history: history,
		boards:  make(map[string]*tictactoe.Board),
	}
}

// AddBoard - creates a board and makes it reachable by id.
func (that *GameManager) AddBoard(id string, size int, opts ...tictactoe.Option) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.boards[id]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrBoardExists, id)
	}

	board, err := tictactoe.NewBoard(id, size, opts...)
	if err != nil {
		return fmt.Errorf("failed to create board %s: %w", id, err)
	}

	that.boards[id] = board
	that.order = append(that.order, id)

	that.logger.Info("board added", "boardID", id, "size", size)

	return nil
}

// ActivateCell - forwards a click to the board and returns the board after it.
func (that *GameManager) ActivateCell(_ context.Context, boardID string, index int) (tictactoe.ClickResult, entity.Snapshot, error) {
	board, err := that.getBoard(boardID)
	if err != nil {
		return tictactoe.ClickInvalidIndex, entity.Snapshot{}, err
	}

	result, err := board.HandleClick(index)
	if err != nil {
		return result, board.Snapshot(), fmt.Errorf("failed to activate cell: %w", err)
	}

	if result == tictactoe.ClickClosed {
		return result, board.Snapshot(), apperror.ErrBoardClosed
	}

	return result, board.Snapshot(), nil
}

func (that *GameManager) Highlight(boardID string, index int, on bool) (tictactoe.Preview, error) {
	board, err := that.getBoard(boardID)
	if err != nil {
		return tictactoe.Preview{Index: index}, err
	}

	preview, err := board.HighlightPreview(index, on)
	if err != nil {
		return preview, fmt.Errorf("failed to highlight cell: %w", err)
	}

	return preview, nil
}

func (that *GameManager) ResetRound(boardID string) (entity.Snapshot, error) {
	board, err := that.getBoard(boardID)
	if err != nil {
		return entity.Snapshot{}, err
	}

	if board.IsClosed() {
		return board.Snapshot(), apperror.ErrBoardClosed
	}

	board.ResetRound()

	return board.Snapshot(), nil
}

func (that *GameManager) Snapshot(boardID string) (entity.Snapshot, error) {
	board, err := that.getBoard(boardID)
	if err != nil {
		return entity.Snapshot{}, err
	}

	return board.Snapshot(), nil
}

// List - returns every board in the order it was added.
func (that *GameManager) List() []entity.Snapshot {
	that.mu.RLock()
	boards := make([]*tictactoe.Board, 0, len(that.order))
	for _, id := range that.order {
		boards = append(boards, that.boards[id])
	}
	that.mu.RUnlock()

	snapshots := make([]entity.Snapshot, 0, len(boards))
	for _, board := range boards {
		snapshots = append(snapshots, board.Snapshot())
	}

	return snapshots
}

// Rounds - returns the latest finished rounds of a board, newest first.
func (that *GameManager) Rounds(ctx context.Context, boardID string, limit int) ([]*entity.RoundRecord, error) {
	if _, err := that.getBoard(boardID); err != nil {
		return nil, err
	}

	if that.history == nil {
		return []*entity.RoundRecord{}, nil
	}

	records, err := that.history.Rounds(ctx, boardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}

	return records, nil
}

// Close - closes every board. Pending clear and restart timers are dropped.
func (that *GameManager) Close() {
	log := that.logger.With("method", "Close")

	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, id := range that.order {
		that.boards[id].Close()
	}

	log.Info("boards closed", "count", len(that.order))
}

func (that *GameManager) getBoard(id string) (*tictactoe.Board, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	board, ok := that.boards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrBoardNotFound, id)
	}

	return board, nil
}

// IsClientError - reports whether err was caused by the request rather than the server.
func IsClientError(err error) bool {
	return errors.Is(err, apperror.ErrInvalidIndex) ||
		errors.Is(err, apperror.ErrBoardNotFound) ||
		errors.Is(err, apperror.ErrBoardClosed)
}
