package tictactoe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
)

var ErrUnknownStarter = errors.New("unknown starter policy")

// ClickResult tells the input host what a click did.
type ClickResult uint8

const (
	ClickClaimed ClickResult = iota
	ClickCellOwned
	ClickRoundOver
	ClickClosed
	ClickInvalidIndex
)

func (that ClickResult) String() string {
	switch that {
	case ClickClaimed:
		return "claimed"
	case ClickCellOwned:
		return "cell_owned"
	case ClickRoundOver:
		return "round_over"
	case ClickClosed:
		return "closed"
	default:
		return "invalid_index"
	}
}

func (that ClickResult) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

// Preview is the hover hint for a cell. Mark is Unclaimed when the base look should be shown.
type Preview struct {
	Index   int           `json:"index"`
	Mark    entity.Player `json:"mark"`
	Changed bool          `json:"changed"`
}

// Board owns the cells of one NxN grid, the turn, the scores and the round lifecycle.
// All methods are safe for concurrent use; each one runs to completion under the board lock.
type Board struct {
	mu sync.Mutex

	logger   *slog.Logger
	notifier Notifier
	clock    clock.Clock

	id    string
	size  int
	cells []*entity.Cell
	lines []entity.Line

	current entity.Player
	outcome entity.Outcome
	scores  entity.Scores
	round   int
	moves   []int
	cleared bool
	closed  bool

	starter      Starter
	clearDelay   time.Duration
	restartDelay time.Duration
	clearTimer   *clock.Timer
	restartTimer *clock.Timer
}

func NewBoard(id string, size int, opts ...Option) (*Board, error) {
	if size < entity.MinBoardSize {
		return nil, fmt.Errorf("%w: %d, want at least %d", apperror.ErrInvalidSize, size, entity.MinBoardSize)
	}

	board := &Board{
		logger:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
		notifier:     nopNotifier{},
		clock:        clock.New(),
		id:           id,
		size:         size,
		cells:        make([]*entity.Cell, size*size),
		lines:        entity.WinLines(size),
		current:      entity.Player1,
		outcome:      entity.Outcome{Status: entity.StatusInProgress},
		round:        1,
		clearDelay:   DefaultClearDelay,
		restartDelay: DefaultRestartDelay,
	}

	for i := range board.cells {
		board.cells[i] = entity.NewCell(i)
	}

	for _, opt := range opts {
		opt(board)
	}

	board.logger = board.logger.With("component", "board", "boardID", id, "size", size)

	return board, nil
}

// HandleClick - claims the cell for the current player, flips the turn and evaluates the round.
// Only an out-of-range index is an error; every other refusal is a no-op reported by the result.
func (that *Board) HandleClick(index int) (ClickResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "HandleClick", "index", index, "round", that.round)

	if that.closed {
		log.Debug("click on closed board ignored")
		return ClickClosed, nil
	}

	if !that.validIndex(index) {
		err := fmt.Errorf("%w: cell %d", apperror.ErrInvalidIndex, index)
		log.Debug("click rejected", "error", err)
		that.reject(index, err)
		return ClickInvalidIndex, err
	}

	if !that.outcome.IsInProgress() {
		log.Debug("click rejected", "error", apperror.ErrInvalidRoundState)
		that.reject(index, apperror.ErrInvalidRoundState)
		return ClickRoundOver, nil
	}

	player := that.current
	if err := that.cells[index].Claim(player); err != nil {
		log.Debug("click rejected", "error", err)
		that.reject(index, err)
		return ClickCellOwned, nil
	}

	that.moves = append(that.moves, index)

	event := that.newEvent(entity.EventCellOwnerChanged)
	event.Index = &index
	event.Player = player
	that.notifier.Notify(event)

	// It's simple logic for a turn change
	that.current = player.Opponent()

	that.evaluate()

	log.Debug("cell claimed", "player", player, "status", that.outcome.Status)

	return ClickClaimed, nil
}

// Evaluate - settles the round if a line is complete or the grid is full.
// Once the round is finished it returns the stored outcome without touching the scores again.
func (that *Board) Evaluate() entity.Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.evaluate()
}

func (that *Board) evaluate() entity.Outcome {
	if !that.outcome.IsInProgress() {
		return that.outcome
	}

	outcome := entity.Evaluate(that.owners(), that.lines)

	switch outcome.Status {
	case entity.StatusWon:
		that.outcome = outcome

		if that.starter == StarterWinner {
			that.current = outcome.Winner
		}

		lineEvent := that.newEvent(entity.EventWinLineDetected)
		lineEvent.Player = outcome.Winner
		lineEvent.Line = outcome.Line
		that.notifier.Notify(lineEvent)

		score := that.scores.Add(outcome.Winner)
		scoreEvent := that.newEvent(entity.EventScoreChanged)
		scoreEvent.Player = outcome.Winner
		scoreEvent.Score = &score
		that.notifier.Notify(scoreEvent)

		that.finish()
	case entity.StatusDraw:
		that.outcome = outcome
		that.finish()
	case entity.StatusInProgress:
	}

	return that.outcome
}

// finish - announces the end of the round and schedules the clear and restart callbacks.
func (that *Board) finish() {
	outcome := that.outcome

	event := that.newEvent(entity.EventRoundEnded)
	event.Outcome = &outcome
	event.Player = outcome.Winner
	event.Moves = append([]int(nil), that.moves...)
	that.notifier.Notify(event)

	that.logger.Info("round finished", "round", that.round, "status", outcome.Status, "winner", outcome.Winner)

	round := that.round
	that.stopTimers()
	that.clearTimer = that.clock.AfterFunc(that.clearDelay, func() { that.onClearTimer(round) })
	that.restartTimer = that.clock.AfterFunc(that.restartDelay, func() { that.onRestartTimer(round) })
}

func (that *Board) onClearTimer(round int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || that.round != round || that.cleared {
		return
	}

	for _, cell := range that.cells {
		cell.Reset()
	}
	that.cleared = true

	that.notifier.Notify(that.newEvent(entity.EventBoardCleared))
}

func (that *Board) onRestartTimer(round int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || that.round != round {
		return
	}

	that.reset()
}

// ResetRound - starts a new round right away. Pending timers are cancelled; scores are kept.
func (that *Board) ResetRound() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.reset()
}

func (that *Board) reset() {
	that.stopTimers()

	for _, cell := range that.cells {
		cell.Reset()
	}

	that.outcome = entity.Outcome{Status: entity.StatusInProgress}
	that.moves = nil
	that.cleared = false
	that.round++

	if that.starter == StarterPlayer1 {
		that.current = entity.Player1
	}

	event := that.newEvent(entity.EventRoundReset)
	event.Player = that.current
	that.notifier.Notify(event)

	that.logger.Info("round started", "round", that.round, "player", that.current)
}

// HighlightPreview - computes the hover look of a cell for the current player.
// It never changes game state and does nothing for owned cells or finished rounds.
func (that *Board) HighlightPreview(index int, on bool) (Preview, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.validIndex(index) {
		return Preview{Index: index}, fmt.Errorf("%w: cell %d", apperror.ErrInvalidIndex, index)
	}

	cell := that.cells[index]
	if that.closed || !that.outcome.IsInProgress() || cell.IsClaimed() {
		return Preview{Index: index, Mark: cell.Owner()}, nil
	}

	mark := entity.Unclaimed
	if on {
		mark = that.current
	}

	event := that.newEvent(entity.EventCellHighlight)
	event.Index = &index
	event.Player = mark
	that.notifier.Notify(event)

	return Preview{Index: index, Mark: mark, Changed: true}, nil
}

// Close - tears the board down. Pending timers never fire and later clicks are ignored.
func (that *Board) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	that.stopTimers()

	that.logger.Info("board closed", "round", that.round)
}

func (that *Board) Snapshot() entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return entity.Snapshot{
		ID:            that.id,
		Size:          that.size,
		Round:         that.round,
		Cells:         that.owners(),
		CurrentPlayer: that.current,
		Outcome:       that.outcome,
		Scores:        that.scores,
		Cleared:       that.cleared,
	}
}

func (that *Board) ID() string {
	return that.id
}

func (that *Board) Size() int {
	return that.size
}

// WinLines - returns a copy of the line table in evaluation order.
func (that *Board) WinLines() []entity.Line {
	lines := make([]entity.Line, len(that.lines))
	for i, line := range that.lines {
		lines[i] = append(entity.Line(nil), line...)
	}
	return lines
}

func (that *Board) CurrentPlayer() entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.current
}

func (that *Board) Outcome() entity.Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.outcome
}

func (that *Board) Scores() entity.Scores {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scores
}

func (that *Board) Owner(index int) (entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.validIndex(index) {
		return entity.Unclaimed, fmt.Errorf("%w: cell %d", apperror.ErrInvalidIndex, index)
	}

	return that.cells[index].Owner(), nil
}

func (that *Board) IsClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}

func (that *Board) validIndex(index int) bool {
	return index >= 0 && index < len(that.cells)
}

func (that *Board) owners() []entity.Player {
	owners := make([]entity.Player, len(that.cells))
	for i, cell := range that.cells {
		owners[i] = cell.Owner()
	}
	return owners
}

func (that *Board) stopTimers() {
	if that.clearTimer != nil {
		that.clearTimer.Stop()
		that.clearTimer = nil
	}

	if that.restartTimer != nil {
		that.restartTimer.Stop()
		that.restartTimer = nil
	}
}

func (that *Board) reject(index int, reason error) {
	event := that.newEvent(entity.EventClickRejected)
	event.Index = &index
	event.Reason = reason.Error()
	that.notifier.Notify(event)
}

func (that *Board) newEvent(eventType entity.EventType) entity.Event {
	return entity.Event{
		Type:    eventType,
		BoardID: that.id,
		Round:   that.round,
		At:      that.clock.Now(),
	}
}
