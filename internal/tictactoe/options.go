package tictactoe

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
)

const (
	DefaultClearDelay   = 2 * time.Second
	DefaultRestartDelay = 3 * time.Second
)

// Notifier receives every event a board emits. Notify is called while the board
// is locked, so implementations must not call back into the board.
type Notifier interface {
	Notify(event entity.Event)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(event entity.Event)

func (that NotifierFunc) Notify(event entity.Event) {
	that(event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(entity.Event) {}

// Starter decides who opens the next round.
type Starter uint8

const (
	// StarterWinner - the winner opens the next round; after a draw the turn stays where it was.
	StarterWinner Starter = iota
	// StarterPlayer1 - every round is opened by player 1.
	StarterPlayer1
)

const (
	starterWinner  = "winner"
	starterPlayer1 = "player1"
)

func ParseStarter(value string) (Starter, error) {
	switch value {
	case starterWinner, "":
		return StarterWinner, nil
	case starterPlayer1:
		return StarterPlayer1, nil
	default:
		return StarterWinner, fmt.Errorf("%w: %q", ErrUnknownStarter, value)
	}
}

func (that Starter) String() string {
	if that == StarterPlayer1 {
		return starterPlayer1
	}
	return starterWinner
}

type Option func(*Board)

func WithNotifier(notifier Notifier) Option {
	return func(board *Board) {
		if notifier != nil {
			board.notifier = notifier
		}
	}
}

// WithClock - sets the timer host used for the clear and restart callbacks.
func WithClock(clk clock.Clock) Option {
	return func(board *Board) {
		if clk != nil {
			board.clock = clk
		}
	}
}

// WithDelays - sets how long after the end of a round the board is cleared and restarted.
func WithDelays(clearDelay, restartDelay time.Duration) Option {
	return func(board *Board) {
		board.clearDelay = clearDelay
		board.restartDelay = restartDelay
	}
}

func WithStarter(starter Starter) Option {
	return func(board *Board) {
		board.starter = starter
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(board *Board) {
		if logger != nil {
			board.logger = logger
		}
	}
}
