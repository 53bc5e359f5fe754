package service

import (
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
)

type notifier interface {
	Notify(event entity.Event)
}

// Fanout delivers each event to every notifier in order.
type Fanout []notifier

func NewFanout(notifiers ...notifier) Fanout {
	fanout := make(Fanout, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			fanout = append(fanout, n)
		}
	}
	return fanout
}

func (that Fanout) Notify(event entity.Event) {
	for _, n := range that {
		n.Notify(event)
	}
}

// LogNotifier writes board events as structured log lines.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger.With("component", "notifier"),
	}
}

func (that *LogNotifier) Notify(event entity.Event) {
	log := that.logger.With("event", event.Type, "boardID", event.BoardID, "round", event.Round)

	switch event.Type {
	case entity.EventRoundEnded:
		if event.Outcome != nil {
			log = log.With("outcome", event.Outcome.Status)
		}
		log.Info("round ended", "winner", event.Player, "moves", len(event.Moves))
	case entity.EventScoreChanged:
		log.Info("score changed", "player", event.Player, "score", deref(event.Score))
	case entity.EventWinLineDetected:
		log.Info("win line detected", "player", event.Player, "line", event.Line)
	case entity.EventRoundReset:
		log.Info("round reset", "player", event.Player)
	case entity.EventBoardCleared:
		log.Info("board cleared")
	case entity.EventClickRejected:
		log.Debug("click rejected", "index", deref(event.Index), "reason", event.Reason)
	default:
		log.Debug("board event", "index", deref(event.Index), "player", event.Player)
	}
}

func deref(value *int) int {
	if value == nil {
		return -1
	}
	return *value
}
