package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
)

const historyQueueSize = 64

type roundRepo interface {
	Append(ctx context.Context, record *entity.RoundRecord) error
	List(ctx context.Context, boardID string, limit int) ([]*entity.RoundRecord, error)
}

// HistoryService turns round-ended events into round records.
// Notify only queues; Run does the writes.
type HistoryService struct {
	logger    *slog.Logger
	roundRepo roundRepo

	queue chan *entity.RoundRecord
	once  sync.Once
	done  chan struct{}
}

func NewHistoryService(logger *slog.Logger, roundRepo roundRepo) *HistoryService {
	return &HistoryService{
		logger:    logger.With("component", "history"),
		roundRepo: roundRepo,
		queue:     make(chan *entity.RoundRecord, historyQueueSize),
		done:      make(chan struct{}),
	}
}

func (that *HistoryService) Notify(event entity.Event) {
	if event.Type != entity.EventRoundEnded || event.Outcome == nil {
		return
	}

	record := &entity.RoundRecord{
		BoardID:    event.BoardID,
		Round:      event.Round,
		Outcome:    *event.Outcome,
		Moves:      event.Moves,
		FinishedAt: event.At,
	}

	select {
	case that.queue <- record:
	case <-that.done:
	default:
		that.logger.Warn("history queue is full, round dropped", "boardID", record.BoardID, "round", record.Round)
	}
}

// Run - writes queued rounds until the context is canceled, then flushes what is left.
func (that *HistoryService) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	defer that.once.Do(func() { close(that.done) })

	for {
		select {
		case record := <-that.queue:
			that.store(ctx, record)
		case <-ctx.Done():
			for {
				select {
				case record := <-that.queue:
					that.store(ctx, record)
				default:
					log.Info("history writer stopped")
					return
				}
			}
		}
	}
}

func (that *HistoryService) store(ctx context.Context, record *entity.RoundRecord) {
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	if err := that.roundRepo.Append(ctx, record); err != nil {
		that.logger.Error("failed to store round", "boardID", record.BoardID, "round", record.Round, "error", err)
	}
}

func (that *HistoryService) Rounds(ctx context.Context, boardID string, limit int) ([]*entity.RoundRecord, error) {
	records, err := that.roundRepo.List(ctx, boardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}

	return records, nil
}
