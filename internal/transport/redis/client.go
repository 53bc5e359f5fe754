package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
)

const publishQueueSize = 256

// Client publishes board events to redis so other processes can follow a board.
type Client struct {
	logger *slog.Logger
	client *redis.Client

	queue chan entity.Event
	once  sync.Once
	done  chan struct{}
}

func New(logger *slog.Logger, client *redis.Client) *Client {
	return &Client{
		logger: logger.With("component", "publisher"),
		client: client,
		queue:  make(chan entity.Event, publishQueueSize),
		done:   make(chan struct{}),
	}
}

// EventsChannel - returns the pub/sub channel of a board.
func EventsChannel(boardID string) string {
	return "board:" + boardID + ":events"
}

// Notify - queues an event for publishing, dropping it when the queue is full.
func (that *Client) Notify(event entity.Event) {
	select {
	case that.queue <- event:
	case <-that.done:
	default:
		that.logger.Warn("publish queue is full, event dropped", "boardID", event.BoardID, "event", event.Type)
	}
}

// Run - publishes queued events until the context is canceled, then flushes what is left.
func (that *Client) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	defer that.once.Do(func() { close(that.done) })

	for {
		select {
		case event := <-that.queue:
			that.publish(ctx, event)
		case <-ctx.Done():
			for {
				select {
				case event := <-that.queue:
					that.publish(ctx, event)
				default:
					log.Info("publisher stopped")
					return
				}
			}
		}
	}
}

func (that *Client) publish(ctx context.Context, event entity.Event) {
	// queued events still go out after shutdown began
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	if err := that.Publish(ctx, event); err != nil {
		that.logger.Error("failed to publish event", "boardID", event.BoardID, "event", event.Type, "error", err)
	}
}

// Publish - sends one event to the board channel.
func (that *Client) Publish(ctx context.Context, event entity.Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, EventsChannel(event.BoardID), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event in Redis: %w", err)
	}

	return nil
}
