package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
)

const (
	outboundQueueSize = 256
	clientQueueSize   = 64
)

// Hub maintains the set of active connections and which boards each one watches.
type Hub struct {
	logger *slog.Logger

	clients  map[*client]struct{}
	watchers map[string]map[*client]struct{}

	register   chan *client
	unregister chan *client
	watch      chan *watchRequest

	// Board events and direct replies share one queue so a client sees them in order.
	outbound chan *outboundMsg

	done chan struct{}
}

type watchRequest struct {
	client  *client
	boardID string
}

type outboundMsg struct {
	boardID string
	client  *client
	data    []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger.With("component", "hub"),
		clients:    make(map[*client]struct{}),
		watchers:   make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		watch:      make(chan *watchRequest),
		outbound:   make(chan *outboundMsg, outboundQueueSize),
		done:       make(chan struct{}),
	}
}

// Run - serves the hub until the context is canceled, then drops every connection.
func (that *Hub) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	defer close(that.done)

	for {
		select {
		case c := <-that.register:
			that.clients[c] = struct{}{}
			log.Debug("client registered", "clientID", c.id)
		case c := <-that.unregister:
			that.remove(c)
		case req := <-that.watch:
			if _, ok := that.clients[req.client]; !ok {
				continue
			}

			if that.watchers[req.boardID] == nil {
				that.watchers[req.boardID] = make(map[*client]struct{})
			}
			that.watchers[req.boardID][req.client] = struct{}{}
		case msg := <-that.outbound:
			if msg.client != nil {
				if _, ok := that.clients[msg.client]; ok {
					that.send(msg.client, msg.data)
				}
				continue
			}

			for c := range that.watchers[msg.boardID] {
				that.send(c, msg.data)
			}
		case <-ctx.Done():
			for c := range that.clients {
				that.remove(c)
			}

			log.Info("hub stopped")
			return
		}
	}
}

// Notify - pushes a board event to every client watching that board.
// It never blocks; events are dropped when the hub falls behind.
func (that *Hub) Notify(event entity.Event) {
	data, err := encode(actionEvent, Payload{Event: &event})
	if err != nil {
		that.logger.Error("failed to encode event", "event", event.Type, "error", err)
		return
	}

	select {
	case that.outbound <- &outboundMsg{boardID: event.BoardID, data: data}:
	case <-that.done:
	default:
		that.logger.Warn("hub queue is full, event dropped", "boardID", event.BoardID, "event", event.Type)
	}
}

func (that *Hub) Register(c *client) bool {
	select {
	case that.register <- c:
		return true
	case <-that.done:
		return false
	}
}

func (that *Hub) Unregister(c *client) {
	select {
	case that.unregister <- c:
	case <-that.done:
	}
}

func (that *Hub) Watch(c *client, boardID string) {
	select {
	case that.watch <- &watchRequest{client: c, boardID: boardID}:
	case <-that.done:
	}
}

// ToClient - sends a message to a single connection.
func (that *Hub) ToClient(c *client, action string, payload Payload) error {
	data, err := encode(action, payload)
	if err != nil {
		return err
	}

	select {
	case that.outbound <- &outboundMsg{client: c, data: data}:
	case <-that.done:
	}

	return nil
}

// send drops a client whose buffer is full instead of waiting for it.
func (that *Hub) send(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		that.logger.Warn("client is too slow, dropping connection", "clientID", c.id)
		that.remove(c)
	}
}

func (that *Hub) remove(c *client) {
	if _, ok := that.clients[c]; !ok {
		return
	}

	delete(that.clients, c)
	for boardID, watchers := range that.watchers {
		delete(watchers, c)
		if len(watchers) == 0 {
			delete(that.watchers, boardID)
		}
	}

	close(c.send)

	that.logger.Debug("client unregistered", "clientID", c.id)
}

func encode(action string, payload Payload) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: payloadJSON})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
