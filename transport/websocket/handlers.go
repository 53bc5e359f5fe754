package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-grid/internal/usecase"
)

const internalErrorMsg = "internal error"

func (that *Server) handleWatch(_ context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleWatch", "clientID", c.id)

	payloadReq, ok := that.decode(c, msg)
	if !ok {
		return nil
	}

	if _, err := that.gameManager.Snapshot(payloadReq.BoardID); err != nil {
		that.sendFailure(c, msg.Action, err)
		return nil
	}

	// subscribe before the snapshot is taken so no event falls between them
	that.hub.Watch(c, payloadReq.BoardID)

	snapshot, err := that.gameManager.Snapshot(payloadReq.BoardID)
	if err != nil {
		that.sendFailure(c, msg.Action, err)
		return nil
	}

	if err = that.hub.ToClient(c, msg.Action, Payload{BoardID: snapshot.ID, Board: &snapshot}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("client watches board", "boardID", snapshot.ID)

	return nil
}

func (that *Server) handleState(_ context.Context, c *client, msg *Message) error {
	payloadReq, ok := that.decode(c, msg)
	if !ok {
		return nil
	}

	snapshot, err := that.gameManager.Snapshot(payloadReq.BoardID)
	if err != nil {
		that.sendFailure(c, msg.Action, err)
		return nil
	}

	if err = that.hub.ToClient(c, msg.Action, Payload{BoardID: snapshot.ID, Board: &snapshot}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (that *Server) handleActivate(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleActivate", "clientID", c.id)

	payloadReq, ok := that.decode(c, msg)
	if !ok {
		return nil
	}

	if payloadReq.Index == nil {
		that.sendError(c, msg.Action, "index is required")
		return nil
	}

	result, snapshot, err := that.gameManager.ActivateCell(ctx, payloadReq.BoardID, *payloadReq.Index)
	if err != nil {
		log.Debug("failed to activate cell", "boardID", payloadReq.BoardID, "error", err)
		that.sendFailure(c, msg.Action, err)
		return nil
	}

	payloadResp := Payload{
		BoardID: snapshot.ID,
		Board:   &snapshot,
		Result:  &result,
	}

	if err = that.hub.ToClient(c, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (that *Server) handleHighlight(_ context.Context, c *client, msg *Message) error {
	payloadReq, ok := that.decode(c, msg)
	if !ok {
		return nil
	}

	if payloadReq.Index == nil {
		that.sendError(c, msg.Action, "index is required")
		return nil
	}

	on := true
	if payloadReq.On != nil {
		on = *payloadReq.On
	}

	preview, err := that.gameManager.Highlight(payloadReq.BoardID, *payloadReq.Index, on)
	if err != nil {
		that.sendFailure(c, msg.Action, err)
		return nil
	}

	if err = that.hub.ToClient(c, msg.Action, Payload{BoardID: payloadReq.BoardID, Preview: &preview}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

// decode - reads the request payload, answering with an error when it is unusable.
func (that *Server) decode(c *client, msg *Message) (Payload, bool) {
	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.sendError(c, msg.Action, "invalid payload")
		return payloadReq, false
	}

	if payloadReq.BoardID == "" {
		that.sendError(c, msg.Action, "board_id is required")
		return payloadReq, false
	}

	return payloadReq, true
}

// sendFailure - answers with the error text for request errors and hides server errors.
func (that *Server) sendFailure(c *client, action string, err error) {
	if usecase.IsClientError(err) {
		that.sendError(c, action, err.Error())
		return
	}

	that.logger.Error("request failed", "action", action, "clientID", c.id, "error", err)
	that.sendError(c, action, internalErrorMsg)
}

func (that *Server) sendError(c *client, action, errorMsg string) {
	if err := that.hub.ToClient(c, action, Payload{Error: errorMsg}); err != nil {
		that.logger.Error("failed to send error response", "action", action, "error", err)
	}
}
