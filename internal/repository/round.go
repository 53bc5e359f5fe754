package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
)

const DefaultHistoryLength = 100

type RoundRepository interface {
	Append(ctx context.Context, record *entity.RoundRecord) error
	List(ctx context.Context, boardID string, limit int) ([]*entity.RoundRecord, error)
}

type dbRound struct {
	client    *redis.Client
	maxLength int64
}

// NewRoundRepository - keeps at most maxLength finished rounds per board.
func NewRoundRepository(client *redis.Client, maxLength int) RoundRepository {
	if maxLength <= 0 {
		maxLength = DefaultHistoryLength
	}

	return &dbRound{
		client:    client,
		maxLength: int64(maxLength),
	}
}

func roundsKey(boardID string) string {
	return "board:" + boardID + ":rounds"
}

func (that *dbRound) Append(ctx context.Context, record *entity.RoundRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal round: %w", err)
	}

	key := roundsKey(record.BoardID)

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, recordJSON)
		pipe.LTrim(ctx, key, -that.maxLength, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append round: %w", err)
	}

	return nil
}

// List - returns the latest rounds of a board, newest first.
func (that *dbRound) List(ctx context.Context, boardID string, limit int) ([]*entity.RoundRecord, error) {
	if limit <= 0 || int64(limit) > that.maxLength {
		limit = int(that.maxLength)
	}

	response, err := that.client.LRange(ctx, roundsKey(boardID), -int64(limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds by board id: %w", err)
	}

	records := make([]*entity.RoundRecord, 0, len(response))
	for i := len(response) - 1; i >= 0; i-- {
		var record entity.RoundRecord
		if err = json.Unmarshal([]byte(response[i]), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal round: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}
