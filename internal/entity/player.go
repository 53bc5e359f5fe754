package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
)

// Player is both the owner of a cell and the side whose turn it is.
type Player uint8

const (
	Unclaimed Player = iota
	Player1
	Player2
)

const (
	markUnclaimed = "-"
	markPlayer1   = "P1"
	markPlayer2   = "P2"
)

func (that Player) String() string {
	switch that {
	case Player1:
		return markPlayer1
	case Player2:
		return markPlayer2
	default:
		return markUnclaimed
	}
}

// Opponent - returns the other side. Unclaimed has no opponent.
func (that Player) Opponent() Player {
	switch that {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return Unclaimed
	}
}

// IsPlayer - reports whether the value names one of the two sides.
func (that Player) IsPlayer() bool {
	return that == Player1 || that == Player2
}

func (that Player) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Player) UnmarshalText(text []byte) error {
	switch string(text) {
	case markPlayer1:
		*that = Player1
	case markPlayer2:
		*that = Player2
	case markUnclaimed, "":
		*that = Unclaimed
	default:
		return fmt.Errorf("%w: %q", apperror.ErrInvalidPlayer, text)
	}

	return nil
}
