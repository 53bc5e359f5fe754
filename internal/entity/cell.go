package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
)

// Cell is one grid position. Its owner is written at most once per round.
type Cell struct {
	index int
	owner Player
}

func NewCell(index int) *Cell {
	return &Cell{index: index}
}

// Claim - takes the cell for the player if nobody owns it yet.
func (that *Cell) Claim(player Player) error {
	if !player.IsPlayer() {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidPlayer, player)
	}

	if that.owner != Unclaimed {
		return apperror.ErrCellAlreadyOwned
	}

	that.owner = player

	return nil
}

func (that *Cell) Owner() Player {
	return that.owner
}

func (that *Cell) Index() int {
	return that.index
}

func (that *Cell) IsClaimed() bool {
	return that.owner != Unclaimed
}

// Reset - releases the cell. Only the board calls this between rounds.
func (that *Cell) Reset() {
	that.owner = Unclaimed
}
