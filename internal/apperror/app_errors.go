package apperror

import "errors"

var (
	ErrInvalidIndex      = errors.New("invalid cell index")
	ErrCellAlreadyOwned  = errors.New("cell is already owned")
	ErrInvalidRoundState = errors.New("round is not in progress")
	ErrInvalidSize       = errors.New("invalid board size")
	ErrInvalidPlayer     = errors.New("invalid player")
	ErrBoardNotFound     = errors.New("board not found")
	ErrBoardClosed       = errors.New("board is closed")
	ErrBoardExists       = errors.New("board already exists")
)
