package entity

// MinBoardSize is the smallest grid for which rows, columns and diagonals are distinct lines.
const MinBoardSize = 3

// Line is a row, column or diagonal: N cell indices in row-major order.
type Line []int

// WinLines - builds every line of an NxN grid: rows first, then columns, then the
// primary diagonal and the anti-diagonal. The order is the tie-break precedence.
func WinLines(size int) []Line {
	if size < 1 {
		return nil
	}

	lines := make([]Line, 0, 2*size+2)

	for row := range size {
		line := make(Line, size)
		for col := range size {
			line[col] = row*size + col
		}
		lines = append(lines, line)
	}

	for col := range size {
		line := make(Line, size)
		for row := range size {
			line[row] = row*size + col
		}
		lines = append(lines, line)
	}

	diagonal := make(Line, size)
	antiDiagonal := make(Line, size)
	for i := range size {
		diagonal[i] = i * (size + 1)
		antiDiagonal[i] = (i + 1) * (size - 1)
	}

	return append(lines, diagonal, antiDiagonal)
}

// Evaluate - determines the round outcome for a fixed ownership pattern.
// The first uniformly owned line wins; a full board without one is a draw.
func Evaluate(owners []Player, lines []Line) Outcome {
	for _, line := range lines {
		if winner := lineOwner(owners, line); winner != Unclaimed {
			return Outcome{
				Status: StatusWon,
				Winner: winner,
				Line:   append(Line(nil), line...),
			}
		}
	}

	// the round continues until every cell is owned
	for _, owner := range owners {
		if owner == Unclaimed {
			return Outcome{Status: StatusInProgress}
		}
	}

	return Outcome{Status: StatusDraw}
}

func lineOwner(owners []Player, line Line) Player {
	if len(line) == 0 {
		return Unclaimed
	}

	first := owners[line[0]]
	if first == Unclaimed {
		return Unclaimed
	}

	for _, index := range line[1:] {
		if owners[index] != first {
			return Unclaimed
		}
	}

	return first
}
