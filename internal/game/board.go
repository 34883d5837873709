package game

import (
	"errors"
	"strconv"
	"strings"
)

const (
	Rows    = 6
	Columns = 7
	// Number of contiguous tokens needed to win.
	WinLength = 4
)

var (
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrColumnFull       = errors.New("column is full")
)

// Cell is the contents of one square of the grid.
type Cell uint8

const (
	Empty Cell = iota
	P1
	P2
)

// Token returns the character used to draw the cell.
func (c Cell) Token() byte {
	switch c {
	case P1:
		return 'X'
	case P2:
		return 'O'
	default:
		return '.'
	}
}

// Board is a Rows x Columns grid. Row 0 is the top of the board, so tokens
// settle toward row Rows-1.
type Board [Rows][Columns]Cell

// Drop places a token for c in the lowest empty row of col and returns the
// row it landed in. The board is left untouched on error.
func (b *Board) Drop(col int, c Cell) (int, error) {
	if col < 0 || col >= Columns {
		return 0, ErrColumnOutOfRange
	}
	if b.ColumnFull(col) {
		return 0, ErrColumnFull
	}

	for row := Rows - 1; row >= 0; row-- {
		if b[row][col] == Empty {
			b[row][col] = c
			return row, nil
		}
	}
	// Unreachable since the top cell was checked above.
	return 0, ErrColumnFull
}

// ColumnFull reports whether the top cell of col is occupied.
func (b *Board) ColumnFull(col int) bool {
	return b[0][col] != Empty
}

// Full reports whether every column's top cell is occupied.
func (b *Board) Full() bool {
	for col := 0; col < Columns; col++ {
		if !b.ColumnFull(col) {
			return false
		}
	}
	return true
}

// directions scanned for a winning run: right, down, down-right, up-right.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}}

// HasWin reports whether c has WinLength contiguous tokens horizontally,
// vertically or along either diagonal.
func (b *Board) HasWin(c Cell) bool {
	if c == Empty {
		return false
	}

	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b[row][col] != c {
				continue
			}
			for _, d := range directions {
				if b.runFrom(row, col, d[0], d[1], c) {
					return true
				}
			}
		}
	}
	return false
}

func (b *Board) runFrom(row, col, dRow, dCol int, c Cell) bool {
	for i := 1; i < WinLength; i++ {
		r, cl := row+i*dRow, col+i*dCol
		if r < 0 || r >= Rows || cl < 0 || cl >= Columns || b[r][cl] != c {
			return false
		}
	}
	return true
}

// Winner returns the cell value that has a winning run, or Empty.
func (b *Board) Winner() Cell {
	switch {
	case b.HasWin(P1):
		return P1
	case b.HasWin(P2):
		return P2
	default:
		return Empty
	}
}

// Count returns the number of occupied cells in col.
func (b *Board) Count(col int) int {
	n := 0
	for row := 0; row < Rows; row++ {
		if b[row][col] != Empty {
			n++
		}
	}
	return n
}

// Lines renders the board as text: a header of column indices followed by
// the rows top to bottom.
func (b *Board) Lines() []string {
	lines := make([]string, 0, Rows+1)

	var header strings.Builder
	for col := 0; col < Columns; col++ {
		if col > 0 {
			header.WriteByte(' ')
		}
		header.WriteString(strconv.Itoa(col))
	}
	lines = append(lines, header.String())

	for row := 0; row < Rows; row++ {
		line := make([]byte, 0, Columns*2)
		for col := 0; col < Columns; col++ {
			if col > 0 {
				line = append(line, ' ')
			}
			line = append(line, b[row][col].Token())
		}
		lines = append(lines, string(line))
	}
	return lines
}

func (b *Board) String() string {
	return strings.Join(b.Lines(), "\n")
}
