package game

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// boardFromRows builds a board from a top-to-bottom picture using the
// rendered tokens.
func boardFromRows(t *testing.T, rows ...string) Board {
	t.Helper()
	if len(rows) != Rows {
		t.Fatalf("boardFromRows() needs %d rows, got %d", Rows, len(rows))
	}

	var b Board
	for r, line := range rows {
		if len(line) != Columns {
			t.Fatalf("row %d must have %d cells, got %q", r, Columns, line)
		}
		for c := 0; c < Columns; c++ {
			switch line[c] {
			case 'X':
				b[r][c] = P1
			case 'O':
				b[r][c] = P2
			}
		}
	}
	return b
}

func TestBoard_Drop(t *testing.T) {
	var b Board

	for i := 0; i < Rows; i++ {
		row, err := b.Drop(3, P1)
		if err != nil {
			t.Fatalf("Drop() returned an unexpected error on token %d: %v", i, err)
		}
		if want := Rows - 1 - i; row != want {
			t.Errorf("Drop() landed in row %d, want %d", row, want)
		}
	}

	before := b
	if _, err := b.Drop(3, P2); !errors.Is(err, ErrColumnFull) {
		t.Fatalf("Drop() on a full column want = %v, got = %v", ErrColumnFull, err)
	}
	if diff := cmp.Diff(before, b); diff != "" {
		t.Errorf("Drop() mutated the board on a full column; diff:\n%s", diff)
	}

	for _, col := range []int{-1, Columns, 100} {
		if _, err := b.Drop(col, P1); !errors.Is(err, ErrColumnOutOfRange) {
			t.Errorf("Drop(%d) want = %v, got = %v", col, ErrColumnOutOfRange, err)
		}
	}
}

// Random in-bounds play never overfills a column, and a drop succeeds exactly
// when the column's top cell is empty.
func TestBoard_DropNeverOverfills(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for game := 0; game < 200; game++ {
		var b Board
		token := P1
		for i := 0; i < 80; i++ {
			col := rng.Intn(Columns)
			topEmpty := b[0][col] == Empty

			_, err := b.Drop(col, token)
			if topEmpty && err != nil {
				t.Fatalf("Drop() failed on a column with an empty top cell: %v", err)
			}
			if !topEmpty && !errors.Is(err, ErrColumnFull) {
				t.Fatalf("Drop() on a full column want = %v, got = %v", ErrColumnFull, err)
			}
			if n := b.Count(col); n > Rows {
				t.Fatalf("column %d holds %d tokens", col, n)
			}
			if token == P1 {
				token = P2
			} else {
				token = P1
			}
		}
	}
}

func TestBoard_HasWin(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		cell  Cell
		want  bool
	}{
		{
			name:  "empty board",
			board: Board{},
			cell:  P1,
			want:  false,
		},
		{
			name: "horizontal",
			board: boardFromRows(t,
				".......",
				".......",
				".......",
				".......",
				".......",
				"..XXXX.",
			),
			cell: P1,
			want: true,
		},
		{
			name: "vertical",
			board: boardFromRows(t,
				".......",
				".......",
				"O......",
				"O......",
				"O......",
				"O......",
			),
			cell: P2,
			want: true,
		},
		{
			name: "diagonal down-right",
			board: boardFromRows(t,
				".......",
				".......",
				"...X...",
				"...OX..",
				"...OOX.",
				"...OOOX",
			),
			cell: P1,
			want: true,
		},
		{
			name: "diagonal up-right",
			board: boardFromRows(t,
				".......",
				".......",
				"......O",
				".....OX",
				"....OXX",
				"...OXXX",
			),
			cell: P2,
			want: true,
		},
		{
			name: "three in a row",
			board: boardFromRows(t,
				".......",
				".......",
				".......",
				".......",
				".......",
				"XXX.XXX",
			),
			cell: P1,
			want: false,
		},
		{
			name: "run belongs to the other player",
			board: boardFromRows(t,
				".......",
				".......",
				".......",
				".......",
				".......",
				"OOOO...",
			),
			cell: P1,
			want: false,
		},
		{
			name: "run wrapping across rows is not a win",
			board: boardFromRows(t,
				".......",
				".......",
				".......",
				".......",
				"XX.....",
				".....XX",
			),
			cell: P1,
			want: false,
		},
		{
			name:  "empty cell never wins",
			board: Board{},
			cell:  Empty,
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.board.HasWin(tt.cell); got != tt.want {
				t.Errorf("HasWin() want = %v, got = %v", tt.want, got)
			}
		})
	}
}

func TestBoard_Full(t *testing.T) {
	full := boardFromRows(t,
		"XOXOXOX",
		"XOXOXOX",
		"OXOXOXO",
		"OXOXOXO",
		"XOXOXOX",
		"XOXOXOX",
	)
	if !full.Full() {
		t.Errorf("Full() want = true on a full board")
	}
	if full.Winner() != Empty {
		t.Errorf("Winner() want = Empty, got = %v", full.Winner())
	}

	almost := full
	almost[0][6] = Empty
	if almost.Full() {
		t.Errorf("Full() want = false with an open column")
	}
}

func TestBoard_Lines(t *testing.T) {
	var b Board
	b.Drop(0, P1)
	b.Drop(0, P2)
	b.Drop(6, P1)

	want := []string{
		"0 1 2 3 4 5 6",
		". . . . . . .",
		". . . . . . .",
		". . . . . . .",
		". . . . . . .",
		"O . . . . . .",
		"X . . . . . X",
	}
	if diff := cmp.Diff(want, b.Lines()); diff != "" {
		t.Errorf("Lines() did not match expected; diff:\n%s", diff)
	}
}
