package game

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func playMoves(t *testing.T, m *Match, cols ...int) Result {
	t.Helper()
	var (
		r   Result
		err error
	)
	for _, col := range cols {
		if r, err = m.Move(m.Current(), col); err != nil {
			t.Fatalf("Move(%s, %d) returned an unexpected error: %v", m.Current(), col, err)
		}
	}
	return r
}

func TestNewMatch(t *testing.T) {
	m := NewMatch("alice", "bob")

	if m.ID == "" {
		t.Errorf("NewMatch() did not assign an ID")
	}
	if m.Current() != "alice" {
		t.Errorf("Current() want = alice, got = %s", m.Current())
	}
	if m.State() != Active {
		t.Errorf("State() want = Active, got = %v", m.State())
	}
	if other := NewMatch("alice", "bob"); other.ID == m.ID {
		t.Errorf("NewMatch() reused ID %s", m.ID)
	}
}

func TestMatch_MoveValidation(t *testing.T) {
	tests := []struct {
		name   string
		setup  []int
		handle string
		col    int
		want   error
	}{
		{name: "column below range", handle: "alice", col: -1, want: ErrColumnOutOfRange},
		{name: "column above range", handle: "alice", col: Columns, want: ErrColumnOutOfRange},
		{name: "range is checked before turn", handle: "bob", col: 9, want: ErrColumnOutOfRange},
		{name: "out of turn", handle: "bob", col: 0, want: ErrWrongTurn},
		{name: "turn is checked before capacity", setup: []int{0, 0, 0, 0, 0, 0}, handle: "bob", col: 0, want: ErrWrongTurn},
		{name: "full column", setup: []int{0, 0, 0, 0, 0, 0}, handle: "alice", col: 0, want: ErrColumnFull},
		{name: "stranger", handle: "carol", col: 0, want: ErrNotParticipant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatch("alice", "bob")
			playMoves(t, m, tt.setup...)

			board, current, moves := m.Board, m.Current(), m.Moves()
			if _, err := m.Move(tt.handle, tt.col); !errors.Is(err, tt.want) {
				t.Fatalf("Move() want error = %v, got = %v", tt.want, err)
			}
			if diff := cmp.Diff(board, m.Board); diff != "" {
				t.Errorf("rejected Move() changed the board; diff:\n%s", diff)
			}
			if m.Current() != current || m.Moves() != moves {
				t.Errorf("rejected Move() changed the turn state")
			}
		})
	}
}

func TestMatch_TurnAlternates(t *testing.T) {
	m := NewMatch("alice", "bob")

	for i, col := range []int{0, 1, 2, 3, 4, 5, 6, 0, 1} {
		mover := m.Current()
		r, err := m.Move(mover, col)
		if err != nil {
			t.Fatalf("move %d returned an unexpected error: %v", i, err)
		}
		if r.Finished {
			t.Fatalf("move %d unexpectedly finished the match: %+v", i, r)
		}
		if m.Current() != m.Opponent(mover) {
			t.Fatalf("after move %d by %s the turn is %s", i, mover, m.Current())
		}
	}
}

func TestMatch_VerticalWin(t *testing.T) {
	m := NewMatch("alice", "bob")

	// alice stacks column 3 while bob plays column 4.
	r := playMoves(t, m, 3, 4, 3, 4, 3, 4, 3)

	want := Result{Finished: true, Winner: "alice", Loser: "bob"}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Fatalf("Move() result did not match expected; diff:\n%s", diff)
	}
	if m.State() != Finished {
		t.Errorf("State() want = Finished, got = %v", m.State())
	}
	if _, err := m.Move("bob", 0); !errors.Is(err, ErrMatchFinished) {
		t.Errorf("Move() after finish want = %v, got = %v", ErrMatchFinished, err)
	}
	if _, err := m.Forfeit("bob"); !errors.Is(err, ErrMatchFinished) {
		t.Errorf("Forfeit() after finish want = %v, got = %v", ErrMatchFinished, err)
	}
}

func TestMatch_Draw(t *testing.T) {
	m := NewMatch("alice", "bob")

	// A fill order in which neither player ever completes a run of four.
	cols := []int{
		5, 4, 5, 0, 6, 2, 4, 5, 5, 0, 4, 1, 1, 0,
		4, 5, 6, 5, 3, 1, 1, 2, 2, 6, 2, 6, 6, 3,
		6, 2, 0, 3, 0, 3, 3, 4, 3, 1, 4, 2, 1, 0,
	}

	r := playMoves(t, m, cols...)
	if diff := cmp.Diff(Result{Finished: true, Draw: true}, r); diff != "" {
		t.Fatalf("final Move() result did not match expected; diff:\n%s\n%s", diff, m.Board.String())
	}
	if !m.Board.Full() {
		t.Errorf("draw reported before the board was full")
	}
	if m.Moves() != Rows*Columns {
		t.Errorf("Moves() want = %d, got = %d", Rows*Columns, m.Moves())
	}
}

func TestMatch_Forfeit(t *testing.T) {
	m := NewMatch("alice", "bob")
	playMoves(t, m, 3)

	// bob's turn, but alice may still forfeit.
	r, err := m.Forfeit("alice")
	if err != nil {
		t.Fatalf("Forfeit() returned an unexpected error: %v", err)
	}
	want := Result{Finished: true, Forfeit: true, Winner: "bob", Loser: "alice"}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("Forfeit() result did not match expected; diff:\n%s", diff)
	}
	if _, err := NewMatch("alice", "bob").Forfeit("carol"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("Forfeit() by a stranger want = %v, got = %v", ErrNotParticipant, err)
	}
}
