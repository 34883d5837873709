package game

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrWrongTurn      = errors.New("not your turn")
	ErrNotParticipant = errors.New("not a participant in this match")
	ErrMatchFinished  = errors.New("match is already finished")
)

// State is the lifecycle stage of a Match.
type State int

const (
	Active State = iota
	Finished
)

// Result describes how a match ended. It's the zero value while the match is
// still being played.
type Result struct {
	Finished bool
	Draw     bool
	Forfeit  bool
	// Winner and Loser are empty for a draw.
	Winner string
	Loser  string
}

// Match is one game of Connect4 between two handles. The first player places
// X tokens and moves first.
//
// A Match does no locking of its own; the owner is expected to serialize
// calls to Move and Forfeit.
type Match struct {
	ID      string
	Players [2]string
	Board   Board

	turn   int
	state  State
	result Result
	moves  int
}

func NewMatch(first, second string) *Match {
	return &Match{
		ID:      uuid.New().String(),
		Players: [2]string{first, second},
	}
}

// Current returns the handle of the player whose turn it is.
func (m *Match) Current() string { return m.Players[m.turn] }

func (m *Match) State() State   { return m.state }
func (m *Match) Result() Result { return m.result }
func (m *Match) Moves() int     { return m.moves }

// Opponent returns the other participant, or an empty string if handle is
// not in the match.
func (m *Match) Opponent(handle string) string {
	switch handle {
	case m.Players[0]:
		return m.Players[1]
	case m.Players[1]:
		return m.Players[0]
	default:
		return ""
	}
}

// Token returns the cell value belonging to handle.
func (m *Match) Token(handle string) Cell {
	switch handle {
	case m.Players[0]:
		return P1
	case m.Players[1]:
		return P2
	default:
		return Empty
	}
}

// Move drops a token for handle into col. The column is validated first, the
// turn second and column capacity last; a rejected move never changes state.
func (m *Match) Move(handle string, col int) (Result, error) {
	if m.state == Finished {
		return m.result, ErrMatchFinished
	}
	token := m.Token(handle)
	if token == Empty {
		return Result{}, ErrNotParticipant
	}
	if col < 0 || col >= Columns {
		return Result{}, ErrColumnOutOfRange
	}
	if m.Current() != handle {
		return Result{}, ErrWrongTurn
	}
	if _, err := m.Board.Drop(col, token); err != nil {
		return Result{}, err
	}
	m.moves++

	switch {
	case m.Board.HasWin(token):
		m.finish(Result{Winner: handle, Loser: m.Opponent(handle)})
	case m.Board.Full():
		m.finish(Result{Draw: true})
	default:
		m.turn = 1 - m.turn
	}
	return m.result, nil
}

// Forfeit ends the match in favor of handle's opponent regardless of whose
// turn it is.
func (m *Match) Forfeit(handle string) (Result, error) {
	if m.state == Finished {
		return m.result, ErrMatchFinished
	}
	if m.Token(handle) == Empty {
		return Result{}, ErrNotParticipant
	}

	m.finish(Result{Winner: m.Opponent(handle), Loser: handle, Forfeit: true})
	return m.result, nil
}

func (m *Match) finish(r Result) {
	r.Finished = true
	m.result = r
	m.state = Finished
}
