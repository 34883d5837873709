package lobby

import "fmt"

// State is where a Session is in the matchmaking flow.
type State int

const (
	Idle State = iota
	InvitationSent
	InvitationReceived
	InMatch
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InvitationSent:
		return "invitation sent"
	case InvitationReceived:
		return "invitation received"
	case InMatch:
		return "in match"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Sender is the outbound half of a player's connection.
type Sender interface {
	// Send queues a line for the player without blocking.
	Send(line string) error
	// Close flushes anything queued and then closes the connection.
	Close() error
	// Abort closes the connection right away.
	Abort() error
}

// Session is the server-side state of one registered player. All fields are
// guarded by the owning Lobby's mutex.
type Session struct {
	handle string
	sender Sender

	state State
	// ID of the match the session is playing in, looked up in the lobby's
	// match table. Empty unless state is InMatch.
	matchID string
	// Set once a line couldn't be queued; the session is dropped as soon as
	// the lobby lock is released.
	stalled bool
}

// Handle is the player's registered name. It never changes.
func (s *Session) Handle() string { return s.handle }
