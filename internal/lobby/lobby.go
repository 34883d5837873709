package lobby

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/connect4/internal/game"
	"github.com/dcrodman/connect4/internal/ledger"
)

// DefaultMaxHandleLength is used when a Lobby is created without a limit.
const DefaultMaxHandleLength = 24

// Lobby is the shared state of every connected player: who is registered,
// who has invited whom and which matches are being played.
//
// Everything is guarded by a single mutex. Lines sent to players are queued
// while holding it so that every player sees events in the same order they
// happened. Ledger writes and dropping stalled players both happen after
// the mutex is released.
type Lobby struct {
	Logger          *logrus.Logger
	Ledger          *ledger.Ledger
	MaxHandleLength int

	mu       sync.Mutex
	registry *registry
	invites  *invitations
	matches  map[string]*game.Match

	// Sessions that couldn't be sent to since the lock was taken.
	stalled []*Session
	// Set when the ledger has changes that still need to be persisted.
	dirty bool
	// Set by Shutdown. No match is scored or started after that.
	closing bool
}

func New(logger *logrus.Logger, scores *ledger.Ledger, maxHandleLength int) *Lobby {
	if maxHandleLength <= 0 {
		maxHandleLength = DefaultMaxHandleLength
	}
	return &Lobby{
		Logger:          logger,
		Ledger:          scores,
		MaxHandleLength: maxHandleLength,
		registry:        newRegistry(),
		invites:         newInvitations(),
		matches:         make(map[string]*game.Match),
	}
}

func (l *Lobby) lock() { l.mu.Lock() }

// unlock releases the lobby and then does the work that must not happen
// while holding it.
func (l *Lobby) unlock() {
	stalled := l.stalled
	l.stalled = nil
	dirty := l.dirty
	l.dirty = false
	l.mu.Unlock()

	if dirty {
		l.Ledger.Persist()
	}
	for _, s := range stalled {
		l.Logger.Warnf("dropping unresponsive player %s", s.handle)
		l.Disconnect(s)
		_ = s.sender.Abort()
	}
}

// ValidateHandle checks that handle can be used to register.
func (l *Lobby) ValidateHandle(handle string) error {
	switch {
	case handle == "":
		return fmt.Errorf("%w: handle is blank", ErrInvalidHandle)
	case strings.IndexFunc(handle, unicode.IsSpace) >= 0:
		return fmt.Errorf("%w: handle may not contain spaces", ErrInvalidHandle)
	case utf8.RuneCountInString(handle) > l.MaxHandleLength:
		return fmt.Errorf("%w: handle is longer than %d characters", ErrInvalidHandle, l.MaxHandleLength)
	}
	return nil
}

// Register adds a player to the lobby under handle. On success the player is
// greeted and everyone else is told they joined. The caller is expected to
// close the connection when registration fails.
func (l *Lobby) Register(handle string, sender Sender) (*Session, error) {
	if err := l.ValidateHandle(handle); err != nil {
		return nil, err
	}

	l.lock()
	defer l.unlock()

	s := &Session{handle: handle, sender: sender, state: Idle}
	if !l.registry.add(s) {
		return nil, ErrDuplicateHandle
	}
	l.Logger.Infof("%s joined the lobby (%d players)", handle, l.registry.len())

	l.deliver(s, fmt.Sprintf("Welcome, %s! Type help for a list of commands.", handle))
	l.deliver(s, l.idleLine(s))
	l.broadcast(fmt.Sprintf("*** %s joined the lobby", handle), s)
	return s, nil
}

// Disconnect removes s from the lobby. Any match it was playing is forfeited
// and any invitation it was part of is withdrawn. Calling Disconnect for a
// session that already left is a no-op.
func (l *Lobby) Disconnect(s *Session) {
	l.lock()
	if !l.registry.remove(s) {
		l.unlock()
		return
	}

	switch s.state {
	case InMatch:
		if m, ok := l.matches[s.matchID]; ok {
			if _, err := m.Forfeit(s.handle); err == nil {
				l.finishMatch(m)
			}
		}
	case InvitationSent:
		if responder, ok := l.invites.responderOf(s.handle); ok {
			l.invites.remove(s.handle, responder)
			if r := l.registry.lookup(responder); r != nil {
				r.state = Idle
				l.deliver(r, fmt.Sprintf("%s left, their invitation was withdrawn.", s.handle))
			}
		}
	case InvitationReceived:
		if inviter, ok := l.invites.inviterOf(s.handle); ok {
			l.invites.remove(inviter, s.handle)
			if i := l.registry.lookup(inviter); i != nil {
				i.state = Idle
				l.deliver(i, fmt.Sprintf("%s left before answering your invitation.", s.handle))
			}
		}
	}
	s.state = Idle
	s.matchID = ""

	l.broadcast(fmt.Sprintf("*** %s left the lobby", s.handle), nil)
	l.Logger.Infof("%s left the lobby (%d players)", s.handle, l.registry.len())
	l.unlock()

	_ = s.sender.Close()
}

// Quit says goodbye to s and removes it from the lobby.
func (l *Lobby) Quit(s *Session) {
	l.lock()
	if l.registry.has(s) {
		l.deliver(s, "Goodbye!")
	}
	l.unlock()
	l.Disconnect(s)
}

// Invite sends an invitation from s to the player registered as to.
func (l *Lobby) Invite(s *Session, to string) error {
	l.lock()
	defer l.unlock()

	if !l.registry.has(s) {
		return ErrNotRegistered
	}
	if to == s.handle {
		return ErrInviteSelf
	}
	if s.state != Idle {
		return ErrNotIdle
	}
	target := l.registry.lookup(to)
	if target == nil {
		return ErrTargetNotFound
	}
	if target.state != Idle {
		return ErrTargetBusy
	}

	l.invites.add(s.handle, target.handle)
	s.state = InvitationSent
	target.state = InvitationReceived

	l.Logger.Debugf("%s invited %s", s.handle, target.handle)
	l.deliver(s, fmt.Sprintf("Invitation sent to %s.", target.handle))
	l.deliver(target, fmt.Sprintf("%s invited you to play. Answer yes or no.", s.handle))
	return nil
}

// Respond answers the invitation s is holding. Accepting starts a match with
// the inviter moving first.
func (l *Lobby) Respond(s *Session, accept bool) error {
	l.lock()
	defer l.unlock()

	if !l.registry.has(s) {
		return ErrNotRegistered
	}
	inviterHandle, ok := l.invites.inviterOf(s.handle)
	if !ok || s.state != InvitationReceived {
		return ErrNoPendingInvitation
	}
	l.invites.remove(inviterHandle, s.handle)
	inviter := l.registry.lookup(inviterHandle)

	if !accept {
		s.state = Idle
		l.deliver(s, fmt.Sprintf("You declined %s's invitation.", inviterHandle))
		if inviter != nil {
			inviter.state = Idle
			l.deliver(inviter, fmt.Sprintf("%s declined your invitation.", s.handle))
		}
		return nil
	}

	if inviter == nil {
		// Inviter already gone.
		s.state = Idle
		return ErrNoPendingInvitation
	}
	if l.closing {
		s.state = Idle
		inviter.state = Idle
		return ErrShuttingDown
	}

	m := game.NewMatch(inviter.handle, s.handle)
	l.matches[m.ID] = m
	for _, p := range []*Session{inviter, s} {
		p.state = InMatch
		p.matchID = m.ID
	}
	l.Logger.Infof("match %s started: %s vs %s", m.ID, inviter.handle, s.handle)

	start := fmt.Sprintf("Match started: %s (X) vs %s (O).", inviter.handle, s.handle)
	l.deliver(inviter, start)
	l.deliver(s, start)
	l.sendBoard(m)
	l.sendTurn(m)
	return nil
}

// Move drops a token for s into col.
func (l *Lobby) Move(s *Session, col int) error {
	l.lock()
	defer l.unlock()

	m, err := l.matchFor(s)
	if err != nil {
		return err
	}
	result, err := m.Move(s.handle, col)
	if err != nil {
		return err
	}

	l.sendBoard(m)
	if result.Finished {
		l.finishMatch(m)
	} else {
		l.sendTurn(m)
	}
	return nil
}

// Forfeit ends the match s is playing, handing the win to the opponent.
func (l *Lobby) Forfeit(s *Session) error {
	l.lock()
	defer l.unlock()

	m, err := l.matchFor(s)
	if err != nil {
		return err
	}
	if _, err := m.Forfeit(s.handle); err != nil {
		return err
	}
	l.finishMatch(m)
	return nil
}

func (l *Lobby) matchFor(s *Session) (*game.Match, error) {
	if !l.registry.has(s) {
		return nil, ErrNotRegistered
	}
	if s.state != InMatch {
		return nil, ErrNotInMatch
	}
	m, ok := l.matches[s.matchID]
	if !ok {
		return nil, ErrNotInMatch
	}
	return m, nil
}

// finishMatch scores a match that just ended and returns both players to the
// lobby. Must be called with the lock held.
func (l *Lobby) finishMatch(m *game.Match) {
	result := m.Result()
	delete(l.matches, m.ID)

	if result.Draw {
		l.Ledger.Apply(m.Players[0], m.Players[1], ledger.Draw)
	} else {
		l.Ledger.Apply(result.Winner, result.Loser, ledger.Win)
	}
	l.dirty = true

	for _, handle := range m.Players {
		p := l.registry.lookup(handle)
		if p == nil || p.matchID != m.ID {
			continue
		}
		p.state = Idle
		p.matchID = ""

		l.deliver(p, outcomeLine(result, handle))
		l.deliver(p, fmt.Sprintf("Your record: %s", l.Ledger.Get(handle)))
	}

	switch {
	case result.Draw:
		l.Logger.Infof("match %s ended in a draw", m.ID)
	case result.Forfeit:
		l.Logger.Infof("match %s won by %s (%s forfeited)", m.ID, result.Winner, result.Loser)
	default:
		l.Logger.Infof("match %s won by %s", m.ID, result.Winner)
	}
	if l.Logger.IsLevelEnabled(logrus.DebugLevel) {
		l.Logger.Debugf("finished match state:\n%s", spew.Sdump(m))
	}
}

// abandonMatch ends a match without scoring it. Must be called with the lock
// held.
func (l *Lobby) abandonMatch(m *game.Match) {
	delete(l.matches, m.ID)
	for _, handle := range m.Players {
		p := l.registry.lookup(handle)
		if p == nil || p.matchID != m.ID {
			continue
		}
		p.state = Idle
		p.matchID = ""
		l.deliver(p, "The server is shutting down. The match was not scored.")
	}
	l.Logger.Infof("match %s abandoned: %s vs %s", m.ID, m.Players[0], m.Players[1])
}

// Shutdown ends every match in progress without scoring it. Players that
// disconnect afterwards don't forfeit, so stopping the server never changes
// the ledger.
func (l *Lobby) Shutdown() {
	l.lock()
	defer l.unlock()

	if l.closing {
		return
	}
	l.closing = true
	for _, m := range l.matches {
		l.abandonMatch(m)
	}
	l.Logger.Info("lobby closed")
}

func outcomeLine(r game.Result, handle string) string {
	switch {
	case r.Draw:
		return "The board is full. The match is a draw."
	case r.Winner == handle && r.Forfeit:
		return fmt.Sprintf("%s forfeited. You win!", r.Loser)
	case r.Winner == handle:
		return "Four in a row. You win!"
	case r.Forfeit:
		return "You forfeited the match."
	default:
		return fmt.Sprintf("%s connected four. You lose.", r.Winner)
	}
}

// Lookup returns the session registered under handle, if any.
func (l *Lobby) Lookup(handle string) (*Session, bool) {
	l.lock()
	defer l.unlock()

	s := l.registry.lookup(handle)
	return s, s != nil
}

// StateOf reports the state of the player registered under handle.
func (l *Lobby) StateOf(handle string) (State, bool) {
	l.lock()
	defer l.unlock()

	if s := l.registry.lookup(handle); s != nil {
		return s.state, true
	}
	return Idle, false
}

// Idle returns the handles of every idle player in registration order.
func (l *Lobby) Idle() []string {
	l.lock()
	defer l.unlock()
	return l.registry.idle()
}

// ListIdle sends s the list of other idle players.
func (l *Lobby) ListIdle(s *Session) error {
	l.lock()
	defer l.unlock()

	if !l.registry.has(s) {
		return ErrNotRegistered
	}
	l.deliver(s, l.idleLine(s))
	return nil
}

func (l *Lobby) idleLine(s *Session) string {
	var others []string
	for _, handle := range l.registry.idle() {
		if handle != s.handle {
			others = append(others, handle)
		}
	}
	if len(others) == 0 {
		return "No other players are waiting for a match."
	}
	return "Idle players: " + strings.Join(others, ", ")
}

// Stats sends s its own score record.
func (l *Lobby) Stats(s *Session) error {
	l.lock()
	defer l.unlock()

	if !l.registry.has(s) {
		return ErrNotRegistered
	}
	l.deliver(s, fmt.Sprintf("Your record: %s", l.Ledger.Get(s.handle)))
	return nil
}

// Players returns the number of registered players.
func (l *Lobby) Players() int {
	l.lock()
	defer l.unlock()
	return l.registry.len()
}
