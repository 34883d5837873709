package lobby

import (
	"fmt"

	"github.com/dcrodman/connect4/internal/game"
)

// deliver queues line for s. If the line can't be queued the session is
// marked as stalled and gets dropped once the lock is released; delivery to
// everyone else carries on. Must be called with the lock held.
func (l *Lobby) deliver(s *Session, line string) {
	if s.stalled {
		return
	}
	if err := s.sender.Send(line); err != nil {
		l.Logger.Debugf("failed to send to %s: %v", s.handle, err)
		s.stalled = true
		l.stalled = append(l.stalled, s)
	}
}

// broadcast delivers line to every registered session except exclude.
func (l *Lobby) broadcast(line string, exclude *Session) {
	l.registry.each(func(s *Session) {
		if s != exclude {
			l.deliver(s, line)
		}
	})
}

// NotifyAll sends message to every registered player whose handle isn't
// listed in exclude.
func (l *Lobby) NotifyAll(message string, exclude ...string) {
	l.lock()
	defer l.unlock()

	skip := make(map[string]bool, len(exclude))
	for _, handle := range exclude {
		skip[handle] = true
	}
	l.registry.each(func(s *Session) {
		if !skip[s.handle] {
			l.deliver(s, message)
		}
	})
}

// NotifyOne sends message to a single player, reporting whether they were
// found.
func (l *Lobby) NotifyOne(handle, message string) bool {
	l.lock()
	defer l.unlock()

	s := l.registry.lookup(handle)
	if s == nil {
		return false
	}
	l.deliver(s, message)
	return true
}

// Chat relays message from s to every player, s included.
func (l *Lobby) Chat(s *Session, message string) error {
	l.lock()
	defer l.unlock()

	if !l.registry.has(s) {
		return ErrNotRegistered
	}
	l.broadcast(fmt.Sprintf("%s: %s", s.handle, message), nil)
	return nil
}

// sendBoard draws the board for both players of m.
func (l *Lobby) sendBoard(m *game.Match) {
	lines := m.Board.Lines()
	for _, handle := range m.Players {
		if p := l.registry.lookup(handle); p != nil {
			for _, line := range lines {
				l.deliver(p, line)
			}
		}
	}
}

// sendTurn prompts whoever moves next in m and tells the other player to wait.
func (l *Lobby) sendTurn(m *game.Match) {
	current := m.Current()
	for _, handle := range m.Players {
		p := l.registry.lookup(handle)
		if p == nil {
			continue
		}
		if handle == current {
			l.deliver(p, fmt.Sprintf("Your turn (%c). Choose a column from 0 to %d.",
				m.Token(handle).Token(), game.Columns-1))
		} else {
			l.deliver(p, fmt.Sprintf("Waiting for %s to play.", current))
		}
	}
}
