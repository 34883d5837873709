package lobby

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dcrodman/connect4/internal/core"
	"github.com/dcrodman/connect4/internal/core/client"
	"github.com/dcrodman/connect4/internal/game"
	"github.com/dcrodman/connect4/internal/ledger"
)

// Server is the backend that turns lines from connected clients into lobby
// operations. The first line a client sends is the handle it wants to
// register with; every line after that is a command or chat.
type Server struct {
	Name   string
	Config *core.Config
	Logger *logrus.Logger
	Ledger *ledger.Ledger

	lobby *Lobby
	// Registered sessions keyed by *client.Client.
	sessions sync.Map
}

func (s *Server) Identifier() string { return s.Name }

func (s *Server) Init(ctx context.Context) error {
	if s.Ledger == nil {
		return errors.New("lobby server requires a score ledger")
	}
	s.lobby = New(s.Logger, s.Ledger, s.Config.MaxHandleLength)
	return nil
}

// Lobby exposes the shared lobby state, mostly for tests and diagnostics.
func (s *Server) Lobby() *Lobby { return s.lobby }

func (s *Server) Handshake(c *client.Client) error {
	c.DebugTags["server_type"] = s.Name
	return c.Send("Welcome to Connect Four! Enter a handle:")
}

func (s *Server) Handle(ctx context.Context, c *client.Client, line string) error {
	v, ok := s.sessions.Load(c)
	if !ok {
		return s.register(c, line)
	}
	session := v.(*Session)

	cmd, err := parseCommand(line)
	if err != nil {
		return s.reply(c, "Error: "+err.Error())
	}

	switch cmd.Type {
	case cmdNone:
		return nil
	case cmdChat:
		err = s.lobby.Chat(session, cmd.Text)
	case cmdPlay:
		err = s.lobby.Invite(session, cmd.Target)
	case cmdAccept:
		err = s.lobby.Respond(session, true)
	case cmdDecline:
		err = s.lobby.Respond(session, false)
	case cmdMove:
		err = s.lobby.Move(session, cmd.Column)
	case cmdForfeit:
		err = s.lobby.Forfeit(session)
	case cmdStats:
		err = s.lobby.Stats(session)
	case cmdList:
		err = s.lobby.ListIdle(session)
	case cmdHelp:
		return s.reply(c, strings.Split(helpText, "\n")...)
	case cmdQuit:
		s.sessions.Delete(c)
		s.lobby.Quit(session)
		return client.ErrDisconnect
	}

	if err != nil {
		if errors.Is(err, ErrNotRegistered) {
			// Dropped by the lobby while this line was being read.
			return client.ErrDisconnect
		}
		message, known := describe(err)
		if !known {
			return fmt.Errorf("error handling %q from %s: %w", line, session.Handle(), err)
		}
		return s.reply(c, "Error: "+message)
	}
	return nil
}

func (s *Server) register(c *client.Client, handle string) error {
	session, err := s.lobby.Register(handle, c)
	if err != nil {
		s.Logger.Infof("[%s] rejected handle %q from %s: %v", s.Name, handle, c.IPAddr(), err)
		if sendErr := c.Send("Error: " + err.Error()); sendErr != nil {
			s.Logger.Debugf("unable to send rejection to %s: %v", c.IPAddr(), sendErr)
		}
		return client.ErrDisconnect
	}

	c.Handle = handle
	s.sessions.Store(c, session)
	return nil
}

// Disconnect cleans up after a client whose connection has gone away.
func (s *Server) Disconnect(c *client.Client) {
	if v, ok := s.sessions.LoadAndDelete(c); ok {
		s.lobby.Disconnect(v.(*Session))
	}
}

// Shutdown ends every match without scoring it. It's called once the server
// starts stopping, before connections are closed.
func (s *Server) Shutdown() {
	s.lobby.Shutdown()
}

func (s *Server) reply(c *client.Client, lines ...string) error {
	for _, line := range lines {
		if err := c.Send(line); err != nil {
			return fmt.Errorf("error sending to %s: %w", c, err)
		}
	}
	return nil
}

// describe maps the errors a player can cause to the text shown to them.
func describe(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrInviteSelf):
		return "you can't invite yourself", true
	case errors.Is(err, ErrNotIdle):
		return "finish your current invitation or match first", true
	case errors.Is(err, ErrTargetNotFound):
		return "no player with that handle", true
	case errors.Is(err, ErrTargetBusy):
		return "that player is busy", true
	case errors.Is(err, ErrNoPendingInvitation):
		return "you have no pending invitation", true
	case errors.Is(err, ErrNotInMatch):
		return "you are not in a match", true
	case errors.Is(err, ErrShuttingDown):
		return "the server is shutting down", true
	case errors.Is(err, game.ErrWrongTurn):
		return "it's not your turn", true
	case errors.Is(err, game.ErrColumnOutOfRange):
		return fmt.Sprintf("column must be between 0 and %d", game.Columns-1), true
	case errors.Is(err, game.ErrColumnFull):
		return "that column is full", true
	case errors.Is(err, game.ErrMatchFinished), errors.Is(err, game.ErrNotParticipant):
		return "you are not in a match", true
	}
	return "", false
}
