package lobby

import "errors"

var (
	ErrInvalidHandle   = errors.New("invalid handle")
	ErrDuplicateHandle = errors.New("handle already in use")
	// ErrNotRegistered is returned for a session that has already left the lobby.
	ErrNotRegistered = errors.New("not registered")

	ErrInviteSelf          = errors.New("cannot invite yourself")
	ErrNotIdle             = errors.New("busy with another invitation or match")
	ErrTargetNotFound      = errors.New("player not found")
	ErrTargetBusy          = errors.New("player is busy")
	ErrNoPendingInvitation = errors.New("no pending invitation")
	ErrNotInMatch          = errors.New("not in a match")
	ErrShuttingDown        = errors.New("server is shutting down")
)
