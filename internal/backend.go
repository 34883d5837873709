package internal

import (
	"context"

	"github.com/dcrodman/connect4/internal/core/client"
)

// Backend is an interface for a server that handles the lines sent by
// connected clients. The transport details are hidden behind the frontends.
type Backend interface {
	// Identifier returns a uniquely identifying string.
	Identifier() string

	// Init is called once before any frontend starts accepting clients as a
	// hook for the Backend to perform any necessary initialization.
	Init(ctx context.Context) error

	// Handshake performs any connection initialization necessary to begin
	// communicating with the client, such as sending a welcome message.
	Handshake(c *client.Client) error

	// Handle is the main entry point for processing client lines. Returning
	// client.ErrDisconnect closes the connection without reporting a failure;
	// any other error is logged before the connection is closed.
	Handle(ctx context.Context, c *client.Client, line string) error

	// Disconnect is called exactly once after a client's connection has
	// closed, whatever the reason.
	Disconnect(c *client.Client)

	// Shutdown is called once when the server starts stopping, before any
	// client is disconnected because of it.
	Shutdown()
}
