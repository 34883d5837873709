package internal

import (
	"context"
	"errors"
	"io"
	"net"
	"runtime/debug"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/connect4/internal/core"
	"github.com/dcrodman/connect4/internal/core/client"
)

// dispatcher runs the per-client read loop for every transport, passing
// each line to the Backend. It also enforces the connection limit across all
// transports.
type dispatcher struct {
	Backend Backend
	Config  *core.Config
	Logger  *logrus.Logger

	mu      sync.Mutex
	clients map[*client.Client]struct{}

	stopOnce sync.Once
}

func newDispatcher(backend Backend, cfg *core.Config, logger *logrus.Logger) *dispatcher {
	return &dispatcher{
		Backend: backend,
		Config:  cfg,
		Logger:  logger,
		clients: make(map[*client.Client]struct{}),
	}
}

// newClient wraps conn with the configured outbound queue settings.
func (d *dispatcher) newClient(conn client.Conn) *client.Client {
	return client.NewClient(conn, d.Config.OutboundQueueSize, d.Config.WriteTimeout)
}

// admit registers c as connected, refusing it if the server is full.
func (d *dispatcher) admit(c *client.Client) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Config.MaxConnections > 0 && len(d.clients) >= d.Config.MaxConnections {
		return false
	}
	d.clients[c] = struct{}{}
	return true
}

func (d *dispatcher) release(c *client.Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.clients, c)
}

// Connected returns the number of open client connections.
func (d *dispatcher) Connected() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

// abortAll closes every open connection, which unblocks their read loops.
func (d *dispatcher) abortAll() {
	d.mu.Lock()
	clients := make([]*client.Client, 0, len(d.clients))
	for c := range d.clients {
		clients = append(clients, c)
	}
	d.mu.Unlock()

	for _, c := range clients {
		_ = c.Abort()
	}
}

// stopBackend lets the Backend know the server is stopping. Only the first
// call has any effect.
func (d *dispatcher) stopBackend() {
	d.stopOnce.Do(d.Backend.Shutdown)
}

// shutdown stops the Backend and then closes every open connection.
func (d *dispatcher) shutdown() {
	d.stopBackend()
	d.abortAll()
}

// reject tells a client the server is full and closes the connection once
// the message has been written.
func (d *dispatcher) reject(c *client.Client) {
	d.Logger.Warnf("[%s] rejected connection from %s: connection limit reached",
		d.Backend.Identifier(), c.IPAddr())
	_ = c.Send("Server is full, try again later.")
	_ = c.Close()
}

// serve starts a blocking loop dedicated to reading lines sent from a client
// and only returns once the connection has closed.
func (d *dispatcher) serve(ctx context.Context, c *client.Client) {
	defer d.closeConnectionAndRecover(ctx, d.Backend.Identifier(), c)

	d.Logger.Infof("[%s] accepted connection from %s", d.Backend.Identifier(), c.IPAddr())

	if err := d.Backend.Handshake(c); err != nil {
		d.Logger.Errorf("Handshake() failed for client %s: %s", c.IPAddr(), err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.ReadLine()
		if err != nil {
			if !isClosedError(err) {
				d.Logger.Warnf("error reading from %s: %v", c, err)
			}
			return
		}

		if err := d.Backend.Handle(ctx, c, line); err != nil {
			if !errors.Is(err, client.ErrDisconnect) {
				d.Logger.Warn("error in client communication: " + err.Error())
			}
			return
		}
	}
}

// closeConnectionAndRecover is the failsafe that catches any panics, disconnects the
// client, and removes them from the list regardless of the state of the connection.
func (d *dispatcher) closeConnectionAndRecover(ctx context.Context, serverName string, c *client.Client) {
	if err := recover(); err != nil {
		d.Logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			c.IPAddr(), err, debug.Stack())
	}

	// A client dropped by the server stopping isn't leaving on its own.
	if ctx.Err() != nil {
		d.stopBackend()
	}

	d.Backend.Disconnect(c)

	// Anything still queued is flushed before the socket is closed.
	if err := c.Close(); err != nil {
		d.Logger.Warnf("failed to close client connection: %s", err)
	}
	d.release(c)

	d.Logger.Infof("[%s] disconnected client %s", serverName, c)
}

func isClosedError(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
