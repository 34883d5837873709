package internal

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dcrodman/connect4/internal/core"
	"github.com/dcrodman/connect4/internal/core/debug"
	"github.com/dcrodman/connect4/internal/ledger"
	"github.com/dcrodman/connect4/internal/lobby"
)

// listener is a transport that accepts clients until its context is cancelled.
type listener interface {
	Start(ctx context.Context, wg *sync.WaitGroup) error
	Addr() net.Addr
}

// Controller is the main entrypoint for the server. It's responsible for
// initializing any shared resources (logging and the score ledger), defining
// the frontends, and launching everything.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	wg     sync.WaitGroup

	ledger     *ledger.Ledger
	backend    *lobby.Server
	dispatcher *dispatcher
	servers    []listener
}

// Start runs the server until ctx is cancelled. An error is only returned if
// the server couldn't be started.
func (c *Controller) Start(ctx context.Context) error {
	var err error
	// Set up the logger, which will be used by every component.
	if c.logger == nil {
		c.logger, err = core.NewLogger(c.Config)
		if err != nil {
			return fmt.Errorf("error initializing logger: %w", err)
		}
	}

	c.ledger = ledger.Open(ledger.OpenStoreOrMemory(c.Config, c.logger), c.logger)
	defer c.Shutdown()

	// Start any debug utilities if we're configured to do so.
	if c.Config.Debugging.Enabled {
		debug.StartUtilities(c.logger, c.Config.Debugging.PprofPort)
	}

	c.backend = &lobby.Server{
		Name:   "LOBBY",
		Config: c.Config,
		Logger: c.logger,
		Ledger: c.ledger,
	}
	if err := c.backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %w", c.backend.Identifier(), err)
	}

	c.declareServers()
	return c.run(ctx)
}

// Set up the TCP frontend and, if a port was configured, the WebSocket one.
func (c *Controller) declareServers() {
	c.dispatcher = newDispatcher(c.backend, c.Config, c.logger)
	c.servers = []listener{
		&frontend{
			Address:    c.Config.ListenAddress(),
			Logger:     c.logger,
			dispatcher: c.dispatcher,
		},
	}

	if addr := c.Config.WebsocketAddress(); addr != "" {
		c.servers = append(c.servers, &websocketFrontend{
			Address:    addr,
			Path:       DefaultWebsocketPath,
			Logger:     c.logger,
			dispatcher: c.dispatcher,
		})
	}
}

func (c *Controller) run(ctx context.Context) error {
	// Failure to bind one of the frontends is considered terminal.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, server := range c.servers {
		if err := server.Start(ctx, &c.wg); err != nil {
			cancel()
			c.wg.Wait()
			return err
		}
	}

	c.wg.Wait()
	return nil
}

// Shutdown waits for every frontend to stop and releases the score ledger.
func (c *Controller) Shutdown() {
	c.wg.Wait()
	if c.ledger == nil {
		return
	}
	c.ledger.Persist()
	if err := c.ledger.Close(); err != nil {
		c.logger.Warnf("error closing score ledger: %v", err)
	}
	c.logger.Info("score ledger closed")
}
