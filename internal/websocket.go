package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/connect4/internal/core/client"
)

// DefaultWebsocketPath is where WebSocket clients connect.
const DefaultWebsocketPath = "/ws"

// websocketFrontend accepts clients over WebSocket and feeds them to the same
// dispatcher as the TCP frontend. Each text frame carries one line.
type websocketFrontend struct {
	Address    string
	Path       string
	Logger     *logrus.Logger
	dispatcher *dispatcher

	ctx      context.Context
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader

	// Guards clients.Add against the final Wait in serve.
	mu      sync.Mutex
	closing bool
	clients sync.WaitGroup
}

func (w *websocketFrontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	listener, err := net.Listen("tcp", w.Address)
	if err != nil {
		return fmt.Errorf("error creating websocket listener on %s: %v", w.Address, err)
	}
	w.ctx = ctx
	w.listener = listener
	w.upgrader = websocket.Upgrader{
		// Any origin may connect.
		CheckOrigin:     func(r *http.Request) bool { return true },
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	path := w.Path
	if path == "" {
		path = DefaultWebsocketPath
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, w.handleUpgrade)
	w.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	wg.Add(1)
	go w.serve(ctx, path, wg)
	return nil
}

// Addr returns the address the frontend is listening on once started.
func (w *websocketFrontend) Addr() net.Addr {
	return w.listener.Addr()
}

func (w *websocketFrontend) serve(ctx context.Context, path string, wg *sync.WaitGroup) {
	defer wg.Done()

	name := w.dispatcher.Backend.Identifier()
	w.Logger.Infof("[%s] waiting for websocket connections on ws://%v%s", name, w.listener.Addr(), path)

	go func() {
		<-ctx.Done()
		w.dispatcher.stopBackend()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.server.Shutdown(shutdownCtx)
	}()

	if err := w.server.Serve(w.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		w.Logger.Errorf("[%s] websocket server stopped: %v", name, err)
	}

	// Hijacked connections aren't tracked by the http.Server.
	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()
	w.dispatcher.shutdown()
	w.clients.Wait()
	w.Logger.Infof("[%v] websocket frontend exited", name)
}

func (w *websocketFrontend) handleUpgrade(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.Logger.Debugf("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	if !w.track() {
		_ = conn.Close()
		return
	}
	defer w.clients.Done()

	c := w.dispatcher.newClient(client.NewWebsocketConn(conn))
	if !w.dispatcher.admit(c) {
		w.dispatcher.reject(c)
		return
	}
	w.dispatcher.serve(w.ctx, c)
}

// track counts a new connection towards the ones serve waits for, refusing
// it once the frontend has started shutting down.
func (w *websocketFrontend) track() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closing {
		return false
	}
	w.clients.Add(1)
	return true
}
