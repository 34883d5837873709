package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dcrodman/connect4/internal/core/client"
)

// frontend implements the TCP client connection logic.
//
// Lines are read from any connected clients and passed to the dispatcher's
// backend, abstracting the lower level connection details away from it.
type frontend struct {
	Address    string
	Logger     *logrus.Logger
	dispatcher *dispatcher

	socket *net.TCPListener
}

// Start opens a TCP socket for the frontend. A blocking loop for accepting
// client connections is spun off in its own goroutine and added to the
// WaitGroup. Context cancellations will stop the server.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %v", f.Address, err)
	}
	f.socket = socket

	wg.Add(1)
	go f.startBlockingLoop(ctx, socket, wg)

	return nil
}

// Addr returns the address the frontend is listening on once started.
func (f *frontend) Addr() net.Addr {
	return f.socket.Addr()
}

// createSocket opens a TCP socket to listen for client connections on the Address
// provided to the frontend.
func (f *frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s", err.Error())
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %s", err.Error())
	}

	return socket, nil
}

// startBlockingLoop implements a connection handling loop that's purely responsible for
// accepting new connections and spinning off goroutines for the dispatcher to handle them.
func (f *frontend) startBlockingLoop(ctx context.Context, socket *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()

	name := f.dispatcher.Backend.Identifier()
	f.Logger.Infof("[%s] waiting for connections on %v", name, socket.Addr())

	go func() {
		<-ctx.Done()
		f.dispatcher.stopBackend()
		socket.Close()
	}()

	clientWg := &sync.WaitGroup{}
	for {
		connection, err := socket.AcceptTCP()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			f.Logger.Warnf("failed to accept connection: %s", err.Error())
			continue
		}

		c := f.dispatcher.newClient(client.NewLineConn(connection))
		if !f.dispatcher.admit(c) {
			f.dispatcher.reject(c)
			continue
		}

		clientWg.Add(1)
		go func() {
			defer clientWg.Done()
			f.dispatcher.serve(ctx, c)
		}()
	}

	f.Logger.Infof("[%v] shutting down (waiting for connections to close)", name)
	f.dispatcher.shutdown()
	clientWg.Wait()
	f.Logger.Infof("[%v] exited", name)
}
