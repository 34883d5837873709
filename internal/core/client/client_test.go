package client

import (
	"bufio"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestListener(t *testing.T) (*net.TCPListener, *net.TCPAddr) {
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("error initializing test listener: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	return listener, listener.Addr().(*net.TCPAddr)
}

func newTestConnection(t *testing.T, addr *net.TCPAddr) *net.TCPConn {
	conn, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		t.Fatalf("error initializing test connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestClient returns a server-side Client and the remote end of its connection.
func newTestClient(t *testing.T, queueSize int) (*Client, *net.TCPConn) {
	serverListener, addr := newTestListener(t)
	// Connect to the server as if from a player.
	conn := newTestConnection(t, addr)

	// Handle the connection on the server side and drop it into a Client.
	clientConn, err := serverListener.AcceptTCP()
	if err != nil {
		t.Fatalf("error initializing client connection: %s", err)
	}
	return NewClient(NewLineConn(clientConn), queueSize, time.Second), conn
}

func TestClient_ReadLine(t *testing.T) {
	client, conn := newTestClient(t, 8)
	defer client.Abort()

	if _, err := conn.Write([]byte("alice\r\nplay bob\nlast line")); err != nil {
		t.Fatalf("error writing to test connection: %s", err)
	}
	conn.CloseWrite()

	var got []string
	for {
		line, err := client.ReadLine()
		if err != nil {
			break
		}
		got = append(got, line)
	}

	want := []string{"alice", "play bob", "last line"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ReadLine() results did not match expected; diff:\n%s", diff)
	}
}

func TestClient_SendPreservesOrder(t *testing.T) {
	client, conn := newTestClient(t, 64)

	want := []string{"one", "two", "three", "four"}
	for _, line := range want {
		if err := client.Send(line); err != nil {
			t.Fatalf("Send() returned an unexpected error: %v", err)
		}
	}
	// Queued lines are flushed before the connection closes.
	client.Close()

	var got []string
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lines read from test connection did not match expected; diff:\n%s", diff)
	}

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatalf("Done() was not closed after Close()")
	}
	if err := client.Send("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close() want = %v, got = %v", ErrClosed, err)
	}
}

// blockedConn never completes a write until it is closed.
type blockedConn struct {
	closed chan struct{}
}

func (b *blockedConn) ReadLine() (string, error) { <-b.closed; return "", net.ErrClosed }
func (b *blockedConn) WriteLine(string) error     { <-b.closed; return net.ErrClosed }
func (b *blockedConn) SetWriteDeadline(time.Time) error {
	return nil
}
func (b *blockedConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 4000}
}
func (b *blockedConn) Close() error {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	return nil
}

func TestClient_SendQueueFull(t *testing.T) {
	conn := &blockedConn{closed: make(chan struct{})}
	client := NewClient(conn, 2, 0)

	// The writer holds one line while blocked, the queue holds two more.
	var err error
	for i := 0; i < 4 && err == nil; i++ {
		err = client.Send("line")
	}
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Send() on a stalled client want = %v, got = %v", ErrQueueFull, err)
	}

	client.Abort()
	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatalf("Done() was not closed after Abort()")
	}
}

func TestNewClient_Address(t *testing.T) {
	client := NewClient(&blockedConn{closed: make(chan struct{})}, 1, 0)
	defer client.Abort()

	if client.IPAddr() != "10.0.0.1" || client.Port() != "4000" {
		t.Errorf("NewClient() parsed address %s:%s", client.IPAddr(), client.Port())
	}
	client.Handle = "alice"
	if client.String() != "alice (10.0.0.1)" {
		t.Errorf("String() want = %s, got = %s", "alice (10.0.0.1)", client.String())
	}
}
