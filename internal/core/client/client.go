package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned by Send when the client isn't draining its
	// outbound queue fast enough.
	ErrQueueFull = errors.New("outbound queue full")
	// ErrClosed is returned by Send once the client has been closed.
	ErrClosed = errors.New("client closed")
	// ErrDisconnect is returned by a backend when it has finished with a
	// client and the connection should be closed without logging a failure.
	ErrDisconnect = errors.New("disconnected by server")
)

// Conn is a bidirectional line-oriented connection.
type Conn interface {
	// ReadLine blocks until the next full line has been received and returns
	// it without the line terminator.
	ReadLine() (string, error)
	WriteLine(line string) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
	Close() error
}

// Client represents a user connected to the server. Outbound lines are
// queued and written by a dedicated goroutine in the order they were sent.
type Client struct {
	conn   Conn
	ipAddr string
	port   string

	writeTimeout time.Duration

	mu       sync.Mutex
	closed   bool
	outbound chan string
	// Closed once the writer goroutine has exited and the connection is closed.
	done chan struct{}

	// Handle registered by the player, or empty before registration.
	Handle string

	// Debugging information used for logging purposes.
	DebugTags map[string]interface{}
}

// NewClient wraps conn and starts its writer. queueSize bounds the number of
// lines that may be waiting to be written; writeTimeout bounds each write.
func NewClient(conn Conn, queueSize int, writeTimeout time.Duration) *Client {
	addr := conn.RemoteAddr().String()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if queueSize < 1 {
		queueSize = 1
	}

	c := &Client{
		conn:         conn,
		ipAddr:       host,
		port:         port,
		writeTimeout: writeTimeout,
		outbound:     make(chan string, queueSize),
		done:         make(chan struct{}),
		DebugTags:    make(map[string]interface{}),
	}
	go c.writeLoop()
	return c
}

func (c *Client) IPAddr() string { return c.ipAddr }
func (c *Client) Port() string   { return c.port }

// String identifies the client in logs.
func (c *Client) String() string {
	if c.Handle != "" {
		return fmt.Sprintf("%s (%s)", c.Handle, c.ipAddr)
	}
	return c.ipAddr
}

// ReadLine blocks until the client sends a line. Trailing whitespace
// (including a carriage return) is stripped.
func (c *Client) ReadLine() (string, error) {
	line, err := c.conn.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, " \t\r\n"), nil
}

// Send queues line for delivery without blocking. It fails if the client has
// been closed or its queue is full; either way the line is dropped.
func (c *Client) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	select {
	case c.outbound <- line:
		return nil
	default:
		return ErrQueueFull
	}
}

// Sendf formats according to a format specifier and queues the result.
func (c *Client) Sendf(format string, args ...interface{}) error {
	return c.Send(fmt.Sprintf(format, args...))
}

// Close stops accepting new lines. Lines already queued are still written
// before the connection is closed. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.outbound)
	}
	return nil
}

// Abort closes the connection immediately, discarding anything queued.
func (c *Client) Abort() error {
	c.Close()
	return c.conn.Close()
}

// Done is closed after the connection has been closed.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) writeLoop() {
	defer close(c.done)
	defer c.conn.Close()

	for line := range c.outbound {
		if c.writeTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		}
		if err := c.conn.WriteLine(line); err != nil {
			// The reader will see the closed connection and clean up.
			c.Close()
			for range c.outbound {
			}
			return
		}
	}
}

// lineConn frames a stream connection (TCP) into newline-delimited lines.
type lineConn struct {
	net.Conn
	reader *bufio.Reader
}

// NewLineConn wraps a stream connection in newline framing.
func NewLineConn(conn net.Conn) Conn {
	return &lineConn{Conn: conn, reader: bufio.NewReader(conn)}
}

func (l *lineConn) ReadLine() (string, error) {
	line, err := l.reader.ReadString('\n')
	if err != nil {
		// A final line without a terminator still counts.
		if err == io.EOF && line != "" {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

func (l *lineConn) WriteLine(line string) error {
	_, err := io.WriteString(l.Conn, line+"\n")
	return err
}
