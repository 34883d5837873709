package client

import (
	"strings"

	"github.com/gorilla/websocket"
)

// wsConn carries the line protocol over a WebSocket. Each outgoing line is
// one text frame; incoming frames may hold several newline-separated lines.
type wsConn struct {
	*websocket.Conn
	// Lines left over from a frame that contained more than one.
	pending []string
}

// NewWebsocketConn adapts an upgraded WebSocket connection to Conn.
func NewWebsocketConn(conn *websocket.Conn) Conn {
	return &wsConn{Conn: conn}
}

func (w *wsConn) ReadLine() (string, error) {
	for len(w.pending) == 0 {
		_, data, err := w.ReadMessage()
		if err != nil {
			return "", err
		}
		w.pending = strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
	}

	line := w.pending[0]
	w.pending = w.pending[1:]
	return line, nil
}

func (w *wsConn) WriteLine(line string) error {
	return w.WriteMessage(websocket.TextMessage, []byte(line))
}
