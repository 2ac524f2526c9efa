package server

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const wsReadLimit = 64 * 1024

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket upgrades the request and hands the connection to the loop
// like any TCP client
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return nil
	}
	conn.SetReadLimit(wsReadLimit)

	s.attach(&wsConn{conn: conn})
	return nil
}

// wsConn presents a WebSocket as a line stream. Each inbound message is
// followed by a line break so a message without one still ends a line;
// each outbound line becomes one text message.
type wsConn struct {
	conn    *websocket.Conn
	reader  io.Reader
	pending bool
}

func (w *wsConn) Read(p []byte) (int, error) {
	for {
		if w.pending {
			w.pending = false
			p[0] = '\n'
			return 1, nil
		}

		if w.reader == nil {
			kind, r, err := w.conn.NextReader()
			if err != nil {
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) {
					return 0, io.EOF
				}
				return 0, err
			}
			if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
				continue
			}
			w.reader = r
		}

		n, err := w.reader.Read(p)
		if errors.Is(err, io.EOF) {
			w.reader = nil
			w.pending = true
			err = nil
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
}

func (w *wsConn) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\r\n")
	if err := w.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

func (w *wsConn) SetWriteDeadline(t time.Time) error {
	return w.conn.SetWriteDeadline(t)
}

func (w *wsConn) RemoteAddr() net.Addr {
	return w.conn.RemoteAddr()
}
