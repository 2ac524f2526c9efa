package server_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/presbrey/relayd/irc/config"
	"github.com/stretchr/testify/require"
)

func wsExpect(t *testing.T, conn *websocket.Conn, fragment string) string {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", fragment)
		if line := string(data); strings.Contains(line, fragment) {
			return line
		}
	}
}

func TestWebSocketClient(t *testing.T) {
	srv, addr := startServer(t, func(cfg *config.Config) {
		cfg.WebSocket.Enabled = true
	})

	web := httptest.NewServer(srv.Admin())
	defer web.Close()

	url := "ws" + strings.TrimPrefix(web.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// several lines in one message, the last without a terminator
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("PASS "+testPassword+"\r\nNICK webby\r\nUSER webby 0 * :Web")))
	line := wsExpect(t, conn, " 001 ")
	require.True(t, strings.HasPrefix(line, ":irc.test 001 webby "))
	require.False(t, strings.HasSuffix(line, "\n"))

	alice := Register(t, addr, "alice")
	alice.Join(t, "#lounge")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("JOIN #lounge")))
	wsExpect(t, conn, " 366 webby #lounge ")
	alice.Expect(t, ":webby!webby@127.0.0.1 JOIN #lounge")

	alice.Send("PRIVMSG #lounge :hello web")
	wsExpect(t, conn, ":alice!alice@127.0.0.1 PRIVMSG #lounge :hello web")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("PRIVMSG #lounge :hello tcp\r\n")))
	alice.Expect(t, ":webby!webby@127.0.0.1 PRIVMSG #lounge :hello tcp")

	conn.Close()
	alice.Expect(t, ":webby!webby@127.0.0.1 QUIT ")
}

func TestWebSocketDisabled(t *testing.T) {
	srv, _ := startServer(t)

	web := httptest.NewServer(srv.Admin())
	defer web.Close()

	_, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(web.URL, "http")+"/ws", nil)
	require.Error(t, err)
}
