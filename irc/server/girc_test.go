package server_test

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/lrstanley/girc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGircClient drives the server with a third-party client library
func TestGircClient(t *testing.T) {
	_, addr := startServer(t)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	client := girc.New(girc.Config{
		Server:     host,
		Port:       portNum,
		ServerPass: testPassword,
		Nick:       "gbot",
		User:       "gbot",
		Name:       "girc bot",
	})

	joined := make(chan struct{}, 1)
	messages := make(chan string, 1)
	client.Handlers.Add(girc.CONNECTED, func(c *girc.Client, e girc.Event) {
		c.Cmd.Join("#girc")
	})
	client.Handlers.Add(girc.JOIN, func(c *girc.Client, e girc.Event) {
		if e.Source != nil && e.Source.Name == "gbot" {
			select {
			case joined <- struct{}{}:
			default:
			}
		}
	})
	client.Handlers.Add(girc.PRIVMSG, func(c *girc.Client, e girc.Event) {
		select {
		case messages <- e.Last():
		default:
		}
	})

	go client.Connect()
	defer client.Close()

	select {
	case <-joined:
	case <-time.After(5 * time.Second):
		t.Fatal("girc client never joined")
	}

	alice := Register(t, addr, "alice")
	alice.Send("JOIN #girc")
	alice.Expect(t, " 353 alice = #girc :@gbot alice")

	alice.Send("PRIVMSG #girc :hello bot")
	select {
	case text := <-messages:
		assert.Equal(t, "hello bot", text)
	case <-time.After(5 * time.Second):
		t.Fatal("girc client never received the message")
	}

	client.Cmd.Message("#girc", "hello alice")
	alice.Expect(t, ":gbot!gbot@127.0.0.1 PRIVMSG #girc :hello alice")
}
