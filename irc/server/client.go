package server

import (
	"io"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/presbrey/relayd/irc"
	"golang.org/x/time/rate"
)

// transport is the byte stream under a client: a TCP connection or a
// WebSocket adapter
type transport interface {
	io.ReadWriteCloser
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

// SessionState is the registration progress of a client
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticated
	Registered
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Registered:
		return "registered"
	}
	return "unknown"
}

// Client represents a connected IRC client. Every field is owned by the
// server loop; reader and writer goroutines only move bytes.
type Client struct {
	ID   string
	conn transport
	log  *slog.Logger

	nick     string
	user     string
	realname string
	host     string

	framer        *irc.Framer
	authenticated bool
	registered    bool
	welcomeSent   bool

	channels map[string]struct{} // folded channel names
	limiter  *rate.Limiter
	since    time.Time

	outbound chan string
	done     chan struct{}
	closed   bool
}

func newClient(conn transport, maxLine, sendQueue int, logger *slog.Logger) *Client {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}

	id := uuid.New().String()
	return &Client{
		ID:       id,
		conn:     conn,
		log:      logger.With("client", id, "remote", host),
		host:     host,
		framer:   irc.NewFramer(maxLine),
		channels: make(map[string]struct{}),
		since:    time.Now(),
		outbound: make(chan string, sendQueue),
		done:     make(chan struct{}),
	}
}

func (c *Client) Nick() string     { return c.nick }
func (c *Client) User() string     { return c.user }
func (c *Client) Realname() string { return c.realname }
func (c *Client) Host() string     { return c.host }

// State reports where the client is in the registration handshake
func (c *Client) State() SessionState {
	switch {
	case c.registered:
		return Registered
	case c.authenticated:
		return Authenticated
	}
	return Unauthenticated
}

// Prefix returns the nick!user@host identity used on relayed lines
func (c *Client) Prefix() string {
	return irc.FormatHostmask(c.nick, c.user, c.host)
}

// target is the reply target: the nickname, or "*" before one is set
func (c *Client) target() string {
	if c.nick == "" {
		return "*"
	}
	return c.nick
}

// Channels returns the folded names of the channels the client is in
func (c *Client) Channels() []string {
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readyToRegister reports whether the handshake is complete
func (c *Client) readyToRegister() bool {
	return !c.registered && c.authenticated && c.nick != "" && c.user != ""
}
