package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/presbrey/relayd/hooks"
	"github.com/presbrey/relayd/irc"
	"github.com/presbrey/relayd/irc/config"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Version is reported in the welcome sequence
const Version = "relayd-0.1"

// Server represents the IRC server. All client and channel state is owned
// by a single loop goroutine fed by one event channel; connection goroutines
// only read and write bytes.
type Server struct {
	config   *config.Config
	log      *slog.Logger
	created  time.Time
	registry *prometheus.Registry
	metrics  *metrics
	hooks    *hooks.Registry[*CommandEvent]
	commands map[string]command

	events   chan any
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	listener net.Listener
	admin    *echo.Echo
	adminLn  net.Listener

	// owned by the loop
	clients  map[string]*Client
	nicks    map[string]*Client
	channels map[string]*Channel
	doomed   []doomed
}

type doomed struct {
	client *Client
	reason string
}

// loop events
type (
	connectedEvent struct {
		conn transport
	}
	receivedEvent struct {
		client *Client
		data   []byte
	}
	disconnectedEvent struct {
		client *Client
		err    error
	}
	callEvent struct {
		fn   func()
		done chan struct{}
	}
)

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the structured logger (default slog.Default())
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.log = logger }
}

// WithRegistry sets the Prometheus registry metrics are registered in
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// NewServer creates a new IRC server
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}

	srv := &Server{
		config:   cfg,
		log:      slog.Default(),
		created:  time.Now(),
		hooks:    hooks.NewRegistry[*CommandEvent](),
		events:   make(chan any, 1024),
		quit:     make(chan struct{}),
		clients:  make(map[string]*Client),
		nicks:    make(map[string]*Client),
		channels: make(map[string]*Channel),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.registry == nil {
		srv.registry = prometheus.NewRegistry()
	}

	m, err := newMetrics(srv.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	srv.metrics = m
	srv.commands = commandTable()
	srv.hooks.Register(hooks.Wildcard, srv.metrics.observe)

	return srv, nil
}

// Start binds the listeners and runs the server in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.GetListenAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.GetListenAddress(), err)
	}
	return s.Serve(listener)
}

// Serve runs the server on an existing listener and returns immediately
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener

	if s.config.Admin.Enabled {
		if err := s.startAdmin(); err != nil {
			listener.Close()
			return err
		}
	}

	s.wg.Add(2)
	go s.run()
	go s.acceptConnections()

	s.log.Info("IRC server started", "addr", listener.Addr().String(), "name", s.name())
	return nil
}

// Addr returns the IRC listener address
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops the IRC server, closing every connection
func (s *Server) Stop() error {
	var errs []error
	s.stopOnce.Do(func() {
		close(s.quit)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				errs = append(errs, fmt.Errorf("close listener: %w", err))
			}
		}

		if s.admin != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.admin.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs = append(errs, fmt.Errorf("stop admin: %w", err))
			}
		}

		s.wg.Wait()
		s.log.Info("IRC server stopped")
	})

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}
	return nil
}

func (s *Server) name() string {
	return s.config.Server.Name
}

// post hands an event to the loop; it fails once the server is stopping
func (s *Server) post(ev any) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

// call runs fn on the loop and waits for it
func (s *Server) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case s.events <- callEvent{fn: fn, done: done}:
	case <-s.quit:
		return ErrServerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-s.quit:
		return ErrServerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acceptConnections accepts connections until the listener closes
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("failed to accept connection", "err", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		s.attach(conn)
	}
}

// attach hands a new connection to the loop
func (s *Server) attach(conn transport) {
	if !s.post(connectedEvent{conn: conn}) {
		conn.Close()
	}
}

// run is the control loop. Events are handled one at a time, in the order
// they arrive, which gives every client the same view of the order of
// effects.
func (s *Server) run() {
	defer s.wg.Done()

	for {
		select {
		case ev := <-s.events:
			s.handleEvent(ev)
		case <-s.quit:
			s.shutdown()
			return
		}
	}
}

func (s *Server) handleEvent(ev any) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic handling event", "panic", r, "event", fmt.Sprintf("%T", ev))
			if c := eventClient(ev); c != nil {
				s.schedule(c, "Internal error")
			}
		}
		s.reap()
	}()

	switch ev := ev.(type) {
	case connectedEvent:
		s.connect(ev.conn)
	case receivedEvent:
		s.receive(ev.client, ev.data)
	case disconnectedEvent:
		reason := "Connection closed"
		if ev.err != nil && !errors.Is(ev.err, io.EOF) && !errors.Is(ev.err, net.ErrClosed) {
			reason = ev.err.Error()
		}
		s.disconnect(ev.client, reason)
	case callEvent:
		ev.fn()
		close(ev.done)
	}
}

func eventClient(ev any) *Client {
	switch ev := ev.(type) {
	case receivedEvent:
		return ev.client
	case disconnectedEvent:
		return ev.client
	}
	return nil
}

// connect registers a new connection and starts its reader and writer
func (s *Server) connect(conn transport) {
	limits := s.config.Limits
	c := newClient(conn, limits.MaxLine, limits.SendQueue, s.log)
	c.authenticated = s.config.Server.Password == ""
	if limits.FloodRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(limits.FloodRate), max(limits.FloodBurst, 1))
	}

	s.clients[c.ID] = c
	s.metrics.connections.Inc()
	s.metrics.accepted.Inc()
	c.log.Info("client connected")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.readLoop(c)
	}()
	go func() {
		defer s.wg.Done()
		c.writeLoop(limits.WriteTimeout)
	}()
}

// readLoop performs bounded reads and posts them in order, followed by a
// single disconnect
func (s *Server) readLoop(c *Client) {
	buf := make([]byte, max(s.config.Limits.ReadBuffer, 64))
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !s.post(receivedEvent{client: c, data: data}) {
				return
			}
		}
		if err != nil {
			s.post(disconnectedEvent{client: c, err: err})
			return
		}
	}
}

// receive frames a chunk of input and dispatches each complete line
func (s *Server) receive(c *Client, data []byte) {
	if c.closed {
		return
	}

	c.framer.Write(data)
	for line, err := range c.framer.Lines() {
		if err != nil {
			s.replyError(c, newReplyError(irc.ERR_INPUTTOOLONG))
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			s.closeClient(c, "Excess Flood")
			return
		}

		s.dispatch(c, line)
		s.reap()
		if c.closed {
			return
		}
	}
}

// schedule marks c for teardown once the current command completes
func (s *Server) schedule(c *Client, reason string) {
	if c.closed {
		return
	}
	for _, d := range s.doomed {
		if d.client == c {
			return
		}
	}
	s.doomed = append(s.doomed, doomed{client: c, reason: reason})
}

// reap tears down the clients scheduled by schedule
func (s *Server) reap() {
	for len(s.doomed) > 0 {
		d := s.doomed[0]
		s.doomed = s.doomed[1:]
		s.closeClient(d.client, d.reason)
	}
}

// closeClient sends the closing ERROR line and tears the client down
func (s *Server) closeClient(c *Client, reason string) {
	if c.closed {
		return
	}
	s.send(c, fmt.Sprintf("ERROR :Closing Link: %s (%s)", c.host, reason))
	s.disconnect(c, reason)
}

// disconnect removes c from every channel and the registry, announcing a
// QUIT to the clients that shared a channel with it
func (s *Server) disconnect(c *Client, reason string) {
	if c.closed {
		return
	}

	if c.registered {
		quit := (&irc.Message{Prefix: c.Prefix(), Command: "QUIT", Params: []string{reason}}).String()
		for _, peer := range s.peers(c) {
			s.send(peer, quit)
		}
	}

	for folded, ch := range s.channels {
		ch.Forget(c.ID)
		if ch.Empty() {
			s.removeChannel(folded)
		}
	}
	c.channels = nil

	if c.nick != "" && s.nicks[irc.Fold(c.nick)] == c {
		delete(s.nicks, irc.Fold(c.nick))
	}
	delete(s.clients, c.ID)

	c.closed = true
	close(c.done)
	s.metrics.connections.Dec()
	c.log.Info("client disconnected", "nick", c.nick, "reason", reason, "connected", time.Since(c.since).Round(time.Second))
}

func (s *Server) removeChannel(folded string) {
	delete(s.channels, folded)
	s.metrics.channels.Set(float64(len(s.channels)))
}

// shutdown closes every connection when the loop exits
func (s *Server) shutdown() {
	for _, c := range s.clients {
		s.send(c, fmt.Sprintf("ERROR :Closing Link: %s (Server shutting down)", c.host))
		c.closed = true
		close(c.done)
		s.metrics.connections.Dec()
	}
	s.clients = map[string]*Client{}
	s.nicks = map[string]*Client{}
	s.channels = map[string]*Channel{}
	s.metrics.channels.Set(0)

	// connections accepted but never handled
	for {
		select {
		case ev := <-s.events:
			if ev, ok := ev.(connectedEvent); ok {
				ev.conn.Close()
			}
		default:
			return
		}
	}
}
