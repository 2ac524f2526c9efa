package server

import (
	"io"
	"time"

	"github.com/presbrey/relayd/irc"
)

// Send queues one protocol line for the client without blocking. The line
// must not carry a terminator.
func (c *Client) Send(line string) error {
	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.outbound <- line + "\r\n":
		return nil
	default:
		return ErrSendQueueFull
	}
}

// writeLoop drains the outbound queue to the connection. After done is
// closed it flushes what is left and closes the connection, which in turn
// ends the reader.
func (c *Client) writeLoop(timeout time.Duration) {
	defer c.conn.Close()

	write := func(line string) bool {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if _, err := io.WriteString(c.conn, line); err != nil {
			c.log.Debug("write failed", "err", err)
			return false
		}
		return true
	}

	for {
		select {
		case line := <-c.outbound:
			if !write(line) {
				return
			}
		case <-c.done:
			for {
				select {
				case line := <-c.outbound:
					if !write(line) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// send delivers one line to c. A full queue schedules c for teardown once
// the current command completes; the caller carries on either way.
func (s *Server) send(c *Client, line string) error {
	err := c.Send(line)
	switch err {
	case nil:
		c.log.Debug("->", "line", line)
	case ErrSendQueueFull:
		s.metrics.deliveryFailures.Inc()
		s.schedule(c, "SendQ exceeded")
	}
	return err
}

// sendFrom relays a message with prefix as its origin
func (s *Server) sendFrom(c *Client, prefix, command string, params ...string) error {
	msg := &irc.Message{Prefix: prefix, Command: command, Params: params}
	return s.send(c, msg.String())
}

// reply sends a numeric reply addressed to c
func (s *Server) reply(c *Client, code int, params []string, text string) {
	s.send(c, irc.FormatReply(s.name(), code, c.target(), params, text))
}

// replyError reports a protocol error to c
func (s *Server) replyError(c *Client, err *ReplyError) {
	s.metrics.replyErrors.WithLabelValues(codeLabel(err.Code)).Inc()
	s.reply(c, err.Code, err.Params, err.Text)
}

// broadcast formats once and delivers to every member of ch in join order,
// skipping the client with ID except. A failed delivery does not stop the
// rest.
func (s *Server) broadcast(ch *Channel, line, except string) {
	for _, id := range ch.members {
		if id == except {
			continue
		}
		if member, ok := s.clients[id]; ok {
			s.send(member, line)
		}
	}
}

// peers returns every other client sharing a channel with c, each once,
// in channel-name then join order
func (s *Server) peers(c *Client) []*Client {
	seen := map[string]bool{c.ID: true}
	var out []*Client
	for _, name := range c.Channels() {
		ch, ok := s.channels[name]
		if !ok {
			continue
		}
		for _, id := range ch.members {
			if seen[id] {
				continue
			}
			seen[id] = true
			if member, ok := s.clients[id]; ok {
				out = append(out, member)
			}
		}
	}
	return out
}
