package irc

import (
	"fmt"
	"strings"
)

// Message represents an IRC message
type Message struct {
	Prefix  string
	Command string
	Params  []string
}

// ParseMessage parses an IRC message. It returns nil for a blank line or a
// line holding only a prefix.
func ParseMessage(line string) *Message {
	line = strings.TrimLeft(line, " ")
	if line == "" {
		return nil
	}

	msg := &Message{
		Params: make([]string, 0),
	}

	if line[0] == ':' {
		prefix, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return nil
		}
		msg.Prefix = prefix
		line = strings.TrimLeft(rest, " ")
		if line == "" {
			return nil
		}
	}

	command, paramPart, _ := strings.Cut(line, " ")
	msg.Command = strings.ToUpper(command)

	for {
		paramPart = strings.TrimLeft(paramPart, " ")
		if paramPart == "" {
			break
		}

		// A colon introduces the trailing parameter, which may contain spaces
		if paramPart[0] == ':' {
			msg.Params = append(msg.Params, paramPart[1:])
			break
		}

		var param string
		param, paramPart, _ = strings.Cut(paramPart, " ")
		msg.Params = append(msg.Params, param)
	}

	return msg
}

// Param returns the i-th parameter or "" when absent
func (m *Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the last parameter or "" when there are none
func (m *Message) Trailing() string {
	return m.Param(len(m.Params) - 1)
}

// String returns the wire form of the message without the line terminator
func (m *Message) String() string {
	var builder strings.Builder

	if m.Prefix != "" {
		builder.WriteString(":")
		builder.WriteString(m.Prefix)
		builder.WriteString(" ")
	}

	builder.WriteString(m.Command)

	for i, param := range m.Params {
		builder.WriteString(" ")

		// The last parameter needs the colon marker if it is empty, contains
		// spaces or itself starts with a colon
		if i == len(m.Params)-1 && (param == "" || strings.Contains(param, " ") || strings.HasPrefix(param, ":")) {
			builder.WriteString(":")
		}
		builder.WriteString(param)
	}

	return builder.String()
}

// ParseHostmask parses a hostmask (nick!user@host)
func ParseHostmask(hostmask string) (nick, user, host string) {
	nick, userHost, ok := strings.Cut(hostmask, "!")
	if !ok {
		return hostmask, "", ""
	}

	user, host, _ = strings.Cut(userHost, "@")
	return nick, user, host
}

// FormatHostmask formats a hostmask
func FormatHostmask(nick, user, host string) string {
	return fmt.Sprintf("%s!%s@%s", nick, user, host)
}
