package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/presbrey/relayd/irc"
)

var (
	// ErrServerClosed is returned by loop calls made after Stop
	ErrServerClosed = errors.New("server: closed")

	// ErrSendQueueFull means a client's outbound queue had no room
	ErrSendQueueFull = errors.New("server: send queue full")

	// ErrClientClosed means the client is already torn down
	ErrClientClosed = errors.New("server: client closed")

	// ErrNoSuchChannel is returned by admin operations on unknown channels
	ErrNoSuchChannel = errors.New("server: no such channel")
)

// ReplyError is a protocol-level failure reported to the issuing client as
// one numeric reply. It never changes server state.
type ReplyError struct {
	Code   int
	Params []string
	Text   string
}

func newReplyError(code int, params ...string) *ReplyError {
	return &ReplyError{Code: code, Params: params, Text: irc.NumericText(code)}
}

func (e *ReplyError) Error() string {
	parts := append(append([]string{}, e.Params...), ":"+e.Text)
	return fmt.Sprintf("%03d %s", e.Code, strings.Join(parts, " "))
}
