package server

import (
	"errors"

	"github.com/presbrey/relayd/hooks"
	"github.com/presbrey/relayd/irc"
)

// CommandEvent is passed to command hooks after a line has been handled.
// Hooks run on the server loop and may read client and channel state.
type CommandEvent struct {
	Server  *Server
	Client  *Client
	Message *irc.Message
	Known   bool
	Err     error
}

type handler func(s *Server, c *Client, m *irc.Message) error

type command struct {
	handler    handler
	minParams  int
	registered bool
}

func commandTable() map[string]command {
	return map[string]command{
		"PASS": {handler: handlePass, minParams: 1},
		"NICK": {handler: handleNick},
		"USER": {handler: handleUser, minParams: 4},
		"QUIT": {handler: handleQuit},
		"PING": {handler: handlePing, minParams: 1},
		"PONG": {handler: handlePong},

		"JOIN":    {handler: handleJoin, minParams: 1, registered: true},
		"PART":    {handler: handlePart, minParams: 1, registered: true},
		"PRIVMSG": {handler: handlePrivmsg, registered: true},
		"NOTICE":  {handler: handleNotice, registered: true},
		"TOPIC":   {handler: handleTopic, minParams: 1, registered: true},
		"MODE":    {handler: handleMode, minParams: 1, registered: true},
		"KICK":    {handler: handleKick, minParams: 2, registered: true},
		"INVITE":  {handler: handleInvite, minParams: 2, registered: true},
		"NAMES":   {handler: handleNames, registered: true},
	}
}

// OnCommand registers a hook run after every line whose verb is command, or
// after every line for hooks.Wildcard. Hooks must not block.
func (s *Server) OnCommand(command string, hook hooks.Hook[*CommandEvent]) {
	s.hooks.Register(command, hook)
}

// dispatch parses one framed line and runs its handler. A rejected command
// produces exactly one numeric reply and no state change.
func (s *Server) dispatch(c *Client, line string) {
	msg := irc.ParseMessage(line)
	if msg == nil {
		return
	}
	c.log.Debug("<=", "line", line)

	cmd, known := s.commands[msg.Command]
	err := s.execute(c, cmd, known, msg)

	var replyErr *ReplyError
	switch {
	case err == nil:
	case errors.As(err, &replyErr):
		s.replyError(c, replyErr)
	default:
		c.log.Error("command failed", "command", msg.Command, "err", err)
		s.schedule(c, "Internal error")
	}

	if hookErr := s.hooks.Run(msg.Command, &CommandEvent{Server: s, Client: c, Message: msg, Known: known, Err: err}); hookErr != nil {
		c.log.Warn("command hook failed", "command", msg.Command, "err", hookErr)
	}
}

func (s *Server) execute(c *Client, cmd command, known bool, msg *irc.Message) error {
	if !known {
		return newReplyError(irc.ERR_UNKNOWNCOMMAND, msg.Command)
	}
	if cmd.registered && !c.registered {
		return newReplyError(irc.ERR_NOTREGISTERED)
	}
	if len(msg.Params) < cmd.minParams {
		return newReplyError(irc.ERR_NEEDMOREPARAMS, msg.Command)
	}
	return cmd.handler(s, c, msg)
}
