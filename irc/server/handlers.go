package server

import (
	"fmt"
	"strings"

	"github.com/presbrey/relayd/irc"
)

// handlePass handles the PASS command
func handlePass(s *Server, c *Client, m *irc.Message) error {
	if c.registered {
		return newReplyError(irc.ERR_ALREADYREGISTERED)
	}

	if s.config.Server.Password != "" {
		if !checkPassword(s.config.Server.Password, m.Params[0]) {
			return newReplyError(irc.ERR_PASSWDMISMATCH)
		}
	}
	c.authenticated = true

	s.completeRegistration(c)
	return nil
}

// handleNick handles the NICK command
func handleNick(s *Server, c *Client, m *irc.Message) error {
	nick := m.Param(0)
	if nick == "" {
		return newReplyError(irc.ERR_NONICKNAMEGIVEN)
	}
	if !irc.IsValidNickname(nick) {
		return newReplyError(irc.ERR_ERRONEUSNICKNAME, nick)
	}

	folded := irc.Fold(nick)
	if holder, taken := s.nicks[folded]; taken && holder != c {
		return newReplyError(irc.ERR_NICKNAMEINUSE, nick)
	}
	if nick == c.nick {
		return nil
	}

	oldPrefix := c.Prefix()
	if c.nick != "" {
		delete(s.nicks, irc.Fold(c.nick))
	}
	s.nicks[folded] = c
	c.nick = nick

	if !c.registered {
		s.completeRegistration(c)
		return nil
	}

	// Tell the client and everyone sharing a channel, once each
	s.sendFrom(c, oldPrefix, "NICK", nick)
	for _, peer := range s.peers(c) {
		s.sendFrom(peer, oldPrefix, "NICK", nick)
	}
	c.log.Info("nick changed", "nick", nick)
	return nil
}

// handleUser handles the USER command
func handleUser(s *Server, c *Client, m *irc.Message) error {
	if c.registered {
		return newReplyError(irc.ERR_ALREADYREGISTERED)
	}

	username := m.Params[0]
	if username == "" || strings.ContainsAny(username, "@!") {
		return newReplyError(irc.ERR_NEEDMOREPARAMS, m.Command)
	}

	c.user = username
	c.realname = m.Params[3]

	s.completeRegistration(c)
	return nil
}

// completeRegistration registers the client once the handshake is complete
// and sends the welcome sequence the first time only
func (s *Server) completeRegistration(c *Client) {
	if !c.readyToRegister() {
		return
	}
	c.registered = true

	if c.welcomeSent {
		return
	}
	c.welcomeSent = true

	network := s.config.Server.Network
	s.reply(c, irc.RPL_WELCOME, nil, fmt.Sprintf("Welcome to the %s Network, %s", network, c.Prefix()))
	s.reply(c, irc.RPL_YOURHOST, nil, fmt.Sprintf("Your host is %s, running version %s", s.name(), Version))
	s.reply(c, irc.RPL_CREATED, nil, fmt.Sprintf("This server was created %s", s.created.Format("Mon Jan 2 2006 at 15:04:05 MST")))
	s.reply(c, irc.RPL_MYINFO, []string{s.name(), Version, "o"}, "iklot")

	c.log.Info("client registered", "nick", c.nick, "user", c.user)
}

// handleQuit handles the QUIT command
func handleQuit(s *Server, c *Client, m *irc.Message) error {
	reason := "Client Quit"
	if msg := m.Param(0); msg != "" {
		reason = "Quit: " + msg
	}
	s.closeClient(c, reason)
	return nil
}

// handlePing handles the PING command
func handlePing(s *Server, c *Client, m *irc.Message) error {
	s.sendFrom(c, s.name(), "PONG", s.name(), m.Params[0])
	return nil
}

// handlePong handles the PONG command
func handlePong(s *Server, c *Client, m *irc.Message) error {
	return nil
}

// handlePrivmsg handles the PRIVMSG command
func handlePrivmsg(s *Server, c *Client, m *irc.Message) error {
	return s.relayMessage(c, m, true)
}

// handleNotice handles the NOTICE command. NOTICE never triggers an error
// reply.
func handleNotice(s *Server, c *Client, m *irc.Message) error {
	s.relayMessage(c, m, false)
	return nil
}

// relayMessage routes PRIVMSG and NOTICE text to nicks and channels. With
// several comma-separated targets each failing one gets its own reply.
func (s *Server) relayMessage(c *Client, m *irc.Message, replies bool) error {
	if len(m.Params) == 0 {
		err := newReplyError(irc.ERR_NORECIPIENT)
		err.Text = fmt.Sprintf("%s (%s)", err.Text, m.Command)
		return err
	}
	if len(m.Params) < 2 || m.Params[1] == "" {
		return newReplyError(irc.ERR_NOTEXTTOSEND)
	}

	targets := strings.Split(m.Params[0], ",")
	text := m.Params[1]

	for _, target := range targets {
		if target == "" {
			continue
		}
		err := s.relayTo(c, m.Command, target, text)
		if err == nil || !replies {
			continue
		}
		if len(targets) == 1 {
			return err
		}
		s.replyError(c, err)
	}
	return nil
}

func (s *Server) relayTo(c *Client, command, target, text string) *ReplyError {
	if irc.IsChannelName(target) {
		ch, ok := s.channels[irc.Fold(target)]
		if !ok {
			return newReplyError(irc.ERR_NOSUCHCHANNEL, target)
		}
		if !ch.IsMember(c.ID) {
			return newReplyError(irc.ERR_CANNOTSENDTOCHAN, ch.Name)
		}

		line := (&irc.Message{Prefix: c.Prefix(), Command: command, Params: []string{ch.Name, text}}).String()
		s.broadcast(ch, line, c.ID)
		return nil
	}

	recipient := s.findNick(target)
	if recipient == nil {
		return newReplyError(irc.ERR_NOSUCHNICK, target)
	}
	s.sendFrom(recipient, c.Prefix(), command, recipient.nick, text)
	return nil
}

// findNick returns the registered client holding nick, or nil
func (s *Server) findNick(nick string) *Client {
	c, ok := s.nicks[irc.Fold(nick)]
	if !ok || !c.registered {
		return nil
	}
	return c
}
