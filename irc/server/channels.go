package server

import (
	"strings"

	"github.com/presbrey/relayd/irc"
)

// handleJoin handles the JOIN command: JOIN #a,#b [key1,key2] or JOIN 0
func handleJoin(s *Server, c *Client, m *irc.Message) error {
	if m.Params[0] == "0" {
		for _, folded := range c.Channels() {
			if ch, ok := s.channels[folded]; ok {
				s.partChannel(c, ch, "")
			}
		}
		return nil
	}

	names := strings.Split(m.Params[0], ",")
	var keys []string
	if len(m.Params) > 1 {
		keys = strings.Split(m.Params[1], ",")
	}

	for i, name := range names {
		key := ""
		if i < len(keys) {
			key = keys[i]
		}

		if err := s.joinChannel(c, name, key); err != nil {
			if len(names) == 1 {
				return err
			}
			s.replyError(c, err)
		}
	}
	return nil
}

// joinChannel admits c to the channel, creating it on first join, then
// announces the join and sends the topic and names list
func (s *Server) joinChannel(c *Client, name, key string) *ReplyError {
	if !irc.IsValidChannelName(name) {
		return newReplyError(irc.ERR_NOSUCHCHANNEL, name)
	}

	folded := irc.Fold(name)
	ch, exists := s.channels[folded]
	if !exists {
		ch = NewChannel(name)
	}
	if ch.IsMember(c.ID) {
		return nil
	}

	if err := ch.Join(c.ID, key); err != nil {
		return err.(*ReplyError)
	}
	if !exists {
		s.channels[folded] = ch
		s.metrics.channels.Set(float64(len(s.channels)))
	}
	c.channels[folded] = struct{}{}

	s.broadcast(ch, (&irc.Message{Prefix: c.Prefix(), Command: "JOIN", Params: []string{ch.Name}}).String(), "")
	if ch.Topic != "" {
		s.reply(c, irc.RPL_TOPIC, []string{ch.Name}, ch.Topic)
	}
	s.sendNames(c, ch)

	c.log.Debug("joined channel", "channel", ch.Name, "operator", ch.IsOperator(c.ID))
	return nil
}

// handlePart handles the PART command
func handlePart(s *Server, c *Client, m *irc.Message) error {
	names := strings.Split(m.Params[0], ",")
	reason := m.Param(1)

	for _, name := range names {
		ch, err := s.memberChannel(c, name)
		if err != nil {
			if len(names) == 1 {
				return err
			}
			s.replyError(c, err)
			continue
		}
		s.partChannel(c, ch, reason)
	}
	return nil
}

// partChannel announces the departure to every member including c, then
// removes c. An emptied channel is dropped from the registry.
func (s *Server) partChannel(c *Client, ch *Channel, reason string) {
	params := []string{ch.Name}
	if reason != "" {
		params = append(params, reason)
	}
	s.broadcast(ch, (&irc.Message{Prefix: c.Prefix(), Command: "PART", Params: params}).String(), "")
	s.leave(c, ch)
}

// leave removes c from ch without announcing it
func (s *Server) leave(c *Client, ch *Channel) {
	folded := irc.Fold(ch.Name)
	ch.Part(c.ID)
	delete(c.channels, folded)
	if ch.Empty() {
		s.removeChannel(folded)
	}
}

// memberChannel looks up a channel c must belong to
func (s *Server) memberChannel(c *Client, name string) (*Channel, *ReplyError) {
	ch, ok := s.channels[irc.Fold(name)]
	if !ok {
		return nil, newReplyError(irc.ERR_NOSUCHCHANNEL, name)
	}
	if !ch.IsMember(c.ID) {
		return nil, newReplyError(irc.ERR_NOTONCHANNEL, ch.Name)
	}
	return ch, nil
}

// handleTopic handles the TOPIC command
func handleTopic(s *Server, c *Client, m *irc.Message) error {
	ch, err := s.memberChannel(c, m.Params[0])
	if err != nil {
		return err
	}

	if len(m.Params) < 2 {
		if ch.Topic == "" {
			s.reply(c, irc.RPL_NOTOPIC, []string{ch.Name}, irc.NumericText(irc.RPL_NOTOPIC))
		} else {
			s.reply(c, irc.RPL_TOPIC, []string{ch.Name}, ch.Topic)
		}
		return nil
	}

	if ch.TopicRestricted() && !ch.IsOperator(c.ID) {
		return newReplyError(irc.ERR_CHANOPRIVSNEEDED, ch.Name)
	}

	ch.Topic = m.Params[1]
	s.broadcast(ch, (&irc.Message{Prefix: c.Prefix(), Command: "TOPIC", Params: []string{ch.Name, ch.Topic}}).String(), "")
	return nil
}

// handleMode handles the MODE command for channels and the user's own nick
func handleMode(s *Server, c *Client, m *irc.Message) error {
	target := m.Params[0]
	if !irc.IsChannelName(target) {
		return s.userMode(c, target)
	}

	ch, ok := s.channels[irc.Fold(target)]
	if !ok {
		return newReplyError(irc.ERR_NOSUCHCHANNEL, target)
	}

	if len(m.Params) < 2 {
		modes := append([]string{ch.ModeString()}, ch.ModeParams(ch.IsMember(c.ID))...)
		s.reply(c, irc.RPL_CHANNELMODEIS, []string{ch.Name}, strings.Join(modes, " "))
		return nil
	}

	if !ch.IsMember(c.ID) {
		return newReplyError(irc.ERR_NOTONCHANNEL, ch.Name)
	}
	if !ch.IsOperator(c.ID) {
		return newReplyError(irc.ERR_CHANOPRIVSNEEDED, ch.Name)
	}

	changes, err := ParseModeChanges(m.Params[1:])
	if err != nil {
		return err
	}

	// Resolve every operator target before touching the channel
	var flags, ops []ModeChange
	targets := make(map[int]*Client)
	for _, change := range changes {
		if change.Mode != 'o' {
			flags = append(flags, change)
			continue
		}
		member := s.findNick(change.Param)
		if member == nil {
			return newReplyError(irc.ERR_NOSUCHNICK, change.Param)
		}
		if !ch.IsMember(member.ID) {
			return newReplyError(irc.ERR_USERNOTINCHANNEL, member.nick, ch.Name)
		}
		targets[len(ops)] = member
		ops = append(ops, change)
	}

	applied := ch.ApplyModes(flags)
	for i, change := range ops {
		member := targets[i]
		if ch.IsOperator(member.ID) == change.Add {
			continue
		}
		ch.SetOperator(member.ID, change.Add)
		change.Param = member.nick
		applied = append(applied, change)
	}

	if len(applied) == 0 {
		return nil
	}

	modes, params := FormatModeChanges(applied)
	line := (&irc.Message{Prefix: c.Prefix(), Command: "MODE", Params: append([]string{ch.Name, modes}, params...)}).String()
	s.broadcast(ch, line, "")
	return nil
}

// userMode answers MODE on a nickname. Only the client's own modes can be
// queried and none can be set.
func (s *Server) userMode(c *Client, nick string) error {
	if irc.Fold(nick) != irc.Fold(c.nick) {
		if s.findNick(nick) == nil {
			return newReplyError(irc.ERR_NOSUCHNICK, nick)
		}
		return newReplyError(irc.ERR_USERSDONTMATCH)
	}
	s.reply(c, irc.RPL_UMODEIS, nil, "+")
	return nil
}

// handleKick handles the KICK command
func handleKick(s *Server, c *Client, m *irc.Message) error {
	ch, err := s.memberChannel(c, m.Params[0])
	if err != nil {
		return err
	}
	if !ch.IsOperator(c.ID) {
		return newReplyError(irc.ERR_CHANOPRIVSNEEDED, ch.Name)
	}

	target := s.findNick(m.Params[1])
	if target == nil {
		return newReplyError(irc.ERR_NOSUCHNICK, m.Params[1])
	}
	if !ch.IsMember(target.ID) {
		return newReplyError(irc.ERR_USERNOTINCHANNEL, target.nick, ch.Name)
	}

	reason := m.Param(2)
	if reason == "" {
		reason = c.nick
	}

	s.broadcast(ch, (&irc.Message{Prefix: c.Prefix(), Command: "KICK", Params: []string{ch.Name, target.nick, reason}}).String(), "")
	s.leave(target, ch)
	return nil
}

// handleInvite handles the INVITE command: INVITE <nick> <channel>
func handleInvite(s *Server, c *Client, m *irc.Message) error {
	target := s.findNick(m.Params[0])
	if target == nil {
		return newReplyError(irc.ERR_NOSUCHNICK, m.Params[0])
	}

	ch, err := s.memberChannel(c, m.Params[1])
	if err != nil {
		return err
	}
	if ch.InviteOnly() && !ch.IsOperator(c.ID) {
		return newReplyError(irc.ERR_CHANOPRIVSNEEDED, ch.Name)
	}
	if ch.IsMember(target.ID) {
		return newReplyError(irc.ERR_USERONCHANNEL, target.nick, ch.Name)
	}

	ch.Invite(target.ID)
	s.reply(c, irc.RPL_INVITING, []string{target.nick}, ch.Name)
	s.sendFrom(target, c.Prefix(), "INVITE", target.nick, ch.Name)
	return nil
}

// handleNames handles the NAMES command
func handleNames(s *Server, c *Client, m *irc.Message) error {
	if len(m.Params) == 0 || m.Params[0] == "" {
		s.reply(c, irc.RPL_ENDOFNAMES, []string{"*"}, irc.NumericText(irc.RPL_ENDOFNAMES))
		return nil
	}

	for _, name := range strings.Split(m.Params[0], ",") {
		if ch, ok := s.channels[irc.Fold(name)]; ok {
			s.sendNames(c, ch)
			continue
		}
		s.reply(c, irc.RPL_ENDOFNAMES, []string{name}, irc.NumericText(irc.RPL_ENDOFNAMES))
	}
	return nil
}

// sendNames sends the names list of ch followed by its end marker
func (s *Server) sendNames(c *Client, ch *Channel) {
	names := ch.Names(func(id string) string {
		if member, ok := s.clients[id]; ok {
			return member.nick
		}
		return ""
	})
	s.reply(c, irc.RPL_NAMREPLY, []string{"=", ch.Name}, names)
	s.reply(c, irc.RPL_ENDOFNAMES, []string{ch.Name}, irc.NumericText(irc.RPL_ENDOFNAMES))
}
