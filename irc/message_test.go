package irc_test

import (
	"testing"

	"github.com/presbrey/relayd/irc"
	"github.com/stretchr/testify/assert"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		prefix  string
		command string
		params  []string
	}{
		{"simple", "NICK alice", "", "NICK", []string{"alice"}},
		{"lowercase verb", "privmsg #a :hello world", "", "PRIVMSG", []string{"#a", "hello world"}},
		{"prefix", ":alice!a@host PRIVMSG bob :hi", "alice!a@host", "PRIVMSG", []string{"bob", "hi"}},
		{"no params", "QUIT", "", "QUIT", []string{}},
		{"empty trailing", "TOPIC #a :", "", "TOPIC", []string{"#a", ""}},
		{"colon inside trailing", "PRIVMSG #a ::-) ok", "", "PRIVMSG", []string{"#a", ":-) ok"}},
		{"repeated spaces", "USER  a   0 *  :Real Name", "", "USER", []string{"a", "0", "*", "Real Name"}},
		{"mode args", "MODE #a +kl key 5", "", "MODE", []string{"#a", "+kl", "key", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := irc.ParseMessage(tt.line)
			if assert.NotNil(t, msg) {
				assert.Equal(t, tt.prefix, msg.Prefix)
				assert.Equal(t, tt.command, msg.Command)
				assert.Equal(t, tt.params, msg.Params)
			}
		})
	}
}

func TestParseMessageRejectsEmpty(t *testing.T) {
	assert.Nil(t, irc.ParseMessage(""))
	assert.Nil(t, irc.ParseMessage("   "))
	assert.Nil(t, irc.ParseMessage(":onlyprefix"))
	assert.Nil(t, irc.ParseMessage(":prefix   "))
}

func TestMessageString(t *testing.T) {
	msg := &irc.Message{Prefix: "alice!a@host", Command: "PRIVMSG", Params: []string{"#lounge", "hello there"}}
	assert.Equal(t, ":alice!a@host PRIVMSG #lounge :hello there", msg.String())

	msg = &irc.Message{Command: "JOIN", Params: []string{"#lounge"}}
	assert.Equal(t, "JOIN #lounge", msg.String())

	msg = &irc.Message{Command: "TOPIC", Params: []string{"#lounge", ""}}
	assert.Equal(t, "TOPIC #lounge :", msg.String())
}

func TestMessageParamAccessors(t *testing.T) {
	msg := irc.ParseMessage("KICK #a bob :bye now")
	assert.Equal(t, "#a", msg.Param(0))
	assert.Equal(t, "", msg.Param(5))
	assert.Equal(t, "bye now", msg.Trailing())
	assert.Equal(t, "", irc.ParseMessage("QUIT").Trailing())
}

func TestHostmask(t *testing.T) {
	assert.Equal(t, "alice!a@127.0.0.1", irc.FormatHostmask("alice", "a", "127.0.0.1"))

	nick, user, host := irc.ParseHostmask("alice!a@127.0.0.1")
	assert.Equal(t, []string{"alice", "a", "127.0.0.1"}, []string{nick, user, host})

	nick, user, host = irc.ParseHostmask("server.example")
	assert.Equal(t, []string{"server.example", "", ""}, []string{nick, user, host})
}

func TestFormatReply(t *testing.T) {
	assert.Equal(t, ":irc.local 001 alice :Welcome", irc.FormatReply("irc.local", irc.RPL_WELCOME, "alice", nil, "Welcome"))
	assert.Equal(t, ":irc.local 451 * :You have not registered",
		irc.FormatReply("irc.local", irc.ERR_NOTREGISTERED, "", nil, irc.NumericText(irc.ERR_NOTREGISTERED)))
	assert.Equal(t, ":irc.local 353 bob = #a :@alice bob",
		irc.FormatReply("irc.local", irc.RPL_NAMREPLY, "bob", []string{"=", "#a"}, "@alice bob"))
}
