package server

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/presbrey/relayd/irc"
)

// Channel represents an IRC channel. Members are referenced by client ID;
// the server's registry owns the clients themselves. A Channel is only
// touched from the server loop.
type Channel struct {
	Name    string
	Topic   string
	Created time.Time

	key        string
	limit      int
	inviteOnly bool
	topicOps   bool

	members   []string // client IDs in join order
	memberSet map[string]bool
	operators map[string]bool
	invited   map[string]bool
}

// ModeChange is one parsed channel mode flag, e.g. +k secret
type ModeChange struct {
	Add   bool
	Mode  byte
	Param string
}

// NewChannel creates a new, empty channel
func NewChannel(name string) *Channel {
	return &Channel{
		Name:      name,
		Created:   time.Now(),
		memberSet: make(map[string]bool),
		operators: make(map[string]bool),
		invited:   make(map[string]bool),
	}
}

// Join admits id to the channel. The key, invite and limit checks run in
// that order; the first failure is returned and nothing changes. The first
// member of an empty channel becomes its operator and a used invite is
// consumed.
func (ch *Channel) Join(id, key string) error {
	if ch.memberSet[id] {
		return nil
	}

	if ch.key != "" && key != ch.key {
		return newReplyError(irc.ERR_BADCHANNELKEY, ch.Name)
	}
	if ch.inviteOnly && !ch.invited[id] {
		return newReplyError(irc.ERR_INVITEONLYCHAN, ch.Name)
	}
	if ch.limit > 0 && len(ch.members) >= ch.limit {
		return newReplyError(irc.ERR_CHANNELISFULL, ch.Name)
	}

	if len(ch.members) == 0 {
		ch.operators[id] = true
	}
	ch.members = append(ch.members, id)
	ch.memberSet[id] = true
	delete(ch.invited, id)
	return nil
}

// Part removes id from the members and operators. It reports whether id was
// a member.
func (ch *Channel) Part(id string) bool {
	if !ch.memberSet[id] {
		return false
	}

	ch.members = slices.DeleteFunc(ch.members, func(m string) bool { return m == id })
	delete(ch.memberSet, id)
	delete(ch.operators, id)
	return true
}

// Forget drops every trace of id, including a pending invite
func (ch *Channel) Forget(id string) {
	ch.Part(id)
	delete(ch.invited, id)
}

func (ch *Channel) IsMember(id string) bool {
	return ch.memberSet[id]
}

func (ch *Channel) IsOperator(id string) bool {
	return ch.operators[id]
}

// SetOperator grants or revokes operator status of a member
func (ch *Channel) SetOperator(id string, op bool) bool {
	if !ch.memberSet[id] {
		return false
	}
	if op {
		ch.operators[id] = true
	} else {
		delete(ch.operators, id)
	}
	return true
}

func (ch *Channel) Invite(id string) {
	ch.invited[id] = true
}

func (ch *Channel) IsInvited(id string) bool {
	return ch.invited[id]
}

// Members returns the member IDs in join order
func (ch *Channel) Members() []string {
	return slices.Clone(ch.members)
}

func (ch *Channel) Len() int {
	return len(ch.members)
}

func (ch *Channel) Empty() bool {
	return len(ch.members) == 0
}

func (ch *Channel) Key() string {
	return ch.key
}

func (ch *Channel) Limit() int {
	return ch.limit
}

func (ch *Channel) InviteOnly() bool {
	return ch.inviteOnly
}

func (ch *Channel) TopicRestricted() bool {
	return ch.topicOps
}

// ModeString renders the active flags as "+itkl" in that fixed order, or ""
// when none is set
func (ch *Channel) ModeString() string {
	var modes strings.Builder
	if ch.inviteOnly {
		modes.WriteByte('i')
	}
	if ch.topicOps {
		modes.WriteByte('t')
	}
	if ch.key != "" {
		modes.WriteByte('k')
	}
	if ch.limit > 0 {
		modes.WriteByte('l')
	}
	if modes.Len() == 0 {
		return ""
	}
	return "+" + modes.String()
}

// ModeParams returns the arguments of the parameterised flags in the order
// ModeString lists them. The key is included only when withKey is set.
func (ch *Channel) ModeParams(withKey bool) []string {
	var params []string
	if ch.key != "" && withKey {
		params = append(params, ch.key)
	}
	if ch.limit > 0 {
		params = append(params, strconv.Itoa(ch.limit))
	}
	return params
}

// ApplyModes applies i, t, k and l changes and returns the ones that
// changed something. Operator changes (o) are left to the caller.
func (ch *Channel) ApplyModes(changes []ModeChange) []ModeChange {
	var applied []ModeChange
	for _, change := range changes {
		switch change.Mode {
		case 'i':
			if ch.inviteOnly == change.Add {
				continue
			}
			ch.inviteOnly = change.Add
		case 't':
			if ch.topicOps == change.Add {
				continue
			}
			ch.topicOps = change.Add
		case 'k':
			if change.Add {
				if ch.key == change.Param {
					continue
				}
				ch.key = change.Param
			} else {
				if ch.key == "" {
					continue
				}
				ch.key = ""
				change.Param = ""
			}
		case 'l':
			if change.Add {
				limit, _ := strconv.Atoi(change.Param)
				if limit == ch.limit {
					continue
				}
				ch.limit = limit
				change.Param = strconv.Itoa(limit)
			} else {
				if ch.limit == 0 {
					continue
				}
				ch.limit = 0
				change.Param = ""
			}
		default:
			continue
		}
		applied = append(applied, change)
	}
	return applied
}

// Names renders the member list, operators prefixed with '@'
func (ch *Channel) Names(nickOf func(id string) string) string {
	names := make([]string, 0, len(ch.members))
	for _, id := range ch.members {
		nick := nickOf(id)
		if nick == "" {
			continue
		}
		if ch.operators[id] {
			nick = "@" + nick
		}
		names = append(names, nick)
	}
	return strings.Join(names, " ")
}

// ParseModeChanges reads a mode string and its arguments, e.g.
// ["+kl-i", "secret", "10"]. Flags k and l consume an argument when added
// and o always does. Unknown flags and missing arguments fail the whole
// request so nothing is applied partially. A non-numeric or non-positive
// limit is dropped.
func ParseModeChanges(args []string) ([]ModeChange, error) {
	if len(args) == 0 {
		return nil, nil
	}

	modes, params := args[0], args[1:]
	next := func() (string, bool) {
		if len(params) == 0 {
			return "", false
		}
		p := params[0]
		params = params[1:]
		return p, true
	}

	var changes []ModeChange
	add := true
	for i := 0; i < len(modes); i++ {
		m := modes[i]
		switch m {
		case '+':
			add = true
			continue
		case '-':
			add = false
			continue
		}

		change := ModeChange{Add: add, Mode: m}
		switch m {
		case 'i', 't':
		case 'k':
			if add {
				p, ok := next()
				if !ok || p == "" || strings.ContainsAny(p, " ,") {
					return nil, newReplyError(irc.ERR_NEEDMOREPARAMS, "MODE")
				}
				change.Param = p
			}
		case 'l':
			if add {
				p, ok := next()
				if !ok {
					return nil, newReplyError(irc.ERR_NEEDMOREPARAMS, "MODE")
				}
				if n, err := strconv.Atoi(p); err != nil || n <= 0 {
					continue
				}
				change.Param = p
			}
		case 'o':
			p, ok := next()
			if !ok {
				return nil, newReplyError(irc.ERR_NEEDMOREPARAMS, "MODE")
			}
			change.Param = p
		default:
			return nil, newReplyError(irc.ERR_UNKNOWNMODE, string(m))
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// FormatModeChanges renders applied changes as a mode string plus
// arguments, e.g. "+kl-i" ["secret", "10"]
func FormatModeChanges(changes []ModeChange) (string, []string) {
	var modes strings.Builder
	var params []string
	sign := byte(0)
	for _, change := range changes {
		s := byte('-')
		if change.Add {
			s = '+'
		}
		if s != sign {
			modes.WriteByte(s)
			sign = s
		}
		modes.WriteByte(change.Mode)
		if change.Param != "" {
			params = append(params, change.Param)
		}
	}
	return modes.String(), params
}
