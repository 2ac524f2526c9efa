package irc

import (
	"fmt"
	"strings"
)

// Numeric replies (RFC 2812 section 5)
const (
	RPL_WELCOME  = 1
	RPL_YOURHOST = 2
	RPL_CREATED  = 3
	RPL_MYINFO   = 4

	RPL_UMODEIS       = 221
	RPL_CHANNELMODEIS = 324
	RPL_NOTOPIC       = 331
	RPL_TOPIC         = 332
	RPL_INVITING      = 341
	RPL_NAMREPLY      = 353
	RPL_ENDOFNAMES    = 366

	ERR_NOSUCHNICK        = 401
	ERR_NOSUCHCHANNEL     = 403
	ERR_CANNOTSENDTOCHAN  = 404
	ERR_NORECIPIENT       = 411
	ERR_NOTEXTTOSEND      = 412
	ERR_INPUTTOOLONG      = 417
	ERR_UNKNOWNCOMMAND    = 421
	ERR_NONICKNAMEGIVEN   = 431
	ERR_ERRONEUSNICKNAME  = 432
	ERR_NICKNAMEINUSE     = 433
	ERR_USERNOTINCHANNEL  = 441
	ERR_NOTONCHANNEL      = 442
	ERR_USERONCHANNEL     = 443
	ERR_NOTREGISTERED     = 451
	ERR_NEEDMOREPARAMS    = 461
	ERR_ALREADYREGISTERED = 462
	ERR_PASSWDMISMATCH    = 464
	ERR_CHANNELISFULL     = 471
	ERR_UNKNOWNMODE       = 472
	ERR_INVITEONLYCHAN    = 473
	ERR_BADCHANNELKEY     = 475
	ERR_CHANOPRIVSNEEDED  = 482
	ERR_USERSDONTMATCH    = 502
)

var numericText = map[int]string{
	RPL_NOTOPIC:           "No topic is set",
	RPL_ENDOFNAMES:        "End of /NAMES list",
	ERR_NOSUCHNICK:        "No such nick/channel",
	ERR_NOSUCHCHANNEL:     "No such channel",
	ERR_CANNOTSENDTOCHAN:  "Cannot send to channel",
	ERR_NORECIPIENT:       "No recipient given",
	ERR_NOTEXTTOSEND:      "No text to send",
	ERR_INPUTTOOLONG:      "Input line was too long",
	ERR_UNKNOWNCOMMAND:    "Unknown command",
	ERR_NONICKNAMEGIVEN:   "No nickname given",
	ERR_ERRONEUSNICKNAME:  "Erroneous nickname",
	ERR_NICKNAMEINUSE:     "Nickname is already in use",
	ERR_USERNOTINCHANNEL:  "They aren't on that channel",
	ERR_NOTONCHANNEL:      "You're not on that channel",
	ERR_USERONCHANNEL:     "is already on channel",
	ERR_NOTREGISTERED:     "You have not registered",
	ERR_NEEDMOREPARAMS:    "Not enough parameters",
	ERR_ALREADYREGISTERED: "You may not reregister",
	ERR_PASSWDMISMATCH:    "Password incorrect",
	ERR_CHANNELISFULL:     "Cannot join channel (+l)",
	ERR_UNKNOWNMODE:       "is unknown mode char to me",
	ERR_INVITEONLYCHAN:    "Cannot join channel (+i)",
	ERR_BADCHANNELKEY:     "Cannot join channel (+k)",
	ERR_CHANOPRIVSNEEDED:  "You're not channel operator",
	ERR_USERSDONTMATCH:    "Cannot change mode for other users",
}

// NumericText returns the standard human-readable text for a numeric, or ""
func NumericText(code int) string {
	return numericText[code]
}

// FormatReply renders a numeric reply line without the terminator:
//
//	:<server> <NNN> <target> [params...] :<text>
//
// An empty target is written as "*", the placeholder for clients that have
// not chosen a nickname yet.
func FormatReply(server string, code int, target string, params []string, text string) string {
	if target == "" {
		target = "*"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, ":%s %03d %s", server, code, target)
	for _, param := range params {
		builder.WriteString(" ")
		builder.WriteString(param)
	}
	builder.WriteString(" :")
	builder.WriteString(text)
	return builder.String()
}
