package irc

import (
	"strings"

	"golang.org/x/text/cases"
)

const (
	// MaxNickLength is the longest nickname accepted
	MaxNickLength = 30
	// MaxChannelLength is the longest channel name accepted, sigil included
	MaxChannelLength = 50
)

// IsValidNickname reports whether nick may be claimed: a leading ASCII
// letter followed by letters, digits or one of _-[]{}\`|
func IsValidNickname(nick string) bool {
	if nick == "" || len(nick) > MaxNickLength {
		return false
	}

	for i := 0; i < len(nick); i++ {
		c := nick[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i == 0:
			return false
		case c >= '0' && c <= '9':
		case strings.IndexByte("_-[]{}\\`|", c) >= 0:
		default:
			return false
		}
	}
	return true
}

// IsChannelName reports whether target names a channel rather than a nick
func IsChannelName(target string) bool {
	return strings.HasPrefix(target, "#")
}

// IsValidChannelName reports whether name is a usable channel name: a '#'
// followed by at least one character, with no spaces, commas or control
// characters
func IsValidChannelName(name string) bool {
	if len(name) < 2 || len(name) > MaxChannelLength || name[0] != '#' {
		return false
	}

	for i := 1; i < len(name); i++ {
		c := name[i]
		if c == ' ' || c == ',' || c < 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}

var rfc1459Fold = strings.NewReplacer("[", "{", "]", "}", "\\", "|", "~", "^")

// Fold returns the registry key for a nickname or channel name. Names that
// differ only in case, or in the rfc1459 equivalents []\~ and {}|^, fold to
// the same key.
func Fold(name string) string {
	return rfc1459Fold.Replace(cases.Fold().String(name))
}
