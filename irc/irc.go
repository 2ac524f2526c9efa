/*
Package irc holds the protocol vocabulary shared by the relay daemon: message
parsing and rendering, numeric reply codes, the input line framer, and the
rules for valid nicknames and channel names.

# Features

## Messages

- Parsing of `[:prefix] COMMAND param... [:trailing]` lines with
  case-insensitive verbs
- Rendering back to wire form, adding the trailing marker only when needed
- Hostmask formatting and splitting (nick!user@host)

## Numeric Replies

- RFC 2812 reply and error codes used by the server (001-004, 3xx, 4xx)
- Reply rendering as `:<server> <NNN> <target> <params> :<text>`

## Framing

- Byte accumulation per connection with CRLF or bare LF terminators
- Lazy per-call line sequences (iter.Seq2)
- A maximum line length; longer lines are discarded and reported with
  ErrLineTooLong

## Names

- Nickname syntax: a leading letter, at most 30 characters of letters,
  digits and `_-[]{}\|` plus the backquote
- Channel syntax: leading '#', at least two characters, no space, comma,
  BELL or control characters
- Case folding for registry keys (golang.org/x/text/cases)

# Usage

	f := irc.NewFramer(irc.MaxLineLength)
	f.Write(chunk)
	for line, err := range f.Lines() {
		if errors.Is(err, irc.ErrLineTooLong) {
			// reply 417
			continue
		}
		msg := irc.ParseMessage(line)
		...
	}
*/
package irc
