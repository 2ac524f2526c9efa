package irc_test

import (
	"strings"
	"testing"

	"github.com/presbrey/relayd/irc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type framed struct {
	line    string
	tooLong bool
}

func drain(f *irc.Framer) []framed {
	var out []framed
	for line, err := range f.Lines() {
		if err != nil {
			out = append(out, framed{tooLong: true})
			continue
		}
		out = append(out, framed{line: line})
	}
	return out
}

func feed(chunks ...string) []framed {
	f := irc.NewFramer(irc.MaxLineLength)
	var out []framed
	for _, chunk := range chunks {
		f.Write([]byte(chunk))
		out = append(out, drain(f)...)
	}
	return out
}

func TestFramerSplitsLines(t *testing.T) {
	got := feed("NICK alice\r\nUSER a 0 * :Alice A\r\n")
	assert.Equal(t, []framed{{line: "NICK alice"}, {line: "USER a 0 * :Alice A"}}, got)
}

func TestFramerKeepsPartialLine(t *testing.T) {
	f := irc.NewFramer(irc.MaxLineLength)
	f.Write([]byte("PING :tok"))
	assert.Empty(t, drain(f))
	assert.Equal(t, 9, f.Buffered())

	f.Write([]byte("en\r\nJOIN"))
	assert.Equal(t, []framed{{line: "PING :token"}}, drain(f))
	assert.Equal(t, 4, f.Buffered())
}

func TestFramerAcceptsBareLF(t *testing.T) {
	got := feed("NICK bob\nQUIT\n")
	assert.Equal(t, []framed{{line: "NICK bob"}, {line: "QUIT"}}, got)
}

func TestFramerSkipsEmptyLines(t *testing.T) {
	got := feed("\r\n\r\nPING x\r\n\n")
	assert.Equal(t, []framed{{line: "PING x"}}, got)
}

func TestFramerReadBoundaryIndependence(t *testing.T) {
	stream := "PASS secret\r\nNICK alice\r\nUSER a 0 * :Alice\r\n\r\n" +
		"PRIVMSG #lounge :" + strings.Repeat("x", 600) + "\r\n" +
		"JOIN #lounge\nTOPIC #lounge :hi there\r\n"

	want := feed(stream)
	require.Len(t, want, 6)
	assert.True(t, want[3].tooLong)

	for size := 1; size <= 64; size++ {
		var chunks []string
		for i := 0; i < len(stream); i += size {
			end := min(i+size, len(stream))
			chunks = append(chunks, stream[i:end])
		}
		assert.Equal(t, want, feed(chunks...), "chunk size %d", size)
	}

	for cut := 0; cut <= len(stream); cut++ {
		assert.Equal(t, want, feed(stream[:cut], stream[cut:]), "cut at %d", cut)
	}
}

func TestFramerLineLengthBoundary(t *testing.T) {
	exact := strings.Repeat("a", irc.MaxLineLength-2)
	assert.Equal(t, []framed{{line: exact}}, feed(exact+"\r\n"))

	over := exact + "a"
	assert.Equal(t, []framed{{tooLong: true}}, feed(over+"\r\n"))
}

func TestFramerDiscardsOversizedLineUntilTerminator(t *testing.T) {
	f := irc.NewFramer(irc.MaxLineLength)
	f.Write([]byte(strings.Repeat("z", 700)))
	assert.Equal(t, []framed{{tooLong: true}}, drain(f))
	assert.Zero(t, f.Buffered())

	f.Write([]byte(strings.Repeat("z", 700)))
	assert.Empty(t, drain(f), "the same oversized line is reported once")

	f.Write([]byte("zz\r\nNICK carol\r\n"))
	assert.Equal(t, []framed{{line: "NICK carol"}}, drain(f))
}

func TestFramerLinesIsRestartable(t *testing.T) {
	f := irc.NewFramer(irc.MaxLineLength)
	f.Write([]byte("A\r\nB\r\nC\r\n"))

	for line := range f.Lines() {
		assert.Equal(t, "A", line)
		break
	}

	assert.Equal(t, []framed{{line: "B"}, {line: "C"}}, drain(f))
	assert.Empty(t, drain(f))
}
