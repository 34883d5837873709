package lobby

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

type commandType int

const (
	cmdNone commandType = iota
	cmdChat
	cmdPlay
	cmdAccept
	cmdDecline
	cmdMove
	cmdForfeit
	cmdHelp
	cmdStats
	cmdList
	cmdQuit
)

// command is one parsed line from a registered player.
type command struct {
	Type commandType
	// Handle invited by play.
	Target string
	// Column chosen by a move.
	Column int
	// Original text of a chat line.
	Text string
}

var errMissingTarget = errors.New("usage: play <handle>")

var keywords = map[string]commandType{
	"yes":     cmdAccept,
	"no":      cmdDecline,
	"ff":      cmdForfeit,
	"help":    cmdHelp,
	"history": cmdStats,
	"stat":    cmdStats,
	"list":    cmdList,
	"who":     cmdList,
	"quit":    cmdQuit,
}

// parseCommand turns a line into a command. Keywords are matched without
// regard to case; anything that isn't a command is chat.
func parseCommand(line string) (command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return command{Type: cmdNone}, nil
	}

	// Caser keeps state, so each parse gets its own.
	fold := cases.Fold()
	fields := strings.Fields(trimmed)
	// Only plain ASCII words are keywords. Folding maps some other runes,
	// such as the ligature ﬀ, onto ASCII letters.
	var keyword string
	if isASCII(fields[0]) {
		keyword = fold.String(fields[0])
	}

	if keyword == "play" {
		if len(fields) != 2 {
			return command{}, errMissingTarget
		}
		return command{Type: cmdPlay, Target: fields[1]}, nil
	}
	if t, ok := keywords[keyword]; ok && len(fields) == 1 {
		return command{Type: t}, nil
	}

	if len(fields) == 1 && isNumeric(trimmed) {
		col, err := strconv.Atoi(trimmed)
		if err != nil {
			// Too large to be parsed at all.
			return command{Type: cmdMove, Column: -1}, nil
		}
		return command{Type: cmdMove, Column: col}, nil
	}

	return command{Type: cmdChat, Text: trimmed}, nil
}

// isNumeric reports whether s is an optionally signed run of digits.
func isNumeric(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

const helpText = `Commands:
  play <handle>   invite a player to a match
  yes | no        answer an invitation
  0-6             drop a token into a column
  ff              forfeit the current match
  list | who      show players waiting for a match
  history | stat  show your record
  help            show this message
  quit            leave the server
Anything else is sent to everyone as chat.`

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
