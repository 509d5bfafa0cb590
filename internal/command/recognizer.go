// Package command maps transcripts to robot commands and drives the
// robot with them.
package command

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// MatchMode selects how keywords are matched against a transcript.
type MatchMode int

const (
	// Permissive tries each command in priority order, exact phrase first
	// and then keyword substring. "in" matches "turning".
	Permissive MatchMode = iota
	// Strict tries every exact phrase before any keyword, and keywords
	// must be whole words.
	Strict
)

func (m MatchMode) String() string {
	if m == Strict {
		return "strict"
	}
	return "permissive"
}

// ParseMatchMode converts a config value into a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, fmt.Errorf("unknown match mode %q", s)
	}
}

// rule binds a command to its exact phrases and an optional keyword.
type rule struct {
	cmd     domain.Command
	phrases []string
	keyword string
	word    *regexp.Regexp
}

// rules is ordered base, lift, arm, head. Head poses have no keyword.
var rules = []rule{
	{cmd: domain.BaseForward, phrases: []string{"base forward"}, keyword: "forward"},
	{cmd: domain.BaseBack, phrases: []string{"base back"}, keyword: "back"},
	{cmd: domain.BaseLeft, phrases: []string{"base left"}, keyword: "left"},
	{cmd: domain.BaseRight, phrases: []string{"base right"}, keyword: "right"},

	{cmd: domain.LiftUp, phrases: []string{"arm up"}, keyword: "up"},
	{cmd: domain.LiftDown, phrases: []string{"arm down"}, keyword: "down"},

	{cmd: domain.ArmIn, phrases: []string{"arm in"}, keyword: "in"},
	{cmd: domain.ArmOut, phrases: []string{"arm out"}, keyword: "out"},

	{cmd: domain.HeadAhead, phrases: []string{"ahead", "head ahead"}},
	{cmd: domain.HeadBack, phrases: []string{"back", "head back"}},
	{cmd: domain.HeadTool, phrases: []string{"tool", "head tool"}},
	{cmd: domain.HeadWheels, phrases: []string{"wheels", "head wheels"}},
}

func init() {
	for i := range rules {
		if rules[i].keyword != "" {
			rules[i].word = regexp.MustCompile(`\b` + regexp.QuoteMeta(rules[i].keyword) + `\b`)
		}
	}
}

// Recognizer maps a transcript to the first matching command.
type Recognizer struct {
	mode MatchMode
	log  *logger.Logger
}

// NewRecognizer creates a recognizer in the given mode.
func NewRecognizer(mode MatchMode, log *logger.Logger) *Recognizer {
	return &Recognizer{mode: mode, log: log}
}

// Match returns the command for transcript, or domain.NoMatch. The
// transcript is normalised first.
func (r *Recognizer) Match(transcript string) domain.Command {
	t := Normalize(transcript)
	if t == "" {
		return domain.NoMatch
	}

	var cmd domain.Command
	if r.mode == Strict {
		cmd = matchStrict(t)
	} else {
		cmd = matchPermissive(t)
	}
	r.log.Debug("%q -> %s (%s)", t, cmd, r.mode)
	return cmd
}

func matchPermissive(t string) domain.Command {
	for _, rl := range rules {
		if rl.exact(t) || (rl.keyword != "" && strings.Contains(t, rl.keyword)) {
			return rl.cmd
		}
	}
	return domain.NoMatch
}

func matchStrict(t string) domain.Command {
	for _, rl := range rules {
		if rl.exact(t) {
			return rl.cmd
		}
	}
	for _, rl := range rules {
		if rl.word != nil && rl.word.MatchString(t) {
			return rl.cmd
		}
	}
	return domain.NoMatch
}

func (rl rule) exact(t string) bool {
	for _, p := range rl.phrases {
		if t == p {
			return true
		}
	}
	return false
}

// Normalize lower-cases s, turns punctuation into spaces and collapses
// runs of whitespace. Apostrophes are dropped.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'':
			return -1
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Phrases lists the spoken forms per category for the menu.
func Phrases() map[domain.Category][]string {
	out := make(map[domain.Category][]string)
	for _, rl := range rules {
		c := rl.cmd.Category()
		out[c] = append(out[c], rl.phrases[0])
	}
	return out
}
