package command

import (
	"testing"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

func TestPermissiveMatch(t *testing.T) {
	r := NewRecognizer(Permissive, logger.New(logger.LevelOff, nil))

	tests := []struct {
		input string
		want  domain.Command
	}{
		// Exact phrases
		{"base forward", domain.BaseForward},
		{"base back", domain.BaseBack},
		{"base left", domain.BaseLeft},
		{"base right", domain.BaseRight},
		{"arm up", domain.LiftUp},
		{"arm down", domain.LiftDown},
		{"arm in", domain.ArmIn},
		{"arm out", domain.ArmOut},
		{"ahead", domain.HeadAhead},
		{"tool", domain.HeadTool},
		{"wheels", domain.HeadWheels},
		{"head tool", domain.HeadTool},

		// Keywords
		{"go forward please", domain.BaseForward},
		{"turn left", domain.BaseLeft},
		{"downtown", domain.LiftDown},
		{"pin up", domain.LiftUp},
		{"outside", domain.ArmOut},

		// Substring quirk: "in" hides inside other words.
		{"arm in transit", domain.ArmIn},
		{"turning", domain.ArmIn},
		{"thinking", domain.ArmIn},

		// Base "back" shadows the head pose.
		{"back", domain.BaseBack},
		{"head back", domain.BaseBack},

		// Normalisation
		{"Base Forward.", domain.BaseForward},
		{"  ARM   OUT! ", domain.ArmOut},

		// Nothing
		{"xyz", domain.NoMatch},
		{"", domain.NoMatch},
		{"   ", domain.NoMatch},
		{"hello robot", domain.NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := r.Match(tt.input); got != tt.want {
				t.Errorf("Match(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestStrictMatch(t *testing.T) {
	r := NewRecognizer(Strict, logger.New(logger.LevelOff, nil))

	tests := []struct {
		input string
		want  domain.Command
	}{
		{"base forward", domain.BaseForward},
		{"base left", domain.BaseLeft},
		{"arm out", domain.ArmOut},
		{"xyz", domain.NoMatch},

		// Whole-word "in" still matches.
		{"arm in transit", domain.ArmIn},
		// Embedded keywords do not.
		{"turning", domain.NoMatch},
		{"thinking", domain.NoMatch},
		{"downtown", domain.NoMatch},

		// Exact head phrases win over base keywords.
		{"back", domain.HeadBack},
		{"head back", domain.HeadBack},
		{"go back", domain.BaseBack},

		{"move it up", domain.LiftUp},
		{"wheels", domain.HeadWheels},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := r.Match(tt.input); got != tt.want {
				t.Errorf("Match(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"base forward":       "base forward",
		"  Base,  FORWARD! ": "base forward",
		"let's go":           "lets go",
		"arm-out":            "arm out",
		"\tarm\n in\r\n":     "arm in",
		"Head Wheels?":       "head wheels",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		in      string
		want    MatchMode
		wantErr bool
	}{
		{"", Permissive, false},
		{"permissive", Permissive, false},
		{"STRICT", Strict, false},
		{"fuzzy", Permissive, true},
	}
	for _, tt := range tests {
		got, err := ParseMatchMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMatchMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMatchMode(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPhrasesCoverEveryCategory(t *testing.T) {
	p := Phrases()
	want := map[domain.Category]int{
		domain.CategoryBase: 4,
		domain.CategoryLift: 2,
		domain.CategoryArm:  2,
		domain.CategoryHead: 4,
	}
	for c, n := range want {
		if len(p[c]) != n {
			t.Errorf("category %s: %d phrases, want %d", c, len(p[c]), n)
		}
	}
	if p[domain.CategoryHead][0] != "ahead" {
		t.Errorf("first head phrase = %q", p[domain.CategoryHead][0])
	}
}
