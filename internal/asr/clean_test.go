package asr

import "testing"

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{" base forward\n", "base forward"},
		{"[BLANK_AUDIO]", ""},
		{"(wind blowing) arm out", "arm out"},
		{"arm [Music] in", "arm in"},
		{"[00:00:00.000 --> 00:00:02.000]   head tool", "head tool"},
		{"[00:00:00.000 --> 00:00:01.000] base\n[00:00:01.000 --> 00:00:02.000] left", "base left"},
		{"Thank you.", ""},
		{"you", ""},
		{"Base   Right.", "Base Right."},
	}
	for _, tt := range tests {
		if got := CleanTranscript(tt.in); got != tt.want {
			t.Errorf("CleanTranscript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
