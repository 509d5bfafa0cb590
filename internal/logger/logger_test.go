package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		level     Level
		wantDebug bool
		wantInfo  bool
	}{
		{LevelOff, false, false},
		{LevelNormal, false, true},
		{LevelVerbose, true, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		log := New(tt.level, &buf)
		log.Debug("dbg %d", 1)
		log.Info("inf %d", 2)

		out := buf.String()
		if got := strings.Contains(out, "[DBG]"); got != tt.wantDebug {
			t.Errorf("level %d: debug output = %v, want %v", tt.level, got, tt.wantDebug)
		}
		if got := strings.Contains(out, "[INF]"); got != tt.wantInfo {
			t.Errorf("level %d: info output = %v, want %v", tt.level, got, tt.wantInfo)
		}
	}
}

func TestNamedSharesLevelAndPrefixes(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelNormal, &buf)
	child := root.Named("teleop").Named("gate")

	child.Info("voice=%v", true)
	if !strings.Contains(buf.String(), "teleop/gate: voice=true") {
		t.Fatalf("missing prefix in %q", buf.String())
	}

	buf.Reset()
	root.SetLevel(LevelOff)
	child.Error("dropped")
	if buf.Len() != 0 {
		t.Fatalf("child should follow parent level, got %q", buf.String())
	}
	if child.GetLevel() != LevelOff {
		t.Fatalf("child level = %d, want off", child.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel(true, true) != LevelOff {
		t.Error("quiet should win")
	}
	if ParseLevel(true, false) != LevelVerbose {
		t.Error("verbose not honoured")
	}
	if ParseLevel(false, false) != LevelNormal {
		t.Error("default should be normal")
	}
}
