// Package asr turns recorded command audio into text with whisper.cpp,
// either in-process through the Go bindings or by running whisper-cli.
package asr

import (
	"regexp"
	"strings"
)

// Engine names accepted in configuration.
const (
	EngineWhisper    = "whisper"
	EngineWhisperCLI = "whisper-cli"
)

// annotation matches whisper's sound annotations like "(wind blowing)",
// "[BLANK_AUDIO]" or "[Music]".
var annotation = regexp.MustCompile(`[\(\[][A-Za-z][A-Za-z_\s]*[\)\]]`)

// timestamp matches a leading "[00:00:00.000 --> 00:00:02.000]".
var timestamp = regexp.MustCompile(`^\[[0-9:.]+\s*-->\s*[0-9:.]+\]`)

// hallucinations are outputs whisper produces on near-silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thank you":               true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
	"the end.":                true,
}

// CleanTranscript flattens whisper output to one line and drops sound
// annotations, timestamps and known silence hallucinations.
func CleanTranscript(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(timestamp.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	s = strings.Join(lines, " ")
	s = annotation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
