package asr

import (
	"testing"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/stretchr/testify/assert"

	"github.com/hammamikhairi/voiceteleop/internal/audio"
)

func TestPCMToFloat32(t *testing.T) {
	got := pcmToFloat32(audio.PCM([]int{0, 16384, -32768, 32767}))
	assert.Equal(t, []float32{0, 0.5, -1, float32(32767) / 32768}, got)

	assert.Empty(t, pcmToFloat32([]byte{1}))
}

func TestJoinSegments(t *testing.T) {
	segs := []whisper.Segment{
		{Text: " base"},
		{Text: " [BLANK_AUDIO]"},
		{Text: "forward "},
		{Text: "forward"},
		{Text: ""},
	}
	assert.Equal(t, "base forward", joinSegments(segs))
	assert.Equal(t, "", joinSegments(nil))
}
