package asr

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Compile-time interface check.
var _ domain.Recognizer = (*Whisper)(nil)

// Whisper runs a GGML model in-process.
type Whisper struct {
	model    whisper.Model
	language string
	log      *logger.Logger

	mu sync.Mutex // whisper contexts share the model; one decode at a time
}

// NewWhisper loads the model at path.
func NewWhisper(path, language string, log *logger.Logger) (*Whisper, error) {
	if path == "" {
		return nil, errors.New("asr: whisper model path is empty")
	}
	model, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("asr: loading model %s: %w", path, err)
	}
	log.Info("whisper model loaded: %s (multilingual=%v)", path, model.IsMultilingual())
	return &Whisper{model: model, language: language, log: log}, nil
}

// OpenSession starts a new utterance.
func (w *Whisper) OpenSession(ctx context.Context) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &whisperSession{w: w}, nil
}

// Close frees the model.
func (w *Whisper) Close() error {
	return w.model.Close()
}

func (w *Whisper) transcribe(ctx context.Context, samples []float32) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("asr: new context: %w", err)
	}
	if w.language != "" && w.model.IsMultilingual() {
		if err := wctx.SetLanguage(w.language); err != nil {
			return "", fmt.Errorf("asr: language %q: %w", w.language, err)
		}
	}
	if err := wctx.Process(samples, nil); err != nil {
		return "", fmt.Errorf("asr: process: %w", err)
	}

	var segments []whisper.Segment
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", fmt.Errorf("asr: reading segments: %w", err)
		}
		segments = append(segments, seg)
	}
	text := joinSegments(segments)
	w.log.Debug("whisper: %d samples -> %q", len(samples), text)
	return text, nil
}

// joinSegments concatenates segment texts, skipping repeats and pure
// annotations.
func joinSegments(segments []whisper.Segment) string {
	seen := make(map[string]bool)
	var parts []string
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		parts = append(parts, text)
	}
	return CleanTranscript(strings.Join(parts, " "))
}

type whisperSession struct {
	w       *Whisper
	samples []float32
	done    bool
}

// Feed appends 16-bit PCM, converted to the [-1, 1) floats whisper expects.
func (s *whisperSession) Feed(chunk []byte) error {
	if s.done {
		return domain.ErrClosed
	}
	s.samples = append(s.samples, pcmToFloat32(chunk)...)
	return nil
}

// Finish decodes everything fed so far.
func (s *whisperSession) Finish(ctx context.Context) (string, error) {
	if s.done {
		return "", domain.ErrClosed
	}
	s.done = true
	return s.w.transcribe(ctx, s.samples)
}

func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return out
}
