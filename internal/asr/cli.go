package asr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/hammamikhairi/voiceteleop/internal/audio"
	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Compile-time interface check.
var _ domain.Recognizer = (*CLI)(nil)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out, nil
}

// CLIConfig locates whisper-cli and its model.
type CLIConfig struct {
	Binary     string
	Model      string
	Language   string
	TempDir    string
	SampleRate int
}

// CLIOption configures the CLI recognizer.
type CLIOption func(*CLI)

// WithRunner replaces process execution.
func WithRunner(r Runner) CLIOption {
	return func(c *CLI) {
		c.run = r
	}
}

// WithFs sets the filesystem used for the temporary WAV files.
func WithFs(fs afero.Fs) CLIOption {
	return func(c *CLI) {
		c.fs = fs
	}
}

// CLI transcribes by writing each utterance to a WAV file and running
// whisper-cli on it.
type CLI struct {
	cfg CLIConfig
	fs  afero.Fs
	run Runner
	log *logger.Logger
}

// NewCLI creates a whisper-cli recognizer. A missing binary is logged,
// not fatal; sessions fail when they run it.
func NewCLI(cfg CLIConfig, log *logger.Logger, opts ...CLIOption) *CLI {
	if cfg.Binary == "" {
		cfg.Binary = "whisper-cli"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = ".voiceteleop/stt"
	}
	c := &CLI{cfg: cfg, fs: afero.NewOsFs(), run: execRunner, log: log}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := exec.LookPath(c.cfg.Binary); err != nil {
		log.Warn("whisper binary %q not found in PATH: %v", c.cfg.Binary, err)
	}
	return c
}

// OpenSession starts a new utterance.
func (c *CLI) OpenSession(ctx context.Context) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &cliSession{c: c}, nil
}

type cliSession struct {
	c    *CLI
	pcm  []byte
	done bool
}

func (s *cliSession) Feed(chunk []byte) error {
	if s.done {
		return domain.ErrClosed
	}
	s.pcm = append(s.pcm, chunk...)
	return nil
}

func (s *cliSession) Finish(ctx context.Context) (string, error) {
	if s.done {
		return "", domain.ErrClosed
	}
	s.done = true
	return s.c.transcribe(ctx, s.pcm)
}

func (c *CLI) transcribe(ctx context.Context, pcm []byte) (string, error) {
	if err := c.fs.MkdirAll(c.cfg.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("asr: temp dir: %w", err)
	}
	path := filepath.Join(c.cfg.TempDir, "utt-"+uuid.NewString()+".wav")

	f, err := c.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("asr: creating %s: %w", path, err)
	}
	defer func() {
		if err := c.fs.Remove(path); err != nil {
			c.log.Debug("removing %s: %v", path, err)
		}
	}()
	if err := audio.WriteWAV(f, c.cfg.SampleRate, pcm); err != nil {
		f.Close()
		return "", fmt.Errorf("asr: writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	args := []string{"-m", c.cfg.Model, "-f", path, "-nt", "-np"}
	if c.cfg.Language != "" {
		args = append(args, "-l", c.cfg.Language)
	}
	out, err := c.run(ctx, c.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("asr: %w", err)
	}
	text := CleanTranscript(string(out))
	c.log.Debug("whisper-cli: %d bytes -> %q", len(pcm), text)
	return text, nil
}
