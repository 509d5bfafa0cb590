// Package teleop runs the voice-command loop: wait for the array to hear
// speech, record a short command, transcribe it and drive the robot.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// VoiceGate reports voice activity and keeps the idle-announcement latch.
// *respeaker.Gate satisfies it.
type VoiceGate interface {
	IsVoice(ctx context.Context) (bool, error)
	ShouldAnnounceIdle() bool
	ResetIdle()
}

// Matcher maps a transcript to a command.
type Matcher interface {
	Match(transcript string) domain.Command
}

// Dispatcher queues the robot motion for a command.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) error
}

// Archiver stores the audio of one cycle.
type Archiver interface {
	Save(ctx context.Context, id string, chunks [][]byte) (string, error)
}

// Player replays the audio of one cycle.
type Player interface {
	Play(ctx context.Context, chunks [][]byte) error
}

// Deps are the collaborators the loop owns for its lifetime.
type Deps struct {
	Gate       VoiceGate
	Transport  io.Closer
	Source     domain.AudioSource
	ASR        domain.Recognizer
	Matcher    Matcher
	Dispatcher Dispatcher
	Robot      domain.Robot
}

// Config holds the loop timings and policies.
type Config struct {
	PollInterval   time.Duration
	RecordDuration time.Duration
	SettleDelay    time.Duration
	Cooldown       time.Duration
	StopTimeout    time.Duration
	SampleRate     int
	ChunkFrames    int
	MaxPollErrors  int
	FlushOnNoMatch bool
	Menu           string
}

// DefaultConfig returns the reference timings: 10 ms polling, 2 s
// recordings at 16 kHz in 1024-frame chunks, 1 s settle and cooldown.
func DefaultConfig() Config {
	return Config{
		PollInterval:   10 * time.Millisecond,
		RecordDuration: 2 * time.Second,
		SettleDelay:    time.Second,
		Cooldown:       time.Second,
		StopTimeout:    5 * time.Second,
		SampleRate:     16000,
		ChunkFrames:    1024,
		MaxPollErrors:  50,
		FlushOnNoMatch: true,
	}
}

// Chunks is the number of chunks captured per recording.
func (c Config) Chunks() int {
	if c.ChunkFrames <= 0 {
		return 0
	}
	return int(float64(c.SampleRate) / float64(c.ChunkFrames) * c.RecordDuration.Seconds())
}

// Option configures the loop.
type Option func(*Loop)

// WithStateHook calls fn on every state transition.
func WithStateHook(fn func(domain.TeleopState)) Option {
	return func(l *Loop) {
		l.onState = fn
	}
}

// WithNotifier sends operator messages to n.
func WithNotifier(n domain.Notifier) Option {
	return func(l *Loop) {
		l.notifier = n
	}
}

// WithJournal appends every cycle to store.
func WithJournal(store domain.CycleStore) Option {
	return func(l *Loop) {
		l.journal = store
	}
}

// WithArchive saves every recording through a.
func WithArchive(a Archiver) Option {
	return func(l *Loop) {
		l.archive = a
	}
}

// WithReplay plays every recording back through p before transcription.
func WithReplay(p Player) Option {
	return func(l *Loop) {
		l.replay = p
	}
}

// Loop is the teleop state machine. It runs on the caller's goroutine
// and may be run once.
type Loop struct {
	deps Deps
	cfg  Config
	log  *logger.Logger

	onState  func(domain.TeleopState)
	notifier domain.Notifier
	journal  domain.CycleStore
	archive  Archiver
	replay   Player

	started  atomic.Bool
	state    domain.TeleopState
	hasState bool

	stopOnce  sync.Once
	closeOnce sync.Once
}

// New creates a loop over deps.
func New(deps Deps, cfg Config, log *logger.Logger, opts ...Option) *Loop {
	l := &Loop{deps: deps, cfg: cfg, log: log}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drives the loop until ctx is cancelled or voice polling fails
// MaxPollErrors times in a row. On every exit the robot is stopped and
// then the transport is closed. Cancellation is a clean exit and
// returns nil unless stop or close fail.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return fmt.Errorf("teleop: loop already ran: %w", domain.ErrClosed)
	}

	runErr := l.run(ctx)
	if ctx.Err() != nil {
		l.log.Info("teleop cancelled in state %s", l.state)
		runErr = nil
	}
	return errors.Join(runErr, l.shutdown(ctx))
}

func (l *Loop) run(ctx context.Context) error {
	l.log.Info("teleop started (chunks=%d, flush_on_no_match=%v)", l.cfg.Chunks(), l.cfg.FlushOnNoMatch)

	pollErrs := 0
	for {
		l.setState(domain.WaitingForVoice)

		voice, err := l.deps.Gate.IsVoice(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			pollErrs++
			l.log.Warn("voice activity poll failed (%d in a row): %v", pollErrs, err)
			if l.cfg.MaxPollErrors > 0 && pollErrs >= l.cfg.MaxPollErrors {
				return fmt.Errorf("teleop: voice activity polling failed %d times: %w", pollErrs, err)
			}
			if err := sleep(ctx, l.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}
		pollErrs = 0

		if !voice {
			if l.deps.Gate.ShouldAnnounceIdle() {
				if l.cfg.Menu != "" {
					l.notify(ctx, l.cfg.Menu)
				}
				l.notify(ctx, "* waiting for audio...")
			}
			if err := sleep(ctx, l.cfg.PollInterval); err != nil {
				return err
			}
			continue
		}

		if err := l.cycle(ctx); err != nil {
			return err
		}
		l.deps.Gate.ResetIdle()
		if err := sleep(ctx, l.cfg.Cooldown); err != nil {
			return err
		}
	}
}

// cycle runs Recording → Transcribing → Dispatching once. It returns an
// error only when ctx is cancelled; other failures are logged and
// journaled and the loop goes back to waiting.
func (l *Loop) cycle(ctx context.Context) error {
	c := &domain.Cycle{ID: uuid.NewString(), StartedAt: time.Now()}

	// Recording
	l.setState(domain.Recording)
	l.notify(ctx, fmt.Sprintf("* recording %s", l.cfg.RecordDuration))
	chunks, err := l.record(ctx)
	c.Chunks = len(chunks)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.fail(ctx, c, fmt.Errorf("recording: %w", err))
		return nil
	}
	l.notify(ctx, "* done")

	if l.archive != nil {
		if path, err := l.archive.Save(ctx, c.ID, chunks); err != nil {
			l.log.Warn("archiving cycle %s: %v", c.ID, err)
		} else {
			l.log.Debug("archived cycle %s to %s", c.ID, path)
		}
	}
	if l.replay != nil {
		if err := l.replay.Play(ctx, chunks); err != nil && ctx.Err() == nil {
			l.log.Warn("replaying cycle %s: %v", c.ID, err)
		}
	}

	if err := sleep(ctx, l.cfg.SettleDelay); err != nil {
		return err
	}

	// Transcribing
	l.setState(domain.Transcribing)
	l.notify(ctx, "* analyzing")
	transcript, err := l.transcribe(ctx, chunks)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.fail(ctx, c, fmt.Errorf("transcribing: %w", err))
		return nil
	}
	c.Transcript = transcript

	// Dispatching
	l.setState(domain.Dispatching)
	c.Command = l.deps.Matcher.Match(transcript)
	l.log.Info("transcript %q -> %s", transcript, c.Command)

	dispatchErr := l.deps.Dispatcher.Dispatch(ctx, c.Command)
	switch {
	case errors.Is(dispatchErr, domain.ErrNoMatch):
		l.notifyUrgent(ctx, "Unable to interpret: "+transcript)
	case dispatchErr != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.log.Error("%v", dispatchErr)
		l.notifyUrgent(ctx, dispatchErr.Error())
		c.Err = dispatchErr.Error()
	default:
		l.notify(ctx, "Understood: "+transcript)
	}

	if c.Command != domain.NoMatch || l.cfg.FlushOnNoMatch {
		if err := l.deps.Robot.PushCommand(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Error("flushing robot commands: %v", err)
			if c.Err == "" {
				c.Err = err.Error()
			}
		} else {
			c.Flushed = true
		}
	}
	l.notify(ctx, "* done")
	l.journalCycle(ctx, c)
	return nil
}

// record captures Config.Chunks() chunks between Begin and End.
func (l *Loop) record(ctx context.Context) ([][]byte, error) {
	if err := l.deps.Source.Begin(ctx); err != nil {
		return nil, err
	}
	n := l.cfg.Chunks()
	chunks := make([][]byte, 0, n)
	var err error
	for i := 0; i < n; i++ {
		var chunk []byte
		chunk, err = l.deps.Source.CaptureChunk(ctx)
		if err != nil {
			break
		}
		chunks = append(chunks, chunk)
	}
	if endErr := l.deps.Source.End(); endErr != nil && err == nil {
		err = endErr
	}
	return chunks, err
}

// transcribe feeds chunks in capture order and finalises the session.
func (l *Loop) transcribe(ctx context.Context, chunks [][]byte) (string, error) {
	session, err := l.deps.ASR.OpenSession(ctx)
	if err != nil {
		return "", err
	}
	for _, chunk := range chunks {
		if err := session.Feed(chunk); err != nil {
			return "", err
		}
	}
	return session.Finish(ctx)
}

// shutdown stops the robot and then closes the transport, each once.
// ctx may already be cancelled, so stop runs under a fresh deadline.
func (l *Loop) shutdown(ctx context.Context) error {
	var stopErr, closeErr error
	l.stopOnce.Do(func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.stopTimeout())
		defer cancel()
		if err := l.deps.Robot.Stop(stopCtx); err != nil {
			stopErr = fmt.Errorf("stopping robot: %w", err)
		}
	})
	l.closeOnce.Do(func() {
		if err := l.deps.Transport.Close(); err != nil {
			closeErr = fmt.Errorf("closing transport: %w", err)
		}
	})
	l.log.Info("teleop stopped")
	return errors.Join(stopErr, closeErr)
}

func (l *Loop) stopTimeout() time.Duration {
	if l.cfg.StopTimeout > 0 {
		return l.cfg.StopTimeout
	}
	return 5 * time.Second
}

func (l *Loop) fail(ctx context.Context, c *domain.Cycle, err error) {
	l.log.Error("cycle %s: %v", c.ID, err)
	l.notifyUrgent(ctx, err.Error())
	c.Err = err.Error()
	l.journalCycle(ctx, c)
}

func (l *Loop) journalCycle(ctx context.Context, c *domain.Cycle) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Append(ctx, c); err != nil {
		l.log.Warn("journaling cycle %s: %v", c.ID, err)
	}
}

func (l *Loop) setState(s domain.TeleopState) {
	if l.hasState && l.state == s {
		return
	}
	l.log.Debug("state %s -> %s", l.state, s)
	l.state, l.hasState = s, true
	if l.onState != nil {
		l.onState(s)
	}
}

func (l *Loop) notify(ctx context.Context, msg string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(ctx, msg); err != nil {
		l.log.Warn("notify: %v", err)
	}
}

func (l *Loop) notifyUrgent(ctx context.Context, msg string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.NotifyUrgent(ctx, msg); err != nil {
		l.log.Warn("notify: %v", err)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
