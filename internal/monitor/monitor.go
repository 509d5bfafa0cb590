// Package monitor periodically samples the array's voice-activity and
// direction-of-arrival registers and reports changes.
package monitor

import (
	"context"
	"time"

	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Sampler reads the live registers. Sources adapts a gate and a tuning
// front end into one.
type Sampler interface {
	IsVoice(ctx context.Context) (bool, error)
	Direction(ctx context.Context) (int, error)
}

// Reading is one sample.
type Reading struct {
	At        time.Time
	Voice     bool
	Direction int
}

// Option configures the monitor.
type Option func(*Monitor)

// WithInterval sets how often the registers are sampled.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithEveryReading reports every sample, not only changes.
func WithEveryReading() Option {
	return func(m *Monitor) {
		m.all = true
	}
}

// Monitor samples a Sampler on a ticker.
type Monitor struct {
	sampler  Sampler
	onChange func(Reading)
	log      *logger.Logger
	interval time.Duration
	all      bool

	last    Reading
	hasLast bool
}

// New creates a monitor that calls onChange from the Run goroutine.
func New(sampler Sampler, onChange func(Reading), log *logger.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		sampler:  sampler,
		onChange: onChange,
		log:      log,
		interval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run samples until ctx is cancelled. It returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info("monitor started (interval=%s)", m.interval)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

// sample takes one reading and reports it if it differs from the last.
func (m *Monitor) sample(ctx context.Context) {
	voice, err := m.sampler.IsVoice(ctx)
	if err != nil {
		m.log.Error("reading voice activity: %v", err)
		return
	}
	dir, err := m.sampler.Direction(ctx)
	if err != nil {
		m.log.Error("reading direction: %v", err)
		return
	}

	r := Reading{At: time.Now(), Voice: voice, Direction: dir}
	if !m.all && m.hasLast && r.Voice == m.last.Voice && r.Direction == m.last.Direction {
		return
	}
	m.last, m.hasLast = r, true
	m.onChange(r)
}

// Sources joins a voice source and a direction source into a Sampler.
type Sources struct {
	Voice func(ctx context.Context) (bool, error)
	Angle func(ctx context.Context) (int, error)
}

// IsVoice implements Sampler.
func (p Sources) IsVoice(ctx context.Context) (bool, error) { return p.Voice(ctx) }

// Direction implements Sampler.
func (p Sources) Direction(ctx context.Context) (int, error) { return p.Angle(ctx) }
