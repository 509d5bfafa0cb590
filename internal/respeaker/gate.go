package respeaker

import (
	"context"
	"sync"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
)

// Gate reports whether the array currently hears a voice. It also keeps
// the idle-announcement latch so the "waiting" prompt is shown once per
// idle period.
type Gate struct {
	tuning *Tuning

	mu        sync.Mutex
	announced bool
}

// NewGate creates a voice-activity gate over tuning.
func NewGate(tuning *Tuning) *Gate {
	return &Gate{tuning: tuning}
}

// IsVoice reads VOICEACTIVITY. 1 means voice, 0 means silence; any other
// value is a *domain.ProtocolViolationError, never "no voice".
func (g *Gate) IsVoice(ctx context.Context) (bool, error) {
	v, err := g.tuning.Read(ctx, ParamVoiceActivity)
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &domain.ProtocolViolationError{Parameter: ParamVoiceActivity, Value: v}
	}
}

// SetDetectionThreshold writes the VAD threshold in dB.
func (g *Gate) SetDetectionThreshold(ctx context.Context, db float64) error {
	return g.tuning.Write(ctx, ParamVADThreshold, db)
}

// ShouldAnnounceIdle returns true the first time it is called in an idle
// period and false afterwards, until ResetIdle.
func (g *Gate) ShouldAnnounceIdle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.announced {
		return false
	}
	g.announced = true
	return true
}

// ResetIdle ends the current idle period.
func (g *Gate) ResetIdle() {
	g.mu.Lock()
	g.announced = false
	g.mu.Unlock()
}
