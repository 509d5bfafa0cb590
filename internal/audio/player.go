package audio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// drainPoll is how often a running playback is checked for completion.
const drainPoll = 10 * time.Millisecond

// Player replays recorded commands on the default output device.
type Player struct {
	out  *oto.Context
	rate int
	log  *logger.Logger
}

// NewPlayer opens the output device for mono 16-bit audio at sampleRate.
// oto permits a single context per process, so one Player should be
// shared.
func NewPlayer(sampleRate int, log *logger.Logger) (*Player, error) {
	out, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio output: %w", err)
	}
	<-ready

	log.Debug("output ready at %d Hz", sampleRate)
	return &Player{out: out, rate: sampleRate, log: log}, nil
}

// Play replays the chunks of one recording in order.
func (p *Player) Play(ctx context.Context, chunks [][]byte) error {
	return p.PlayPCM(ctx, Join(chunks))
}

// PlayPCM blocks until pcm has been played or ctx is done. A cancelled
// playback is paused and ctx.Err() is returned.
func (p *Player) PlayPCM(ctx context.Context, pcm []byte) error {
	pl := p.out.NewPlayer(bytes.NewReader(pcm))
	pl.Play()
	p.log.Debug("replaying %s of audio", time.Duration(len(pcm)/bytesPerSample)*time.Second/time.Duration(p.rate))

	tick := time.NewTicker(drainPoll)
	defer tick.Stop()

	var waitErr error
wait:
	for pl.IsPlaying() {
		select {
		case <-ctx.Done():
			pl.Pause()
			waitErr = ctx.Err()
			break wait
		case <-tick.C:
		}
	}

	if err := pl.Close(); err != nil {
		return err
	}
	return waitErr
}
