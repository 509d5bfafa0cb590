package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Compile-time interface check.
var _ domain.AudioSource = (*Capture)(nil)

// chunkQueueCap bounds the chunks buffered between the device callback
// and CaptureChunk. About four seconds at the default chunk size.
const chunkQueueCap = 64

// CaptureConfig selects the input device and format.
type CaptureConfig struct {
	DeviceName  string // substring of the device name; empty = default input
	SampleRate  int
	Channels    int
	Channel     int
	ChunkFrames int
}

// Capture records from the array through miniaudio. The array is opened
// with all its channels and one channel is kept.
type Capture struct {
	cfg CaptureConfig
	log *logger.Logger

	mctx     *malgo.AllocatedContext
	deviceID *malgo.DeviceID

	mu     sync.Mutex
	device *malgo.Device
	chunks chan []byte
	drops  atomic.Int64
}

// NewCapture initialises miniaudio and resolves the input device. A
// named device that is not present is reported as
// domain.ErrDeviceNotFound.
func NewCapture(cfg CaptureConfig, log *logger.Logger) (*Capture, error) {
	if cfg.Channel < 0 || cfg.Channel >= cfg.Channels {
		return nil, fmt.Errorf("audio: channel %d out of range for %d channels", cfg.Channel, cfg.Channels)
	}
	if cfg.ChunkFrames <= 0 {
		return nil, errors.New("audio: chunk_frames must be positive")
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.Debug("miniaudio: %s", strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("audio: init context: %w", err)
	}

	c := &Capture{cfg: cfg, log: log, mctx: mctx}
	if cfg.DeviceName != "" {
		id, err := findDevice(mctx, cfg.DeviceName)
		if err != nil {
			_ = mctx.Uninit()
			mctx.Free()
			return nil, err
		}
		c.deviceID = id
	}
	return c, nil
}

func findDevice(mctx *malgo.AllocatedContext, name string) (*malgo.DeviceID, error) {
	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("audio: listing capture devices: %w", err)
	}
	var found *malgo.DeviceID
	for i := range infos {
		if strings.Contains(infos[i].Name(), name) {
			id := infos[i].ID
			found = &id
		}
	}
	if found == nil {
		return nil, fmt.Errorf("audio: input %q: %w", name, domain.ErrDeviceNotFound)
	}
	return found, nil
}

// Begin opens and starts the input stream.
func (c *Capture) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		return errors.New("audio: capture already started")
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.SampleRate = uint32(c.cfg.SampleRate)
	devCfg.Capture.Format = malgo.FormatS16
	devCfg.Capture.Channels = uint32(c.cfg.Channels)
	devCfg.Alsa.NoMMap = 1
	if c.deviceID != nil {
		devCfg.Capture.DeviceID = c.deviceID.Pointer()
	}

	chunks := make(chan []byte, chunkQueueCap)
	cut := newChunker(c.cfg.ChunkFrames)
	c.drops.Store(0)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, raw []byte, _ uint32) {
			if len(raw) == 0 {
				return
			}
			for _, chunk := range cut.push(extractChannel(raw, c.cfg.Channels, c.cfg.Channel)) {
				select {
				case chunks <- chunk:
				default:
					c.drops.Add(1)
				}
			}
		},
	}

	device, err := malgo.InitDevice(c.mctx.Context, devCfg, callbacks)
	if err != nil {
		return fmt.Errorf("audio: init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("audio: start device: %w", err)
	}

	c.device, c.chunks = device, chunks
	c.log.Debug("capture started (rate=%d, channels=%d, keep=%d, chunk=%d)",
		c.cfg.SampleRate, c.cfg.Channels, c.cfg.Channel, c.cfg.ChunkFrames)
	return nil
}

// CaptureChunk blocks until one chunk of mono PCM is available.
func (c *Capture) CaptureChunk(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	chunks := c.chunks
	c.mu.Unlock()
	if chunks == nil {
		return nil, errors.New("audio: capture not started")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case chunk := <-chunks:
		return chunk, nil
	}
}

// End stops the input stream.
func (c *Capture) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return nil
	}
	err := c.device.Stop()
	c.device.Uninit()
	c.device, c.chunks = nil, nil

	if n := c.drops.Load(); n > 0 {
		c.log.Warn("capture dropped %d chunks", n)
	}
	return err
}

// Close releases miniaudio.
func (c *Capture) Close() error {
	if err := c.End(); err != nil {
		c.log.Warn("stopping capture: %v", err)
	}
	err := c.mctx.Uninit()
	c.mctx.Free()
	return err
}
