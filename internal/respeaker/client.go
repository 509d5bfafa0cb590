package respeaker

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// ControlDevice is the part of a USB device handle the client needs.
// *gousb.Device satisfies it; the timeout is configured on the handle.
type ControlDevice interface {
	Control(rType, request uint8, val, idx uint16, data []byte) (int, error)
}

// Client issues vendor control transfers to the array. It owns the
// device handle exclusively and releases it once, on Close.
type Client struct {
	dev     ControlDevice
	release func() error
	log     *logger.Logger

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewClient wraps dev. release is called exactly once by Close and may
// be nil.
func NewClient(dev ControlDevice, release func() error, log *logger.Logger) *Client {
	return &Client{dev: dev, release: release, log: log}
}

// Write sends a 12-byte parameter payload to module.
func (c *Client) Write(ctx context.Context, module uint16, payload []byte) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	n, err := c.dev.Control(requestTypeOut, requestParameter, 0, module, payload)
	if err != nil {
		return &domain.TransportError{Op: "write", Module: module, Err: err}
	}
	if n != len(payload) {
		return &domain.TransportError{
			Op:     "write",
			Module: module,
			Err:    fmt.Errorf("%w: sent %d of %d bytes", domain.ErrShortTransfer, n, len(payload)),
		}
	}
	c.log.Debug("write module=%d payload=% x", module, payload)
	return nil
}

// Read fetches the 8-byte response for d.
func (c *Client) Read(ctx context.Context, d Descriptor) ([]byte, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	buf := make([]byte, readResponseLen)
	n, err := c.dev.Control(requestTypeIn, requestParameter, ReadValue(d), d.Module, buf)
	if err != nil {
		return nil, &domain.TransportError{Op: "read", Module: d.Module, Err: err}
	}
	if n != readResponseLen {
		return nil, &domain.TransportError{
			Op:     "read",
			Module: d.Module,
			Err:    fmt.Errorf("%w: %s got %d bytes, want %d", domain.ErrShortTransfer, d.Name, n, readResponseLen),
		}
	}
	return buf, nil
}

// FirmwareVersion reads the one-byte firmware version.
func (c *Client) FirmwareVersion(ctx context.Context) (byte, error) {
	if err := c.ready(ctx); err != nil {
		return 0, err
	}
	buf := make([]byte, 1)
	n, err := c.dev.Control(requestTypeIn, requestVersion, 0, 0, buf)
	if err != nil {
		return 0, &domain.TransportError{Op: "version", Err: err}
	}
	if n != 1 {
		return 0, &domain.TransportError{Op: "version", Err: fmt.Errorf("%w: got %d bytes", domain.ErrShortTransfer, n)}
	}
	return buf[0], nil
}

// Close releases the device handle. Safe to call more than once and
// from cleanup paths; only the first call reaches the device.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		if c.release != nil {
			c.closeErr = c.release()
		}
		c.log.Debug("device handle released")
	})
	return c.closeErr
}

func (c *Client) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrClosed
	}
	return nil
}
