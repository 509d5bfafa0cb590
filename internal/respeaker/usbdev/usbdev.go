// Package usbdev opens the ReSpeaker array on the USB bus through libusb.
// It is the only cgo dependency of the tuning path; the protocol itself
// lives in package respeaker.
package usbdev

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker"
)

// USB identity of the 4-mic array.
const (
	VendorID  = 0x2886
	ProductID = 0x0018
)

// Config selects the device and the per-transfer timeout.
type Config struct {
	VendorID  uint16
	ProductID uint16
	Timeout   time.Duration
}

// Finder locates a device by vendor and product id. When nothing on the
// bus matches it returns a nil device and a nil error. release frees the
// handle and anything opened to find it.
type Finder interface {
	Find(vid, pid uint16, timeout time.Duration) (dev respeaker.ControlDevice, release func() error, err error)
}

var _ Finder = Bus{}

// Bus finds devices through gousb.
type Bus struct{}

// Find opens the first device matching vid:pid.
func (Bus) Find(vid, pid uint16, timeout time.Duration) (respeaker.ControlDevice, func() error, error) {
	usbCtx := gousb.NewContext()
	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		usbCtx.Close()
		return nil, nil, err
	}
	if dev == nil {
		usbCtx.Close()
		return nil, nil, nil
	}
	dev.ControlTimeout = timeout

	release := func() error {
		return errors.Join(dev.Close(), usbCtx.Close())
	}
	return dev, release, nil
}

// Open finds the array on the bus and returns a Client owning it. A
// missing device is reported as domain.ErrDeviceNotFound.
func Open(cfg Config, log *logger.Logger) (*respeaker.Client, error) {
	return OpenWith(Bus{}, cfg, log)
}

// OpenWith is Open over an explicit finder.
func OpenWith(f Finder, cfg Config, log *logger.Logger) (*respeaker.Client, error) {
	if cfg.Timeout <= 0 {
		return nil, errors.New("usbdev: transfer timeout must be positive")
	}

	dev, release, err := f.Find(cfg.VendorID, cfg.ProductID, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("usbdev: opening %04x:%04x: %w", cfg.VendorID, cfg.ProductID, err)
	}
	if dev == nil {
		return nil, fmt.Errorf("usbdev: %04x:%04x: %w", cfg.VendorID, cfg.ProductID, domain.ErrDeviceNotFound)
	}

	log.Info("opened %04x:%04x (timeout=%s)", cfg.VendorID, cfg.ProductID, cfg.Timeout)
	return respeaker.NewClient(dev, release, log), nil
}
