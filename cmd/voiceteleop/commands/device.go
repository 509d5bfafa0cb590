package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/voiceteleop/internal/config"
	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker/usbdev"
)

// usbFinder locates the array on the bus.
var usbFinder usbdev.Finder = usbdev.Bus{}

// openTuning opens the array over USB, or the simulator when the config
// asks for it. A missing array is domain.ErrDeviceNotFound.
func openTuning(cfg *config.Config) (*respeaker.Tuning, error) {
	reg := respeaker.DefaultRegistry()
	usbLog := log.Named("usb")

	if cfg.Device.Simulate {
		sim, err := newSimulatedArray(reg, os.Stdin)
		if err != nil {
			return nil, err
		}
		return respeaker.NewTuning(respeaker.NewClient(sim, nil, usbLog), reg, log.Named("tuning")), nil
	}

	client, err := usbdev.OpenWith(usbFinder, usbdev.Config{
		VendorID:  cfg.Device.VendorID,
		ProductID: cfg.Device.ProductID,
		Timeout:   cfg.Device.TransferTimeout(),
	}, usbLog)
	if err != nil {
		if errors.Is(err, domain.ErrDeviceNotFound) {
			return nil, fmt.Errorf("%w (connect the array or pass --simulate)", err)
		}
		return nil, err
	}
	return respeaker.NewTuning(client, reg, log.Named("tuning")), nil
}

// newSimulatedArray returns a simulator whose voice flag is raised once
// per line read from in and whose direction sweeps slowly.
func newSimulatedArray(reg *respeaker.Registry, in io.Reader) (*respeaker.Simulator, error) {
	sim := respeaker.NewSimulator(reg)
	trig := newLineTrigger(in)
	if err := sim.Source(respeaker.ParamVoiceActivity, trig.value); err != nil {
		return nil, fmt.Errorf("simulating %s: %w", respeaker.ParamVoiceActivity, err)
	}

	start := time.Now()
	if err := sim.Source(respeaker.ParamDOAAngle, func() float64 {
		return float64(int(time.Since(start).Seconds()*10) % 360)
	}); err != nil {
		return nil, fmt.Errorf("simulating %s: %w", respeaker.ParamDOAAngle, err)
	}
	return sim, nil
}

// lineTrigger counts lines read from a reader. Each pending line makes
// one read of value return 1.
type lineTrigger struct {
	pending atomic.Int64
}

func newLineTrigger(in io.Reader) *lineTrigger {
	t := &lineTrigger{}
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			t.pending.Add(1)
		}
	}()
	return t
}

func (t *lineTrigger) value() float64 {
	for {
		n := t.pending.Load()
		if n <= 0 {
			return 0
		}
		if t.pending.CompareAndSwap(n, n-1) {
			return 1
		}
	}
}
