package respeaker

import (
	"context"
	"fmt"
	"sort"

	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Tuning reads and writes registers by name.
type Tuning struct {
	client *Client
	reg    *Registry
	log    *logger.Logger
}

// NewTuning creates a named-parameter front end over client.
func NewTuning(client *Client, reg *Registry, log *logger.Logger) *Tuning {
	return &Tuning{client: client, reg: reg, log: log}
}

// Registry returns the register table used for lookups.
func (t *Tuning) Registry() *Registry { return t.reg }

// Write encodes value for the named register and sends it. Unknown and
// read-only names fail before any transfer is issued.
func (t *Tuning) Write(ctx context.Context, name string, value float64) error {
	d, err := t.reg.Lookup(name)
	if err != nil {
		return err
	}
	payload, err := EncodeWrite(d, value)
	if err != nil {
		return err
	}
	if err := t.client.Write(ctx, d.Module, payload); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	t.log.Debug("%s <- %v", name, value)
	return nil
}

// Read fetches and decodes the named register.
func (t *Tuning) Read(ctx context.Context, name string) (float64, error) {
	d, err := t.reg.Lookup(name)
	if err != nil {
		return 0, err
	}
	raw, err := t.client.Read(ctx, d)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", name, err)
	}
	v, err := DecodeRead(d, raw)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", name, err)
	}
	return v, nil
}

// ApplyPreset writes every entry of preset in name order and stops at
// the first failure.
func (t *Tuning) ApplyPreset(ctx context.Context, preset map[string]float64) error {
	names := make([]string, 0, len(preset))
	for n := range preset {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := t.Write(ctx, n, preset[n]); err != nil {
			return err
		}
		t.log.Info("tuning %s = %v", n, preset[n])
	}
	return nil
}

// Direction returns the current direction-of-arrival angle in degrees.
func (t *Tuning) Direction(ctx context.Context) (int, error) {
	v, err := t.Read(ctx, ParamDOAAngle)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// Version returns the firmware version byte.
func (t *Tuning) Version(ctx context.Context) (byte, error) {
	return t.client.FirmwareVersion(ctx)
}

// Close releases the device handle.
func (t *Tuning) Close() error {
	return t.client.Close()
}
