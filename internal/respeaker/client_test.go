package respeaker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

func newSimClient(t *testing.T) (*Simulator, *Client, *int) {
	t.Helper()
	sim := NewSimulator(DefaultRegistry())
	releases := 0
	c := NewClient(sim, func() error { releases++; return nil }, logger.New(logger.LevelOff, nil))
	return sim, c, &releases
}

func TestClientWireFormat(t *testing.T) {
	sim, c, _ := newSimClient(t)
	ctx := context.Background()
	reg := DefaultRegistry()

	d, _ := reg.Lookup("AGCONOFF")
	payload, err := EncodeWrite(d, 1)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, d.Module, payload))

	va, _ := reg.Lookup(ParamVoiceActivity)
	_, err = c.Read(ctx, va)
	require.NoError(t, err)

	ver, err := c.FirmwareVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(3), ver)

	log := sim.Transfers()
	require.Len(t, log, 3)

	assert.Equal(t, Transfer{RequestType: 0x40, Request: 0, Value: 0, Index: 19, Data: payload}, log[0])

	assert.Equal(t, uint8(0xC0), log[1].RequestType)
	assert.Equal(t, uint8(0), log[1].Request)
	assert.Equal(t, uint16(0x80|0x40|32), log[1].Value)
	assert.Equal(t, uint16(19), log[1].Index)
	assert.Len(t, log[1].Data, 8)

	assert.Equal(t, uint8(0xC0), log[2].RequestType)
	assert.Equal(t, uint8(0x80), log[2].Request)
	assert.Equal(t, uint16(0), log[2].Value)
	assert.Equal(t, uint16(0), log[2].Index)
	assert.Len(t, log[2].Data, 1)
}

func TestClientTransportErrors(t *testing.T) {
	sim, c, _ := newSimClient(t)
	ctx := context.Background()
	d, _ := DefaultRegistry().Lookup("RT60")

	boom := errors.New("libusb: timeout")
	sim.FailNext(boom)
	_, err := c.Read(ctx, d)
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "read", te.Op)
	assert.Equal(t, uint16(18), te.Module)
	assert.ErrorIs(t, err, boom)

	sim.ShortNext()
	_, err = c.Read(ctx, d)
	assert.ErrorIs(t, err, domain.ErrShortTransfer)

	freeze, err := DefaultRegistry().Lookup("AECFREEZEONOFF")
	require.NoError(t, err)
	payload, err := EncodeWrite(freeze, 1)
	require.NoError(t, err)

	sim.ShortNext()
	err = c.Write(ctx, freeze.Module, payload)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "write", te.Op)
	assert.ErrorIs(t, err, domain.ErrShortTransfer)

	// The next transfer is whole again.
	require.NoError(t, c.Write(ctx, freeze.Module, payload))
}

func TestSimulatorShortFlagDoesNotOutliveFailedTransfer(t *testing.T) {
	sim, c, _ := newSimClient(t)
	ctx := context.Background()

	sim.ShortNext()
	err := c.Write(ctx, ModuleAEC, make([]byte, 12)) // no register at offset 0
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrShortTransfer)

	d, err := DefaultRegistry().Lookup("RT60")
	require.NoError(t, err)
	_, err = c.Read(ctx, d)
	assert.NoError(t, err)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	sim, c, releases := newSimClient(t)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, *releases)

	_, err := c.FirmwareVersion(context.Background())
	assert.ErrorIs(t, err, domain.ErrClosed)
	assert.Empty(t, sim.Transfers())
}

func TestClientHonoursCancelledContext(t *testing.T) {
	sim, c, _ := newSimClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Write(ctx, 19, make([]byte, 12))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sim.Transfers())
}
