package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/voiceteleop/internal/config"
	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
	"github.com/hammamikhairi/voiceteleop/internal/monitor"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker/usbdev"
)

func simulatedTuning(t *testing.T) (*respeaker.Tuning, *respeaker.Simulator) {
	t.Helper()
	quiet := logger.New(logger.LevelOff, nil)
	reg := respeaker.DefaultRegistry()
	sim := respeaker.NewSimulator(reg)
	return respeaker.NewTuning(respeaker.NewClient(sim, nil, quiet), reg, quiet), sim
}

func TestLineTriggerFiresOncePerLine(t *testing.T) {
	trig := newLineTrigger(strings.NewReader("\n\n"))

	require.Eventually(t, func() bool { return trig.pending.Load() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 1.0, trig.value())
	assert.Equal(t, 1.0, trig.value())
	assert.Equal(t, 0.0, trig.value())
}

func TestSimulatedArrayVoiceFollowsInput(t *testing.T) {
	quiet := logger.New(logger.LevelOff, nil)
	reg := respeaker.DefaultRegistry()
	sim, err := newSimulatedArray(reg, strings.NewReader("go\n"))
	require.NoError(t, err)
	gate := respeaker.NewGate(respeaker.NewTuning(respeaker.NewClient(sim, nil, quiet), reg, quiet))
	ctx := context.Background()

	require.Eventually(t, func() bool {
		v, err := gate.IsVoice(ctx)
		return err == nil && v
	}, time.Second, time.Millisecond)

	v, err := gate.IsVoice(ctx)
	require.NoError(t, err)
	assert.False(t, v, "one line raises the flag once")
}

func TestParamRowsCoverRegistry(t *testing.T) {
	tuning, sim := simulatedTuning(t)
	require.NoError(t, sim.Set(respeaker.ParamVADThreshold, 3.5))

	rows := paramRows(context.Background(), tuning)
	require.Len(t, rows, tuning.Registry().Len())

	var found bool
	for _, r := range rows {
		if r.Name == respeaker.ParamVADThreshold {
			found = true
			assert.Equal(t, "3.5", r.Value)
			assert.Equal(t, "rw", r.Access)
		}
	}
	assert.True(t, found)
}

func TestParamRowsShowReadErrors(t *testing.T) {
	tuning, sim := simulatedTuning(t)
	sim.FailNext(assert.AnError)

	rows := paramRows(context.Background(), tuning)
	assert.True(t, strings.HasPrefix(rows[0].Value, "error: "), rows[0].Value)
	assert.False(t, strings.HasPrefix(rows[1].Value, "error: "), rows[1].Value)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0", formatValue(0))
	assert.Equal(t, "3.5", formatValue(3.5))
	assert.Equal(t, "-1e-06", formatValue(-0.000001))
}

func TestFormatReading(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 30, 5, 250*int(time.Millisecond), time.UTC)
	assert.Equal(t, "12:30:05.250  VOICE     90°", formatReading(monitor.Reading{At: at, Voice: true, Direction: 90}))
	assert.Equal(t, "12:30:05.250  silence    0°", formatReading(monitor.Reading{At: at, Direction: 0}))
}

func TestSetThenGetThroughSimulator(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	rootCmd.SetArgs([]string{"--simulate", "--quiet", "--log-file", "stderr", "set", respeaker.ParamVADThreshold, "3.5"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "GAMMAVAD_SR: 3.5\n", out.String())
}

func TestSetRejectsBadValue(t *testing.T) {
	rootCmd.SetArgs([]string{"--simulate", "--quiet", "--log-file", "stderr", "set", respeaker.ParamVADThreshold, "loud"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid value")
}

func TestSetRejectsNonFiniteValue(t *testing.T) {
	rootCmd.SetArgs([]string{"--simulate", "--quiet", "--log-file", "stderr", "set", respeaker.ParamVADThreshold, "NaN"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finite")
}

// absentBus is a USB bus with nothing plugged in.
type absentBus struct{ finds int }

func (b *absentBus) Find(uint16, uint16, time.Duration) (respeaker.ControlDevice, func() error, error) {
	b.finds++
	return nil, nil, nil
}

// useGlobals swaps the command globals for the duration of a test.
func useGlobals(t *testing.T, cfg *config.Config, finder usbdev.Finder) {
	t.Helper()
	prevCfg, prevLog, prevFinder := globalConfig, log, usbFinder
	globalConfig, log, usbFinder = cfg, logger.New(logger.LevelOff, nil), finder
	t.Cleanup(func() { globalConfig, log, usbFinder = prevCfg, prevLog, prevFinder })
}

func TestTeleopFailsCleanlyWithoutArray(t *testing.T) {
	bus := &absentBus{}
	useGlobals(t, config.Default(), bus)

	err := runTeleop(context.Background())
	require.ErrorIs(t, err, domain.ErrDeviceNotFound)
	assert.Contains(t, err.Error(), "--simulate")
	assert.Equal(t, 1, bus.finds)
}

func TestParamsWithoutArray(t *testing.T) {
	bus := &absentBus{}
	useGlobals(t, config.Default(), bus)

	err := withTuning(context.Background(), func(context.Context, *respeaker.Tuning) error {
		t.Fatal("no tuning should be handed out")
		return nil
	})
	require.ErrorIs(t, err, domain.ErrDeviceNotFound)
}

func TestGetUnknownParameter(t *testing.T) {
	rootCmd.SetArgs([]string{"--simulate", "--quiet", "--log-file", "stderr", "get", "NOPE"})
	require.Error(t, rootCmd.Execute())
}
