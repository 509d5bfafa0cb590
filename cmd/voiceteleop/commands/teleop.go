package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/voiceteleop/internal/asr"
	"github.com/hammamikhairi/voiceteleop/internal/audio"
	"github.com/hammamikhairi/voiceteleop/internal/command"
	"github.com/hammamikhairi/voiceteleop/internal/config"
	"github.com/hammamikhairi/voiceteleop/internal/display"
	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker"
	"github.com/hammamikhairi/voiceteleop/internal/robot"
	"github.com/hammamikhairi/voiceteleop/internal/storage"
	"github.com/hammamikhairi/voiceteleop/internal/teleop"
)

var teleopCmd = &cobra.Command{
	Use:   "teleop",
	Short: "Drive the robot by voice",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTeleop(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(teleopCmd)
}

func runTeleop(parent context.Context) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := display.NewConsole(os.Stdout, log.Named("console"))
	console.Println(display.RenderBanner())

	// Everything opened before the loop takes ownership is closed here on
	// the error paths.
	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	tuning, err := openTuning(cfg)
	if err != nil {
		return err
	}
	owned := false
	defer func() {
		if !owned {
			_ = tuning.Close()
		}
		cleanup()
	}()

	if err := tuning.ApplyPreset(ctx, cfg.Tuning); err != nil {
		return fmt.Errorf("applying tuning preset: %w", err)
	}
	gate := respeaker.NewGate(tuning)
	if cfg.VADThresholdDB != nil {
		if err := gate.SetDetectionThreshold(ctx, *cfg.VADThresholdDB); err != nil {
			return fmt.Errorf("setting VAD threshold: %w", err)
		}
	}

	capCfg := audio.CaptureConfig{
		DeviceName:  cfg.Audio.DeviceName,
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		Channel:     cfg.Audio.Channel,
		ChunkFrames: cfg.Audio.ChunkFrames,
	}
	if cfg.Device.Simulate {
		capCfg.DeviceName = ""
		capCfg.Channels, capCfg.Channel = 1, 0
	}
	source, err := audio.NewCapture(capCfg, log.Named("capture"))
	if err != nil {
		return fmt.Errorf("opening audio input: %w", err)
	}
	closers = append(closers, source)

	recognizer, err := newRecognizer(cfg)
	if err != nil {
		return err
	}
	if c, ok := recognizer.(io.Closer); ok {
		closers = append(closers, c)
	}

	bot, err := newRobot(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := bot.(io.Closer); ok {
		closers = append(closers, c)
	}

	mode, err := command.ParseMatchMode(cfg.Command.MatchMode)
	if err != nil {
		return err
	}
	matcher := command.NewRecognizer(mode, log.Named("command"))
	dispatcher := command.NewDispatcher(bot, cfg.Command.Magnitudes(), log.Named("dispatch"))
	journal := storage.NewMemoryStore(storage.DefaultCapacity, log.Named("journal"))

	loopCfg := teleop.Config{
		PollInterval:   cfg.Loop.PollInterval,
		RecordDuration: cfg.Loop.RecordDuration,
		SettleDelay:    cfg.Loop.SettleDelay,
		Cooldown:       cfg.Loop.Cooldown,
		StopTimeout:    cfg.Robot.Timeout,
		SampleRate:     cfg.Audio.SampleRate,
		ChunkFrames:    cfg.Audio.ChunkFrames,
		MaxPollErrors:  cfg.Loop.MaxPollErrors,
		FlushOnNoMatch: cfg.Loop.FlushOnNoMatch,
		Menu:           display.RenderMenu(command.Phrases()),
	}

	opts := []teleop.Option{
		teleop.WithNotifier(console),
		teleop.WithJournal(journal),
	}
	if cfg.Archive.Dir != "" {
		opts = append(opts, teleop.WithArchive(
			audio.NewArchive(afero.NewOsFs(), cfg.Archive.Dir, cfg.Audio.SampleRate, log.Named("archive"))))
	}
	if cfg.Archive.Replay {
		player, err := audio.NewPlayer(cfg.Audio.SampleRate, log.Named("player"))
		if err != nil {
			log.Warn("replay disabled: %v", err)
		} else {
			opts = append(opts, teleop.WithReplay(player))
		}
	}

	loop := teleop.New(teleop.Deps{
		Gate:       gate,
		Transport:  tuning,
		Source:     source,
		ASR:        recognizer,
		Matcher:    matcher,
		Dispatcher: dispatcher,
		Robot:      bot,
	}, loopCfg, log.Named("teleop"), opts...)
	owned = true

	if cfg.Device.Simulate {
		console.PrintHint("simulated array: press Enter to trigger voice activity")
	}
	runErr := loop.Run(ctx)

	printSummary(console, journal.Summarize(context.Background()))
	return runErr
}

func newRecognizer(cfg *config.Config) (domain.Recognizer, error) {
	switch cfg.ASR.Engine {
	case config.EngineWhisperCLI:
		return asr.NewCLI(asr.CLIConfig{
			Binary:     cfg.ASR.Binary,
			Model:      cfg.ASR.Model,
			Language:   cfg.ASR.Language,
			TempDir:    cfg.ASR.TempDir,
			SampleRate: cfg.Audio.SampleRate,
		}, log.Named("asr")), nil
	default:
		w, err := asr.NewWhisper(cfg.ASR.Model, cfg.ASR.Language, log.Named("asr"))
		if err != nil {
			return nil, fmt.Errorf("loading whisper model %s: %w", cfg.ASR.Model, err)
		}
		return w, nil
	}
}

func newRobot(ctx context.Context, cfg *config.Config) (domain.Robot, error) {
	switch cfg.Robot.Driver {
	case config.DriverDryRun:
		return robot.NewDryRun(log.Named("robot")), nil
	default:
		b := robot.NewBridge(cfg.Robot.URL, cfg.Robot.Timeout, log.Named("robot"))
		if err := b.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connecting to robot at %s: %w", cfg.Robot.URL, err)
		}
		return b, nil
	}
}

func printSummary(console *display.Console, sum storage.Summary) {
	if sum.Cycles == 0 {
		return
	}
	console.Printf("\n%d commands heard: %d understood, %d not understood, %d failed\n",
		sum.Cycles, sum.Matched, sum.Unmatched, sum.Failed)

	cmds := make([]domain.Command, 0, len(sum.ByCommand))
	for c := range sum.ByCommand {
		cmds = append(cmds, c)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i] < cmds[j] })
	for _, c := range cmds {
		console.PrintHint(fmt.Sprintf("  %-16s %d", c, sum.ByCommand[c]))
	}
}
