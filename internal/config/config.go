// Package config loads voiceteleop settings from defaults, a YAML file
// and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/voiceteleop/internal/command"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "voiceteleop.yaml"

// Env var names.
const (
	EnvRobotURL     = "VOICETELEOP_ROBOT_URL"
	EnvWhisperModel = "VOICETELEOP_WHISPER_MODEL"
)

// Recognised engine and driver names.
const (
	EngineWhisper    = "whisper"
	EngineWhisperCLI = "whisper-cli"
	DriverBridge     = "bridge"
	DriverDryRun     = "dry-run"
)

// Config is every setting of the tool. It is built once at startup and
// handed to each component.
type Config struct {
	Device         DeviceConfig       `yaml:"device"`
	Audio          AudioConfig        `yaml:"audio"`
	Loop           LoopConfig         `yaml:"loop"`
	Command        CommandConfig      `yaml:"command"`
	ASR            ASRConfig          `yaml:"asr"`
	Robot          RobotConfig        `yaml:"robot"`
	VADThresholdDB *float64           `yaml:"vad_threshold_db"`
	Tuning         map[string]float64 `yaml:"tuning"`
	Archive        ArchiveConfig      `yaml:"archive"`
}

// DeviceConfig identifies the mic array on USB.
type DeviceConfig struct {
	VendorID          uint16 `yaml:"vendor_id"`
	ProductID         uint16 `yaml:"product_id"`
	TransferTimeoutMS int    `yaml:"transfer_timeout_ms"`
	Simulate          bool   `yaml:"simulate"`
}

// TransferTimeout is the per-control-transfer timeout.
func (d DeviceConfig) TransferTimeout() time.Duration {
	return time.Duration(d.TransferTimeoutMS) * time.Millisecond
}

// AudioConfig describes the capture stream.
type AudioConfig struct {
	DeviceName  string `yaml:"device_name"`
	SampleRate  int    `yaml:"sample_rate"`
	Channels    int    `yaml:"channels"`
	Channel     int    `yaml:"channel"`
	ChunkFrames int    `yaml:"chunk_frames"`
}

// LoopConfig holds the teleop loop timings.
type LoopConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	RecordDuration time.Duration `yaml:"record_duration"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	Cooldown       time.Duration `yaml:"cooldown"`
	MaxPollErrors  int           `yaml:"max_poll_errors"`
	FlushOnNoMatch bool          `yaml:"flush_on_no_match"`
}

// CommandConfig sets matching and step sizes.
type CommandConfig struct {
	MatchMode      string  `yaml:"match_mode"`
	BaseTranslateM float64 `yaml:"base_translate_m"`
	BaseRotateDeg  float64 `yaml:"base_rotate_deg"`
	LiftM          float64 `yaml:"lift_m"`
	ArmM           float64 `yaml:"arm_m"`
}

// Magnitudes converts the step sizes for the dispatcher.
func (c CommandConfig) Magnitudes() command.Magnitudes {
	return command.Magnitudes{
		BaseTranslateM: c.BaseTranslateM,
		BaseRotateDeg:  c.BaseRotateDeg,
		LiftM:          c.LiftM,
		ArmM:           c.ArmM,
	}
}

// ASRConfig selects the speech recogniser.
type ASRConfig struct {
	Engine   string `yaml:"engine"`
	Model    string `yaml:"model"`
	Binary   string `yaml:"binary"`
	Language string `yaml:"language"`
	TempDir  string `yaml:"temp_dir"`
}

// RobotConfig selects the robot driver.
type RobotConfig struct {
	Driver  string        `yaml:"driver"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ArchiveConfig controls saving and replaying recordings.
type ArchiveConfig struct {
	Dir    string `yaml:"dir"`
	Replay bool   `yaml:"replay"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			VendorID:          0x2886,
			ProductID:         0x0018,
			TransferTimeoutMS: 100000,
		},
		Audio: AudioConfig{
			DeviceName:  "ReSpeaker",
			SampleRate:  16000,
			Channels:    6,
			Channel:     0,
			ChunkFrames: 1024,
		},
		Loop: LoopConfig{
			PollInterval:   10 * time.Millisecond,
			RecordDuration: 2 * time.Second,
			SettleDelay:    time.Second,
			Cooldown:       time.Second,
			MaxPollErrors:  50,
			FlushOnNoMatch: true,
		},
		Command: CommandConfig{
			MatchMode:      "permissive",
			BaseTranslateM: 0.01,
			BaseRotateDeg:  1.0,
			LiftM:          0.01,
			ArmM:           0.01,
		},
		ASR: ASRConfig{
			Engine:   EngineWhisper,
			Model:    "models/ggml-base.en.bin",
			Binary:   "whisper-cli",
			Language: "en",
			TempDir:  ".voiceteleop/stt",
		},
		Robot: RobotConfig{
			Driver:  DriverBridge,
			URL:     "ws://localhost:8765/robot",
			Timeout: 5 * time.Second,
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path, then
// the .env file and environment. A missing file is only an error when
// required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvRobotURL)); v != "" {
		c.Robot.URL = v
	}
	if v := strings.TrimSpace(getenv(EnvWhisperModel)); v != "" {
		c.ASR.Model = v
	}
}

// Validate checks every setting. lookup reports whether a tuning
// parameter name exists.
func (c *Config) Validate(lookup func(name string) error) error {
	var errs []error
	bad := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf(format, a...))
	}

	if c.Device.TransferTimeoutMS <= 0 {
		bad("device.transfer_timeout_ms must be positive, got %d", c.Device.TransferTimeoutMS)
	}

	if c.Audio.SampleRate <= 0 {
		bad("audio.sample_rate must be positive")
	}
	if c.Audio.ChunkFrames <= 0 {
		bad("audio.chunk_frames must be positive")
	}
	if c.Audio.Channel < 0 || c.Audio.Channel >= c.Audio.Channels {
		bad("audio.channel %d out of range for %d channels", c.Audio.Channel, c.Audio.Channels)
	}

	for name, d := range map[string]time.Duration{
		"loop.poll_interval":   c.Loop.PollInterval,
		"loop.record_duration": c.Loop.RecordDuration,
		"robot.timeout":        c.Robot.Timeout,
	} {
		if d <= 0 {
			bad("%s must be positive, got %s", name, d)
		}
	}
	if c.Loop.SettleDelay < 0 || c.Loop.Cooldown < 0 {
		bad("loop.settle_delay and loop.cooldown must not be negative")
	}
	if c.Loop.MaxPollErrors < 0 {
		bad("loop.max_poll_errors must not be negative")
	}

	if _, err := command.ParseMatchMode(c.Command.MatchMode); err != nil {
		bad("command.match_mode: %v", err)
	}

	switch c.ASR.Engine {
	case EngineWhisper, EngineWhisperCLI:
	default:
		bad("asr.engine: unknown engine %q", c.ASR.Engine)
	}

	switch c.Robot.Driver {
	case DriverBridge:
		if c.Robot.URL == "" {
			bad("robot.url is required for the bridge driver")
		}
	case DriverDryRun:
	default:
		bad("robot.driver: unknown driver %q", c.Robot.Driver)
	}

	if lookup != nil {
		names := make([]string, 0, len(c.Tuning))
		for n := range c.Tuning {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			if err := lookup(n); err != nil {
				bad("tuning: %w", err)
			}
		}
	}

	return errors.Join(errs...)
}
