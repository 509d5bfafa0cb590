package commands

import (
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/voiceteleop/internal/config"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker"
)

// DefaultLogFile is where logs go unless --log-file says otherwise.
const DefaultLogFile = ".voiceteleop/logs/voiceteleop.log"

var (
	// Global flags
	configPath string
	simulate   bool
	verbose    bool
	quiet      bool
	logFile    string

	// Set up by PersistentPreRunE.
	globalConfig *config.Config
	log          *logger.Logger
	logCloser    io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "voiceteleop",
	Short: "Voice teleoperation through a ReSpeaker mic array",
	Long: `voiceteleop - drive a mobile manipulator with short spoken commands.

The ReSpeaker 4-mic array gates recording on its voice activity flag.
Each utterance is transcribed, matched against a fixed phrase set and
turned into one incremental robot motion.

Without a subcommand it runs teleop. The array tuning registers can be
listed, read and written with params, get and set.

Examples:
  # Drive the robot
  voiceteleop teleop

  # Try it without the array or the robot
  voiceteleop --simulate teleop

  # Inspect and change the VAD threshold
  voiceteleop get GAMMAVAD_SR
  voiceteleop set GAMMAVAD_SR 3.5`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTeleop(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	defer closeLog()
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", config.DefaultPath, "YAML config file")
	pf.BoolVar(&simulate, "simulate", false, "use an in-process array simulator instead of USB")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "disable all logging")
	pf.StringVar(&logFile, "log-file", DefaultLogFile, `file to write logs to (use "stderr" to log to console)`)
}

// setup loads the config and opens the log before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	log = logger.New(logger.ParseLevel(verbose, quiet), openLog(logFile))

	required := cmd.Flags().Changed("config")
	cfg, err := config.Load(configPath, required)
	if err != nil {
		return err
	}
	if simulate {
		cfg.Device.Simulate = true
	}
	reg := respeaker.DefaultRegistry()
	if err := cfg.Validate(func(name string) error {
		_, err := reg.Lookup(name)
		return err
	}); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	globalConfig = cfg
	log.Debug("config loaded from %s (simulate=%v)", configPath, cfg.Device.Simulate)
	return nil
}

// openLog directs logs to a file by default so the console stays clean.
// Go's default logger follows, since cgo bindings write to it.
func openLog(path string) io.Writer {
	var out io.Writer = os.Stderr
	if path != "" && path != "stderr" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		} else {
			out = f
			logCloser = f
		}
	}
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)
	return out
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

// getConfig returns the loaded configuration.
func getConfig() (*config.Config, error) {
	if globalConfig == nil {
		return nil, errors.New("config not loaded")
	}
	return globalConfig, nil
}
