package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/voiceteleop/internal/monitor"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker"
)

var (
	watchInterval time.Duration
	watchAll      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print voice activity and direction of arrival as they change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchInterval <= 0 {
			return fmt.Errorf("--interval must be positive, got %s", watchInterval)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withTuning(ctx, func(ctx context.Context, t *respeaker.Tuning) error {
			gate := respeaker.NewGate(t)
			opts := []monitor.Option{monitor.WithInterval(watchInterval)}
			if watchAll {
				opts = append(opts, monitor.WithEveryReading())
			}
			out := cmd.OutOrStdout()
			m := monitor.New(monitor.Sources{Voice: gate.IsVoice, Angle: t.Direction}, func(r monitor.Reading) {
				fmt.Fprintln(out, formatReading(r))
			}, log.Named("monitor"), opts...)
			if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 100*time.Millisecond, "sampling interval")
	watchCmd.Flags().BoolVar(&watchAll, "all", false, "print every reading, not only changes")
	rootCmd.AddCommand(watchCmd)
}

func formatReading(r monitor.Reading) string {
	voice := "silence"
	if r.Voice {
		voice = "VOICE"
	}
	return fmt.Sprintf("%s  %-7s  %3d°", r.At.Format("15:04:05.000"), voice, r.Direction)
}
