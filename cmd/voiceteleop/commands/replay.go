package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/voiceteleop/internal/audio"
)

var replayCmd = &cobra.Command{
	Use:   "replay [NAME]",
	Short: "Play back an archived recording, or list them",
	Long: `Play back a recording saved by teleop when archive.dir is set.

NAME is a cycle id from the archive directory or a path to a WAV file.
Without NAME the archived recordings are listed, oldest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		dir := cfg.Archive.Dir
		if dir == "" {
			dir = "."
		}
		archive := audio.NewArchive(afero.NewOsFs(), dir, cfg.Audio.SampleRate, log.Named("archive"))

		if len(args) == 0 {
			names, err := archive.List()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		}

		pcm, rate, err := archive.Load(args[0])
		if err != nil {
			return err
		}
		player, err := audio.NewPlayer(rate, log.Named("player"))
		if err != nil {
			return fmt.Errorf("opening audio output: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := player.PlayPCM(ctx, pcm); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
