package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/voiceteleop/internal/display"
	"github.com/hammamikhairi/voiceteleop/internal/respeaker"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List every tuning register with its current value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTuning(cmd.Context(), func(ctx context.Context, t *respeaker.Tuning) error {
			fmt.Fprintln(cmd.OutOrStdout(), display.RenderParamTable(paramRows(ctx, t)))
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Read one tuning register",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTuning(cmd.Context(), func(ctx context.Context, t *respeaker.Tuning) error {
			v, err := t.Read(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], formatValue(v))
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Write one tuning register",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		return withTuning(cmd.Context(), func(ctx context.Context, t *respeaker.Tuning) error {
			if err := t.Write(ctx, args[0], value); err != nil {
				return err
			}
			got, err := t.Read(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], formatValue(got))
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the array firmware version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTuning(cmd.Context(), func(ctx context.Context, t *respeaker.Tuning) error {
			v, err := t.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "firmware version: %d\n", v)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd, getCmd, setCmd, versionCmd)
}

// withTuning opens the array for the duration of fn.
func withTuning(ctx context.Context, fn func(context.Context, *respeaker.Tuning) error) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	t, err := openTuning(cfg)
	if err != nil {
		return err
	}
	defer t.Close()
	return fn(ctx, t)
}

// paramRows reads every register. A register that cannot be read shows
// the error in place of its value.
func paramRows(ctx context.Context, t *respeaker.Tuning) []display.ParamRow {
	descs := t.Registry().All()
	rows := make([]display.ParamRow, 0, len(descs))
	for _, d := range descs {
		v, err := t.Read(ctx, d.Name)
		value := formatValue(v)
		if err != nil {
			value = "error: " + err.Error()
		}
		rows = append(rows, display.ParamRow{
			Name:   d.Name,
			Type:   d.Type.String(),
			Access: d.Access.String(),
			Min:    formatValue(d.Min),
			Max:    formatValue(d.Max),
			Value:  value,
			Info:   d.Info,
		})
	}
	return rows
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
