package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"twaggregate/internal/allocation"
	"twaggregate/internal/app"
	"twaggregate/internal/config"
	"twaggregate/internal/report"
)

var (
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

var rootCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Timewarrior report of time spent against allocated work groups",
	Long: `aggregate is a Timewarrior extension. Run it as 'timew aggregate :day' or
'timew aggregate :week'.

Work groups are read from <config-dir>/allocation/<year>/<month>/<day>.json for a
day, or week-of-<day>.json for a week, keyed by the first day of the range. Each
file is a JSON array of {"tags": [...], "allocation": <hours>}. An interval counts
towards the first group, in file order, whose tags it carries.

Environment:
  SKIP_ALLOCATED     show only the spent column
  AGGREGATE_SAMPLE   use a sample allocation when the file is missing
  AGGREGATE_FORMAT   text (default), table or json
  TIMEWARRIORDB      config dir becomes $TIMEWARRIORDB/aggregate`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			level.SetLevel(zapcore.DebugLevel)
		}
		zc := zap.NewProductionConfig()
		zc.Level = level
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if interactive(cmd.InOrStdin()) {
			return errors.New("standard input is a terminal; this program is a timewarrior extension, run it as 'timew aggregate'")
		}
		return withRunner(func(r app.Runner) error {
			return r.Run(cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.Bind(viper.GetViper())
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("config-dir", "", "aggregate config dir (default $TIMEWARRIORDB/aggregate or ~/.timewarrior/aggregate)")
	rootCmd.PersistentFlags().Bool("skip-allocated", false, "omit allocated and remaining columns")
	rootCmd.PersistentFlags().Bool("sample", false, "fall back to a sample allocation when the file is missing")
	rootCmd.PersistentFlags().String("format", "", "report format: text, table or json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging to stderr")
	for _, name := range []string{"config-dir", "skip-allocated", "sample", "format", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(sampleCmd())
	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(configCmd())
}

func sampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print a sample allocation file",
		Long:  "Print the sample allocation document. Redirect it to the path shown by 'aggregate path' and edit it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), allocation.SampleDocument)
			return err
		},
	}
}

func pathCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show the allocation file for a report range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r app.Runner) error {
				p, err := r.AllocationPath(start, end)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start, YYYYMMDDThhmmssZ")
	cmd.Flags().StringVar(&end, "end", "", "range end, YYYYMMDDThhmmssZ")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func checkCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the allocation file for a report range",
		Long:  "Load the allocation file that governs the range and list its work groups in match order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r app.Runner) error {
				path, groups, err := r.CheckAllocation(start, end)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s OK\n", path)
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"#", "Tags", "Allocated"})
				for i, g := range groups {
					tw.AppendRow(table.Row{i + 1, g.Tags.Label(), report.FormatDuration(g.Allocated)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start, YYYYMMDDThhmmssZ")
	cmd.Flags().StringVar(&end, "end", "", "range end, YYYYMMDDThhmmssZ")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect settings",
		Long:  "Settings come from <config-dir>/config.yml, then the environment, then flags.",
	}
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r app.Runner) error {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"config_dir":     r.Config.Dir,
					"settings_file":  config.Path(r.Config.Dir),
					"skip_allocated": r.Config.SkipAllocated,
					"sample":         r.Config.Sample,
					"format":         r.Config.Format,
				})
			})
		},
	}
}

// --- helpers ---

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// interactive reports whether r is a terminal, i.e. the binary was started
// by hand rather than by timewarrior.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func withRunner(fn func(app.Runner) error) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	r := app.New(cfg, logger)
	r.Level = &level
	return fn(r)
}
