package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/dataset"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/profile"
)

// ProfileOptions holds flags for the profile command.
type ProfileOptions struct {
	*RootOptions
	Source string
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "profile <config.yml>",
		Short: "Print column profiles for the configured source",
		Long: `Load the configured source dataset and print per-column statistics:
null fraction, type-error fraction, distinct count, and mean/stddev for
numeric columns. No rules are evaluated and nothing is written.

Example:
  pipeline-agent profile ./pipeline/config.yml
  pipeline-agent profile ./pipeline/config.yml --source other.csv --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "profile this CSV instead of the configured source")

	return cmd
}

func runProfile(opts *ProfileOptions, cfgPath string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		out.Error(configErrorCode(err), err.Error(), nil)
		return WrapExitError(exitCodeForConfigError(err), "failed to load config", err)
	}

	execCfg := config.ResolvePaths(cfg, filepath.Dir(cfgPath))
	source := execCfg.SourcePath
	if opts.Source != "" {
		source = opts.Source
	}

	ds, err := dataset.ReadCSV(source, cfg.Columns)
	if err != nil {
		out.Error("SOURCE_READ", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read source", err)
	}

	profiles := profile.Build(ds)

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"source":          source,
			"row_count":       ds.RowCount(),
			"missing_columns": ds.Missing,
			"profiles":        profiles,
		})
	}

	fmt.Fprintf(out.Writer, "Source: %s (%d rows)\n", source, ds.RowCount())
	if len(ds.Missing) > 0 {
		fmt.Fprintf(out.Writer, "Missing columns: %v\n", ds.Missing)
	}
	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tNULL%\tTYPE_ERR%\tDISTINCT\tMEAN\tSTDDEV")
	for _, p := range profiles {
		mean, stddev := "-", "-"
		if p.Numeric && p.SampleCount > 0 {
			mean = fmt.Sprintf("%.2f", p.Mean)
			stddev = fmt.Sprintf("%.2f", p.Stddev)
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%d\t%s\t%s\n",
			p.Column, p.NullFraction*100, p.TypeErrorFraction*100, p.DistinctCount, mean, stddev)
	}
	return tw.Flush()
}
