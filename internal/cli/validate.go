package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yml>",
		Short: "Validate a pipeline config without running anything",
		Long: `Parse and validate a pipeline config: strict YAML decode, then schema
validation (threshold bounds, known column types). Nothing is executed.

Example:
  pipeline-agent validate ./pipeline/config.yml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cfgPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		out.Error(configErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "config invalid", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"pipeline": cfg.Pipeline,
			"columns":  len(cfg.Columns),
		})
	}

	fmt.Fprintf(out.Writer, "✓ Config valid: pipeline %q, %d column rule(s)\n", cfg.Pipeline, len(cfg.Columns))
	return nil
}
