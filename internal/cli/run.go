package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/agent"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Stage string

	// Clock and RunIDs allow overriding the agent's time source and run id
	// generator (for testing). Nil uses the defaults.
	Clock  agent.Clock
	RunIDs agent.RunIDGenerator
}

// RunReport is the run command's output payload.
type RunReport struct {
	FinalPass   bool     `json:"final_pass"`
	Healed      bool     `json:"healed"`
	Attempts    int      `json:"attempts"`
	Adjustments int      `json:"adjustments"`
	RunIDs      []string `json:"run_ids"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config.yml>",
		Short: "Run the pipeline once, healing and rerunning on failure",
		Long: `Run the validation pipeline against a config file.

The source dataset is loaded and profiled, the profiles are evaluated
against the configured rules, and on failure the failing thresholds are
widened, the config is rewritten in place, and the pipeline reruns exactly
once. Every attempt appends a record to the incident log.

Exit codes:
  0  final attempt passed (directly or after healing)
  1  final attempt still failing
  2  command error (unreadable source, config or log write failure)

Example:
  pipeline-agent run ./pipeline/config.yml
  pipeline-agent run ./pipeline/config.yml --stage nightly --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Stage, "stage", "run", "stage label recorded on incidents")

	return cmd
}

func runPipeline(opts *RunOptions, cfgPath string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		out.Error(configErrorCode(err), err.Error(), nil)
		return WrapExitError(exitCodeForConfigError(err), "failed to load config", err)
	}

	st, err := openIncidents(cfg, cfgPath)
	if err != nil {
		out.Error("LOG_OPEN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open incident log", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing incident log", "error", closeErr)
		}
	}()

	a := agent.New(st, opts.Clock, opts.RunIDs)
	outcome, err := a.Run(cmd.Context(), cfgPath, opts.Stage, "Pipeline run")
	if err != nil {
		out.Error("RUN_FAILED", err.Error(), nil)
		return WrapExitError(ExitCommandError, "pipeline run failed", err)
	}

	report := RunReport{
		FinalPass:   outcome.FinalPass,
		Healed:      outcome.Healed,
		Attempts:    len(outcome.Incidents),
		Adjustments: len(outcome.Adjustments),
	}
	for _, inc := range outcome.Incidents {
		report.RunIDs = append(report.RunIDs, inc.ID)
	}

	if opts.Format == "json" {
		if err := out.Success(report); err != nil {
			return err
		}
	} else {
		writeRunReport(out, outcome, report)
	}

	if !outcome.FinalPass {
		return NewExitError(ExitFailure, "pipeline still failing after healing")
	}
	return nil
}

func writeRunReport(out *OutputFormatter, outcome *agent.Outcome, report RunReport) {
	switch {
	case report.Healed:
		fmt.Fprintf(out.Writer, "✓ Healed: pipeline passed after %d adjustment(s)\n", report.Adjustments)
	case report.FinalPass:
		fmt.Fprintln(out.Writer, "✓ Pipeline passed")
	default:
		fmt.Fprintln(out.Writer, "✗ Pipeline failed")
	}
	for _, inc := range outcome.Incidents {
		fmt.Fprintf(out.Writer, "  %s  stage=%s status=%s violations=%d\n",
			inc.ID, inc.Stage, inc.Status, len(inc.Violations))
	}
	for _, adj := range outcome.Adjustments {
		fmt.Fprintf(out.Writer, "  adjusted: %s\n", adj.Message)
	}
}

func configErrorCode(err error) string {
	switch {
	case config.IsConfigError(err, config.ErrCodeSchema):
		return config.ErrCodeSchema
	case config.IsConfigError(err, config.ErrCodeWrite):
		return config.ErrCodeWrite
	default:
		return config.ErrCodeParse
	}
}

// exitCodeForConfigError maps config failures to exit codes: malformed input
// is a validation failure (1); write failures are command errors (2).
func exitCodeForConfigError(err error) int {
	if config.IsConfigError(err, config.ErrCodeWrite) {
		return ExitCommandError
	}
	return ExitFailure
}
