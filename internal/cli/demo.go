package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/agent"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions

	// Clock and RunIDs allow overriding the agent's time source and run id
	// generator (for testing). Nil uses the defaults.
	Clock  agent.Clock
	RunIDs agent.RunIDGenerator
}

// DemoReport is the demo command's output payload.
type DemoReport struct {
	BaselinePass bool `json:"baseline_pass"`
	DriftedPass  bool `json:"drifted_pass"`
	Healed       bool `json:"healed"`
	Adjustments  int  `json:"adjustments"`
	Incidents    int  `json:"incidents"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo <demo-dir>",
		Short: "Run the scripted two-dataset self-healing scenario",
		Long: `Run the scripted demo against a directory containing:

  config.yml               pipeline config
  customers_v1.csv         clean baseline dataset
  customers_v2_broken.csv  drifted dataset with quality problems

The baseline dataset is validated first, then the config is switched to the
broken dataset; the resulting failure triggers healing and a single rerun.

The demo exits 0 whenever the scenario completes, even if the broken dataset
still fails after healing. Only config or incident-log write failures exit
non-zero.

Example:
  pipeline-agent demo ./demo
  pipeline-agent demo ./demo --format json --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, args[0], cmd)
		},
	}

	return cmd
}

func runDemo(opts *DemoOptions, dir string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfgPath := filepath.Join(dir, agent.DemoConfigFile)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		out.Error(configErrorCode(err), err.Error(), nil)
		return WrapExitError(exitCodeForConfigError(err), "failed to load demo config", err)
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
	res, err := a.Demo(cmd.Context(), dir)
	if err != nil {
		out.Error("DEMO_FAILED", err.Error(), nil)
		return WrapExitError(ExitCommandError, "demo failed", err)
	}

	report := DemoReport{
		BaselinePass: res.Baseline.FinalPass,
		DriftedPass:  res.Drifted.FinalPass,
		Healed:       res.Drifted.Healed,
		Adjustments:  len(res.Drifted.Adjustments),
		Incidents:    len(res.Baseline.Incidents) + len(res.Drifted.Incidents),
	}

	if opts.Format == "json" {
		return out.Success(report)
	}

	fmt.Fprintf(out.Writer, "Baseline run: %s\n", passLabel(report.BaselinePass))
	if report.Healed {
		fmt.Fprintf(out.Writer, "Drifted run:  healed after %d adjustment(s)\n", report.Adjustments)
	} else {
		fmt.Fprintf(out.Writer, "Drifted run:  %s\n", passLabel(report.DriftedPass))
	}
	fmt.Fprintf(out.Writer, "Incidents logged: %d\n", report.Incidents)
	return nil
}

func passLabel(pass bool) string {
	if pass {
		return "passed"
	}
	return "failed"
}
