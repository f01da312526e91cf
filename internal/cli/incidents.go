package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/incident"
)

// IncidentsOptions holds flags for the incidents command.
type IncidentsOptions struct {
	*RootOptions
	Database string
	Stage    string
	Status   string
}

// NewIncidentsCommand creates the incidents command.
func NewIncidentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IncidentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "List the append-only incident log",
		Long: `List logged incidents in deterministic (seq, id) order, optionally
filtered by stage or status.

Example:
  pipeline-agent incidents --db ./incidents.db
  pipeline-agent incidents --db ./incidents.db --status failed --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIncidents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the incident log database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Stage, "stage", "", "filter by stage")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (success|failed|healed)")

	return cmd
}

func runIncidents(opts *IncidentsOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := incident.Open(opts.Database)
	if err != nil {
		out.Error("LOG_OPEN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open incident log", err)
	}
	defer st.Close()

	all, err := st.List(cmd.Context())
	if err != nil {
		out.Error("LOG_READ", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read incident log", err)
	}

	var filtered []incident.Incident
	for _, inc := range all {
		if opts.Stage != "" && inc.Stage != opts.Stage {
			continue
		}
		if opts.Status != "" && string(inc.Status) != opts.Status {
			continue
		}
		filtered = append(filtered, inc)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"count":     len(filtered),
			"incidents": filtered,
		})
	}

	if len(filtered) == 0 {
		fmt.Fprintln(out.Writer, "No incidents logged.")
		return nil
	}

	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSTAGE\tSTATUS\tROWS\tVIOLATIONS\tADJUSTMENTS\tCREATED")
	for _, inc := range filtered {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			inc.Seq, inc.Stage, inc.Status, inc.RowCount,
			len(inc.Violations), len(inc.Adjustments),
			inc.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}
