package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/dataset"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/drift"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/heal"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/incident"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/profile"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/rules"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/warehouse"
)

// State of the pipeline run.
type State string

const (
	StateIdle       State = "idle"
	StateProfiling  State = "profiling"
	StateEvaluating State = "evaluating"
	StateHealing    State = "healing"
	StateRerunning  State = "rerunning"
	StateDone       State = "done"
)

// StageRerun is the stage recorded for the single post-heal attempt.
const StageRerun = "post_heal"

// Clock returns the current time for incident records. Override in tests for
// deterministic timestamps.
type Clock func() time.Time

// RunIDGenerator produces run ids. The default is UUIDv7, which sorts by
// creation time.
type RunIDGenerator func() string

func defaultRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Agent drives the validation-and-adjustment loop:
// profile -> evaluate -> (heal -> persist config -> rerun once) -> log.
type Agent struct {
	incidents *incident.Store
	now       Clock
	newRunID  RunIDGenerator
}

// New creates an Agent logging to the given incident store. Pass nil for
// clock or ids to use the defaults (wall clock, UUIDv7).
func New(incidents *incident.Store, clock Clock, ids RunIDGenerator) *Agent {
	if clock == nil {
		clock = time.Now
	}
	if ids == nil {
		ids = defaultRunID
	}
	return &Agent{incidents: incidents, now: clock, newRunID: ids}
}

// Outcome summarizes one full pipeline run, including the rerun if healing
// was attempted.
type Outcome struct {
	// StatePath records the state transitions the run took, ending in done.
	StatePath []State

	// Incidents holds the records appended for this run, in append order.
	Incidents []incident.Incident

	// Adjustments applied by healing, empty when the first attempt passed.
	Adjustments []heal.Adjustment

	// Healed is true when the rerun passed after adjustments.
	Healed bool

	// FinalPass reports whether the last attempt passed all rules.
	FinalPass bool
}

// attempt is the result of one pass through profiling and evaluation.
type attempt struct {
	Profiles []profile.ColumnProfile
	Result   rules.Result
	Drift    *drift.Report
}

// Run executes the pipeline against the config at cfgPath.
//
// First attempt failing on rule violations triggers healing: the config is
// widened, persisted back to cfgPath, and the pipeline reruns exactly once.
// The rerun is terminal whatever its outcome - there is no second healing
// pass. Each attempt appends one incident; the failed first attempt is
// logged as its own record (pinned design decision, see incident package).
//
// Non-recoverable failures (unreadable source, config write, log write)
// return an error without a rerun.
func (a *Agent) Run(ctx context.Context, cfgPath, stage, description string) (*Outcome, error) {
	out := &Outcome{StatePath: []State{StateIdle}}
	baseDir := filepath.Dir(cfgPath)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return out, err
	}
	execCfg := config.ResolvePaths(cfg, baseDir)

	// ----- Attempt 1 -----
	out.step(StateProfiling)
	att, err := a.runAttempt(ctx, execCfg)
	if err != nil {
		a.logAttemptError(ctx, cfg, stage, description, err)
		return out, err
	}
	out.step(StateEvaluating)

	if att.Result.Pass {
		inc, err := a.appendIncident(ctx, cfg, stage, description, incident.StatusSuccess, att, nil)
		if err != nil {
			return out, err
		}
		out.Incidents = append(out.Incidents, inc)
		out.FinalPass = true
		out.step(StateDone)
		slog.Info("pipeline passed", "pipeline", cfg.Pipeline, "stage", stage)
		return out, nil
	}

	slog.Warn("data quality checks failed", "pipeline", cfg.Pipeline, "stage", stage,
		"violations", len(att.Result.Violations))
	for _, v := range att.Result.Violations {
		slog.Warn("violation", "code", string(v.Code), "column", v.Column, "message", v.Message)
	}

	inc, err := a.appendIncident(ctx, cfg, stage, description, incident.StatusFailed, att, nil)
	if err != nil {
		return out, err
	}
	out.Incidents = append(out.Incidents, inc)

	// ----- Healing -----
	out.step(StateHealing)
	healedCfg, adjustments := heal.Apply(cfg, att.Result.Violations)
	out.Adjustments = adjustments
	if len(adjustments) == 0 {
		slog.Info("no applicable healing adjustments; stopping", "pipeline", cfg.Pipeline)
		out.step(StateDone)
		return out, nil
	}
	for _, adj := range adjustments {
		slog.Info("healing adjustment", "field", adj.Field, "column", adj.Column,
			"old", adj.Old, "new", adj.New)
	}

	if err := config.Save(healedCfg, cfgPath); err != nil {
		return out, err
	}
	slog.Info("healed config persisted", "path", cfgPath, "adjustments", len(adjustments))

	// ----- Rerun (exactly once) -----
	out.step(StateRerunning)
	execCfg = config.ResolvePaths(healedCfg, baseDir)
	att, err = a.runAttempt(ctx, execCfg)
	if err != nil {
		a.logAttemptError(ctx, healedCfg, StageRerun, description, err)
		return out, err
	}

	status := incident.StatusFailed
	if att.Result.Pass {
		status = incident.StatusHealed
		out.Healed = true
		out.FinalPass = true
		slog.Info("pipeline recovered after healing", "pipeline", cfg.Pipeline)
	} else {
		slog.Warn("pipeline still failing after healing", "pipeline", cfg.Pipeline,
			"violations", len(att.Result.Violations))
	}

	inc, err = a.appendIncident(ctx, healedCfg, StageRerun, description, status, att, adjustments)
	if err != nil {
		return out, err
	}
	out.Incidents = append(out.Incidents, inc)
	out.step(StateDone)
	return out, nil
}

// runAttempt performs one load -> warehouse -> profile -> evaluate -> drift
// pass. Drift detection only runs for passing attempts, mirroring the rest
// of the pipeline being gated on quality.
func (a *Agent) runAttempt(ctx context.Context, cfg config.Config) (attempt, error) {
	ds, err := dataset.ReadCSV(cfg.SourcePath, cfg.Columns)
	if err != nil {
		return attempt{}, err
	}
	slog.Debug("source loaded", "path", cfg.SourcePath, "rows", ds.RowCount(),
		"columns", len(ds.Columns), "missing", len(ds.Missing))

	if cfg.Warehouse != nil {
		if err := a.loadWarehouse(ctx, cfg, ds); err != nil {
			return attempt{}, err
		}
	}

	profiles := profile.Build(ds)
	res := rules.Evaluate(ds.RowCount(), profiles, cfg)

	att := attempt{Profiles: profiles, Result: res}
	if res.Pass {
		rep, err := drift.Detect(profiles, cfg.Drift)
		if err != nil {
			return attempt{}, fmt.Errorf("drift detection: %w", err)
		}
		att.Drift = &rep
		if len(rep.Drifted) > 0 {
			for _, d := range rep.Drifted {
				slog.Warn("drift detected", "column", d.Column,
					"base_mean", d.BaselineMean, "current_mean", d.CurrentMean)
			}
		}
	}
	return att, nil
}

func (a *Agent) loadWarehouse(ctx context.Context, cfg config.Config, ds *dataset.Dataset) error {
	wh, err := warehouse.Open(cfg.Warehouse.Path)
	if err != nil {
		return err
	}
	defer wh.Close()

	n, err := wh.Load(ctx, cfg.Warehouse.Table, ds)
	if err != nil {
		return err
	}
	slog.Debug("warehouse loaded", "table", cfg.Warehouse.Table, "rows", n)
	return nil
}

// appendIncident logs one record for a completed attempt. An append failure
// is returned as-is: the run logger must never fail silently.
func (a *Agent) appendIncident(ctx context.Context, cfg config.Config, stage, description string,
	status incident.Status, att attempt, adjustments []heal.Adjustment) (incident.Incident, error) {

	inc := incident.Incident{
		ID:          a.newRunID(),
		Pipeline:    cfg.Pipeline,
		Stage:       stage,
		Status:      status,
		Description: description,
		RowCount:    att.Result.RowCount,
		Violations:  att.Result.Violations,
		Adjustments: adjustments,
		Drift:       att.Drift,
		CreatedAt:   a.now(),
	}
	seq, err := a.incidents.Append(ctx, inc)
	if err != nil {
		return incident.Incident{}, fmt.Errorf("incident log write failed: %w", err)
	}
	inc.Seq = seq
	slog.Info("incident logged", "run_id", inc.ID, "stage", stage, "status", string(status))
	return inc, nil
}

// logAttemptError records a non-recoverable attempt failure before the error
// propagates. If the log append itself fails, that error takes precedence.
func (a *Agent) logAttemptError(ctx context.Context, cfg config.Config, stage, description string, attemptErr error) {
	inc := incident.Incident{
		ID:          a.newRunID(),
		Pipeline:    cfg.Pipeline,
		Stage:       stage,
		Status:      incident.StatusFailed,
		Description: fmt.Sprintf("%s: %v", description, attemptErr),
		CreatedAt:   a.now(),
	}
	if _, err := a.incidents.Append(ctx, inc); err != nil {
		slog.Error("failed to log incident for attempt error", "error", err)
	}
}

func (o *Outcome) step(s State) {
	o.StatePath = append(o.StatePath, s)
}
