package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/testutil"
)

// executeCommand runs the root command with args and captures stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func brokenSourceConfig() string {
	cfg := testutil.CustomersConfigYAML
	return string(bytes.Replace([]byte(cfg),
		[]byte("source_path: customers_v1.csv"),
		[]byte("source_path: customers_v2_broken.csv"), 1))
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	dir := testutil.WriteDemoDir(t)

	_, err := executeCommand(t, "--format", "xml", "validate", filepath.Join(dir, "config.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidateCommand(t *testing.T) {
	dir := testutil.WriteDemoDir(t)

	out, err := executeCommand(t, "validate", filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Config valid")
	assert.Contains(t, out, "customers_pipeline")
}

func TestValidateCommandParseError(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "config.yml", "pipeline: [broken")

	out, err := executeCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "CONFIG_PARSE")
}

func TestValidateCommandSchemaError(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "config.yml", `pipeline: customers
source_path: data.csv
columns:
  - name: age
    type: int
    max_null_fraction: 2.5
`)

	out, err := executeCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "CONFIG_SCHEMA")
}

func TestRunCommandPasses(t *testing.T) {
	dir := testutil.WriteDemoDir(t)

	out, err := executeCommand(t, "run", filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Pipeline passed")
	assert.Contains(t, out, "status=success")
}

func TestRunCommandHealsBrokenSource(t *testing.T) {
	dir := testutil.WriteDemoDir(t)
	testutil.WriteFile(t, dir, "config.yml", brokenSourceConfig())

	out, err := executeCommand(t, "run", filepath.Join(dir, "config.yml"))
	require.NoError(t, err, "a healed run exits 0")
	assert.Contains(t, out, "Healed: pipeline passed after 2 adjustment(s)")
	assert.Contains(t, out, "status=failed")
	assert.Contains(t, out, "status=healed")
	assert.Contains(t, out, "adjusted: raised max_null_fraction")
}

func TestRunCommandStillFailingExitsOne(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "config.yml", `pipeline: strict
source_path: data.csv
quality:
  row_count_min: 1
columns:
  - name: customer_id
    type: int
    required: true
`)
	testutil.WriteFile(t, dir, "data.csv", "customer_id\n1\nna\n3\n")

	out, err := executeCommand(t, "run", filepath.Join(dir, "config.yml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Pipeline failed")
}

func TestRunCommandMissingConfigExitsOne(t *testing.T) {
	_, err := executeCommand(t, "run", filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunCommandMissingSourceExitsTwo(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "config.yml", `pipeline: customers
source_path: nope.csv
quality:
  row_count_min: 1
columns:
  - name: customer_id
    type: int
`)

	_, err := executeCommand(t, "run", filepath.Join(dir, "config.yml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommandJSON(t *testing.T) {
	dir := testutil.WriteDemoDir(t)
	testutil.WriteFile(t, dir, "config.yml", brokenSourceConfig())

	out, err := executeCommand(t, "--format", "json", "run", filepath.Join(dir, "config.yml"))
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.FinalPass)
	assert.True(t, resp.Data.Healed)
	assert.Equal(t, 2, resp.Data.Attempts)
	assert.Equal(t, 2, resp.Data.Adjustments)
	assert.Len(t, resp.Data.RunIDs, 2)
}

func TestDemoCommandGolden(t *testing.T) {
	dir := testutil.WriteDemoDir(t)

	out, err := executeCommand(t, "demo", dir)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "demo_text", []byte(out))
}

func TestDemoCommandJSON(t *testing.T) {
	dir := testutil.WriteDemoDir(t)

	out, err := executeCommand(t, "--format", "json", "demo", dir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   DemoReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.BaselinePass)
	assert.True(t, resp.Data.DriftedPass)
	assert.True(t, resp.Data.Healed)
	assert.Equal(t, 2, resp.Data.Adjustments)
	assert.Equal(t, 3, resp.Data.Incidents)
}

func TestDemoCommandStillFailingExitsZero(t *testing.T) {
	dir := testutil.WriteDemoDir(t)

	// 90% null age: the widened threshold is clamped at the cap, so the
	// rerun still fails. The demo exits 0 regardless.
	testutil.WriteFile(t, dir, "customers_v2_broken.csv",
		`customer_id,name,age,signup_date,monthly_spend
11,Kara Owens,62,2023-07-02,140.20
12,Liam Patel,,2023-07-11,98.75
13,Mia Torres,,2023-07-19,185.00
14,Noah Reed,,2023-07-28,67.40
15,Olive Kim,,2023-08-05,122.90
16,Paul Diaz,,2023-08-14,88.15
17,Quinn Fox,,2023-08-23,150.60
18,Ruth Cole,,2023-09-01,73.35
19,Sam Wu,,2023-09-10,91.20
20,Tara Bell,,2023-09-18,115.45
`)

	out, err := executeCommand(t, "demo", dir)
	require.NoError(t, err, "a completed demo exits 0 even when the drifted run stays failed")
	assert.Contains(t, out, "Baseline run: passed")
	assert.Contains(t, out, "Drifted run:  failed")
	assert.Contains(t, out, "Incidents logged: 3")
}

func TestDemoCommandMissingDirExitsOne(t *testing.T) {
	_, err := executeCommand(t, "demo", filepath.Join(t.TempDir(), "nowhere"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "missing config is a parse failure")
}

func TestIncidentsCommand(t *testing.T) {
	dir := testutil.WriteDemoDir(t)
	_, err := executeCommand(t, "demo", dir)
	require.NoError(t, err)

	db := filepath.Join(dir, "incidents.db")

	out, err := executeCommand(t, "incidents", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "healed")

	out, err = executeCommand(t, "incidents", "--db", db, "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "failed")
	assert.NotContains(t, out, "success")

	out, err = executeCommand(t, "incidents", "--db", db, "--stage", "post_heal")
	require.NoError(t, err)
	assert.Contains(t, out, "healed")
	assert.NotContains(t, out, "baseline")
}

func TestIncidentsCommandEmptyLog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "incidents.db")

	out, err := executeCommand(t, "incidents", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No incidents logged.")
}

func TestIncidentsCommandJSON(t *testing.T) {
	dir := testutil.WriteDemoDir(t)
	_, err := executeCommand(t, "demo", dir)
	require.NoError(t, err)

	out, err := executeCommand(t, "--format", "json", "incidents",
		"--db", filepath.Join(dir, "incidents.db"))
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Count)
}

func TestProfileCommand(t *testing.T) {
	dir := testutil.WriteDemoDir(t)

	out, err := executeCommand(t, "profile", filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Contains(t, out, "10 rows")
	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "age")
	assert.Contains(t, out, "monthly_spend")
}

func TestProfileCommandSourceOverride(t *testing.T) {
	dir := testutil.WriteDemoDir(t)

	out, err := executeCommand(t, "profile", filepath.Join(dir, "config.yml"),
		"--source", filepath.Join(dir, "customers_v2_broken.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "customers_v2_broken.csv")
	assert.Contains(t, out, "50.0") // age null percentage
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}
