package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/config"
	"github.com/OMKARDESHM/self-healing-data-pipeline-agent/internal/incident"
)

// DefaultIncidentsFile is used when the config does not name an incident log.
const DefaultIncidentsFile = "incidents.db"

// setupLogging configures the default slog handler based on the verbose flag.
func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// incidentsPath resolves the incident log location for a config file:
// the configured path (relative to the config directory), or
// DefaultIncidentsFile next to the config.
func incidentsPath(cfg config.Config, cfgPath string) string {
	dir := filepath.Dir(cfgPath)
	if cfg.IncidentsPath != "" {
		return config.ResolvePaths(cfg, dir).IncidentsPath
	}
	return filepath.Join(dir, DefaultIncidentsFile)
}

// openIncidents opens the incident store for a loaded config.
func openIncidents(cfg config.Config, cfgPath string) (*incident.Store, error) {
	return incident.Open(incidentsPath(cfg, cfgPath))
}
