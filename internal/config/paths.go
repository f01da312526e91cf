package config

import "path/filepath"

// ResolvePaths returns a copy of the config with relative paths resolved
// against baseDir (normally the directory holding the config file).
//
// Only the execution copy is resolved; the persisted document keeps its
// relative paths so a healed config stays portable.
func ResolvePaths(cfg Config, baseDir string) Config {
	out := cfg.Clone()
	out.SourcePath = resolve(baseDir, cfg.SourcePath)
	out.IncidentsPath = resolve(baseDir, cfg.IncidentsPath)
	if out.Warehouse != nil {
		out.Warehouse.Path = resolve(baseDir, out.Warehouse.Path)
	}
	out.Drift.BaselinePath = resolve(baseDir, cfg.Drift.BaselinePath)
	return out
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
