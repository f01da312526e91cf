package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Error codes for configuration failures. Parse and schema errors surface at
// load time; write errors surface when a healed config is persisted. All of
// them are fatal - the pipeline never retries a config failure.
const (
	ErrCodeParse  = "CONFIG_PARSE"
	ErrCodeSchema = "CONFIG_SCHEMA"
	ErrCodeWrite  = "CONFIG_WRITE"
)

// Error represents a configuration failure with a stable code.
type Error struct {
	Code    string
	Path    string // config file path, if known
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a config Error with the given code.
func IsConfigError(err error, code string) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// Load reads, decodes, and validates a pipeline config.
//
// Decoding is strict: unknown YAML fields are rejected. The decoded document
// is then unified with the embedded CUE schema, so threshold bounds and type
// names are checked before any pipeline stage runs (fail fast, never at the
// point of use).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeParse, Path: path, Message: "reading config file", Err: err}
	}

	cfg := withDefaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeParse, Path: path, Message: fmt.Sprintf("decoding config: %v", err), Err: err}
	}

	if err := validateSchema(data); err != nil {
		return Config{}, &Error{Code: ErrCodeSchema, Path: path, Message: err.Error(), Err: err}
	}

	return cfg, nil
}

// validateSchema unifies the raw document with #Config from schema.cue.
func validateSchema(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("re-decoding for schema check: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return fmt.Errorf("config schema missing #Config definition")
	}

	unified := def.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fmt.Errorf("config does not satisfy schema: %w", err)
	}
	return nil
}

// Save persists the config atomically: the document is written to a temp file
// in the target directory and renamed over the destination. A partial write
// never clobbers the previous config.
//
// Save re-validates thresholds before writing so an invalid config is never
// persisted, regardless of how the in-memory value was produced.
func Save(cfg Config, path string) error {
	if err := checkBounds(cfg); err != nil {
		return &Error{Code: ErrCodeWrite, Path: path, Message: err.Error(), Err: err}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &Error{Code: ErrCodeWrite, Path: path, Message: "encoding config", Err: err}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*.yml")
	if err != nil {
		return &Error{Code: ErrCodeWrite, Path: path, Message: "creating temp file", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &Error{Code: ErrCodeWrite, Path: path, Message: "writing temp file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &Error{Code: ErrCodeWrite, Path: path, Message: "closing temp file", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &Error{Code: ErrCodeWrite, Path: path, Message: "replacing config file", Err: err}
	}
	return nil
}

// checkBounds enforces the persisted-state invariant: fractional thresholds
// stay within [0,1] and row_count_min is never negative.
func checkBounds(cfg Config) error {
	if cfg.Quality.RowCountMin < 0 {
		return fmt.Errorf("quality.row_count_min is negative: %d", cfg.Quality.RowCountMin)
	}
	for _, col := range cfg.Columns {
		if !ValidColumnTypes[col.Type] {
			return fmt.Errorf("column %q has unknown type %q", col.Name, col.Type)
		}
		if f := col.MaxNullFraction; f != nil && (*f < 0 || *f > 1) {
			return fmt.Errorf("column %q max_null_fraction out of range: %g", col.Name, *f)
		}
		if f := col.MaxTypeErrorFraction; f != nil && (*f < 0 || *f > 1) {
			return fmt.Errorf("column %q max_type_error_fraction out of range: %g", col.Name, *f)
		}
	}
	return nil
}
