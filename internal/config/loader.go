package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LoadFrom reads the recordbook config at path and fills unset fields with
// defaults. Environment overrides are applied by LoadOrDefault, not here.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &ConfigNotFoundError{Path: path, Hint: "Run 'recordbook init' to write a default config"}
	case errors.Is(err, fs.ErrPermission):
		return nil, newPermissionError(path, "read", err)
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: describeJSONError(data, err),
			Hint:    recoveryHint(path),
		}
	}

	cfg.fillDefaults()
	return &cfg, nil
}

// describeJSONError adds the line and column of a syntax error.
func describeJSONError(data []byte, err error) string {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return fmt.Sprintf("JSON parse error: %v", err)
	}
	before := data[:min(int(syntaxErr.Offset), len(data))]
	line := bytes.Count(before, []byte("\n")) + 1
	col := len(before) - bytes.LastIndexByte(before, '\n')
	return fmt.Sprintf("JSON parse error at line %d, column %d: %v", line, col, err)
}

// recoveryHint points at the backup Save leaves behind, when there is one.
func recoveryHint(path string) string {
	if _, err := os.Stat(path + ".bak"); err == nil {
		return fmt.Sprintf("Restore the previous config: cp %s.bak %s", path, path)
	}
	return "Run 'recordbook init --force' to rewrite the default config"
}
