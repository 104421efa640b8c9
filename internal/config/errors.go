package config

import (
	"fmt"
	"os"
	"strings"
)

// PermissionError reports a config file or directory the current user may not
// read or write.
type PermissionError struct {
	Path    string
	Op      string // "read" or "write"
	Fix     string
	Details string
	Err     error
}

func newPermissionError(path, op string, err error) *PermissionError {
	e := &PermissionError{Path: path, Op: op, Err: err}
	flag := "r"
	if op == "write" {
		flag = "w"
	}
	e.Fix = fmt.Sprintf("chmod u+%s %s", flag, path)
	if info, statErr := os.Stat(path); statErr == nil {
		e.Details = fmt.Sprintf("mode %04o", info.Mode().Perm())
	}
	return e
}

func (e *PermissionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot %s config %s", e.Op, e.Path)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	writeHint(&b, e.Fix)
	return b.String()
}

func (e *PermissionError) Unwrap() error { return e.Err }

// ConfigNotFoundError reports a missing config file. LoadOrDefault treats it
// as "use the defaults".
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config file not found: %s", e.Path)
	writeHint(&b, e.Hint)
	return b.String()
}

// InvalidConfigError reports a config that does not parse or fails Validate.
type InvalidConfigError struct {
	Path    string
	Message string
	Hint    string
}

func (e *InvalidConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid config %s", e.Path)
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	writeHint(&b, e.Hint)
	return b.String()
}

func writeHint(b *strings.Builder, hint string) {
	if hint != "" {
		b.WriteString("\n💡 " + hint)
	}
}
