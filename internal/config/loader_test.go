package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := LoadFrom(filepath.Join(t.TempDir(), "nonexistent.json"))

		var notFound *ConfigNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Contains(t, err.Error(), "config file not found")
		assert.Contains(t, err.Error(), "recordbook init")
	})

	t.Run("permission denied", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		testPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(testPath, []byte(`{}`), 0000))

		_, err := LoadFrom(testPath)

		var permErr *PermissionError
		require.ErrorAs(t, err, &permErr)
		assert.Equal(t, "read", permErr.Op)
		assert.Equal(t, "mode 0000", permErr.Details)
		assert.Contains(t, err.Error(), "chmod u+r "+testPath)
		assert.ErrorIs(t, err, os.ErrPermission)
	})

	t.Run("syntax error reports position", func(t *testing.T) {
		testPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(testPath, []byte("{\n  \"storage\": {\n    \"backend\": bolt\n  }\n}"), 0644))

		_, err := LoadFrom(testPath)

		var invalid *InvalidConfigError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Message, "line 3")
		assert.Contains(t, err.Error(), "recordbook init --force")
	})

	t.Run("hint points at backup when present", func(t *testing.T) {
		testPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(testPath, []byte(`{invalid json}`), 0644))
		require.NoError(t, os.WriteFile(testPath+".bak", []byte(`{}`), 0644))

		_, err := LoadFrom(testPath)

		var invalid *InvalidConfigError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "Restore the previous config: cp "+testPath+".bak "+testPath, invalid.Hint)
	})

	t.Run("type mismatch", func(t *testing.T) {
		testPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(testPath, []byte(`{"settings": {"paceMillis": "slow"}}`), 0644))

		_, err := LoadFrom(testPath)

		var invalid *InvalidConfigError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Message, "JSON parse error")
		assert.NotContains(t, invalid.Message, "line")
	})
}

func TestErrorMessages(t *testing.T) {
	err := newPermissionError(filepath.Join(t.TempDir(), "missing.json"), "write", nil)
	assert.Contains(t, err.Error(), "cannot write config")
	assert.Contains(t, err.Error(), "chmod u+w")
	assert.Empty(t, err.Details)
	assert.Nil(t, err.Unwrap())

	invalid := &InvalidConfigError{Path: "/x", Message: "bad"}
	assert.Equal(t, "invalid config /x: bad", invalid.Error())

	notFound := &ConfigNotFoundError{Path: "/x", Hint: "make one"}
	assert.Equal(t, "config file not found: /x\n💡 make one", notFound.Error())
}
