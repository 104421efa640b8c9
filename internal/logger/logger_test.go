package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "PRODUCTION", ""} {
		log, err := New(mode)
		require.NoError(t, err, "mode %q", mode)
		require.NotNil(t, log.SugaredLogger)
	}
}

func TestNopAndWith(t *testing.T) {
	log := Nop().With("component", "test")
	require.NotNil(t, log)

	// must not panic on a discarded sink
	log.Debug("debug", "k", 1)
	log.Info("info")
	log.Warn("warn", "k", "v")
	log.Error("error")
	log.Sync()
}
