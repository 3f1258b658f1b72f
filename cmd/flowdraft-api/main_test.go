package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"
)

func parseConfig(t *testing.T, args ...string) Config {
	t.Helper()

	var cfg Config

	command := newCommand()
	command.Action = func(_ context.Context, c *cli.Command) error {
		cfg = configFromCommand(c)

		return nil
	}

	args = append([]string{serviceName, "--database-url", "file://" + t.TempDir()}, args...)
	require.NoError(t, command.Run(context.Background(), args))

	return cfg
}

func TestCommand_Defaults(t *testing.T) {
	cfg := parseConfig(t)

	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.DraftTTL)
	assert.Equal(t, 0, cfg.DiffMaxCells)
}

func TestCommand_CleanupInterval(t *testing.T) {
	cfg := parseConfig(t, "--cleanup-interval", "30s")
	assert.Equal(t, 30*time.Second, cfg.CleanupInterval)

	t.Setenv("CACHE_CLEANUP_INTERVAL", "2m")

	cfg = parseConfig(t)
	assert.Equal(t, 2*time.Minute, cfg.CleanupInterval)
}
