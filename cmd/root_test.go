package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Helper()
	prevEnv, prevDB, prevToken, prevLevel := envFile, dbPath, tokenPath, logLevel
	t.Cleanup(func() {
		envFile, dbPath, tokenPath, logLevel = prevEnv, prevDB, prevToken, prevLevel
	})
	envFile, dbPath, tokenPath, logLevel = "", "", "", ""
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SITE_TITLE=Team Handbook\nINDEX_DB=from-env.db\n"), 0o600))
	t.Setenv("SITE_TITLE", "")
	t.Setenv("INDEX_DB", "")
	os.Unsetenv("SITE_TITLE")
	os.Unsetenv("INDEX_DB")
	envFile = path

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Team Handbook", cfg.SiteTitle)
	assert.Equal(t, "from-env.db", cfg.IndexDB)
}

func TestLoadConfigFlagsWin(t *testing.T) {
	resetFlags(t)
	t.Setenv("INDEX_DB", "env.db")
	t.Setenv("TOKEN_PATH", "env-tokens.json")
	envFile = filepath.Join(t.TempDir(), "missing.env")
	dbPath = "flag.db"
	tokenPath = "flag-tokens.json"
	logLevel = "debug"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.IndexDB)
	assert.Equal(t, "flag-tokens.json", cfg.TokenPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigRejectsBadNumbers(t *testing.T) {
	resetFlags(t)
	t.Setenv("BUILD_CONCURRENCY", "zero")

	_, err := loadConfig()
	assert.ErrorContains(t, err, "BUILD_CONCURRENCY")
}

func TestCommandsAreRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"auth", "build", "fetch", "list", "search", "clear"} {
		assert.Contains(t, names, want)
	}
}
