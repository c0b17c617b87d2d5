package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "dist", cfg.OutputDir)
	assert.Equal(t, "My Docs Site", cfg.SiteTitle)
	assert.Equal(t, "tokens.json", cfg.TokenPath)
	assert.Equal(t, "template.html", cfg.TemplatePath)
	assert.Equal(t, "docsite.db", cfg.IndexDB)
	assert.Equal(t, 60*time.Second, cfg.ExportTimeout)
	assert.Equal(t, int64(10<<20), cfg.ExportMaxBytes)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestFromLookupOverrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"GOOGLE_CLIENT_ID":     "id",
		"GOOGLE_CLIENT_SECRET": "secret",
		"GOOGLE_REDIRECT_URI":  "http://localhost:5173/oauth2callback",
		"DRIVE_FOLDER_ID":      "F1",
		"OUTPUT_DIR":           "public",
		"SITE_TITLE":           "Handbook",
		"EXPORT_TIMEOUT":       "5s",
		"EXPORT_MAX_BYTES":     "1024",
		"BUILD_CONCURRENCY":    "4",
	}))
	require.NoError(t, err)

	assert.Equal(t, "F1", cfg.FolderID)
	assert.Equal(t, "public", cfg.OutputDir)
	assert.Equal(t, "Handbook", cfg.SiteTitle)
	assert.Equal(t, 5*time.Second, cfg.ExportTimeout)
	assert.Equal(t, int64(1024), cfg.ExportMaxBytes)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.NoError(t, cfg.ValidateBuild())
}

func TestFromLookupRejectsBadNumbers(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{
		"EXPORT_TIMEOUT":    "soon",
		"BUILD_CONCURRENCY": "0",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPORT_TIMEOUT")
	assert.Contains(t, err.Error(), "BUILD_CONCURRENCY")
}

func TestValidateBuildListsEveryMissingKey(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"GOOGLE_CLIENT_ID": "id",
	}))
	require.NoError(t, err)

	err = cfg.ValidateBuild()
	require.Error(t, err)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	for _, key := range []string{"GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URI", "DRIVE_FOLDER_ID"} {
		assert.Contains(t, err.Error(), key)
	}
	assert.NotContains(t, err.Error(), "GOOGLE_CLIENT_ID")
}

func TestValidateFetch(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"GOOGLE_CLIENT_ID":     "id",
		"GOOGLE_CLIENT_SECRET": "secret",
	}))
	require.NoError(t, err)

	err = cfg.ValidateFetch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_REFRESH_TOKEN")
	assert.Contains(t, err.Error(), "GOOGLE_DOC_ID")
	assert.NotContains(t, err.Error(), "GOOGLE_REDIRECT_URI")
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCSITE_TEST_SITE=1\nSITE_TITLE=From File\n"), 0o600))
	t.Setenv("SITE_TITLE", "")
	os.Unsetenv("SITE_TITLE")
	t.Cleanup(func() { os.Unsetenv("DOCSITE_TEST_SITE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "From File", cfg.SiteTitle)
}

func TestLoadMissingEnvFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
