package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

const (
	DefaultOutputDir      = "dist"
	DefaultSiteTitle      = "My Docs Site"
	DefaultTokenPath      = "tokens.json"
	DefaultTemplatePath   = "template.html"
	DefaultIndexDB        = "docsite.db"
	DefaultExportTimeout  = 60 * time.Second
	DefaultExportMaxBytes = 10 << 20
	DefaultConcurrency    = 1
	DefaultLogLevel       = "info"
)

// Config is built once at startup and handed to each component.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	FolderID     string
	OutputDir    string
	SiteTitle    string
	TokenPath    string
	TemplatePath string

	RefreshToken string
	DocumentID   string

	ExportTimeout  time.Duration
	ExportMaxBytes int64
	Concurrency    int

	IndexDB  string
	LogLevel string
}

// MissingError reports a required setting that was not provided.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required setting %s", e.Key)
}

// Load reads envFile (if it exists) into the process environment and builds
// a Config from it. Variables already set in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unable to load %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		ClientID:     get("GOOGLE_CLIENT_ID", ""),
		ClientSecret: get("GOOGLE_CLIENT_SECRET", ""),
		RedirectURI:  get("GOOGLE_REDIRECT_URI", ""),
		FolderID:     get("DRIVE_FOLDER_ID", ""),
		OutputDir:    get("OUTPUT_DIR", DefaultOutputDir),
		SiteTitle:    get("SITE_TITLE", DefaultSiteTitle),
		TokenPath:    get("TOKEN_PATH", DefaultTokenPath),
		TemplatePath: get("TEMPLATE_PATH", DefaultTemplatePath),
		RefreshToken: get("GOOGLE_REFRESH_TOKEN", ""),
		DocumentID:   get("GOOGLE_DOC_ID", ""),
		IndexDB:      get("INDEX_DB", DefaultIndexDB),
		LogLevel:     get("LOG_LEVEL", DefaultLogLevel),
	}

	var result *multierror.Error

	timeout, err := time.ParseDuration(get("EXPORT_TIMEOUT", DefaultExportTimeout.String()))
	if err != nil || timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("invalid EXPORT_TIMEOUT: %q", get("EXPORT_TIMEOUT", "")))
	}
	cfg.ExportTimeout = timeout

	maxBytes, err := strconv.ParseInt(get("EXPORT_MAX_BYTES", strconv.Itoa(DefaultExportMaxBytes)), 10, 64)
	if err != nil || maxBytes <= 0 {
		result = multierror.Append(result, fmt.Errorf("invalid EXPORT_MAX_BYTES: %q", get("EXPORT_MAX_BYTES", "")))
	}
	cfg.ExportMaxBytes = maxBytes

	concurrency, err := strconv.Atoi(get("BUILD_CONCURRENCY", strconv.Itoa(DefaultConcurrency)))
	if err != nil || concurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("invalid BUILD_CONCURRENCY: %q", get("BUILD_CONCURRENCY", "")))
	}
	cfg.Concurrency = concurrency

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateOAuth checks the settings every Google-facing command needs.
func (c *Config) ValidateOAuth() error {
	return c.require(
		"GOOGLE_CLIENT_ID", c.ClientID,
		"GOOGLE_CLIENT_SECRET", c.ClientSecret,
		"GOOGLE_REDIRECT_URI", c.RedirectURI,
	)
}

// ValidateBuild checks the settings needed by the site build.
func (c *Config) ValidateBuild() error {
	return c.require(
		"GOOGLE_CLIENT_ID", c.ClientID,
		"GOOGLE_CLIENT_SECRET", c.ClientSecret,
		"GOOGLE_REDIRECT_URI", c.RedirectURI,
		"DRIVE_FOLDER_ID", c.FolderID,
	)
}

// ValidateFetch checks the settings needed by the single document fetch.
// The redirect URI is not used there.
func (c *Config) ValidateFetch() error {
	return c.require(
		"GOOGLE_CLIENT_ID", c.ClientID,
		"GOOGLE_CLIENT_SECRET", c.ClientSecret,
		"GOOGLE_REFRESH_TOKEN", c.RefreshToken,
		"GOOGLE_DOC_ID", c.DocumentID,
	)
}

// require takes key/value pairs and reports every empty value.
func (c *Config) require(pairs ...string) error {
	var result *multierror.Error
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			result = multierror.Append(result, &MissingError{Key: pairs[i]})
		}
	}
	return result.ErrorOrNil()
}
