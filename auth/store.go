package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/oauth2"
)

// TokenStore persists the OAuth token record as a JSON file.
type TokenStore struct {
	fs   afero.Fs
	path string
}

type tokenRecord struct {
	*oauth2.Token
	Scope string `json:"scope,omitempty"`
}

func NewTokenStore(fs afero.Fs, path string) *TokenStore {
	return &TokenStore{fs: fs, path: path}
}

func (s *TokenStore) Path() string { return s.path }

// Load returns the saved token. A missing or malformed file wraps ErrNoCredentials.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}

	rec := tokenRecord{Token: &oauth2.Token{}}
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("%w: unable to parse %s: %v", ErrNoCredentials, s.path, err)
	}
	if rec.AccessToken == "" && rec.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %s holds no token", ErrNoCredentials, s.path)
	}
	if rec.Scope != "" {
		rec.Token = rec.Token.WithExtra(map[string]any{"scope": rec.Scope})
	}
	return rec.Token, nil
}

// Save writes the token to a temporary file next to the target and renames
// it into place, so a crash never leaves a truncated credential file.
func (s *TokenStore) Save(token *oauth2.Token) error {
	rec := tokenRecord{Token: token}
	if scope, ok := token.Extra("scope").(string); ok {
		rec.Scope = scope
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("unable to create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("unable to create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = s.fs.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("unable to write token: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("unable to sync token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("unable to close token file: %w", err)
	}
	if err := s.fs.Chmod(tmpName, 0o600); err != nil && !os.IsNotExist(err) {
		cleanup()
		return fmt.Errorf("unable to restrict token file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("unable to move token into place: %w", err)
	}
	return nil
}
