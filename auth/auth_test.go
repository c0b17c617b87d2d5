package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider is a minimal OAuth token endpoint.
type fakeProvider struct {
	server    *httptest.Server
	refreshes atomic.Int32
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")

		switch r.Form.Get("grant_type") {
		case "authorization_code":
			switch r.Form.Get("code") {
			case "good-code":
				json.NewEncoder(w).Encode(map[string]any{
					"access_token":  "access-1",
					"refresh_token": "refresh-1",
					"token_type":    "Bearer",
					"expires_in":    3600,
					"scope":         DriveReadonlyScope,
				})
			case "bare-code":
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant"})
			default:
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{
					"error":             "invalid_grant",
					"error_description": "Malformed auth code.",
				})
			}
		case "refresh_token":
			n := p.refreshes.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": fmt.Sprintf("refreshed-%d", n),
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(p.server.Close)
	return p
}

func newTestAuthenticator(t *testing.T, p *fakeProvider, fs afero.Fs) *GoogleAuthenticator {
	t.Helper()
	return NewGoogleAuthenticator(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:5173/oauth2callback",
		Scopes:       []string{DriveReadonlyScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.server.URL + "/auth",
			TokenURL:  p.server.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, NewTokenStore(fs, "tokens.json"), hclog.NewNullLogger())
}

func TestAuthCodeURL(t *testing.T) {
	p := newFakeProvider(t)
	g := newTestAuthenticator(t, p, afero.NewMemMapFs())

	u, err := url.Parse(g.AuthCodeURL("state-1"))
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:5173/oauth2callback", q.Get("redirect_uri"))
	assert.Equal(t, DriveReadonlyScope, q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "state-1", q.Get("state"))
}

func TestExchange(t *testing.T) {
	p := newFakeProvider(t)
	g := newTestAuthenticator(t, p, afero.NewMemMapFs())

	tok, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
}

func TestExchangeSurfacesProviderError(t *testing.T) {
	p := newFakeProvider(t)
	g := newTestAuthenticator(t, p, afero.NewMemMapFs())

	_, err := g.Exchange(context.Background(), "bad-code")
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "invalid_grant", perr.Code)
	assert.Equal(t, "Malformed auth code.", perr.Message())

	_, err = g.Exchange(context.Background(), "bare-code")
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "invalid_grant", perr.Message())
}

func TestTokenSourceWithoutCredentials(t *testing.T) {
	p := newFakeProvider(t)
	g := newTestAuthenticator(t, p, afero.NewMemMapFs())

	_, err := g.GetHTTPClient(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestTokenSourceRefreshesAndPersists(t *testing.T) {
	p := newFakeProvider(t)
	fs := afero.NewMemMapFs()
	g := newTestAuthenticator(t, p, fs)

	require.NoError(t, g.SaveToken(&oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	ts, err := g.TokenSource(context.Background())
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-1", tok.AccessToken)

	// The still-valid token is reused without another refresh.
	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-1", tok.AccessToken)
	assert.Equal(t, int32(1), p.refreshes.Load())

	saved, err := NewTokenStore(fs, "tokens.json").Load()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-1", saved.AccessToken)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
}

func TestTokenSourceValidTokenIsNotRewritten(t *testing.T) {
	p := newFakeProvider(t)
	fs := afero.NewMemMapFs()
	g := newTestAuthenticator(t, p, fs)

	require.NoError(t, g.SaveToken(&oauth2.Token{
		AccessToken:  "fresh",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	}))
	before, err := fs.Stat("tokens.json")
	require.NoError(t, err)

	ts, err := g.TokenSource(context.Background())
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, int32(0), p.refreshes.Load())

	after, err := fs.Stat("tokens.json")
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestRefreshTokenSource(t *testing.T) {
	p := newFakeProvider(t)
	g := newTestAuthenticator(t, p, afero.NewMemMapFs())

	tok, err := g.RefreshTokenSource(context.Background(), "refresh-1").Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-1", tok.AccessToken)
}
