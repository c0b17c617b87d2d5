package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var _ Authenticator = (*GoogleAuthenticator)(nil)

type GoogleAuthenticator struct {
	config *oauth2.Config
	store  *TokenStore
	logger hclog.Logger
}

func NewGoogleAuthenticator(cfg Config, store *TokenStore, logger hclog.Logger) *GoogleAuthenticator {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &GoogleAuthenticator{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		store:  store,
		logger: logger,
	}
}

// AuthCodeURL asks for offline access and forces the consent screen so the
// provider always returns a refresh token.
func (g *GoogleAuthenticator) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (g *GoogleAuthenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %w", asProviderError(err))
	}
	return tok, nil
}

// SaveToken persists tok through the token store.
func (g *GoogleAuthenticator) SaveToken(tok *oauth2.Token) error {
	g.logger.Info("saving credential file", "path", g.store.Path())
	return g.store.Save(tok)
}

// TokenSource loads the saved token and returns a source that refreshes it
// once expired and writes every renewed token back to the store.
func (g *GoogleAuthenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := g.store.Load()
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		base:   g.config.TokenSource(ctx, tok),
		store:  g.store,
		last:   tok.AccessToken,
		logger: g.logger,
	}, nil
}

func (g *GoogleAuthenticator) GetHTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := g.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// RefreshTokenSource builds a source from a bare refresh token. Nothing is persisted.
func (g *GoogleAuthenticator) RefreshTokenSource(ctx context.Context, refreshToken string) oauth2.TokenSource {
	return g.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
}

type persistingTokenSource struct {
	base   oauth2.TokenSource
	store  *TokenStore
	logger hclog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("unable to refresh access token: %w", asProviderError(err))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.logger.Info("access token refreshed", "expiry", tok.Expiry)
		if err := p.store.Save(tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
