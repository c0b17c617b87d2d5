package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

const DefaultCallbackPath = "/oauth2callback"

// ListenerMode selects how long the callback server lives.
type ListenerMode int

const (
	// ModeOneShot stops serving after the first successful exchange.
	ModeOneShot ListenerMode = iota
	// ModePersistent serves until the context is cancelled.
	ModePersistent
)

func (m ListenerMode) String() string {
	if m == ModePersistent {
		return "persistent"
	}
	return "one-shot"
}

// CallbackServer receives the provider redirect on a local listener and
// completes the authorization-code exchange.
type CallbackServer struct {
	auth   *GoogleAuthenticator
	mode   ListenerMode
	state  string
	path   string
	logger hclog.Logger

	once   sync.Once
	result chan *oauth2.Token
}

func NewCallbackServer(auth *GoogleAuthenticator, mode ListenerMode, logger hclog.Logger) *CallbackServer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	path := DefaultCallbackPath
	if u, err := url.Parse(auth.config.RedirectURL); err == nil && u.Path != "" && u.Path != "/" && u.Path != "/auth" {
		path = u.Path
	}

	return &CallbackServer{
		auth:   auth,
		mode:   mode,
		state:  uuid.NewString(),
		path:   path,
		logger: logger,
		result: make(chan *oauth2.Token, 1),
	}
}

// AuthURL is the consent screen URL carrying this server's state value.
func (s *CallbackServer) AuthURL() string {
	return s.auth.AuthCodeURL(s.state)
}

// Addr is the listen address taken from the redirect URI.
func (s *CallbackServer) Addr() (string, error) {
	u, err := url.Parse(s.auth.config.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI: %w", err)
	}
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}
	return host, nil
}

// Handler serves /auth, the callback path and anything below it, so a
// redirect URI with a trailing slash still completes. Other paths get a
// waiting placeholder.
func (s *CallbackServer) Handler() http.Handler {
	callback := strings.TrimSuffix(s.path, "/")
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", s.handleAuth)
	mux.HandleFunc(callback, s.handleCallback)
	mux.HandleFunc(callback+"/", s.handleCallback)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "Waiting for OAuth redirect...")
	})
	return loggingMiddleware(s.logger, mux)
}

func (s *CallbackServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.AuthURL(), http.StatusTemporaryRedirect)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if code := q.Get("error"); code != "" {
		perr := &Error{Code: code, Description: q.Get("error_description")}
		s.logger.Warn("authorization denied", "error", perr.Message())
		writeText(w, http.StatusUnauthorized, perr.Message())
		return
	}

	code := q.Get("code")
	if code == "" {
		writeText(w, http.StatusBadRequest, "Missing authorization code.")
		return
	}
	if state := q.Get("state"); state != "" && state != s.state {
		writeText(w, http.StatusBadRequest, "Invalid OAuth state.")
		return
	}

	tok, err := s.auth.Exchange(r.Context(), code)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			s.logger.Warn("code exchange rejected", "error", perr.Message())
			writeText(w, http.StatusUnauthorized, perr.Message())
			return
		}
		s.logger.Error("code exchange failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Auth failed. Check console.")
		return
	}

	if err := s.auth.SaveToken(tok); err != nil {
		s.logger.Error("unable to save tokens", "error", err)
		writeText(w, http.StatusInternalServerError, "Auth failed. Check console.")
		return
	}

	writeText(w, http.StatusOK, fmt.Sprintf("Success! %s saved. You can close this tab.", s.auth.store.Path()))
	s.logger.Info("saved tokens", "path", s.auth.store.Path())

	if s.mode == ModeOneShot {
		s.once.Do(func() { s.result <- tok })
	}
}

// Run serves until the first successful exchange (one-shot) or until ctx is
// done (persistent). In one-shot mode the obtained token is returned.
func (s *CallbackServer) Run(ctx context.Context) (*oauth2.Token, error) {
	addr, err := s.Addr()
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("unable to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on a caller-provided listener.
func (s *CallbackServer) Serve(ctx context.Context, ln net.Listener) (*oauth2.Token, error) {
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("callback server listening", "addr", ln.Addr().String(), "mode", s.mode.String())
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	var tok *oauth2.Token
	var runErr error
	select {
	case tok = <-s.result:
	case <-ctx.Done():
		if s.mode == ModeOneShot {
			runErr = ctx.Err()
		}
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("callback server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("callback server shutdown error", "error", err)
	}
	s.logger.Info("callback server stopped")

	return tok, runErr
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func loggingMiddleware(logger hclog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
