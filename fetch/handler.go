package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"docsite/auth"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	DocumentID   string

	// Endpoint defaults to Google's when left empty.
	Endpoint oauth2.Endpoint
}

// Response mirrors a serverless function result: a status code and a JSON body.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type successBody struct {
	Content string `json:"content"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler returns the plain text of one configured Google Doc.
type Handler struct {
	cfg     Config
	options []option.ClientOption
	logger  hclog.Logger
}

// NewHandler builds a handler. opts are passed to the Docs client after the
// authorised HTTP client.
func NewHandler(cfg Config, logger hclog.Logger, opts ...option.ClientOption) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{
		cfg:     cfg,
		options: opts,
		logger:  logger,
	}
}

// Handle fetches the document. Every call mints its own access token from the
// refresh token; nothing is cached between calls.
func (h *Handler) Handle(ctx context.Context) Response {
	text, err := h.fetch(ctx)
	if err != nil {
		h.logger.Error("fetch failed", "document", h.cfg.DocumentID, "error", err)
		return respond(http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
	return respond(http.StatusOK, successBody{Content: text})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := h.Handle(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	w.Write([]byte(res.Body))
}

func (h *Handler) fetch(ctx context.Context) (string, error) {
	if h.cfg.RefreshToken == "" || h.cfg.DocumentID == "" {
		return "", errors.New("refresh token and document id are required")
	}

	authenticator := auth.NewGoogleAuthenticator(auth.Config{
		ClientID:     h.cfg.ClientID,
		ClientSecret: h.cfg.ClientSecret,
		Scopes:       []string{auth.DocumentsReadonlyScope},
		Endpoint:     h.cfg.Endpoint,
	}, nil, h.logger)
	client := oauth2.NewClient(ctx, authenticator.RefreshTokenSource(ctx, h.cfg.RefreshToken))

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, h.options...)
	srv, err := docs.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("unable to create Docs client: %w", err)
	}

	doc, err := srv.Documents.Get(h.cfg.DocumentID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to get document %s: %w", h.cfg.DocumentID, err)
	}
	return PlainText(doc), nil
}

func respond(status int, body any) Response {
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"unable to encode response"}`)
	}
	return Response{StatusCode: status, Body: string(b)}
}
