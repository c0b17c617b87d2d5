package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	DriveReadonlyScope     = "https://www.googleapis.com/auth/drive.readonly"
	DocumentsReadonlyScope = "https://www.googleapis.com/auth/documents.readonly"
)

type Authenticator interface {
	GetHTTPClient(ctx context.Context) (*http.Client, error)
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint defaults to Google's when left empty.
	Endpoint oauth2.Endpoint
}
