package auth

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrNoCredentials means the saved token file is missing or unreadable.
var ErrNoCredentials = errors.New("no saved credentials, run `docsite auth` first")

// Error is a rejection returned by the OAuth provider.
type Error struct {
	Code        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oauth provider rejected request: %s", e.Message())
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the provider's error_description when present, else its error code.
func (e *Error) Message() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// asProviderError converts token endpoint failures into *Error. Anything that
// is not a provider payload is returned unchanged.
func asProviderError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}
	return &Error{Code: re.ErrorCode, Description: re.ErrorDescription, Err: err}
}
