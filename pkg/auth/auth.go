// Package auth builds Authorization header values for the schemes rq
// supports on the command line: Basic and Bearer.
package auth

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ideaspaper/rq/internal/constants"
	"github.com/ideaspaper/rq/internal/httputil"
	"github.com/ideaspaper/rq/pkg/errors"
	"github.com/ideaspaper/rq/pkg/models"
)

// Credentials is a username and password pair.
type Credentials struct {
	Username string
	Password string
}

// ParseBasic splits user:pass on the first colon. The password may itself
// contain colons; a value without any colon is rejected.
func ParseBasic(raw string) (Credentials, error) {
	user, pass, ok := strings.Cut(raw, ":")
	if !ok {
		return Credentials{}, errors.NewBuildError("auth", errors.ErrMalformedAuth, "", fmt.Errorf("expected user:pass"))
	}
	return Credentials{Username: user, Password: pass}, nil
}

// Basic returns the Authorization value for basic credentials given as user:pass.
func Basic(raw string) (string, error) {
	creds, err := ParseBasic(raw)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
	return constants.AuthSchemeBasic + " " + encoded, nil
}

// Bearer returns the Authorization value for a bearer token.
func Bearer(token string) string {
	return constants.AuthSchemeBearer + " " + token
}

// Apply sets the Authorization header from a. Basic is applied first and
// bearer second, so when both are present the bearer header is the one
// that remains.
func Apply(headers map[string]string, a models.Auth) error {
	if a.Basic != "" {
		value, err := Basic(a.Basic)
		if err != nil {
			return err
		}
		httputil.Set(headers, constants.HeaderAuthorization, value)
	}
	if a.Bearer != "" {
		httputil.Set(headers, constants.HeaderAuthorization, Bearer(a.Bearer))
	}
	return nil
}
