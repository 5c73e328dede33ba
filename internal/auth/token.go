// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoToken is returned when a token source has nothing to offer
var ErrNoToken = errors.New("no bearer token available")

// TokenSource supplies the bearer token used against the documents API.
// Session management lives outside this module; sources only hand out
// whatever token the session provider left for us.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

// Token returns the static token
func (s StaticToken) Token(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// EnvToken reads the token from an environment variable on every call,
// so a rotated token is picked up without a restart
type EnvToken struct {
	Variable string
}

// Token returns the current value of the environment variable
func (e EnvToken) Token(ctx context.Context) (string, error) {
	if e.Variable == "" {
		return "", fmt.Errorf("%w: no environment variable configured", ErrNoToken)
	}
	value := strings.TrimSpace(os.Getenv(e.Variable))
	if value == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoToken, e.Variable)
	}
	return value, nil
}

// TokenFunc adapts a function to a TokenSource
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}
