// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = StaticToken("  ").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestEnvToken(t *testing.T) {
	t.Setenv("MIMIR_GRAPH_TEST_TOKEN", " secret ")

	token, err := EnvToken{Variable: "MIMIR_GRAPH_TEST_TOKEN"}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	t.Setenv("MIMIR_GRAPH_TEST_TOKEN", "")
	_, err = EnvToken{Variable: "MIMIR_GRAPH_TEST_TOKEN"}.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = EnvToken{}.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenFunc(t *testing.T) {
	boom := errors.New("session expired")
	src := TokenFunc(func(ctx context.Context) (string, error) { return "", boom })

	_, err := src.Token(context.Background())
	assert.ErrorIs(t, err, boom)
}
