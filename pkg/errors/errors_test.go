// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := conduiterr.New(
		conduiterr.CodeRelaySecretNotFound,
		"no stored key",
		conduiterr.FieldUserID("usr-123"),
		conduiterr.FieldService("openai"),
	)

	require.Error(t, err)
	assert.Equal(t, conduiterr.CodeRelaySecretNotFound, conduiterr.CodeOf(err))
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeRelaySecretNotFound))

	fields := conduiterr.FieldsOf(err)
	assert.Equal(t, "usr-123", fields["user_id"])
	assert.Equal(t, "openai", fields["service"])
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := conduiterr.Errorf(conduiterr.CodeRelayServiceInvalid, "unknown service %q", "midjourney")
	require.Error(t, err)
	assert.Equal(t, conduiterr.CodeRelayServiceInvalid, conduiterr.CodeOf(err))
	assert.Contains(t, err.Error(), `unknown service "midjourney"`)
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := conduiterr.Errorf(conduiterr.CodeStoreDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, conduiterr.CodeStoreDatabaseFailure, conduiterr.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Wrap / Wrapf
// ---------------------------------------------------------------------------

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("record missing")
	err := conduiterr.Wrap(
		root,
		conduiterr.CodeStoreSecretNotFound,
		"loading secret",
		conduiterr.FieldService("replicate"),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, conduiterr.CodeStoreSecretNotFound, conduiterr.CodeOf(err))
	assert.True(t, conduiterr.IsNotFound(err))
	assert.Equal(t, "replicate", conduiterr.FieldsOf(err)["service"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, conduiterr.Wrap(nil, conduiterr.CodeServerInternalFailure, "ignored"))
	assert.NoError(t, conduiterr.Wrapf(nil, conduiterr.CodeServerInternalFailure, "ignored %s", "arg"))
}

// ---------------------------------------------------------------------------
// Classifiers
// ---------------------------------------------------------------------------

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", conduiterr.New(conduiterr.CodeRelaySecretNotFound, "x"), conduiterr.IsNotFound, true},
		{"invalid input", conduiterr.New(conduiterr.CodeRelayServiceInvalid, "x"), conduiterr.IsInvalidInput, true},
		{"unauthorized", conduiterr.New(conduiterr.CodeRelayAuthUnauthorized, "x"), conduiterr.IsUnauthorized, true},
		{"auth missing is unauthorized", conduiterr.New(conduiterr.CodeRelayAuthMissing, "x"), conduiterr.IsUnauthorized, true},
		{"upstream", conduiterr.New(conduiterr.CodeRelayUpstreamFailure, "x"), conduiterr.IsUpstreamFailure, true},
		{"plain error is nothing", stderrors.New("plain"), conduiterr.IsNotFound, false},
		{"nil error", nil, conduiterr.IsUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestCodeOfNonOopsError(t *testing.T) {
	assert.Equal(t, conduiterr.Code(""), conduiterr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, conduiterr.Code(""), conduiterr.CodeOf(nil))
}

// ---------------------------------------------------------------------------
// HTTPStatus
// ---------------------------------------------------------------------------

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code conduiterr.Code
		want int
	}{
		{conduiterr.CodeRelaySecretNotFound, http.StatusNotFound},
		{conduiterr.CodeRelayServiceInvalid, http.StatusBadRequest},
		{conduiterr.CodeRelayAuthMissing, http.StatusUnauthorized},
		{conduiterr.CodeRelayAuthUnauthorized, http.StatusUnauthorized},
		{conduiterr.CodeServerAuthForbidden, http.StatusForbidden},
		{conduiterr.CodeStoreConflict, http.StatusConflict},
		{conduiterr.CodeRelayUpstreamFailure, http.StatusBadGateway},
		{conduiterr.CodeServerInternalFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := conduiterr.New(tt.code, "boom")
			assert.Equal(t, tt.want, conduiterr.HTTPStatus(err))
		})
	}
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	err := conduiterr.Join(a, b)

	require.Error(t, err)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
	assert.Equal(t, conduiterr.CodeServerInternalFailure, conduiterr.CodeOf(err))
}
