// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package identity

import "context"

// User is the resolved identity of an authenticated caller. Sessions are
// issued and managed by an external identity provider; the relay only
// consumes the resolution outcome.
type User struct {
	ID    string
	Name  string
	Email string
}

// Verifier validates a bearer credential and resolves it to a user.
// Implementations return an error carrying CodeIdentityTokenUnauthorized
// when the credential is present but rejected.
type Verifier interface {
	ResolveUser(ctx context.Context, token string) (*User, error)
}
