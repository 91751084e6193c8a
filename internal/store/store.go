// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package store

import "context"

// SecretStore manages per-user provider credentials. Every operation is
// scoped by the owning user ID so cross-user access is impossible at the
// query level, regardless of caller bugs.
type SecretStore interface {
	// List returns all secrets owned by the user, newest first.
	List(ctx context.Context, userID string) ([]*Secret, error)

	// Get returns the secret for (userID, service).
	// Returns ErrNotFound (via errors.Is) when no row exists.
	Get(ctx context.Context, userID, service string) (*Secret, error)

	// Save upserts the secret for (userID, service): the value is replaced
	// if a row exists, inserted otherwise. The upsert is atomic per row.
	Save(ctx context.Context, userID, service, value string) (*Secret, error)

	// Delete removes a secret by ID, constrained to rows owned by userID.
	// Returns ErrNotFound when no owned row matches.
	Delete(ctx context.Context, userID, id string) error

	// Close releases the underlying resources.
	Close() error
}
