// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package store

import "time"

// Secret is one stored provider credential, owned by exactly one user.
// At most one Secret exists per (user, service) pair; Save upserts.
type Secret struct {
	ID        string
	UserID    string
	Service   string
	Value     string
	CreatedAt time.Time
}

// Redacted returns a copy with the credential value cleared, safe for
// list responses and logging.
func (s *Secret) Redacted() *Secret {
	out := *s
	out.Value = ""
	return &out
}
