// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package sqlite_test

import (
	"context"
	"testing"

	"github.com/conduit-dev/conduit/internal/store"
	"github.com/conduit-dev/conduit/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretStore_CRUD(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSecretStore(testDBPath(t, "secrets"))
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	// Save
	sec, err := ss.Save(ctx, "usr-1", "openai", "sk-abc")
	require.NoError(t, err)
	assert.NotEmpty(t, sec.ID)
	assert.Equal(t, "usr-1", sec.UserID)
	assert.Equal(t, "openai", sec.Service)
	assert.Equal(t, "sk-abc", sec.Value)
	assert.False(t, sec.CreatedAt.IsZero())

	// Get
	got, err := ss.Get(ctx, "usr-1", "openai")
	require.NoError(t, err)
	assert.Equal(t, sec.ID, got.ID)
	assert.Equal(t, "sk-abc", got.Value)

	// List
	secrets, err := ss.List(ctx, "usr-1")
	require.NoError(t, err)
	assert.Len(t, secrets, 1)

	// Delete
	err = ss.Delete(ctx, "usr-1", sec.ID)
	require.NoError(t, err)

	_, err = ss.Get(ctx, "usr-1", "openai")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSecretStore_UpsertIdempotence(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSecretStore(testDBPath(t, "upsert"))
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	first, err := ss.Save(ctx, "usr-1", "openai", "A")
	require.NoError(t, err)

	second, err := ss.Save(ctx, "usr-1", "openai", "B")
	require.NoError(t, err)

	// The original row is updated in place, never duplicated.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "B", second.Value)

	secrets, err := ss.List(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "B", secrets[0].Value)
}

func TestSecretStore_PerUserIsolation(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSecretStore(testDBPath(t, "isolation"))
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	secX, err := ss.Save(ctx, "usr-x", "replicate", "r8_xxx")
	require.NoError(t, err)

	// User Y never sees X's rows.
	secrets, err := ss.List(ctx, "usr-y")
	require.NoError(t, err)
	assert.Empty(t, secrets)

	_, err = ss.Get(ctx, "usr-y", "replicate")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// User Y cannot delete X's row, even with a valid ID.
	err = ss.Delete(ctx, "usr-y", secX.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// X's row is untouched.
	got, err := ss.Get(ctx, "usr-x", "replicate")
	require.NoError(t, err)
	assert.Equal(t, "r8_xxx", got.Value)
}

func TestSecretStore_SameServiceDifferentUsers(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSecretStore(testDBPath(t, "multiuser"))
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	_, err = ss.Save(ctx, "usr-a", "openai", "key-a")
	require.NoError(t, err)
	_, err = ss.Save(ctx, "usr-b", "openai", "key-b")
	require.NoError(t, err)

	gotA, err := ss.Get(ctx, "usr-a", "openai")
	require.NoError(t, err)
	gotB, err := ss.Get(ctx, "usr-b", "openai")
	require.NoError(t, err)

	assert.Equal(t, "key-a", gotA.Value)
	assert.Equal(t, "key-b", gotB.Value)
	assert.NotEqual(t, gotA.ID, gotB.ID)
}

func TestSecretStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSecretStore(testDBPath(t, "invalid"))
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	_, err = ss.Save(ctx, "", "openai", "v")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = ss.Save(ctx, "usr-1", "", "v")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = ss.Save(ctx, "usr-1", "openai", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = ss.Get(ctx, "usr-1", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	err = ss.Delete(ctx, "usr-1", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}
