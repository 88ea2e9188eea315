// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/expertdial/pkg/commons"
)

// ============================================================================
// Memory store
// ============================================================================

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "CA404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore()
	record := Record{StreamSid: "CA123", Transcript: "hello there", Summary: "a greeting"}

	require.NoError(t, store.Save(context.Background(), record))

	got, err := store.Get(context.Background(), "CA123")
	require.NoError(t, err)
	assert.Equal(t, record, *got)
}

func TestMemoryStore_SaveOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{StreamSid: "CA123", Summary: "first"}))
	require.NoError(t, store.Save(ctx, Record{StreamSid: "CA123", Summary: "second"}))

	got, err := store.Get(ctx, "CA123")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Summary)
}

// ============================================================================
// Postgres store (backed by sqlite in tests)
// ============================================================================

type testConnector struct {
	db *gorm.DB
}

func (c *testConnector) DB(ctx context.Context) *gorm.DB { return c.db.WithContext(ctx) }
func (c *testConnector) Ping(ctx context.Context) error  { return nil }

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)

	store, err := NewPostgresStore(&testConnector{db: db}, logger)
	require.NoError(t, err)
	return store
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "CA404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	record := Record{StreamSid: "CA123", Transcript: "hello there", Summary: "a greeting"}

	require.NoError(t, store.Save(ctx, record))

	got, err := store.Get(ctx, "CA123")
	require.NoError(t, err)
	assert.Equal(t, record, *got)
}

func TestPostgresStore_SaveUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{StreamSid: "CA123", Transcript: "v1", Summary: "first"}))
	require.NoError(t, store.Save(ctx, Record{StreamSid: "CA123", Transcript: "v2", Summary: "second"}))

	got, err := store.Get(ctx, "CA123")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Transcript)
	assert.Equal(t, "second", got.Summary)
}
