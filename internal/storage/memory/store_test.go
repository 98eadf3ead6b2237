package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdocs/backend/internal/storage"
)

type doc struct {
	ID     string     `bson:"_id"`
	ShipID string     `bson:"ship_id"`
	Name   string     `bson:"name"`
	Valid  *time.Time `bson:"valid"`
	Count  int        `bson:"count"`
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	valid := time.Date(2029, time.January, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, "c", doc{ID: "1", ShipID: "s1", Name: "a", Valid: &valid, Count: 3}))
	require.NoError(t, s.Create(ctx, "c", doc{ID: "2", ShipID: "s1", Name: "b"}))
	require.NoError(t, s.Create(ctx, "c", doc{ID: "3", ShipID: "s2", Name: "a"}))
	assert.Error(t, s.Create(ctx, "c", doc{ID: "1"}))

	var got doc
	require.NoError(t, s.FindOne(ctx, "c", storage.Filter{"_id": "1"}, &got))
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 3, got.Count)
	require.NotNil(t, got.Valid)
	assert.True(t, valid.Equal(*got.Valid))

	var all []doc
	require.NoError(t, s.FindAll(ctx, "c", storage.Filter{"ship_id": "s1"}, &all))
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "2", all[1].ID)

	require.NoError(t, s.FindAll(ctx, "c", storage.Filter{"ship_id": "s1", "name": "b"}, &all))
	assert.Len(t, all, 1)

	require.NoError(t, s.FindAll(ctx, "missing", storage.Filter{}, &all))
	assert.Empty(t, all)

	require.NoError(t, s.Update(ctx, "c", "1", map[string]any{"name": "z", "valid": nil}))
	require.NoError(t, s.FindOne(ctx, "c", storage.Filter{"_id": "1"}, &got))
	assert.Equal(t, "z", got.Name)
	assert.Nil(t, got.Valid)
	assert.Equal(t, "s1", got.ShipID)

	require.NoError(t, s.Replace(ctx, "c", "2", doc{ID: "2", ShipID: "s9"}))
	require.NoError(t, s.FindOne(ctx, "c", storage.Filter{"_id": "2"}, &got))
	assert.Equal(t, "s9", got.ShipID)
	assert.Empty(t, got.Name)

	require.NoError(t, s.Delete(ctx, "c", "1"))
	assert.ErrorIs(t, s.FindOne(ctx, "c", storage.Filter{"_id": "1"}, &got), storage.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "c", "1"), storage.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, "c", "1", map[string]any{"name": "x"}), storage.ErrNotFound)
	assert.ErrorIs(t, s.Replace(ctx, "c", "1", doc{ID: "1"}), storage.ErrNotFound)
}

func TestStoreRejectsDocumentWithoutID(t *testing.T) {
	assert.Error(t, NewStore().Create(context.Background(), "c", doc{Name: "x"}))
}
