//go:build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fleetdocs/backend/internal/storage"
	"github.com/fleetdocs/backend/internal/storage/models"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx,
		"mongo:7",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Waiting for connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	s, err := NewStore(ctx, uri, "fleetdocs_test", 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func TestMongoCertificateLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewCertificates(setupStore(t))
	valid := time.Date(2029, time.January, 15, 0, 0, 0, 0, time.UTC)

	c := &models.Certificate{
		Kind:      models.KindShipCertificate,
		ShipID:    "ship-1",
		CompanyID: "co-1",
		CertName:  "Cargo Ship Safety Construction Certificate",
		CertNo:    "LR-1",
		ValidDate: &valid,
	}
	require.NoError(t, repo.Create(ctx, c))

	list, err := repo.ListByShip(ctx, models.KindShipCertificate, "ship-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, valid.Equal(*list[0].ValidDate))

	fields, err := storage.NormalizePatch(map[string]any{"notes": "condition of class"})
	require.NoError(t, err)
	got, err := repo.Update(ctx, models.KindShipCertificate, c.ID, fields)
	require.NoError(t, err)
	assert.True(t, got.HasNotes)

	require.NoError(t, repo.Delete(ctx, models.KindShipCertificate, c.ID))
	_, err = repo.Get(ctx, models.KindShipCertificate, c.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, models.KindShipCertificate, c.ID), storage.ErrNotFound)
}
