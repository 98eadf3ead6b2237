package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdocs/backend/internal/storage"
	"github.com/fleetdocs/backend/internal/storage/memory"
	"github.com/fleetdocs/backend/internal/storage/models"
)

func newRepo(t *testing.T) *storage.Certificates {
	t.Helper()
	return storage.NewCertificates(memory.NewStore())
}

func TestCertificatesCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	next := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)

	c := &models.Certificate{
		Kind:           models.KindShipCertificate,
		ShipID:         "ship-1",
		CompanyID:      "co-1",
		CertName:       "IOPP Certificate",
		CertNo:         "IOPP-1",
		NextSurvey:     &next,
		NextSurveyType: "Intermediate",
		Notes:          "keep original on board",
	}
	require.NoError(t, repo.Create(ctx, c))
	assert.NotEmpty(t, c.ID)
	assert.True(t, c.HasNotes)
	assert.Equal(t, "15/07/2026 (±6M)", c.NextSurveyDisplay)

	list, err := repo.ListByShip(ctx, models.KindShipCertificate, "ship-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	list, err = repo.ListByShip(ctx, models.KindAuditCertificate, "ship-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.ListByCompany(ctx, models.KindShipCertificate, "co-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCertificatesUpdateRederives(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	next := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)

	c := &models.Certificate{Kind: models.KindShipCertificate, ShipID: "s", CertName: "A", CertNo: "1", NextSurvey: &next, NextSurveyType: "Annual"}
	require.NoError(t, repo.Create(ctx, c))
	assert.Equal(t, "15/07/2026 (±3M)", c.NextSurveyDisplay)

	fields, err := storage.NormalizePatch(map[string]any{"next_survey": "20 August 2027", "notes": "  remark "})
	require.NoError(t, err)
	got, err := repo.Update(ctx, models.KindShipCertificate, c.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, "20/08/2027 (±3M)", got.NextSurveyDisplay)
	assert.True(t, got.HasNotes)
	assert.Equal(t, "remark", got.Notes)
	assert.Equal(t, "A", got.CertName)

	fields, err = storage.NormalizePatch(map[string]any{"next_survey_type": "Renewal"})
	require.NoError(t, err)
	got, err = repo.Update(ctx, models.KindShipCertificate, c.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, "20/08/2027 (-3M)", got.NextSurveyDisplay)

	fields, err = storage.NormalizePatch(map[string]any{"next_survey": nil, "notes": ""})
	require.NoError(t, err)
	got, err = repo.Update(ctx, models.KindShipCertificate, c.ID, fields)
	require.NoError(t, err)
	assert.Nil(t, got.NextSurvey)
	assert.Empty(t, got.NextSurveyDisplay)
	assert.False(t, got.HasNotes)

	_, err = repo.Update(ctx, models.KindShipCertificate, "missing", fields)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNormalizePatch(t *testing.T) {
	tests := []struct {
		name    string
		patch   map[string]any
		wantErr bool
	}{
		{"text", map[string]any{"cert_name": "SMC"}, false},
		{"date", map[string]any{"valid_date": "15/01/2029"}, false},
		{"clear date", map[string]any{"valid_date": ""}, false},
		{"bool", map[string]any{"has_annual_survey": true}, false},
		{"unknown field", map[string]any{"ship_id": "other"}, true},
		{"bad date", map[string]any{"valid_date": "soon"}, true},
		{"date wrong type", map[string]any{"valid_date": 12}, true},
		{"text wrong type", map[string]any{"cert_no": 12}, true},
		{"bool wrong type", map[string]any{"has_annual_survey": "yes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.NormalizePatch(tt.patch)
			if tt.wantErr {
				assert.ErrorIs(t, err, storage.ErrInvalidPatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCertificatesReplaceKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	old := &models.Certificate{Kind: models.KindAuditCertificate, ShipID: "s", CertName: "SMC", CertNo: "1", Notes: "old", StorageFileID: "f-old"}
	require.NoError(t, repo.Create(ctx, old))

	next := &models.Certificate{Kind: models.KindAuditCertificate, ShipID: "other", CertName: "SMC", CertNo: "1", StorageFileID: "f-new"}
	require.NoError(t, repo.Replace(ctx, old, next))

	got, err := repo.Get(ctx, models.KindAuditCertificate, old.ID)
	require.NoError(t, err)
	assert.Equal(t, "s", got.ShipID)
	assert.Equal(t, "f-new", got.StorageFileID)
	assert.False(t, got.HasNotes)
	assert.Empty(t, got.Notes)
	assert.True(t, old.CreatedAt.Equal(got.CreatedAt))
}

func TestCertificatesDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	c := &models.Certificate{Kind: models.KindAuditReport, ShipID: "s", AuditReportName: "ISM audit"}
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.Delete(ctx, models.KindAuditReport, c.ID))

	_, err := repo.Get(ctx, models.KindAuditReport, c.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestShips(t *testing.T) {
	ctx := context.Background()
	ships := storage.NewShips(memory.NewStore())

	s := &models.Ship{Name: "SUNSHINE 01", IMO: "9405136", CompanyID: "co"}
	require.NoError(t, ships.Create(ctx, s))

	got, err := ships.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "9405136", got.IMO)

	list, err := ships.ListByCompany(ctx, "co")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = ships.Get(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
