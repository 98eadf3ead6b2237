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
	"github.com/fleetdocs/backend/internal/survey"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestUpcomingSurveys(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	certs := storage.NewCertificates(store)
	ships := storage.NewShips(store)

	ship := &models.Ship{Name: "SUNSHINE 01", IMO: "9405136", CompanyID: "co"}
	require.NoError(t, ships.Create(ctx, ship))

	seed := []*models.Certificate{
		{Kind: models.KindShipCertificate, CertName: "due soon", NextSurvey: day(2026, time.July, 15), NextSurveyType: "Annual"},
		{Kind: models.KindShipCertificate, CertName: "critical", NextSurvey: day(2026, time.April, 20), NextSurveyType: "Annual"},
		{Kind: models.KindShipCertificate, CertName: "overdue", NextSurvey: day(2026, time.January, 1), NextSurveyType: "Annual"},
		{Kind: models.KindShipCertificate, CertName: "not open", NextSurvey: day(2027, time.June, 1), NextSurveyType: "Annual"},
		{Kind: models.KindShipCertificate, CertName: "no survey"},
		{Kind: models.KindAuditCertificate, CertName: "audit renewal", NextSurvey: day(2026, time.August, 1), NextSurveyType: "Renewal"},
		{Kind: models.KindAuditReport, AuditReportName: "report"},
	}
	for _, c := range seed {
		c.ShipID = ship.ID
		c.CompanyID = "co"
		require.NoError(t, certs.Create(ctx, c))
	}
	require.NoError(t, certs.Create(ctx, &models.Certificate{
		Kind: models.KindShipCertificate, ShipID: "other", CompanyID: "other-co",
		CertName: "foreign", NextSurvey: day(2026, time.July, 15), NextSurveyType: "Annual",
	}))

	now := time.Date(2026, time.July, 1, 9, 30, 0, 0, time.UTC)
	entries, err := storage.UpcomingSurveys(ctx, certs, ships, "co", now)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.CertName)
		assert.Equal(t, "SUNSHINE 01", e.ShipName)
	}
	assert.Equal(t, []string{"overdue", "critical", "audit renewal", "due soon"}, names)

	assert.Equal(t, survey.StatusOverdue, entries[0].Status)
	assert.True(t, entries[0].IsOverdue)
	assert.Equal(t, survey.StatusCritical, entries[1].Status)
	assert.Equal(t, 19, entries[1].DaysToClose)
	assert.Equal(t, survey.StatusDueSoon, entries[2].Status)
	assert.Equal(t, "01/08/2026 (-3M)", entries[2].Display)
}

func TestUpcomingSurveysEmpty(t *testing.T) {
	store := memory.NewStore()
	entries, err := storage.UpcomingSurveys(context.Background(), storage.NewCertificates(store), storage.NewShips(store), "co", time.Now())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
