package storage

import (
	"context"
	"time"

	"github.com/fleetdocs/backend/internal/storage/models"
	"github.com/fleetdocs/backend/internal/survey"
)

// UpcomingSurveys lists the surveys of a company's certificates that are due
// soon, critical or overdue at now, earliest window close first. Audit reports
// carry no survey cycle and are not scanned.
func UpcomingSurveys(ctx context.Context, certs *Certificates, ships *Ships, companyID string, now time.Time) ([]survey.Entry, error) {
	fleet, err := ships.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(fleet))
	for _, s := range fleet {
		names[s.ID] = s.Name
	}

	entries := []survey.Entry{}
	for _, kind := range []models.Kind{models.KindShipCertificate, models.KindAuditCertificate} {
		list, err := certs.ListByCompany(ctx, kind, companyID)
		if err != nil {
			return nil, err
		}
		for i := range list {
			c := &list[i]
			e, ok := survey.NewEntry(c.Schedule(), now)
			if !ok {
				continue
			}
			e.CertificateID = c.ID
			e.ShipID = c.ShipID
			e.ShipName = names[c.ShipID]
			e.CertName = c.CertName
			e.CertNo = c.CertNo
			entries = append(entries, e)
		}
	}

	survey.SortEntries(entries)
	return entries, nil
}
