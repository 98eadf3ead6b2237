package upload

import (
	"fmt"
	"strings"

	"github.com/fleetdocs/backend/internal/duplicate"
	"github.com/fleetdocs/backend/internal/extraction"
	"github.com/fleetdocs/backend/internal/storage/models"
	"github.com/fleetdocs/backend/internal/survey"
)

var familyKinds = map[extraction.Family]models.Kind{
	extraction.ShipCertificate:  models.KindShipCertificate,
	extraction.AuditCertificate: models.KindAuditCertificate,
	extraction.AuditReport:      models.KindAuditReport,
}

// KindFor maps an uploadable family to its stored kind. Passports have none.
func KindFor(f extraction.Family) (models.Kind, error) {
	k, ok := familyKinds[f]
	if !ok {
		return "", fmt.Errorf("family %q is not stored", f)
	}
	return k, nil
}

func hasSurveyCycle(f extraction.Family) bool {
	return f == extraction.ShipCertificate || f == extraction.AuditCertificate
}

func documentName(res *extraction.Result) string {
	if res.Family == extraction.AuditReport {
		return res.AuditReportName
	}
	return res.CertName
}

func schedule(res *extraction.Result) *survey.Schedule {
	if !hasSurveyCycle(res.Family) {
		return nil
	}
	s := survey.Compute(survey.Input{
		CertName:        res.CertName,
		CertType:        res.CertType,
		HasAnnualSurvey: res.HasAnnualSurvey,
		LastEndorse:     res.LastEndorse,
		ValidDate:       res.ValidDate,
	})
	return &s
}

func newCertificate(kind models.Kind, ship *models.Ship, res *extraction.Result, sched *survey.Schedule, notes []string) *models.Certificate {
	c := &models.Certificate{
		Kind:      kind,
		ShipID:    ship.ID,
		CompanyID: ship.CompanyID,

		CertName:             res.CertName,
		CertNo:               res.CertNo,
		CertType:             res.CertType,
		IssueDate:            res.IssueDate,
		ValidDate:            res.ValidDate,
		LastEndorse:          res.LastEndorse,
		HasAnnualSurvey:      res.HasAnnualSurvey,
		NextSurvey:           res.NextSurvey,
		NextSurveyType:       res.NextSurveyType,
		IssuedBy:             res.IssuedBy,
		IssuedByAbbreviation: res.IssuedByAbbreviation,
		Category:             res.Category,

		AuditReportName: res.AuditReportName,
		AuditType:       res.AuditType,
		ReportForm:      res.ReportForm,
		AuditReportNo:   res.AuditReportNo,
		AuditorName:     res.AuditorName,
		AuditDate:       res.AuditDate,

		ExtractedShipName: res.ShipName,
		ExtractedIMO:      res.IMONumber,
		ConfidenceScore:   res.ConfidenceScore,
	}

	// The computed schedule always wins over the model's guess, including
	// when it says there is no survey.
	if sched != nil {
		c.NextSurvey, c.NextSurveyType = nil, ""
		if sched.HasSurvey() {
			c.NextSurvey = sched.NextSurvey
			c.NextSurveyType = sched.NextSurveyType
		}
	}

	all := make([]string, 0, len(notes)+1)
	if n := strings.TrimSpace(res.Notes); n != "" {
		all = append(all, n)
	}
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			all = append(all, n)
		}
	}
	c.Notes = strings.Join(all, "\n")
	return c
}

func duplicateFields(res *extraction.Result) duplicate.Fields {
	return duplicate.Fields{
		CertName:  res.CertName,
		CertType:  res.CertType,
		CertNo:    res.CertNo,
		IssuedBy:  res.IssuedBy,
		IssueDate: res.IssueDate,
		ValidDate: res.ValidDate,
	}
}

func duplicateRecords(existing []models.Certificate) []duplicate.Record {
	out := make([]duplicate.Record, 0, len(existing))
	for _, c := range existing {
		out = append(out, duplicate.Record{
			ID: c.ID,
			Fields: duplicate.Fields{
				CertName:  c.CertName,
				CertType:  c.CertType,
				CertNo:    c.CertNo,
				IssuedBy:  c.IssuedBy,
				IssueDate: c.IssueDate,
				ValidDate: c.ValidDate,
			},
		})
	}
	return out
}

func matches(cands []duplicate.Candidate, existing []models.Certificate) []DuplicateMatch {
	byID := make(map[string]*models.Certificate, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}
	out := make([]DuplicateMatch, 0, len(cands))
	for _, c := range cands {
		m := DuplicateMatch{Candidate: c}
		if e, ok := byID[c.CertificateID]; ok {
			m.CertName = e.CertName
			m.CertNo = e.CertNo
			m.FileName = e.FileName
		}
		out = append(out, m)
	}
	return out
}
