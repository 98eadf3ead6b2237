package models

import (
	"strings"
	"time"

	"github.com/fleetdocs/backend/internal/survey"
)

type Kind string

const (
	KindShipCertificate  Kind = "certificate"
	KindAuditCertificate Kind = "audit_certificate"
	KindAuditReport      Kind = "audit_report"
)

type Ship struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	IMO       string    `bson:"imo" json:"imo"`
	CompanyID string    `bson:"company_id" json:"company_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Certificate is one stored certificate or audit report of a ship.
type Certificate struct {
	ID        string `bson:"_id" json:"id"`
	Kind      Kind   `bson:"kind" json:"kind"`
	ShipID    string `bson:"ship_id" json:"ship_id"`
	CompanyID string `bson:"company_id" json:"company_id"`

	CertName             string     `bson:"cert_name,omitempty" json:"cert_name,omitempty"`
	CertNo               string     `bson:"cert_no,omitempty" json:"cert_no,omitempty"`
	CertType             string     `bson:"cert_type,omitempty" json:"cert_type,omitempty"`
	IssueDate            *time.Time `bson:"issue_date" json:"issue_date"`
	ValidDate            *time.Time `bson:"valid_date" json:"valid_date"`
	LastEndorse          *time.Time `bson:"last_endorse" json:"last_endorse"`
	HasAnnualSurvey      bool       `bson:"has_annual_survey" json:"has_annual_survey"`
	NextSurvey           *time.Time `bson:"next_survey" json:"next_survey"`
	NextSurveyType       string     `bson:"next_survey_type" json:"next_survey_type"`
	NextSurveyDisplay    string     `bson:"next_survey_display" json:"next_survey_display"`
	IssuedBy             string     `bson:"issued_by,omitempty" json:"issued_by,omitempty"`
	IssuedByAbbreviation string     `bson:"issued_by_abbreviation,omitempty" json:"issued_by_abbreviation,omitempty"`
	Category             string     `bson:"category,omitempty" json:"category,omitempty"`

	AuditReportName string     `bson:"audit_report_name,omitempty" json:"audit_report_name,omitempty"`
	AuditType       string     `bson:"audit_type,omitempty" json:"audit_type,omitempty"`
	ReportForm      string     `bson:"report_form,omitempty" json:"report_form,omitempty"`
	AuditReportNo   string     `bson:"audit_report_no,omitempty" json:"audit_report_no,omitempty"`
	AuditorName     string     `bson:"auditor_name,omitempty" json:"auditor_name,omitempty"`
	AuditDate       *time.Time `bson:"audit_date,omitempty" json:"audit_date,omitempty"`

	ExtractedShipName string  `bson:"extracted_ship_name,omitempty" json:"extracted_ship_name,omitempty"`
	ExtractedIMO      string  `bson:"extracted_imo,omitempty" json:"extracted_imo,omitempty"`
	ConfidenceScore   float64 `bson:"confidence_score" json:"confidence_score"`

	Notes    string `bson:"notes" json:"notes"`
	HasNotes bool   `bson:"has_notes" json:"has_notes"`

	StorageFileID string `bson:"storage_file_id" json:"storage_file_id"`
	FileName      string `bson:"file_name" json:"file_name"`
	FolderPath    string `bson:"folder_path,omitempty" json:"folder_path,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ApplyDerived recomputes has_notes and next_survey_display from their
// source fields. Call it before every write.
func (c *Certificate) ApplyDerived() {
	c.HasNotes = HasNotes(c.Notes)
	c.NextSurveyDisplay = SurveyDisplay(c.NextSurvey, c.NextSurveyType)
}

func HasNotes(notes string) bool {
	return strings.TrimSpace(notes) != ""
}

func SurveyDisplay(next *time.Time, surveyType string) string {
	if next == nil {
		return ""
	}
	return survey.DisplayString(next, survey.KindForSurveyType(surveyType))
}

// Schedule rebuilds the survey schedule stored on the record.
func (c *Certificate) Schedule() survey.Schedule {
	if c.NextSurvey == nil {
		return survey.Schedule{Kind: survey.KindNone}
	}
	kind := survey.KindForSurveyType(c.NextSurveyType)
	open, close := survey.Window(*c.NextSurvey, kind)
	return survey.Schedule{
		NextSurvey:     c.NextSurvey,
		NextSurveyType: c.NextSurveyType,
		Kind:           kind,
		WindowOpen:     &open,
		WindowClose:    &close,
	}
}
