package extraction

import (
	"strconv"
	"time"

	"github.com/fleetdocs/backend/internal/dates"
)

// Result is the typed extraction for one document. Fields that do not apply
// to the family stay zero.
type Result struct {
	Family Family `json:"family"`

	CertName             string     `json:"cert_name,omitempty"`
	CertNo               string     `json:"cert_no,omitempty"`
	CertType             string     `json:"cert_type,omitempty"`
	IssueDate            *time.Time `json:"issue_date,omitempty"`
	ValidDate            *time.Time `json:"valid_date,omitempty"`
	LastEndorse          *time.Time `json:"last_endorse,omitempty"`
	HasAnnualSurvey      bool       `json:"has_annual_survey"`
	NextSurvey           *time.Time `json:"next_survey,omitempty"`
	NextSurveyType       string     `json:"next_survey_type,omitempty"`
	IssuedBy             string     `json:"issued_by,omitempty"`
	IssuedByAbbreviation string     `json:"issued_by_abbreviation,omitempty"`
	ShipName             string     `json:"ship_name,omitempty"`
	IMONumber            string     `json:"imo_number,omitempty"`
	Category             string     `json:"category,omitempty"`
	Notes                string     `json:"notes,omitempty"`

	AuditReportName string     `json:"audit_report_name,omitempty"`
	AuditType       string     `json:"audit_type,omitempty"`
	ReportForm      string     `json:"report_form,omitempty"`
	AuditReportNo   string     `json:"audit_report_no,omitempty"`
	AuditorName     string     `json:"auditor_name,omitempty"`
	AuditDate       *time.Time `json:"audit_date,omitempty"`

	FullName       string     `json:"full_name,omitempty"`
	Sex            string     `json:"sex,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	PlaceOfBirth   string     `json:"place_of_birth,omitempty"`
	PassportNumber string     `json:"passport_number,omitempty"`
	Nationality    string     `json:"nationality,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`

	ConfidenceScore float64 `json:"confidence_score"`

	// Values is the post-processed string form the typed fields were built from.
	Values Values `json:"-"`
}

func newResult(fam Family, v Values) Result {
	date := func(f string) *time.Time { return dates.NormalizePtr(v[f]) }
	conf, _ := strconv.ParseFloat(v[FieldConfidenceScore], 64)

	return Result{
		Family:               fam,
		CertName:             v[FieldCertName],
		CertNo:               v[FieldCertNo],
		CertType:             v[FieldCertType],
		IssueDate:            date(FieldIssueDate),
		ValidDate:            date(FieldValidDate),
		LastEndorse:          date(FieldLastEndorse),
		HasAnnualSurvey:      v[FieldHasAnnualSurvey] == "true",
		NextSurvey:           date(FieldNextSurvey),
		NextSurveyType:       v[FieldNextSurveyType],
		IssuedBy:             v[FieldIssuedBy],
		IssuedByAbbreviation: v[FieldIssuedByAbbreviation],
		ShipName:             v[FieldShipName],
		IMONumber:            v[FieldIMONumber],
		Category:             v[FieldCategory],
		Notes:                v[FieldNotes],
		AuditReportName:      v[FieldAuditReportName],
		AuditType:            v[FieldAuditType],
		ReportForm:           v[FieldReportForm],
		AuditReportNo:        v[FieldAuditReportNo],
		AuditorName:          v[FieldAuditorName],
		AuditDate:            date(FieldAuditDate),
		FullName:             v[FieldFullName],
		Sex:                  v[FieldSex],
		DateOfBirth:          date(FieldDateOfBirth),
		PlaceOfBirth:         v[FieldPlaceOfBirth],
		PassportNumber:       v[FieldPassportNumber],
		Nationality:          v[FieldNationality],
		ExpiryDate:           date(FieldExpiryDate),
		ConfidenceScore:      conf,
		Values:               v,
	}
}

// Missing lists required fields that came back empty.
func (r Result) Missing() []string {
	return r.Values.Missing(r.Family)
}

// Outcome is either an extracted Result or a failure with a reason.
type Outcome struct {
	Result *Result
	Reason string
}

func (o Outcome) Failed() bool {
	return o.Result == nil
}

func failed(reason string) Outcome {
	return Outcome{Reason: reason}
}

func succeeded(r Result) Outcome {
	return Outcome{Result: &r}
}
