package extraction

type Family string

const (
	ShipCertificate  Family = "ship_certificate"
	AuditCertificate Family = "audit_certificate"
	AuditReport      Family = "audit_report"
	Passport         Family = "passport"
)

const (
	FieldCertName             = "cert_name"
	FieldCertNo               = "cert_no"
	FieldCertType             = "cert_type"
	FieldIssueDate            = "issue_date"
	FieldValidDate            = "valid_date"
	FieldLastEndorse          = "last_endorse"
	FieldHasAnnualSurvey      = "has_annual_survey"
	FieldNextSurvey           = "next_survey"
	FieldNextSurveyType       = "next_survey_type"
	FieldIssuedBy             = "issued_by"
	FieldIssuedByAbbreviation = "issued_by_abbreviation"
	FieldShipName             = "ship_name"
	FieldIMONumber            = "imo_number"
	FieldConfidenceScore      = "confidence_score"
	FieldCategory             = "category"
	FieldNotes                = "notes"

	FieldAuditReportName = "audit_report_name"
	FieldAuditType       = "audit_type"
	FieldReportForm      = "report_form"
	FieldAuditReportNo   = "audit_report_no"
	FieldAuditorName     = "auditor_name"
	FieldAuditDate       = "audit_date"

	FieldFullName       = "full_name"
	FieldSex            = "sex"
	FieldDateOfBirth    = "date_of_birth"
	FieldPlaceOfBirth   = "place_of_birth"
	FieldPassportNumber = "passport_number"
	FieldNationality    = "nationality"
	FieldExpiryDate     = "expiry_date"
)

type familyProfile struct {
	fields     []string
	dateFields []string
	required   []string
	hint       string
	rules      []Rule
}

var certificateFields = []string{
	FieldCertName, FieldCertNo, FieldCertType, FieldIssueDate, FieldValidDate,
	FieldLastEndorse, FieldHasAnnualSurvey, FieldNextSurvey, FieldNextSurveyType,
	FieldIssuedBy, FieldIssuedByAbbreviation, FieldShipName, FieldIMONumber,
	FieldConfidenceScore, FieldNotes,
}

var families = map[Family]familyProfile{
	ShipCertificate: {
		fields:     certificateFields,
		dateFields: []string{FieldIssueDate, FieldValidDate, FieldLastEndorse, FieldNextSurvey},
		required:   []string{FieldCertName, FieldCertNo},
		hint:       "ship_certificate",
		rules:      shipCertificateRules,
	},
	AuditCertificate: {
		fields:     certificateFields,
		dateFields: []string{FieldIssueDate, FieldValidDate, FieldLastEndorse, FieldNextSurvey},
		required:   []string{FieldCertName, FieldCertNo},
		hint:       "audit_certificate",
		rules:      auditCertificateRules,
	},
	AuditReport: {
		fields: []string{
			FieldAuditReportName, FieldAuditType, FieldReportForm, FieldAuditReportNo,
			FieldIssuedBy, FieldIssuedByAbbreviation, FieldAuditDate, FieldAuditorName,
			FieldShipName, FieldIMONumber, FieldNotes, FieldConfidenceScore,
		},
		dateFields: []string{FieldAuditDate},
		required:   []string{FieldAuditReportName},
		hint:       "audit_report",
		rules:      auditReportRules,
	},
	Passport: {
		fields: []string{
			FieldFullName, FieldSex, FieldDateOfBirth, FieldPlaceOfBirth, FieldPassportNumber,
			FieldNationality, FieldIssueDate, FieldExpiryDate, FieldConfidenceScore,
		},
		dateFields: []string{FieldDateOfBirth, FieldIssueDate, FieldExpiryDate},
		required:   []string{FieldPassportNumber},
		hint:       "passport",
		rules:      passportRules,
	},
}

func (f Family) Valid() bool {
	_, ok := families[f]
	return ok
}

// Hint is the document type passed to OCR.
func (f Family) Hint() string {
	return families[f].hint
}

// Required lists the fields a result needs before it can be persisted.
func (f Family) Required() []string {
	return families[f].required
}

func (f Family) profile() familyProfile {
	return families[f]
}
