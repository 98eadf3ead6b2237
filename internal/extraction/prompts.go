package extraction

import (
	"fmt"
	"strings"

	"github.com/fleetdocs/backend/internal/classify"
)

// maxSummaryChars bounds the summary embedded in the prompt.
const maxSummaryChars = 60000

const commonRules = `General rules:
- Return ONLY one JSON object matching the schema below. No markdown, no commentary.
- Use null for any field that is not present in the document. Never invent values.
- Write dates exactly in full text form as printed, e.g. "15 November 2024". Do not convert them to numbers.
- Codes in brackets such as "(07-23)" are form revision codes, never dates.
- imo_number must be exactly 7 digits. Drop the "IMO" label.
- confidence_score is your confidence in the overall extraction, from 0.0 to 1.0.
- The summary may contain "=== PAGES a-b (PART i OF n) ===" markers. Endorsements and annual survey records are usually on the last pages.`

var familyInstructions = map[Family]string{
	ShipCertificate: `You extract fields from maritime ship certificates (class and flag state certificates).
Field rules:
- cert_name: the full certificate title, e.g. "Cargo Ship Safety Construction Certificate".
- cert_no: the certificate number as printed.
- cert_type: one of %s. Priority: if the title contains INTERIM the type is Interim, this overrides STATEMENT; otherwise STATEMENT gives Statement; default Full Term.
- issue_date, valid_date: date of issue and date of expiry.
- last_endorse: the most recent endorsement or annual survey date signed on the certificate, null when none is signed.
- has_annual_survey: true when the certificate has annual or intermediate endorsement boxes.
- next_survey, next_survey_type: only when explicitly printed.
- issued_by: the issuing class society or flag administration, full name.
- issued_by_abbreviation: its usual abbreviation, e.g. "LR", "DNV", "ABS".
- ship_name, imo_number: as printed on the certificate.
- notes: any condition of class, restriction or remark worth keeping.`,

	AuditCertificate: `You extract fields from ISM, ISPS, MLC and CICA audit certificates (Safety Management Certificate, Document of Compliance, International Ship Security Certificate, Maritime Labour Certificate, crew accommodation certificates).
Field rules:
- cert_name: the full certificate title, e.g. "Safety Management Certificate".
- cert_no: the certificate number as printed.
- cert_type: one of %s. Priority: INTERIM overrides STATEMENT, STATEMENT overrides the default Full Term.
- issue_date, valid_date, last_endorse: date of issue, date of expiry, latest intermediate verification.
- has_annual_survey: true when the certificate carries intermediate verification endorsements.
- issued_by, issued_by_abbreviation: the issuing organization and its abbreviation.
- ship_name, imo_number: as printed.
- notes: remarks worth keeping.`,

	AuditReport: `You extract fields from ISM, ISPS, MLC and CICA audit reports.
Field rules:
- audit_report_name: the report title, e.g. "ISM Internal Audit Report".
- audit_type: one of ISM, ISPS, MLC, CICA.
- report_form: the form code printed on the report, e.g. "CG (02-19)".
- audit_report_no: the report number.
- issued_by, issued_by_abbreviation: the company or organization performing the audit.
- audit_date: the date of the audit. A value like "(02-19)" is a report_form, not a date.
- auditor_name: the lead auditor.
- ship_name, imo_number: as printed.
- notes: number of non-conformities and observations, if stated.`,

	Passport: `You extract fields from the data page of a seafarer's passport.
Field rules:
- full_name: surname and given names as printed.
- sex: M or F.
- date_of_birth, place_of_birth, issue_date, expiry_date.
- passport_number: as printed, no spaces.
- nationality: as printed.`,
}

func certTypeEnum() string {
	return `"` + strings.Join(classify.CertTypes, `", "`) + `"`
}

// BuildPrompts returns the system and user prompt for one document.
func BuildPrompts(fam Family, summary, filename string) (string, string) {
	instructions := familyInstructions[fam]
	if strings.Contains(instructions, "%s") {
		instructions = fmt.Sprintf(instructions, certTypeEnum())
	}

	system := strings.Join([]string{
		instructions,
		commonRules,
		"JSON schema (properties):\n" + schemaJSON(fam),
	}, "\n\n")

	s := strings.TrimSpace(summary)
	if len(s) > maxSummaryChars {
		s = s[:maxSummaryChars] + "\n...(truncated)"
	}

	var b strings.Builder
	if fn := strings.TrimSpace(filename); fn != "" {
		b.WriteString("Filename: ")
		b.WriteString(fn)
		b.WriteString("\n\n")
	}
	b.WriteString("Document summary:\n")
	b.WriteString(s)

	return system, b.String()
}
