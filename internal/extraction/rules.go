package extraction

import (
	"regexp"
	"strings"

	"github.com/fleetdocs/backend/internal/classify"
)

// Source derives a candidate value for a field. An empty return means the
// source found nothing.
type Source struct {
	Name   string
	Derive func(v Values, filename string) string
}

// Rule is one post-processing pass over a field. Rules run in table order.
//
// An overriding rule replaces the current value unless an earlier overriding
// rule for the same field already fired. A fallback rule only fills a field
// that is still empty.
type Rule struct {
	Field     string
	Source    Source
	Overrides bool
}

var (
	sourceCertTypeFromName = Source{Name: "cert_name keywords", Derive: func(v Values, _ string) string {
		t, _ := classify.CertTypeFromName(v[FieldCertName])
		return t
	}}
	sourceCertTypeLLM = Source{Name: "normalized llm cert_type", Derive: func(v Values, _ string) string {
		return classify.NormalizeCertType(v[FieldCertType])
	}}
	sourceIssuerName = Source{Name: "issuer dictionary name", Derive: func(v Values, _ string) string {
		if iss, ok := classify.NormalizeIssuer(v[FieldIssuedBy]); ok {
			return iss.Name
		}
		return ""
	}}
	sourceIssuerAbbreviation = Source{Name: "issuer dictionary abbreviation", Derive: func(v Values, _ string) string {
		if iss, ok := classify.NormalizeIssuer(v[FieldIssuedBy]); ok {
			return iss.Abbreviation
		}
		return ""
	}}
	sourceAuditCategory = Source{Name: "audit category from cert_name", Derive: func(v Values, _ string) string {
		cat, _ := classify.Audit().Classify(v[FieldCertName])
		return string(cat)
	}}
	sourceShipCategory = Source{Name: "ship category from cert_name", Derive: func(v Values, _ string) string {
		if v[FieldCertName] == "" {
			return ""
		}
		return string(classify.Ship().ClassifyOrOther(v[FieldCertName]))
	}}
	sourceFilenameReportForm = Source{Name: "filename report form", Derive: func(_ Values, filename string) string {
		return ReportFormFromFilename(filename)
	}}
	sourceFilenameAuditType = Source{Name: "filename audit type", Derive: func(_ Values, filename string) string {
		return AuditTypeFromText(stem(filename))
	}}
	sourceReportFormAuditType = Source{Name: "report_form audit type", Derive: func(v Values, _ string) string {
		return AuditTypeFromText(v[FieldReportForm])
	}}
	sourceReportNameAuditType = Source{Name: "audit_report_name audit type", Derive: func(v Values, _ string) string {
		return AuditTypeFromText(v[FieldAuditReportName])
	}}
	sourceLLMAuditType = Source{Name: "normalized llm audit_type", Derive: func(v Values, _ string) string {
		return AuditTypeFromText(v[FieldAuditType])
	}}
	sourceFilenameReportNo = Source{Name: "filename report number", Derive: func(_ Values, filename string) string {
		return ReportNumberFromFilename(filename)
	}}
)

var certificateRules = []Rule{
	{Field: FieldCertType, Source: sourceCertTypeFromName, Overrides: true},
	{Field: FieldCertType, Source: sourceCertTypeLLM, Overrides: true},
	{Field: FieldIssuedByAbbreviation, Source: sourceIssuerAbbreviation, Overrides: true},
	{Field: FieldIssuedBy, Source: sourceIssuerName, Overrides: true},
}

var shipCertificateRules = append(append([]Rule{}, certificateRules...),
	Rule{Field: FieldCategory, Source: sourceShipCategory, Overrides: true},
)

var auditCertificateRules = append(append([]Rule{}, certificateRules...),
	Rule{Field: FieldCategory, Source: sourceAuditCategory, Overrides: true},
)

var auditReportRules = []Rule{
	{Field: FieldIssuedByAbbreviation, Source: sourceIssuerAbbreviation, Overrides: true},
	{Field: FieldIssuedBy, Source: sourceIssuerName, Overrides: true},
	{Field: FieldReportForm, Source: sourceFilenameReportForm, Overrides: true},
	{Field: FieldAuditType, Source: sourceFilenameAuditType, Overrides: true},
	{Field: FieldAuditType, Source: sourceReportFormAuditType, Overrides: true},
	{Field: FieldAuditType, Source: sourceReportNameAuditType, Overrides: true},
	{Field: FieldAuditType, Source: sourceLLMAuditType, Overrides: true},
	{Field: FieldAuditReportNo, Source: sourceFilenameReportNo, Overrides: false},
}

var passportRules []Rule

// Applied records which source set a field, for logging and tests.
type Applied struct {
	Field  string
	Source string
}

// ApplyRules runs the table over v in place.
func ApplyRules(rules []Rule, v Values, filename string) []Applied {
	claimed := make(map[string]bool)
	var applied []Applied

	for _, r := range rules {
		if r.Overrides && claimed[r.Field] {
			continue
		}
		if !r.Overrides && strings.TrimSpace(v[r.Field]) != "" {
			continue
		}
		val := strings.TrimSpace(r.Source.Derive(v, filename))
		if val == "" {
			continue
		}
		v[r.Field] = val
		claimed[r.Field] = true
		applied = append(applied, Applied{Field: r.Field, Source: r.Source.Name})
	}
	return applied
}

var reportFormPatterns = []*regexp.Regexp{
	// "(CG 02-19)"
	regexp.MustCompile(`\(([A-Za-z]{1,6})[\s_-]*(\d{2})[-/.](\d{2})\)`),
	// "CG (02-19)", "CG(02-19)"
	regexp.MustCompile(`(?:^|[^A-Za-z])([A-Za-z]{1,6})[\s_]*\((\d{2})[-/.](\d{2})\)`),
	// "CG 02-19", "CG_02-19"
	regexp.MustCompile(`(?:^|[^A-Za-z])([A-Za-z]{1,6})[\s_]+(\d{2})-(\d{2})(?:$|[^0-9-])`),
}

// ReportFormFromFilename finds a form code such as "CG (02-19)" in a filename.
func ReportFormFromFilename(filename string) string {
	s := stem(filename)
	for _, re := range reportFormPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return strings.ToUpper(m[1]) + " (" + m[2] + "-" + m[3] + ")"
		}
	}
	return ""
}

var reportNumberPattern = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:report[\s_-]*no|rpt[\s_-]*no|ref)\.?[\s_#:-]*([a-z0-9][a-z0-9/-]*\d[a-z0-9/-]*)`)

func ReportNumberFromFilename(filename string) string {
	if m := reportNumberPattern.FindStringSubmatch(stem(filename)); m != nil {
		return strings.ToUpper(strings.Trim(m[1], "-/"))
	}
	return ""
}

var auditTypeTokens = map[string]classify.Category{
	"ISM":  classify.ISM,
	"ISPS": classify.ISPS,
	"MLC":  classify.MLC,
	"CICA": classify.CICA,
}

// AuditTypeFromText matches whole tokens, so "ISPS" never yields ISM.
func AuditTypeFromText(text string) string {
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "CREW ACCOMMODATION") {
		return string(classify.CICA)
	}
	tokens := strings.FieldsFunc(upper, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	for _, tok := range tokens {
		if cat, ok := auditTypeTokens[tok]; ok {
			return string(cat)
		}
	}
	return ""
}

func stem(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}
