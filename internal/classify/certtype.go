package classify

import "strings"

const (
	CertTypeFullTerm    = "Full Term"
	CertTypeInterim     = "Interim"
	CertTypeProvisional = "Provisional"
	CertTypeShortTerm   = "Short term"
	CertTypeConditional = "Conditional"
	CertTypeStatement   = "Statement"
	CertTypeOther       = "Other"
)

var CertTypes = []string{
	CertTypeFullTerm,
	CertTypeInterim,
	CertTypeProvisional,
	CertTypeShortTerm,
	CertTypeConditional,
	CertTypeStatement,
	CertTypeOther,
}

// certTypeKeywords is checked in order; INTERIM must stay first.
var certTypeKeywords = []struct {
	keywords []string
	certType string
}{
	{[]string{"INTERIM"}, CertTypeInterim},
	{[]string{"STATEMENT"}, CertTypeStatement},
	{[]string{"CONDITIONAL", "CONDITION"}, CertTypeConditional},
	{[]string{"SHORT TERM", "SHORT-TERM"}, CertTypeShortTerm},
	{[]string{"PROVISIONAL"}, CertTypeProvisional},
}

// CertTypeFromName derives cert_type from keywords in the certificate name.
func CertTypeFromName(certName string) (string, bool) {
	n := strings.ToUpper(certName)
	if strings.TrimSpace(n) == "" {
		return "", false
	}
	for _, rule := range certTypeKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(n, kw) {
				return rule.certType, true
			}
		}
	}
	return "", false
}

// NormalizeCertType maps free text onto the cert_type enum. Empty input is
// Full Term, unrecognised input is Other.
func NormalizeCertType(value string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	v = strings.NewReplacer("-", " ", "_", " ").Replace(v)

	switch {
	case v == "":
		return CertTypeFullTerm
	case strings.Contains(v, "FULL"), v == "PERMANENT", v == "STANDARD":
		return CertTypeFullTerm
	case strings.Contains(v, "INTERIM"):
		return CertTypeInterim
	case strings.Contains(v, "PROVISIONAL"):
		return CertTypeProvisional
	case strings.Contains(v, "SHORT"):
		return CertTypeShortTerm
	case strings.Contains(v, "CONDITION"):
		return CertTypeConditional
	case strings.Contains(v, "STATEMENT"):
		return CertTypeStatement
	default:
		return CertTypeOther
	}
}

// ResolveCertType applies the name override, falling back to the normalized
// extracted value.
func ResolveCertType(certName, extracted string) string {
	if t, ok := CertTypeFromName(certName); ok {
		return t
	}
	return NormalizeCertType(extracted)
}
