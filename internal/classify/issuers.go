package classify

import "strings"

type issuerEntry struct {
	Abbreviation string   `yaml:"abbreviation"`
	Name         string   `yaml:"name"`
	Aliases      []string `yaml:"aliases"`
}

type Issuer struct {
	Name         string
	Abbreviation string
}

// NormalizeIssuer maps a class society or flag administration name, or its bare
// abbreviation, to the canonical name and abbreviation. Unknown names come back
// unchanged with ok=false.
func NormalizeIssuer(name string) (Issuer, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Issuer{}, false
	}
	upper := strings.ToUpper(trimmed)

	for _, e := range load().Issuers {
		if upper == strings.ToUpper(e.Abbreviation) {
			return Issuer{Name: e.Name, Abbreviation: e.Abbreviation}, true
		}
	}

	for _, e := range load().Issuers {
		for _, alias := range e.Aliases {
			if strings.Contains(upper, strings.ToUpper(alias)) {
				return Issuer{Name: e.Name, Abbreviation: e.Abbreviation}, true
			}
		}
	}

	return Issuer{Name: trimmed}, false
}
