package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fleetdocs/backend/internal/dates"
)

// Values holds extracted fields as trimmed strings keyed by field name. Dates
// are canonical YYYY-MM-DD, booleans "true"/"false".
type Values map[string]string

var (
	ErrEmptyResponse = errors.New("empty llm response")
	ErrNoJSONObject  = errors.New("no json object in llm response")
)

// StripCodeFences removes markdown fences and any prose around the outermost
// JSON object.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// decodeObject parses the LLM output into a generic object.
func decodeObject(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}
	body := StripCodeFences(raw)
	if !strings.HasPrefix(body, "{") {
		return nil, ErrNoJSONObject
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse llm json: %w", err)
	}
	return obj, nil
}

// coerce keeps the known fields and turns every value into a string.
func coerce(obj map[string]any, fields []string) Values {
	v := make(Values, len(fields))
	for _, f := range fields {
		v[f] = toString(obj[f])
	}
	return v
}

func toString(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "none") {
			return ""
		}
		return s
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// coerceDates normalizes date fields. An audit_date that is really a form
// code moves to report_form when that field is empty.
func coerceDates(v Values, dateFields []string) {
	for _, f := range dateFields {
		raw := v[f]
		if raw == "" {
			continue
		}
		if f == FieldAuditDate && dates.IsFormCode(raw) {
			if v[FieldReportForm] == "" {
				v[FieldReportForm] = raw
			}
			v[f] = ""
			continue
		}
		if t, ok := dates.Normalize(raw); ok {
			v[f] = dates.Format(&t)
		} else {
			v[f] = ""
		}
	}
}

var nonDigits = regexp.MustCompile(`\D`)
var imoLabel = regexp.MustCompile(`(?i)imo`)

// NormalizeIMO keeps exactly seven digits or returns "".
func NormalizeIMO(s string) string {
	d := nonDigits.ReplaceAllString(imoLabel.ReplaceAllString(s, ""), "")
	if len(d) != 7 {
		return ""
	}
	return d
}

// Bare values above percentFloor are read as percentages; those between 1 and
// percentFloor are an overshoot and clamp to 1.
const percentFloor = 1.5

// ClampConfidence reads "0.9", "90%" and "90" as 0.9 and clamps to [0,1].
func ClampConfidence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	pct := strings.HasSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil || math.IsNaN(f) {
		return ""
	}
	if pct || f > percentFloor && f <= 100 {
		f /= 100
	}
	f = math.Max(0, math.Min(1, f))
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func normalizeBool(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return "true"
	default:
		return "false"
	}
}

func normalizeSex(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return "M"
	case "F", "FEMALE":
		return "F"
	default:
		return ""
	}
}

// cleanFields applies the per-field format rules that do not depend on
// other fields.
func cleanFields(fam Family, v Values) {
	if _, ok := v[FieldIMONumber]; ok {
		v[FieldIMONumber] = NormalizeIMO(v[FieldIMONumber])
	}
	if _, ok := v[FieldConfidenceScore]; ok {
		v[FieldConfidenceScore] = ClampConfidence(v[FieldConfidenceScore])
	}
	if _, ok := v[FieldHasAnnualSurvey]; ok {
		v[FieldHasAnnualSurvey] = normalizeBool(v[FieldHasAnnualSurvey])
	}
	if fam == Passport {
		v[FieldPassportNumber] = strings.ToUpper(strings.Join(strings.Fields(v[FieldPassportNumber]), ""))
		v[FieldSex] = normalizeSex(v[FieldSex])
		v[FieldNationality] = strings.ToUpper(v[FieldNationality])
	}
}

func (v Values) empty() bool {
	for k, val := range v {
		if k == FieldConfidenceScore || k == FieldHasAnnualSurvey {
			continue
		}
		if val != "" {
			return false
		}
	}
	return true
}

// Missing lists the required fields of fam that are empty.
func (v Values) Missing(fam Family) []string {
	var out []string
	for _, f := range fam.Required() {
		if strings.TrimSpace(v[f]) == "" {
			out = append(out, f)
		}
	}
	return out
}
