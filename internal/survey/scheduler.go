package survey

import (
	"fmt"
	"strings"
	"time"

	"github.com/fleetdocs/backend/internal/classify"
	"github.com/fleetdocs/backend/internal/dates"
)

type WindowKind string

const (
	// KindNone means the certificate has no survey cycle.
	KindNone WindowKind = "none"
	// KindBeforeOnly is initial and renewal surveys: -3M, no forward tolerance.
	KindBeforeOnly WindowKind = "initial_renewal"
	// KindIntermediate is the first-interval intermediate survey: ±6M.
	KindIntermediate WindowKind = "intermediate"
	// KindOther is every other surveyable certificate: ±3M.
	KindOther WindowKind = "other"
)

const (
	TypeInitial      = "Initial"
	TypeRenewal      = "Renewal"
	TypeIntermediate = "Intermediate"
	TypeAnnual       = "Annual"
	TypePeriodical   = "Periodical"
)

type tolerance struct {
	before int
	after  int
	label  string
}

var tolerances = map[WindowKind]tolerance{
	KindBeforeOnly:   {before: 3, after: 0, label: "(-3M)"},
	KindIntermediate: {before: 6, after: 6, label: "(±6M)"},
	KindOther:        {before: 3, after: 3, label: "(±3M)"},
}

// specialDocuments never carry a survey date.
var specialDocuments = []string{
	"DMLC",
	"DECLARATION OF MARITIME LABOUR COMPLIANCE",
	"DECLARATION OF MARITIME LABOR COMPLIANCE",
	"SHIP SECURITY PLAN",
	"SSP",
	"STATEMENT OF FACT",
}

type Input struct {
	CertName        string
	CertType        string
	HasAnnualSurvey bool
	LastEndorse     *time.Time
	ValidDate       *time.Time
}

type Schedule struct {
	NextSurvey     *time.Time `json:"next_survey"`
	NextSurveyType string     `json:"next_survey_type"`
	Kind           WindowKind `json:"window_kind"`
	WindowOpen     *time.Time `json:"window_open"`
	WindowClose    *time.Time `json:"window_close"`
}

func (s Schedule) HasSurvey() bool {
	return s.Kind != KindNone && s.NextSurvey != nil
}

func (s Schedule) Display() string {
	return DisplayString(s.NextSurvey, s.Kind)
}

func none() Schedule {
	return Schedule{Kind: KindNone}
}

// Compute picks exactly one rule per certificate, in this order: missing
// validity, special documents, Interim, Short term, Full Term with and without
// endorsement, then everything else.
func Compute(in Input) Schedule {
	if in.ValidDate == nil {
		return none()
	}
	if isSpecialDocument(in.CertName) {
		return none()
	}

	certType := classify.NormalizeCertType(in.CertType)
	valid := *in.ValidDate

	switch {
	case certType == classify.CertTypeInterim:
		return build(dates.AddMonths(valid, -3), TypeInitial, KindBeforeOnly)
	case certType == classify.CertTypeShortTerm:
		return none()
	case certType == classify.CertTypeStatement:
		return none()
	case certType == classify.CertTypeFullTerm && in.LastEndorse != nil:
		return build(dates.AddMonths(valid, -3), TypeRenewal, KindBeforeOnly)
	case certType == classify.CertTypeFullTerm:
		return build(dates.AddMonths(valid, -30), TypeIntermediate, KindIntermediate)
	default:
		surveyType := TypePeriodical
		if in.HasAnnualSurvey {
			surveyType = TypeAnnual
		}
		return build(dates.AddMonths(valid, -3), surveyType, KindOther)
	}
}

func build(next time.Time, surveyType string, kind WindowKind) Schedule {
	open, close := Window(next, kind)
	return Schedule{
		NextSurvey:     &next,
		NextSurveyType: surveyType,
		Kind:           kind,
		WindowOpen:     &open,
		WindowClose:    &close,
	}
}

func Window(next time.Time, kind WindowKind) (time.Time, time.Time) {
	tol, ok := tolerances[kind]
	if !ok {
		return next, next
	}
	return dates.AddMonths(next, -tol.before), dates.AddMonths(next, tol.after)
}

// KindForSurveyType recovers the window kind of a stored next_survey_type,
// used when a record is edited by hand.
func KindForSurveyType(surveyType string) WindowKind {
	switch strings.ToLower(strings.TrimSpace(surveyType)) {
	case "":
		return KindOther
	case "initial", "renewal":
		return KindBeforeOnly
	case "intermediate":
		return KindIntermediate
	default:
		return KindOther
	}
}

// DisplayString renders "15/01/2029 (±3M)", or "" when there is no date.
func DisplayString(next *time.Time, kind WindowKind) string {
	if next == nil || kind == KindNone {
		return ""
	}
	tol, ok := tolerances[kind]
	if !ok {
		return dates.Display(next)
	}
	return fmt.Sprintf("%s %s", dates.Display(next), tol.label)
}

func isSpecialDocument(certName string) bool {
	n := strings.ToUpper(certName)
	for _, kw := range specialDocuments {
		if containsWord(n, kw) {
			return true
		}
	}
	return false
}

// containsWord matches kw on word boundaries so "SSP" does not hit "ASSPECT".
func containsWord(s, kw string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], kw)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(kw)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z'
}
