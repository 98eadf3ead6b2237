package duplicate

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/fleetdocs/backend/internal/dates"
)

const (
	DefaultThreshold = 70.0
	fuzzyNameMinimum = 0.8
)

type Strategy string

const (
	StrategyExact    Strategy = "exact"
	StrategyWeighted Strategy = "weighted"
)

const (
	FieldCertName  = "cert_name"
	FieldCertType  = "cert_type"
	FieldCertNo    = "cert_no"
	FieldIssueDate = "issue_date"
	FieldValidDate = "valid_date"
	FieldIssuedBy  = "issued_by"
)

var Weights = map[string]float64{
	FieldCertName:  0.25,
	FieldCertType:  0.15,
	FieldCertNo:    0.20,
	FieldIssueDate: 0.15,
	FieldValidDate: 0.15,
	FieldIssuedBy:  0.10,
}

type Fields struct {
	CertName  string
	CertType  string
	CertNo    string
	IssuedBy  string
	IssueDate *time.Time
	ValidDate *time.Time
}

type Record struct {
	ID string
	Fields
}

type Candidate struct {
	CertificateID string   `json:"certificate_id"`
	Similarity    float64  `json:"similarity"`
	MatchedFields []string `json:"matched_fields"`
}

type Detector struct {
	threshold            float64
	caseInsensitiveExact bool
}

type Option func(*Detector)

func WithThreshold(t float64) Option {
	return func(d *Detector) {
		if t > 0 {
			d.threshold = t
		}
	}
}

// WithCaseInsensitiveExact makes the exact strategy ignore case and
// surrounding whitespace. The default compares bytes.
func WithCaseInsensitiveExact(enabled bool) Option {
	return func(d *Detector) {
		d.caseInsensitiveExact = enabled
	}
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Detector) Threshold() float64 {
	return d.threshold
}

// FindExact returns the first record with the same cert_name and cert_no.
func (d *Detector) FindExact(f Fields, existing []Record) *Candidate {
	if f.CertName == "" || f.CertNo == "" {
		return nil
	}
	for _, r := range existing {
		if d.exactEqual(f.CertName, r.CertName) && d.exactEqual(f.CertNo, r.CertNo) {
			return &Candidate{
				CertificateID: r.ID,
				Similarity:    100,
				MatchedFields: []string{FieldCertName, FieldCertNo},
			}
		}
	}
	return nil
}

func (d *Detector) exactEqual(a, b string) bool {
	if d.caseInsensitiveExact {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return a == b
}

// FindSimilar scores every record and returns those at or above the
// threshold, best first.
func (d *Detector) FindSimilar(f Fields, existing []Record) []Candidate {
	var out []Candidate
	for _, r := range existing {
		score, matched := Score(f, r.Fields)
		if score >= d.threshold {
			out = append(out, Candidate{
				CertificateID: r.ID,
				Similarity:    score,
				MatchedFields: matched,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

// Score is matched weight over the weight of fields present on both sides,
// scaled to 0..100.
func Score(a, b Fields) (float64, []string) {
	var total, matched float64
	var fields []string

	compare := func(field string, present bool, ratio float64) {
		if !present {
			return
		}
		w := Weights[field]
		total += w
		if ratio > 0 {
			matched += w * ratio
			fields = append(fields, field)
		}
	}

	compare(FieldCertName, a.CertName != "" && b.CertName != "", nameSimilarity(a.CertName, b.CertName))
	compare(FieldCertType, a.CertType != "" && b.CertType != "", boolRatio(strings.EqualFold(strings.TrimSpace(a.CertType), strings.TrimSpace(b.CertType))))
	compare(FieldCertNo, a.CertNo != "" && b.CertNo != "", boolRatio(strings.EqualFold(strings.TrimSpace(a.CertNo), strings.TrimSpace(b.CertNo))))
	compare(FieldIssueDate, a.IssueDate != nil && b.IssueDate != nil, boolRatio(dates.SameDay(a.IssueDate, b.IssueDate)))
	compare(FieldValidDate, a.ValidDate != nil && b.ValidDate != nil, boolRatio(dates.SameDay(a.ValidDate, b.ValidDate)))
	compare(FieldIssuedBy, a.IssuedBy != "" && b.IssuedBy != "", boolRatio(strings.EqualFold(strings.TrimSpace(a.IssuedBy), strings.TrimSpace(b.IssuedBy))))

	if total == 0 {
		return 0, nil
	}
	return math.Round(matched/total*10000) / 100, fields
}

func nameSimilarity(a, b string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1
	}
	ratio := charSetOverlap(a, b)
	if ratio >= fuzzyNameMinimum {
		return ratio
	}
	return 0
}

// charSetOverlap is the Jaccard index of the lowercase letter and digit sets.
func charSetOverlap(a, b string) float64 {
	sa, sb := charSet(a), charSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for r := range sa {
		if _, ok := sb[r]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			set[r] = struct{}{}
		}
	}
	return set
}

func boolRatio(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
