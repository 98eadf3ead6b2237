package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetdocs/backend/internal/dates"
	"github.com/fleetdocs/backend/internal/storage/models"
)

var ErrInvalidPatch = errors.New("invalid update")

func CollectionFor(kind models.Kind) (string, error) {
	switch kind {
	case models.KindShipCertificate:
		return CollectionCertificates, nil
	case models.KindAuditCertificate:
		return CollectionAuditCertificates, nil
	case models.KindAuditReport:
		return CollectionAuditReports, nil
	default:
		return "", fmt.Errorf("unknown certificate kind %q", kind)
	}
}

type fieldType int

const (
	textField fieldType = iota
	dateField
	boolField
	numberField
)

// patchable lists the fields a user may edit and how their JSON values are read.
var patchable = map[string]fieldType{
	"cert_name":              textField,
	"cert_no":                textField,
	"cert_type":              textField,
	"issue_date":             dateField,
	"valid_date":             dateField,
	"last_endorse":           dateField,
	"has_annual_survey":      boolField,
	"next_survey":            dateField,
	"next_survey_type":       textField,
	"issued_by":              textField,
	"issued_by_abbreviation": textField,
	"category":               textField,
	"audit_report_name":      textField,
	"audit_type":             textField,
	"report_form":            textField,
	"audit_report_no":        textField,
	"auditor_name":           textField,
	"audit_date":             dateField,
	"notes":                  textField,
	"confidence_score":       numberField,
	"file_name":              textField,
}

// NormalizePatch validates a user supplied partial update and converts it to
// stored types. Dates accept every format dates.Normalize understands; null
// or "" clears a date.
func NormalizePatch(patch map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		ft, ok := patchable[k]
		if !ok {
			return nil, fmt.Errorf("%w: field %q cannot be updated", ErrInvalidPatch, k)
		}
		switch ft {
		case textField:
			if v == nil {
				out[k] = ""
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidPatch, k)
			}
			out[k] = strings.TrimSpace(s)
		case dateField:
			s, ok := v.(string)
			if v != nil && !ok {
				return nil, fmt.Errorf("%w: %s must be a date string", ErrInvalidPatch, k)
			}
			if strings.TrimSpace(s) == "" {
				out[k] = nil
				continue
			}
			t, ok := dates.Normalize(s)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not a recognised date", ErrInvalidPatch, k)
			}
			out[k] = t
		case boolField:
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a boolean", ErrInvalidPatch, k)
			}
			out[k] = b
		case numberField:
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidPatch, k)
			}
			if f < 0 {
				f = 0
			}
			if f > 1 {
				f = 1
			}
			out[k] = f
		}
	}
	return out, nil
}

type Certificates struct {
	store Store
	now   func() time.Time
}

func NewCertificates(store Store) *Certificates {
	return &Certificates{store: store, now: time.Now}
}

func (r *Certificates) Create(ctx context.Context, c *models.Certificate) error {
	coll, err := CollectionFor(c.Kind)
	if err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	c.CreatedAt = now
	c.UpdatedAt = now
	c.ApplyDerived()
	return r.store.Create(ctx, coll, c)
}

func (r *Certificates) Get(ctx context.Context, kind models.Kind, id string) (*models.Certificate, error) {
	coll, err := CollectionFor(kind)
	if err != nil {
		return nil, err
	}
	var c models.Certificate
	if err := r.store.FindOne(ctx, coll, Filter{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Certificates) ListByShip(ctx context.Context, kind models.Kind, shipID string) ([]models.Certificate, error) {
	return r.list(ctx, kind, Filter{"ship_id": shipID})
}

func (r *Certificates) ListByCompany(ctx context.Context, kind models.Kind, companyID string) ([]models.Certificate, error) {
	return r.list(ctx, kind, Filter{"company_id": companyID})
}

func (r *Certificates) list(ctx context.Context, kind models.Kind, f Filter) ([]models.Certificate, error) {
	coll, err := CollectionFor(kind)
	if err != nil {
		return nil, err
	}
	var out []models.Certificate
	if err := r.store.FindAll(ctx, coll, f, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a normalized partial update and re-derives has_notes and
// next_survey_display when their source fields change.
func (r *Certificates) Update(ctx context.Context, kind models.Kind, id string, fields map[string]any) (*models.Certificate, error) {
	coll, err := CollectionFor(kind)
	if err != nil {
		return nil, err
	}
	current, err := r.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	set := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		set[k] = v
	}

	if notes, ok := fields["notes"]; ok {
		s, _ := notes.(string)
		set["has_notes"] = models.HasNotes(s)
	}

	_, nextChanged := fields["next_survey"]
	_, typeChanged := fields["next_survey_type"]
	if nextChanged || typeChanged {
		next := current.NextSurvey
		if nextChanged {
			next = nil
			if t, ok := fields["next_survey"].(time.Time); ok {
				next = &t
			}
		}
		surveyType := current.NextSurveyType
		if typeChanged {
			surveyType, _ = fields["next_survey_type"].(string)
		}
		set["next_survey_display"] = models.SurveyDisplay(next, surveyType)
	}

	set["updated_at"] = r.now().UTC().Truncate(time.Millisecond)

	if err := r.store.Update(ctx, coll, id, set); err != nil {
		return nil, err
	}
	return r.Get(ctx, kind, id)
}

// Replace overwrites every extracted field of an existing record, keeping its
// id, ship and creation time.
func (r *Certificates) Replace(ctx context.Context, existing, next *models.Certificate) error {
	coll, err := CollectionFor(existing.Kind)
	if err != nil {
		return err
	}
	next.ID = existing.ID
	next.Kind = existing.Kind
	next.ShipID = existing.ShipID
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = r.now().UTC().Truncate(time.Millisecond)
	next.ApplyDerived()

	return r.store.Replace(ctx, coll, existing.ID, next)
}

func (r *Certificates) Delete(ctx context.Context, kind models.Kind, id string) error {
	coll, err := CollectionFor(kind)
	if err != nil {
		return err
	}
	return r.store.Delete(ctx, coll, id)
}
