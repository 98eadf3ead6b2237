package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fleetdocs/backend/internal/survey"
)

func TestApplyDerived(t *testing.T) {
	next := time.Date(2029, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		cert        Certificate
		wantNotes   bool
		wantDisplay string
	}{
		{"annual", Certificate{NextSurvey: &next, NextSurveyType: "Annual", Notes: "CoC open"}, true, "15/01/2029 (±3M)"},
		{"renewal", Certificate{NextSurvey: &next, NextSurveyType: "Renewal"}, false, "15/01/2029 (-3M)"},
		{"intermediate", Certificate{NextSurvey: &next, NextSurveyType: "Intermediate", Notes: "   "}, false, "15/01/2029 (±6M)"},
		{"cleared", Certificate{NextSurveyType: "Annual", NextSurveyDisplay: "stale"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cert
			c.ApplyDerived()
			assert.Equal(t, tt.wantNotes, c.HasNotes)
			assert.Equal(t, tt.wantDisplay, c.NextSurveyDisplay)
		})
	}
}

func TestSchedule(t *testing.T) {
	next := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)
	c := Certificate{NextSurvey: &next, NextSurveyType: "Intermediate"}

	s := c.Schedule()
	assert.Equal(t, survey.KindIntermediate, s.Kind)
	assert.Equal(t, time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), *s.WindowOpen)
	assert.Equal(t, time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC), *s.WindowClose)

	assert.False(t, (&Certificate{}).Schedule().HasSurvey())
}
