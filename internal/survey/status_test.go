package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	s := build(*day(2026, time.July, 15), TypeIntermediate, KindIntermediate)
	// window 2026-01-15 .. 2027-01-15

	tests := []struct {
		name string
		now  *time.Time
		want Status
	}{
		{"too early", day(2025, time.December, 1), StatusNotYetOpen},
		{"window opens", day(2026, time.January, 15), StatusDueSoon},
		{"inside", day(2026, time.August, 1), StatusDueSoon},
		{"thirty days out", day(2026, time.December, 16), StatusCritical},
		{"last day", day(2027, time.January, 15), StatusCritical},
		{"overdue", day(2027, time.January, 16), StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(s, *tt.now))
		})
	}
}

func TestEvaluateNoSurvey(t *testing.T) {
	assert.Equal(t, StatusNone, Evaluate(Schedule{Kind: KindNone}, time.Now()))
}

func TestFlagsAreExclusive(t *testing.T) {
	for _, st := range []Status{StatusOverdue, StatusCritical, StatusDueSoon, StatusNotYetOpen, StatusNone} {
		f := st.Flags()
		n := 0
		for _, b := range []bool{f.IsOverdue, f.IsCritical, f.IsDueSoon} {
			if b {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1, st)
	}
}

func TestNewEntryExcludesNotYetOpen(t *testing.T) {
	s := build(*day(2026, time.July, 15), TypeIntermediate, KindIntermediate)

	_, ok := NewEntry(s, *day(2025, time.June, 1))
	assert.False(t, ok)

	e, ok := NewEntry(s, *day(2026, time.December, 26))
	require.True(t, ok)
	assert.Equal(t, StatusCritical, e.Status)
	assert.True(t, e.IsCritical)
	assert.Equal(t, 20, e.DaysToClose)
	assert.Equal(t, "15/07/2026 (±6M)", e.Display)
}

func TestSortEntries(t *testing.T) {
	entries := []Entry{
		{CertificateID: "late", WindowClose: day(2027, 1, 1)},
		{CertificateID: "early", WindowClose: day(2026, 1, 1)},
	}
	SortEntries(entries)
	assert.Equal(t, "early", entries[0].CertificateID)
}
