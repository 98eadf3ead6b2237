package survey

import (
	"sort"
	"time"
)

type Status string

const (
	StatusOverdue    Status = "overdue"
	StatusCritical   Status = "critical"
	StatusDueSoon    Status = "due_soon"
	StatusNotYetOpen Status = "not_yet_open"
	StatusNone       Status = "none"
)

// CriticalPeriod is how close to window_close a survey becomes critical.
const CriticalPeriod = 30 * 24 * time.Hour

type Flags struct {
	IsOverdue  bool `json:"is_overdue"`
	IsCritical bool `json:"is_critical"`
	IsDueSoon  bool `json:"is_due_soon"`
}

// Evaluate derives the status of a schedule at now. It is never stored.
func Evaluate(s Schedule, now time.Time) Status {
	if !s.HasSurvey() || s.WindowOpen == nil || s.WindowClose == nil {
		return StatusNone
	}
	open, close := startOfDay(*s.WindowOpen), startOfDay(*s.WindowClose)
	today := startOfDay(now)

	switch {
	case today.After(close):
		return StatusOverdue
	case today.Before(open):
		return StatusNotYetOpen
	case close.Sub(today) <= CriticalPeriod:
		return StatusCritical
	default:
		return StatusDueSoon
	}
}

func (st Status) Flags() Flags {
	return Flags{
		IsOverdue:  st == StatusOverdue,
		IsCritical: st == StatusCritical,
		IsDueSoon:  st == StatusDueSoon,
	}
}

// Upcoming reports whether the status belongs in an upcoming-surveys listing.
// Surveys whose window has not opened yet are left out.
func (st Status) Upcoming() bool {
	return st == StatusOverdue || st == StatusCritical || st == StatusDueSoon
}

type Entry struct {
	CertificateID  string     `json:"certificate_id"`
	ShipID         string     `json:"ship_id"`
	ShipName       string     `json:"ship_name,omitempty"`
	CertName       string     `json:"cert_name"`
	CertNo         string     `json:"cert_no,omitempty"`
	NextSurvey     *time.Time `json:"next_survey"`
	NextSurveyType string     `json:"next_survey_type"`
	Display        string     `json:"next_survey_display"`
	WindowOpen     *time.Time `json:"window_open"`
	WindowClose    *time.Time `json:"window_close"`
	Status         Status     `json:"status"`
	DaysToClose    int        `json:"days_to_close"`
	Flags
}

func NewEntry(s Schedule, now time.Time) (Entry, bool) {
	st := Evaluate(s, now)
	if !st.Upcoming() {
		return Entry{}, false
	}
	days := int(startOfDay(*s.WindowClose).Sub(startOfDay(now)).Hours() / 24)
	return Entry{
		NextSurvey:     s.NextSurvey,
		NextSurveyType: s.NextSurveyType,
		Display:        s.Display(),
		WindowOpen:     s.WindowOpen,
		WindowClose:    s.WindowClose,
		Status:         st,
		DaysToClose:    days,
		Flags:          st.Flags(),
	}, true
}

// SortEntries orders by window close, earliest first.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].WindowClose.Before(*entries[j].WindowClose)
	})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
