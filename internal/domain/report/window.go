package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/contractiq/backend/internal/domain/shared"
)

// PeriodKey selects how a report window is derived from "now"
type PeriodKey string

const (
	PeriodWeek    PeriodKey = "week"
	PeriodMonth   PeriodKey = "month"
	PeriodQuarter PeriodKey = "quarter"
	PeriodYear    PeriodKey = "year"
	PeriodCustom  PeriodKey = "custom"
)

// PeriodKeys lists every supported period key
var PeriodKeys = []PeriodKey{PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodCustom}

// IsValid reports whether the key is one of the supported period keys
func (p PeriodKey) IsValid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodCustom:
		return true
	}
	return false
}

// ParsePeriodKey parses a period selector. An empty selector means month.
func ParsePeriodKey(s string) (PeriodKey, error) {
	if s == "" {
		return PeriodMonth, nil
	}
	key := PeriodKey(strings.ToLower(strings.TrimSpace(s)))
	if !key.IsValid() {
		return "", shared.ErrInvalidWindow.WithMessage(fmt.Sprintf("unknown period %q", s))
	}
	return key, nil
}

// CustomWindowPolicy decides what happens to a custom window missing a bound
type CustomWindowPolicy string

const (
	// CustomWindowFallbackMonth resolves an incomplete custom window as month
	CustomWindowFallbackMonth CustomWindowPolicy = "fallback_month"
	// CustomWindowReject rejects an incomplete custom window
	CustomWindowReject CustomWindowPolicy = "reject"
)

// IsValid reports whether the policy is known
func (p CustomWindowPolicy) IsValid() bool {
	return p == CustomWindowFallbackMonth || p == CustomWindowReject
}

// ReportWindow is the concrete instant range a report covers.
// Start is never after End.
type ReportWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Period PeriodKey `json:"period"`
}

// Contains reports whether t falls inside the window, both bounds inclusive
func (w ReportWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Location returns the location calendar days are bucketed in
func (w ReportWindow) Location() *time.Location {
	if loc := w.End.Location(); loc != nil {
		return loc
	}
	return time.UTC
}

// WindowRequest is the caller-supplied window selector
type WindowRequest struct {
	Period PeriodKey
	Start  *time.Time
	End    *time.Time
}

// Validate checks the request before any data is fetched
func (r WindowRequest) Validate(policy CustomWindowPolicy) error {
	if !r.Period.IsValid() {
		return shared.ErrInvalidWindow.WithMessage(fmt.Sprintf("unknown period %q", r.Period))
	}
	if r.Period != PeriodCustom {
		return nil
	}
	if r.Start == nil || r.End == nil {
		if policy == CustomWindowReject {
			return shared.ErrInvalidWindow.WithMessage("custom period requires both start and end")
		}
		return nil
	}
	if r.Start.After(*r.End) {
		return shared.ErrInvalidWindow.WithMessage("start must not be after end")
	}
	return nil
}

// Resolve maps the request to a window anchored at now
func (r WindowRequest) Resolve(now time.Time) ReportWindow {
	return ResolveWindow(r.Period, now, r.Start, r.End)
}

// ResolveWindow maps a period key to a concrete window anchored at now.
// It never fails: a custom window missing either bound resolves as month, and
// inverted custom bounds are returned unchanged for the caller to reject.
func ResolveWindow(period PeriodKey, now time.Time, customStart, customEnd *time.Time) ReportWindow {
	loc := now.Location()
	y, m, _ := now.Date()

	switch period {
	case PeriodWeek:
		return ReportWindow{Start: now.AddDate(0, 0, -7), End: now, Period: PeriodWeek}
	case PeriodQuarter:
		first := time.Month((int(m)-1)/3*3 + 1)
		return ReportWindow{Start: time.Date(y, first, 1, 0, 0, 0, 0, loc), End: now, Period: PeriodQuarter}
	case PeriodYear:
		return ReportWindow{Start: time.Date(y, time.January, 1, 0, 0, 0, 0, loc), End: now, Period: PeriodYear}
	case PeriodCustom:
		if customStart != nil && customEnd != nil {
			return ReportWindow{Start: *customStart, End: *customEnd, Period: PeriodCustom}
		}
	}

	// month, and the custom fallback
	return ReportWindow{Start: time.Date(y, m, 1, 0, 0, 0, 0, loc), End: now, Period: PeriodMonth}
}
