package report

import (
	"sort"
	"time"
)

// UsageDayLayout is the ISO date layout used for usage day keys
const UsageDayLayout = "2006-01-02"

// UsageDay holds per-action usage counts for one calendar day
type UsageDay struct {
	Day     string           `json:"day"`
	Actions map[string]int64 `json:"actions"`
}

// UsageTimeSeries is a day-keyed usage histogram ordered by ascending day
type UsageTimeSeries []UsageDay

// Total returns the count of action across all days
func (s UsageTimeSeries) Total(action string) int64 {
	var total int64
	for _, d := range s {
		total += d.Actions[action]
	}
	return total
}

// Day returns the counts for the given day key, or nil
func (s UsageTimeSeries) Day(day string) map[string]int64 {
	for _, d := range s {
		if d.Day == day {
			return d.Actions
		}
	}
	return nil
}

// BuildUsageSeries buckets store-grouped usage tuples by calendar day in loc.
// Tuples sharing a (day, action) pair are summed, so the result does not
// depend on input order.
func BuildUsageSeries(tuples []UsageTuple, loc *time.Location) UsageTimeSeries {
	if loc == nil {
		loc = time.UTC
	}

	byDay := make(map[string]map[string]int64)
	for _, t := range tuples {
		day := t.OccurredAt.In(loc).Format(UsageDayLayout)
		actions, ok := byDay[day]
		if !ok {
			actions = make(map[string]int64)
			byDay[day] = actions
		}
		if t.Count > 0 {
			actions[t.Action] += t.Count
		} else if _, seen := actions[t.Action]; !seen {
			actions[t.Action] = 0
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	// ISO dates sort lexically
	sort.Strings(days)

	series := make(UsageTimeSeries, 0, len(days))
	for _, day := range days {
		series = append(series, UsageDay{Day: day, Actions: byDay[day]})
	}
	return series
}
