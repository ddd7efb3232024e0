package report

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// OtherRiskCategory is the bucket for annotations that name no category
const OtherRiskCategory = "Other"

// RiskAnnotation is one risk tag extracted from an analysis payload.
// It is one of TypedRisk, LegacyRisk or UnknownRisk.
type RiskAnnotation interface {
	// CategoryKey returns the histogram bucket for the annotation
	CategoryKey() string
	// SeverityLevel returns the reported severity, or "" when absent
	SeverityLevel() string
	isRiskAnnotation()
}

// TypedRisk is an annotation that carries a "type" field
type TypedRisk struct {
	Type     string
	Severity string
}

func (r TypedRisk) CategoryKey() string   { return r.Type }
func (r TypedRisk) SeverityLevel() string { return r.Severity }
func (TypedRisk) isRiskAnnotation()       {}

// LegacyRisk is an older annotation that only carries "category"
type LegacyRisk struct {
	Category string
	Severity string
}

func (r LegacyRisk) CategoryKey() string   { return r.Category }
func (r LegacyRisk) SeverityLevel() string { return r.Severity }
func (LegacyRisk) isRiskAnnotation()       {}

// UnknownRisk is an annotation with neither field, or not an object at all
type UnknownRisk struct {
	Severity string
}

func (UnknownRisk) CategoryKey() string     { return OtherRiskCategory }
func (r UnknownRisk) SeverityLevel() string { return r.Severity }
func (UnknownRisk) isRiskAnnotation()       {}

// ParseRiskAnnotations extracts annotations from an analysis results payload.
// The payload is either a JSON list of annotations or an object holding that
// list under "risks". Anything else, including an empty or malformed payload,
// yields no annotations.
func ParseRiskAnnotations(payload []byte) []RiskAnnotation {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil
	}

	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
	case '{':
		var envelope struct {
			Risks []json.RawMessage `json:"risks"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil
		}
		items = envelope.Risks
	default:
		return nil
	}

	annotations := make([]RiskAnnotation, 0, len(items))
	for _, item := range items {
		annotations = append(annotations, parseRiskAnnotation(item))
	}
	return annotations
}

func parseRiskAnnotation(raw json.RawMessage) RiskAnnotation {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return UnknownRisk{}
	}

	severity := stringField(fields, "severity")
	if t := stringField(fields, "type"); t != "" {
		return TypedRisk{Type: t, Severity: severity}
	}
	if c := stringField(fields, "category"); c != "" {
		return LegacyRisk{Category: c, Severity: severity}
	}
	return UnknownRisk{Severity: severity}
}

// stringField returns the trimmed string value of key, or "" if it is missing
// or not a string
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// RiskHistogramEntry is the number of annotations observed for one category
type RiskHistogramEntry struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ReduceRiskTaxonomy folds the annotations of every sample into a histogram
// sorted by count descending. Equal counts keep first-seen order.
func ReduceRiskTaxonomy(samples []RiskSample) []RiskHistogramEntry {
	lists := make([][]RiskAnnotation, 0, len(samples))
	for _, s := range samples {
		lists = append(lists, ParseRiskAnnotations(s.Payload))
	}
	return CountRiskCategories(lists...)
}

// CountRiskCategories builds the histogram from already parsed annotation lists
func CountRiskCategories(lists ...[]RiskAnnotation) []RiskHistogramEntry {
	entries := make([]RiskHistogramEntry, 0)
	index := make(map[string]int)

	for _, annotations := range lists {
		for _, a := range annotations {
			key := OtherRiskCategory
			if a != nil {
				key = a.CategoryKey()
			}
			if i, ok := index[key]; ok {
				entries[i].Count++
				continue
			}
			index[key] = len(entries)
			entries = append(entries, RiskHistogramEntry{Category: key, Count: 1})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}
