package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrUnknownMetric is returned when a metric identifier is not registered.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric identifiers.
const (
	MetricCases           = "cases"
	MetricTests           = "tests"
	MetricPercentPositive = "percent-positive"
)

// LevelTypeNumeric tags levels defined by a numeric interval.
const LevelTypeNumeric = "numeric"

// DeriveFunc computes a metric's scalar from a region's records.
type DeriveFunc func(records []DailyRecord, population int64) (float64, error)

// FormatFunc renders a derived value for display.
type FormatFunc func(value float64) string

// SeverityLevel is one bucket of a metric's value range: the half-open
// interval [Min, Max). An infinite Max is unbounded and also admits +Inf.
type SeverityLevel struct {
	ID    string
	Type  string
	Title string
	Min   float64
	Max   float64
	Style string
}

// Contains reports whether v falls inside the level's interval.
func (l SeverityLevel) Contains(v float64) bool {
	return v >= l.Min && (math.IsInf(l.Max, 1) || v < l.Max)
}

type severityLevelJSON struct {
	ID    string   `json:"id"`
	Type  string   `json:"type"`
	Title string   `json:"title"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Style string   `json:"style"`
}

// MarshalJSON encodes infinite bounds as null.
func (l SeverityLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(severityLevelJSON{
		ID:    l.ID,
		Type:  l.Type,
		Title: l.Title,
		Min:   finiteOrNil(l.Min),
		Max:   finiteOrNil(l.Max),
		Style: l.Style,
	})
}

// UnmarshalJSON decodes null bounds as the matching infinity.
func (l *SeverityLevel) UnmarshalJSON(data []byte) error {
	var v severityLevelJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = SeverityLevel{ID: v.ID, Type: v.Type, Title: v.Title, Style: v.Style, Min: math.Inf(-1), Max: math.Inf(1)}
	if v.Min != nil {
		l.Min = *v.Min
	}
	if v.Max != nil {
		l.Max = *v.Max
	}
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MetricDefinition describes one selectable statistic. Levels are ordered from
// lowest to highest severity.
type MetricDefinition struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Derive   DeriveFunc      `json:"-"`
	Format   FormatFunc      `json:"-"`
	Levels   []SeverityLevel `json:"levels"`
}

// Validate checks that the definition is usable and that its levels partition
// the real line with no gaps and no overlaps.
func (m MetricDefinition) Validate() error {
	if m.ID == "" {
		return errors.New("metric id is required")
	}
	if m.Derive == nil || m.Format == nil {
		return fmt.Errorf("metric %s: derive and format are required", m.ID)
	}
	if len(m.Levels) == 0 {
		return fmt.Errorf("metric %s: no severity levels", m.ID)
	}
	if first := m.Levels[0]; !math.IsInf(first.Min, -1) {
		return fmt.Errorf("metric %s: level %s must start at -Inf", m.ID, first.ID)
	}
	if last := m.Levels[len(m.Levels)-1]; !math.IsInf(last.Max, 1) {
		return fmt.Errorf("metric %s: level %s must end at +Inf", m.ID, last.ID)
	}
	seen := make(map[string]bool, len(m.Levels))
	for i, l := range m.Levels {
		if seen[l.ID] {
			return fmt.Errorf("metric %s: duplicate level %s", m.ID, l.ID)
		}
		seen[l.ID] = true
		if math.IsNaN(l.Min) || math.IsNaN(l.Max) || l.Min >= l.Max {
			return fmt.Errorf("metric %s: level %s has empty interval", m.ID, l.ID)
		}
		if i > 0 && m.Levels[i-1].Max != l.Min {
			return fmt.Errorf("metric %s: levels %s and %s are not contiguous", m.ID, m.Levels[i-1].ID, l.ID)
		}
	}
	return nil
}

// Level returns the level with the given id.
func (m MetricDefinition) Level(id string) (SeverityLevel, bool) {
	for _, l := range m.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return SeverityLevel{}, false
}

var registry = []MetricDefinition{
	{
		ID:       MetricCases,
		Title:    "New COVID-19 cases by state/territory",
		Subtitle: "Seven-day rolling average",
		Derive: func(records []DailyRecord, _ int64) (float64, error) {
			return SevenDayPositiveAverage(records)
		},
		Format: formatCount,
		Levels: levels(
			level("low", "Below 1,000 cases", 1000),
			level("medium", "1,000 to 2,000", 2000),
			level("high", "Above 2,000 cases", math.Inf(1)),
		),
	},
	{
		ID:       MetricTests,
		Title:    "Tests per 100,000 people",
		Subtitle: "Seven-day rolling average",
		Derive:   TestsPer100k,
		Format:   formatCount,
		Levels: levels(
			level("low", "Below 100 tests", 100),
			level("medium", "100 to 250", 250),
			level("high", "Above 250 tests", math.Inf(1)),
		),
	},
	{
		ID:       MetricPercentPositive,
		Title:    "Percent of tests positive",
		Subtitle: "Last seven days",
		Derive: func(records []DailyRecord, _ int64) (float64, error) {
			if len(records) == 0 {
				return 0, ErrEmptyWindow
			}
			return PercentPositive(records), nil
		},
		Format: formatPercent,
		Levels: levels(
			level("low", "Below 5%", 0.05),
			level("medium", "5% to 10%", 0.10),
			level("high", "Above 10%", math.Inf(1)),
		),
	},
}

// level declares a bucket by its upper bound; levels() fills in lower bounds.
func level(id, title string, upper float64) SeverityLevel {
	return SeverityLevel{ID: id, Type: LevelTypeNumeric, Title: title, Max: upper, Style: id}
}

func levels(ls ...SeverityLevel) []SeverityLevel {
	lower := math.Inf(-1)
	for i := range ls {
		ls[i].Min = lower
		lower = ls[i].Max
	}
	return ls
}

// Metrics returns every registered metric in presentation order.
func Metrics() []MetricDefinition {
	out := make([]MetricDefinition, len(registry))
	for i, m := range registry {
		out[i] = m.clone()
	}
	return out
}

// clone copies m with its own Levels slice so callers cannot reach the
// registry's intervals.
func (m MetricDefinition) clone() MetricDefinition {
	m.Levels = slices.Clone(m.Levels)
	return m
}

// LookupMetric returns the metric registered under id.
func LookupMetric(id string) (MetricDefinition, error) {
	for _, m := range registry {
		if m.ID == id {
			return m.clone(), nil
		}
	}
	return MetricDefinition{}, fmt.Errorf("%w: %q", ErrUnknownMetric, id)
}

// ValidateRegistry validates every registered metric.
func ValidateRegistry() error {
	var errs []error
	for _, m := range registry {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func formatCount(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%d", int64(v))
}

func formatPercent(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%.1f%%", v*100)
}
