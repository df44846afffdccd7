package domain

import (
	"errors"
	"fmt"
	"time"
)

// RegionStatistic is one region's derived value for one metric.
type RegionStatistic struct {
	Region  string        `json:"region"`
	Name    string        `json:"name"`
	Metric  string        `json:"metric"`
	Value   float64       `json:"value"`
	Display string        `json:"display"`
	Level   SeverityLevel `json:"level"`
	Link    string        `json:"link"`
}

// SkippedRegion records why a region has no statistic.
type SkippedRegion struct {
	Region string `json:"region"`
	Reason string `json:"reason"`
}

// UnavailableMetric records why a snapshot has no statistic for a metric.
type UnavailableMetric struct {
	Metric string `json:"metric"`
	Reason string `json:"reason"`
}

// Computation is the result of one recompute pass for one metric.
type Computation struct {
	Metric     string            `json:"metric"`
	Statistics []RegionStatistic `json:"statistics"`
	Skipped    []SkippedRegion   `json:"skipped,omitempty"`
}

// ComputeStatistics derives, formats, and classifies metric for every region,
// in region order. Regions missing from history or whose derivation fails are
// skipped rather than failing the pass. The only error returned is a
// classification failure, which indicates a misconfigured metric.
func ComputeStatistics(metric MetricDefinition, regions []Region, history map[string][]DailyRecord) (Computation, error) {
	out := Computation{Metric: metric.ID, Statistics: make([]RegionStatistic, 0, len(regions))}
	for _, region := range regions {
		records := history[region.Code]
		if len(records) == 0 {
			out.Skipped = append(out.Skipped, SkippedRegion{Region: region.Code, Reason: "no data"})
			continue
		}
		stat, err := computeStatistic(metric, region, TrailingWindow(records, WindowDays))
		switch {
		case errors.Is(err, ErrNoLevel):
			return Computation{}, err
		case err != nil:
			out.Skipped = append(out.Skipped, SkippedRegion{Region: region.Code, Reason: err.Error()})
			continue
		}
		out.Statistics = append(out.Statistics, stat)
	}
	return out, nil
}

// computeStatistic expects window to be newest first.
func computeStatistic(metric MetricDefinition, region Region, window []DailyRecord) (RegionStatistic, error) {
	value, err := metric.Derive(window, populationOf(region, window))
	if err != nil {
		return RegionStatistic{}, fmt.Errorf("derive %s: %w", metric.ID, err)
	}
	level, err := Classify(metric, value)
	if err != nil {
		return RegionStatistic{}, err
	}
	return RegionStatistic{
		Region:  region.Code,
		Name:    region.Name,
		Metric:  metric.ID,
		Value:   value,
		Display: metric.Format(value),
		Level:   level,
		Link:    region.Link(),
	}, nil
}

// populationOf prefers the population reported with the newest record.
func populationOf(region Region, window []DailyRecord) int64 {
	if len(window) > 0 && window[0].Population > 0 {
		return window[0].Population
	}
	return region.Population
}

// RegionSnapshot is every metric's statistic for one region, computed from one
// trailing window.
type RegionSnapshot struct {
	Region      string              `json:"region"`
	Name        string              `json:"name"`
	Link        string              `json:"link"`
	WindowStart time.Time           `json:"window_start"`
	WindowEnd   time.Time           `json:"window_end"`
	Days        int                 `json:"days"`
	Statistics  []RegionStatistic   `json:"statistics"`
	Unavailable []UnavailableMetric `json:"unavailable,omitempty"`
	ComputedAt  time.Time           `json:"computed_at"`
}

// Statistic returns the snapshot's statistic for metric.
func (s RegionSnapshot) Statistic(metric string) (RegionStatistic, bool) {
	for _, st := range s.Statistics {
		if st.Metric == metric {
			return st, true
		}
	}
	return RegionStatistic{}, false
}

// BuildSnapshot computes every metric for region. Metrics that cannot be
// derived are listed in Unavailable.
func BuildSnapshot(region Region, records []DailyRecord, metrics []MetricDefinition) (RegionSnapshot, error) {
	window := TrailingWindow(records, WindowDays)
	if len(window) == 0 {
		return RegionSnapshot{}, fmt.Errorf("snapshot %s: %w", region.Code, ErrEmptyWindow)
	}

	snap := RegionSnapshot{
		Region:      region.Code,
		Name:        region.Name,
		Link:        region.Link(),
		WindowStart: window[len(window)-1].Date,
		WindowEnd:   window[0].Date,
		Days:        len(window),
		Statistics:  make([]RegionStatistic, 0, len(metrics)),
		ComputedAt:  clock.Now().UTC(),
	}
	for _, m := range metrics {
		stat, err := computeStatistic(m, region, window)
		switch {
		case errors.Is(err, ErrNoLevel):
			return RegionSnapshot{}, err
		case err != nil:
			snap.Unavailable = append(snap.Unavailable, UnavailableMetric{Metric: m.ID, Reason: err.Error()})
			continue
		}
		snap.Statistics = append(snap.Statistics, stat)
	}
	return snap, nil
}
