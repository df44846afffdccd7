package domain

import (
	"errors"
	"fmt"
)

// ErrNoLevel is returned when no severity level of a metric contains a value.
// With a validated metric this only happens for NaN.
var ErrNoLevel = errors.New("no severity level matches value")

// Classify returns the first level of the metric whose interval contains value.
func Classify(metric MetricDefinition, value float64) (SeverityLevel, error) {
	for _, l := range metric.Levels {
		if l.Contains(value) {
			return l, nil
		}
	}
	return SeverityLevel{}, fmt.Errorf("%w: metric %s value %v", ErrNoLevel, metric.ID, value)
}

// LevelGroup holds the statistics that classify into one level.
type LevelGroup struct {
	Level      SeverityLevel     `json:"level"`
	Statistics []RegionStatistic `json:"statistics"`
}

// GroupByLevel partitions statistics by their level under metric. Groups are
// ordered from highest severity to lowest and every level is present, even
// when empty. Within a group, statistics keep their input order.
func GroupByLevel(metric MetricDefinition, stats []RegionStatistic) ([]LevelGroup, error) {
	n := len(metric.Levels)
	groups := make([]LevelGroup, n)
	index := make(map[string]int, n)
	for i, l := range metric.Levels {
		groups[n-1-i] = LevelGroup{Level: l, Statistics: []RegionStatistic{}}
		index[l.ID] = n - 1 - i
	}

	for _, s := range stats {
		l, err := Classify(metric, s.Value)
		if err != nil {
			return nil, fmt.Errorf("group region %s: %w", s.Region, err)
		}
		i := index[l.ID]
		groups[i].Statistics = append(groups[i].Statistics, s)
	}
	return groups, nil
}

// MapView is one metric's statistics grouped for the map legend and the
// per-level region lists.
type MapView struct {
	Metric  MetricDefinition `json:"metric"`
	Groups  []LevelGroup     `json:"groups"`
	Skipped []SkippedRegion  `json:"skipped,omitempty"`
}

// BuildMapView computes metric for every region and groups the results by
// level, highest severity first.
func BuildMapView(metric MetricDefinition, regions []Region, history map[string][]DailyRecord) (MapView, error) {
	comp, err := ComputeStatistics(metric, regions, history)
	if err != nil {
		return MapView{}, err
	}
	groups, err := GroupByLevel(metric, comp.Statistics)
	if err != nil {
		return MapView{}, err
	}
	return MapView{Metric: metric, Groups: groups, Skipped: comp.Skipped}, nil
}
