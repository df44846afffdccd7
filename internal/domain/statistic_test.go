package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRegions = []Region{
	{Code: "NY", Name: "New York", Population: 19_453_561},
	{Code: "GU", Name: "Guam"},
	{Code: "VT", Name: "Vermont", Population: 623_989},
	{Code: "DC", Name: "District of Columbia", Population: 705_749},
}

func TestComputeStatistics_Cases(t *testing.T) {
	history := map[string][]DailyRecord{
		"NY": positives(100, 120, 90, 110, 130, 95, 105),
		"GU": positives(1000, 1000, 1000, 1000, 1000, 1000, 1000),
		"VT": positives(2500),
	}

	comp, err := ComputeStatistics(casesMetric(t), testRegions, history)
	require.NoError(t, err)

	require.Len(t, comp.Statistics, 3)
	assert.Equal(t, MetricCases, comp.Metric)

	ny := comp.Statistics[0]
	assert.Equal(t, "NY", ny.Region)
	assert.Equal(t, "New York", ny.Name)
	assert.Equal(t, 107.0, ny.Value)
	assert.Equal(t, "107", ny.Display)
	assert.Equal(t, "low", ny.Level.ID)
	assert.Equal(t, "/data/state/new-york", ny.Link)

	gu := comp.Statistics[1]
	assert.Equal(t, 1000.0, gu.Value)
	assert.Equal(t, "1,000", gu.Display)
	assert.Equal(t, "medium", gu.Level.ID)

	assert.Equal(t, "high", comp.Statistics[2].Level.ID)

	assert.Equal(t, []SkippedRegion{{Region: "DC", Reason: "no data"}}, comp.Skipped)
}

func TestComputeStatistics_TestsSkipsRegionWithoutPopulation(t *testing.T) {
	m, err := LookupMetric(MetricTests)
	require.NoError(t, err)

	history := map[string][]DailyRecord{
		"NY": {day(1, 1000, 19000)},
		"GU": {day(1, 10, 90)},
	}
	comp, err := ComputeStatistics(m, testRegions, history)
	require.NoError(t, err)

	require.Len(t, comp.Statistics, 1)
	assert.Equal(t, "NY", comp.Statistics[0].Region)
	assert.Equal(t, 103.0, comp.Statistics[0].Value) // 20,000 / 19,453,561 * 100k = 102.8

	require.Len(t, comp.Skipped, 3)
	assert.Equal(t, "GU", comp.Skipped[0].Region)
	assert.Contains(t, comp.Skipped[0].Reason, ErrNoPopulation.Error())
}

func TestComputeStatistics_RecordPopulationWins(t *testing.T) {
	m, err := LookupMetric(MetricTests)
	require.NoError(t, err)

	rec := day(1, 0, 1000)
	rec.Population = 100_000
	comp, err := ComputeStatistics(m, []Region{{Code: "GU", Name: "Guam"}}, map[string][]DailyRecord{"GU": {rec}})
	require.NoError(t, err)
	require.Len(t, comp.Statistics, 1)
	assert.Equal(t, 1000.0, comp.Statistics[0].Value)
}

func TestComputeStatistics_MisconfiguredMetricFails(t *testing.T) {
	m := casesMetric(t)
	m.Levels = levels(level("only", "only", 10)) // nothing above 10

	_, err := ComputeStatistics(m, testRegions[:1], map[string][]DailyRecord{"NY": positives(5000)})
	assert.ErrorIs(t, err, ErrNoLevel)
}

func TestBuildSnapshot(t *testing.T) {
	fixed := time.Date(2020, time.May, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	records := []DailyRecord{day(1, 1, 99), day(2, 10, 40), day(3, 100, 900)}
	snap, err := BuildSnapshot(testRegions[0], records, Metrics())
	require.NoError(t, err)

	assert.Equal(t, "NY", snap.Region)
	assert.Equal(t, "/data/state/new-york", snap.Link)
	assert.Equal(t, 3, snap.Days)
	assert.Equal(t, day(1, 0, 0).Date, snap.WindowStart)
	assert.Equal(t, day(3, 0, 0).Date, snap.WindowEnd)
	assert.Equal(t, fixed, snap.ComputedAt)
	assert.Empty(t, snap.Unavailable)
	require.Len(t, snap.Statistics, 3)

	pct, ok := snap.Statistic(MetricPercentPositive)
	require.True(t, ok)
	assert.InDelta(t, 111.0/1150.0, pct.Value, 1e-12)
	assert.Equal(t, "medium", pct.Level.ID)

	_, ok = snap.Statistic("deaths")
	assert.False(t, ok)
}

func TestBuildSnapshot_UnavailableMetric(t *testing.T) {
	snap, err := BuildSnapshot(testRegions[1], []DailyRecord{day(1, 5, 5)}, Metrics())
	require.NoError(t, err)

	require.Len(t, snap.Unavailable, 1)
	assert.Equal(t, MetricTests, snap.Unavailable[0].Metric)
	assert.Len(t, snap.Statistics, 2)
}

func TestBuildSnapshot_EmptyWindow(t *testing.T) {
	_, err := BuildSnapshot(testRegions[0], nil, Metrics())
	assert.ErrorIs(t, err, ErrEmptyWindow)
}
