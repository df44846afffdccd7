package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock history source ---

type mockHistory struct {
	records []DailyRecord
	err     error
	calls   int
}

func (m *mockHistory) StateDaily(_ context.Context, _ string) ([]DailyRecord, error) {
	m.calls++
	return m.records, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestMergeRecords(t *testing.T) {
	existing := []DailyRecord{day(1, 1, 0), day(2, 2, 0)}
	incoming := []DailyRecord{day(2, 20, 0), day(3, 3, 0)}

	merged := MergeRecords(existing, incoming)
	require.Len(t, merged, 3)
	assert.Equal(t, int64(3), merged[0].PositiveIncrease)
	assert.Equal(t, int64(20), merged[1].PositiveIncrease, "incoming wins on same date")
	assert.Equal(t, int64(1), merged[2].PositiveIncrease)
}

func TestSeedHistory_NilSource(t *testing.T) {
	have := []DailyRecord{day(1, 1, 0)}
	got := SeedHistory(context.Background(), "NY", have, nil, discardLogger())
	assert.Equal(t, have, got)
}

func TestSeedHistory_FullWindowSkipsFetch(t *testing.T) {
	src := &mockHistory{records: positives(9, 9, 9)}
	have := positives(1, 1, 1, 1, 1, 1, 1)

	got := SeedHistory(context.Background(), "NY", have, src, discardLogger())
	assert.Equal(t, have, got)
	assert.Equal(t, 0, src.calls)
}

func TestSeedHistory_FillsWindow(t *testing.T) {
	// fetched covers days 1..8; we already hold a revised day 8.
	fetched := positives(8, 7, 6, 5, 4, 3, 2, 1)
	revised := day(8, 800, 0)
	src := &mockHistory{records: fetched}

	got := SeedHistory(context.Background(), "NY", []DailyRecord{revised}, src, discardLogger())
	require.Len(t, got, WindowDays)
	assert.Equal(t, int64(800), got[0].PositiveIncrease, "held records take precedence")
	assert.Equal(t, int64(2), got[WindowDays-1].PositiveIncrease)
	assert.Equal(t, 1, src.calls)
}

func TestSeedHistory_FetchErrorDegrades(t *testing.T) {
	src := &mockHistory{err: errors.New("connection refused")}
	have := []DailyRecord{day(1, 1, 0)}

	got := SeedHistory(context.Background(), "NY", have, src, discardLogger())
	assert.Equal(t, have, got)
}

func TestSeedHistory_EmptyFetch(t *testing.T) {
	src := &mockHistory{}
	have := []DailyRecord{day(1, 1, 0)}

	got := SeedHistory(context.Background(), "NY", have, src, discardLogger())
	assert.Equal(t, have, got)
}

func TestNationalTotals(t *testing.T) {
	ny1 := day(1, 10, 90)
	ny1.Population, ny1.Death = 100, 1
	ny2 := day(2, 20, 80)
	ny2.Population = 100
	nj1 := day(1, 5, 45)
	nj1.State, nj1.Population, nj1.Death = "NJ", 50, 2

	totals := NationalTotals("US", map[string][]DailyRecord{
		"NY": {ny2, ny1},
		"NJ": {nj1},
	})

	require.Len(t, totals, 2)
	assert.Equal(t, ny2.Date, totals[0].Date, "newest first")
	assert.Equal(t, "US", totals[0].State)
	assert.Equal(t, int64(20), totals[0].PositiveIncrease)
	assert.Zero(t, totals[0].Population, "only NY reported day 2")

	assert.Equal(t, int64(15), totals[1].PositiveIncrease)
	assert.Equal(t, int64(135), totals[1].NegativeIncrease)
	assert.Equal(t, int64(3), totals[1].Death)
	assert.Equal(t, int64(150), totals[1].Population)
}

func TestNationalTotals_Empty(t *testing.T) {
	assert.Empty(t, NationalTotals("US", nil))
}
