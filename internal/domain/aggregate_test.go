package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// day returns a record dated n days after April 1, 2020.
func day(n int, positive, negative int64) DailyRecord {
	return DailyRecord{
		Date:             time.Date(2020, time.April, 1+n, 0, 0, 0, 0, time.UTC),
		State:            "NY",
		PositiveIncrease: positive,
		NegativeIncrease: negative,
	}
}

func positives(values ...int64) []DailyRecord {
	records := make([]DailyRecord, len(values))
	for i, v := range values {
		records[i] = day(len(values)-i, v, 0) // newest first
	}
	return records
}

func TestAverageField(t *testing.T) {
	t.Run("arithmetic mean without rounding", func(t *testing.T) {
		avg, err := AverageField(positives(1, 2), SelectPositiveIncrease)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, avg, 1e-9)
	})

	t.Run("mean times count equals sum", func(t *testing.T) {
		windows := [][]int64{
			{100, 120, 90, 110, 130, 95, 105},
			{0, 0, 0},
			{-5, 12, 7},
			{1},
			{3, 3, 4, 4, 4},
		}
		for _, values := range windows {
			records := positives(values...)
			var sum float64
			for _, v := range values {
				sum += float64(v)
			}
			avg, err := AverageField(records, SelectPositiveIncrease)
			require.NoError(t, err)
			assert.InDelta(t, sum, avg*float64(len(records)), 1e-9)
		}
	})

	t.Run("empty window", func(t *testing.T) {
		_, err := AverageField(nil, SelectPositiveIncrease)
		assert.ErrorIs(t, err, ErrEmptyWindow)
	})
}

func TestTrailingWindow(t *testing.T) {
	records := []DailyRecord{day(1, 1, 0), day(9, 9, 0), day(5, 5, 0), day(3, 3, 0)}

	window := TrailingWindow(records, 2)
	require.Len(t, window, 2)
	assert.Equal(t, int64(9), window[0].PositiveIncrease)
	assert.Equal(t, int64(5), window[1].PositiveIncrease)

	// input untouched
	assert.Equal(t, int64(1), records[0].PositiveIncrease)

	assert.Len(t, TrailingWindow(records, 10), 4)
	assert.Empty(t, TrailingWindow(nil, WindowDays))
}

func TestSevenDayPositiveAverage(t *testing.T) {
	t.Run("rounds to nearest integer", func(t *testing.T) {
		avg, err := SevenDayPositiveAverage(positives(100, 120, 90, 110, 130, 95, 105))
		require.NoError(t, err)
		assert.Equal(t, 107.0, avg) // 107.142857...
	})

	t.Run("half rounds up", func(t *testing.T) {
		avg, err := SevenDayPositiveAverage(positives(1, 2))
		require.NoError(t, err)
		assert.Equal(t, 2.0, avg)
	})

	t.Run("only the most recent seven days count", func(t *testing.T) {
		avg, err := SevenDayPositiveAverage(positives(7, 7, 7, 7, 7, 7, 7, 7000))
		require.NoError(t, err)
		assert.Equal(t, 7.0, avg)
	})

	t.Run("empty window", func(t *testing.T) {
		_, err := SevenDayPositiveAverage(nil)
		assert.ErrorIs(t, err, ErrEmptyWindow)
	})
}

func TestTestsPer100k(t *testing.T) {
	t.Run("scaled and rounded", func(t *testing.T) {
		// 2,000 tests a day over a population of 1,000,000 = 200 per 100k.
		records := []DailyRecord{day(2, 500, 1500), day(1, 100, 1900)}
		rate, err := TestsPer100k(records, 1_000_000)
		require.NoError(t, err)
		assert.Equal(t, 200.0, rate)
	})

	t.Run("fractional result rounds", func(t *testing.T) {
		records := []DailyRecord{day(1, 0, 1234)}
		rate, err := TestsPer100k(records, 1_000_000)
		require.NoError(t, err)
		assert.Equal(t, 123.0, rate) // 123.4
	})

	t.Run("zero population", func(t *testing.T) {
		_, err := TestsPer100k([]DailyRecord{day(1, 1, 1)}, 0)
		assert.ErrorIs(t, err, ErrNoPopulation)
	})

	t.Run("empty window", func(t *testing.T) {
		_, err := TestsPer100k(nil, 1000)
		assert.ErrorIs(t, err, ErrEmptyWindow)
	})
}

func TestPercentPositive(t *testing.T) {
	t.Run("sums numerators and denominators", func(t *testing.T) {
		// (1 of 100) and (10 of 50): blended 11/150, not the 10.5% mean of ratios.
		records := []DailyRecord{day(2, 1, 99), day(1, 10, 40)}
		got := PercentPositive(records)
		assert.InDelta(t, 11.0/150.0, got, 1e-12)
		assert.Greater(t, math.Abs(got-0.105), 0.01)
	})

	t.Run("no tests returns exactly zero", func(t *testing.T) {
		records := []DailyRecord{day(3, 0, 0), day(2, 0, 0), day(1, 0, 0)}
		assert.Equal(t, 0.0, PercentPositive(records))
	})

	t.Run("empty window returns zero", func(t *testing.T) {
		assert.Equal(t, 0.0, PercentPositive(nil))
	})
}
