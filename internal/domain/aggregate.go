package domain

import (
	"errors"
	"math"
	"slices"
)

// WindowDays is the length of the trailing window every statistic uses.
const WindowDays = 7

var (
	// ErrEmptyWindow is returned when a derivation receives no records.
	ErrEmptyWindow = errors.New("empty record window")
	// ErrNoPopulation is returned by rate metrics for regions without a population.
	ErrNoPopulation = errors.New("population is zero or missing")
)

// FieldSelector picks the value of one counter from a record.
type FieldSelector func(DailyRecord) float64

// SelectPositiveIncrease selects new positive results.
func SelectPositiveIncrease(r DailyRecord) float64 { return float64(r.PositiveIncrease) }

// SelectTestResults selects new positive plus new negative results.
func SelectTestResults(r DailyRecord) float64 {
	return float64(r.PositiveIncrease + r.NegativeIncrease)
}

// TrailingWindow returns the n most recent records, newest first. The input
// slice is not modified. Records sharing a date keep their input order.
func TrailingWindow(records []DailyRecord, n int) []DailyRecord {
	window := slices.Clone(records)
	slices.SortStableFunc(window, func(a, b DailyRecord) int {
		return b.Date.Compare(a.Date)
	})
	if n >= 0 && len(window) > n {
		window = window[:n]
	}
	return window
}

// AverageField returns the arithmetic mean of the selected field. No rounding
// is applied.
func AverageField(records []DailyRecord, field FieldSelector) (float64, error) {
	if len(records) == 0 {
		return 0, ErrEmptyWindow
	}
	var total float64
	for _, r := range records {
		total += field(r)
	}
	return total / float64(len(records)), nil
}

// SevenDayPositiveAverage returns the mean daily new positives over the
// trailing window, rounded to the nearest integer.
func SevenDayPositiveAverage(records []DailyRecord) (float64, error) {
	avg, err := AverageField(TrailingWindow(records, WindowDays), SelectPositiveIncrease)
	if err != nil {
		return 0, err
	}
	return roundHalfUp(avg), nil
}

// TestsPer100k returns mean daily tests over the trailing window per 100,000
// residents, rounded to the nearest integer.
func TestsPer100k(records []DailyRecord, population int64) (float64, error) {
	if population <= 0 {
		return 0, ErrNoPopulation
	}
	avg, err := AverageField(TrailingWindow(records, WindowDays), SelectTestResults)
	if err != nil {
		return 0, err
	}
	return roundHalfUp(avg / float64(population) * 100_000), nil
}

// PercentPositive returns the share of tests that came back positive across
// the trailing window, as a fraction in [0, 1] for well-formed data.
//
// Positives and totals are summed before dividing so that high-volume days
// weigh more than low-volume ones. A window with no tests returns 0.
func PercentPositive(records []DailyRecord) float64 {
	var positive, total float64
	for _, r := range TrailingWindow(records, WindowDays) {
		positive += float64(r.PositiveIncrease)
		total += SelectTestResults(r)
	}
	if total == 0 {
		return 0
	}
	return positive / total
}

// roundHalfUp rounds .5 toward positive infinity, matching how the map has
// always displayed averages.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
