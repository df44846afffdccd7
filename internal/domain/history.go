package domain

import (
	"context"
	"log/slog"
	"slices"
)

// HistorySource supplies recent daily records for one region from the
// upstream data layer.
type HistorySource interface {
	StateDaily(ctx context.Context, code string) ([]DailyRecord, error)
}

// MergeRecords combines two record sets for the same region. When both carry a
// record for the same date, the one from incoming wins. The result is newest
// first.
func MergeRecords(existing, incoming []DailyRecord) []DailyRecord {
	byDate := make(map[int]DailyRecord, len(existing)+len(incoming))
	for _, r := range existing {
		byDate[FormatDate(r.Date)] = r
	}
	for _, r := range incoming {
		byDate[FormatDate(r.Date)] = r
	}
	merged := make([]DailyRecord, 0, len(byDate))
	for _, r := range byDate {
		merged = append(merged, r)
	}
	slices.SortFunc(merged, func(a, b DailyRecord) int {
		return b.Date.Compare(a.Date)
	})
	return merged
}

// SeedHistory backfills a region's window from source when it holds fewer than
// WindowDays records. Records already held take precedence over fetched ones.
// If source is nil or the fetch fails, have is returned unchanged.
func SeedHistory(ctx context.Context, code string, have []DailyRecord, source HistorySource, logger *slog.Logger) []DailyRecord {
	if source == nil || len(have) >= WindowDays {
		return have
	}

	fetched, err := source.StateDaily(ctx, code)
	if err != nil {
		logger.Warn("history seed failed",
			"region", code,
			"have", len(have),
			"error", err,
		)
		return have
	}
	if len(fetched) == 0 {
		return have
	}
	return TrailingWindow(MergeRecords(fetched, have), WindowDays)
}

// NationalTotals sums every region's records per date into one series under
// code, newest first. Populations are summed for dates every region reports.
func NationalTotals(code string, history map[string][]DailyRecord) []DailyRecord {
	byDate := make(map[int]*DailyRecord)
	reporting := make(map[int]int)
	for _, records := range history {
		for _, r := range records {
			key := FormatDate(r.Date)
			t, ok := byDate[key]
			if !ok {
				t = &DailyRecord{Date: r.Date, State: code}
				byDate[key] = t
			}
			t.Positive += r.Positive
			t.Negative += r.Negative
			t.PositiveIncrease += r.PositiveIncrease
			t.NegativeIncrease += r.NegativeIncrease
			t.TotalTestResultsIncrease += r.TotalTestResultsIncrease
			t.Pending += r.Pending
			t.Death += r.Death
			t.Population += r.Population
			reporting[key]++
		}
	}

	out := make([]DailyRecord, 0, len(byDate))
	for key, t := range byDate {
		if reporting[key] < len(history) {
			t.Population = 0
		}
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b DailyRecord) int {
		return b.Date.Compare(a.Date)
	})
	return out
}
