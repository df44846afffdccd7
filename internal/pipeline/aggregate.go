package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/observability"
)

// WindowAggregator implements Aggregator over a WindowStore. Partial windows
// are backfilled once per region from an optional history source.
//
// Aggregate is called from the pipeline goroutine only.
type WindowAggregator struct {
	regions   RegionLookup
	metrics   []domain.MetricDefinition
	windows   *WindowStore
	snapshots *SnapshotStore
	history   domain.HistorySource
	seeded    map[string]bool
	logger    *slog.Logger
	obs       *observability.Metrics
}

// NewAggregator creates a WindowAggregator. Pass a nil history source to
// disable seeding.
func NewAggregator(regions RegionLookup, metrics []domain.MetricDefinition, windows *WindowStore, snapshots *SnapshotStore, history domain.HistorySource, logger *slog.Logger, obs *observability.Metrics) *WindowAggregator {
	return &WindowAggregator{
		regions:   regions,
		metrics:   metrics,
		windows:   windows,
		snapshots: snapshots,
		history:   history,
		seeded:    make(map[string]bool),
		logger:    logger,
		obs:       obs,
	}
}

func (a *WindowAggregator) Aggregate(ctx context.Context, records []domain.DailyRecord) []domain.RegionSnapshot {
	byRegion := make(map[string][]domain.DailyRecord)
	var order []string
	for _, rec := range records {
		if _, ok := byRegion[rec.State]; !ok {
			order = append(order, rec.State)
		}
		byRegion[rec.State] = append(byRegion[rec.State], rec)
	}

	out := make([]domain.RegionSnapshot, 0, len(order))
	for _, code := range order {
		region, err := a.regions.Lookup(code)
		if err != nil {
			a.logger.Warn("aggregate skipped unknown region", "region", code, "error", err)
			continue
		}

		window := a.windows.Merge(code, byRegion[code])
		if !a.seeded[code] && len(window) < domain.WindowDays && a.history != nil {
			a.seeded[code] = true
			seeded := domain.SeedHistory(ctx, code, window, a.history, a.logger)
			if len(seeded) > len(window) {
				window = a.windows.Merge(code, seeded)
				a.logger.Debug("window seeded from history", "region", code, "days", len(window))
			}
		}

		snap, err := domain.BuildSnapshot(region, window, a.metrics)
		if err != nil {
			a.logger.Error("build snapshot failed", "region", code, "error", err)
			a.obs.TransformErrors.Inc()
			continue
		}
		for _, u := range snap.Unavailable {
			a.logger.Debug("metric unavailable", "region", code, "metric", u.Metric, "reason", u.Reason)
		}
		out = append(out, snap)
	}

	a.snapshots.Put(out...)
	a.updateGauges()
	return out
}

// updateGauges recounts regions per level from the latest snapshots.
func (a *WindowAggregator) updateGauges() {
	a.obs.RegionsTracked.Set(float64(a.windows.Len()))
	a.obs.RegionsPerLevel.Reset()
	for _, m := range a.metrics {
		for _, l := range m.Levels {
			a.obs.RegionsPerLevel.WithLabelValues(m.ID, l.ID).Set(0)
		}
	}
	for _, snap := range a.snapshots.All() {
		for _, st := range snap.Statistics {
			a.obs.RegionsPerLevel.WithLabelValues(st.Metric, st.Level.ID).Inc()
		}
	}
}
