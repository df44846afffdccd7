// Command genmock writes deterministic state daily records for every region in
// the catalog, plus the snapshots the ETL computes from them. Regions rotate
// through low, medium, and high testing and positivity rates so every level of
// every metric is populated.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/state_daily.json \
//	  -snapshots-out data/mock/region_snapshots.json \
//	  -days 14 -end 20201120
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/region"
	"github.com/jonboulle/clockwork"
)

// Daily tests per 100k people and share of tests positive, by tier.
var (
	testRates     = []float64{60, 180, 320}
	positiveRates = []float64{0.03, 0.07, 0.14}
)

// weekday scales daily volume; weekends report fewer tests.
var weekday = map[time.Weekday]float64{
	time.Sunday: 0.7, time.Monday: 0.9, time.Tuesday: 1.05, time.Wednesday: 1.1,
	time.Thursday: 1.1, time.Friday: 1.05, time.Saturday: 0.8,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the raw daily records JSON")
	snapshotsOut := flag.String("snapshots-out", "", "optional output path for computed region snapshots")
	regionsFile := flag.String("regions", "", "region catalog YAML (default embedded)")
	days := flag.Int("days", 14, "days of history per region")
	end := flag.Int("end", 20201120, "last date, YYYYMMDD")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *days < 1 {
		return fmt.Errorf("-days must be positive, got %d", *days)
	}
	endDate, err := domain.ParseDate(*end)
	if err != nil {
		return fmt.Errorf("-end: %w", err)
	}

	catalog, err := region.Load(*regionsFile)
	if err != nil {
		return err
	}

	raws, snapshots, err := buildFixtures(catalog, endDate, *days, *seed)
	if err != nil {
		return err
	}

	log.Printf("total: %d records for %d regions", len(raws), len(snapshots))
	if err := writeJSON(*out, raws); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	log.Printf("wrote records: %s", *out)

	if *snapshotsOut != "" {
		if err := writeJSON(*snapshotsOut, snapshots); err != nil {
			return fmt.Errorf("writing snapshots: %w", err)
		}
		log.Printf("wrote snapshots: %s", *snapshotsOut)
	}

	printStats(snapshots)
	return nil
}

// buildFixtures generates records for every region, sorted by date, and the
// snapshots computed from them at a fixed time a day after end.
func buildFixtures(catalog *region.Catalog, end time.Time, days int, seed uint64) ([]domain.RawDailyRecord, []domain.RegionSnapshot, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	regions := catalog.SortedByCode()
	raws := make([]domain.RawDailyRecord, 0, len(regions)*days)
	history := make(map[string][]domain.DailyRecord, len(regions))
	for i, r := range regions {
		recs := generate(rng, r, i, end, days)
		for _, raw := range recs {
			rec, err := domain.NormalizeRecord(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("generated record %s %d: %w", raw.State, raw.Date, err)
			}
			history[r.Code] = append(history[r.Code], rec)
		}
		raws = append(raws, recs...)
	}
	sort.SliceStable(raws, func(a, b int) bool { return raws[a].Date < raws[b].Date })

	// Fixed clock so ComputedAt is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(end.Add(30 * time.Hour)))
	defer domain.SetClock(nil)

	snapshots := make([]domain.RegionSnapshot, 0, len(regions))
	for _, r := range regions {
		snap, err := domain.BuildSnapshot(r, history[r.Code], domain.Metrics())
		if err != nil {
			return nil, nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return raws, snapshots, nil
}

// generate returns days of records for r ending at end, oldest first. The
// region's position i picks its testing and positivity tiers.
func generate(rng *rand.Rand, r domain.Region, i int, end time.Time, days int) []domain.RawDailyRecord {
	testRate := testRates[i%len(testRates)]
	positiveRate := positiveRates[(i/len(testRates))%len(positiveRates)]
	baseTests := float64(r.Population) * testRate / 100_000

	// Cumulative totals start from a plausible prior.
	positive := int64(float64(r.Population) * 0.02)
	negative := int64(float64(r.Population) * 0.2)
	death := positive / 50

	out := make([]domain.RawDailyRecord, days)
	for d := range days {
		date := end.AddDate(0, 0, d-days+1)
		noise := 0.9 + 0.2*rng.Float64()
		tests := int64(math.Round(baseTests * weekday[date.Weekday()] * noise))
		pos := int64(math.Round(float64(tests) * positiveRate))
		neg := tests - pos
		deaths := pos / 100

		positive += pos
		negative += neg
		death += deaths
		out[d] = domain.RawDailyRecord{
			Date:                     domain.FormatDate(date),
			State:                    r.Code,
			Positive:                 positive,
			Negative:                 negative,
			PositiveIncrease:         pos,
			NegativeIncrease:         neg,
			TotalTestResultsIncrease: tests,
			Pending:                  rng.Int64N(tests/20 + 1),
			Death:                    death,
			Population:               r.Population,
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// levelCounts tallies how many regions landed in each level, keyed by
// metric then level.
func levelCounts(snapshots []domain.RegionSnapshot) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, m := range domain.Metrics() {
		counts := make(map[string]int, len(m.Levels))
		for _, s := range snapshots {
			if st, ok := s.Statistic(m.ID); ok {
				counts[st.Level.ID]++
			}
		}
		out[m.ID] = counts
	}
	return out
}

// printStats logs how many regions landed in each level of each metric.
func printStats(snapshots []domain.RegionSnapshot) {
	counts := levelCounts(snapshots)
	for _, m := range domain.Metrics() {
		line := m.ID + ":"
		for _, l := range m.Levels {
			line += fmt.Sprintf(" %s=%d", l.ID, counts[m.ID][l.ID])
		}
		log.Print(line)
	}
}
