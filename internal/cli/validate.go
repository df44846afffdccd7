package cli

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/region"
	"github.com/spf13/cobra"
)

var errValidationFailed = errors.New("validation failed")

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the metric registry, the region catalog, and a records file",
		Long: `Check that the metric levels partition the real line, that the region
catalog is consistent, and, when --records is set, that every record parses,
names a known region, and that every region has a full seven-day window.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			catalog, err := o.catalog()
			if err != nil {
				return err
			}
			phases := []*phase{validateRegistry(), validateCatalog(catalog)}

			if o.recordsFile != "" {
				raws, err := readRawRecords(o.recordsFile)
				if err != nil {
					return err
				}
				records, p := validateRecords(raws, catalog)
				phases = append(phases, p, validateWindows(records, catalog))
				o.printer.printf("Records: %d in %s\n", len(raws), o.recordsFile)
			}
			return o.report(phases)
		},
	}
}

func (o *options) report(phases []*phase) error {
	allPassed := true
	o.printer.printf("\n")
	for _, p := range phases {
		status := o.printer.level("low", "PASS")
		if !p.passed() {
			status = o.printer.level("high", fmt.Sprintf("FAIL (%d errors)", len(p.errors)))
			allPassed = false
		}
		o.printer.printf("  %-24s %s\n", p.name, status)
	}
	for _, p := range phases {
		if p.passed() {
			continue
		}
		o.printer.printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			o.printer.printf("  [%d] %s\n", i+1, e)
		}
	}
	if !allPassed {
		return errValidationFailed
	}
	o.printer.printf("\nAll validations passed.\n")
	return nil
}

func validateRegistry() *phase {
	p := &phase{name: "Metric registry"}
	for _, m := range domain.Metrics() {
		if err := m.Validate(); err != nil {
			p.errorf("%s: %v", m.ID, err)
		}
	}
	return p
}

func validateCatalog(catalog *region.Catalog) *phase {
	p := &phase{name: "Region catalog"}
	links := make(map[string]string, catalog.Len())
	for _, r := range catalog.Regions() {
		if r.Population <= 0 {
			p.errorf("%s: population %d", r.Code, r.Population)
		}
		link := r.Link()
		if other, ok := links[link]; ok {
			p.errorf("%s: link %s already used by %s", r.Code, link, other)
		}
		links[link] = r.Code
		if len(catalog.Adjacency().Neighbors(r.Code)) == 0 {
			p.errorf("%s: no neighbors", r.Code)
		}
	}
	return p
}

func validateRecords(raws []domain.RawDailyRecord, catalog *region.Catalog) (map[string][]domain.DailyRecord, *phase) {
	p := &phase{name: "Records"}
	byState := make(map[string][]domain.DailyRecord)
	for i, raw := range raws {
		rec, err := domain.NormalizeRecord(raw)
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}
		if _, err := catalog.Lookup(rec.State); err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}
		if rec.Positive < 0 || rec.Negative < 0 {
			p.errorf("record %d: %s %d has negative cumulative counts", i, rec.State, raw.Date)
		}
		byState[rec.State] = append(byState[rec.State], rec)
	}
	for code, recs := range byState {
		byState[code] = domain.MergeRecords(nil, recs)
	}
	return byState, p
}

func validateWindows(records map[string][]domain.DailyRecord, catalog *region.Catalog) *phase {
	p := &phase{name: "Trailing windows"}
	for _, r := range catalog.SortedByCode() {
		recs := records[r.Code]
		if len(recs) < domain.WindowDays {
			p.errorf("%s: %d of %d days", r.Code, len(recs), domain.WindowDays)
			continue
		}
		if _, err := domain.BuildSnapshot(r, recs, domain.Metrics()); err != nil {
			p.errorf("%s: %v", r.Code, err)
		}
	}
	return p
}
