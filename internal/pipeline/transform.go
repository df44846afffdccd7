package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
)

// RegionLookup resolves a region code against the catalog.
type RegionLookup interface {
	Lookup(code string) (domain.Region, error)
}

// RecordTransformer implements Transformer. It parses a daily record and
// rejects regions outside the catalog.
type RecordTransformer struct {
	regions RegionLookup
}

// NewTransformer creates a RecordTransformer.
func NewTransformer(regions RegionLookup) *RecordTransformer {
	return &RecordTransformer{regions: regions}
}

func (t *RecordTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.DailyRecord, error) {
	rec, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.DailyRecord{}, err
	}
	if _, err := t.regions.Lookup(rec.State); err != nil {
		return domain.DailyRecord{}, fmt.Errorf("record %d: %w", domain.FormatDate(rec.Date), err)
	}
	return rec, nil
}
