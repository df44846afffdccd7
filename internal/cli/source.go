package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/covid-state-etl/internal/adapter/trackingapi"
	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/observability"
	"github.com/couchcryptid/covid-state-etl/internal/region"
)

var errNoSource = errors.New("no data source: set --records or --api-url")

// source supplies daily records per region, newest first.
type source interface {
	history(ctx context.Context, regions []domain.Region) (map[string][]domain.DailyRecord, error)
	daily(ctx context.Context, code string) ([]domain.DailyRecord, error)
}

func (o *options) catalog() (*region.Catalog, error) {
	return region.Load(o.regionsFile)
}

func (o *options) source() (source, error) {
	switch {
	case o.recordsFile != "":
		return loadFileSource(o.recordsFile)
	case o.apiURL != "":
		client := trackingapi.NewClient(o.apiURL, o.timeout, observability.NewUnregisteredMetrics(), o.logger)
		return &apiSource{client: client}, nil
	default:
		return nil, errNoSource
	}
}

type fileSource struct {
	records map[string][]domain.DailyRecord
}

// readRawRecords decodes a JSON array of daily records.
func readRawRecords(path string) ([]domain.RawDailyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var raws []domain.RawDailyRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return raws, nil
}

func loadFileSource(path string) (*fileSource, error) {
	raws, err := readRawRecords(path)
	if err != nil {
		return nil, err
	}
	byState := make(map[string][]domain.DailyRecord)
	for i, raw := range raws {
		rec, err := domain.NormalizeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		byState[rec.State] = append(byState[rec.State], rec)
	}
	for code, recs := range byState {
		byState[code] = domain.MergeRecords(nil, recs)
	}
	return &fileSource{records: byState}, nil
}

func (s *fileSource) history(_ context.Context, regions []domain.Region) (map[string][]domain.DailyRecord, error) {
	out := make(map[string][]domain.DailyRecord, len(regions))
	for _, r := range regions {
		if recs, ok := s.records[r.Code]; ok {
			out[r.Code] = recs
		}
	}
	return out, nil
}

func (s *fileSource) daily(_ context.Context, code string) ([]domain.DailyRecord, error) {
	if code == trackingapi.USCode {
		return domain.NationalTotals(code, s.records), nil
	}
	return s.records[code], nil
}

type apiSource struct {
	client *trackingapi.Client
}

func (s *apiSource) history(ctx context.Context, regions []domain.Region) (map[string][]domain.DailyRecord, error) {
	out := make(map[string][]domain.DailyRecord, len(regions))
	for _, r := range regions {
		recs, err := s.client.StateDaily(ctx, r.Code)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", r.Code, err)
		}
		if len(recs) > 0 {
			out[r.Code] = recs
		}
	}
	return out, nil
}

func (s *apiSource) daily(ctx context.Context, code string) ([]domain.DailyRecord, error) {
	return s.client.StateDaily(ctx, code)
}

// resolveCode upper-cases code and checks it against the catalog. The national
// pseudo code is always accepted.
func resolveCode(catalog *region.Catalog, code string) (string, string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == trackingapi.USCode {
		return code, "United States", nil
	}
	r, err := catalog.Lookup(code)
	if err != nil {
		return "", "", err
	}
	return r.Code, r.Name, nil
}
