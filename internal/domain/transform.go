package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRecord is returned for records that parse but cannot be used.
var ErrInvalidRecord = errors.New("invalid daily record")

// ParseRawEvent deserializes a RawEvent's value into a DailyRecord.
func ParseRawEvent(raw RawEvent) (DailyRecord, error) {
	var rec RawDailyRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return DailyRecord{}, fmt.Errorf("parse raw event: %w", err)
	}
	return NormalizeRecord(rec)
}

// NormalizeRecord converts a feed record into a DailyRecord. The state code is
// trimmed and upper-cased; the date must be a valid YYYYMMDD value.
func NormalizeRecord(rec RawDailyRecord) (DailyRecord, error) {
	state := strings.ToUpper(strings.TrimSpace(rec.State))
	if state == "" {
		return DailyRecord{}, fmt.Errorf("%w: missing state", ErrInvalidRecord)
	}
	date, err := ParseDate(rec.Date)
	if err != nil {
		return DailyRecord{}, err
	}
	return DailyRecord{
		Date:                     date,
		State:                    state,
		Positive:                 rec.Positive,
		Negative:                 rec.Negative,
		PositiveIncrease:         rec.PositiveIncrease,
		NegativeIncrease:         rec.NegativeIncrease,
		TotalTestResultsIncrease: rec.TotalTestResultsIncrease,
		Pending:                  rec.Pending,
		Death:                    rec.Death,
		Population:               rec.Population,
	}, nil
}

// ParseDate converts a YYYYMMDD integer into a UTC midnight time.
func ParseDate(yyyymmdd int) (time.Time, error) {
	year, month, day := yyyymmdd/10000, yyyymmdd/100%100, yyyymmdd%100
	if year < 1900 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("%w: date %d", ErrInvalidRecord, yyyymmdd)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow, e.g. Feb 30 -> Mar 1.
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: date %d", ErrInvalidRecord, yyyymmdd)
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) int {
	t = t.UTC()
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// ToRaw converts a record back into the feed shape.
func (r DailyRecord) ToRaw() RawDailyRecord {
	return RawDailyRecord{
		Date:                     FormatDate(r.Date),
		State:                    r.State,
		Positive:                 r.Positive,
		Negative:                 r.Negative,
		PositiveIncrease:         r.PositiveIncrease,
		NegativeIncrease:         r.NegativeIncrease,
		TotalTestResultsIncrease: r.TotalTestResultsIncrease,
		Pending:                  r.Pending,
		Death:                    r.Death,
		Population:               r.Population,
	}
}

// SerializeSnapshot marshals a RegionSnapshot into an OutputEvent keyed by
// region code.
func SerializeSnapshot(snap RegionSnapshot) (OutputEvent, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize region snapshot: %w", err)
	}
	return OutputEvent{
		Key:   []byte(snap.Region),
		Value: data,
		Headers: map[string]string{
			"region":      snap.Region,
			"computed_at": snap.ComputedAt.Format(time.RFC3339),
		},
	}, nil
}
