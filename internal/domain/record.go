package domain

import (
	"context"
	"time"
)

// RawDailyRecord is the JSON structure produced by the upstream publisher.
// Field names follow the state daily feed.
type RawDailyRecord struct {
	Date                     int    `json:"date"` // YYYYMMDD
	State                    string `json:"state"`
	Positive                 int64  `json:"positive"`
	Negative                 int64  `json:"negative"`
	PositiveIncrease         int64  `json:"positiveIncrease"`
	NegativeIncrease         int64  `json:"negativeIncrease"`
	TotalTestResultsIncrease int64  `json:"totalTestResultsIncrease"`
	Pending                  int64  `json:"pending"`
	Death                    int64  `json:"death"`
	Population               int64  `json:"population,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// DailyRecord is one day's counters for one region after parsing.
type DailyRecord struct {
	Date                     time.Time `json:"date"`
	State                    string    `json:"state"`
	Positive                 int64     `json:"positive"`
	Negative                 int64     `json:"negative"`
	PositiveIncrease         int64     `json:"positive_increase"`
	NegativeIncrease         int64     `json:"negative_increase"`
	TotalTestResultsIncrease int64     `json:"total_test_results_increase"`
	Pending                  int64     `json:"pending"`
	Death                    int64     `json:"death"`
	Population               int64     `json:"population,omitempty"`
}

// Region is a US state or territory. Code is unique across the catalog.
// Col and Row place the region on the hexgrid cartogram.
type Region struct {
	Code       string `json:"code" yaml:"code"`
	Name       string `json:"name" yaml:"name"`
	Population int64  `json:"population" yaml:"population"`
	Col        int    `json:"col" yaml:"col"`
	Row        int    `json:"row" yaml:"row"`
}

// Link returns the region's page path.
func (r Region) Link() string {
	return StatePath(r.Name)
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
