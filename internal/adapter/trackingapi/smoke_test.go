//go:build trackingapi

package trackingapi

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit a live history API and require TRACKING_API_URL.
// Run with: go test -tags=trackingapi ./internal/adapter/trackingapi/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	baseURL := os.Getenv("TRACKING_API_URL")
	if baseURL == "" {
		t.Fatal("TRACKING_API_URL must be set to run smoke tests")
	}
	return NewClient(baseURL, 10*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_StateDaily(t *testing.T) {
	records, err := smokeClient(t).StateDaily(context.Background(), "NY")
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "NY", records[0].State)

	avg, err := domain.SevenDayPositiveAverage(records)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, avg, 0.0)
}

func TestSmoke_USDaily(t *testing.T) {
	records, err := smokeClient(t).USDaily(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, USCode, records[0].State)
}
