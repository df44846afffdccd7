package trackingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/observability"
)

// USCode is the pseudo region code used for national totals.
const USCode = "US"

// Client implements domain.HistorySource against a COVID Tracking style HTTP
// API serving /states/{code}/daily.json and /us/daily.json.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a history API client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// StateDaily returns the daily records for one state, newest first. Records
// the API returns without a usable date are dropped.
func (c *Client) StateDaily(ctx context.Context, code string) ([]domain.DailyRecord, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == USCode {
		return c.USDaily(ctx)
	}
	u := fmt.Sprintf("%s/states/%s/daily.json", c.baseURL, url.PathEscape(strings.ToLower(code)))
	return c.fetch(ctx, u, code)
}

// USDaily returns national daily totals, newest first, under USCode.
func (c *Client) USDaily(ctx context.Context) ([]domain.DailyRecord, error) {
	return c.fetch(ctx, c.baseURL+"/us/daily.json", USCode)
}

func (c *Client) fetch(ctx context.Context, fullURL, code string) ([]domain.DailyRecord, error) {
	start := time.Now()
	raws, err := c.doRequest(ctx, fullURL)
	c.metrics.HistoryAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.HistoryRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(raws) == 0 {
		c.metrics.HistoryRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}
	c.metrics.HistoryRequests.WithLabelValues("success").Inc()

	records := make([]domain.DailyRecord, 0, len(raws))
	for _, raw := range raws {
		if raw.State == "" {
			raw.State = code
		}
		rec, err := domain.NormalizeRecord(raw)
		if err != nil {
			c.logger.Warn("history record dropped", "region", code, "date", raw.Date, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return domain.TrailingWindow(records, len(records)), nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.RawDailyRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("history API error: status %d: %s", resp.StatusCode, body)
	}

	var raws []domain.RawDailyRecord
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return raws, nil
}
