// Package upstream implements the HTTP client for the clinic records API
// and the activity-log service. Both return producer-specific JSON whose
// schemas are not guaranteed; everything is surfaced as types.RawRecord and
// left to pkg/resolve to interpret.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clinicpro/dashboard-service/pkg/config"
	"github.com/clinicpro/dashboard-service/pkg/logger"
	"github.com/clinicpro/dashboard-service/pkg/monitoring"
	"github.com/clinicpro/dashboard-service/pkg/types"
)

// Client talks to the clinic's upstream services
type Client struct {
	baseURL         string
	activityBaseURL string
	apiKey          string
	httpClient      *http.Client
	logger          *logger.Logger
	metrics         *monitoring.MetricsCollector
}

// NewClient creates a new upstream client
func NewClient(cfg *config.UpstreamConfig, log *logger.Logger, metrics *monitoring.MetricsCollector) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	activityBaseURL := strings.TrimRight(cfg.ActivityBaseURL, "/")
	if activityBaseURL == "" {
		activityBaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		activityBaseURL: activityBaseURL,
		apiKey:          cfg.APIKey,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          log,
		metrics:         metrics,
	}
}

// ActivityLogs fetches the activity-log entries. This is the fetch function
// handed to the activity coordinator.
func (c *Client) ActivityLogs(ctx context.Context) ([]types.RawRecord, error) {
	return c.fetchCollection(ctx, c.activityBaseURL+"/activity-logs", "activity_logs")
}

// Patients fetches the patient collection
func (c *Client) Patients(ctx context.Context) ([]types.RawRecord, error) {
	return c.fetchCollection(ctx, c.baseURL+"/patients", "patients")
}

// Appointments fetches the appointment collection
func (c *Client) Appointments(ctx context.Context) ([]types.RawRecord, error) {
	return c.fetchCollection(ctx, c.baseURL+"/appointments", "appointments")
}

// Prescriptions fetches the prescription collection
func (c *Client) Prescriptions(ctx context.Context) ([]types.RawRecord, error) {
	return c.fetchCollection(ctx, c.baseURL+"/prescriptions", "prescriptions")
}

// Medicines fetches the medicine catalog
func (c *Client) Medicines(ctx context.Context) ([]types.RawRecord, error) {
	return c.fetchCollection(ctx, c.baseURL+"/medicines", "medicines")
}

// Collections fetches the externally owned domain collections for one
// aggregation pass. Collections that fail to fetch come back empty rather
// than failing the pass: the dashboard degrades to partial data, never to an
// error page.
func (c *Client) Collections(ctx context.Context) types.RawCollection {
	out := types.RawCollection{}

	type result struct {
		name    string
		records []types.RawRecord
		err     error
	}

	fetches := map[string]func(context.Context) ([]types.RawRecord, error){
		"patients":      c.Patients,
		"appointments":  c.Appointments,
		"prescriptions": c.Prescriptions,
		"medicines":     c.Medicines,
	}

	results := make(chan result, len(fetches))
	for name, fetch := range fetches {
		go func(name string, fetch func(context.Context) ([]types.RawRecord, error)) {
			records, err := fetch(ctx)
			results <- result{name: name, records: records, err: err}
		}(name, fetch)
	}

	for range fetches {
		r := <-results
		if r.err != nil {
			if c.logger != nil {
				c.logger.WithComponent("upstream-client").WithError(r.err).Warnf("Failed to fetch %s, using empty collection", r.name)
			}
			continue
		}
		switch r.name {
		case "patients":
			out.Patients = r.records
		case "appointments":
			out.Appointments = r.records
		case "prescriptions":
			out.Prescriptions = r.records
		case "medicines":
			out.Medicines = r.records
		}
	}

	return out
}

// Ping checks upstream reachability for health reporting
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("upstream unhealthy: status=%d", resp.StatusCode)
	}
	return nil
}

// fetchCollection GETs a URL and decodes the payload into raw records. A
// payload that is not a recognizable list decodes to an empty collection,
// not an error.
func (c *Client) fetchCollection(ctx context.Context, url, resource string) ([]types.RawRecord, error) {
	start := time.Now()

	records, err := c.doFetch(ctx, url)

	status := "success"
	if err != nil {
		status = "failed"
	}
	if c.metrics != nil {
		c.metrics.RecordUpstreamFetch(resource, status, time.Since(start))
	}
	if c.logger != nil {
		c.logger.UpstreamFetch(resource, len(records), time.Since(start).Milliseconds(), err == nil, nil)
	}

	if err != nil {
		return nil, types.NewUpstreamError(types.ErrCodeUpstreamUnavailable, fmt.Sprintf("failed to fetch %s", resource), err)
	}
	return records, nil
}

func (c *Client) doFetch(ctx context.Context, url string) ([]types.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	return asRecordList(payload), nil
}

// asRecordList extracts a record list from the decoded payload. Some
// producers return a bare array, others wrap it under "data" or "results";
// anything else counts as empty.
func asRecordList(payload interface{}) []types.RawRecord {
	list, ok := payload.([]interface{})
	if !ok {
		if wrapper, ok := payload.(map[string]interface{}); ok {
			for _, key := range []string{"data", "results", "items"} {
				if inner, ok := wrapper[key].([]interface{}); ok {
					list = inner
					break
				}
			}
		}
	}

	records := make([]types.RawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			records = append(records, types.RawRecord(m))
		}
	}
	return records
}
