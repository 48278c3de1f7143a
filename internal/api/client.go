package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"alphixcore/internal/model"
	"alphixcore/internal/position"
)

const (
	defaultMaxTries = 3
	defaultTimeout  = 15 * time.Second

	dayLayout = "2006-01-02"
)

// Client talks to the off-chain metrics service. Fetches use a bounded
// retry policy and then surface failure; they never retry indefinitely.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	maxTries   uint
	retryBase  time.Duration
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
		maxTries:   defaultMaxTries,
		retryBase:  500 * time.Millisecond,
	}
}

type dayRowPayload struct {
	Date      string  `json:"date"`
	VolumeUSD float64 `json:"volumeUSD"`
	TVLUSD    float64 `json:"tvlUSD"`
}

type feeEventPayload struct {
	Timestamp         uint64 `json:"timestamp"`
	NewFeeBps         uint64 `json:"newFee"`
	CurrentRatioRaw   string `json:"currentRatio"`
	NewTargetRatioRaw string `json:"newTargetRatio"`
}

type dailySeriesPayload struct {
	Success   bool              `json:"success"`
	Data      []dayRowPayload   `json:"data"`
	FeeEvents []feeEventPayload `json:"feeEvents"`
}

// DailySeries fetches the raw daily rows and fee-change events for a
// pool. A success=false response or an empty data array is a hard
// failure for the fetch.
func (c *Client) DailySeries(ctx context.Context, poolID string, days int) ([]model.DayRow, []model.FeeChangeEvent, error) {
	endpoint := fmt.Sprintf("%s/api/liquidity/chart?poolId=%s&days=%d", c.baseURL, url.QueryEscape(poolID), days)

	operation := func() (dailySeriesPayload, error) {
		var payload dailySeriesPayload
		if err := c.getJSON(ctx, endpoint, &payload); err != nil {
			return payload, err
		}
		if !payload.Success || len(payload.Data) == 0 {
			return payload, fmt.Errorf("empty or failed payload")
		}
		return payload, nil
	}

	notify := func(err error, delay time.Duration) {
		c.logger.Warn("daily series retry",
			zap.String("pool", poolID),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBase

	payload, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return nil, nil, &model.FetchError{Endpoint: "daily series", Err: err}
	}

	rows := make([]model.DayRow, 0, len(payload.Data))
	for _, row := range payload.Data {
		date, err := time.ParseInLocation(dayLayout, row.Date, time.UTC)
		if err != nil {
			return nil, nil, &model.FetchError{Endpoint: "daily series", Err: fmt.Errorf("bad date %q: %w", row.Date, err)}
		}
		rows = append(rows, model.DayRow{Date: date, VolumeUSD: row.VolumeUSD, TVLUSD: row.TVLUSD})
	}

	events := make([]model.FeeChangeEvent, 0, len(payload.FeeEvents))
	for _, ev := range payload.FeeEvents {
		events = append(events, model.FeeChangeEvent{
			Timestamp:         ev.Timestamp,
			NewFeeBps:         ev.NewFeeBps,
			CurrentRatioRaw:   ev.CurrentRatioRaw,
			NewTargetRatioRaw: ev.NewTargetRatioRaw,
		})
	}

	return rows, events, nil
}

type poolMetricsPayload struct {
	PoolID        string  `json:"poolId"`
	TVLUSD        float64 `json:"tvlUSD"`
	Volume24hUSD  float64 `json:"volume24hUSD"`
	Fees24hUSD    float64 `json:"fees24hUSD"`
	APR           float64 `json:"apr"`
	DynamicFeeBps uint64  `json:"dynamicFeeBps"`
}

type batchMetricsPayload struct {
	Success bool                 `json:"success"`
	Pools   []poolMetricsPayload `json:"pools"`
}

// PoolBatchMetrics fetches headline metrics for a set of pools. Result
// keys are canonical (lower-case) pool ids.
func (c *Client) PoolBatchMetrics(ctx context.Context, poolIDs []string) (map[string]model.PoolMetrics, error) {
	endpoint := fmt.Sprintf("%s/api/liquidity/pools?ids=%s", c.baseURL, url.QueryEscape(strings.Join(poolIDs, ",")))

	var payload batchMetricsPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, &model.FetchError{Endpoint: "batch metrics", Err: err}
	}
	if !payload.Success {
		return nil, &model.FetchError{Endpoint: "batch metrics", Err: fmt.Errorf("failed payload")}
	}

	out := make(map[string]model.PoolMetrics, len(payload.Pools))
	for _, pool := range payload.Pools {
		out[model.CanonicalPoolID(pool.PoolID)] = model.PoolMetrics{
			TVLUSD:        pool.TVLUSD,
			Volume24hUSD:  pool.Volume24hUSD,
			Fees24hUSD:    pool.Fees24hUSD,
			APR:           pool.APR,
			DynamicFeeBps: pool.DynamicFeeBps,
		}
	}
	return out, nil
}

// InvalidateAfterTx asks the metrics service to reconcile its off-chain
// aggregates after a confirmed transaction. Callers treat this as
// best-effort.
func (c *Client) InvalidateAfterTx(ctx context.Context, req position.InvalidateRequest) error {
	endpoint := c.baseURL + "/api/liquidity/invalidate"

	body, err := json.Marshal(map[string]interface{}{
		"owner":   req.Owner,
		"chainId": req.ChainID,
		"poolId":  req.PoolID,
		"deltas":  req.OptimisticDeltas,
	})
	if err != nil {
		return fmt.Errorf("marshal invalidate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if req.OnPositionsReloaded != nil {
		req.OnPositionsReloaded()
	}
	if req.OnClear != nil {
		req.OnClear()
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
