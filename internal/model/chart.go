package model

import "time"

// DayRow is one raw daily metrics row returned by the metrics endpoint.
type DayRow struct {
	Date      time.Time `json:"date"`
	VolumeUSD float64   `json:"volume_usd"`
	TVLUSD    float64   `json:"tvl_usd"`
}

// FeeChangeEvent is a step change applied by the external fee controller.
// Raw ratio values arrive as decimal strings in whatever fixed-point
// magnitude the controller emitted; they are scaled at build time.
type FeeChangeEvent struct {
	Timestamp         uint64 `json:"timestamp"`
	NewFeeBps         uint64 `json:"new_fee_bps"`
	CurrentRatioRaw   string `json:"current_ratio_raw"`
	NewTargetRatioRaw string `json:"new_target_ratio_raw"`
}

// ChartPoint is one finalized per-day entry of the pool series. A
// finalized series has exactly one point per calendar day with no gaps.
type ChartPoint struct {
	Date          time.Time `json:"date"`
	VolumeUSD     float64   `json:"volume_usd"`
	TVLUSD        float64   `json:"tvl_usd"`
	ActivityRatio float64   `json:"activity_ratio"`
	EMATarget     float64   `json:"ema_target"`
	FeePct        float64   `json:"fee_pct"`
}

// PoolMetrics is the per-pool row of the batch-metrics endpoint.
type PoolMetrics struct {
	TVLUSD        float64 `json:"tvl_usd"`
	Volume24hUSD  float64 `json:"volume_24h_usd"`
	Fees24hUSD    float64 `json:"fees_24h_usd"`
	APR           float64 `json:"apr"`
	DynamicFeeBps uint64  `json:"dynamic_fee_bps"`
}

// Day truncates a time to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
