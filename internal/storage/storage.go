package storage

import "alphixcore/internal/model"

// SeriesSink is a sink for finalized chart series.
type SeriesSink interface {
	PutChartPoints(poolID string, points []model.ChartPoint) error
}
