package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphixcore/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayRow(date string, volume, tvl float64) model.DayRow {
	return model.DayRow{Date: day(date), VolumeUSD: volume, TVLUSD: tvl}
}

func feeEvent(ts uint64, bps uint64, ratio, target string) model.FeeChangeEvent {
	return model.FeeChangeEvent{
		Timestamp:         ts,
		NewFeeBps:         bps,
		CurrentRatioRaw:   ratio,
		NewTargetRatioRaw: target,
	}
}

func TestBuildAlwaysIncludesToday(t *testing.T) {
	rows := []model.DayRow{dayRow("2024-01-01", 100, 1000)}

	points := Build(rows, nil, day("2024-01-03"))

	require.Len(t, points, 2)
	assert.Equal(t, day("2024-01-01"), points[0].Date)
	assert.Equal(t, day("2024-01-03"), points[1].Date)
	assert.Zero(t, points[1].VolumeUSD)
}

func TestBuildFeeStepFunction(t *testing.T) {
	rows := []model.DayRow{
		dayRow("2024-01-01", 10, 100),
		dayRow("2024-01-02", 20, 200),
		dayRow("2024-01-04", 40, 400),
	}
	// One change mid day two, a second late on day four.
	events := []model.FeeChangeEvent{
		feeEvent(uint64(day("2024-01-04").Add(23*time.Hour).Unix()), 100, "2000000000", "3000000000"),
		feeEvent(uint64(day("2024-01-02").Add(12*time.Hour).Unix()), 30, "1250000000000000000", "1500000000000000000"),
	}

	points := Build(rows, events, day("2024-01-04"))

	require.Len(t, points, 3)
	assert.Zero(t, points[0].FeePct, "no event yet on day one")
	assert.InDelta(t, 0.003, points[1].FeePct, 1e-12)
	assert.InDelta(t, 1.25, points[1].ActivityRatio, 1e-9)
	assert.InDelta(t, 1.5, points[1].EMATarget, 1e-9)
	assert.InDelta(t, 0.01, points[2].FeePct, 1e-12, "event before the 23:59:59 boundary lands same day")
	assert.InDelta(t, 2000, points[2].ActivityRatio, 1e-9)
}

func TestBuildEventOrderIndependent(t *testing.T) {
	rows := []model.DayRow{dayRow("2024-01-01", 10, 100)}
	a := feeEvent(uint64(day("2024-01-01").Add(1*time.Hour).Unix()), 10, "0", "0")
	b := feeEvent(uint64(day("2024-01-01").Add(2*time.Hour).Unix()), 50, "0", "0")

	forward := Build(rows, []model.FeeChangeEvent{a, b}, day("2024-01-01"))
	reversed := Build(rows, []model.FeeChangeEvent{b, a}, day("2024-01-01"))

	assert.Equal(t, forward, reversed)
	assert.InDelta(t, 0.005, forward[0].FeePct, 1e-12, "latest event of the day wins")
}

func TestPadForWindowFillsInteriorGap(t *testing.T) {
	points := Build([]model.DayRow{
		dayRow("2024-01-01", 10, 1000),
		dayRow("2024-01-03", 30, 3000),
	}, nil, day("2024-01-03"))

	padded := PadForWindow(points, 3)

	require.Len(t, padded, 3)
	gap := padded[1]
	assert.Equal(t, day("2024-01-02"), gap.Date)
	assert.Zero(t, gap.VolumeUSD)
	assert.Equal(t, float64(1000), gap.TVLUSD, "TVL carried from the previous day")
}

func TestPadForWindowGapCarriesLastNonZeroFee(t *testing.T) {
	rows := []model.DayRow{
		dayRow("2024-01-01", 10, 1000),
		dayRow("2024-01-03", 30, 3000),
	}
	events := []model.FeeChangeEvent{
		feeEvent(uint64(day("2024-01-01").Unix()), 30, "0", "0"),
	}

	padded := PadForWindow(Build(rows, events, day("2024-01-03")), 3)

	require.Len(t, padded, 3)
	assert.InDelta(t, 0.003, padded[1].FeePct, 1e-12)
}

func TestPadForWindowLeftPadsShortHistory(t *testing.T) {
	points := Build([]model.DayRow{dayRow("2024-02-10", 10, 1000)}, nil, day("2024-02-10"))

	padded := PadForWindow(points, 30)

	require.Len(t, padded, 30)
	assert.Equal(t, day("2024-01-12"), padded[0].Date)
	assert.Zero(t, padded[0].TVLUSD)
	assert.Equal(t, day("2024-02-10"), padded[29].Date)
	assert.Equal(t, float64(1000), padded[29].TVLUSD)
}

func TestPadForWindowExactLengthProperty(t *testing.T) {
	base := day("2024-01-01")
	for n := 1; n <= 60; n++ {
		rows := make([]model.DayRow, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, model.DayRow{Date: base.AddDate(0, 0, i), VolumeUSD: 1, TVLUSD: 1})
		}
		today := base.AddDate(0, 0, n-1)
		padded := PadForWindow(Build(rows, nil, today), 30)
		if len(padded) != 30 {
			t.Fatalf("n=%d: got %d points, want 30", n, len(padded))
		}
	}
}

func TestPadForWindowEmpty(t *testing.T) {
	assert.Nil(t, PadForWindow(nil, 30))
}

func TestScaleRatioBrackets(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"1250000000000000000", 1.25},
		{"5000000", 5},
		{"25000", 2.5},
		{"1.5", 1.5},
		{"0", 0},
		{"not-a-number", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, scaleRatio(tt.raw), 1e-9, "raw=%s", tt.raw)
	}
}
