package chart

import (
	"sort"
	"strconv"
	"time"

	"alphixcore/internal/model"
)

// Build reconstructs the per-day pool series from raw daily rows and
// the sparse fee-change event stream. The day set is the union of the
// rows' days and today (today always gets a row, even with zero
// trades). Fee events are walked in timestamp order against each day's
// 23:59:59 UTC boundary, carrying the latest fee, activity ratio and
// EMA target forward across days with no events, which yields a
// monotone step function.
func Build(rows []model.DayRow, events []model.FeeChangeEvent, today time.Time) []model.ChartPoint {
	byDay := make(map[time.Time]model.DayRow, len(rows)+1)
	for _, row := range rows {
		byDay[model.Day(row.Date)] = row
	}
	todayKey := model.Day(today)
	if _, ok := byDay[todayKey]; !ok {
		byDay[todayKey] = model.DayRow{Date: todayKey}
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	ordered := make([]model.FeeChangeEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp < ordered[j].Timestamp })

	points := make([]model.ChartPoint, 0, len(days))
	var feePct, ratio, target float64
	cursor := 0
	for _, day := range days {
		boundary := uint64(day.Add(24*time.Hour - time.Second).Unix())
		for cursor < len(ordered) && ordered[cursor].Timestamp <= boundary {
			ev := ordered[cursor]
			feePct = float64(ev.NewFeeBps) / 10000
			ratio = scaleRatio(ev.CurrentRatioRaw)
			target = scaleRatio(ev.NewTargetRatioRaw)
			cursor++
		}

		row := byDay[day]
		points = append(points, model.ChartPoint{
			Date:          day,
			VolumeUSD:     row.VolumeUSD,
			TVLUSD:        row.TVLUSD,
			ActivityRatio: ratio,
			EMATarget:     target,
			FeePct:        feePct,
		})
	}

	return points
}

// PadForWindow restricts a built series to the trailing windowDays
// calendar days and makes it gapless: missing interior days get zero
// volume with the last known TVL and last non-zero fee carried forward,
// and days before the series started are all-zero, so the result has
// exactly windowDays entries whenever at least one real day exists.
// Re-windowing must always start from a freshly built series, never
// from a previously padded result.
func PadForWindow(points []model.ChartPoint, windowDays int) []model.ChartPoint {
	if len(points) == 0 || windowDays <= 0 {
		return nil
	}

	byDay := make(map[time.Time]model.ChartPoint, len(points))
	first := model.Day(points[0].Date)
	last := first
	for _, p := range points {
		day := model.Day(p.Date)
		byDay[day] = p
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	start := last.AddDate(0, 0, -(windowDays - 1))

	out := make([]model.ChartPoint, 0, windowDays)
	var lastTVL, lastFee float64
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		point, ok := byDay[day]
		if ok {
			lastTVL = point.TVLUSD
			if point.FeePct != 0 {
				lastFee = point.FeePct
			}
		} else {
			point = model.ChartPoint{
				Date:   day,
				TVLUSD: lastTVL,
				FeePct: lastFee,
			}
		}
		if !day.Before(start) {
			out = append(out, point)
		}
	}

	if len(out) < windowDays {
		pad := make([]model.ChartPoint, 0, windowDays)
		for day := start; day.Before(first); day = day.AddDate(0, 0, 1) {
			pad = append(pad, model.ChartPoint{Date: day})
		}
		out = append(pad, out...)
	}

	return out
}

// scaleRatio converts a raw fixed-point ratio string to a plain float.
// The controller has emitted ratios at several magnitudes over time, so
// the divisor is picked by the first matching magnitude bracket.
func scaleRatio(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	switch {
	case v >= 1e12:
		return v / 1e18
	case v >= 1e6:
		return v / 1e6
	case v >= 1e4:
		return v / 1e4
	default:
		return v
	}
}
