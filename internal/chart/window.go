package chart

// Breakpoints mirror the layout the series is rendered into.
const (
	widthMedium = 1500
	widthWide   = 1700
)

// WindowDays picks how many trailing days of the series to keep for a
// viewport width.
func WindowDays(viewportWidth int) int {
	switch {
	case viewportWidth < widthMedium:
		return 30
	case viewportWidth < widthWide:
		return 45
	default:
		return 60
	}
}
