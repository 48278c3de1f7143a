package price

import (
	"math"
	"strconv"
	"strings"
)

const (
	tickBase = 1.0001

	// Display clamps. Anything below zeroClamp renders as "0",
	// anything above infClamp renders as "∞".
	zeroClamp = 1e-11
	infClamp  = 1e30

	defaultDecimals = 18
)

// ConvertInput carries everything tick-to-price conversion can use.
// CurrentPrice and CurrentTick come from the live pool snapshot when
// available; addresses and decimals feed the fallback path.
type ConvertInput struct {
	Tick        int
	CurrentTick int

	// CurrentPrice is the live token1-per-token0 price, zero or
	// negative when unknown.
	CurrentPrice float64

	BaseSymbol   string
	Token0Symbol string
	Token1Symbol string

	Token0Address string
	Token1Address string

	// Decimals maps token symbol to decimal count. Missing entries
	// default to 18.
	Decimals map[string]int
}

// TickToPrice converts a tick coordinate to a display price string.
// With a live pool price the result is relative: price(tick) =
// currentPrice * 1.0001^(tick - currentTick). Without one it falls
// back to the absolute 1.0001^tick adjusted by the decimal difference
// of the address-sorted token pair. The result is always one of "0",
// "∞", "N/A", or a fixed 6-decimal string; the function never panics.
func TickToPrice(in ConvertInput) string {
	if in.CurrentPrice > 0 && !math.IsInf(in.CurrentPrice, 0) && !math.IsNaN(in.CurrentPrice) {
		price := in.CurrentPrice * math.Pow(tickBase, float64(in.Tick-in.CurrentTick))
		if strings.EqualFold(in.BaseSymbol, in.Token0Symbol) {
			price = invert(price)
		}
		return formatPrice(price)
	}
	return fallbackPrice(in)
}

// fallbackPrice derives an absolute price from the tick alone. Tokens
// sort by address, lexicographically smaller being sorted token0, and
// the raw ratio is adjusted by the decimal-count difference.
func fallbackPrice(in ConvertInput) string {
	raw := math.Pow(tickBase, float64(in.Tick))

	sorted0Sym, sorted1Sym := in.Token0Symbol, in.Token1Symbol
	if strings.ToLower(in.Token1Address) < strings.ToLower(in.Token0Address) {
		sorted0Sym, sorted1Sym = sorted1Sym, sorted0Sym
	}

	dec0 := decimalsFor(in.Decimals, sorted0Sym)
	dec1 := decimalsFor(in.Decimals, sorted1Sym)
	price := raw * math.Pow(10, float64(dec0-dec1))

	if strings.EqualFold(in.BaseSymbol, sorted0Sym) {
		price = invert(price)
	}
	return formatPrice(price)
}

func decimalsFor(decimals map[string]int, symbol string) int {
	if decimals == nil {
		return defaultDecimals
	}
	if d, ok := decimals[symbol]; ok {
		return d
	}
	return defaultDecimals
}

func invert(price float64) float64 {
	if price == 0 {
		return math.Inf(1)
	}
	return 1 / price
}

func formatPrice(price float64) string {
	if math.IsNaN(price) {
		return "N/A"
	}
	if math.IsInf(price, 0) {
		if price > 0 {
			return "∞"
		}
		return "N/A"
	}
	if price < 0 {
		return "N/A"
	}
	if price < zeroClamp {
		return "0"
	}
	if price > infClamp {
		return "∞"
	}
	return strconv.FormatFloat(price, 'f', 6, 64)
}
