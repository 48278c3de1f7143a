package price

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickToPriceRelativeToCurrent(t *testing.T) {
	in := ConvertInput{
		Tick:         100,
		CurrentTick:  0,
		CurrentPrice: 2000,
		BaseSymbol:   "aETH",
		Token0Symbol: "aUSDC",
		Token1Symbol: "aETH",
	}
	want := 2000 * math.Pow(1.0001, 100)
	assert.Equal(t, fmtWant(want), TickToPrice(in))
}

func TestTickToPriceInvertsForToken0Base(t *testing.T) {
	in := ConvertInput{
		Tick:         0,
		CurrentTick:  0,
		CurrentPrice: 2000,
		BaseSymbol:   "ausdc",
		Token0Symbol: "aUSDC",
		Token1Symbol: "aETH",
	}
	assert.Equal(t, "0.000500", TickToPrice(in))
}

func TestTickToPriceFallbackUsesAddressOrderAndDecimals(t *testing.T) {
	in := ConvertInput{
		Tick:          0,
		Token0Symbol:  "aETH",
		Token1Symbol:  "aUSDC",
		Token0Address: "0xBBB",
		Token1Address: "0xaaa",
		BaseSymbol:    "aETH",
		Decimals:      map[string]int{"aUSDC": 6, "aETH": 18},
	}
	// aUSDC sorts first by address; dec0-dec1 = 6-18 = -12, tick 0
	// gives 1e-12 which is below the zero clamp.
	assert.Equal(t, "0", TickToPrice(in))
}

func TestTickToPriceFallbackDefaultsMissingDecimals(t *testing.T) {
	in := ConvertInput{
		Tick:          100,
		Token0Symbol:  "A",
		Token1Symbol:  "B",
		Token0Address: "0x1",
		Token1Address: "0x2",
		BaseSymbol:    "B",
	}
	want := math.Pow(1.0001, 100)
	assert.Equal(t, fmtWant(want), TickToPrice(in))
}

func TestTickToPriceClampsExtremes(t *testing.T) {
	assert.Equal(t, "∞", TickToPrice(ConvertInput{Tick: 800000, CurrentTick: 0, CurrentPrice: 1, BaseSymbol: "B", Token1Symbol: "B"}))
	assert.Equal(t, "0", TickToPrice(ConvertInput{Tick: -800000, CurrentTick: 0, CurrentPrice: 1, BaseSymbol: "B", Token1Symbol: "B"}))
}

func TestTickToPriceNeverPanicsOnDegenerateInput(t *testing.T) {
	inputs := []ConvertInput{
		{},
		{CurrentPrice: math.NaN()},
		{CurrentPrice: math.Inf(1)},
		{CurrentPrice: -5, Tick: 887272},
		{Tick: math.MaxInt32},
		{Tick: math.MinInt32},
	}
	for _, in := range inputs {
		got := TickToPrice(in)
		assert.NotEmpty(t, got)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{math.NaN(), "N/A"},
		{math.Inf(1), "∞"},
		{math.Inf(-1), "N/A"},
		{-1, "N/A"},
		{1e-12, "0"},
		{1e31, "∞"},
		{1234.5, "1234.500000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPrice(tt.in))
	}
}

func fmtWant(v float64) string {
	return formatPrice(v)
}
