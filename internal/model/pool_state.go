package model

// PoolStateSnapshot is the live pool state assembled from a streaming
// metrics source and a periodic poll. HasPrice and HasSlot record which
// sources have reported so a merge never clobbers fields an update has
// no data for.
type PoolStateSnapshot struct {
	Price        float64 `json:"price"`
	Tick         int     `json:"tick"`
	SqrtPriceX96 string  `json:"sqrt_price_x96"`
	Liquidity    string  `json:"liquidity"`
	HasPrice     bool    `json:"has_price"`
	HasSlot      bool    `json:"has_slot"`
}
