package event

// PriceTick is a collateral price observation from the feed.
// Field names use snake_case to match upstream producers.
type PriceTick struct {
	Price       float64 `json:"price"`
	Sequence    int64   `json:"sequence"` // monotonic per feed
	TimestampUs int64   `json:"timestamp_us"`
}
