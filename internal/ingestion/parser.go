package ingestion

import (
	"encoding/json"
	"fmt"

	"VaultUSD/internal/event"
)

// ParsePriceTick converts the JSON wire form into an event.PriceTick.
// The feed validates before the core ever sees the tick; a non-positive price
// is rejected here instead of surfacing as a core error on every delivery.
func ParsePriceTick(data []byte) (event.PriceTick, error) {
	var tick event.PriceTick
	if err := json.Unmarshal(data, &tick); err != nil {
		return event.PriceTick{}, fmt.Errorf("parse price tick: %w", err)
	}
	if tick.Price <= 0 {
		return event.PriceTick{}, fmt.Errorf("price tick: non-positive price %v", tick.Price)
	}
	if tick.Sequence < 0 {
		return event.PriceTick{}, fmt.Errorf("price tick: negative sequence %d", tick.Sequence)
	}
	return tick, nil
}
