package event

import "encoding/json"

// EventType discriminator for outbound payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypePriceUpdated
	EventTypeVaultOpened
	EventTypeVaultLiquidated
	EventTypeSnapshotRecorded
)

// Envelope wraps every outbound event. The sequence is assigned by the
// publisher in emit order; it is independent of snapshot sequence indexes,
// which stay caller-supplied.
type Envelope struct {
	Sequence    int64           `json:"sequence"`
	EventType   string          `json:"event_type"`
	TimestampUs int64           `json:"timestamp_us,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

func (et EventType) String() string {
	switch et {
	case EventTypePriceUpdated:
		return "PriceUpdated"
	case EventTypeVaultOpened:
		return "VaultOpened"
	case EventTypeVaultLiquidated:
		return "VaultLiquidated"
	case EventTypeSnapshotRecorded:
		return "SnapshotRecorded"
	default:
		return "Unknown"
	}
}
