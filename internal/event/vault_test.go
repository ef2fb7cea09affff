package event_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"VaultUSD/internal/event"
)

func TestNewSnapshotRecorded_InfiniteRatioIsNull(t *testing.T) {
	snap := event.NewSnapshotRecorded(0, 0, 800, math.Inf(1), 7)
	if snap.AggregateRatio != nil {
		t.Fatalf("infinite ratio should map to nil, got %v", *snap.AggregateRatio)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"aggregate_ratio":null`) {
		t.Errorf("wire form should carry an explicit null: %s", data)
	}
}

func TestNewSnapshotRecorded_FiniteRatio(t *testing.T) {
	snap := event.NewSnapshotRecorded(18, 18000, 2000, 2.0, 0)
	if snap.AggregateRatio == nil || *snap.AggregateRatio != 2.0 {
		t.Fatalf("finite ratio should be carried, got %+v", snap.AggregateRatio)
	}
	if snap.SequenceIndex != 0 || snap.Price != 2000 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}
