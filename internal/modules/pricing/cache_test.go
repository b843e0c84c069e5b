package pricing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func TestSnapshotKey(t *testing.T) {
	if got := snapshotKey("12345"); got != "pricing:snapshot:12345" {
		t.Errorf("snapshotKey() = %q", got)
	}
}

func TestSnapshot_JSONRoundTripPreservesPricing(t *testing.T) {
	snap := exampleSnapshot()
	snap.Rates.MaxDistance = d("40.125")
	snap.Rates.DistanceUnitScale = d("1000")
	snap.Rates.UpdatedBy = "admin-1"
	snap.Rates.UpdatedAt = time.Date(2026, 5, 1, 12, 30, 15, 123456789, time.UTC)
	snap.Types = append(snap.Types, TypeMultiplier{TypeID: "odd", Multiplier: d("1.0375"), Active: true})

	payload, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Snapshot
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Rates == nil {
		t.Fatal("rates lost in round trip")
	}
	decimals := []struct {
		name      string
		got, want decimal.Decimal
	}{
		{"base_fare", got.Rates.BaseFare, snap.Rates.BaseFare},
		{"per_distance_unit_rate", got.Rates.PerDistanceUnitRate, snap.Rates.PerDistanceUnitRate},
		{"minimum_fare", got.Rates.MinimumFare, snap.Rates.MinimumFare},
		{"commission_percent", got.Rates.CommissionPercent, snap.Rates.CommissionPercent},
		{"max_distance", got.Rates.MaxDistance, snap.Rates.MaxDistance},
		{"distance_unit_scale", got.Rates.DistanceUnitScale, snap.Rates.DistanceUnitScale},
		{"odd multiplier", got.Types[3].Multiplier, snap.Types[3].Multiplier},
		{"red danger", got.Zones[1].DangerMultiplier, snap.Zones[1].DangerMultiplier},
		{"night", got.TimeModifiers[0].Multiplier, snap.TimeModifiers[0].Multiplier},
	}
	for _, tt := range decimals {
		if !tt.got.Equal(tt.want) {
			t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
	if !got.Rates.UpdatedAt.Equal(snap.Rates.UpdatedAt) || got.Rates.UpdatedBy != "admin-1" {
		t.Errorf("audit fields = %q %v", got.Rates.UpdatedBy, got.Rates.UpdatedAt)
	}
	if got.Types[2].Active || got.Zones[1].MinimumOperatorLevel != 3 || got.TimeModifiers[1].Start != "18:00" {
		t.Errorf("non-decimal fields changed: %+v", got)
	}

	for _, req := range []PriceRequest{sedanRequest("5"), {Distance: d("7.5"), TypeID: "odd", ZoneID: "safe", OperatorLevel: 1}} {
		want, err := ComputePrice(snap, req)
		if err != nil {
			t.Fatal(err)
		}
		have, err := ComputePrice(got, req)
		if err != nil {
			t.Fatal(err)
		}
		if !have.TotalFare.Equal(want.TotalFare) || !have.OperatorEarnings.Equal(want.OperatorEarnings) {
			t.Errorf("%s: decoded snapshot prices %s/%s, want %s/%s", req.TypeID,
				have.TotalFare, have.OperatorEarnings, want.TotalFare, want.OperatorEarnings)
		}
	}
}

func TestCachedSource_ServesFromCacheUntilInvalidated(t *testing.T) {
	addr := os.Getenv("SCUMFARE_TEST_REDIS")
	if addr == "" {
		t.Skip("SCUMFARE_TEST_REDIS not set; skipping Redis-backed cache tests")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	src := newStubSource()
	cache := NewCachedSource(client, src, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := cache.Invalidate(ctx, "guild-1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	first, err := cache.Snapshot(ctx, "guild-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.Snapshot(ctx, "guild-1")
	if err != nil {
		t.Fatal(err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
	if !second.Rates.BaseFare.Equal(first.Rates.BaseFare) {
		t.Errorf("cached snapshot differs: %s vs %s", second.Rates.BaseFare, first.Rates.BaseFare)
	}

	b, err := ComputePrice(second, sedanRequest("5"))
	if err != nil || !b.TotalFare.Equal(d("125")) {
		t.Errorf("cached snapshot prices to %s, %v", b.TotalFare, err)
	}

	if err := cache.Invalidate(ctx, "guild-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Snapshot(ctx, "guild-1"); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("source calls after invalidate = %d, want 2", src.calls)
	}
}
