package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"scumfare/internal/types"
)

// stubSource serves fixed snapshots keyed by guild.
type stubSource struct {
	snaps map[string]Snapshot
	err   error
	calls int
	mu    sync.Mutex
}

func (s *stubSource) Snapshot(_ context.Context, guildID string) (Snapshot, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return Snapshot{}, s.err
	}
	snap, ok := s.snaps[guildID]
	if !ok {
		return Snapshot{GuildID: guildID}, nil
	}
	return snap, nil
}

func newStubSource() *stubSource {
	return &stubSource{snaps: map[string]Snapshot{"guild-1": exampleSnapshot()}}
}

func TestService_ComputePrice(t *testing.T) {
	svc := NewService(newStubSource())

	got, err := svc.ComputePrice(context.Background(), "guild-1", sedanRequest("5"))
	if err != nil {
		t.Fatalf("ComputePrice() error = %v", err)
	}
	if !got.TotalFare.Equal(d("125")) {
		t.Errorf("TotalFare = %s, want 125", got.TotalFare)
	}

	if _, err := svc.ComputePrice(context.Background(), "other-guild", sedanRequest("5")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("unconfigured guild: err = %v, want ErrConfigNotFound", err)
	}
}

func TestService_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&stubSource{err: boom})
	if _, err := svc.ComputePrice(context.Background(), "guild-1", sedanRequest("1")); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestService_QuoteFromCoordinates(t *testing.T) {
	svc := NewService(newStubSource())
	// 3-4-5 triangle, 5000 world units = 5 km.
	req, got, err := svc.Quote(context.Background(), "guild-1", TripRequest{
		Origin:        &types.Point{X: 0, Y: 0},
		Destination:   &types.Point{X: 3000, Y: 4000},
		TypeID:        "sedan",
		ZoneID:        "safe",
		OperatorLevel: 1,
	})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if !req.Distance.Equal(d("5")) {
		t.Errorf("Distance = %s, want 5", req.Distance)
	}
	if !got.TotalFare.Equal(d("125")) {
		t.Errorf("TotalFare = %s, want 125", got.TotalFare)
	}
}

func TestService_QuoteDerivesTimeFlags(t *testing.T) {
	svc := NewService(newStubSource())
	dist := d("5")
	at := time.Date(2026, 2, 10, 23, 0, 0, 0, time.UTC)

	req, got, err := svc.Quote(context.Background(), "guild-1", TripRequest{
		Distance:      &dist,
		TypeID:        "sedan",
		ZoneID:        "safe",
		OperatorLevel: 1,
		At:            &at,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !req.IsNight || req.IsPeak {
		t.Errorf("flags = night:%v peak:%v, want night only", req.IsNight, req.IsPeak)
	}
	// 125 * 1.2
	if !got.TotalFare.Equal(d("150")) {
		t.Errorf("TotalFare = %s, want 150", got.TotalFare)
	}
}

func TestService_QuoteNeedsDistance(t *testing.T) {
	svc := NewService(newStubSource())
	_, _, err := svc.Quote(context.Background(), "guild-1", TripRequest{TypeID: "sedan", ZoneID: "safe"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestService_ConcurrentCallsAgree(t *testing.T) {
	svc := NewService(newStubSource())
	want, err := svc.ComputePrice(context.Background(), "guild-1", sedanRequest("8.25"))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.ComputePrice(context.Background(), "guild-1", sedanRequest("8.25"))
			if err != nil {
				errs <- err
				return
			}
			if !got.TotalFare.Equal(want.TotalFare) || !got.OperatorEarnings.Equal(want.OperatorEarnings) {
				errs <- errors.New("concurrent result differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestService_QuoteDerivesOperatorLevel(t *testing.T) {
	snap := exampleSnapshot()
	snap.OperatorLevels = append(snap.OperatorLevels,
		OperatorLevel{Level: 3, EarningsMultiplier: d("1.25"), RequiredTrips: 50, RequiredDistance: d("200"), Active: true})
	svc := NewService(&stubSource{snaps: map[string]Snapshot{"guild-1": snap}})
	dist := d("5")

	tests := []struct {
		name         string
		trips        *int
		distance     *decimal.Decimal
		explicit     int
		wantLevel    int
		wantEarnings string
	}{
		{"veteran totals", intPtr(60), decPtr("250"), 0, 3, "140.63"},
		{"trips met but distance short", intPtr(60), decPtr("10"), 0, 1, "112.5"},
		{"derived level overrides explicit", intPtr(5), nil, 3, 1, "112.5"},
		{"explicit level without totals", nil, nil, 3, 3, "140.63"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, got, err := svc.Quote(context.Background(), "guild-1", TripRequest{
				Distance:         &dist,
				TypeID:           "sedan",
				ZoneID:           "safe",
				OperatorLevel:    tt.explicit,
				OperatorTrips:    tt.trips,
				OperatorDistance: tt.distance,
			})
			if err != nil {
				t.Fatalf("Quote() error = %v", err)
			}
			if req.OperatorLevel != tt.wantLevel {
				t.Errorf("OperatorLevel = %d, want %d", req.OperatorLevel, tt.wantLevel)
			}
			if !got.OperatorEarnings.Equal(d(tt.wantEarnings)) {
				t.Errorf("OperatorEarnings = %s, want %s", got.OperatorEarnings, tt.wantEarnings)
			}
		})
	}

	_, _, err := svc.Quote(context.Background(), "guild-1", TripRequest{
		Distance: &dist, TypeID: "sedan", ZoneID: "safe", OperatorTrips: intPtr(-1),
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("negative trips: err = %v, want ErrInvalidRequest", err)
	}
}

func intPtr(v int) *int { return &v }

func decPtr(v string) *decimal.Decimal {
	x := d(v)
	return &x
}
