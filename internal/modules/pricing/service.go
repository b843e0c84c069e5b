// README: Pricing service loads a guild snapshot and runs the engine for fare requests.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"scumfare/internal/types"
)

// Source provides read-only configuration snapshots keyed by guild.
type Source interface {
	Snapshot(ctx context.Context, guildID string) (Snapshot, error)
}

type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

// TripRequest is the caller-facing form of a PriceRequest. Distance may be given directly or
// as map coordinates; time-of-day flags may be given directly or derived from At. When the
// operator's career totals are given, the level is derived from them and OperatorLevel is
// ignored.
type TripRequest struct {
	Distance         *decimal.Decimal `json:"distance,omitempty"`
	Origin           *types.Point     `json:"origin,omitempty"`
	Destination      *types.Point     `json:"destination,omitempty"`
	TypeID           string           `json:"type_id"`
	ZoneID           string           `json:"zone_id"`
	OperatorLevel    int              `json:"operator_level"`
	OperatorTrips    *int             `json:"operator_trips,omitempty"`
	OperatorDistance *decimal.Decimal `json:"operator_distance,omitempty"`
	IsNight          bool             `json:"is_night"`
	IsPeak           bool             `json:"is_peak"`
	At               *time.Time       `json:"at,omitempty"`
}

func (s *Service) Config(ctx context.Context, guildID string) (Snapshot, error) {
	return s.source.Snapshot(ctx, guildID)
}

// ComputePrice is the engine entry point for an already-normalised request.
func (s *Service) ComputePrice(ctx context.Context, guildID string, req PriceRequest) (PriceBreakdown, error) {
	snap, err := s.source.Snapshot(ctx, guildID)
	if err != nil {
		return PriceBreakdown{}, err
	}
	return ComputePrice(snap, req)
}

// Quote normalises trip against the guild snapshot and prices it. The normalised request is
// returned alongside the breakdown so callers can record exactly what was priced.
func (s *Service) Quote(ctx context.Context, guildID string, trip TripRequest) (PriceRequest, PriceBreakdown, error) {
	snap, err := s.source.Snapshot(ctx, guildID)
	if err != nil {
		return PriceRequest{}, PriceBreakdown{}, err
	}
	req, err := Normalize(snap, trip)
	if err != nil {
		return PriceRequest{}, PriceBreakdown{}, err
	}
	b, err := ComputePrice(snap, req)
	if err != nil {
		return PriceRequest{}, PriceBreakdown{}, err
	}
	return req, b, nil
}

// Normalize turns a TripRequest into a PriceRequest using the snapshot's distance scale and
// time windows.
func Normalize(snap Snapshot, trip TripRequest) (PriceRequest, error) {
	req := PriceRequest{
		TypeID:        trip.TypeID,
		ZoneID:        trip.ZoneID,
		OperatorLevel: trip.OperatorLevel,
		IsNight:       trip.IsNight,
		IsPeak:        trip.IsPeak,
	}
	switch {
	case trip.Distance != nil:
		req.Distance = *trip.Distance
	case trip.Origin != nil && trip.Destination != nil:
		rates, err := snap.RateTable()
		if err != nil {
			return PriceRequest{}, err
		}
		dist, err := distanceUnits(*trip.Origin, *trip.Destination, rates.unitScale())
		if err != nil {
			return PriceRequest{}, err
		}
		req.Distance = dist
	default:
		return PriceRequest{}, fmt.Errorf("%w: distance or origin and destination required", ErrInvalidRequest)
	}
	if trip.OperatorTrips != nil || trip.OperatorDistance != nil {
		trips, dist := 0, decimal.Zero
		if trip.OperatorTrips != nil {
			trips = *trip.OperatorTrips
		}
		if trip.OperatorDistance != nil {
			dist = *trip.OperatorDistance
		}
		if trips < 0 || dist.IsNegative() {
			return PriceRequest{}, fmt.Errorf("%w: operator totals must be >= 0", ErrInvalidRequest)
		}
		req.OperatorLevel = EffectiveLevel(snap.OperatorLevels, trips, dist)
	}
	if trip.At != nil {
		night, peak := TimeFlags(snap.TimeModifiers, *trip.At)
		req.IsNight = req.IsNight || night
		req.IsPeak = req.IsPeak || peak
	}
	return req, nil
}
