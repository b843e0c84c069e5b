// README: Pricing engine; single-pass fare computation over a configuration snapshot.
package pricing

import (
	"fmt"

	"scumfare/internal/types"
)

// ComputePrice prices req against snap. It has no side effects and either returns a fully
// populated breakdown or an error.
//
// TotalFare is the subtotal after the minimum fare floor, rounded half-up to cents. Commission
// and earnings are derived from that rounded total, so TotalFare = Commission + NetOperatorFare
// holds exactly.
func ComputePrice(snap Snapshot, req PriceRequest) (PriceBreakdown, error) {
	if req.Distance.IsNegative() {
		return PriceBreakdown{}, fmt.Errorf("%w: distance must be >= 0", ErrInvalidRequest)
	}
	rates, err := snap.RateTable()
	if err != nil {
		return PriceBreakdown{}, err
	}
	if rates.MaxDistance.IsPositive() && req.Distance.GreaterThan(rates.MaxDistance) {
		return PriceBreakdown{}, fmt.Errorf("%w: distance %s exceeds maximum %s", ErrInvalidRequest, req.Distance, rates.MaxDistance)
	}
	res, err := Resolve(snap, req)
	if err != nil {
		return PriceBreakdown{}, err
	}

	baseFare := rates.BaseFare
	distanceFare := req.Distance.Mul(rates.PerDistanceUnitRate)
	raw := baseFare.Add(distanceFare).Mul(res.FareMultiplier())

	// Floor after multipliers so the minimum is never scaled itself.
	subtotal := raw
	floored := false
	if subtotal.LessThan(rates.MinimumFare) {
		subtotal = rates.MinimumFare
		floored = true
	}
	subtotal = types.RoundMoney(subtotal)

	commission := types.RoundMoney(types.Percent(subtotal, rates.CommissionPercent))
	net := subtotal.Sub(commission)
	earnings := types.RoundMoney(net.Mul(res.OperatorBonus))

	return PriceBreakdown{
		BaseFare:          baseFare,
		DistanceFare:      distanceFare,
		TypeMultiplier:    res.TypeMultiplier,
		ZoneMultiplier:    res.ZoneMultiplier,
		TimeMultiplier:    res.TimeMultiplier,
		OperatorBonus:     res.OperatorBonus,
		Subtotal:          raw,
		FloorApplied:      floored,
		CommissionPercent: rates.CommissionPercent,
		Commission:        commission,
		TotalFare:         subtotal,
		NetEarnings:       net,
		OperatorEarnings:  earnings,
		PlatformBonusCost: earnings.Sub(net),
		ZoneEligible:      res.ZoneEligible,
		Modifiers:         res.Modifiers,
	}, nil
}
