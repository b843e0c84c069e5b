package pricing

import (
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// exampleSnapshot is the reference configuration: 50 base, 15 per unit, 10 minimum, 10% commission.
func exampleSnapshot() Snapshot {
	return Snapshot{
		GuildID: "guild-1",
		Rates: &RateTable{
			BaseFare:            d("50"),
			PerDistanceUnitRate: d("15"),
			MinimumFare:         d("10"),
			CommissionPercent:   d("10"),
		},
		Types: []TypeMultiplier{
			{TypeID: "sedan", Multiplier: d("1.0"), Active: true},
			{TypeID: "truck", Multiplier: d("1.5"), Active: true},
			{TypeID: "retired", Multiplier: d("3.0"), Active: false},
		},
		Zones: []ZoneModifier{
			{ZoneID: "safe", DangerMultiplier: d("1.0"), Active: true},
			{ZoneID: "red", DangerMultiplier: d("2.0"), MinimumOperatorLevel: 3, Active: true},
		},
		TimeModifiers: []TimeModifier{
			{AppliesWhen: Night, Multiplier: d("1.2"), Start: "22:00", End: "06:00"},
			{AppliesWhen: PeakHours, Multiplier: d("1.3"), Start: "18:00", End: "22:00"},
		},
		OperatorLevels: []OperatorLevel{
			{Level: 1, EarningsMultiplier: d("1.0"), Active: true},
		},
	}
}

func sedanRequest(distance string) PriceRequest {
	return PriceRequest{
		Distance:      d(distance),
		TypeID:        "sedan",
		ZoneID:        "safe",
		OperatorLevel: 1,
	}
}
