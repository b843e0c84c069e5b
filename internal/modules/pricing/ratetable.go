// README: Rate table access and configuration validation for a guild snapshot.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"scumfare/internal/types"
)

// RateTable returns the guild's base rates or ErrConfigNotFound.
func (s Snapshot) RateTable() (RateTable, error) {
	if s.Rates == nil {
		return RateTable{}, fmt.Errorf("%w: guild %s", ErrConfigNotFound, s.GuildID)
	}
	return *s.Rates, nil
}

func (r RateTable) unitScale() decimal.Decimal {
	if r.DistanceUnitScale.IsPositive() {
		return r.DistanceUnitScale
	}
	return decimal.NewFromInt(DefaultDistanceUnitScale)
}

// column is the NUMERIC(precision, scale) shape a value is stored in; see migrations/.
type column struct {
	precision, scale int32
}

var (
	moneyColumn      = column{14, 2}
	rateColumn       = column{14, 4}
	percentColumn    = column{5, 2}
	distanceColumn   = column{14, 3}
	multiplierColumn = column{8, 4}
)

type checkedValue struct {
	field string
	value decimal.Decimal
	col   column
}

// checkColumns rejects values the store would round or overflow.
func checkColumns(values ...checkedValue) error {
	for _, v := range values {
		if !types.FitsNumeric(v.value, v.col.precision, v.col.scale) {
			return invalidConfig("%s must have at most %d decimal places and be below %s",
				v.field, v.col.scale, decimal.New(1, v.col.precision-v.col.scale))
		}
	}
	return nil
}

func (r RateTable) Validate() error {
	switch {
	case r.BaseFare.IsNegative():
		return invalidConfig("base_fare must be >= 0")
	case r.PerDistanceUnitRate.IsNegative():
		return invalidConfig("per_distance_unit_rate must be >= 0")
	case r.MinimumFare.IsNegative():
		return invalidConfig("minimum_fare must be >= 0")
	case !types.IsCents(r.MinimumFare):
		return invalidConfig("minimum_fare must be a whole number of cents")
	case r.CommissionPercent.IsNegative() || r.CommissionPercent.GreaterThan(types.Hundred):
		return invalidConfig("commission_percent must be within [0,100]")
	case r.MaxDistance.IsNegative():
		return invalidConfig("max_distance must be >= 0")
	case r.DistanceUnitScale.IsNegative():
		return invalidConfig("distance_unit_scale must be >= 0")
	}
	return checkColumns(
		checkedValue{"base_fare", r.BaseFare, moneyColumn},
		checkedValue{"per_distance_unit_rate", r.PerDistanceUnitRate, rateColumn},
		checkedValue{"minimum_fare", r.MinimumFare, moneyColumn},
		checkedValue{"commission_percent", r.CommissionPercent, percentColumn},
		checkedValue{"max_distance", r.MaxDistance, distanceColumn},
		checkedValue{"distance_unit_scale", r.DistanceUnitScale, distanceColumn},
	)
}

func (t TypeMultiplier) Validate() error {
	if t.TypeID == "" {
		return invalidConfig("type_id is required")
	}
	if !t.Multiplier.IsPositive() {
		return invalidConfig("type %q multiplier must be > 0", t.TypeID)
	}
	return checkColumns(checkedValue{"multiplier", t.Multiplier, multiplierColumn})
}

func (z ZoneModifier) Validate() error {
	if z.ZoneID == "" {
		return invalidConfig("zone_id is required")
	}
	if !z.DangerMultiplier.IsPositive() {
		return invalidConfig("zone %q danger_multiplier must be > 0", z.ZoneID)
	}
	if z.MinimumOperatorLevel < 0 {
		return invalidConfig("zone %q minimum_operator_level must be >= 0", z.ZoneID)
	}
	return checkColumns(checkedValue{"danger_multiplier", z.DangerMultiplier, multiplierColumn})
}

func (m TimeModifier) Validate() error {
	if !m.AppliesWhen.Valid() {
		return invalidConfig("applies_when must be %q or %q", Night, PeakHours)
	}
	if !m.Multiplier.IsPositive() {
		return invalidConfig("%s multiplier must be > 0", m.AppliesWhen)
	}
	if (m.Start == "") != (m.End == "") {
		return invalidConfig("%s window needs both start and end", m.AppliesWhen)
	}
	if m.Start != "" {
		if _, err := parseClock(m.Start); err != nil {
			return invalidConfig("%s start: %v", m.AppliesWhen, err)
		}
		if _, err := parseClock(m.End); err != nil {
			return invalidConfig("%s end: %v", m.AppliesWhen, err)
		}
	}
	return checkColumns(checkedValue{"multiplier", m.Multiplier, multiplierColumn})
}

func (l OperatorLevel) Validate() error {
	switch {
	case l.Level < 1:
		return invalidConfig("operator level must be >= 1")
	case !l.EarningsMultiplier.IsPositive():
		return invalidConfig("level %d earnings_multiplier must be > 0", l.Level)
	case l.RequiredTrips < 0:
		return invalidConfig("level %d required_trips must be >= 0", l.Level)
	case l.RequiredDistance.IsNegative():
		return invalidConfig("level %d required_distance must be >= 0", l.Level)
	}
	return checkColumns(
		checkedValue{"earnings_multiplier", l.EarningsMultiplier, multiplierColumn},
		checkedValue{"required_distance", l.RequiredDistance, distanceColumn},
	)
}

// Validate checks every entity plus the per-guild uniqueness rules.
func (s Snapshot) Validate() error {
	if s.Rates != nil {
		if err := s.Rates.Validate(); err != nil {
			return err
		}
	}
	seenTypes := make(map[string]struct{}, len(s.Types))
	for _, t := range s.Types {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seenTypes[t.TypeID]; dup {
			return invalidConfig("duplicate type %q", t.TypeID)
		}
		seenTypes[t.TypeID] = struct{}{}
	}
	seenZones := make(map[string]struct{}, len(s.Zones))
	for _, z := range s.Zones {
		if err := z.Validate(); err != nil {
			return err
		}
		if _, dup := seenZones[z.ZoneID]; dup {
			return invalidConfig("duplicate zone %q", z.ZoneID)
		}
		seenZones[z.ZoneID] = struct{}{}
	}
	seenTime := make(map[TimeCondition]struct{}, len(s.TimeModifiers))
	for _, m := range s.TimeModifiers {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, dup := seenTime[m.AppliesWhen]; dup {
			return invalidConfig("duplicate time modifier %q", m.AppliesWhen)
		}
		seenTime[m.AppliesWhen] = struct{}{}
	}
	seenLevels := make(map[int]struct{}, len(s.OperatorLevels))
	for _, l := range s.OperatorLevels {
		if err := l.Validate(); err != nil {
			return err
		}
		if _, dup := seenLevels[l.Level]; dup {
			return invalidConfig("duplicate operator level %d", l.Level)
		}
		seenLevels[l.Level] = struct{}{}
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
