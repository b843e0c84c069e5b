// README: Modifier resolver; maps a request onto the guild's configured modifiers.
package pricing

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"scumfare/internal/types"
)

// Resolution is the outcome of Resolve. Modifiers keeps resolution order:
// type, zone, night, peak, operator level.
type Resolution struct {
	Modifiers      []Modifier
	TypeMultiplier decimal.Decimal
	ZoneMultiplier decimal.Decimal
	TimeMultiplier decimal.Decimal
	OperatorBonus  decimal.Decimal
	ZoneEligible   bool
}

// FareMultiplier is the product of every fare-scope modifier.
func (r Resolution) FareMultiplier() decimal.Decimal {
	m := types.One
	for _, mod := range r.Modifiers {
		if mod.Scope == ScopeFare {
			m = m.Mul(mod.Multiplier)
		}
	}
	return m
}

// Resolve picks the modifiers that apply to req. It does not touch the rate table.
func Resolve(snap Snapshot, req PriceRequest) (Resolution, error) {
	res := Resolution{
		TimeMultiplier: types.One,
		OperatorBonus:  types.One,
	}

	typ, ok := findType(snap.Types, req.TypeID)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownType, req.TypeID)
	}
	res.TypeMultiplier = typ.Multiplier
	res.Modifiers = append(res.Modifiers, Modifier{Kind: KindType, Key: typ.TypeID, Multiplier: typ.Multiplier, Scope: ScopeFare})

	zone, ok := findZone(snap.Zones, req.ZoneID)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownZone, req.ZoneID)
	}
	res.ZoneMultiplier = zone.DangerMultiplier
	res.ZoneEligible = req.OperatorLevel >= zone.MinimumOperatorLevel
	res.Modifiers = append(res.Modifiers, Modifier{Kind: KindZone, Key: zone.ZoneID, Multiplier: zone.DangerMultiplier, Scope: ScopeFare})

	for _, cond := range activeConditions(req) {
		tm, ok := findTimeModifier(snap.TimeModifiers, cond)
		if !ok {
			continue
		}
		res.TimeMultiplier = res.TimeMultiplier.Mul(tm.Multiplier)
		res.Modifiers = append(res.Modifiers, Modifier{Kind: conditionKind(cond), Key: string(cond), Multiplier: tm.Multiplier, Scope: ScopeFare})
	}

	if lvl, ok := bonusLevel(snap.OperatorLevels, req.OperatorLevel); ok {
		res.OperatorBonus = lvl.EarningsMultiplier
		res.Modifiers = append(res.Modifiers, Modifier{
			Kind:       KindOperatorLevel,
			Key:        strconv.Itoa(lvl.Level),
			Multiplier: lvl.EarningsMultiplier,
			Scope:      ScopeEarnings,
		})
	}
	return res, nil
}

// EffectiveLevel returns the highest active level whose trip and distance requirements are
// both met, or 0 when none is.
func EffectiveLevel(levels []OperatorLevel, trips int, distance decimal.Decimal) int {
	best := 0
	for _, l := range levels {
		if !l.Active || l.Level <= best {
			continue
		}
		if trips >= l.RequiredTrips && distance.GreaterThanOrEqual(l.RequiredDistance) {
			best = l.Level
		}
	}
	return best
}

func findType(list []TypeMultiplier, id string) (TypeMultiplier, bool) {
	for _, t := range list {
		if t.Active && t.TypeID == id {
			return t, true
		}
	}
	return TypeMultiplier{}, false
}

func findZone(list []ZoneModifier, id string) (ZoneModifier, bool) {
	for _, z := range list {
		if z.Active && z.ZoneID == id {
			return z, true
		}
	}
	return ZoneModifier{}, false
}

func findTimeModifier(list []TimeModifier, cond TimeCondition) (TimeModifier, bool) {
	for _, m := range list {
		if m.AppliesWhen == cond {
			return m, true
		}
	}
	return TimeModifier{}, false
}

func activeConditions(req PriceRequest) []TimeCondition {
	var out []TimeCondition
	if req.IsNight {
		out = append(out, Night)
	}
	if req.IsPeak {
		out = append(out, PeakHours)
	}
	return out
}

func conditionKind(c TimeCondition) ModifierKind {
	if c == Night {
		return KindNight
	}
	return KindPeak
}

// bonusLevel finds the highest active level not above requested.
func bonusLevel(levels []OperatorLevel, requested int) (OperatorLevel, bool) {
	active := make([]OperatorLevel, 0, len(levels))
	for _, l := range levels {
		if l.Active {
			active = append(active, l)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Level < active[j].Level })

	var (
		found OperatorLevel
		ok    bool
	)
	for _, l := range active {
		if l.Level > requested {
			break
		}
		found, ok = l, true
	}
	return found, ok
}
