// README: Pricing configuration entities, request/breakdown types, and the modifier variant set.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDistanceUnitScale converts SCUM world units to kilometres.
const DefaultDistanceUnitScale = 1000

type RateTable struct {
	BaseFare            decimal.Decimal `json:"base_fare"`
	PerDistanceUnitRate decimal.Decimal `json:"per_distance_unit_rate"`
	MinimumFare         decimal.Decimal `json:"minimum_fare"`
	CommissionPercent   decimal.Decimal `json:"commission_percent"`
	// MaxDistance of zero means no limit.
	MaxDistance       decimal.Decimal `json:"max_distance"`
	DistanceUnitScale decimal.Decimal `json:"distance_unit_scale"`
	UpdatedBy         string          `json:"updated_by,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type TypeMultiplier struct {
	TypeID      string          `json:"type_id"`
	DisplayName string          `json:"display_name,omitempty"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Active      bool            `json:"active"`
}

type ZoneModifier struct {
	ZoneID               string          `json:"zone_id"`
	DisplayName          string          `json:"display_name,omitempty"`
	DangerMultiplier     decimal.Decimal `json:"danger_multiplier"`
	MinimumOperatorLevel int             `json:"minimum_operator_level"`
	Active               bool            `json:"active"`
}

type TimeCondition string

const (
	Night     TimeCondition = "night"
	PeakHours TimeCondition = "peak_hours"
)

func (c TimeCondition) Valid() bool {
	return c == Night || c == PeakHours
}

type TimeModifier struct {
	AppliesWhen TimeCondition   `json:"applies_when"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	// Start and End are optional "HH:MM" bounds used to derive the flag from a clock time.
	// End before Start wraps past midnight.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type OperatorLevel struct {
	Level              int             `json:"level"`
	Name               string          `json:"name,omitempty"`
	EarningsMultiplier decimal.Decimal `json:"earnings_multiplier"`
	RequiredTrips      int             `json:"required_trips"`
	RequiredDistance   decimal.Decimal `json:"required_distance"`
	Active             bool            `json:"active"`
}

type PriceRequest struct {
	Distance      decimal.Decimal `json:"distance"`
	TypeID        string          `json:"type_id"`
	ZoneID        string          `json:"zone_id"`
	OperatorLevel int             `json:"operator_level"`
	IsNight       bool            `json:"is_night"`
	IsPeak        bool            `json:"is_peak"`
}

// PriceBreakdown is a computed result. Values are never mutated after ComputePrice returns.
type PriceBreakdown struct {
	BaseFare          decimal.Decimal `json:"base_fare"`
	DistanceFare      decimal.Decimal `json:"distance_fare"`
	TypeMultiplier    decimal.Decimal `json:"type_multiplier"`
	ZoneMultiplier    decimal.Decimal `json:"zone_multiplier"`
	TimeMultiplier    decimal.Decimal `json:"time_multiplier"`
	OperatorBonus     decimal.Decimal `json:"operator_bonus"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	FloorApplied      bool            `json:"floor_applied"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	Commission        decimal.Decimal `json:"commission"`
	TotalFare         decimal.Decimal `json:"total_fare"`
	NetEarnings       decimal.Decimal `json:"net_earnings"`
	OperatorEarnings  decimal.Decimal `json:"operator_earnings"`
	PlatformBonusCost decimal.Decimal `json:"platform_bonus_cost"`
	ZoneEligible      bool            `json:"zone_eligible"`
	Modifiers         []Modifier      `json:"modifiers"`
}

type ModifierKind string

const (
	KindType          ModifierKind = "type"
	KindZone          ModifierKind = "zone"
	KindNight         ModifierKind = "night"
	KindPeak          ModifierKind = "peak_hours"
	KindOperatorLevel ModifierKind = "operator_level"
)

type ModifierScope string

const (
	// ScopeFare modifiers multiply what the requester pays.
	ScopeFare ModifierScope = "fare"
	// ScopeEarnings modifiers multiply the operator's net earnings.
	ScopeEarnings ModifierScope = "earnings"
)

// Modifier is one resolved adjustment. Key identifies the configuration entity it came from.
type Modifier struct {
	Kind       ModifierKind    `json:"kind"`
	Key        string          `json:"key"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Scope      ModifierScope   `json:"scope"`
}

// Snapshot is the read-only configuration of one guild at one point in time.
type Snapshot struct {
	GuildID        string           `json:"guild_id"`
	Rates          *RateTable       `json:"rates,omitempty"`
	Types          []TypeMultiplier `json:"types"`
	Zones          []ZoneModifier   `json:"zones"`
	TimeModifiers  []TimeModifier   `json:"time_modifiers"`
	OperatorLevels []OperatorLevel  `json:"operator_levels"`
}

// Actor is the authenticated principal on whose behalf a call is made.
type Actor struct {
	UID  string
	Role string
}
