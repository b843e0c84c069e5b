// README: Map distance helpers for SCUM world coordinates.
package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"scumfare/internal/types"
)

// MaxWorldCoordinate bounds |X| and |Y|. The SCUM island spans roughly ±620000 world units.
const MaxWorldCoordinate = 1_000_000

// worldDistance returns the straight-line distance between two points in world units.
// The game map is flat, so no great-circle correction is needed.
func worldDistance(a, b types.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func onMap(p types.Point) bool {
	for _, v := range []float64{p.X, p.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxWorldCoordinate {
			return false
		}
	}
	return true
}

// distanceUnits converts a world-unit distance into priced distance units, kept to
// millesimal precision so repeated quotes for the same trip are identical.
func distanceUnits(a, b types.Point, scale decimal.Decimal) (decimal.Decimal, error) {
	if !onMap(a) || !onMap(b) {
		return decimal.Decimal{}, fmt.Errorf("%w: coordinates must be within ±%d", ErrInvalidRequest, MaxWorldCoordinate)
	}
	dist := worldDistance(a, b)
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: distance is not finite", ErrInvalidRequest)
	}
	return decimal.NewFromFloat(dist).DivRound(scale, 3), nil
}
