// README: Quote record; a priced trip persisted by the caller of the pricing engine.
package quote

import (
	"time"

	"github.com/google/uuid"

	"scumfare/internal/modules/pricing"
)

type Quote struct {
	ID          uuid.UUID              `json:"id"`
	GuildID     string                 `json:"guild_id"`
	RequestedBy string                 `json:"requested_by"`
	Request     pricing.PriceRequest   `json:"request"`
	Breakdown   pricing.PriceBreakdown `json:"breakdown"`
	CreatedAt   time.Time              `json:"created_at"`
}

// CreatedEvent is published after a quote is stored.
type CreatedEvent struct {
	QuoteID          uuid.UUID `json:"quote_id"`
	GuildID          string    `json:"guild_id"`
	RequestedBy      string    `json:"requested_by"`
	TypeID           string    `json:"type_id"`
	ZoneID           string    `json:"zone_id"`
	TotalFare        string    `json:"total_fare"`
	Commission       string    `json:"commission"`
	OperatorEarnings string    `json:"operator_earnings"`
	CreatedAt        time.Time `json:"created_at"`
}

const CreatedRoutingKey = "quote.created"
