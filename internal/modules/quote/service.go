// README: Quote service prices a trip, records it, and announces it to the bot.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scumfare/internal/modules/pricing"
	"scumfare/internal/types"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	// DefaultPublishTimeout bounds the quote.created publish on the request path.
	DefaultPublishTimeout = 2 * time.Second
)

var (
	ErrNotFound   = errors.New("quote not found")
	ErrBadRequest = errors.New("bad request")
)

type Repository interface {
	Create(ctx context.Context, q *Quote) error
	Get(ctx context.Context, guildID string, id uuid.UUID) (*Quote, error)
	ListByGuild(ctx context.Context, guildID string, limit int) ([]Quote, error)
}

type Pricer interface {
	Quote(ctx context.Context, guildID string, trip pricing.TripRequest) (pricing.PriceRequest, pricing.PriceBreakdown, error)
}

// Publisher delivers event payloads; a nil Publisher disables events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type Service struct {
	store          Repository
	pricing        Pricer
	events         Publisher
	logger         *slog.Logger
	now            func() time.Time
	publishTimeout time.Duration
}

func NewService(store Repository, pricer Pricer, events Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:          store,
		pricing:        pricer,
		events:         events,
		logger:         logger,
		now:            time.Now,
		publishTimeout: DefaultPublishTimeout,
	}
}

func (s *Service) Create(ctx context.Context, actor pricing.Actor, guildID string, trip pricing.TripRequest) (*Quote, error) {
	if guildID == "" || actor.UID == "" {
		return nil, ErrBadRequest
	}
	req, breakdown, err := s.pricing.Quote(ctx, guildID, trip)
	if err != nil {
		return nil, err
	}
	// quotes.total_fare is NUMERIC(14,2).
	if !types.FitsNumeric(breakdown.TotalFare, 14, 2) {
		return nil, fmt.Errorf("%w: total fare %s is too large to record", ErrBadRequest, breakdown.TotalFare.StringFixed(2))
	}

	q := &Quote{
		ID:          uuid.New(),
		GuildID:     guildID,
		RequestedBy: actor.UID,
		Request:     req,
		Breakdown:   breakdown,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Create(ctx, q); err != nil {
		return nil, err
	}
	s.publishCreated(ctx, q)
	return q, nil
}

func (s *Service) Get(ctx context.Context, guildID string, id uuid.UUID) (*Quote, error) {
	return s.store.Get(ctx, guildID, id)
}

// List returns the newest quotes first. limit <= 0 selects DefaultListLimit.
func (s *Service) List(ctx context.Context, guildID string, limit int) ([]Quote, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		return nil, ErrBadRequest
	}
	return s.store.ListByGuild(ctx, guildID, limit)
}

// publishCreated is best effort; the quote is already stored. The publish gets its own
// short deadline and survives the client going away.
func (s *Service) publishCreated(ctx context.Context, q *Quote) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	body, err := json.Marshal(CreatedEvent{
		QuoteID:          q.ID,
		GuildID:          q.GuildID,
		RequestedBy:      q.RequestedBy,
		TypeID:           q.Request.TypeID,
		ZoneID:           q.Request.ZoneID,
		TotalFare:        q.Breakdown.TotalFare.StringFixed(2),
		Commission:       q.Breakdown.Commission.StringFixed(2),
		OperatorEarnings: q.Breakdown.OperatorEarnings.StringFixed(2),
		CreatedAt:        q.CreatedAt,
	})
	if err != nil {
		s.logger.Error("encode quote event", "quote_id", q.ID, "error", err)
		return
	}
	if err := s.events.Publish(ctx, CreatedRoutingKey, body); err != nil {
		s.logger.Warn("publish quote event failed", "quote_id", q.ID, "guild_id", q.GuildID, "error", err)
	}
}
