// README: Administrator writes to the configuration store; validates, stamps the actor, and
// invalidates cached snapshots.
package pricing

import (
	"context"
	"log/slog"
	"time"
)

// ConfigWriter is the write side of the configuration store.
type ConfigWriter interface {
	PutRateTable(ctx context.Context, guildID string, r RateTable) error
	PutType(ctx context.Context, guildID string, t TypeMultiplier, updatedBy string) error
	DeleteType(ctx context.Context, guildID, typeID string) error
	PutZone(ctx context.Context, guildID string, z ZoneModifier, updatedBy string) error
	DeleteZone(ctx context.Context, guildID, zoneID string) error
	PutTimeModifier(ctx context.Context, guildID string, m TimeModifier, updatedBy string) error
	PutOperatorLevel(ctx context.Context, guildID string, l OperatorLevel, updatedBy string) error
	DeleteOperatorLevel(ctx context.Context, guildID string, level int) error
}

// Invalidator drops cached snapshots for a guild.
type Invalidator interface {
	Invalidate(ctx context.Context, guildID string) error
}

type Admin struct {
	store  ConfigWriter
	cache  Invalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewAdmin wires the write path. cache may be nil when no snapshot cache is in use.
func NewAdmin(store ConfigWriter, cache Invalidator, logger *slog.Logger) *Admin {
	return &Admin{store: store, cache: cache, logger: logger, now: time.Now}
}

func (a *Admin) PutRateTable(ctx context.Context, actor Actor, guildID string, r RateTable) (RateTable, error) {
	if err := r.Validate(); err != nil {
		return RateTable{}, err
	}
	r.UpdatedBy = actor.UID
	r.UpdatedAt = a.now().UTC()
	if err := a.store.PutRateTable(ctx, guildID, r); err != nil {
		return RateTable{}, err
	}
	a.invalidate(ctx, guildID)
	return r, nil
}

func (a *Admin) PutType(ctx context.Context, actor Actor, guildID string, t TypeMultiplier) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := a.store.PutType(ctx, guildID, t, actor.UID); err != nil {
		return err
	}
	a.invalidate(ctx, guildID)
	return nil
}

func (a *Admin) DeleteType(ctx context.Context, _ Actor, guildID, typeID string) error {
	if err := a.store.DeleteType(ctx, guildID, typeID); err != nil {
		return err
	}
	a.invalidate(ctx, guildID)
	return nil
}

func (a *Admin) PutZone(ctx context.Context, actor Actor, guildID string, z ZoneModifier) error {
	if err := z.Validate(); err != nil {
		return err
	}
	if err := a.store.PutZone(ctx, guildID, z, actor.UID); err != nil {
		return err
	}
	a.invalidate(ctx, guildID)
	return nil
}

func (a *Admin) DeleteZone(ctx context.Context, _ Actor, guildID, zoneID string) error {
	if err := a.store.DeleteZone(ctx, guildID, zoneID); err != nil {
		return err
	}
	a.invalidate(ctx, guildID)
	return nil
}

func (a *Admin) PutTimeModifier(ctx context.Context, actor Actor, guildID string, m TimeModifier) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := a.store.PutTimeModifier(ctx, guildID, m, actor.UID); err != nil {
		return err
	}
	a.invalidate(ctx, guildID)
	return nil
}

func (a *Admin) PutOperatorLevel(ctx context.Context, actor Actor, guildID string, l OperatorLevel) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if err := a.store.PutOperatorLevel(ctx, guildID, l, actor.UID); err != nil {
		return err
	}
	a.invalidate(ctx, guildID)
	return nil
}

func (a *Admin) DeleteOperatorLevel(ctx context.Context, _ Actor, guildID string, level int) error {
	if err := a.store.DeleteOperatorLevel(ctx, guildID, level); err != nil {
		return err
	}
	a.invalidate(ctx, guildID)
	return nil
}

// invalidate runs after the write has committed, so a cache failure is logged rather than
// returned; the stale snapshot expires with its TTL.
func (a *Admin) invalidate(ctx context.Context, guildID string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, guildID); err != nil {
		a.logger.Warn("snapshot invalidation failed; serving cached config until ttl", "guild_id", guildID, "error", err)
	}
}
