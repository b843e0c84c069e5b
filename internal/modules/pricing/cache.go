// README: Snapshot cache backed by Redis; falls back to the underlying source on cache errors.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "pricing:snapshot:%s"

type CachedSource struct {
	redis  *redis.Client
	source Source
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedSource(client *redis.Client, source Source, ttl time.Duration, logger *slog.Logger) *CachedSource {
	return &CachedSource{redis: client, source: source, ttl: ttl, logger: logger}
}

func (c *CachedSource) Snapshot(ctx context.Context, guildID string) (Snapshot, error) {
	key := snapshotKey(guildID)
	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap, nil
		}
		c.logger.Warn("discarding unreadable cached snapshot", "guild_id", guildID)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("snapshot cache read failed", "guild_id", guildID, "error", err)
	}

	snap, err := c.source.Snapshot(ctx, guildID)
	if err != nil {
		return Snapshot{}, err
	}
	if payload, err := json.Marshal(snap); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("snapshot cache write failed", "guild_id", guildID, "error", err)
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot so the next read sees the latest configuration.
func (c *CachedSource) Invalidate(ctx context.Context, guildID string) error {
	if err := c.redis.Del(ctx, snapshotKey(guildID)).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot %s: %w", guildID, err)
	}
	return nil
}

func snapshotKey(guildID string) string {
	return fmt.Sprintf(snapshotKeyPrefix, guildID)
}
