// README: Pricing configuration store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// querier is the read surface shared by the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = pgx.Tx(nil)
)

// Snapshot reads every configuration entity of the guild in one read-only repeatable-read
// transaction, so all of them come from the same point in time. A guild without a rate table
// still returns a snapshot; the engine reports ErrConfigNotFound when it needs one.
func (s *Store) Snapshot(ctx context.Context, guildID string) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return Snapshot{}, err
	}
	defer tx.Rollback(ctx)

	snap := Snapshot{GuildID: guildID}
	rates, err := readRateTable(ctx, tx, guildID)
	switch {
	case err == nil:
		snap.Rates = &rates
	case errors.Is(err, ErrConfigNotFound):
	default:
		return Snapshot{}, err
	}

	if snap.Types, err = readTypes(ctx, tx, guildID); err != nil {
		return Snapshot{}, err
	}
	if snap.Zones, err = readZones(ctx, tx, guildID); err != nil {
		return Snapshot{}, err
	}
	if snap.TimeModifiers, err = readTimeModifiers(ctx, tx, guildID); err != nil {
		return Snapshot{}, err
	}
	if snap.OperatorLevels, err = readOperatorLevels(ctx, tx, guildID); err != nil {
		return Snapshot{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) RateTable(ctx context.Context, guildID string) (RateTable, error) {
	return readRateTable(ctx, s.db, guildID)
}

func readRateTable(ctx context.Context, q querier, guildID string) (RateTable, error) {
	row := q.QueryRow(ctx, `
        SELECT base_fare::text, per_distance_unit_rate::text, minimum_fare::text,
               commission_percent::text, max_distance::text, distance_unit_scale::text,
               updated_by, updated_at
        FROM pricing_rate_tables
        WHERE guild_id = $1`, guildID,
	)
	var (
		r                                        RateTable
		base, perUnit, minimum, pct, maxDist, sc string
	)
	err := row.Scan(&base, &perUnit, &minimum, &pct, &maxDist, &sc, &r.UpdatedBy, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RateTable{}, fmt.Errorf("%w: guild %s", ErrConfigNotFound, guildID)
	}
	if err != nil {
		return RateTable{}, err
	}
	if err := parseDecimals(
		decField{"base_fare", base, &r.BaseFare},
		decField{"per_distance_unit_rate", perUnit, &r.PerDistanceUnitRate},
		decField{"minimum_fare", minimum, &r.MinimumFare},
		decField{"commission_percent", pct, &r.CommissionPercent},
		decField{"max_distance", maxDist, &r.MaxDistance},
		decField{"distance_unit_scale", sc, &r.DistanceUnitScale},
	); err != nil {
		return RateTable{}, err
	}
	return r, nil
}

func readTypes(ctx context.Context, q querier, guildID string) ([]TypeMultiplier, error) {
	rows, err := q.Query(ctx, `
        SELECT type_id, display_name, multiplier::text, active
        FROM pricing_types
        WHERE guild_id = $1
        ORDER BY type_id`, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TypeMultiplier{}
	for rows.Next() {
		var (
			t    TypeMultiplier
			mult string
		)
		if err := rows.Scan(&t.TypeID, &t.DisplayName, &mult, &t.Active); err != nil {
			return nil, err
		}
		if err := parseDecimals(decField{"multiplier", mult, &t.Multiplier}); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func readZones(ctx context.Context, q querier, guildID string) ([]ZoneModifier, error) {
	rows, err := q.Query(ctx, `
        SELECT zone_id, display_name, danger_multiplier::text, minimum_operator_level, active
        FROM pricing_zones
        WHERE guild_id = $1
        ORDER BY zone_id`, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ZoneModifier{}
	for rows.Next() {
		var (
			z    ZoneModifier
			mult string
		)
		if err := rows.Scan(&z.ZoneID, &z.DisplayName, &mult, &z.MinimumOperatorLevel, &z.Active); err != nil {
			return nil, err
		}
		if err := parseDecimals(decField{"danger_multiplier", mult, &z.DangerMultiplier}); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func readTimeModifiers(ctx context.Context, q querier, guildID string) ([]TimeModifier, error) {
	rows, err := q.Query(ctx, `
        SELECT applies_when, multiplier::text, COALESCE(window_start, ''), COALESCE(window_end, '')
        FROM pricing_time_modifiers
        WHERE guild_id = $1
        ORDER BY applies_when`, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TimeModifier{}
	for rows.Next() {
		var (
			m    TimeModifier
			cond string
			mult string
		)
		if err := rows.Scan(&cond, &mult, &m.Start, &m.End); err != nil {
			return nil, err
		}
		m.AppliesWhen = TimeCondition(cond)
		if err := parseDecimals(decField{"multiplier", mult, &m.Multiplier}); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func readOperatorLevels(ctx context.Context, q querier, guildID string) ([]OperatorLevel, error) {
	rows, err := q.Query(ctx, `
        SELECT level, name, earnings_multiplier::text, required_trips, required_distance::text, active
        FROM pricing_operator_levels
        WHERE guild_id = $1
        ORDER BY level`, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OperatorLevel{}
	for rows.Next() {
		var (
			l          OperatorLevel
			mult, dist string
		)
		if err := rows.Scan(&l.Level, &l.Name, &mult, &l.RequiredTrips, &dist, &l.Active); err != nil {
			return nil, err
		}
		if err := parseDecimals(
			decField{"earnings_multiplier", mult, &l.EarningsMultiplier},
			decField{"required_distance", dist, &l.RequiredDistance},
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) PutRateTable(ctx context.Context, guildID string, r RateTable) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO pricing_rate_tables (
            guild_id, base_fare, per_distance_unit_rate, minimum_fare,
            commission_percent, max_distance, distance_unit_scale, updated_by, updated_at
        ) VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $9)
        ON CONFLICT (guild_id) DO UPDATE SET
            base_fare = EXCLUDED.base_fare,
            per_distance_unit_rate = EXCLUDED.per_distance_unit_rate,
            minimum_fare = EXCLUDED.minimum_fare,
            commission_percent = EXCLUDED.commission_percent,
            max_distance = EXCLUDED.max_distance,
            distance_unit_scale = EXCLUDED.distance_unit_scale,
            updated_by = EXCLUDED.updated_by,
            updated_at = EXCLUDED.updated_at`,
		guildID,
		r.BaseFare.String(),
		r.PerDistanceUnitRate.String(),
		r.MinimumFare.String(),
		r.CommissionPercent.String(),
		r.MaxDistance.String(),
		r.DistanceUnitScale.String(),
		r.UpdatedBy,
		r.UpdatedAt,
	)
	return err
}

func (s *Store) PutType(ctx context.Context, guildID string, t TypeMultiplier, updatedBy string) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO pricing_types (guild_id, type_id, display_name, multiplier, active, updated_by, updated_at)
        VALUES ($1, $2, $3, $4::numeric, $5, $6, NOW())
        ON CONFLICT (guild_id, type_id) DO UPDATE SET
            display_name = EXCLUDED.display_name,
            multiplier = EXCLUDED.multiplier,
            active = EXCLUDED.active,
            updated_by = EXCLUDED.updated_by,
            updated_at = NOW()`,
		guildID, t.TypeID, t.DisplayName, t.Multiplier.String(), t.Active, updatedBy,
	)
	return err
}

func (s *Store) DeleteType(ctx context.Context, guildID, typeID string) error {
	return s.deleteOne(ctx, `DELETE FROM pricing_types WHERE guild_id = $1 AND type_id = $2`, guildID, typeID)
}

func (s *Store) PutZone(ctx context.Context, guildID string, z ZoneModifier, updatedBy string) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO pricing_zones (guild_id, zone_id, display_name, danger_multiplier, minimum_operator_level, active, updated_by, updated_at)
        VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, NOW())
        ON CONFLICT (guild_id, zone_id) DO UPDATE SET
            display_name = EXCLUDED.display_name,
            danger_multiplier = EXCLUDED.danger_multiplier,
            minimum_operator_level = EXCLUDED.minimum_operator_level,
            active = EXCLUDED.active,
            updated_by = EXCLUDED.updated_by,
            updated_at = NOW()`,
		guildID, z.ZoneID, z.DisplayName, z.DangerMultiplier.String(), z.MinimumOperatorLevel, z.Active, updatedBy,
	)
	return err
}

func (s *Store) DeleteZone(ctx context.Context, guildID, zoneID string) error {
	return s.deleteOne(ctx, `DELETE FROM pricing_zones WHERE guild_id = $1 AND zone_id = $2`, guildID, zoneID)
}

func (s *Store) PutTimeModifier(ctx context.Context, guildID string, m TimeModifier, updatedBy string) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO pricing_time_modifiers (guild_id, applies_when, multiplier, window_start, window_end, updated_by, updated_at)
        VALUES ($1, $2, $3::numeric, NULLIF($4, ''), NULLIF($5, ''), $6, NOW())
        ON CONFLICT (guild_id, applies_when) DO UPDATE SET
            multiplier = EXCLUDED.multiplier,
            window_start = EXCLUDED.window_start,
            window_end = EXCLUDED.window_end,
            updated_by = EXCLUDED.updated_by,
            updated_at = NOW()`,
		guildID, string(m.AppliesWhen), m.Multiplier.String(), m.Start, m.End, updatedBy,
	)
	return err
}

func (s *Store) PutOperatorLevel(ctx context.Context, guildID string, l OperatorLevel, updatedBy string) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO pricing_operator_levels (
            guild_id, level, name, earnings_multiplier, required_trips, required_distance, active, updated_by, updated_at
        ) VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7, $8, NOW())
        ON CONFLICT (guild_id, level) DO UPDATE SET
            name = EXCLUDED.name,
            earnings_multiplier = EXCLUDED.earnings_multiplier,
            required_trips = EXCLUDED.required_trips,
            required_distance = EXCLUDED.required_distance,
            active = EXCLUDED.active,
            updated_by = EXCLUDED.updated_by,
            updated_at = NOW()`,
		guildID, l.Level, l.Name, l.EarningsMultiplier.String(), l.RequiredTrips, l.RequiredDistance.String(), l.Active, updatedBy,
	)
	return err
}

func (s *Store) DeleteOperatorLevel(ctx context.Context, guildID string, level int) error {
	return s.deleteOne(ctx, `DELETE FROM pricing_operator_levels WHERE guild_id = $1 AND level = $2`, guildID, level)
}

func (s *Store) deleteOne(ctx context.Context, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type decField struct {
	name string
	raw  string
	dst  *decimal.Decimal
}

func parseDecimals(fields ...decField) error {
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
