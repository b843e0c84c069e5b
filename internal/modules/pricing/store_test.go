package pricing

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestStore_SnapshotRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	guild := "store-test-guild"
	want := exampleSnapshot()

	if _, err := store.Snapshot(ctx, guild); err != nil {
		t.Fatalf("empty snapshot: %v", err)
	}
	if _, err := store.RateTable(ctx, guild); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("RateTable() on empty guild = %v, want ErrConfigNotFound", err)
	}

	if err := store.PutRateTable(ctx, guild, *want.Rates); err != nil {
		t.Fatalf("PutRateTable: %v", err)
	}
	for _, ty := range want.Types {
		if err := store.PutType(ctx, guild, ty, "tester"); err != nil {
			t.Fatalf("PutType: %v", err)
		}
	}
	for _, z := range want.Zones {
		if err := store.PutZone(ctx, guild, z, "tester"); err != nil {
			t.Fatalf("PutZone: %v", err)
		}
	}
	for _, m := range want.TimeModifiers {
		if err := store.PutTimeModifier(ctx, guild, m, "tester"); err != nil {
			t.Fatalf("PutTimeModifier: %v", err)
		}
	}
	for _, l := range want.OperatorLevels {
		if err := store.PutOperatorLevel(ctx, guild, l, "tester"); err != nil {
			t.Fatalf("PutOperatorLevel: %v", err)
		}
	}

	got, err := store.Snapshot(ctx, guild)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got.Rates == nil || !got.Rates.CommissionPercent.Equal(want.Rates.CommissionPercent) {
		t.Fatalf("rates not persisted: %+v", got.Rates)
	}
	if len(got.Types) != len(want.Types) || len(got.Zones) != len(want.Zones) ||
		len(got.TimeModifiers) != len(want.TimeModifiers) || len(got.OperatorLevels) != len(want.OperatorLevels) {
		t.Fatalf("entity counts differ: %+v", got)
	}

	b, err := ComputePrice(got, sedanRequest("5"))
	if err != nil {
		t.Fatalf("ComputePrice on stored snapshot: %v", err)
	}
	if !b.TotalFare.Equal(d("125")) {
		t.Errorf("TotalFare = %s, want 125", b.TotalFare)
	}

	if err := store.DeleteType(ctx, guild, "truck"); err != nil {
		t.Fatalf("DeleteType: %v", err)
	}
	if err := store.DeleteType(ctx, guild, "truck"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteType = %v, want ErrNotFound", err)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("SCUMFARE_TEST_DSN")
	if dsn == "" {
		t.Skip("SCUMFARE_TEST_DSN not set; skipping DB-backed store tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, `TRUNCATE TABLE pricing_rate_tables, pricing_types, pricing_zones,
        pricing_time_modifiers, pricing_operator_levels`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
