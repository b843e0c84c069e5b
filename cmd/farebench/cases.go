// README: Farebench checks; environment, seeded configuration, fare scenarios, error mapping, and load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"scumfare/internal/infra"
)

const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	token string
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) (*Runner, error) {
	token := cfg.Token
	if token == "" {
		if cfg.JWTSecret == "" {
			return nil, errors.New("either -token or -jwt-secret is required")
		}
		var err error
		token, err = infra.IssueJWT(cfg.JWTSecret, "farebench", infra.RoleSuperAdmin, nil, time.Hour)
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
	}
	return &Runner{
		cfg:   cfg,
		token: token,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) guildPath(suffix string) string {
	return "/api/guilds/" + r.cfg.GuildID + suffix
}

func (r *Runner) cases() []TestCase {
	plain := trip("5", "sedan", "safe", 1)
	stacked := trip("5", "sedan", "safe", 1)
	stacked["is_night"] = true
	stacked["is_peak"] = true
	veteran := trip("5", "sedan", "safe", 3)

	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: StatusSkip, Note: "dsn not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			return Result{Status: StatusPass}
		}},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: StatusSkip, Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			return Result{Status: StatusPass}
		}},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables exist", Run: checkTables},
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			status, _, latency, err := r.call(ctx, http.MethodGet, "/health", "", nil)
			return expectStatus(status, latency, err, http.StatusOK)
		}},
		{Name: "Auth: missing token -> 401", Run: func(ctx context.Context, r *Runner) Result {
			status, _, latency, err := r.call(ctx, http.MethodPost, r.guildPath("/fares/calculate"), "", plain)
			return expectStatus(status, latency, err, http.StatusUnauthorized)
		}},

		// Seed configuration
		{Name: "Config: seed guild", Run: seedGuild},
		{Name: "Config: read snapshot", Run: func(ctx context.Context, r *Runner) Result {
			status, _, latency, err := r.call(ctx, http.MethodGet, r.guildPath("/pricing/config"), r.token, nil)
			return expectStatus(status, latency, err, http.StatusOK)
		}},

		// Fares
		fareCase("Fare: plain sedan trip", plain, fareWant{total: "125.00", commission: "12.50", earnings: "112.50"}),
		fareCase("Fare: night and peak stack", stacked, fareWant{total: "195.00", commission: "19.50", earnings: "175.50"}),
		fareCase("Fare: operator bonus on top", veteran, fareWant{total: "125.00", commission: "12.50", earnings: "140.63", bonusCost: "28.13"}),
		errorCase("Fare: unknown type -> 404", trip("5", "hovercraft", "safe", 1), http.StatusNotFound, "unknown_type"),
		errorCase("Fare: unknown zone -> 404", trip("5", "sedan", "moon", 1), http.StatusNotFound, "unknown_zone"),
		errorCase("Fare: negative distance -> 400", trip("-1", "sedan", "safe", 1), http.StatusBadRequest, "invalid_request"),
		{Name: "Fare: unconfigured guild -> 404", Run: func(ctx context.Context, r *Runner) Result {
			path := "/api/guilds/" + r.cfg.GuildID + "-unconfigured/fares/calculate"
			status, body, latency, err := r.call(ctx, http.MethodPost, path, r.token, plain)
			return expectError(status, body, latency, err, http.StatusNotFound, "config_not_found")
		}},
		{Name: "Config: write visible to next fare", Run: checkInvalidation},

		// Quotes
		{Name: "Quote: create and list", Run: checkQuotes},

		// Load
		{Name: "Concurrency: identical requests agree", Run: func(ctx context.Context, r *Runner) Result {
			return concurrentAgreement(ctx, r, plain)
		}},
		{Name: "Perf: calculate throughput", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, r.guildPath("/fares/calculate"), plain)
		}},
	}
}

func trip(distance, typeID, zoneID string, level int) map[string]any {
	return map[string]any{
		"distance":       distance,
		"type_id":        typeID,
		"zone_id":        zoneID,
		"operator_level": level,
	}
}

type fareWant struct {
	total, commission, earnings, bonusCost string
}

type breakdown struct {
	TotalFare         decimal.Decimal `json:"total_fare"`
	Commission        decimal.Decimal `json:"commission"`
	OperatorEarnings  decimal.Decimal `json:"operator_earnings"`
	PlatformBonusCost decimal.Decimal `json:"platform_bonus_cost"`
}

func fareCase(name string, body map[string]any, want fareWant) TestCase {
	return TestCase{Name: name, Run: func(ctx context.Context, r *Runner) Result {
		b, latency, err := r.calculate(ctx, body)
		if err != nil {
			return Result{Status: StatusFail, Latency: latency, Note: err.Error()}
		}
		checks := []struct {
			field string
			got   decimal.Decimal
			want  string
		}{
			{"total_fare", b.TotalFare, want.total},
			{"commission", b.Commission, want.commission},
			{"operator_earnings", b.OperatorEarnings, want.earnings},
			{"platform_bonus_cost", b.PlatformBonusCost, want.bonusCost},
		}
		for _, c := range checks {
			if c.want == "" {
				continue
			}
			if !c.got.Equal(decimal.RequireFromString(c.want)) {
				return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("%s=%s want %s", c.field, c.got.StringFixed(2), c.want)}
			}
		}
		return Result{Status: StatusPass, Latency: latency, Note: "total=" + b.TotalFare.StringFixed(2)}
	}}
}

func errorCase(name string, body map[string]any, wantStatus int, wantCode string) TestCase {
	return TestCase{Name: name, Run: func(ctx context.Context, r *Runner) Result {
		status, resp, latency, err := r.call(ctx, http.MethodPost, r.guildPath("/fares/calculate"), r.token, body)
		return expectError(status, resp, latency, err, wantStatus, wantCode)
	}}
}

func seedGuild(ctx context.Context, r *Runner) Result {
	writes := []struct {
		path string
		body map[string]any
	}{
		{"/pricing/rate-table", map[string]any{
			"base_fare": "50", "per_distance_unit_rate": "15", "minimum_fare": "10", "commission_percent": "10",
		}},
		{"/pricing/types/sedan", map[string]any{"display_name": "Sedan", "multiplier": "1.0"}},
		{"/pricing/types/truck", map[string]any{"display_name": "Truck", "multiplier": "1.5"}},
		{"/pricing/zones/safe", map[string]any{"display_name": "Safe zone", "danger_multiplier": "1.0"}},
		{"/pricing/zones/red", map[string]any{"display_name": "Red zone", "danger_multiplier": "2.0", "minimum_operator_level": 3}},
		{"/pricing/time-modifiers/night", map[string]any{"multiplier": "1.2", "start": "22:00", "end": "06:00"}},
		{"/pricing/time-modifiers/peak_hours", map[string]any{"multiplier": "1.3", "start": "18:00", "end": "22:00"}},
		{"/pricing/operator-levels/1", map[string]any{"name": "Rookie", "earnings_multiplier": "1.0"}},
		{"/pricing/operator-levels/3", map[string]any{"name": "Veteran", "earnings_multiplier": "1.25", "required_trips": 50}},
	}
	var total time.Duration
	for _, w := range writes {
		status, body, latency, err := r.call(ctx, http.MethodPut, r.guildPath(w.path), r.token, w.body)
		total += latency
		if err != nil {
			return Result{Status: StatusFail, Note: err.Error()}
		}
		if status != http.StatusOK {
			return Result{Status: StatusFail, Note: fmt.Sprintf("PUT %s status=%d %s", w.path, status, strings.TrimSpace(string(body)))}
		}
	}
	return Result{Status: StatusPass, Latency: total, Note: fmt.Sprintf("writes=%d", len(writes))}
}

func checkInvalidation(ctx context.Context, r *Runner) Result {
	set := func(multiplier string) error {
		status, _, _, err := r.call(ctx, http.MethodPut, r.guildPath("/pricing/types/truck"), r.token,
			map[string]any{"display_name": "Truck", "multiplier": multiplier})
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("PUT truck status=%d", status)
		}
		return nil
	}
	if err := set("1.6"); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	defer func() { _ = set("1.5") }()

	b, latency, err := r.calculate(ctx, trip("5", "truck", "safe", 1))
	if err != nil {
		return Result{Status: StatusFail, Latency: latency, Note: err.Error()}
	}
	if !b.TotalFare.Equal(decimal.RequireFromString("200")) {
		return Result{Status: StatusFail, Latency: latency, Note: "stale total=" + b.TotalFare.StringFixed(2)}
	}
	return Result{Status: StatusPass, Latency: latency}
}

func checkQuotes(ctx context.Context, r *Runner) Result {
	status, body, latency, err := r.call(ctx, http.MethodPost, r.guildPath("/quotes"), r.token, trip("5", "sedan", "safe", 1))
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	if status != http.StatusCreated {
		return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("create status=%d", status)}
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return Result{Status: StatusFail, Latency: latency, Note: "create returned no id"}
	}
	status, _, _, err = r.call(ctx, http.MethodGet, r.guildPath("/quotes/"+created.ID), r.token, nil)
	if err != nil || status != http.StatusOK {
		return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("get status=%d", status)}
	}
	status, _, _, err = r.call(ctx, http.MethodGet, r.guildPath("/quotes?limit=5"), r.token, nil)
	if err != nil || status != http.StatusOK {
		return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("list status=%d", status)}
	}
	return Result{Status: StatusPass, Latency: latency, Note: "id=" + created.ID}
}

func concurrentAgreement(ctx context.Context, r *Runner, body map[string]any) Result {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		totals = map[string]int{}
		errs   int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, _, err := r.calculate(ctx, body)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs++
				return
			}
			totals[b.TotalFare.StringFixed(2)]++
		}()
	}
	wg.Wait()

	if errs > 0 {
		return Result{Status: StatusFail, Note: fmt.Sprintf("errors=%d", errs)}
	}
	if len(totals) != 1 {
		return Result{Status: StatusFail, Note: fmt.Sprintf("divergent totals=%v", totals)}
	}
	return Result{Status: StatusPass, Note: fmt.Sprintf("requests=%d", r.cfg.Concurrency)}
}

func perfLoad(ctx context.Context, r *Runner, path string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		count    int64
		errCount int64
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				status, _, _, err := r.call(ctx, http.MethodPost, path, r.token, payload)
				mu.Lock()
				if err != nil || status != http.StatusOK {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: StatusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: StatusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: StatusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: StatusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return Result{Status: StatusFail, Note: err.Error()}
		}
	}
	return Result{Status: StatusPass}
}

func checkTables(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: StatusSkip, Note: "dsn not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: StatusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: StatusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: StatusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
}

func (r *Runner) calculate(ctx context.Context, body map[string]any) (breakdown, time.Duration, error) {
	status, resp, latency, err := r.call(ctx, http.MethodPost, r.guildPath("/fares/calculate"), r.token, body)
	if err != nil {
		return breakdown{}, latency, err
	}
	if status != http.StatusOK {
		return breakdown{}, latency, fmt.Errorf("status=%d %s", status, strings.TrimSpace(string(resp)))
	}
	var out struct {
		Breakdown breakdown `json:"breakdown"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return breakdown{}, latency, fmt.Errorf("decode breakdown: %w", err)
	}
	return out.Breakdown, latency, nil
}

func (r *Runner) call(ctx context.Context, method, path, token string, body any) (int, []byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, time.Since(start), err
}

func expectStatus(status int, latency time.Duration, err error, want int) Result {
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	if status != want {
		return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("status=%d want %d", status, want)}
	}
	return Result{Status: StatusPass, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
}

func expectError(status int, body []byte, latency time.Duration, err error, wantStatus int, wantCode string) Result {
	if res := expectStatus(status, latency, err, wantStatus); res.Status != StatusPass {
		return res
	}
	var e struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(body, &e)
	if e.Code != wantCode {
		return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("code=%q want %q", e.Code, wantCode)}
	}
	return Result{Status: StatusPass, Latency: latency, Note: "code=" + e.Code}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
