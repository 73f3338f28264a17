package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/config"
	"github.com/gridbase/gridbase/internal/counter"
	"github.com/gridbase/gridbase/internal/handler"
	"github.com/gridbase/gridbase/internal/quota"
	"github.com/gridbase/gridbase/internal/repository"
)

func newTestRouter(t *testing.T) (*echo.Echo, *quota.Tracker, func()) {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	store := counter.NewMemStore()
	tracker := quota.NewTracker(store, map[string]int64{quota.MetricRequests: 100})
	cfg := config.Config{Env: "test", SessionTTL: time.Hour}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)

	e := echo.New()
	Register(e, Deps{
		Cfg:      cfg,
		GlobalRL: config.RateLimitPolicy{Enabled: true, Scope: "global", Max: 100, Window: time.Minute, Prefix: "rl"},
		AuthRL:   config.RateLimitPolicy{Enabled: true, Scope: "auth", Max: 1, Window: time.Minute, Prefix: "rl"},
		Counters: store,
		Tracker:  tracker,
		Sessions: sessions,
		Auth:     handler.NewAuthHandler(cfg, users, sessions),
		Workspaces: handler.NewWorkspaceHandler(
			repository.NewWorkspaceRepo(db),
			repository.NewBaseRepo(db),
			repository.NewTableRepo(db),
			repository.NewRecordRepo(db),
			repository.NewMembershipRepo(db),
			users,
			tracker,
		),
		Admin: handler.NewAdminHandler(users, tracker),
	})
	return e, tracker, func() { db.Close() }
}

// The auth limiter sits strictly before the quota guard on the chain, so a
// throttled credential request never spends the daily request budget.
func TestAuthLimiterRunsBeforeQuotaGuard(t *testing.T) {
	e, tracker, done := newTestRouter(t)
	defer done()

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post(); code == http.StatusTooManyRequests {
		t.Fatalf("first auth request throttled: %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("second auth request got %d, want 429", code)
	}

	rep, err := tracker.CheckLimits(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range rep.Metrics {
		if m.Metric == quota.MetricRequests && m.Used != 1 {
			t.Fatalf("daily request budget charged %d, want 1 (throttled requests must not spend quota)", m.Used)
		}
	}
}

func TestHealthOutsideAllGates(t *testing.T) {
	e, tracker, done := newTestRouter(t)
	defer done()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	rep, err := tracker.CheckLimits(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range rep.Metrics {
		if m.Used != 0 {
			t.Fatalf("liveness probe charged quota: %+v", m)
		}
	}
}
