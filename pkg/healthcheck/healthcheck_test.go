package healthcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "gorm.io/driver/sqlite"
)

func staticChecker(status Status, msg string) Checker {
	return CheckFunc(func(context.Context) (Status, string) {
		return status, msg
	})
}

func TestHealthCheck_Check_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_Check_AggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"AllHealthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"OneDegraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"UnhealthyWins", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for i, s := range tt.statuses {
				hc.Register(string(rune('a'+i)), staticChecker(s, ""))
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.want, response.Status)
			assert.Len(t, response.Checks, len(tt.statuses))
		})
	}
}

func TestHealthCheck_Check_UsesCache(t *testing.T) {
	calls := 0
	counter := CheckFunc(func(context.Context) (Status, string) {
		calls++
		return StatusHealthy, ""
	})

	cached := New("1.0.0", zap.NewNop(), WithCacheTTL(time.Minute))
	cached.Register("counter", counter)
	cached.Check(context.Background())
	cached.Check(context.Background())
	assert.Equal(t, 1, calls)

	cached.Register("other", staticChecker(StatusHealthy, ""))
	cached.Check(context.Background())
	assert.Equal(t, 2, calls, "registering drops the cached report")

	uncached := New("1.0.0", zap.NewNop(), WithCacheTTL(0))
	uncached.Register("counter", counter)
	uncached.Check(context.Background())
	uncached.Check(context.Background())
	assert.Equal(t, 4, calls)
}

func TestHealthCheck_Check_SortsByName(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.Register("redis", staticChecker(StatusHealthy, ""))
	hc.Register("database", staticChecker(StatusDegraded, "slow"))
	hc.Register("mealdb", staticChecker(StatusHealthy, ""))

	response := hc.Check(context.Background())

	require.Len(t, response.Checks, 3)
	assert.Equal(t, "database", response.Checks[0].Name)
	assert.Equal(t, "slow", response.Checks[0].Message)
	assert.Equal(t, "mealdb", response.Checks[1].Name)
	assert.Equal(t, "redis", response.Checks[2].Name)
}

func TestHealthCheck_Handlers(t *testing.T) {
	healthy := New("1.0.0", zap.NewNop())
	healthy.Register("ok", staticChecker(StatusHealthy, ""))

	broken := New("1.0.0", zap.NewNop())
	broken.Register("down", staticChecker(StatusUnhealthy, "connection refused"))

	t.Run("Health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		healthy.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])

		rec = httptest.NewRecorder()
		broken.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		broken.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Readiness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		broken.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, []interface{}{"down"}, body["failing"])
	})
}

func TestDatabaseChecker(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	check := NewDatabaseChecker(db).Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)

	require.NoError(t, db.Close())
	check = NewDatabaseChecker(db).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Message)
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	check := NewRedisChecker(client).Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)

	mr.Close()
	check = NewRedisChecker(client).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
}

func TestExternalServiceChecker(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	checker := NewExternalServiceChecker("mealdb", srv.URL, time.Second)
	assert.Equal(t, StatusHealthy, checker.Check(context.Background()).Status)

	status = http.StatusTooManyRequests
	assert.Equal(t, StatusDegraded, checker.Check(context.Background()).Status)

	status = http.StatusBadGateway
	assert.Equal(t, StatusUnhealthy, checker.Check(context.Background()).Status)
}
