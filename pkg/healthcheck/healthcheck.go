// Package healthcheck reports on the services the planner depends on
package healthcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status is the outcome of a single check or of the whole report
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

var severity = map[Status]int{
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

// Check is the result of one dependency check
type Check struct {
	Name       string                 `json:"name"`
	Status     Status                 `json:"status"`
	Message    string                 `json:"message,omitempty"`
	CheckedAt  time.Time              `json:"checked_at"`
	DurationMS float64                `json:"duration_ms"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Response is the aggregated report served on /health
type Response struct {
	Status     Status    `json:"status"`
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	Checks     []Check   `json:"checks"`
	DurationMS float64   `json:"duration_ms"`
}

// Checker inspects one dependency
type Checker interface {
	Check(ctx context.Context) Check
}

// CheckFunc adapts a plain function to Checker
type CheckFunc func(ctx context.Context) (Status, string)

// Check runs the function and times it
func (f CheckFunc) Check(ctx context.Context) Check {
	start := time.Now()
	status, msg := f(ctx)
	return Check{Status: status, Message: msg, CheckedAt: start, DurationMS: elapsedMS(start)}
}

// Option configures a HealthCheck
type Option func(*HealthCheck)

// WithCacheTTL sets how long a report is reused. Zero disables reuse.
func WithCacheTTL(ttl time.Duration) Option {
	return func(h *HealthCheck) { h.cacheTTL = ttl }
}

// WithTimeout bounds a full round of checks
func WithTimeout(d time.Duration) Option {
	return func(h *HealthCheck) { h.timeout = d }
}

// HealthCheck holds the registered checkers and the last report
type HealthCheck struct {
	version  string
	logger   *zap.Logger
	cacheTTL time.Duration
	timeout  time.Duration

	mu       sync.RWMutex
	checkers map[string]Checker
	last     *Response
}

// New creates an empty HealthCheck
func New(version string, logger *zap.Logger, opts ...Option) *HealthCheck {
	h := &HealthCheck{
		version:  version,
		logger:   logger,
		cacheTTL: 5 * time.Second,
		timeout:  10 * time.Second,
		checkers: make(map[string]Checker),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds or replaces the checker stored under name
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.last = nil
}

// Check runs every checker and returns the worst status among them
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.last != nil && time.Since(h.last.Timestamp) < h.cacheTTL {
		report := *h.last
		h.mu.RUnlock()
		return report
	}
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = h.checkers[name]
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	checks := make([]Check, len(checkers))
	var wg sync.WaitGroup
	for i := range checkers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			checks[i] = checkers[i].Check(ctx)
			checks[i].Name = names[i]
		}(i)
	}
	wg.Wait()

	report := Response{
		Status:     StatusHealthy,
		Version:    h.version,
		Timestamp:  start,
		Checks:     checks,
		DurationMS: elapsedMS(start),
	}
	for _, c := range checks {
		if severity[c.Status] > severity[report.Status] {
			report.Status = c.Status
		}
		if c.Status != StatusHealthy {
			h.logger.Warn("Dependency check failed",
				zap.String("check", c.Name),
				zap.String("status", string(c.Status)),
				zap.String("message", c.Message))
		}
	}

	h.mu.Lock()
	h.last = &report
	h.mu.Unlock()

	return report
}

// Handler serves the full report; 503 only when something is unhealthy
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

// LivenessHandler answers as long as the process can serve HTTP
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
		})
	}
}

// ReadinessHandler reports ready only when every check is healthy
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())
		if report.Status == StatusHealthy {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"status":    "ready",
				"timestamp": report.Timestamp,
			})
			return
		}

		var failing []string
		for _, c := range report.Checks {
			if c.Status != StatusHealthy {
				failing = append(failing, c.Name)
			}
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "not_ready",
			"failing": failing,
			"checks":  report.Checks,
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// NewDatabaseChecker pings the SQL pool and reports its usage
func NewDatabaseChecker(db *sql.DB) Checker {
	return inspect(func(ctx context.Context, c *Check) {
		if err := db.PingContext(ctx); err != nil {
			c.Status, c.Message = StatusUnhealthy, err.Error()
			return
		}
		stats := db.Stats()
		c.Details = map[string]interface{}{
			"open":     stats.OpenConnections,
			"in_use":   stats.InUse,
			"idle":     stats.Idle,
			"max_open": stats.MaxOpenConnections,
		}
		// a single-connection pool is always fully in use while serving
		if stats.MaxOpenConnections > 1 && stats.InUse*10 >= stats.MaxOpenConnections*9 {
			c.Status, c.Message = StatusDegraded, "connection pool nearly exhausted"
		}
	})
}

// NewRedisChecker pings the task store
func NewRedisChecker(client redis.UniversalClient) Checker {
	return inspect(func(ctx context.Context, c *Check) {
		if err := client.Ping(ctx).Err(); err != nil {
			c.Status, c.Message = StatusUnhealthy, err.Error()
		}
	})
}

// NewExternalServiceChecker issues a GET against url. 5xx and transport
// errors are unhealthy, any other non-2xx is degraded.
func NewExternalServiceChecker(name, url string, timeout time.Duration) Checker {
	client := &http.Client{Timeout: timeout}
	return inspect(func(ctx context.Context, c *Check) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			c.Status, c.Message = StatusUnhealthy, err.Error()
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			c.Status, c.Message = StatusUnhealthy, err.Error()
			return
		}
		defer resp.Body.Close()

		c.Details = map[string]interface{}{"service": name, "status_code": resp.StatusCode}
		switch {
		case resp.StatusCode >= 500:
			c.Status = StatusUnhealthy
		case resp.StatusCode >= 300:
			c.Status = StatusDegraded
		}
		if c.Status != StatusHealthy {
			c.Message = fmt.Sprintf("%s answered %d", name, resp.StatusCode)
		}
	})
}

type inspect func(ctx context.Context, c *Check)

func (p inspect) Check(ctx context.Context) Check {
	c := Check{Status: StatusHealthy, CheckedAt: time.Now()}
	p(ctx, &c)
	c.DurationMS = elapsedMS(c.CheckedAt)
	return c
}
