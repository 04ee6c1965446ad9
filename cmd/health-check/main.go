// Command health-check queries a running planner and maps the result to an exit code
// for container HEALTHCHECK and orchestrator exec checks.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/greenbite/mealplanner/pkg/healthcheck"
)

const (
	exitHealthy     = 0
	exitUnhealthy   = 1
	exitUnreachable = 2
)

type options struct {
	baseURL  string
	ready    bool
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	verbose  bool
}

func main() {
	opts := options{}
	flag.StringVar(&opts.baseURL, "url", envOr("HEALTH_CHECK_URL", "http://localhost:8080"), "planner base URL")
	flag.BoolVar(&opts.ready, "ready", false, "query /health/ready instead of /health")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-attempt timeout")
	flag.IntVar(&opts.attempts, "attempts", 1, "attempts before giving up")
	flag.DurationVar(&opts.backoff, "backoff", time.Second, "pause between attempts")
	flag.BoolVar(&opts.verbose, "v", false, "print every dependency")
	flag.Parse()

	os.Exit(run(opts))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(opts options) int {
	target := strings.TrimRight(opts.baseURL, "/") + "/health"
	if opts.ready {
		target += "/ready"
	}
	client := &http.Client{Timeout: opts.timeout}

	var lastErr error
	for i := 0; i < max(opts.attempts, 1); i++ {
		if i > 0 {
			time.Sleep(opts.backoff)
		}
		code, err := once(client, target, opts.verbose)
		if err == nil {
			return code
		}
		lastErr = err
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "attempt %d: %v\n", i+1, err)
		}
	}

	fmt.Fprintf(os.Stderr, "%s unreachable: %v\n", target, lastErr)
	return exitUnreachable
}

func once(client *http.Client, target string, verbose bool) (int, error) {
	resp, err := client.Get(target)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var report healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return 0, fmt.Errorf("decode %s: %w", target, err)
	}

	fmt.Printf("%s %s\n", resp.Status, report.Status)
	if verbose {
		for _, c := range report.Checks {
			fmt.Printf("  %-10s %-10s %s\n", c.Name, c.Status, c.Message)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return exitUnhealthy, nil
	}
	return exitHealthy, nil
}
