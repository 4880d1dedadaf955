// Package throttle limits repeated failed logins per client address and per
// account.
package throttle

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxFailures = 10
	defaultWindow      = 15 * time.Minute

	// pruneAt bounds memory: past this many keys, expired keys are dropped on
	// the next failure.
	pruneAt = 10_000
)

// Config sets the failure budget.
type Config struct {
	// MaxFailures is the number of failures allowed per key within Window.
	// Zero or less disables throttling.
	MaxFailures int
	Window      time.Duration
}

// DefaultConfig returns 10 failures per 15 minutes.
func DefaultConfig() Config {
	return Config{MaxFailures: defaultMaxFailures, Window: defaultWindow}
}

// ConfigFromEnv reads NEXUS_LOGIN_MAX_FAILURES and NEXUS_LOGIN_WINDOW,
// keeping defaults for unset or invalid values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("NEXUS_LOGIN_MAX_FAILURES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFailures = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("NEXUS_LOGIN_WINDOW")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Window = d
		}
	}
	return cfg
}

// Limiter counts failures per key in a sliding window. It is safe for
// concurrent use.
type Limiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	limit  int
	window time.Duration
}

// New constructs a Limiter. Invalid windows fall back to the default.
func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	return &Limiter{
		events: make(map[string][]time.Time),
		limit:  cfg.MaxFailures,
		window: cfg.Window,
	}
}

// Blocked reports whether key has used its failure budget at now, and how
// long until the oldest counted failure expires.
func (l *Limiter) Blocked(key string, now time.Time) (bool, time.Duration) {
	if l == nil || l.limit <= 0 {
		return false, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := l.live(key, now)
	if len(ev) < l.limit {
		return false, 0
	}
	return true, ev[0].Add(l.window).Sub(now)
}

// Fail records a failure for each key.
func (l *Limiter) Fail(now time.Time, keys ...string) {
	if l == nil || l.limit <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.events) > pruneAt {
		for k := range l.events {
			l.live(k, now)
		}
	}
	for _, k := range keys {
		l.events[k] = append(l.live(k, now), now)
	}
}

// Reset forgets key, e.g. after a successful login.
func (l *Limiter) Reset(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.events, key)
	l.mu.Unlock()
}

// live drops expired events for key. Callers hold l.mu.
func (l *Limiter) live(key string, now time.Time) []time.Time {
	ev := l.events[key]
	cut := now.Add(-l.window)
	i := 0
	for i < len(ev) && !ev[i].After(cut) {
		i++
	}
	ev = ev[i:]
	if len(ev) == 0 {
		delete(l.events, key)
		return nil
	}
	l.events[key] = ev
	return ev
}

// IPKey and AccountKey build the keys the portal uses.
func IPKey(ip string) string { return "ip:" + ip }

func AccountKey(role, email string) string { return "acct:" + role + ":" + email }
