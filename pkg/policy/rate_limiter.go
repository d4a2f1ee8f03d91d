package policy

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultWindow is the sliding window used for rate accounting, grounded on
// policy_engine.py's RateLimiter (a fixed one-minute sliding window).
const defaultWindow = time.Minute

// RateLimiter enforces a per-key and a global sliding-window request rate,
// grounded on policy_engine.py's RateLimiter (check_rate_limit /
// record_request / get_current_rate). A key is either "global" or
// "adapter:<name>" per spec.md's RateWindow glossary entry — callers key by
// adapter/tool name, never by scan target, so that one tool hitting many
// targets shares one budget and two tools sharing a target do not share
// theirs. Admission is gated by trailing-window counts exactly as the
// original does; a golang.org/x/time/rate.Limiter per key additionally
// smooths bursts within the window (rejecting a request that would
// otherwise arrive all at once at the top of the window even though the
// window count has room) — a second line of defense the window count alone
// cannot express.
type RateLimiter struct {
	mu             sync.Mutex
	globalWindow   []time.Time
	globalMax      int
	perKey         map[string]*keyState
	defaultMaxRate int
	window         time.Duration
}

type keyState struct {
	burst  *rate.Limiter
	max    int
	window []time.Time
}

// NewRateLimiter creates a limiter with the given global and default per-key
// request-per-window ceilings.
func NewRateLimiter(globalMaxPerWindow, defaultKeyMaxPerWindow int) *RateLimiter {
	return &RateLimiter{
		globalMax:      globalMaxPerWindow,
		perKey:         make(map[string]*keyState),
		defaultMaxRate: defaultKeyMaxPerWindow,
		window:         defaultWindow,
	}
}

func burstLimiterFor(maxPerWindow int, window time.Duration) *rate.Limiter {
	if maxPerWindow <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(maxPerWindow)), maxPerWindow)
}

// CheckRateLimit reports whether a request under key is currently permitted,
// without consuming quota. Both the global window and key's own window must
// admit, matching spec.md §4.3's "adapter admission consults both the
// adapter window and the global window; both must admit."
func (l *RateLimiter) CheckRateLimit(key string, maxPerMin int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.globalWindow = trimWindow(l.globalWindow, l.window)
	if l.globalMax > 0 && len(l.globalWindow) >= l.globalMax {
		return false
	}

	state := l.stateFor(key, maxPerMin)
	state.window = trimWindow(state.window, l.window)
	return state.max <= 0 || len(state.window) < state.max
}

// RecordRequest consumes one unit of quota for key, re-checking the window
// and the burst smoother atomically. When all three admit, it records into
// the global window alongside key's own and returns true; otherwise it
// records nothing and returns false. Call only after the adapter call it gates has
// actually succeeded (mirrors plugin_manager.py's "record usage only on
// success" rule).
func (l *RateLimiter) RecordRequest(key string, maxPerMin int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	l.globalWindow = trimWindow(l.globalWindow, l.window)
	if l.globalMax > 0 && len(l.globalWindow) >= l.globalMax {
		return false
	}

	state := l.stateFor(key, maxPerMin)
	state.window = trimWindow(state.window, l.window)
	if state.max > 0 && len(state.window) >= state.max {
		return false
	}
	if !state.burst.AllowN(now, 1) {
		return false
	}

	l.globalWindow = append(l.globalWindow, now)
	state.window = append(state.window, now)
	return true
}

// CurrentRate returns key's requests-per-second rate over the trailing
// window (count_in_window / window_size), matching spec.md §4.3's
// current_rate formula — a rate, not a raw count.
func (l *RateLimiter) CurrentRate(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.perKey[key]
	if !ok {
		return 0
	}
	state.window = trimWindow(state.window, l.window)
	return float64(len(state.window)) / l.window.Seconds()
}

// GlobalRate returns the global requests-per-second rate over the trailing
// window.
func (l *RateLimiter) GlobalRate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.globalWindow = trimWindow(l.globalWindow, l.window)
	return float64(len(l.globalWindow)) / l.window.Seconds()
}

func (l *RateLimiter) stateFor(key string, maxPerMin int) *keyState {
	if maxPerMin <= 0 {
		maxPerMin = l.defaultMaxRate
	}
	state, ok := l.perKey[key]
	if !ok || state.max != maxPerMin {
		state = &keyState{
			burst: burstLimiterFor(maxPerMin, l.window),
			max:   maxPerMin,
		}
		l.perKey[key] = state
	}
	return state
}

func trimWindow(stamps []time.Time, window time.Duration) []time.Time {
	cutoff := time.Now().Add(-window)
	i := 0
	for i < len(stamps) && stamps[i].Before(cutoff) {
		i++
	}
	return stamps[i:]
}
