// Package ratelimit provides a per-user token-bucket rate limiter for
// governance-gated operations, built on golang.org/x/time/rate.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config sets the steady-state rate and burst capacity. BurstCapacity
// defaults to twice RequestsPerPeriod when zero.
type Config struct {
	RequestsPerPeriod int
	Period            time.Duration
	BurstCapacity     int
}

// DefaultConfig allows 10 requests per minute with a burst of 20.
func DefaultConfig() Config {
	return Config{
		RequestsPerPeriod: 10,
		Period:            time.Minute,
	}
}

// Limiter enforces a token-bucket rate limit per user ID. Buckets are
// created lazily on first use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	logger  *slog.Logger
}

// New creates a limiter from cfg.
func New(cfg Config, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestsPerPeriod <= 0 {
		cfg.RequestsPerPeriod = DefaultConfig().RequestsPerPeriod
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultConfig().Period
	}
	burst := cfg.BurstCapacity
	if burst <= 0 {
		burst = cfg.RequestsPerPeriod * 2
	}

	limit := rate.Limit(float64(cfg.RequestsPerPeriod) / cfg.Period.Seconds())

	logger.Info("rate limiter initialized",
		"requests_per_period", cfg.RequestsPerPeriod,
		"period", cfg.Period.String(),
		"burst", burst,
	)

	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
		logger:  logger,
	}
}

func (l *Limiter) bucket(userID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[userID]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[userID] = b
	}
	return b
}

// Allow reports whether a request for userID may proceed now. When denied,
// retryAfter estimates how long the caller should wait before retrying.
func (l *Limiter) Allow(userID string) (allowed bool, retryAfter time.Duration) {
	b := l.bucket(userID)

	res := b.Reserve()
	if !res.OK() {
		return false, rate.InfDuration
	}
	delay := res.Delay()
	if delay == 0 {
		return true, 0
	}
	// Not allowed now; give the token back.
	res.Cancel()
	l.logger.Warn("rate limit exceeded", "user_id", userID, "retry_after", delay.String())
	return false, delay
}

// Status describes the current bucket state for a user.
type Status struct {
	AvailableTokens float64 `json:"available_tokens"`
	Capacity        int     `json:"capacity"`
	RefillPerSecond float64 `json:"refill_per_second"`
	Utilization     float64 `json:"utilization"`
}

// UserStatus returns the limiter status for userID. A user with no bucket
// yet has a full allowance.
func (l *Limiter) UserStatus(userID string) Status {
	l.mu.Lock()
	b, ok := l.buckets[userID]
	l.mu.Unlock()

	st := Status{
		AvailableTokens: float64(l.burst),
		Capacity:        l.burst,
		RefillPerSecond: float64(l.limit),
	}
	if ok {
		st.AvailableTokens = b.TokensAt(time.Now())
		if st.AvailableTokens < 0 {
			st.AvailableTokens = 0
		}
	}
	st.Utilization = (float64(l.burst) - st.AvailableTokens) / float64(l.burst)
	return st
}

// Reset drops the bucket for userID, restoring a full allowance.
func (l *Limiter) Reset(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets[userID]; ok {
		delete(l.buckets, userID)
		l.logger.Info("rate limit reset", "user_id", userID)
	}
}
