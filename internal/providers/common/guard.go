package common

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AI-Template-SDK/senso-visibility/internal/detection"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// GuardOptions configures the limiter and circuit breaker around a backend
type GuardOptions struct {
	// RatePerSecond <= 0 disables rate limiting
	RatePerSecond float64
	// Burst defaults to one second worth of calls
	Burst int
	// MaxFailures consecutive failures open the breaker
	MaxFailures int
	Cooldown    time.Duration
}

// Guard rate-limits discovery calls and stops calling a backend that keeps
// failing. It never retries; an open breaker fails fast with
// gobreaker.ErrOpenState so the detector falls back to the heuristic.
type Guard struct {
	name    string
	next    detection.Discoverer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func NewGuard(name string, next detection.Discoverer, opts GuardOptions) *Guard {
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 5
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 30 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = max(1, int(opts.RatePerSecond))
	}

	g := &Guard{name: name, next: next}
	if opts.RatePerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst)
	}

	maxFailures := uint32(opts.MaxFailures)
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "discovery-" + name,
		MaxRequests: 1,
		Timeout:     opts.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(breaker string, from, to gobreaker.State) {
			zap.L().Warn("[DiscoveryGuard] breaker state changed",
				zap.String("breaker", breaker),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return g
}

// Name reports the wrapped backend
func (g *Guard) Name() string {
	return g.name
}

// State exposes the breaker state for health reporting
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

func (g *Guard) Discover(ctx context.Context, req models.DiscoveryRequest) (*models.DiscoveryResult, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "discovery rate limit")
		}
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Discover(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	res, _ := out.(*models.DiscoveryResult)
	if res == nil {
		return nil, eris.New("discovery backend returned no result")
	}
	return res, nil
}
