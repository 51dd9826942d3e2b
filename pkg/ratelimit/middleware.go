package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	apperrors "github.com/scryptex/bridge-middleware/pkg/app/errors"
	apphttp "github.com/scryptex/bridge-middleware/pkg/app/http"
	"github.com/scryptex/bridge-middleware/pkg/config"
)

// Route policy names, also used as metric labels.
const (
	PolicyQuote       = "quote"
	PolicyExecute     = "execute"
	PolicyFeeEstimate = "fee_estimate"
)

const defaultWindow = time.Minute

// Policies holds the budgets of the rate limited routes.
type Policies struct {
	Quote       Policy
	Execute     Policy
	FeeEstimate Policy
}

// PoliciesFromConfig builds the route budgets. Disabled rate limiting yields policies
// that allow everything.
func PoliciesFromConfig(cfg config.RateLimitConfig) Policies {
	if !cfg.Enabled {
		return Policies{
			Quote:       Policy{Name: PolicyQuote},
			Execute:     Policy{Name: PolicyExecute},
			FeeEstimate: Policy{Name: PolicyFeeEstimate},
		}
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}
	return Policies{
		Quote:       Policy{Name: PolicyQuote, Limit: cfg.QuoteLimit, Window: window},
		Execute:     Policy{Name: PolicyExecute, Limit: cfg.ExecuteLimit, Window: window},
		FeeEstimate: Policy{Name: PolicyFeeEstimate, Limit: cfg.FeeEstimateLimit, Window: window},
	}
}

// New returns a redis backed limiter when client is set and an in-process one otherwise.
func New(client redis.UniversalClient) Limiter {
	if client != nil {
		return NewRedisLimiter(client, "bridge:ratelimit")
	}
	return NewMemoryLimiter(defaultWindow)
}

// KeyFunc identifies the client a request counts against.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by remote IP. Install chi's RealIP middleware first when the
// server sits behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the policy budget with 429 and a Retry-After header.
// Limiter failures let the request through.
func Middleware(l Limiter, policy Policy, key KeyFunc, logger *zap.Logger) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		if !policy.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), policy, key(r))
			if err != nil {
				metrics.ErrorsTotal.WithLabelValues("ratelimit", "backend").Inc()
				logger.Warn("Rate limiter unavailable, allowing request",
					zap.String("policy", policy.Name),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.Limit))
			if !d.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(policy.Name).Inc()
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
				apphttp.DefaultErrorHandler(w, apperrors.TooManyRequestsError(nil,
					"Too many requests, please try again later"))
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
