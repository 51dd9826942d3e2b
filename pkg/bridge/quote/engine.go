// Package quote prices transfer requests over the chain link graph.
package quote

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/chain"
)

// Route protocols.
const (
	ProtocolDirect = "lock-release"
	ProtocolHub    = "hub-relay"
)

// Engine computes quotes. It holds no mutable state.
type Engine struct {
	registry *chain.Registry
	cfg      Config
	signer   *signer
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a quote engine over the given registry.
func NewEngine(registry *chain.Registry, cfg Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s, random, err := newSigner(cfg.Secret)
	if err != nil {
		return nil, err
	}
	if random {
		logger.Warn("bridge.quote_secret is empty, quotes will not survive a restart or be accepted by other instances")
	}

	e := &Engine{
		registry: registry,
		cfg:      cfg,
		signer:   s,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// GetQuote prices req and returns a signed, time-bounded quote.
func (e *Engine) GetQuote(ctx context.Context, req *bridge.Request) (*bridge.Quote, error) {
	now := e.now().UTC()
	routes, err := e.price(req, now)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	expiresAt := time.Unix(now.Add(e.cfg.TTL).Unix(), 0).UTC()
	q := e.assemble(req, routes, now, expiresAt)
	q.ID = e.signer.token(req.Fingerprint(), routes[0], q.ToAmount.String(), expiresAt)

	metrics.QuotesTotal.WithLabelValues("ok").Inc()
	return q, nil
}

// Verify checks that quoteID was issued for req and is still executable at now.
// It returns the quote re-priced from the current configuration.
func (e *Engine) Verify(ctx context.Context, quoteID string, req *bridge.Request, now time.Time) (*bridge.Quote, error) {
	sum, expiresAt, err := parseToken(quoteID)
	if err != nil {
		return nil, err
	}
	if !now.Before(expiresAt) {
		return nil, fmt.Errorf("%w: expired at %s", bridge.ErrQuoteExpired, expiresAt.Format(time.RFC3339))
	}

	routes, err := e.price(req, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bridge.ErrQuoteMismatch, err)
	}

	issuedAt := expiresAt.Add(-e.cfg.TTL)
	q := e.assemble(req, routes, issuedAt, expiresAt)
	expected := e.signer.mac(req.Fingerprint(), routes[0], q.ToAmount.String(), expiresAt.Unix())
	if !hmac.Equal(sum, expected) {
		return nil, bridge.ErrQuoteMismatch
	}
	q.ID = quoteID
	return q, nil
}

// EstimateFee returns the cheapest route for req without issuing a quote.
func (e *Engine) EstimateFee(ctx context.Context, req *bridge.Request) (*bridge.Route, error) {
	routes, err := e.price(req, e.now().UTC())
	if err != nil {
		return nil, err
	}
	best := routes[0]
	return &best, nil
}

// Routes lists the route shapes between two chains priced for a zero amount,
// so each fee is the fixed part of the curve.
func (e *Engine) Routes(ctx context.Context, from, to uint64) ([]bridge.Route, error) {
	if err := e.checkChains(from, to); err != nil {
		return nil, err
	}
	paths := e.paths(from, to)
	if len(paths) == 0 {
		return nil, bridge.ErrNoRouteAvailable
	}
	routes := make([]bridge.Route, 0, len(paths))
	for _, p := range paths {
		routes = append(routes, e.route(p, decimal.Zero))
	}
	sortRoutes(routes)
	return routes, nil
}

func (e *Engine) assemble(req *bridge.Request, routes []bridge.Route, issuedAt, expiresAt time.Time) *bridge.Quote {
	best := routes[0]
	requestID := req.ID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &bridge.Quote{
		RequestID:     requestID,
		FromChain:     req.FromChain,
		ToChain:       req.ToChain,
		FromToken:     req.FromToken,
		ToToken:       req.ToToken,
		FromAmount:    req.Amount,
		ToAmount:      req.Amount.Sub(best.Fee),
		EstimatedFee:  best.Fee,
		EstimatedTime: best.EstimatedTime,
		PriceImpact:   best.Fee.DivRound(req.Amount, 8),
		Routes:        routes,
		IssuedAt:      issuedAt,
		ExpiresAt:     expiresAt,
	}
}

// price validates req and returns the viable routes, cheapest first.
func (e *Engine) price(req *bridge.Request, now time.Time) ([]bridge.Route, error) {
	if err := e.checkChains(req.FromChain, req.ToChain); err != nil {
		return nil, err
	}
	if err := e.checkAmount(req.Amount); err != nil {
		return nil, err
	}

	var routes []bridge.Route
	for _, p := range e.paths(req.FromChain, req.ToChain) {
		r := e.route(p, req.Amount)
		out := req.Amount.Sub(r.Fee)
		if !out.IsPositive() {
			continue
		}
		if req.MinReceived != nil && out.LessThan(*req.MinReceived) {
			continue
		}
		if req.Deadline != nil && now.Add(time.Duration(r.EstimatedTime)*time.Second).After(*req.Deadline) {
			continue
		}
		routes = append(routes, r)
	}
	if len(routes) == 0 {
		return nil, bridge.ErrNoRouteAvailable
	}
	sortRoutes(routes)
	return routes, nil
}

func (e *Engine) checkChains(from, to uint64) error {
	if !e.registry.Has(from) {
		return fmt.Errorf("%w: %d", bridge.ErrUnsupportedChain, from)
	}
	if !e.registry.Has(to) {
		return fmt.Errorf("%w: %d", bridge.ErrUnsupportedChain, to)
	}
	if from == to {
		return fmt.Errorf("%w: source and target chain are the same", bridge.ErrNoRouteAvailable)
	}
	return nil
}

func (e *Engine) checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", bridge.ErrInvalidAmount)
	}
	if amount.LessThan(e.cfg.MinAmount) {
		return fmt.Errorf("%w: amount is below the minimum of %s", bridge.ErrInvalidAmount, e.cfg.MinAmount)
	}
	if e.cfg.MaxAmount.IsPositive() && amount.GreaterThan(e.cfg.MaxAmount) {
		return fmt.Errorf("%w: amount exceeds the maximum of %s", bridge.ErrInvalidAmount, e.cfg.MaxAmount)
	}
	return nil
}

// paths enumerates simple paths from -> to with at most MaxHops legs.
func (e *Engine) paths(from, to uint64) [][]uint64 {
	var out [][]uint64
	visited := map[uint64]bool{from: true}
	path := []uint64{from}

	var walk func(at uint64)
	walk = func(at uint64) {
		if len(path)-1 >= e.cfg.MaxHops {
			return
		}
		for _, next := range e.registry.Neighbors(at) {
			if visited[next] {
				continue
			}
			path = append(path, next)
			if next == to {
				out = append(out, append([]uint64(nil), path...))
			} else {
				visited[next] = true
				walk(next)
				visited[next] = false
			}
			path = path[:len(path)-1]
		}
	}
	walk(from)
	return out
}

func (e *Engine) route(hops []uint64, amount decimal.Decimal) bridge.Route {
	legs := len(hops) - 1
	variable := amount.Mul(decimal.NewFromInt(e.cfg.FeeBps)).Shift(-4)
	fee := e.cfg.BaseFee.Add(variable).Mul(e.cfg.Multiplier.Pow(decimal.NewFromInt(int64(legs))))

	var seconds int64
	for i := 0; i < legs; i++ {
		a, _ := e.registry.Get(hops[i])
		b, _ := e.registry.Get(hops[i+1])
		seconds += a.LegSeconds() + b.LegSeconds()
	}

	protocol := ProtocolDirect
	if legs > 1 {
		protocol = ProtocolHub
	}
	return bridge.Route{Hops: hops, Protocol: protocol, Fee: fee, EstimatedTime: seconds}
}

func sortRoutes(routes []bridge.Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if !a.Fee.Equal(b.Fee) {
			return a.Fee.LessThan(b.Fee)
		}
		if a.EstimatedTime != b.EstimatedTime {
			return a.EstimatedTime < b.EstimatedTime
		}
		if len(a.Hops) != len(b.Hops) {
			return len(a.Hops) < len(b.Hops)
		}
		for k := range a.Hops {
			if a.Hops[k] != b.Hops[k] {
				return a.Hops[k] < b.Hops[k]
			}
		}
		return false
	})
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, bridge.ErrUnsupportedChain):
		return "unsupported_chain"
	case errors.Is(err, bridge.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, bridge.ErrNoRouteAvailable):
		return "no_route"
	default:
		return "error"
	}
}
