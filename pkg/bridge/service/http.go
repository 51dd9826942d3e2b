package service

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/scryptex/bridge-middleware/pkg/app/errors"
	apphttp "github.com/scryptex/bridge-middleware/pkg/app/http"
	"github.com/scryptex/bridge-middleware/pkg/auth"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/ratelimit"
)

// IdempotencyKeyHeader names the header that makes execute retries safe.
const IdempotencyKeyHeader = "Idempotency-Key"

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RouteConfig carries the optional middleware of the bridge routes.
type RouteConfig struct {
	Limiter  ratelimit.Limiter
	Policies ratelimit.Policies
	Operator *auth.OperatorAuth
}

// RegisterRoutes registers the bridge endpoints on the given chi router. Rate limits
// apply when cfg.Limiter is set; the /admin routes are mounted only when operator
// auth is configured.
func RegisterRoutes(r chi.Router, service Service, cfg RouteConfig, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	limit := func(policy ratelimit.Policy) func(http.Handler) http.Handler {
		if cfg.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return ratelimit.Middleware(cfg.Limiter, policy, nil, logger)
	}

	r.Route("/bridge", func(r chi.Router) {
		r.With(limit(cfg.Policies.Quote)).Post("/quote", apphttp.HandleError(h.quote))
		r.With(limit(cfg.Policies.Execute)).Post("/execute", apphttp.HandleError(h.execute))
		r.With(limit(cfg.Policies.FeeEstimate)).Post("/fee/estimate", apphttp.HandleError(h.estimateFee))

		r.Get("/status/{id}", apphttp.HandleError(h.status))
		r.Get("/status/{id}/messages", apphttp.HandleError(h.transactionMessages))
		r.Get("/history/{address}", apphttp.HandleError(h.history))
		r.Post("/cancel/{id}", apphttp.HandleError(h.cancel))

		r.Get("/chains", apphttp.HandleError(h.chains))
		r.Get("/routes", apphttp.HandleError(h.routes))
		r.Get("/volume", apphttp.HandleError(h.volume))

		r.Get("/messages/{id}", apphttp.HandleError(h.message))
		r.Post("/messages/{id}/signatures", apphttp.HandleError(h.submitSignature))
	})

	if cfg.Operator != nil && cfg.Operator.IsConfigured() {
		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.Operator.RequireOperator)
			r.Post("/transactions/{id}/fail", apphttp.HandleError(h.forceFail))
			r.Post("/sweep", apphttp.HandleError(h.sweep))
		})
	}
}

func (h *HTTP) quote(w http.ResponseWriter, r *http.Request) error {
	var req bridge.Request
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	q, err := h.service.GetQuote(r.Context(), &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, q)
	return nil
}

// execute answers 201 when a transaction is created and 200 when an idempotent retry
// returns the existing one.
func (h *HTTP) execute(w http.ResponseWriter, r *http.Request) error {
	var req bridge.ExecuteRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	tx, created, err := h.service.Execute(r.Context(), &req, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		return err
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	apphttp.WriteJSON(w, code, tx)
	return nil
}

func (h *HTTP) estimateFee(w http.ResponseWriter, r *http.Request) error {
	var req bridge.Request
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	route, err := h.service.EstimateFee(r.Context(), &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, route)
	return nil
}

func (h *HTTP) status(w http.ResponseWriter, r *http.Request) error {
	v, err := h.service.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, v)
	return nil
}

func (h *HTTP) transactionMessages(w http.ResponseWriter, r *http.Request) error {
	msgs, err := h.service.Messages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	return nil
}

func (h *HTTP) history(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return apperrors.BadRequestError(err, "invalid limit")
		}
		limit = n
	}
	page, err := h.service.History(r.Context(), chi.URLParam(r, "address"), q.Get("cursor"), limit)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, page)
	return nil
}

func (h *HTTP) cancel(w http.ResponseWriter, r *http.Request) error {
	var req bridge.CancelRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	tx, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, tx)
	return nil
}

func (h *HTTP) chains(w http.ResponseWriter, r *http.Request) error {
	chains, err := h.service.SupportedChains(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"chains": chains})
	return nil
}

func (h *HTTP) routes(w http.ResponseWriter, r *http.Request) error {
	from, err := chainParam(r, "from")
	if err != nil {
		return err
	}
	to, err := chainParam(r, "to")
	if err != nil {
		return err
	}
	routes, err := h.service.Routes(r.Context(), from, to)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"routes": routes})
	return nil
}

func (h *HTTP) volume(w http.ResponseWriter, r *http.Request) error {
	v, err := h.service.Volume(r.Context(), r.URL.Query().Get("timeframe"))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, v)
	return nil
}

func (h *HTTP) message(w http.ResponseWriter, r *http.Request) error {
	msg, err := h.service.GetMessage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, msg)
	return nil
}

func (h *HTTP) submitSignature(w http.ResponseWriter, r *http.Request) error {
	var req bridge.SignatureRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	msg, err := h.service.SubmitSignature(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, msg)
	return nil
}

func (h *HTTP) forceFail(w http.ResponseWriter, r *http.Request) error {
	var req bridge.FailRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	if claims, ok := auth.OperatorFromContext(r.Context()); ok {
		h.logger.Info("Operator force-failing transfer",
			zap.String("operator", claims.Subject),
			zap.String("transaction_id", chi.URLParam(r, "id")))
	}
	tx, err := h.service.ForceFail(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, tx)
	return nil
}

func (h *HTTP) sweep(w http.ResponseWriter, r *http.Request) error {
	res, err := h.service.Sweep(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, res)
	return nil
}

func chainParam(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperrors.BadRequestError(nil, name+" is required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.BadRequestError(err, "invalid "+name)
	}
	return id, nil
}
