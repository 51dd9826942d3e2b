package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/scryptex/bridge-middleware/pkg/app/errors"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/status"
	"github.com/scryptex/bridge-middleware/pkg/bridge/sweep"
	"github.com/scryptex/bridge-middleware/pkg/chain"
)

const serviceName = "BridgeService"

const signatureDisplaySize = 16

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the bridge Service.
// Writes are logged at info level, reads at debug. Caller errors are warnings,
// internal failures are errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// finish logs the outcome of method once it returns.
func (ls *logService) finish(level zapcore.Level, method string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		fields = append(fields, zap.Error(err))
		if apperrors.IsInternalError(err) {
			ls.logger.Error(method+" failed", fields...)
		} else {
			ls.logger.Warn(method+" rejected", fields...)
		}
		return
	}
	ls.logger.Log(level, method+" completed", fields...)
}

func (ls *logService) GetQuote(ctx context.Context, req *bridge.Request) (q *bridge.Quote, err error) {
	start := time.Now()
	defer func() {
		fields := []zap.Field{
			zap.Uint64("from_chain", req.FromChain),
			zap.Uint64("to_chain", req.ToChain),
			zap.String("amount", req.Amount.String()),
		}
		if q != nil {
			fields = append(fields, zap.String("quote_id", redactSignature(q.ID)), zap.Int("routes", len(q.Routes)))
		}
		ls.finish(zapcore.InfoLevel, "GetQuote", start, err, fields...)
	}()
	return ls.svc.GetQuote(ctx, req)
}

func (ls *logService) EstimateFee(ctx context.Context, req *bridge.Request) (route *bridge.Route, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.DebugLevel, "EstimateFee", start, err,
			zap.Uint64("from_chain", req.FromChain),
			zap.Uint64("to_chain", req.ToChain))
	}()
	return ls.svc.EstimateFee(ctx, req)
}

func (ls *logService) Routes(ctx context.Context, from, to uint64) (routes []bridge.Route, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.DebugLevel, "Routes", start, err,
			zap.Uint64("from_chain", from),
			zap.Uint64("to_chain", to),
			zap.Int("routes", len(routes)))
	}()
	return ls.svc.Routes(ctx, from, to)
}

func (ls *logService) SupportedChains(ctx context.Context) (chains []chain.Chain, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.DebugLevel, "SupportedChains", start, err, zap.Int("chains", len(chains)))
	}()
	return ls.svc.SupportedChains(ctx)
}

func (ls *logService) Execute(ctx context.Context, req *bridge.ExecuteRequest, idempotencyKey string) (tx *bridge.Transaction, created bool, err error) {
	start := time.Now()

	ls.logger.Info("Execute started",
		zap.String("service", serviceName),
		zap.String("method", "Execute"),
		zap.Uint64("from_chain", req.Request.FromChain),
		zap.Uint64("to_chain", req.Request.ToChain),
		zap.String("sender", req.Request.Sender),
		zap.Bool("has_source_tx", req.SourceTxHash != ""),
		zap.Bool("has_idempotency_key", idempotencyKey != ""),
	)

	defer func() {
		var fields []zap.Field
		if tx != nil {
			fields = append(fields,
				zap.String("transaction_id", tx.ID),
				zap.String("status", string(tx.Status)),
				zap.Bool("created", created))
		}
		ls.finish(zapcore.InfoLevel, "Execute", start, err, fields...)
	}()
	return ls.svc.Execute(ctx, req, idempotencyKey)
}

func (ls *logService) Cancel(ctx context.Context, id string, req *bridge.CancelRequest) (tx *bridge.Transaction, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.InfoLevel, "Cancel", start, err,
			zap.String("transaction_id", id),
			zap.String("signature", redactSignature(req.Signature)))
	}()
	return ls.svc.Cancel(ctx, id, req)
}

func (ls *logService) GetStatus(ctx context.Context, id string) (v *status.View, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.DebugLevel, "GetStatus", start, err, zap.String("transaction_id", id))
	}()
	return ls.svc.GetStatus(ctx, id)
}

func (ls *logService) History(ctx context.Context, address, cursor string, limit int) (page *status.Page, err error) {
	start := time.Now()
	defer func() {
		fields := []zap.Field{zap.String("address", address), zap.Int("limit", limit)}
		if page != nil {
			fields = append(fields, zap.Int("items", len(page.Items)))
		}
		ls.finish(zapcore.DebugLevel, "History", start, err, fields...)
	}()
	return ls.svc.History(ctx, address, cursor, limit)
}

func (ls *logService) Volume(ctx context.Context, timeframe string) (v *bridge.Volume, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.DebugLevel, "Volume", start, err, zap.String("timeframe", timeframe))
	}()
	return ls.svc.Volume(ctx, timeframe)
}

func (ls *logService) Messages(ctx context.Context, transactionID string) (msgs []*bridge.Message, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.DebugLevel, "Messages", start, err,
			zap.String("transaction_id", transactionID),
			zap.Int("messages", len(msgs)))
	}()
	return ls.svc.Messages(ctx, transactionID)
}

func (ls *logService) GetMessage(ctx context.Context, id string) (msg *bridge.Message, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.DebugLevel, "GetMessage", start, err, zap.String("message_id", id))
	}()
	return ls.svc.GetMessage(ctx, id)
}

func (ls *logService) SubmitSignature(ctx context.Context, messageID string, req *bridge.SignatureRequest) (msg *bridge.Message, err error) {
	start := time.Now()
	defer func() {
		fields := []zap.Field{
			zap.String("message_id", messageID),
			zap.String("validator", req.Validator),
			zap.String("signature", redactSignature(req.Signature)),
		}
		if msg != nil {
			fields = append(fields,
				zap.String("message_status", string(msg.Status)),
				zap.Int("signatures", len(msg.Signatures)))
		}
		ls.finish(zapcore.InfoLevel, "SubmitSignature", start, err, fields...)
	}()
	return ls.svc.SubmitSignature(ctx, messageID, req)
}

func (ls *logService) ForceFail(ctx context.Context, id string, req *bridge.FailRequest) (tx *bridge.Transaction, err error) {
	start := time.Now()
	defer func() {
		ls.finish(zapcore.InfoLevel, "ForceFail", start, err,
			zap.String("transaction_id", id),
			zap.String("reason", req.Reason))
	}()
	return ls.svc.ForceFail(ctx, id, req)
}

func (ls *logService) Sweep(ctx context.Context) (res *sweep.Result, err error) {
	start := time.Now()
	defer func() {
		var fields []zap.Field
		if res != nil {
			fields = append(fields,
				zap.Int("expired", res.Expired),
				zap.Int("failed", res.Failed),
				zap.Int("messages", res.Messages))
		}
		ls.finish(zapcore.InfoLevel, "Sweep", start, err, fields...)
	}()
	return ls.svc.Sweep(ctx)
}

// redactSignature shows only the leading characters of long opaque values
func redactSignature(sig string) string {
	if len(sig) <= signatureDisplaySize {
		return sig
	}
	return sig[:signatureDisplaySize] + "..."
}
