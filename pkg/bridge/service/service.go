package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/scryptex/bridge-middleware/pkg/app/errors"
	"github.com/scryptex/bridge-middleware/pkg/auth"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/status"
	"github.com/scryptex/bridge-middleware/pkg/bridge/sweep"
	"github.com/scryptex/bridge-middleware/pkg/chain"
)

// DefaultTimeframe is the volume window used when the caller names none.
const DefaultTimeframe = "24h"

// Service defines the bridge API operations
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	GetQuote(ctx context.Context, req *bridge.Request) (*bridge.Quote, error)
	EstimateFee(ctx context.Context, req *bridge.Request) (*bridge.Route, error)
	Routes(ctx context.Context, from, to uint64) ([]bridge.Route, error)
	SupportedChains(ctx context.Context) ([]chain.Chain, error)

	Execute(ctx context.Context, req *bridge.ExecuteRequest, idempotencyKey string) (*bridge.Transaction, bool, error)
	Cancel(ctx context.Context, id string, req *bridge.CancelRequest) (*bridge.Transaction, error)

	GetStatus(ctx context.Context, id string) (*status.View, error)
	History(ctx context.Context, address, cursor string, limit int) (*status.Page, error)
	Volume(ctx context.Context, timeframe string) (*bridge.Volume, error)
	Messages(ctx context.Context, transactionID string) ([]*bridge.Message, error)

	GetMessage(ctx context.Context, id string) (*bridge.Message, error)
	SubmitSignature(ctx context.Context, messageID string, req *bridge.SignatureRequest) (*bridge.Message, error)

	ForceFail(ctx context.Context, id string, req *bridge.FailRequest) (*bridge.Transaction, error)
	Sweep(ctx context.Context) (*sweep.Result, error)
}

// QuoteEngine prices requests and lists routes.
type QuoteEngine interface {
	GetQuote(ctx context.Context, req *bridge.Request) (*bridge.Quote, error)
	EstimateFee(ctx context.Context, req *bridge.Request) (*bridge.Route, error)
	Routes(ctx context.Context, from, to uint64) ([]bridge.Route, error)
}

// Transfers is the write side of the transfer state machine.
type Transfers interface {
	Submit(ctx context.Context, quote *bridge.Quote, req *bridge.Request, idempotencyKey string) (*bridge.Transaction, bool, error)
	AttachSourceTx(ctx context.Context, id, txHash string) (*bridge.Transaction, error)
	Cancel(ctx context.Context, id, caller string) (*bridge.Transaction, error)
	Fail(ctx context.Context, id, reason string) (*bridge.Transaction, error)
}

// Reader is the read side used by status and history queries.
type Reader interface {
	GetStatus(ctx context.Context, id string) (*status.View, error)
	ListByUser(ctx context.Context, address, cursor string, limit int) (*status.Page, error)
	Volume(ctx context.Context, timeframe string) (*bridge.Volume, error)
	Messages(ctx context.Context, transactionID string) ([]*bridge.Message, error)
}

// Attestations collects validator signatures.
type Attestations interface {
	Get(ctx context.Context, id string) (*bridge.Message, error)
	SubmitSignature(ctx context.Context, messageID, validator, signature string) (*bridge.Message, error)
}

// Sweeper runs one maintenance pass on demand.
type Sweeper interface {
	Run(ctx context.Context) (*sweep.Result, error)
}

type bridgeService struct {
	registry     *chain.Registry
	quotes       QuoteEngine
	transfers    Transfers
	reader       Reader
	attestations Attestations
	sweeper      Sweeper
	validate     *validator.Validate
}

// NewService creates the bridge API service.
func NewService(
	registry *chain.Registry,
	quotes QuoteEngine,
	transfers Transfers,
	reader Reader,
	attestations Attestations,
	sweeper Sweeper,
) Service {
	return &bridgeService{
		registry:     registry,
		quotes:       quotes,
		transfers:    transfers,
		reader:       reader,
		attestations: attestations,
		sweeper:      sweeper,
		validate:     validator.New(),
	}
}

func (s *bridgeService) GetQuote(ctx context.Context, req *bridge.Request) (*bridge.Quote, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	q, err := s.quotes.GetQuote(ctx, req)
	if err != nil {
		return nil, mapError(err, "failed to get quote")
	}
	return q, nil
}

func (s *bridgeService) EstimateFee(ctx context.Context, req *bridge.Request) (*bridge.Route, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	route, err := s.quotes.EstimateFee(ctx, req)
	if err != nil {
		return nil, mapError(err, "failed to estimate fee")
	}
	return route, nil
}

func (s *bridgeService) Routes(ctx context.Context, from, to uint64) ([]bridge.Route, error) {
	routes, err := s.quotes.Routes(ctx, from, to)
	if err != nil {
		return nil, mapError(err, "failed to list routes")
	}
	return routes, nil
}

func (s *bridgeService) SupportedChains(_ context.Context) ([]chain.Chain, error) {
	return s.registry.List(), nil
}

// Execute admits a quoted transfer. The bool reports whether a new transaction was
// created; a replay with the same idempotency key returns the original.
func (s *bridgeService) Execute(ctx context.Context, req *bridge.ExecuteRequest, idempotencyKey string) (*bridge.Transaction, bool, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, false, err
	}

	tx, created, err := s.transfers.Submit(ctx, &bridge.Quote{ID: req.QuoteID}, &req.Request, idempotencyKey)
	if err != nil {
		return nil, false, mapError(err, "failed to execute transfer")
	}

	if req.SourceTxHash == "" || strings.EqualFold(tx.SourceTxHash, req.SourceTxHash) {
		return tx, created, nil
	}
	if tx.Status != bridge.StatusPending {
		if tx.SourceTxHash != "" {
			return nil, false, mapError(fmt.Errorf("%w: %s", bridge.ErrSourceTxConflict, tx.ID), "failed to attach source transaction")
		}
		return tx, created, nil
	}

	tx, err = s.transfers.AttachSourceTx(ctx, tx.ID, req.SourceTxHash)
	if err != nil {
		return nil, false, mapError(err, "failed to attach source transaction")
	}
	return tx, created, nil
}

// Cancel fails a pending transfer on behalf of its sender, identified by the EIP-191
// signature over CancelMessage.
func (s *bridgeService) Cancel(ctx context.Context, id string, req *bridge.CancelRequest) (*bridge.Transaction, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	caller, err := auth.VerifyEIP191Signature(bridge.CancelMessage(id), req.Signature)
	if err != nil {
		return nil, apperrors.UnAuthorizedError(err, "invalid cancel signature")
	}
	tx, err := s.transfers.Cancel(ctx, id, caller.Hex())
	if err != nil {
		return nil, mapError(err, "failed to cancel transfer")
	}
	return tx, nil
}

func (s *bridgeService) GetStatus(ctx context.Context, id string) (*status.View, error) {
	v, err := s.reader.GetStatus(ctx, id)
	if err != nil {
		return nil, mapError(err, "failed to get transaction status")
	}
	return v, nil
}

func (s *bridgeService) History(ctx context.Context, address, cursor string, limit int) (*status.Page, error) {
	if !auth.ValidateEVMAddress(address) {
		return nil, apperrors.BadRequestError(nil, "invalid address")
	}
	page, err := s.reader.ListByUser(ctx, address, cursor, limit)
	if err != nil {
		return nil, mapError(err, "failed to list transactions")
	}
	return page, nil
}

func (s *bridgeService) Volume(ctx context.Context, timeframe string) (*bridge.Volume, error) {
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}
	v, err := s.reader.Volume(ctx, timeframe)
	if err != nil {
		return nil, mapError(err, "failed to aggregate volume")
	}
	return v, nil
}

func (s *bridgeService) Messages(ctx context.Context, transactionID string) ([]*bridge.Message, error) {
	msgs, err := s.reader.Messages(ctx, transactionID)
	if err != nil {
		return nil, mapError(err, "failed to list messages")
	}
	return msgs, nil
}

func (s *bridgeService) GetMessage(ctx context.Context, id string) (*bridge.Message, error) {
	msg, err := s.attestations.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "failed to get message")
	}
	return msg, nil
}

func (s *bridgeService) SubmitSignature(ctx context.Context, messageID string, req *bridge.SignatureRequest) (*bridge.Message, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	msg, err := s.attestations.SubmitSignature(ctx, messageID, req.Validator, req.Signature)
	if err != nil {
		return nil, mapError(err, "failed to submit signature")
	}
	return msg, nil
}

func (s *bridgeService) ForceFail(ctx context.Context, id string, req *bridge.FailRequest) (*bridge.Transaction, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	tx, err := s.transfers.Fail(ctx, id, req.Reason)
	if err != nil {
		return nil, mapError(err, "failed to fail transfer")
	}
	return tx, nil
}

func (s *bridgeService) Sweep(ctx context.Context) (*sweep.Result, error) {
	res, err := s.sweeper.Run(ctx)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("sweep failed: %w", err))
	}
	return res, nil
}

func (s *bridgeService) validateStruct(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.BadRequestError(err, fmt.Sprintf("invalid %s: failed on %s", fieldName(verrs[0]), verrs[0].Tag()))
		}
		return apperrors.BadRequestError(err, "invalid request")
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return "field"
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// mapError converts domain errors into service errors. The domain message is safe to
// show to callers; anything unrecognised becomes a generic failure.
func mapError(err error, fallback string) error {
	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	switch {
	case errors.Is(err, bridge.ErrTransactionNotFound),
		errors.Is(err, bridge.ErrMessageNotFound):
		return apperrors.ResourceNotFoundError(err, err.Error())

	case errors.Is(err, bridge.ErrQuoteExpired),
		errors.Is(err, bridge.ErrAttestationTimedOut):
		return apperrors.GoneError(err, err.Error())

	case errors.Is(err, bridge.ErrNotSender),
		errors.Is(err, bridge.ErrUnknownValidator):
		return apperrors.ForbiddenError(err, err.Error())

	case errors.Is(err, bridge.ErrInvalidSignature):
		return apperrors.UnAuthorizedError(err, err.Error())

	case errors.Is(err, bridge.ErrIdempotencyConflict),
		errors.Is(err, bridge.ErrSourceTxConflict),
		errors.Is(err, bridge.ErrInvalidTransition),
		errors.Is(err, bridge.ErrCancelNotAllowed),
		errors.Is(err, bridge.ErrStaleTransaction),
		errors.Is(err, bridge.ErrDuplicateSignature),
		errors.Is(err, bridge.ErrMessageClosed),
		errors.Is(err, bridge.ErrStaleMessage),
		errors.Is(err, bridge.ErrNotAttestable):
		return apperrors.ConflictError(err, err.Error())

	case errors.Is(err, bridge.ErrUnsupportedChain),
		errors.Is(err, bridge.ErrInvalidAmount),
		errors.Is(err, bridge.ErrNoRouteAvailable),
		errors.Is(err, bridge.ErrQuoteMismatch),
		errors.Is(err, bridge.ErrInvalidRequest),
		errors.Is(err, bridge.ErrInvalidCursor),
		errors.Is(err, bridge.ErrInvalidTimeframe),
		errors.Is(err, bridge.ErrInvalidEvent),
		errors.Is(err, bridge.ErrInsufficientConfirmations):
		return apperrors.BadRequestError(err, err.Error())
	}
	return apperrors.GeneralError(fmt.Errorf("%s: %w", fallback, err))
}
