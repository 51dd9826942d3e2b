package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

const (
	// ContextKeyOperator is the context key for the authenticated operator claims
	ContextKeyOperator contextKey = "operator"
	// ContextKeyEVMAddress is the context key for a signature-verified EVM address
	ContextKeyEVMAddress contextKey = "evm_address"
)

// WithOperator adds operator claims to the context
func WithOperator(ctx context.Context, claims *OperatorClaims) context.Context {
	return context.WithValue(ctx, ContextKeyOperator, claims)
}

// OperatorFromContext retrieves the operator claims from the context
func OperatorFromContext(ctx context.Context) (*OperatorClaims, bool) {
	claims, ok := ctx.Value(ContextKeyOperator).(*OperatorClaims)
	return claims, ok
}

// WithEVMAddress adds the EVM address to the context
func WithEVMAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, ContextKeyEVMAddress, address)
}

// EVMAddressFromContext retrieves the EVM address from the context
func EVMAddressFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(ContextKeyEVMAddress).(string)
	return addr, ok
}
