package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/scryptex/bridge-middleware/pkg/app/errors"
	apphttp "github.com/scryptex/bridge-middleware/pkg/app/http"
)

// ErrOperatorAuthDisabled is returned when no operator secret is configured.
var ErrOperatorAuthDisabled = errors.New("operator authentication is not configured")

// OperatorClaims are the claims carried by an operator bearer token.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// OperatorAuth issues and validates HS256 operator tokens for the admin routes.
type OperatorAuth struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewOperatorAuth creates an operator authenticator. An empty secret disables it.
func NewOperatorAuth(secret, issuer string) *OperatorAuth {
	return &OperatorAuth{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// IsConfigured returns true if operator tokens can be validated
func (a *OperatorAuth) IsConfigured() bool {
	return len(a.secret) > 0
}

// Issue signs a token for subject that is valid for ttl.
func (a *OperatorAuth) Issue(subject string, ttl time.Duration) (string, error) {
	if !a.IsConfigured() {
		return "", ErrOperatorAuthDisabled
	}
	now := a.now()
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a token and returns its claims
func (a *OperatorAuth) ValidateToken(tokenString string) (*OperatorClaims, error) {
	if !a.IsConfigured() {
		return nil, ErrOperatorAuthDisabled
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// RequireOperator rejects requests without a valid operator bearer token.
func (a *OperatorAuth) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "missing bearer token"))
			return
		}
		claims, err := a.ValidateToken(raw)
		if err != nil {
			apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid operator token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), claims)))
	})
}
