//go:build ignore

// This script issues an operator token for the bridge /admin routes.
// Run with: AUTH_JWT_SECRET=... go run scripts/generate-jwt.go -sub ops@example.com

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/scryptex/bridge-middleware/pkg/auth"
)

func main() {
	subject := flag.String("sub", "operator", "Operator identity recorded in admin logs")
	issuer := flag.String("iss", "bridge-middleware", "Issuer, must match auth.jwt_issuer")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "AUTH_JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.NewOperatorAuth(secret, *issuer).Issue(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "\nUse it as: Authorization: Bearer <token> (expires in %s)\n", *ttl)
}
