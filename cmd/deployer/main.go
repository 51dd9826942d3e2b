package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/pkg/config"
	"github.com/scryptex/bridge-middleware/pkg/deploy"
)

var (
	planPath = flag.String("plan", "deploy/plans.yaml", "Path to the deployment plan file")
	network  = flag.String("network", "", "Network to deploy (one of the plan's networks)")
	keyEnv   = flag.String("key-env", "DEPLOYER_PRIVATE_KEY", "Environment variable holding the deployer private key")
	timeout  = flag.Duration("timeout", 15*time.Minute, "Overall deployment timeout")
)

func main() {
	flag.Parse()

	// A missing .env is fine; the key may come from the environment.
	_ = godotenv.Load()

	logger, err := config.NewLogger(config.LoggingConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("Deployment failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	plans, err := deploy.LoadPlans(*planPath)
	if err != nil {
		return err
	}
	plan, ok := plans[*network]
	if !ok {
		return fmt.Errorf("unknown network %q, available: %s", *network, strings.Join(deploy.Networks(plans), ", "))
	}

	rawKey := os.Getenv(*keyEnv)
	if rawKey == "" {
		return fmt.Errorf("%s is not set", *keyEnv)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(rawKey, "0x"))
	if err != nil {
		return fmt.Errorf("invalid deployer key: %w", err)
	}

	artifacts, err := deploy.LoadArtifacts(plan)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, plan.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", plan.RPCURL, err)
	}
	defer client.Close()

	logger.Info("Starting deployment",
		zap.String("network", plan.Network),
		zap.Uint64("chain_id", plan.ChainID),
		zap.Int("contracts", len(plan.Contracts)))

	res, deployErr := deploy.NewDeployer(client, key, logger).Deploy(ctx, plan, artifacts)
	if res == nil {
		return deployErr
	}

	out := plan.OutputPath()
	if deployErr != nil {
		// keep the addresses of what did get deployed
		out = plan.PartialOutputPath()
	}
	if err := deploy.WriteResult(out, res); err != nil {
		return errors.Join(deployErr, err)
	}
	logger.Info("Deployment record written", zap.String("path", out))
	return deployErr
}
