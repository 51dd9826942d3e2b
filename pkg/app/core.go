package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/pkg/bridge/attestation"
	"github.com/scryptex/bridge-middleware/pkg/bridge/quote"
	"github.com/scryptex/bridge-middleware/pkg/bridge/status"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
	"github.com/scryptex/bridge-middleware/pkg/bridgestore"
	"github.com/scryptex/bridge-middleware/pkg/chain"
	"github.com/scryptex/bridge-middleware/pkg/config"
	"github.com/scryptex/bridge-middleware/pkg/ethereum"
	"github.com/scryptex/bridge-middleware/pkg/notify"
	"github.com/scryptex/bridge-middleware/pkg/pgutil"
	"github.com/scryptex/bridge-middleware/pkg/redisutil"
	"github.com/scryptex/bridge-middleware/pkg/relayer"
)

// ErrSharedStoreRequired is returned when a component that runs in its own process is
// configured with the in-process store.
var ErrSharedStoreRequired = errors.New("database.driver=memory cannot be shared between processes")

// Core is the bridge wired over one store: registry, quote engine, transfer state
// machine, attestation coordinator and status reader, plus the optional redis client
// and the notification fan-out.
type Core struct {
	Store       bridgestore.Store
	Registry    *chain.Registry
	Quotes      *quote.Engine
	Machine     *transfer.Machine
	Coordinator *attestation.Coordinator
	Reader      *status.Reader
	Hub         *notify.Hub
	// Broker is nil when redis is disabled.
	Broker *notify.Broker
	// Redis is nil when disabled.
	Redis *redis.Client

	closers []func()
}

// NewCore connects storage and redis and wires the bridge modules.
func NewCore(cfg *config.Config, logger *zap.Logger) (*Core, error) {
	c := &Core{}
	if err := c.build(cfg, logger); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Core) build(cfg *config.Config, logger *zap.Logger) error {
	store, err := c.openStore(&cfg.Database, logger)
	if err != nil {
		return err
	}
	c.Store = store

	if cfg.Redis.Enabled {
		client, err := redisutil.Connect(&cfg.Redis, logger)
		if err != nil {
			return err
		}
		c.Redis = client
		c.closers = append(c.closers, func() { _ = client.Close() })
	}

	c.Registry, err = chain.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("build chain registry: %w", err)
	}

	quoteCfg, err := quote.ConfigFromBridge(cfg.Bridge)
	if err != nil {
		return fmt.Errorf("quote config: %w", err)
	}
	c.Quotes, err = quote.NewEngine(c.Registry, quoteCfg, logger)
	if err != nil {
		return fmt.Errorf("create quote engine: %w", err)
	}

	c.Hub = notify.NewHub(logger, nil)
	c.closers = append(c.closers, c.Hub.Close)
	var notifier transfer.Notifier = c.Hub
	if c.Redis != nil {
		c.Broker = notify.NewBroker(c.Redis, cfg.Redis.Channel, c.Hub, logger)
		notifier = c.Broker
	}

	c.Machine = transfer.NewMachine(store, c.Registry, c.Quotes, logger,
		transfer.WithNotifier(notifier),
		transfer.WithGraceMultiplier(cfg.Bridge.GraceMultiplier))
	c.Coordinator = attestation.NewCoordinator(store, c.Machine, c.Registry, logger,
		attestation.WithTimeout(cfg.Bridge.AttestationTimeout))
	c.Reader = status.NewReader(store, status.WithDefaultPageSize(cfg.Bridge.HistoryPageSize))

	logger.Info("Bridge core ready",
		zap.Int("chains", len(c.Registry.List())),
		zap.String("store", cfg.Database.Driver),
		zap.Bool("redis", c.Redis != nil))
	return nil
}

func (c *Core) openStore(cfg *config.DatabaseConfig, logger *zap.Logger) (bridgestore.Store, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("Using in-memory store; transfers are lost on restart")
		return bridgestore.NewMemoryStore(), nil
	}
	db, err := pgutil.ConnectDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() { _ = db.Close() })
	return bridgestore.NewStore(db), nil
}

// RedisClient returns the redis client, or a nil interface when redis is disabled.
func (c *Core) RedisClient() redis.UniversalClient {
	if c.Redis == nil {
		return nil
	}
	return c.Redis
}

// Ready reports whether the store and, when enabled, redis answer.
func (c *Core) Ready(ctx context.Context) error {
	if err := c.Store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// NewRelayer dials every configured chain and returns a relayer engine subscribed to
// executed attestations. The returned func closes the chain clients.
func (c *Core) NewRelayer(cfg *config.Config, logger *zap.Logger) (*relayer.Engine, func(), error) {
	clients := make(map[uint64]relayer.ChainClient, len(cfg.Chains))
	var dialed []*ethereum.Client
	closeAll := func() {
		for _, cl := range dialed {
			cl.Close()
		}
	}

	for _, ch := range c.Registry.List() {
		cl, err := ethereum.Dial(ch, &cfg.Relayer, logger)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("chain %d: %w", ch.ID, err)
		}
		dialed = append(dialed, cl)
		clients[ch.ID] = cl
	}

	processor := relayer.NewProcessor(&cfg.Relayer, clients, c.Machine, c.Coordinator, c.Store, logger)
	c.Coordinator.Subscribe(processor)

	engine := relayer.NewEngine(processor, c.Store, cfg.Bridge.ProcessingInterval, cfg.Relayer.Concurrency, logger)
	return engine, closeAll, nil
}

// Close releases connections in reverse order of creation.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
