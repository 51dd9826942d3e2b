package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Database drivers supported by the bridge server.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Chains     []ChainConfig    `mapstructure:"chains" validate:"required,min=2,dive"`
	Links      []LinkConfig     `mapstructure:"links" validate:"dive"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Relayer    RelayerConfig    `mapstructure:"relayer"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=postgres memory"`
	Host     string `mapstructure:"host" validate:"required_if=Driver postgres"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains the optional redis connection shared by the rate limiter
// and the notification broker.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// CurrencyConfig describes a chain's native currency.
type CurrencyConfig struct {
	Name     string `mapstructure:"name"`
	Symbol   string `mapstructure:"symbol" validate:"required"`
	Decimals uint8  `mapstructure:"decimals" default:"18"`
}

// ContractsConfig holds the deployed contract addresses on a chain.
type ContractsConfig struct {
	Bridge    string `mapstructure:"bridge" validate:"omitempty,eth_addr"`
	Factory   string `mapstructure:"factory" validate:"omitempty,eth_addr"`
	Quest     string `mapstructure:"quest" validate:"omitempty,eth_addr"`
	Community string `mapstructure:"community" validate:"omitempty,eth_addr"`
	Activity  string `mapstructure:"activity" validate:"omitempty,eth_addr"`
}

// ChainConfig is one entry of the chain registry.
type ChainConfig struct {
	ID            uint64          `mapstructure:"id" validate:"required"`
	Name          string          `mapstructure:"name" validate:"required"`
	RPCURL        string          `mapstructure:"rpc_url" validate:"required,url"`
	ExplorerURL   string          `mapstructure:"explorer_url" validate:"omitempty,url"`
	Currency      CurrencyConfig  `mapstructure:"currency"`
	FinalityDepth uint64          `mapstructure:"finality_depth" default:"12"`
	LegTime       time.Duration   `mapstructure:"leg_time" default:"60s"`
	Hub           bool            `mapstructure:"hub"`
	Contracts     ContractsConfig `mapstructure:"contracts"`
	Validators    []string        `mapstructure:"validators" validate:"dive,eth_addr"`
	Quorum        int             `mapstructure:"quorum" validate:"gte=0"`
	GasLimit      uint64          `mapstructure:"gas_limit"`
}

// LinkConfig declares a direct bridge link between two chains.
type LinkConfig struct {
	From uint64 `mapstructure:"from" validate:"required"`
	To   uint64 `mapstructure:"to" validate:"required,nefield=From"`
}

// BridgeConfig contains the economic and timing parameters of the bridge.
type BridgeConfig struct {
	BaseFee              string        `mapstructure:"base_fee"`
	FeeBps               int64         `mapstructure:"fee_bps" validate:"gte=0,lte=10000"`
	CrossChainMultiplier string        `mapstructure:"cross_chain_multiplier"`
	MaxHops              int           `mapstructure:"max_hops" validate:"gte=1,lte=4"`
	MinTransferAmount    string        `mapstructure:"min_transfer_amount"`
	MaxTransferAmount    string        `mapstructure:"max_transfer_amount"`
	QuoteTTL             time.Duration `mapstructure:"quote_ttl" validate:"gt=0"`
	QuoteSecret          string        `mapstructure:"quote_secret"`
	GraceMultiplier      float64       `mapstructure:"grace_multiplier" validate:"gte=1"`
	AttestationTimeout   time.Duration `mapstructure:"attestation_timeout" validate:"gt=0"`
	SweepInterval        time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	ProcessingInterval   time.Duration `mapstructure:"processing_interval" validate:"gt=0"`
	HistoryPageSize      int           `mapstructure:"history_page_size" validate:"gt=0,lte=500"`
}

// RelayerConfig contains settings for the process that submits and observes chain transactions.
type RelayerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	PrivateKey       string        `mapstructure:"private_key" validate:"required_if=Enabled true"`
	GasLimit         uint64        `mapstructure:"gas_limit"`
	MaxGasPrice      string        `mapstructure:"max_gas_price"`
	SubmitSource     bool          `mapstructure:"submit_source"`
	Concurrency      int           `mapstructure:"concurrency" validate:"gt=0"`
	MaxRetries       uint64        `mapstructure:"max_retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	RPCTimeout       time.Duration `mapstructure:"rpc_timeout"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures"`
	BreakerOpenDelay time.Duration `mapstructure:"breaker_open_delay"`
}

// RateLimitConfig contains per route request budgets.
type RateLimitConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Window           time.Duration `mapstructure:"window"`
	QuoteLimit       int           `mapstructure:"quote_limit"`
	ExecuteLimit     int           `mapstructure:"execute_limit"`
	FeeEstimateLimit int           `mapstructure:"fee_estimate_limit"`
}

// AuthConfig holds operator token settings for the admin routes.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	// relayer.private_key is read from RELAYER_PRIVATE_KEY and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i := range config.Chains {
		if err := defaults.Set(&config.Chains[i]); err != nil {
			return nil, fmt.Errorf("failed to apply chain defaults: %w", err)
		}
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.middleware_timeout", "60s")

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.database", "bridge")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.channel", "bridge:events")

	// Bridge defaults
	v.SetDefault("bridge.base_fee", "0")
	v.SetDefault("bridge.fee_bps", 100)
	v.SetDefault("bridge.cross_chain_multiplier", "1.5")
	v.SetDefault("bridge.max_hops", 2)
	v.SetDefault("bridge.min_transfer_amount", "0")
	v.SetDefault("bridge.max_transfer_amount", "1000000")
	v.SetDefault("bridge.quote_ttl", "60s")
	v.SetDefault("bridge.grace_multiplier", 3.0)
	v.SetDefault("bridge.attestation_timeout", "10m")
	v.SetDefault("bridge.sweep_interval", "30s")
	v.SetDefault("bridge.processing_interval", "15s")
	v.SetDefault("bridge.history_page_size", 50)

	// Relayer defaults
	v.SetDefault("relayer.enabled", true)
	v.SetDefault("relayer.gas_limit", 300000)
	v.SetDefault("relayer.concurrency", 8)
	v.SetDefault("relayer.max_retries", 5)
	v.SetDefault("relayer.retry_delay", "2s")
	v.SetDefault("relayer.rpc_timeout", "20s")
	v.SetDefault("relayer.breaker_failures", 5)
	v.SetDefault("relayer.breaker_open_delay", "30s")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("rate_limit.quote_limit", 10)
	v.SetDefault("rate_limit.execute_limit", 5)
	v.SetDefault("rate_limit.fee_estimate_limit", 20)

	// Secrets, declared so environment overrides reach them
	v.SetDefault("relayer.private_key", "")
	v.SetDefault("bridge.quote_secret", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "bridge-middleware")
	v.SetDefault("database.password", "")
	v.SetDefault("redis.password", "")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// Validate runs struct validation plus the cross-field checks the tags cannot express.
func Validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	seen := make(map[uint64]struct{}, len(config.Chains))
	hubs := 0
	for _, c := range config.Chains {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("chains: duplicate chain id %d", c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.Hub {
			hubs++
		}
		if c.Quorum > len(c.Validators) {
			return fmt.Errorf("chains[%d]: quorum %d exceeds %d validators", c.ID, c.Quorum, len(c.Validators))
		}
	}
	if hubs > 1 {
		return fmt.Errorf("chains: at most one hub chain is allowed, found %d", hubs)
	}
	for _, l := range config.Links {
		if _, ok := seen[l.From]; !ok {
			return fmt.Errorf("links: unknown chain %d", l.From)
		}
		if _, ok := seen[l.To]; !ok {
			return fmt.Errorf("links: unknown chain %d", l.To)
		}
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
