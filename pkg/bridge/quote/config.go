package quote

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scryptex/bridge-middleware/pkg/config"
)

// DefaultTTL is how long a quote stays executable when no TTL is configured.
const DefaultTTL = 60 * time.Second

// Config holds the fee curve and quote lifetime.
type Config struct {
	BaseFee    decimal.Decimal
	FeeBps     int64
	Multiplier decimal.Decimal
	MaxHops    int
	MinAmount  decimal.Decimal
	MaxAmount  decimal.Decimal
	TTL        time.Duration
	Secret     string
}

// ConfigFromBridge parses the decimal fields of the bridge configuration.
func ConfigFromBridge(cfg config.BridgeConfig) (Config, error) {
	parse := func(name, value, fallback string) (decimal.Decimal, error) {
		if value == "" {
			value = fallback
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("bridge.%s: %w", name, err)
		}
		return d, nil
	}

	base, err := parse("base_fee", cfg.BaseFee, "0")
	if err != nil {
		return Config{}, err
	}
	mult, err := parse("cross_chain_multiplier", cfg.CrossChainMultiplier, "1.5")
	if err != nil {
		return Config{}, err
	}
	minAmount, err := parse("min_transfer_amount", cfg.MinTransferAmount, "0")
	if err != nil {
		return Config{}, err
	}
	maxAmount, err := parse("max_transfer_amount", cfg.MaxTransferAmount, "0")
	if err != nil {
		return Config{}, err
	}

	c := Config{
		BaseFee:    base,
		FeeBps:     cfg.FeeBps,
		Multiplier: mult,
		MaxHops:    cfg.MaxHops,
		MinAmount:  minAmount,
		MaxAmount:  maxAmount,
		TTL:        cfg.QuoteTTL,
		Secret:     cfg.QuoteSecret,
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.BaseFee.IsNegative() {
		return fmt.Errorf("bridge.base_fee must not be negative")
	}
	if c.FeeBps < 0 || c.FeeBps > 10000 {
		return fmt.Errorf("bridge.fee_bps must be within [0, 10000]")
	}
	if c.Multiplier.LessThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("bridge.cross_chain_multiplier must be greater than 1")
	}
	if c.MaxHops < 1 {
		return fmt.Errorf("bridge.max_hops must be at least 1")
	}
	if c.MinAmount.IsNegative() {
		return fmt.Errorf("bridge.min_transfer_amount must not be negative")
	}
	if c.MaxAmount.IsPositive() && c.MaxAmount.LessThan(c.MinAmount) {
		return fmt.Errorf("bridge.max_transfer_amount is below the minimum")
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	return nil
}
