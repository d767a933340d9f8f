package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/punchamoorthee/contractledger/internal/service"
	"github.com/punchamoorthee/contractledger/internal/store"
)

const (
	BackendYAML     = store.BackendYAML
	BackendPostgres = store.BackendPostgres
	BackendBolt     = store.BackendBolt
)

type Config struct {
	Port         string `env:"SERVER_PORT" envDefault:"8080"`
	Env          string `env:"ENVIRONMENT" envDefault:"development"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"yaml"`
	DataFile     string `env:"DATA_FILE" envDefault:"data/sign_data.yml"`
	DBSource     string `env:"DB_SOURCE"`
	BoltPath     string `env:"BOLT_PATH" envDefault:"data/ledger.db"`
	ExternalFile string `env:"EXTERNAL_BALANCE_FILE"`
	TimeZone     string `env:"TIME_ZONE" envDefault:"Asia/Shanghai"`

	RequireTargetSigned bool    `env:"REQUIRE_TARGET_SIGNED" envDefault:"false"`
	BaseIncome          float64 `env:"BASE_INCOME" envDefault:"100"`
	InterestRate        float64 `env:"INTEREST_RATE" envDefault:"0.01"`
	StreakBonusStep     float64 `env:"STREAK_BONUS_STEP" envDefault:"10"`
	PriceBonusRate      float64 `env:"PRICE_BONUS_RATE" envDefault:"0.15"`
	RateBonusRate       float64 `env:"RATE_BONUS_RATE" envDefault:"0.05"`
	TakeoverFeeRate     float64 `env:"TAKEOVER_FEE_RATE" envDefault:"0.1"`
	SellReturnRate      float64 `env:"SELL_RETURN_RATE" envDefault:"0.8"`
	RedeemReturnRate    float64 `env:"REDEEM_RETURN_RATE" envDefault:"0.5"`
	EmployedIncomeRate  float64 `env:"EMPLOYED_INCOME_RATE" envDefault:"0.7"`
	MaxContractors      int     `env:"MAX_CONTRACTORS" envDefault:"3"`

	location *time.Location
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendYAML, BackendBolt:
	case BackendPostgres:
		if c.DBSource == "" {
			return fmt.Errorf("DB_SOURCE environment variable is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("TIME_ZONE: %w", err)
	}
	c.location = loc

	if c.MaxContractors < 1 {
		return fmt.Errorf("MAX_CONTRACTORS must be at least 1")
	}
	if c.EmployedIncomeRate < 0 || c.EmployedIncomeRate >= 1 {
		return fmt.Errorf("EMPLOYED_INCOME_RATE must be in [0, 1)")
	}
	rates := map[string]float64{
		"BASE_INCOME":        c.BaseIncome,
		"INTEREST_RATE":      c.InterestRate,
		"STREAK_BONUS_STEP":  c.StreakBonusStep,
		"PRICE_BONUS_RATE":   c.PriceBonusRate,
		"RATE_BONUS_RATE":    c.RateBonusRate,
		"TAKEOVER_FEE_RATE":  c.TakeoverFeeRate,
		"SELL_RETURN_RATE":   c.SellReturnRate,
		"REDEEM_RETURN_RATE": c.RedeemReturnRate,
	}
	for name, v := range rates {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Location is the resolved sign-in calendar zone.
func (c *Config) Location() *time.Location { return c.location }

// Rates converts the economy settings.
func (c *Config) Rates() service.Rates {
	return service.Rates{
		BaseIncome:          c.BaseIncome,
		InterestRate:        c.InterestRate,
		StreakBonusStep:     c.StreakBonusStep,
		RateBonusRate:       c.RateBonusRate,
		TakeoverFeeRate:     c.TakeoverFeeRate,
		SellReturnRate:      c.SellReturnRate,
		RedeemReturnRate:    c.RedeemReturnRate,
		EmployedIncomeRate:  c.EmployedIncomeRate,
		MaxContractors:      c.MaxContractors,
		RequireTargetSigned: c.RequireTargetSigned,
	}
}

// Backend returns the storage selection.
func (c *Config) Backend() store.BackendOptions {
	return store.BackendOptions{
		Backend:  c.StoreBackend,
		DataFile: c.DataFile,
		DBSource: c.DBSource,
		BoltPath: c.BoltPath,
	}
}
