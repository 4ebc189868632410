package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/money"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SettlementConfig is the hot-reloadable settlement policy.
type SettlementConfig struct {
	TaxRate               string   `mapstructure:"taxRate"`
	SupplyScale           int32    `mapstructure:"supplyScale"`
	CommissionRate        string   `mapstructure:"commissionRate"`
	EligibleOrderStatuses []string `mapstructure:"eligibleOrderStatuses"`
	PayoutOffsetDays      int      `mapstructure:"payoutOffsetDays"`
	BulkBatchSize         int      `mapstructure:"bulkBatchSize"`
}

func DefaultSettlementConfig() SettlementConfig {
	return SettlementConfig{
		TaxRate:               "0.10",
		SupplyScale:           0,
		CommissionRate:        "0.05",
		EligibleOrderStatuses: []string{"PENDING"},
		PayoutOffsetDays:      10,
		BulkBatchSize:         1000,
	}
}

// TaxRateDecimal returns the configured rate; callers rely on validation having passed.
func (c SettlementConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := money.Parse(c.TaxRate)
	if err != nil {
		return decimal.RequireFromString(DefaultSettlementConfig().TaxRate)
	}
	return rate
}

func (c SettlementConfig) CommissionRateDecimal() decimal.Decimal {
	rate, err := money.Parse(c.CommissionRate)
	if err != nil {
		return decimal.RequireFromString(DefaultSettlementConfig().CommissionRate)
	}
	return rate
}

type SettlementConfigHolder struct {
	current atomic.Value // holds SettlementConfig
}

// NewStaticSettlementConfigHolder returns a holder that never reloads.
func NewStaticSettlementConfigHolder(cfg SettlementConfig) *SettlementConfigHolder {
	holder := &SettlementConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewSettlementConfigHolder() (*SettlementConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("settlement")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/settlement/config")
	v.AddConfigPath("/etc/settlement")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SETTLEMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettlementConfig()
	v.SetDefault("settlement.taxRate", defaults.TaxRate)
	v.SetDefault("settlement.supplyScale", defaults.SupplyScale)
	v.SetDefault("settlement.commissionRate", defaults.CommissionRate)
	v.SetDefault("settlement.eligibleOrderStatuses", defaults.EligibleOrderStatuses)
	v.SetDefault("settlement.payoutOffsetDays", defaults.PayoutOffsetDays)
	v.SetDefault("settlement.bulkBatchSize", defaults.BulkBatchSize)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg SettlementConfig
	if err := v.UnmarshalKey("settlement", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateSettlementConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticSettlementConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SettlementConfig
		if err := v.UnmarshalKey("settlement", &updated); err != nil {
			zap.L().Warn("settlement config reload failed", zap.Error(err))
			return
		}
		if err := ValidateSettlementConfig(updated); err != nil {
			zap.L().Warn("invalid settlement config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("settlement config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *SettlementConfigHolder) Get() SettlementConfig {
	return h.current.Load().(SettlementConfig)
}

func ValidateSettlementConfig(cfg SettlementConfig) error {
	rate, err := money.Parse(cfg.TaxRate)
	if err != nil {
		return fmt.Errorf("settlement.taxRate: %w", err)
	}
	if rate.IsNegative() {
		return errors.New("settlement.taxRate cannot be negative")
	}
	commission, err := money.Parse(cfg.CommissionRate)
	if err != nil {
		return fmt.Errorf("settlement.commissionRate: %w", err)
	}
	if commission.IsNegative() || commission.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("settlement.commissionRate must be within [0, 1]")
	}
	if cfg.SupplyScale < 0 || cfg.SupplyScale > money.StorageScale {
		return fmt.Errorf("settlement.supplyScale must be within [0, %d]", money.StorageScale)
	}
	if len(cfg.EligibleOrderStatuses) == 0 {
		return errors.New("settlement.eligibleOrderStatuses cannot be empty")
	}
	if cfg.BulkBatchSize <= 0 {
		return errors.New("settlement.bulkBatchSize must be positive")
	}
	return nil
}
