package config

import (
	"fmt"
	"strings"

	"obsidian/internal/scheduler"
)

func validate(c *Config) error {
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if err := c.Strategy.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	return nil
}

func (e *ExchangeConfig) validate() error {
	if strings.TrimSpace(e.Key) == "" || strings.TrimSpace(e.Secret) == "" {
		return fmt.Errorf("exchange.key and exchange.secret are required")
	}
	return nil
}

func (s *StrategyConfig) validate() error {
	if _, ok := scheduler.ParseIntervalDuration(s.Timeframe); !ok {
		return fmt.Errorf("strategy.timeframe is not a valid interval: %s", s.Timeframe)
	}
	if _, ok := scheduler.ParseIntervalDuration(s.TrendTimeframe); !ok {
		return fmt.Errorf("strategy.trend_timeframe is not a valid interval: %s", s.TrendTimeframe)
	}
	if s.OBEntryLevel <= 0 || s.OBEntryLevel >= 1 {
		return fmt.Errorf("strategy.ob_entry_level must be inside (0,1), got %v", s.OBEntryLevel)
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.UseReinvestment && (r.ReinvestmentPercent <= 0 || r.ReinvestmentPercent > 1) {
		return fmt.Errorf("risk.reinvestment_percent must be inside (0,1], got %v", r.ReinvestmentPercent)
	}
	return nil
}
