package config

import "strings"

// Defaults follow the reference parameter set for the ETH perpetual.
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"

	defaultExchangeTimeout = 15

	defaultContract       = "ETH_USDT"
	defaultTimeframe      = "3m"
	defaultTrendTimeframe = "15m"
	defaultSwingLookback  = 20
	defaultHTFLookback    = 60
	defaultOBEntryLevel   = 0.7
	defaultRRRatio        = 10.0

	defaultRiskPerTradeUSD = 0.3
	defaultLeverage        = 100
	defaultInitialCapital  = 80.0
	defaultUseReinvestment = true
	defaultReinvestmentPct = 0.3

	defaultPollInterval  = 1
	defaultErrorBackoff  = 60
	defaultBreachTimeout = 3
	defaultCandlePadding = 50
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Strategy.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Engine.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keySet) {
	if strings.TrimSpace(a.Env) == "" {
		a.Env = defaultAppEnv
	}
	if strings.TrimSpace(a.LogLevel) == "" {
		a.LogLevel = defaultAppLogLevel
	}
}

func (e *ExchangeConfig) applyDefaults(keySet) {
	if e.TimeoutSeconds <= 0 {
		e.TimeoutSeconds = defaultExchangeTimeout
	}
}

func (s *StrategyConfig) applyDefaults(keySet) {
	if strings.TrimSpace(s.Contract) == "" {
		s.Contract = defaultContract
	}
	if strings.TrimSpace(s.Timeframe) == "" {
		s.Timeframe = defaultTimeframe
	}
	if strings.TrimSpace(s.TrendTimeframe) == "" {
		s.TrendTimeframe = defaultTrendTimeframe
	}
	if s.SwingLookback <= 0 {
		s.SwingLookback = defaultSwingLookback
	}
	if s.HTFSwingLookback <= 0 {
		s.HTFSwingLookback = defaultHTFLookback
	}
	if s.OBEntryLevel <= 0 {
		s.OBEntryLevel = defaultOBEntryLevel
	}
	if s.RRRatio <= 0 {
		s.RRRatio = defaultRRRatio
	}
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r.RiskPerTradeUSD <= 0 {
		r.RiskPerTradeUSD = defaultRiskPerTradeUSD
	}
	if r.Leverage <= 0 {
		r.Leverage = defaultLeverage
	}
	if r.InitialCapital <= 0 {
		r.InitialCapital = defaultInitialCapital
	}
	if !keys.isSet("risk.use_reinvestment") {
		r.UseReinvestment = defaultUseReinvestment
	}
	if r.ReinvestmentPercent <= 0 {
		r.ReinvestmentPercent = defaultReinvestmentPct
	}
}

func (e *EngineConfig) applyDefaults(keySet) {
	if e.PollIntervalSeconds <= 0 {
		e.PollIntervalSeconds = defaultPollInterval
	}
	if e.ErrorBackoffSeconds <= 0 {
		e.ErrorBackoffSeconds = defaultErrorBackoff
	}
	if e.BreachTimeoutSeconds <= 0 {
		e.BreachTimeoutSeconds = defaultBreachTimeout
	}
	if e.CandlePadding <= 0 {
		e.CandlePadding = defaultCandlePadding
	}
}
