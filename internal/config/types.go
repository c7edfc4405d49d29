package config

import "strings"

// Config is the top-level configuration carrier.
type Config struct {
	App      AppConfig      `toml:"app"`
	Exchange ExchangeConfig `toml:"exchange"`
	Strategy StrategyConfig `toml:"strategy"`
	Risk     RiskConfig     `toml:"risk"`
	Engine   EngineConfig   `toml:"engine"`
	Store    StoreConfig    `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// ExchangeConfig holds Gate.io API access settings.
type ExchangeConfig struct {
	Key            string `toml:"key"`
	Secret         string `toml:"secret"`
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StrategyConfig tunes setup detection and trend classification.
type StrategyConfig struct {
	Contract         string  `toml:"contract"`
	Timeframe        string  `toml:"timeframe"`
	TrendTimeframe   string  `toml:"trend_timeframe"`
	SwingLookback    int     `toml:"swing_lookback"`
	HTFSwingLookback int     `toml:"htf_swing_lookback"`
	OBEntryLevel     float64 `toml:"ob_entry_level"`
	RRRatio          float64 `toml:"rr_ratio"`
}

// RiskConfig controls sizing and the reinvestment (compounding) policy.
type RiskConfig struct {
	RiskPerTradeUSD     float64 `toml:"risk_per_trade_usd"`
	Leverage            int     `toml:"leverage"`
	InitialCapital      float64 `toml:"initial_capital"`
	UseReinvestment     bool    `toml:"use_reinvestment"`
	ReinvestmentPercent float64 `toml:"reinvestment_percent"`
}

// EngineConfig controls the poll loop and watchdog timing.
type EngineConfig struct {
	PollIntervalSeconds  int `toml:"poll_interval_seconds"`
	ErrorBackoffSeconds  int `toml:"error_backoff_seconds"`
	BreachTimeoutSeconds int `toml:"breach_timeout_seconds"`
	CandlePadding        int `toml:"candle_padding"`
}

type StoreConfig struct {
	TradeLogPath string `toml:"trade_log_path"`
}

// keySet tracks which config paths were explicitly set in the file, so
// defaults don't clobber deliberate falsy values.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}
