package app

import (
	"fmt"
	"strings"
	"time"

	obcfg "obsidian/internal/config"
	"obsidian/internal/gateway/gate"
	"obsidian/internal/logger"
	"obsidian/internal/scheduler"
	"obsidian/internal/store/tradelog"
	"obsidian/internal/trader"

	"github.com/google/uuid"
)

// Providers consumed by the generated assembly in wire_gen.go.

func provideGateway(cfg *obcfg.Config) (*gate.Gateway, error) {
	gw, err := gate.New(gate.Config{
		Key:         cfg.Exchange.Key,
		Secret:      cfg.Exchange.Secret,
		RESTBaseURL: cfg.Exchange.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("building gate gateway: %w", err)
	}
	return gw, nil
}

// provideTradeLog opens the sqlite trade log, or returns nil when no path is
// configured; the engine treats a nil recorder as "don't record".
func provideTradeLog(cfg *obcfg.Config) (*tradelog.Store, error) {
	path := strings.TrimSpace(cfg.Store.TradeLogPath)
	if path == "" {
		return nil, nil
	}
	store, err := tradelog.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trade log: %w", err)
	}
	logger.Infof("trade log at %s", path)
	return store, nil
}

func provideSizer(cfg *obcfg.Config) *trader.Sizer {
	return trader.NewSizer(trader.SizerConfig{
		BaseRiskUSD:         cfg.Risk.RiskPerTradeUSD,
		InitialCapital:      cfg.Risk.InitialCapital,
		UseReinvestment:     cfg.Risk.UseReinvestment,
		ReinvestmentPercent: cfg.Risk.ReinvestmentPercent,
	})
}

func provideRunID() string { return uuid.NewString() }

// provideEngine wires the gateway in twice: it serves as both the execution
// surface and the candle source.
func provideEngine(cfg *obcfg.Config, gw *gate.Gateway, sizer *trader.Sizer, trades *tradelog.Store, runID string) *trader.Engine {
	var recorder trader.TradeRecorder
	if trades != nil {
		recorder = trades
	}
	return trader.NewEngine(trader.Config{
		Contract:         cfg.Strategy.Contract,
		Timeframe:        cfg.Strategy.Timeframe,
		TrendTimeframe:   cfg.Strategy.TrendTimeframe,
		SwingLookback:    cfg.Strategy.SwingLookback,
		HTFSwingLookback: cfg.Strategy.HTFSwingLookback,
		OBEntryLevel:     cfg.Strategy.OBEntryLevel,
		RRRatio:          cfg.Strategy.RRRatio,
		Leverage:         cfg.Risk.Leverage,
		CandlePadding:    cfg.Engine.CandlePadding,
		BreachTimeout:    time.Duration(cfg.Engine.BreachTimeoutSeconds) * time.Second,
	}, gw, gw, sizer, trader.SystemClock(), recorder, runID)
}

func providePollLoop(cfg *obcfg.Config) *scheduler.PollLoop {
	return scheduler.NewPollLoop(
		time.Duration(cfg.Engine.PollIntervalSeconds)*time.Second,
		time.Duration(cfg.Engine.ErrorBackoffSeconds)*time.Second,
	)
}

func provideApp(cfg *obcfg.Config, engine *trader.Engine, loop *scheduler.PollLoop, trades *tradelog.Store, runID string) *App {
	return &App{
		cfg:    cfg,
		engine: engine,
		loop:   loop,
		trades: trades,
		runID:  runID,
	}
}
